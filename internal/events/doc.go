// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package events is the background-job glue for the screenshot lifecycle
// (spec.md §4.10.1 step 4): a Watermill-backed bus that fans two
// independent jobs out of a successful ingest — city-name translation and
// embedding inference — plus the creator-name translation job triggered by
// C5. Publishing and consuming are deliberately split: Bus implements the
// scheduling interfaces the core engines depend on
// (screenshots.JobScheduler, creators.TranslationScheduler), and Consumer
// wires the actual handlers, so a request path never blocks on a handler
// running.
//
// Background-job errors are logged and never propagated to the originating
// request (spec.md §7); a failed publish only produces a warning in the
// scheduling engine, and a failed handler is retried by the router's retry
// middleware before being dropped.
package events
