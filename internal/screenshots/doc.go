// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package screenshots implements the Screenshot Engine (C10): ingest,
// delete, report/un-report, weighted-random selection across the
// {random, trending, recent, archeologist, supporter} algorithms, and
// merge. It composes the Blob Store Gateway (C2), Image Processor (C3),
// Persistence Gateway (C1), and the View/Favorite trackers (C6/C7) without
// depending on authorization (C4/C5 run ahead of it, in internal/access)
// or on the background job consumers (internal/events) it only schedules
// work for.
package screenshots
