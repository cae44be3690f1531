// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package events

// Topics in the closed set this bus moves messages through.
const (
	TopicScreenshotIngested = "screenshot.ingested"
	TopicCreatorRenamed     = "creator.renamed"
)

// Kind discriminates the two jobs that both originate from one ingest
// (spec.md §4.10.1 step 4) and therefore share TopicScreenshotIngested.
type Kind string

const (
	KindCityNameTranslation Kind = "city_name_translation"
	KindEmbeddingInference  Kind = "embedding_inference"
)

// ScreenshotIngestedEvent is the payload published to
// TopicScreenshotIngested. Only the fields relevant to Kind are populated.
type ScreenshotIngestedEvent struct {
	Kind         Kind   `json:"kind"`
	ScreenshotID string `json:"screenshot_id"`
	CityName     string `json:"city_name,omitempty"`
	BlobKeyFHD   string `json:"blob_key_fhd,omitempty"`
}

// CreatorRenamedEvent is the payload published to TopicCreatorRenamed.
type CreatorRenamedEvent struct {
	CreatorID string `json:"creator_id"`
}
