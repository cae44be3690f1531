// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package similarity

// Request is one IPC message sent to the embedding worker over its stdin
// pipe, msgpack-framed (spec.md §4.9: "Request {id: int, imagesData:
// bytes[]}").
type Request struct {
	ID         int      `msgpack:"id"`
	ImagesData [][]byte `msgpack:"imagesData"`
}

// Response is the worker's reply over its stdout pipe. Exactly one of
// Error or Vectors is set; Error carries a message rather than a typed
// apperr.Kind since the worker is a separate process with no apperr
// dependency.
type Response struct {
	ID      int       `msgpack:"id"`
	Error   string    `msgpack:"error,omitempty"`
	Vectors [][]float32 `msgpack:"vectors,omitempty"`
}

// InputSize and OutputDim are the model's fixed input resolution and
// output embedding dimension (spec.md §4.9).
const (
	InputSize = 480
	OutputDim = 1280
)
