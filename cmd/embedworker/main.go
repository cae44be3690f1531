// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Command embedworker is the Similarity Engine (C9)'s sidecar process: it
// reads framed inference requests from stdin, runs them through a
// pre-trained ONNX feature-extraction model, and writes framed responses
// to stdout. It is spawned and supervised by internal/similarity.WorkerClient
// and never talks to the database or blob store directly.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/tomtom215/cartographus/internal/similarity"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "embedworker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	modelPath := os.Getenv("CARTOGRAPHUS_EMBED_MODEL_PATH")
	if modelPath == "" {
		return fmt.Errorf("CARTOGRAPHUS_EMBED_MODEL_PATH must be set")
	}
	if libPath := os.Getenv("CARTOGRAPHUS_ONNXRUNTIME_LIB_PATH"); libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize onnxruntime environment: %w", err)
	}
	defer ort.DestroyEnvironment()

	model, err := newModel(modelPath)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	defer model.Close()

	stdin := bufio.NewReader(os.Stdin)
	stdout := os.Stdout

	for {
		var req similarity.Request
		if err := similarity.ReadFrame(stdin, &req); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read request frame: %w", err)
		}

		resp := handleRequest(model, req)
		if err := similarity.WriteFrame(stdout, resp); err != nil {
			return fmt.Errorf("failed to write response frame: %w", err)
		}
	}
}

// handleRequest never lets a panic or error escape as anything but a
// Response carrying an Error string: the worker must keep running and
// answer every request it is sent, even ones it cannot satisfy.
func handleRequest(model *model, req similarity.Request) similarity.Response {
	vectors, err := model.Infer(req.ImagesData)
	if err != nil {
		return similarity.Response{ID: req.ID, Error: err.Error()}
	}
	return similarity.Response{ID: req.ID, Vectors: vectors}
}

// model wraps the ONNX session. Infer must stay synchronous: onnxruntime_go
// tensors are scoped to the call and concurrent calls would race on the
// same input/output tensor buffers (spec.md §4.9).
type model struct {
	session *ort.DynamicAdvancedSession
}

func newModel(path string) (*model, error) {
	session, err := ort.NewDynamicAdvancedSession(
		path,
		[]string{"input"},
		[]string{"output"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create onnx session: %w", err)
	}
	return &model{session: session}, nil
}

func (m *model) Close() {
	m.session.Destroy()
}

// Infer decodes, resizes, and batches imagesData, runs the forward pass,
// and L2-normalizes each output row (spec.md §4.9).
func (m *model) Infer(imagesData [][]byte) ([][]float32, error) {
	if len(imagesData) == 0 {
		return nil, nil
	}

	const size = similarity.InputSize
	batch := make([]float32, 0, len(imagesData)*size*size*3)
	for i, data := range imagesData {
		pixels, err := decodeAndNormalize(data, size)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		batch = append(batch, pixels...)
	}

	inputShape := ort.NewShape(int64(len(imagesData)), int64(size), int64(size), 3)
	inputTensor, err := ort.NewTensor(inputShape, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to build input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputShape := ort.NewShape(int64(len(imagesData)), similarity.OutputDim)
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to build output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := m.session.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor}); err != nil {
		return nil, fmt.Errorf("inference run failed: %w", err)
	}

	out := outputTensor.GetData()
	vectors := make([][]float32, len(imagesData))
	for i := range imagesData {
		row := make([]float32, similarity.OutputDim)
		copy(row, out[i*similarity.OutputDim:(i+1)*similarity.OutputDim])
		vectors[i] = l2Normalize(row)
	}
	return vectors, nil
}

// decodeAndNormalize resizes src to size x size with bilinear filtering and
// returns its pixels as HWC float32 in [0, 1], the layout the model's input
// tensor expects (spec.md §4.9).
func decodeAndNormalize(data []byte, size int) ([]float32, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	pixels := make([]float32, size*size*3)
	i := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := dst.At(x, y).RGBA()
			pixels[i] = float32(r>>8) / 255
			pixels[i+1] = float32(g>>8) / 255
			pixels[i+2] = float32(b>>8) / 255
			i += 3
		}
	}
	return pixels, nil
}

func l2Normalize(v []float32) []float32 {
	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	if sumSq == 0 {
		return v
	}
	norm := float32(1 / math.Sqrt(sumSq))
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = f * norm
	}
	return out
}
