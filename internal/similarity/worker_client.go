// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package similarity

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/metrics"
)

// WorkerClient owns the embedding worker subprocess: it spawns it once,
// keeps it alive for the client's lifetime, and correlates
// request/response pairs by id over its stdin/stdout pipes (spec.md §4.9).
type WorkerClient struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	writeMu sync.Mutex
	nextID  int64

	pendingMu sync.Mutex
	pending   map[int]chan Response

	breaker *gobreaker.CircuitBreaker[[][]float32]

	requestTimeout time.Duration

	shuttingDown atomic.Bool
	exited       chan struct{}
}

// NewWorkerClient spawns binaryPath as the embedding worker and starts its
// response-reader loop.
func NewWorkerClient(binaryPath string, requestTimeout time.Duration) (*WorkerClient, error) {
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}

	cmd := exec.Command(binaryPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker stdout: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start embedding worker: %w", err)
	}

	settings := gobreaker.Settings{
		Name:        "similarity-worker",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}

	c := &WorkerClient{
		cmd:            cmd,
		stdin:          stdin,
		stdout:         bufio.NewReader(stdout),
		pending:        make(map[int]chan Response),
		breaker:        gobreaker.NewCircuitBreaker[[][]float32](settings),
		requestTimeout: requestTimeout,
		exited:         make(chan struct{}),
	}

	go c.readLoop()
	go c.waitLoop()

	return c, nil
}

// Infer sends imagesData to the worker and returns one Float32Array per
// image, correlated by request id and bounded by the client's request
// timeout (spec.md §4.9: "the client waits on a 60-second timeout").
func (c *WorkerClient) Infer(ctx context.Context, imagesData [][]byte) ([][]float32, error) {
	vectors, err := c.breaker.Execute(func() ([][]float32, error) {
		return c.infer(ctx, imagesData)
	})

	metrics.SetEmbedWorkerCircuitState(int(c.breaker.State()))
	result := "success"
	if err != nil {
		result = "failure"
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			result = "rejected"
		}
	}
	metrics.RecordEmbedWorkerRequest(result, len(imagesData))

	return vectors, err
}

func (c *WorkerClient) infer(ctx context.Context, imagesData [][]byte) ([][]float32, error) {
	id := int(atomic.AddInt64(&c.nextID, 1))
	respCh := make(chan Response, 1)

	c.pendingMu.Lock()
	c.pending[id] = respCh
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	c.writeMu.Lock()
	err := WriteFrame(c.stdin, Request{ID: id, ImagesData: imagesData})
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to send inference request: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	select {
	case resp := <-respCh:
		if resp.Error != "" {
			return nil, fmt.Errorf("embedding worker error: %s", resp.Error)
		}
		return resp.Vectors, nil
	case <-timeoutCtx.Done():
		return nil, fmt.Errorf("embedding worker request %d timed out: %w", id, timeoutCtx.Err())
	case <-c.exited:
		return nil, fmt.Errorf("embedding worker exited while request %d was in flight", id)
	}
}

func (c *WorkerClient) readLoop() {
	for {
		var resp Response
		if err := ReadFrame(c.stdout, &resp); err != nil {
			if err != io.EOF {
				logging.Warn().Err(err).Msg("embedding worker response stream error")
			}
			return
		}

		c.pendingMu.Lock()
		ch, ok := c.pending[resp.ID]
		c.pendingMu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

func (c *WorkerClient) waitLoop() {
	err := c.cmd.Wait()
	close(c.exited)
	if !c.shuttingDown.Load() {
		logging.Error().Err(err).Msg("embedding worker exited unexpectedly")
	}
}

// Exited returns a channel closed once the worker subprocess has exited,
// whether requested via Shutdown or not.
func (c *WorkerClient) Exited() <-chan struct{} {
	return c.exited
}

// Shutdown requests the worker process exit and waits for it, suppressing
// the "unexpected exit" log that would otherwise fire (spec.md §4.9: "must
// fail loudly unless it had requested the shutdown").
func (c *WorkerClient) Shutdown() error {
	c.shuttingDown.Store(true)
	if err := c.stdin.Close(); err != nil {
		return fmt.Errorf("failed to close worker stdin: %w", err)
	}
	<-c.exited
	return nil
}
