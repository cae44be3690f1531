// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package screenshots

import (
	"context"
	"math/rand"
	"time"

	"github.com/tomtom215/cartographus/internal/database"
)

// Algorithm names in the closed set spec.md §4.10.4 names.
const (
	AlgoRandom       = "random"
	AlgoTrending     = "trending"
	AlgoRecent       = "recent"
	AlgoArcheologist = "archeologist"
	AlgoSupporter    = "supporter"

	// AlgoRandomDefault tags the fallback path when every weight has been
	// exhausted without a hit.
	AlgoRandomDefault = "random_default"
)

const (
	candidatePoolSize       = 100
	defaultViewMaxAgeDays   = 60
	defaultRecencyThreshold = 30
)

// Weights maps an algorithm name to its relative draw weight.
type Weights map[string]float64

// SelectionRequest is the input to Select (spec.md §4.10.4).
type SelectionRequest struct {
	Weights              Weights
	CreatorID            string // empty means anonymous
	ViewMaxAgeDays       int    // 0 means the spec default of 60
	RecencyThresholdDays int    // 0 means the engine's configured default
}

// SelectionResult is a chosen screenshot tagged with the algorithm that
// produced it.
type SelectionResult struct {
	Screenshot *database.Screenshot
	Algorithm  string
}

// Select runs the weighted-random dispatch loop: draw an algorithm in
// proportion to its remaining weight, run it, and on a null result zero
// that algorithm's weight and redraw, until one succeeds or every weight
// is exhausted (spec.md §4.10.4).
func (e *Engine) Select(ctx context.Context, req SelectionRequest) (*SelectionResult, error) {
	excluded, err := e.excludedIDs(ctx, req.CreatorID, req.ViewMaxAgeDays)
	if err != nil {
		return nil, err
	}

	recency := req.RecencyThresholdDays
	if recency <= 0 {
		recency = defaultRecencyThreshold
	}

	remaining := make(Weights, len(req.Weights))
	for name, w := range req.Weights {
		remaining[name] = w
	}
	order := make([]string, 0, len(req.Weights))
	for name := range req.Weights {
		order = append(order, name)
	}

	for {
		sum := 0.0
		for _, w := range remaining {
			sum += w
		}
		if sum <= 0 {
			return e.randomFallback(ctx)
		}

		r := rand.Float64() * sum //nolint:gosec // selection fairness, not a security boundary
		var chosen string
		for _, name := range order {
			w := remaining[name]
			if w <= 0 {
				continue
			}
			if r < w {
				chosen = name
				break
			}
			r -= w
		}
		if chosen == "" {
			return e.randomFallback(ctx)
		}

		s, err := e.runAlgorithm(ctx, chosen, excluded, recency)
		if err != nil {
			return nil, err
		}
		if s != nil {
			return &SelectionResult{Screenshot: s, Algorithm: chosen}, nil
		}
		remaining[chosen] = 0
	}
}

func (e *Engine) excludedIDs(ctx context.Context, creatorID string, viewMaxAgeDays int) ([]string, error) {
	if creatorID == "" || e.views == nil {
		return nil, nil
	}
	maxAge := viewMaxAgeDays
	if maxAge <= 0 {
		maxAge = defaultViewMaxAgeDays
	}
	return e.views.GetViewedScreenshotIDs(ctx, creatorID, maxAge)
}

// randomFallback is the "all weights exhausted" path: pure random,
// ignoring the excluded-ids set (spec.md §4.10.4 step 2a).
func (e *Engine) randomFallback(ctx context.Context) (*SelectionResult, error) {
	s, err := e.random(ctx, nil)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	return &SelectionResult{Screenshot: s, Algorithm: AlgoRandomDefault}, nil
}

func (e *Engine) runAlgorithm(ctx context.Context, name string, excluded []string, recencyThresholdDays int) (*database.Screenshot, error) {
	switch name {
	case AlgoRandom:
		return e.random(ctx, excluded)
	case AlgoTrending:
		return e.trending(ctx, excluded)
	case AlgoRecent:
		return e.recent(ctx, excluded, recencyThresholdDays)
	case AlgoArcheologist:
		return e.archeologist(ctx, excluded, recencyThresholdDays)
	case AlgoSupporter:
		return e.supporter(ctx, excluded)
	default:
		return nil, nil
	}
}

func (e *Engine) random(ctx context.Context, excluded []string) (*database.Screenshot, error) {
	rows, err := e.db.ListScreenshots(ctx, database.ScreenshotFilter{ExcludeIDs: excluded})
	if err != nil {
		return nil, err
	}
	return uniformSample(rows), nil
}

func (e *Engine) trending(ctx context.Context, excluded []string) (*database.Screenshot, error) {
	favoritingGT := int64(1)
	rows, err := e.db.ListScreenshots(ctx, database.ScreenshotFilter{
		ExcludeIDs:   excluded,
		FavoritingGT: &favoritingGT,
		OrderBy:      "favoriting_percentage",
		Limit:        candidatePoolSize,
	})
	if err != nil {
		return nil, err
	}
	return uniformSample(rows), nil
}

func (e *Engine) recent(ctx context.Context, excluded []string, recencyThresholdDays int) (*database.Screenshot, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -recencyThresholdDays)
	rows, err := e.db.ListScreenshots(ctx, database.ScreenshotFilter{
		ExcludeIDs:   excluded,
		CreatedAfter: &cutoff,
		OrderBy:      "views_count_created_at",
		Limit:        candidatePoolSize,
	})
	if err != nil {
		return nil, err
	}
	return uniformSample(rows), nil
}

func (e *Engine) archeologist(ctx context.Context, excluded []string, recencyThresholdDays int) (*database.Screenshot, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -recencyThresholdDays)
	rows, err := e.db.ListScreenshots(ctx, database.ScreenshotFilter{
		ExcludeIDs:    excluded,
		CreatedBefore: &cutoff,
		OrderBy:       "views_count_created_at",
		Limit:         candidatePoolSize,
	})
	if err != nil {
		return nil, err
	}
	return uniformSample(rows), nil
}

// supporter samples one creator flagged isSupporter, then returns that
// creator's oldest, least-viewed non-reported screenshot (spec.md
// §4.10.4).
func (e *Engine) supporter(ctx context.Context, excluded []string) (*database.Screenshot, error) {
	supporters, err := e.db.ListSupporterCreators(ctx)
	if err != nil {
		return nil, err
	}
	if len(supporters) == 0 {
		return nil, nil
	}
	creator := supporters[rand.Intn(len(supporters))] //nolint:gosec // selection fairness, not a security boundary

	rows, err := e.db.ListScreenshots(ctx, database.ScreenshotFilter{
		CreatorID:  &creator.ID,
		ExcludeIDs: excluded,
		OrderBy:    "views_count_created_at",
		Limit:      1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func uniformSample(rows []*database.Screenshot) *database.Screenshot {
	if len(rows) == 0 {
		return nil
	}
	return rows[rand.Intn(len(rows))] //nolint:gosec // selection fairness, not a security boundary
}

