// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cartographus/internal/database"
	"github.com/tomtom215/cartographus/internal/logging"
)

// openAITranslator implements events.Translator against the OpenAI chat
// completions API (spec.md §1 names the translation service an excluded
// external collaborator spoken to only through that interface).
type openAITranslator struct {
	apiKey string
	client *http.Client
	db     *database.DB
}

func newOpenAITranslator(apiKey string, db *database.DB) *openAITranslator {
	return &openAITranslator{apiKey: apiKey, client: &http.Client{Timeout: 30 * time.Second}, db: db}
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (t *openAITranslator) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model: "gpt-4o-mini",
		Messages: []chatMessage{
			{Role: "system", Content: "Translate the given text to English. Reply with only the translation."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode translation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build translation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call translation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("translation service returned %d: %s", resp.StatusCode, data)
	}

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode translation response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("translation service returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// TranslateCityName translates a screenshot's city name to English.
//
// Persisting the translated name needs a screenshot update path this
// module doesn't expose yet (spec.md §4.10.1 only names ScheduleCityNameTranslation
// as firing the job, not a write-back contract); until one exists, this
// only resolves the translation and logs it.
func (t *openAITranslator) TranslateCityName(ctx context.Context, screenshotID, cityName string) error {
	translated, err := t.complete(ctx, cityName)
	if err != nil {
		return fmt.Errorf("translate city name for screenshot %s: %w", screenshotID, err)
	}
	logging.Info().Str("screenshot_id", screenshotID).Str("translated", translated).Msg("city name translated")
	return nil
}

// TranslateCreatorName translates a creator's display name to English and
// persists the result, clearing NeedsTranslation so the scheduler doesn't
// refire for the same name (creatorID here is the internal database id,
// not the client-presented creatorId UUID).
func (t *openAITranslator) TranslateCreatorName(ctx context.Context, creatorID string) error {
	c, err := t.db.GetCreatorByID(ctx, creatorID)
	if err != nil {
		return fmt.Errorf("load creator %s for translation: %w", creatorID, err)
	}
	if c.CreatorName == nil || *c.CreatorName == "" {
		return nil
	}

	translated, err := t.complete(ctx, *c.CreatorName)
	if err != nil {
		return fmt.Errorf("translate creator name for %s: %w", creatorID, err)
	}

	c.NameTranslated = &translated
	c.NeedsTranslation = false
	if err := t.db.UpdateCreator(ctx, c); err != nil {
		return fmt.Errorf("persist translated creator name for %s: %w", creatorID, err)
	}

	logging.Info().Str("creator_id", creatorID).Str("translated", translated).Msg("creator name translated")
	return nil
}
