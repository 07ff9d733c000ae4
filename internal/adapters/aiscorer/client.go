// Package aiscorer provides the HTTP client for the external AI venue
// scoring service.
package aiscorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"gatherplan/internal/domain"
)

type httpScorer struct {
	client  *http.Client
	baseURL string
}

// NewHTTPScorer returns a VenueScorer that calls the external scoring API.
func NewHTTPScorer(client *http.Client, baseURL string) domain.VenueScorer {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpScorer{client: client, baseURL: baseURL}
}

type analyzeResponse struct {
	Adjustments []*domain.VenueAdjustment `json:"adjustments"`
}

func (s *httpScorer) AnalyzeVenues(ctx context.Context, req *domain.VenueAnalysisRequest) ([]*domain.VenueAdjustment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis request: %w", err)
	}
	url := fmt.Sprintf("%s/v1/venues/analyze", s.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call ai scorer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ai scorer returned status: %d", resp.StatusCode)
	}

	var data analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode ai scorer response: %w", err)
	}
	return data.Adjustments, nil
}
