package matchadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"oversight/contexts/committee-review/election-engine/ports"
)

// Client calls the external use-restriction matching service. A failed or
// unreachable service is reported through MatchResult.Failed so election
// creation can fall back to manual review instead of erroring.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type matchRequest struct {
	ReferenceID    string `json:"reference_id"`
	UseRestriction string `json:"use_restriction"`
}

type matchResponse struct {
	Match  bool `json:"match"`
	Failed bool `json:"failed"`
}

func (c *Client) Match(ctx context.Context, useRestriction string, referenceID string) (ports.MatchResult, error) {
	if c.baseURL == "" {
		return ports.MatchResult{Failed: true}, nil
	}
	body, err := json.Marshal(matchRequest{
		ReferenceID:    strings.TrimSpace(referenceID),
		UseRestriction: useRestriction,
	})
	if err != nil {
		return ports.MatchResult{Failed: true}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/match", bytes.NewReader(body))
	if err != nil {
		return ports.MatchResult{Failed: true}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("match service unreachable",
			"event", "match_client_request_failed",
			"module", "committee-review/election-engine",
			"layer", "adapter",
			"reference_id", strings.TrimSpace(referenceID),
			"error", err.Error(),
		)
		return ports.MatchResult{Failed: true}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("match service returned non-ok status",
			"event", "match_client_bad_status",
			"module", "committee-review/election-engine",
			"layer", "adapter",
			"reference_id", strings.TrimSpace(referenceID),
			"status", resp.StatusCode,
		)
		return ports.MatchResult{Failed: true}, nil
	}
	var decoded matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.MatchResult{Failed: true}, fmt.Errorf("decode match response: %w", err)
	}
	return ports.MatchResult{
		Matched: decoded.Match,
		Failed:  decoded.Failed,
	}, nil
}

var _ ports.MatchProvider = (*Client)(nil)
