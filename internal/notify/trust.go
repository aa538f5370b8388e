package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sevigo/mod-warden/internal/core"
)

// HTTPTrustClient talks to the trust-score collaborator. The prior-analysis
// snapshot is consumed opaquely; how the score is computed is not this
// service's business.
type HTTPTrustClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

var _ core.TrustClient = (*HTTPTrustClient)(nil)

// NewHTTPTrustClient creates a trust-score client for the collaborator at
// baseURL.
func NewHTTPTrustClient(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPTrustClient {
	return &HTTPTrustClient{
		baseURL: baseURL,
		client:  newCollaboratorHTTPClient(timeout),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "trust-score",
			Timeout: 30 * time.Second,
		}),
		logger: logger,
	}
}

func (c *HTTPTrustClient) GetPriorAnalysis(ctx context.Context, subjectID string) (core.PriorAnalysis, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		url := fmt.Sprintf("%s/analysis/%s", c.baseURL, subjectID)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return core.PriorAnalysis{}, err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return core.PriorAnalysis{}, err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return core.PriorAnalysis{}, fmt.Errorf("trust-score collaborator returned status %d", resp.StatusCode)
		}

		var analysis core.PriorAnalysis
		if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
			return core.PriorAnalysis{}, fmt.Errorf("failed to decode prior analysis: %w", err)
		}
		return analysis, nil
	})
	if err != nil {
		return core.PriorAnalysis{}, &core.DependencyError{Collaborator: "trust-score", Err: err}
	}
	return result.(core.PriorAnalysis), nil
}

func (c *HTTPTrustClient) TriggerRecalculation(ctx context.Context, subjectID string) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, postJSON(ctx, c.client, c.baseURL+"/recalculate", map[string]string{
			"subjectId": subjectID,
		})
	})
	if err != nil {
		return &core.DependencyError{Collaborator: "trust-score", Err: err}
	}
	return nil
}
