// Package notify implements the HTTP clients for the external notification
// and trust-score collaborators. Both sit behind circuit breakers: a flapping
// collaborator is dropped fast instead of tying up transition goroutines.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sevigo/mod-warden/internal/core"
)

// newCollaboratorHTTPClient creates an HTTP client with bounded timeouts for
// collaborator webhooks.
func newCollaboratorHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        20,
			MaxConnsPerHost:     5,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
		},
		Timeout: timeout,
	}
}

// HTTPNotifier delivers moderator, timeout and capacity notifications to the
// notification collaborator as JSON webhooks.
type HTTPNotifier struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

var _ core.Notifier = (*HTTPNotifier)(nil)

// NewHTTPNotifier creates a notifier posting to the collaborator at baseURL.
func NewHTTPNotifier(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPNotifier {
	return &HTTPNotifier{
		baseURL: baseURL,
		client:  newCollaboratorHTTPClient(timeout),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "notifier",
			Timeout: 30 * time.Second,
		}),
		logger: logger,
	}
}

func (n *HTTPNotifier) NotifyModerator(ctx context.Context, moderatorID, event string) error {
	return n.post(ctx, "/notifications/moderator", map[string]string{
		"moderatorId": moderatorID,
		"event":       event,
	})
}

func (n *HTTPNotifier) NotifyTimeout(ctx context.Context, reviewID string) error {
	return n.post(ctx, "/notifications/timeout", map[string]string{
		"reviewId": reviewID,
	})
}

func (n *HTTPNotifier) AlertCapacityExhausted(ctx context.Context, reviewID string, priority core.Priority) error {
	return n.post(ctx, "/alerts/capacity", map[string]string{
		"reviewId": reviewID,
		"priority": string(priority),
	})
}

func (n *HTTPNotifier) post(ctx context.Context, path string, body map[string]string) error {
	_, err := n.breaker.Execute(func() (any, error) {
		return nil, postJSON(ctx, n.client, n.baseURL+path, body)
	})
	if err != nil {
		return &core.DependencyError{Collaborator: "notifier", Err: err}
	}
	return nil
}

func postJSON(ctx context.Context, client *http.Client, url string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("collaborator returned status %d", resp.StatusCode)
	}
	return nil
}
