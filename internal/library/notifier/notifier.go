// Package notifier wraps an outbound webhook behind a local name. Library
// layer: it knows how to deliver an event payload and nothing else. The
// circuit breaker keeps a dead webhook endpoint from slowing every request
// that fans out a notification.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// Notifier delivers named events with an arbitrary payload.
type Notifier interface {
	Notify(ctx context.Context, event string, payload any) error
}

// NopNotifier discards all events. Used when no webhook is configured.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, string, any) error {
	return nil
}

// WebhookNotifier posts events as JSON to a fixed URL through a circuit
// breaker.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewWebhookNotifier creates a notifier posting to url. A non-positive
// timeout falls back to 5s.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "webhook-notifier",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
	})

	return &WebhookNotifier{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		breaker: cb,
	}
}

// Notify posts the event. It fails fast with gobreaker.ErrOpenState while
// the breaker is open.
func (n *WebhookNotifier) Notify(ctx context.Context, event string, payload any) error {
	body, err := json.Marshal(map[string]any{
		"event":   event,
		"payload": payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification payload: %w", err)
	}

	_, err = n.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}
