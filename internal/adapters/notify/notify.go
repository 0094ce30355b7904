// Package notify delivers completion notifications outside the process.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/terimu/internal/domain/model"
	"github.com/okian/terimu/pkg/logger"
)

// Sentinel kinds for delivery errors.
var (
	ErrDelivery   = errors.New("notification delivery failed")
	ErrInvalidURL = errors.New("invalid webhook url")
)

// Notifier delivers one completion.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, c model.Completion) error
}

// LogNotifier writes a structured log line per completion.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier returns a notifier backed by log.
func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Name implements Notifier.
func (n *LogNotifier) Name() string { return "log" }

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, c model.Completion) error {
	n.log.Info(ctx, "story completed",
		logger.String("session_id", c.SessionID),
		logger.String("story_id", c.StoryID),
		logger.String("lang", c.Lang),
		logger.Int("attempts", c.Attempts),
		logger.Int("moves", c.Moves),
		logger.String("completed_at", c.CompletedAt.Format(time.RFC3339)),
	)
	return nil
}

// WebhookNotifier POSTs each completion as JSON.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// WebhookOption configures a WebhookNotifier.
type WebhookOption func(*WebhookNotifier)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *WebhookNotifier) {
		if c != nil {
			w.client = c
		}
	}
}

// WithTimeout bounds a single delivery attempt.
func WithTimeout(d time.Duration) WebhookOption {
	return func(w *WebhookNotifier) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// NewWebhookNotifier validates url and returns a notifier posting to it.
func NewWebhookNotifier(url string, opts ...WebhookOption) (*WebhookNotifier, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, url)
	}
	w := &WebhookNotifier{
		url:     url,
		client:  http.DefaultClient,
		timeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Name implements Notifier.
func (w *WebhookNotifier) Name() string { return "webhook" }

// Notify implements Notifier. Any non-2xx answer is a failed delivery.
func (w *WebhookNotifier) Notify(ctx context.Context, c model.Completion) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal completion: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrDelivery, resp.StatusCode)
	}
	return nil
}

// Multi fans a completion out to several notifiers and joins their errors.
type Multi []Notifier

// Name implements Notifier.
func (m Multi) Name() string {
	names := make([]string, 0, len(m))
	for _, n := range m {
		names = append(names, n.Name())
	}
	return strings.Join(names, "+")
}

// Notify implements Notifier. Every notifier is tried even if one fails.
func (m Multi) Notify(ctx context.Context, c model.Completion) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, c); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
