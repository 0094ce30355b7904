package playtest

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

	"github.com/okian/terimu/internal/domain/types"
)

// ErrStatus reports an unexpected HTTP status from the server.
var ErrStatus = errors.New("unexpected status")

// Client is a thin JSON client for the storybook API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for baseURL with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Health checks that /healthz answers 200.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
}

// Stories lists the catalog.
func (c *Client) Stories(ctx context.Context, lang string) ([]types.StoryView, error) {
	path := "/stories"
	if lang != "" {
		path += "?lang=" + lang
	}
	var out types.StoriesView
	err := c.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK)
	return out.Stories, err
}

// CreateSession starts a game.
func (c *Client) CreateSession(ctx context.Context, storyID, lang string) (types.SessionView, error) {
	var out types.SessionView
	err := c.do(ctx, http.MethodPost, "/sessions", types.CreateSessionRequest{StoryID: storyID, Lang: lang}, &out, http.StatusCreated)
	return out, err
}

// Session fetches the current board.
func (c *Client) Session(ctx context.Context, id string) (types.SessionView, error) {
	var out types.SessionView
	err := c.do(ctx, http.MethodGet, "/sessions/"+id, nil, &out, http.StatusOK)
	return out, err
}

// Drop sends one gesture.
func (c *Client) Drop(ctx context.Context, id string, req types.DropRequest) (types.DropView, error) {
	var out types.DropView
	err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/drops", req, &out, http.StatusOK)
	return out, err
}

// Check asks for a completion check.
func (c *Client) Check(ctx context.Context, id string) (types.CheckView, error) {
	var out types.CheckView
	err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/check", nil, &out, http.StatusOK)
	return out, err
}

// End discards a game.
func (c *Client) End(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+id, nil, nil, http.StatusNoContent)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, want int) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%w: %s %s: %d %s", ErrStatus, method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}
