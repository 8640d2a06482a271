package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/FloScythe/fitness-rpg/internal/models"
)

// TokenSource supplies the bearer credential. An empty token means
// unauthenticated.
type TokenSource interface {
	Token() string
}

// Client talks to the remote sync endpoints over HTTP. It performs
// single attempts; retry policy lives in the Manager.
type Client struct {
	serverURL  string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a sync client for the given server.
func NewClient(serverURL string, tokens TokenSource) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		tokens:    tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type pushItem struct {
	EntityType models.SyncEntityType `json:"entity_type"`
	EntityUUID string                `json:"entity_uuid"`
	Action     models.SyncAction     `json:"action"`
	Data       json.RawMessage       `json:"data"`
}

type pushRequest struct {
	Items []pushItem `json:"items"`
}

// PushResult is the server's acknowledgment of a push batch.
type PushResult struct {
	Synced int       `json:"synced"`
	User   *wireUser `json:"user,omitempty"`
}

// Push sends pending queue entries as one batch. The batch is atomic:
// a 2xx acknowledges every item, anything else acknowledges none.
func (c *Client) Push(ctx context.Context, entries []models.SyncQueueEntry) (*PushResult, error) {
	req := pushRequest{Items: make([]pushItem, 0, len(entries))}
	for _, e := range entries {
		req.Items = append(req.Items, pushItem{
			EntityType: e.EntityType,
			EntityUUID: e.EntityID,
			Action:     e.Action,
			Data:       e.Payload,
		})
	}

	var result PushResult
	if err := c.do(ctx, http.MethodPost, "/sync/push", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Pull fetches the server's view of the profile and all workouts.
func (c *Client) Pull(ctx context.Context) (*pullResponse, error) {
	var result pullResponse
	if err := c.do(ctx, http.MethodGet, "/sync/pull", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteWorkout asks the server to drop a workout. A 404 means it is
// already gone and counts as success.
func (c *Client) DeleteWorkout(ctx context.Context, workoutID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/workouts/"+workoutID, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNotFound {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("delete failed (status %d): %s", resp.StatusCode, body)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s failed (status %d): %s", method, path, resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
