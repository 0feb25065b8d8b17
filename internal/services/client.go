package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/queue"
	"github.com/desertthunder/mpq/internal/shared"
)

// APIError is a failed request as reported by the server.
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("%s: status %d: %s", shared.ErrAPIRequest, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap maps the error kind back to its sentinel so callers can use [errors.Is].
func (e *APIError) Unwrap() error {
	switch e.Kind {
	case "invalid_position":
		return queue.ErrInvalidPosition
	case "out_of_range":
		return queue.ErrOutOfRange
	case "no_such_id":
		return queue.ErrNoSuchID
	case "invalid_range":
		return queue.ErrInvalidRange
	case "queue_full":
		return queue.ErrQueueFull
	case "internal_consistency":
		return queue.ErrInternalConsistency
	case "not_found":
		return shared.ErrNotFound
	case "invalid_input":
		return shared.ErrInvalidInput
	case "rate_limited", "unavailable":
		return shared.ErrServiceUnavailable
	}
	return shared.ErrAPIRequest
}

// QueueClient talks to the queue endpoints of a running server.
type QueueClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewQueueClient creates a client for the server at baseURL.
func NewQueueClient(baseURL string, client *http.Client) *QueueClient {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:6680"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &QueueClient{
		baseURL:    baseURL,
		httpClient: client,
	}
}

func (c *QueueClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(data))}
		var er models.ErrorResponse
		if json.Unmarshal(data, &er) == nil && er.Error != "" {
			apiErr.Kind, apiErr.Message = er.Error, er.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *QueueClient) post(ctx context.Context, path string, body any) (models.QueueStatus, error) {
	var st models.QueueStatus
	err := c.do(ctx, http.MethodPost, path, nil, body, &st)
	return st, err
}

func spanQuery(start int, end *int) url.Values {
	q := url.Values{}
	q.Set("start", strconv.Itoa(start))
	if end != nil {
		q.Set("end", strconv.Itoa(*end))
	}
	return q
}

// Status returns the queue summary.
func (c *QueueClient) Status(ctx context.Context) (models.QueueStatus, error) {
	var st models.QueueStatus
	err := c.do(ctx, http.MethodGet, "/queue/status", nil, nil, &st)
	return st, err
}

// Info lists the entries in [start, end); a nil end reaches the tail.
func (c *QueueClient) Info(ctx context.Context, start int, end *int) ([]models.QueueItem, error) {
	var items []models.QueueItem
	err := c.do(ctx, http.MethodGet, "/queue", spanQuery(start, end), nil, &items)
	return items, err
}

// Find returns the entries matching filter, in queue order.
func (c *QueueClient) Find(ctx context.Context, filter models.TagFilter) ([]models.QueueItem, error) {
	q := url.Values{}
	q.Set("tag", filter.Tag)
	q.Set("value", filter.Value)
	if filter.Fold {
		q.Set("fold", "true")
	}

	var items []models.QueueItem
	err := c.do(ctx, http.MethodGet, "/queue/find", q, nil, &items)
	return items, err
}

// ByID returns a single entry.
func (c *QueueClient) ByID(ctx context.Context, id uint32) (models.QueueItem, error) {
	var item models.QueueItem
	err := c.do(ctx, http.MethodGet, "/queue/id/"+strconv.FormatUint(uint64(id), 10), nil, nil, &item)
	return item, err
}

// Changes returns what changed at or after version. idsOnly requests slots instead of items.
func (c *QueueClient) Changes(ctx context.Context, since models.Baseline, start int, end *int, idsOnly bool) (models.ChangeSet, error) {
	q := spanQuery(start, end)
	q.Set("epoch", strconv.FormatUint(uint64(since.Epoch), 10))
	q.Set("version", strconv.FormatUint(uint64(since.Version), 10))
	if idsOnly {
		q.Set("ids", "true")
	}

	var cs models.ChangeSet
	err := c.do(ctx, http.MethodGet, "/queue/changes", q, nil, &cs)
	return cs, err
}

// Idle blocks until the queue version or current entry differs from seen, or timeout passes,
// and returns the status.
func (c *QueueClient) Idle(ctx context.Context, seen models.QueueStatus, timeout time.Duration) (models.QueueStatus, error) {
	q := url.Values{}
	q.Set("version", strconv.FormatUint(uint64(seen.Version), 10))
	q.Set("current", strconv.FormatUint(uint64(seen.CurrentID), 10))
	q.Set("timeout", timeout.String())

	var st models.QueueStatus
	err := c.do(ctx, http.MethodGet, "/queue/idle", q, nil, &st)
	return st, err
}

// Add adds a track, directory or the whole collection.
func (c *QueueClient) Add(ctx context.Context, req models.AddRequest) (models.AddResponse, error) {
	var resp models.AddResponse
	err := c.do(ctx, http.MethodPost, "/queue/add", nil, req, &resp)
	return resp, err
}

func (c *QueueClient) Delete(ctx context.Context, span models.Span) (models.QueueStatus, error) {
	return c.post(ctx, "/queue/delete", span)
}

func (c *QueueClient) DeleteID(ctx context.Context, id uint32) (models.QueueStatus, error) {
	return c.post(ctx, "/queue/deleteid", models.IDRequest{ID: id})
}

func (c *QueueClient) Move(ctx context.Context, req models.MoveRequest) (models.QueueStatus, error) {
	return c.post(ctx, "/queue/move", req)
}

func (c *QueueClient) MoveID(ctx context.Context, id uint32, to int) (models.QueueStatus, error) {
	return c.post(ctx, "/queue/moveid", models.MoveIDRequest{ID: id, To: to})
}

func (c *QueueClient) Swap(ctx context.Context, a, b int) (models.QueueStatus, error) {
	return c.post(ctx, "/queue/swap", models.SwapRequest{A: a, B: b})
}

func (c *QueueClient) SwapID(ctx context.Context, a, b uint32) (models.QueueStatus, error) {
	return c.post(ctx, "/queue/swapid", models.SwapIDRequest{A: a, B: b})
}

func (c *QueueClient) Prio(ctx context.Context, priority int, ranges []models.Span) (models.QueueStatus, error) {
	return c.post(ctx, "/queue/prio", models.PrioRequest{Priority: priority, Ranges: ranges})
}

func (c *QueueClient) PrioID(ctx context.Context, priority int, ids []uint32) (models.QueueStatus, error) {
	return c.post(ctx, "/queue/prioid", models.PrioIDRequest{Priority: priority, IDs: ids})
}

// RangeID sets the play range of id from a "START:END" string in seconds.
func (c *QueueClient) RangeID(ctx context.Context, id uint32, rng string) (models.QueueStatus, error) {
	return c.post(ctx, "/queue/rangeid", models.RangeIDRequest{ID: id, Range: rng})
}

func (c *QueueClient) Shuffle(ctx context.Context, span models.Span) (models.QueueStatus, error) {
	return c.post(ctx, "/queue/shuffle", span)
}

func (c *QueueClient) Clear(ctx context.Context) (models.QueueStatus, error) {
	return c.post(ctx, "/queue/clear", nil)
}

// SetCurrent moves the player cursor. Zero clears it.
func (c *QueueClient) SetCurrent(ctx context.Context, id uint32) (models.QueueStatus, error) {
	return c.post(ctx, "/queue/current", models.IDRequest{ID: id})
}

// Save stores the queue under name; an empty name overwrites the server's own state.
func (c *QueueClient) Save(ctx context.Context, name string) (models.QueueStatus, error) {
	return c.post(ctx, "/queue/save", models.SnapshotRequest{Name: name})
}

// Load replaces the queue with the snapshot called name.
func (c *QueueClient) Load(ctx context.Context, name string) (models.QueueStatus, error) {
	return c.post(ctx, "/queue/load", models.SnapshotRequest{Name: name})
}

// Snapshots lists the saved queues.
func (c *QueueClient) Snapshots(ctx context.Context) ([]models.SnapshotSummary, error) {
	var out []models.SnapshotSummary
	err := c.do(ctx, http.MethodGet, "/queue/snapshots", nil, nil, &out)
	return out, err
}

// DeleteSnapshot removes a saved queue.
func (c *QueueClient) DeleteSnapshot(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/queue/snapshots/"+url.PathEscape(name), nil, nil, nil)
}

// IsKind reports whether err is an [APIError] of the given kind.
func IsKind(err error, kind string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
