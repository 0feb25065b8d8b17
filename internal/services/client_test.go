package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/queue"
	"github.com/desertthunder/mpq/internal/shared"
	tu "github.com/desertthunder/mpq/internal/testing"
)

func TestQueueClient(t *testing.T) {
	ctx := context.Background()

	t.Run("New", func(t *testing.T) {
		c := NewQueueClient("", nil)
		if c.baseURL != "http://127.0.0.1:6680" {
			t.Errorf("expected default base url, got %s", c.baseURL)
		}
		if c.httpClient != http.DefaultClient {
			t.Error("expected http.DefaultClient to be used")
		}
	})

	t.Run("Status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/queue/status" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			json.NewEncoder(w).Encode(models.QueueStatus{Version: 7, Length: 3, Current: -1})
		}))
		defer server.Close()

		st, err := NewQueueClient(server.URL, nil).Status(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if st.Version != 7 || st.Length != 3 {
			t.Errorf("unexpected status %+v", st)
		}
	})

	t.Run("Changes Query", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("epoch") != "1" || q.Get("version") != "5" || q.Get("start") != "2" || q.Get("end") != "4" || q.Get("ids") != "true" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			json.NewEncoder(w).Encode(models.ChangeSet{Slots: []models.QueueSlot{{Position: 2, ID: 9}}})
		}))
		defer server.Close()

		end := 4
		cs, err := NewQueueClient(server.URL, nil).Changes(ctx, models.Baseline{Epoch: 1, Version: 5}, 2, &end, true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(cs.Slots) != 1 || cs.Slots[0].ID != 9 {
			t.Errorf("unexpected change set %+v", cs)
		}
	})

	t.Run("Post Body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/queue/moveid" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("expected json content type")
			}
			var req models.MoveIDRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("failed to decode body: %v", err)
			}
			if req.ID != 3 || req.To != -1 {
				t.Errorf("unexpected request %+v", req)
			}
			json.NewEncoder(w).Encode(models.QueueStatus{Version: 8})
		}))
		defer server.Close()

		st, err := NewQueueClient(server.URL, nil).MoveID(ctx, 3, -1)
		if err != nil || st.Version != 8 {
			t.Errorf("unexpected result %+v %v", st, err)
		}
	})

	t.Run("Error Kinds", func(t *testing.T) {
		tc := []struct {
			kind   string
			status int
			want   error
		}{
			{"no_such_id", http.StatusNotFound, queue.ErrNoSuchID},
			{"out_of_range", http.StatusBadRequest, queue.ErrOutOfRange},
			{"queue_full", http.StatusConflict, queue.ErrQueueFull},
			{"internal_consistency", http.StatusInternalServerError, queue.ErrInternalConsistency},
			{"rate_limited", http.StatusTooManyRequests, shared.ErrServiceUnavailable},
			{"", http.StatusBadGateway, shared.ErrAPIRequest},
		}

		for _, tt := range tc {
			t.Run(tt.kind, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					if tt.kind != "" {
						json.NewEncoder(w).Encode(models.ErrorResponse{Error: tt.kind, Message: "nope"})
					} else {
						w.Write([]byte("bad gateway"))
					}
				}))
				defer server.Close()

				_, err := NewQueueClient(server.URL, nil).DeleteID(ctx, 1)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}

				var apiErr *APIError
				if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status {
					t.Errorf("expected APIError with status %d, got %v", tt.status, err)
				}
				if tt.kind != "" && !IsKind(err, tt.kind) {
					t.Errorf("IsKind(%q) = false", tt.kind)
				}
			})
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		_, err := NewQueueClient("http://example.invalid", client).Clear(ctx)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Idle Timeout Parameter", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("timeout") != "30s" || q.Get("version") != "1" || q.Get("current") != "4" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			json.NewEncoder(w).Encode(models.QueueStatus{Version: 2})
		}))
		defer server.Close()

		st, err := NewQueueClient(server.URL, nil).Idle(ctx, models.QueueStatus{Version: 1, CurrentID: 4}, 30*time.Second)
		if err != nil || st.Version != 2 {
			t.Errorf("unexpected result %+v %v", st, err)
		}
	})
}
