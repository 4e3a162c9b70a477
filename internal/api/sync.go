package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"tradingdesk/internal/syncq"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replay"
	maxReplayCommands = 100
)

type cachedResponse struct {
	status int
	header http.Header
	body   []byte
}

// idempotencyCache remembers the most recent responses by key, oldest evicted
// first.
type idempotencyCache struct {
	mu      sync.Mutex
	max     int
	order   []string
	entries map[string]cachedResponse
}

func newIdempotencyCache(max int) *idempotencyCache {
	return &idempotencyCache{max: max, entries: map[string]cachedResponse{}}
}

func (c *idempotencyCache) get(key string) (cachedResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, ok := c.entries[key]
	return resp, ok
}

func (c *idempotencyCache) put(key string, resp cachedResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return
	}
	c.entries[key] = resp
	c.order = append(c.order, key)
	for len(c.order) > c.max {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
}

// recorder buffers a response so it can be cached or embedded.
type recorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newRecorder() *recorder {
	return &recorder{header: http.Header{}, status: http.StatusOK}
}

func (r *recorder) Header() http.Header         { return r.header }
func (r *recorder) WriteHeader(status int)      { r.status = status }
func (r *recorder) Write(p []byte) (int, error) { return r.body.Write(p) }

// idempotent replays the stored response for a repeated Idempotency-Key on
// mutating requests. Keys are scoped to method and path. Concurrent requests
// with the same key run the handler once and share its response. Server
// errors are not stored.
func (s *Server) idempotent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
		if key == "" || r.Method == http.MethodGet || r.URL.Path == "/v1/sync/replay" {
			next.ServeHTTP(w, r)
			return
		}
		key = idempotencyScope(r.Method, r.URL.Path, key)
		if resp, ok := s.idem.get(key); ok {
			writeCached(w, resp, true)
			return
		}

		executed := false
		v, _, _ := s.inflight.Do(key, func() (any, error) {
			if resp, ok := s.idem.get(key); ok {
				return resp, nil
			}
			executed = true
			rec := newRecorder()
			next.ServeHTTP(rec, r)
			resp := cachedResponse{status: rec.status, header: rec.header.Clone(), body: rec.body.Bytes()}
			if resp.status < http.StatusInternalServerError {
				s.idem.put(key, resp)
			}
			return resp, nil
		})
		writeCached(w, v.(cachedResponse), !executed)
	})
}

func idempotencyScope(method, path, key string) string {
	return strings.ToUpper(method) + " " + path + " " + key
}

func writeCached(w http.ResponseWriter, resp cachedResponse, replayed bool) {
	for k, vs := range resp.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if replayed {
		w.Header().Set(replayedHeader, "true")
	}
	w.WriteHeader(resp.status)
	_, _ = w.Write(resp.body)
}

// Command is one queued request replayed by /v1/sync/replay.
type Command = syncq.Command

type ReplayResult struct {
	Path           string          `json:"path"`
	IdempotencyKey string          `json:"idempotency_key"`
	Status         int             `json:"status"`
	Replayed       bool            `json:"replayed"`
	Body           json.RawMessage `json:"body,omitempty"`
}

func validateCommand(cmd Command) error {
	switch strings.ToUpper(cmd.Method) {
	case http.MethodPost, http.MethodPut:
	default:
		return fmt.Errorf("method %q cannot be replayed", cmd.Method)
	}
	if !strings.HasPrefix(cmd.Path, "/v1/") || strings.HasPrefix(cmd.Path, "/v1/sync") || cmd.Path == "/v1/stream" {
		return fmt.Errorf("path %q cannot be replayed", cmd.Path)
	}
	return nil
}

// handleSyncReplay runs queued commands in order through the router. Each
// command keeps its own status; one failure does not stop the rest.
func (s *Server) handleSyncReplay(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Commands []Command `json:"commands"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(in.Commands) > maxReplayCommands {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d commands per replay", maxReplayCommands))
		return
	}
	for _, cmd := range in.Commands {
		if err := validateCommand(cmd); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	results := make([]ReplayResult, 0, len(in.Commands))
	for _, cmd := range in.Commands {
		key := cmd.IdempotencyKey
		if key == "" {
			key = uuid.NewString()
		}
		req, err := http.NewRequestWithContext(r.Context(), strings.ToUpper(cmd.Method), cmd.Path, bytes.NewReader(cmd.Body))
		if err != nil {
			results = append(results, ReplayResult{Path: cmd.Path, IdempotencyKey: key, Status: http.StatusBadRequest})
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(idempotencyHeader, key)
		req.RemoteAddr = r.RemoteAddr

		rec := newRecorder()
		s.mux.ServeHTTP(rec, req)
		results = append(results, ReplayResult{
			Path:           cmd.Path,
			IdempotencyKey: key,
			Status:         rec.status,
			Replayed:       rec.header.Get(replayedHeader) == "true",
			Body:           json.RawMessage(bytes.TrimSpace(rec.body.Bytes())),
		})
	}
	s.log.Info("sync replayed", "commands", len(results))
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
