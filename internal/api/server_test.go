package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingdesk/internal/api"
	"tradingdesk/internal/clock"
	"tradingdesk/internal/game"
	"tradingdesk/internal/market"
	"tradingdesk/internal/stream"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServer(t *testing.T, opts api.Options) (*api.Server, *game.Service) {
	t.Helper()
	n := 0
	deps := game.Deps{
		Clock: clock.NewManual(time.UnixMilli(1_700_000_000_000)),
		Rand:  market.NewRand(7),
		NewID: func() string { n++; return fmt.Sprintf("id-%d", n) },
	}
	svc := game.NewService(nil, deps, game.Options{}, quietLogger())
	require.NoError(t, svc.Load(context.Background()))
	return api.New(svc, nil, opts, quietLogger()), svc
}

type response struct {
	Status int
	Header http.Header
	Body   map[string]any
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := response{Status: rec.Code, Header: rec.Header()}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out.Body), rec.Body.String())
	}
	return out
}

func TestHealthAndDesk(t *testing.T) {
	srv, _ := newServer(t, api.Options{})
	h := srv.Handler()

	res := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, true, res.Body["ok"])

	res = do(t, h, http.MethodGet, "/v1/desk", "")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, 1.0, res.Body["day"])
	assert.Equal(t, "open", res.Body["phase"])
	assert.Equal(t, "Junior", res.Body["tier"])
}

func TestInstruments(t *testing.T) {
	srv, _ := newServer(t, api.Options{})
	h := srv.Handler()

	res := do(t, h, http.MethodGet, "/v1/instruments", "")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Len(t, res.Body["instruments"], 15)

	res = do(t, h, http.MethodGet, "/v1/instruments?sector=technology", "")
	require.Equal(t, http.StatusOK, res.Status)
	list := res.Body["instruments"].([]any)
	require.NotEmpty(t, list)
	for _, raw := range list {
		assert.Equal(t, "Technology", raw.(map[string]any)["sector"])
	}

	res = do(t, h, http.MethodGet, "/v1/instruments/nlsy", "")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "NLSY", res.Body["symbol"])

	res = do(t, h, http.MethodGet, "/v1/instruments/ZZZZ", "")
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "unknown_instrument", res.Body["reason"])
}

func TestOrders(t *testing.T) {
	srv, svc := newServer(t, api.Options{})
	h := srv.Handler()

	tests := []struct {
		name   string
		body   string
		status int
		reason string
	}{
		{"buy", `{"symbol":"NLSY","side":"buy","quantity":5}`, http.StatusOK, ""},
		{"oversell", `{"symbol":"NLSY","side":"sell","quantity":100}`, http.StatusBadRequest, "insufficient_shares"},
		{"zero quantity", `{"symbol":"NLSY","side":"buy","quantity":0}`, http.StatusBadRequest, "invalid_quantity"},
		{"unknown symbol", `{"symbol":"ZZZZ","side":"buy","quantity":1}`, http.StatusNotFound, "unknown_instrument"},
		{"bad side", `{"symbol":"NLSY","side":"short","quantity":1}`, http.StatusBadRequest, ""},
		{"unknown field", `{"symbol":"NLSY","side":"buy","qty":1}`, http.StatusBadRequest, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := do(t, h, http.MethodPost, "/v1/orders", tc.body)
			assert.Equal(t, tc.status, res.Status)
			if tc.reason != "" {
				assert.Equal(t, tc.reason, res.Body["reason"])
			}
		})
	}

	p := svc.Portfolio()
	require.Len(t, p.Positions, 1)
	assert.Equal(t, 5, p.Positions[0].Shares)
}

func TestDayCycle(t *testing.T) {
	srv, _ := newServer(t, api.Options{})
	h := srv.Handler()

	res := do(t, h, http.MethodPost, "/v1/day/next", "")
	assert.Equal(t, http.StatusConflict, res.Status)
	assert.Equal(t, "day_not_settled", res.Body["reason"])

	res = do(t, h, http.MethodPost, "/v1/day/close", "")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, "pnl")

	res = do(t, h, http.MethodPost, "/v1/day/close", "")
	assert.Equal(t, http.StatusConflict, res.Status)
	assert.Equal(t, "market_closed", res.Body["reason"])

	res = do(t, h, http.MethodPost, "/v1/orders", `{"symbol":"NLSY","side":"buy","quantity":1}`)
	assert.Equal(t, http.StatusConflict, res.Status)

	res = do(t, h, http.MethodPost, "/v1/day/next", "")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, 2.0, res.Body["day"])
}

func TestTapRateLimit(t *testing.T) {
	srv, _ := newServer(t, api.Options{TapRate: 2})
	h := srv.Handler()

	res := do(t, h, http.MethodPost, "/v1/idle/tap", `{"times":2}`)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, 4.0, res.Body["tap_boost"])

	res = do(t, h, http.MethodPost, "/v1/idle/tap", "")
	assert.Equal(t, http.StatusTooManyRequests, res.Status)
	assert.Equal(t, "rate_limited", res.Body["reason"])

	res = do(t, h, http.MethodPost, "/v1/idle/tap", `{"times":5}`)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "invalid_quantity", res.Body["reason"])
}

func TestIdempotentRequests(t *testing.T) {
	srv, svc := newServer(t, api.Options{})
	h := srv.Handler()

	first := do(t, h, http.MethodPost, "/v1/clients/new", "", "Idempotency-Key", "client-1")
	require.Equal(t, http.StatusOK, first.Status)
	assert.Equal(t, 50000.0, first.Body["capital"])
	cash := svc.Desk().Cash

	again := do(t, h, http.MethodPost, "/v1/clients/new", "", "Idempotency-Key", "client-1")
	require.Equal(t, http.StatusOK, again.Status)
	assert.Equal(t, "true", again.Header.Get("Idempotent-Replay"))
	assert.Equal(t, first.Body, again.Body)
	assert.Equal(t, cash, svc.Desk().Cash)

	other := do(t, h, http.MethodPost, "/v1/clients/new", "", "Idempotency-Key", "client-2")
	assert.Equal(t, http.StatusConflict, other.Status)
	assert.Equal(t, "client_already_used", other.Body["reason"])
}

func TestIdempotentConcurrentRequestsRunOnce(t *testing.T) {
	srv, svc := newServer(t, api.Options{})
	h := srv.Handler()

	const n = 32
	var wg sync.WaitGroup
	statuses := make([]int, n)
	replays := make([]string, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			req := httptest.NewRequest(http.MethodPost, "/v1/orders", strings.NewReader(`{"symbol":"NLSY","side":"buy","quantity":1}`))
			req.Header.Set("Idempotency-Key", "order-1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			statuses[i] = rec.Code
			replays[i] = rec.Header().Get("Idempotent-Replay")
		}(i)
	}
	close(start)
	wg.Wait()

	executed := 0
	for i := 0; i < n; i++ {
		assert.Equal(t, http.StatusOK, statuses[i])
		if replays[i] != "true" {
			executed++
		}
	}
	assert.Equal(t, 1, executed)

	p := svc.Portfolio()
	require.Len(t, p.Positions, 1)
	assert.Equal(t, 1, p.Positions[0].Shares)
}

func TestIdempotencyKeyScopedToRoute(t *testing.T) {
	srv, svc := newServer(t, api.Options{})
	h := srv.Handler()

	res := do(t, h, http.MethodPost, "/v1/orders", `{"symbol":"NLSY","side":"buy","quantity":2}`, "Idempotency-Key", "shared")
	require.Equal(t, http.StatusOK, res.Status)

	res = do(t, h, http.MethodPost, "/v1/clients/new", "", "Idempotency-Key", "shared")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Empty(t, res.Header.Get("Idempotent-Replay"))
	assert.Equal(t, 50000.0, res.Body["capital"])

	res = do(t, h, http.MethodPost, "/v1/orders", `{"symbol":"NLSY","side":"buy","quantity":2}`, "Idempotency-Key", "shared")
	assert.Equal(t, "true", res.Header.Get("Idempotent-Replay"))
	assert.Equal(t, 2, svc.Portfolio().Positions[0].Shares)
}

func TestSyncReplay(t *testing.T) {
	srv, svc := newServer(t, api.Options{})
	h := srv.Handler()

	body, err := json.Marshal(map[string]any{"commands": []api.Command{
		{Method: "POST", Path: "/v1/orders", Body: json.RawMessage(`{"symbol":"VCLD","side":"buy","quantity":3}`), IdempotencyKey: "q-1"},
		{Method: "POST", Path: "/v1/clients/new", IdempotencyKey: "q-2"},
		{Method: "POST", Path: "/v1/clients/new", IdempotencyKey: "q-3"},
		{Method: "POST", Path: "/v1/orders", Body: json.RawMessage(`{"symbol":"VCLD","side":"buy","quantity":3}`), IdempotencyKey: "q-1"},
	}})
	require.NoError(t, err)

	res := do(t, h, http.MethodPost, "/v1/sync/replay", string(body))
	require.Equal(t, http.StatusOK, res.Status)
	results := res.Body["results"].([]any)
	require.Len(t, results, 4)

	status := func(i int) float64 { return results[i].(map[string]any)["status"].(float64) }
	assert.Equal(t, 200.0, status(0))
	assert.Equal(t, 200.0, status(1))
	assert.Equal(t, 409.0, status(2))
	assert.Equal(t, 200.0, status(3))
	assert.Equal(t, true, results[3].(map[string]any)["replayed"])

	p := svc.Portfolio()
	require.Len(t, p.Positions, 1)
	assert.Equal(t, 3, p.Positions[0].Shares, "a replayed key does not trade twice")
}

func TestSyncReplayRejectsBadCommands(t *testing.T) {
	srv, _ := newServer(t, api.Options{})
	h := srv.Handler()

	for _, cmd := range []string{
		`{"commands":[{"method":"GET","path":"/v1/desk"}]}`,
		`{"commands":[{"method":"POST","path":"/v1/sync/replay"}]}`,
		`{"commands":[{"method":"POST","path":"/healthz"}]}`,
	} {
		res := do(t, h, http.MethodPost, "/v1/sync/replay", cmd)
		assert.Equal(t, http.StatusBadRequest, res.Status, cmd)
	}
}

func TestBoostsAndCollect(t *testing.T) {
	srv, _ := newServer(t, api.Options{})
	h := srv.Handler()

	res := do(t, h, http.MethodGet, "/v1/boosts", "")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Len(t, res.Body["boosts"], 2)

	res = do(t, h, http.MethodPost, "/v1/boosts/nope/activate", "")
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "unknown_boost", res.Body["reason"])

	res = do(t, h, http.MethodPost, "/v1/boosts/double-income/activate", "")
	require.Equal(t, http.StatusOK, res.Status)

	res = do(t, h, http.MethodPost, "/v1/boosts/double-income/activate", "")
	assert.Equal(t, http.StatusConflict, res.Status)
	assert.Equal(t, "boost_cooldown", res.Body["reason"])

	res = do(t, h, http.MethodPost, "/v1/offline/collect", "")
	assert.Equal(t, http.StatusConflict, res.Status)
	assert.Equal(t, "nothing_to_collect", res.Body["reason"])
}

func TestSessionAndTutorial(t *testing.T) {
	srv, _ := newServer(t, api.Options{})
	h := srv.Handler()

	res := do(t, h, http.MethodPost, "/v1/session/suspend", "")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, true, res.Body["suspended"])

	res = do(t, h, http.MethodPost, "/v1/session/resume", "")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, false, res.Body["suspended"])

	res = do(t, h, http.MethodPost, "/v1/tutorial/start", "")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, true, res.Body["tutorial"])

	res = do(t, h, http.MethodPost, "/v1/tutorial/stop", "")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, false, res.Body["tutorial"])

	res = do(t, h, http.MethodPost, "/v1/reset", "")
	require.Equal(t, http.StatusOK, res.Status)

	res = do(t, h, http.MethodGet, "/v1/feed", "")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Len(t, res.Body["feed"], 1)
}

func TestCosmetics(t *testing.T) {
	srv, _ := newServer(t, api.Options{})
	h := srv.Handler()

	res := do(t, h, http.MethodPut, "/v1/cosmetics", `{"owned":["lamp","plant"],"equipped":{"desk":"lamp"}}`)
	require.Equal(t, http.StatusOK, res.Status)

	res = do(t, h, http.MethodGet, "/v1/cosmetics", "")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, []any{"lamp", "plant"}, res.Body["owned"])
	assert.Equal(t, map[string]any{"desk": "lamp"}, res.Body["equipped"])
}

func TestStreamSendsDeskOnConnect(t *testing.T) {
	n := 0
	deps := game.Deps{
		Clock: clock.NewManual(time.UnixMilli(1_700_000_000_000)),
		Rand:  market.NewRand(7),
		NewID: func() string { n++; return fmt.Sprintf("id-%d", n) },
	}
	svc := game.NewService(nil, deps, game.Options{}, quietLogger())
	require.NoError(t, svc.Load(context.Background()))

	hub := stream.NewHub(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	ts := httptest.NewServer(api.New(svc, hub, api.Options{}, quietLogger()).Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/v1/stream", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev game.Event
	require.NoError(t, json.NewDecoder(bytes.NewReader(raw)).Decode(&ev))
	assert.Equal(t, game.EventSession, ev.Kind)
	assert.Equal(t, 1, ev.Desk.Day)
}
