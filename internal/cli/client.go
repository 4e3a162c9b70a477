package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"tradingdesk/internal/game"
	"tradingdesk/internal/idle"
	"tradingdesk/internal/market"
	"tradingdesk/internal/syncq"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Queue, when set, receives mutating commands the server could not be
	// reached for.
	Queue *syncq.Queue
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx answer from the desk server.
type APIError struct {
	Status  int
	Reason  string
	Message string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("api status %d: %s (%s)", e.Status, e.Message, e.Reason)
	}
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// ErrQueued reports that a command was stored for a later sync instead of
// being sent.
var ErrQueued = errors.New("server unreachable, command queued")

func (c *Client) Desk(ctx context.Context) (game.DeskView, error) {
	var out game.DeskView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/desk", nil, &out, "")
	return out, err
}

func (c *Client) Instruments(ctx context.Context, sector string) ([]game.InstrumentView, error) {
	path := "/v1/instruments"
	if sector != "" {
		path += "?sector=" + url.QueryEscape(sector)
	}
	var out struct {
		Instruments []game.InstrumentView `json:"instruments"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out, "")
	return out.Instruments, err
}

func (c *Client) Instrument(ctx context.Context, symbol string) (game.InstrumentView, error) {
	var out game.InstrumentView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/instruments/"+url.PathEscape(symbol), nil, &out, "")
	return out, err
}

func (c *Client) News(ctx context.Context) ([]market.NewsItem, error) {
	var out struct {
		News []market.NewsItem `json:"news"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/news", nil, &out, "")
	return out.News, err
}

func (c *Client) Portfolio(ctx context.Context) (game.PortfolioView, error) {
	var out game.PortfolioView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/portfolio", nil, &out, "")
	return out, err
}

func (c *Client) PlaceOrder(ctx context.Context, side game.Side, symbol string, qty int) (game.TradeResult, error) {
	var out game.TradeResult
	err := c.command(ctx, http.MethodPost, "/v1/orders", map[string]any{
		"symbol":   symbol,
		"side":     side,
		"quantity": qty,
	}, &out)
	return out, err
}

func (c *Client) CloseDay(ctx context.Context) (market.DaySummary, error) {
	var out market.DaySummary
	err := c.command(ctx, http.MethodPost, "/v1/day/close", nil, &out)
	return out, err
}

func (c *Client) NextDay(ctx context.Context) (game.DeskView, error) {
	var out game.DeskView
	err := c.command(ctx, http.MethodPost, "/v1/day/next", nil, &out)
	return out, err
}

func (c *Client) NewClientCapital(ctx context.Context) (float64, error) {
	var out struct {
		Capital float64 `json:"capital"`
	}
	err := c.command(ctx, http.MethodPost, "/v1/clients/new", nil, &out)
	return out.Capital, err
}

func (c *Client) Idle(ctx context.Context) (game.IdleView, error) {
	var out game.IdleView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/idle", nil, &out, "")
	return out, err
}

func (c *Client) Tap(ctx context.Context, times int) (float64, error) {
	var out struct {
		TapBoost float64 `json:"tap_boost"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/idle/tap", map[string]any{"times": times}, &out, "")
	return out.TapBoost, err
}

func (c *Client) Boosts(ctx context.Context) ([]idle.BoostStatus, error) {
	var out struct {
		Boosts []idle.BoostStatus `json:"boosts"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/boosts", nil, &out, "")
	return out.Boosts, err
}

func (c *Client) ActivateBoost(ctx context.Context, id string) (idle.Activation, error) {
	var out idle.Activation
	err := c.command(ctx, http.MethodPost, "/v1/boosts/"+url.PathEscape(id)+"/activate", nil, &out)
	return out, err
}

func (c *Client) CollectOffline(ctx context.Context) (float64, error) {
	var out struct {
		Collected float64 `json:"collected"`
	}
	err := c.command(ctx, http.MethodPost, "/v1/offline/collect", nil, &out)
	return out.Collected, err
}

func (c *Client) Suspend(ctx context.Context) (game.DeskView, error) {
	var out game.DeskView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/session/suspend", nil, &out, "")
	return out, err
}

func (c *Client) Resume(ctx context.Context) (game.DeskView, error) {
	var out game.DeskView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/session/resume", nil, &out, "")
	return out, err
}

func (c *Client) StartTutorial(ctx context.Context) (game.DeskView, error) {
	var out game.DeskView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/tutorial/start", nil, &out, "")
	return out, err
}

func (c *Client) StopTutorial(ctx context.Context) (game.DeskView, error) {
	var out game.DeskView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/tutorial/stop", nil, &out, "")
	return out, err
}

func (c *Client) Reset(ctx context.Context) (game.DeskView, error) {
	var out game.DeskView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/reset", nil, &out, "")
	return out, err
}

func (c *Client) Feed(ctx context.Context) ([]string, error) {
	var out struct {
		Feed []string `json:"feed"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/feed", nil, &out, "")
	return out.Feed, err
}

type ReplayResult struct {
	Path           string `json:"path"`
	IdempotencyKey string `json:"idempotency_key"`
	Status         int    `json:"status"`
	Replayed       bool   `json:"replayed"`
}

// Sync replays the queued commands and clears the queue once the server has
// answered for all of them.
func (c *Client) Sync(ctx context.Context) ([]ReplayResult, error) {
	if c.Queue == nil {
		return nil, nil
	}
	commands, err := c.Queue.Load()
	if err != nil {
		return nil, err
	}
	if len(commands) == 0 {
		return nil, nil
	}
	var out struct {
		Results []ReplayResult `json:"results"`
	}
	if err := c.jsonRequest(ctx, http.MethodPost, "/v1/sync/replay", map[string]any{"commands": commands}, &out, ""); err != nil {
		return nil, err
	}
	if err := c.Queue.Clear(); err != nil {
		return out.Results, err
	}
	return out.Results, nil
}

// command sends a mutating request with a fresh idempotency key, queueing it
// when the server cannot be reached and a queue is configured.
func (c *Client) command(ctx context.Context, method, path string, in any, out any) error {
	idem := uuid.NewString()
	err := c.jsonRequest(ctx, method, path, in, out, idem)
	if err == nil || c.Queue == nil || !Unreachable(err) {
		return err
	}
	cmd := syncq.Command{Method: method, Path: path, IdempotencyKey: idem}
	if in != nil {
		raw, mErr := json.Marshal(in)
		if mErr != nil {
			return mErr
		}
		cmd.Body = raw
	}
	if qErr := c.Queue.Push(cmd); qErr != nil {
		return fmt.Errorf("%w; queue: %v", err, qErr)
	}
	return ErrQueued
}

// Unreachable reports whether err means the server was never reached.
func Unreachable(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var payload struct {
			Error  string `json:"error"`
			Reason string `json:"reason"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			apiErr.Message, apiErr.Reason = payload.Error, payload.Reason
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
