package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"tradingdesk/internal/game"
	"tradingdesk/internal/reason"
	"tradingdesk/internal/stream"
)

type Options struct {
	// TapRate is the sustained taps per second; the burst is the same number
	// rounded up.
	TapRate   float64
	AccessLog bool
}

type Server struct {
	opts     Options
	log      *slog.Logger
	game     *game.Service
	hub      *stream.Hub
	taps     *rate.Limiter
	idem     *idempotencyCache
	inflight singleflight.Group
	mux      *chi.Mux
}

func New(gameSvc *game.Service, hub *stream.Hub, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TapRate <= 0 {
		opts.TapRate = 15
	}
	s := &Server{
		opts: opts,
		log:  logger,
		game: gameSvc,
		hub:  hub,
		taps: rate.NewLimiter(rate.Limit(opts.TapRate), tapBurst(opts.TapRate)),
		idem: newIdempotencyCache(256),
		mux:  chi.NewRouter(),
	}
	s.routes()
	return s
}

func tapBurst(r float64) int {
	return int(math.Max(1, math.Ceil(r)))
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		if s.hub != nil {
			r.Get("/stream", s.handleStream)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			if s.opts.AccessLog {
				r.Use(s.logRequests)
			}
			r.Use(s.idempotent)

			r.Get("/desk", s.handleDesk)
			r.Get("/instruments", s.handleInstruments)
			r.Get("/instruments/{symbol}", s.handleInstrument)
			r.Get("/news", s.handleNews)
			r.Get("/portfolio", s.handlePortfolio)
			r.Post("/orders", s.handleOrder)

			r.Post("/day/close", s.handleCloseDay)
			r.Post("/day/next", s.handleNextDay)
			r.Post("/clients/new", s.handleNewClient)

			r.Get("/idle", s.handleIdle)
			r.Post("/idle/tap", s.handleTap)
			r.Get("/boosts", s.handleBoosts)
			r.Post("/boosts/{id}/activate", s.handleActivateBoost)
			r.Post("/offline/collect", s.handleCollect)

			r.Post("/session/suspend", s.handleSuspend)
			r.Post("/session/resume", s.handleResume)
			r.Post("/tutorial/start", s.handleTutorialStart)
			r.Post("/tutorial/stop", s.handleTutorialStop)
			r.Post("/reset", s.handleReset)

			r.Get("/feed", s.handleFeed)
			r.Get("/cosmetics", s.handleCosmetics)
			r.Put("/cosmetics", s.handleSetCosmetics)

			r.Post("/sync/replay", s.handleSyncReplay)
		})
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"dur_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	s.hub.Handler(func() any {
		return game.Event{Kind: game.EventSession, At: time.Now(), Desk: s.game.Desk()}
	})(w, r)
}

func (s *Server) handleDesk(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Desk())
}

func (s *Server) handleInstruments(w http.ResponseWriter, r *http.Request) {
	list := s.game.Instruments()
	if sector := strings.TrimSpace(r.URL.Query().Get("sector")); sector != "" {
		filtered := list[:0]
		for _, in := range list {
			if strings.EqualFold(in.Sector, sector) {
				filtered = append(filtered, in)
			}
		}
		list = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"instruments": list})
}

func (s *Server) handleInstrument(w http.ResponseWriter, r *http.Request) {
	in, err := s.game.Instrument(chi.URLParam(r, "symbol"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleNews(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"news": s.game.News()})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Portfolio())
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Symbol   string `json:"symbol"`
		Side     string `json:"side"`
		Quantity int    `json:"quantity"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	side, err := game.ParseSide(in.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.game.Trade(side, in.Symbol, in.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCloseDay(w http.ResponseWriter, _ *http.Request) {
	sum, err := s.game.CloseDay()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleNextDay(w http.ResponseWriter, _ *http.Request) {
	desk, err := s.game.StartNextDay()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, desk)
}

func (s *Server) handleNewClient(w http.ResponseWriter, _ *http.Request) {
	amount, err := s.game.NewClient()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"capital": amount, "cash": s.game.Desk().Cash})
}

func (s *Server) handleIdle(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Idle())
}

func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Times int `json:"times"`
	}
	if err := decodeOptionalJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Times == 0 {
		in.Times = 1
	}
	if in.Times < 0 || in.Times > s.taps.Burst() {
		writeDomainError(w, reason.InvalidQuantity)
		return
	}
	if !s.taps.AllowN(time.Now(), in.Times) {
		writeDomainError(w, reason.RateLimited)
		return
	}
	boost, err := s.game.Tap(in.Times)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tap_boost": boost})
}

func (s *Server) handleBoosts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"boosts": s.game.Idle().Boosts})
}

func (s *Server) handleActivateBoost(w http.ResponseWriter, r *http.Request) {
	act, err := s.game.ActivateBoost(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, act)
}

func (s *Server) handleCollect(w http.ResponseWriter, _ *http.Request) {
	amount, err := s.game.CollectOffline()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collected": amount, "cash": s.game.Desk().Cash})
}

func (s *Server) handleSuspend(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Suspend())
}

func (s *Server) handleResume(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Resume())
}

func (s *Server) handleTutorialStart(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.StartTutorial())
}

func (s *Server) handleTutorialStop(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.StopTutorial())
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Reset())
}

func (s *Server) handleFeed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"feed": s.game.Feed()})
}

func (s *Server) handleCosmetics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Cosmetics())
}

func (s *Server) handleSetCosmetics(w http.ResponseWriter, r *http.Request) {
	var in game.Cosmetics
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.game.SetCosmetics(in))
}

func writeDomainError(w http.ResponseWriter, err error) {
	code := reason.Of(err)
	switch code {
	case reason.InvalidQuantity, reason.InsufficientFunds, reason.InsufficientShares:
		writeReason(w, http.StatusBadRequest, code, err)
	case reason.UnknownInstrument, reason.UnknownBoost:
		writeReason(w, http.StatusNotFound, code, err)
	case reason.MarketClosed, reason.DayNotSettled, reason.BoostCooldown,
		reason.NothingToCollect, reason.ClientAlreadyUsed:
		writeReason(w, http.StatusConflict, code, err)
	case reason.RateLimited:
		writeReason(w, http.StatusTooManyRequests, code, err)
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

// decodeOptionalJSON is decodeJSON that accepts an empty body.
func decodeOptionalJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return nil
	}
	if err := decodeJSON(r, out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func writeReason(w http.ResponseWriter, status int, code reason.Code, err error) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(err.Error()), "reason": code})
}
