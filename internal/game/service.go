package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tradingdesk/internal/idle"
	"tradingdesk/internal/market"
	"tradingdesk/internal/store"
)

type Options struct {
	Slot      string
	TickEvery time.Duration
	SaveEvery time.Duration
}

func (o Options) withDefaults() Options {
	if o.Slot == "" {
		o.Slot = DefaultSlot
	}
	if o.TickEvery <= 0 {
		o.TickEvery = time.Second
	}
	if o.SaveEvery <= 0 {
		o.SaveEvery = 10 * time.Second
	}
	return o
}

const saveTimeout = 5 * time.Second

// Service owns the session and serializes every command, query, tick and
// save behind one mutex.
type Service struct {
	store store.Store
	deps  Deps
	opts  Options
	log   *slog.Logger

	mu        sync.Mutex
	sess      *Session
	suspended bool

	saving atomic.Bool
	saves  sync.WaitGroup

	// snapSeq numbers snapshots under mu; savedSeq is the newest one written,
	// under saveMu. An older snapshot never overwrites a newer one.
	snapSeq  uint64
	saveMu   sync.Mutex
	savedSeq uint64

	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

func NewService(st store.Store, deps Deps, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	deps = deps.withDefaults()
	return &Service{
		store: st,
		deps:  deps,
		opts:  opts.withDefaults(),
		log:   logger,
		sess:  NewSession(deps),
		subs:  map[chan Event]struct{}{},
	}
}

// Load restores the saved desk for the configured slot and computes offline
// earnings once. A missing or unreadable save starts a fresh desk.
func (s *Service) Load(ctx context.Context) error {
	sess, err := s.loadSession(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sess = sess
	s.suspended = false
	pending := s.sess.ComputeOffline()
	tier := s.sess.Tier()
	day := s.sess.Day()
	s.mu.Unlock()

	s.log.Info("session loaded", "slot", s.opts.Slot, "day", day, "tier", tier)
	if pending > 0 {
		s.log.Info("offline earnings computed", "pending", pending, "tier", tier)
	}
	return nil
}

func (s *Service) loadSession(ctx context.Context) (*Session, error) {
	if s.store == nil {
		return NewSession(s.deps), nil
	}
	raw, err := s.store.Load(ctx, s.opts.Slot)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Info("no save found, starting fresh", "slot", s.opts.Slot)
		return NewSession(s.deps), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", s.opts.Slot, err)
	}
	snap, err := DecodeSnapshot(raw)
	if err != nil {
		s.log.Warn("discarding unreadable save", "slot", s.opts.Slot, "err", err)
		return NewSession(s.deps), nil
	}
	return RestoreSession(s.deps, snap), nil
}

// Run ticks and saves until ctx is done, then waits for background saves and
// writes a final save.
func (s *Service) Run(ctx context.Context) error {
	tick := time.NewTicker(s.opts.TickEvery)
	defer tick.Stop()
	save := time.NewTicker(s.opts.SaveEvery)
	defer save.Stop()

	s.log.Info("session loop started", "tick_every", s.opts.TickEvery.String(), "save_every", s.opts.SaveEvery.String())
	for {
		select {
		case <-ctx.Done():
			s.saves.Wait()
			saveCtx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			if err := s.Save(saveCtx); err != nil {
				s.log.Warn("final save failed", "err", err)
			}
			cancel()
			s.log.Info("session loop stopped")
			return nil
		case <-tick.C:
			s.Tick()
		case <-save.C:
			s.SaveAsync()
		}
	}
}

// Tick advances idle accrual by one tick. It does nothing while suspended.
func (s *Service) Tick() (TickResult, bool) {
	s.mu.Lock()
	if s.suspended {
		s.mu.Unlock()
		return TickResult{}, false
	}
	res := s.sess.Tick()
	desk := s.deskLocked()
	s.mu.Unlock()

	s.publish(EventTick, desk)
	return res, true
}

// Save writes the current snapshot. Saves are skipped in tutorial mode.
func (s *Service) Save(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.mu.Lock()
	if s.sess.Tutorial() {
		s.mu.Unlock()
		return nil
	}
	snap := s.sess.Snapshot()
	s.snapSeq++
	seq := s.snapSeq
	s.mu.Unlock()

	raw, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if seq < s.savedSeq {
		return nil
	}
	if err := s.store.Save(ctx, s.opts.Slot, raw); err != nil {
		return err
	}
	s.savedSeq = seq
	return nil
}

// SaveAsync starts a background save unless one is already running. Failures
// are logged and otherwise ignored.
func (s *Service) SaveAsync() {
	if !s.saving.CompareAndSwap(false, true) {
		return
	}
	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		defer s.saving.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := s.Save(ctx); err != nil {
			s.log.Warn("save failed", "slot", s.opts.Slot, "err", err)
		}
	}()
}

// Suspend pauses ticking and anchors offline catch-up at now.
func (s *Service) Suspend() DeskView {
	s.mu.Lock()
	changed := !s.suspended
	if changed {
		s.sess.MarkInactive()
		s.suspended = true
	}
	desk := s.deskLocked()
	s.mu.Unlock()

	if changed {
		s.log.Info("session suspended", "day", desk.Day)
		s.publish(EventSession, desk)
		s.SaveAsync()
	}
	return desk
}

// Resume restarts ticking. Offline earnings are computed once per
// suspend/resume pair; resuming an active session changes nothing.
func (s *Service) Resume() DeskView {
	s.mu.Lock()
	changed := s.suspended
	var pending float64
	if changed {
		s.suspended = false
		pending = s.sess.ComputeOffline()
		s.sess.ResumeTicking()
	}
	desk := s.deskLocked()
	s.mu.Unlock()

	if changed {
		s.log.Info("session resumed", "day", desk.Day, "pending", pending)
		s.publish(EventSession, desk)
	}
	return desk
}

func (s *Service) Suspended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suspended
}

// mutate runs fn under the lock, then publishes and optionally saves when it
// succeeded.
func (s *Service) mutate(kind string, save bool, fn func(*Session) error) error {
	s.mu.Lock()
	err := fn(s.sess)
	desk := s.deskLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.publish(kind, desk)
	if save {
		s.SaveAsync()
	}
	return nil
}

func (s *Service) Trade(side Side, symbol string, qty int) (TradeResult, error) {
	var out TradeResult
	err := s.mutate(EventTrade, true, func(sess *Session) error {
		var err error
		switch side {
		case Buy:
			out.Fill, err = sess.Buy(symbol, qty)
		case Sell:
			out.Fill, err = sess.Sell(symbol, qty)
		default:
			_, err = ParseSide(string(side))
		}
		out.Side = side
		out.Cash = sess.Cash()
		return err
	})
	return out, err
}

func (s *Service) CloseDay() (market.DaySummary, error) {
	var sum market.DaySummary
	var day, rep int
	err := s.mutate(EventDayClosed, true, func(sess *Session) error {
		var err error
		sum, err = sess.CloseDay()
		day, rep = sess.Day(), sess.Reputation()
		return err
	})
	if err == nil {
		s.log.Info("day closed", "day", day, "pnl", sum.PnL, "reputation_delta", sum.ReputationDelta, "reputation", rep, "news", len(sum.News))
	}
	return sum, err
}

func (s *Service) StartNextDay() (DeskView, error) {
	var desk DeskView
	err := s.mutate(EventDayStarted, true, func(sess *Session) error {
		if _, err := sess.StartNextDay(); err != nil {
			return err
		}
		desk = sess.Desk()
		return nil
	})
	if err == nil {
		s.log.Info("day started", "day", desk.Day, "tier", desk.Tier, "fund_size", desk.FundSize)
	}
	return desk, err
}

func (s *Service) NewClient() (float64, error) {
	var amount float64
	err := s.mutate(EventClient, true, func(sess *Session) error {
		var err error
		amount, err = sess.NewClient()
		return err
	})
	return amount, err
}

func (s *Service) Tap(times int) (float64, error) {
	if times < 1 {
		times = 1
	}
	var boost float64
	err := s.mutate(EventTap, false, func(sess *Session) error {
		for i := 0; i < times; i++ {
			boost = sess.Tap()
		}
		return nil
	})
	return boost, err
}

func (s *Service) ActivateBoost(id string) (idle.Activation, error) {
	var act idle.Activation
	err := s.mutate(EventBoost, true, func(sess *Session) error {
		var err error
		act, err = sess.ActivateBoost(id)
		return err
	})
	return act, err
}

func (s *Service) CollectOffline() (float64, error) {
	var amount float64
	err := s.mutate(EventCollect, true, func(sess *Session) error {
		var err error
		amount, err = sess.CollectOffline()
		return err
	})
	return amount, err
}

func (s *Service) StartTutorial() DeskView {
	var desk DeskView
	_ = s.mutate(EventTutorial, false, func(sess *Session) error {
		sess.StartTutorial()
		desk = sess.Desk()
		return nil
	})
	s.log.Info("tutorial started")
	return desk
}

func (s *Service) StopTutorial() DeskView {
	var desk DeskView
	_ = s.mutate(EventTutorial, true, func(sess *Session) error {
		sess.StopTutorial()
		desk = sess.Desk()
		return nil
	})
	s.log.Info("tutorial stopped")
	return desk
}

func (s *Service) Reset() DeskView {
	var desk DeskView
	_ = s.mutate(EventReset, true, func(sess *Session) error {
		sess.Reset()
		desk = sess.Desk()
		return nil
	})
	s.log.Info("desk reset")
	return desk
}

func (s *Service) SetCosmetics(c Cosmetics) Cosmetics {
	var out Cosmetics
	_ = s.mutate(EventSession, true, func(sess *Session) error {
		sess.SetCosmetics(c)
		out = sess.Cosmetics()
		return nil
	})
	return out
}

func (s *Service) view(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.sess)
}

func (s *Service) deskLocked() DeskView {
	d := s.sess.Desk()
	d.Suspended = s.suspended
	return d
}

func (s *Service) Desk() DeskView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deskLocked()
}

func (s *Service) Instruments() (out []InstrumentView) {
	s.view(func(sess *Session) { out = sess.Instruments() })
	return out
}

func (s *Service) Instrument(symbol string) (out InstrumentView, err error) {
	s.view(func(sess *Session) { out, err = sess.Instrument(symbol) })
	return out, err
}

func (s *Service) News() (out []market.NewsItem) {
	s.view(func(sess *Session) { out = sess.News() })
	return out
}

func (s *Service) Portfolio() (out PortfolioView) {
	s.view(func(sess *Session) { out = sess.Portfolio() })
	return out
}

func (s *Service) Idle() (out IdleView) {
	s.view(func(sess *Session) { out = sess.Idle() })
	return out
}

func (s *Service) Feed() (out []string) {
	s.view(func(sess *Session) { out = sess.Feed() })
	return out
}

func (s *Service) Cosmetics() (out Cosmetics) {
	s.view(func(sess *Session) { out = sess.Cosmetics() })
	return out
}

// Subscribe returns a channel of events and a cancel func. Slow subscribers
// miss events rather than block the session.
func (s *Service) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, ch)
			close(ch)
			s.subMu.Unlock()
		})
	}
	return ch, cancel
}

func (s *Service) publish(kind string, desk DeskView) {
	ev := Event{Kind: kind, At: s.deps.Clock.Now(), Desk: desk}
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
