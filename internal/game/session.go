package game

import (
	"fmt"
	"time"

	"tradingdesk/internal/clock"
	"tradingdesk/internal/idle"
	"tradingdesk/internal/market"
	"tradingdesk/internal/money"
	"tradingdesk/internal/portfolio"
	"tradingdesk/internal/progression"
	"tradingdesk/internal/reason"
)

// Deps are the sources a session draws on. Zero values get sensible defaults.
type Deps struct {
	Clock clock.Clock
	Rand  market.Rand
	NewID func() string
	Idle  idle.Config
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	if d.Rand == nil {
		d.Rand = market.NewRand(0)
	}
	if d.Idle.TapMax == 0 {
		d.Idle = idle.DefaultConfig()
	}
	return d
}

// Session is one desk: the market, the idle engine, the ledger and the day
// clock tying them together. It is not safe for concurrent use; Service
// serializes access.
type Session struct {
	deps Deps

	market *market.Engine
	idle   *idle.Engine
	ledger *portfolio.Ledger
	feed   *Feed

	day        int
	reputation int
	tier       progression.Tier
	clientUsed bool
	tutorial   bool
	cosmetics  Cosmetics
	lastTick   time.Time
}

func NewSession(d Deps) *Session {
	s := &Session{deps: d.withDefaults()}
	s.reset(welcomeMessage)
	return s
}

func (s *Session) reset(msg string) {
	gen := market.NewNewsGenerator(s.deps.Rand, market.WithIDFunc(s.deps.NewID))
	s.market = market.NewEngine(s.deps.Rand, market.WithNewsGenerator(gen))
	s.idle = idle.New(s.deps.Clock, s.deps.Idle)
	s.ledger = portfolio.New(portfolio.StartingCash)
	s.feed = NewFeed(FeedLimit, msg)
	s.day = StartingDay
	s.reputation = progression.StartReputation
	s.tier = progression.FromReputation(s.reputation)
	s.clientUsed = false
	s.tutorial = false
	s.lastTick = s.deps.Clock.Now()
}

func (s *Session) Day() int                 { return s.day }
func (s *Session) Reputation() int          { return s.reputation }
func (s *Session) Tier() progression.Tier   { return s.tier }
func (s *Session) Tutorial() bool           { return s.tutorial }
func (s *Session) Phase() market.Phase      { return s.market.Phase() }
func (s *Session) Cash() float64            { return s.ledger.Cash() }
func (s *Session) PendingOffline() float64  { return s.idle.Pending() }
func (s *Session) Feed() []string           { return s.feed.Items() }
func (s *Session) News() []market.NewsItem  { return s.market.News() }
func (s *Session) Cosmetics() Cosmetics     { return s.cosmetics.clone() }
func (s *Session) SetCosmetics(c Cosmetics) { s.cosmetics = c.clone() }

func (s *Session) tradable(symbol string) (market.Instrument, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return market.Instrument{}, err
	}
	if !s.market.TradingOpen() {
		return market.Instrument{}, reason.MarketClosed
	}
	in, ok := s.market.Instrument(sym)
	if !ok {
		return market.Instrument{}, reason.UnknownInstrument
	}
	return in, nil
}

func (s *Session) Buy(symbol string, qty int) (portfolio.Fill, error) {
	in, err := s.tradable(symbol)
	if err != nil {
		return portfolio.Fill{}, err
	}
	fill, err := s.ledger.Buy(in.Symbol, qty, in.Price)
	if err != nil {
		return portfolio.Fill{}, err
	}
	s.feed.Add(fmt.Sprintf("Bought %d shares of %s at $%.2f", qty, in.Symbol, in.Price))
	return fill, nil
}

func (s *Session) Sell(symbol string, qty int) (portfolio.Fill, error) {
	in, err := s.tradable(symbol)
	if err != nil {
		return portfolio.Fill{}, err
	}
	fill, err := s.ledger.Sell(in.Symbol, qty, in.Price)
	if err != nil {
		return portfolio.Fill{}, err
	}
	s.feed.Add(fmt.Sprintf("Sold %d shares of %s at $%.2f (P/L: $%.2f)", qty, in.Symbol, in.Price, fill.Realized))
	return fill, nil
}

// CloseDay settles the market and applies the reputation change.
func (s *Session) CloseDay() (market.DaySummary, error) {
	sum, ok := s.market.CloseDay(s.ledger.Positions(), s.ledger.Cash())
	if !ok {
		return market.DaySummary{}, reason.MarketClosed
	}
	s.reputation = money.ClampInt(s.reputation+sum.ReputationDelta, progression.MinReputation, progression.MaxReputation)
	s.feed.Add(fmt.Sprintf("Day %d closed. P/L: %s", s.day, signedDollars(sum.PnL)))
	return sum, nil
}

// StartNextDay is the only place per-day flags reset and the tier is
// recomputed; the idle engine reads the new tier from here on.
func (s *Session) StartNextDay() (int, error) {
	if s.market.Phase() != market.PhaseSettled {
		return s.day, reason.DayNotSettled
	}
	headlines := s.market.News()
	sum, _ := s.market.LastSummary()
	s.market.Reopen()

	s.day++
	s.clientUsed = false
	s.tier = progression.FromReputation(s.reputation)
	s.idle.ApplyTradingPerformance(sum.Return(), s.ledger.HoldingsValue(s.market.Prices()))

	s.feed.Add(newDayMessage)
	if len(headlines) == 0 {
		s.feed.Add(quietDayMessage)
	}
	for _, n := range headlines {
		s.feed.Add("• " + n.Headline)
	}
	return s.day, nil
}

// NewClient credits the tier's new-client capital once per day.
func (s *Session) NewClient() (float64, error) {
	if s.clientUsed {
		return 0, reason.ClientAlreadyUsed
	}
	amount := s.ledger.Credit(progression.NewClientCapital(s.tier))
	s.clientUsed = true
	s.feed.Add("New client onboarded. Capital added: " + dollars(amount))
	return amount, nil
}

func (s *Session) Tap() float64 {
	return s.idle.Tap()
}

func (s *Session) ActivateBoost(id string) (idle.Activation, error) {
	act, err := s.idle.ActivateBoost(id)
	if err != nil {
		return idle.Activation{}, err
	}
	s.ledger.Credit(act.Collected)
	s.feed.Add(fmt.Sprintf("%s activated.", act.Boost.Name))
	if act.Collected > 0 {
		s.feed.Add("Collected " + dollars(act.Collected) + " in offline fund income")
	}
	return act, nil
}

func (s *Session) CollectOffline() (float64, error) {
	if s.idle.Pending() <= 0 {
		return 0, reason.NothingToCollect
	}
	amount := s.ledger.Credit(s.idle.CollectOfflineEarnings())
	s.feed.Add("Collected " + dollars(amount) + " in offline fund income")
	return amount, nil
}

// Tick accrues one tick of idle income into cash and decays the tap boost by
// the real time since the previous tick.
func (s *Session) Tick() TickResult {
	now := s.deps.Clock.Now()
	elapsed := now.Sub(s.lastTick)
	if elapsed < 0 {
		elapsed = 0
	}
	s.lastTick = now

	income := s.ledger.Credit(s.idle.Tick(s.tier))
	s.idle.DecayTapBoost(elapsed.Seconds())
	return TickResult{Income: income, Elapsed: elapsed, TapBoost: s.idle.TapBoost()}
}

// MarkInactive anchors offline catch-up at the current instant.
func (s *Session) MarkInactive() {
	s.idle.Touch()
}

// ComputeOffline prices the time since the session was last active.
func (s *Session) ComputeOffline() float64 {
	return s.idle.ComputeOfflineEarnings(s.tier)
}

// ResumeTicking restarts the real-time tick baseline so the first tick after
// a pause does not decay the tap boost over the whole pause.
func (s *Session) ResumeTicking() {
	s.lastTick = s.deps.Clock.Now()
}

func (s *Session) StartTutorial() {
	cos := s.cosmetics
	s.reset(tutorialMessage)
	s.cosmetics = cos
	s.tutorial = true
	s.market.SetTutorialSymbol(TutorialSymbol)
}

func (s *Session) StopTutorial() {
	s.tutorial = false
	s.market.SetTutorialSymbol("")
}

func (s *Session) Reset() {
	cos := s.cosmetics
	s.reset(resetMessage)
	s.cosmetics = cos
}
