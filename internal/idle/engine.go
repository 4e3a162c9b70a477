// Package idle accrues fund income in continuous time: a tier-based rate, a
// decaying tap boost, timed rewarded boosts and offline catch-up.
package idle

import (
	"math"
	"time"

	"tradingdesk/internal/clock"
	"tradingdesk/internal/money"
	"tradingdesk/internal/progression"
	"tradingdesk/internal/reason"
)

type Config struct {
	TapIncrement     float64
	TapMax           float64
	TapDecayPerSec   float64
	MaxOffline       time.Duration
	OfflineThreshold time.Duration
	StartFundSize    float64
	MinFundSize      float64
}

func DefaultConfig() Config {
	return Config{
		TapIncrement:     2,
		TapMax:           100,
		TapDecayPerSec:   0.2,
		MaxOffline:       8 * time.Hour,
		OfflineThreshold: time.Minute,
		StartFundSize:    100_000,
		MinFundSize:      10_000,
	}
}

const (
	growthFactor   = 0.01
	shrinkFactor   = 0.005
	shrinkBelowRet = -0.05
)

type Engine struct {
	cfg   Config
	clock clock.Clock

	tapBoost    float64
	fundSize    float64
	lastActive  time.Time
	totalEarned float64
	pending     float64
	welcomeBack bool
	boosts      []Boost
}

func New(c clock.Clock, cfg Config) *Engine {
	if c == nil {
		c = clock.System{}
	}
	return &Engine{
		cfg:        cfg,
		clock:      c,
		fundSize:   cfg.StartFundSize,
		lastActive: c.Now().Truncate(time.Millisecond),
		boosts:     Catalog(),
	}
}

func (e *Engine) Config() Config        { return e.cfg }
func (e *Engine) TapBoost() float64     { return e.tapBoost }
func (e *Engine) FundSize() float64     { return e.fundSize }
func (e *Engine) TotalEarned() float64  { return e.totalEarned }
func (e *Engine) Pending() float64      { return e.pending }
func (e *Engine) LastActive() time.Time { return e.lastActive }

// WelcomeBack is set while computed offline earnings wait to be collected.
func (e *Engine) WelcomeBack() bool { return e.welcomeBack }

func (e *Engine) Tap() float64 {
	e.tapBoost = math.Min(e.tapBoost+e.cfg.TapIncrement, e.cfg.TapMax)
	return e.tapBoost
}

// DecayTapBoost takes the real elapsed time since the last call. Negative
// elapsed time is treated as zero.
func (e *Engine) DecayTapBoost(deltaSeconds float64) {
	if deltaSeconds <= 0 || math.IsNaN(deltaSeconds) {
		return
	}
	e.tapBoost = math.Max(0, e.tapBoost-e.cfg.TapDecayPerSec*deltaSeconds)
}

func (e *Engine) BaseIncome(tier progression.Tier) float64 {
	return progression.BaseIncome(tier, e.fundSize)
}

func (e *Engine) ActiveMultiplier() float64 {
	return e.multiplierAt(e.clock.Now())
}

func (e *Engine) multiplierAt(t time.Time) float64 {
	m := 1.0
	for _, b := range e.boosts {
		if b.ActiveAt(t) {
			m *= b.Multiplier
		}
	}
	return m
}

func (e *Engine) IncomePerSecond(tier progression.Tier) float64 {
	tap := 1 + e.tapBoost/100
	return money.Round2(e.BaseIncome(tier) * tap * e.ActiveMultiplier())
}

// Tick accrues one second of income and returns it for the caller to credit.
func (e *Engine) Tick(tier progression.Tier) float64 {
	income := e.IncomePerSecond(tier)
	e.totalEarned = money.Round2(e.totalEarned + income)
	e.lastActive = e.stamp()
	return income
}

// Touch marks the session active now without accruing.
func (e *Engine) Touch() {
	e.lastActive = e.stamp()
}

// stamp reads the clock at millisecond resolution, the resolution State keeps.
func (e *Engine) stamp() time.Time {
	return e.clock.Now().Truncate(time.Millisecond)
}

// Activation reports a successful boost activation. Collected is non-zero
// when the boost also collected pending offline earnings.
type Activation struct {
	Boost     Boost   `json:"boost"`
	Collected float64 `json:"collected"`
}

// ActivateBoost starts id's window. Re-activating after cooldown restarts the
// window rather than stacking.
func (e *Engine) ActivateBoost(id string) (Activation, error) {
	i := e.boostIndex(id)
	if i < 0 {
		return Activation{}, reason.UnknownBoost
	}
	now := e.stamp()
	b := e.boosts[i]
	if !b.ReadyAt(now) {
		return Activation{}, reason.BoostCooldown
	}
	b.ActivatedAt = now
	b.LastUsedAt = now
	e.boosts[i] = b

	act := Activation{Boost: b}
	if b.CollectsOffline {
		act.Collected = e.CollectOfflineEarnings()
	}
	return act, nil
}

// ComputeOfflineEarnings prices the gap since the last active instant, using
// the boosts that were active when the session went idle. It overwrites any
// previous pending amount, so calling it twice never double counts.
func (e *Engine) ComputeOfflineEarnings(tier progression.Tier) float64 {
	now := e.clock.Now()
	gap := now.Sub(e.lastActive)
	if gap < 0 {
		gap = 0
	}
	if gap > e.cfg.MaxOffline {
		gap = e.cfg.MaxOffline
	}
	if gap < e.cfg.OfflineThreshold {
		e.pending = 0
		e.welcomeBack = false
		return 0
	}

	earned := money.Round2(e.BaseIncome(tier) * gap.Seconds() * e.multiplierAt(e.lastActive))
	if earned <= 0 {
		e.pending = 0
		e.welcomeBack = false
		return 0
	}
	e.pending = earned
	e.welcomeBack = true
	return earned
}

// CollectOfflineEarnings moves pending earnings into the lifetime total and
// returns them for the caller to credit.
func (e *Engine) CollectOfflineEarnings() float64 {
	amount := e.pending
	e.totalEarned = money.Round2(e.totalEarned + amount)
	e.pending = 0
	e.welcomeBack = false
	e.lastActive = e.stamp()
	return amount
}

func (e *Engine) IncreaseFundSize(amount float64) {
	e.fundSize = math.Max(e.cfg.MinFundSize, money.Round2(e.fundSize+amount))
}

// ApplyTradingPerformance grows the fund on a winning day and shrinks it on a
// loss worse than 5%. dailyReturn is a fraction.
func (e *Engine) ApplyTradingPerformance(dailyReturn, portfolioValue float64) {
	switch {
	case dailyReturn > 0:
		e.fundSize = money.Round2(e.fundSize + portfolioValue*dailyReturn*growthFactor)
	case dailyReturn < shrinkBelowRet:
		shrink := e.fundSize * math.Abs(dailyReturn) * shrinkFactor
		e.fundSize = math.Max(e.cfg.MinFundSize, money.Round2(e.fundSize-shrink))
	}
}

func (e *Engine) Boosts() []BoostStatus {
	now := e.clock.Now()
	out := make([]BoostStatus, len(e.boosts))
	for i, b := range e.boosts {
		out[i] = statusOf(b, now)
	}
	return out
}

func (e *Engine) Boost(id string) (BoostStatus, bool) {
	i := e.boostIndex(id)
	if i < 0 {
		return BoostStatus{}, false
	}
	return statusOf(e.boosts[i], e.clock.Now()), true
}

func (e *Engine) boostIndex(id string) int {
	for i, b := range e.boosts {
		if b.ID == id {
			return i
		}
	}
	return -1
}
