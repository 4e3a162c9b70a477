package market

import (
	"math"
	"sort"

	"tradingdesk/internal/money"
	"tradingdesk/internal/portfolio"
)

type Phase string

const (
	PhaseOpen    Phase = "open"
	PhaseClosing Phase = "closing"
	PhaseSettled Phase = "settled"
)

const (
	reputationStep     = 5000.0
	maxReputationDelta = 3
)

// Tutorial symbols get this extra modifier range on every close.
var tutorialBoost = StrengthRange{Min: 0.02, Max: 0.06}

// Move is one held position's result for a close.
type Move struct {
	Symbol   string  `json:"symbol"`
	Shares   int     `json:"shares"`
	Previous float64 `json:"previous"`
	Price    float64 `json:"price"`
	PnL      float64 `json:"pnl"`
}

type DaySummary struct {
	PreValue        float64    `json:"pre_value"`
	PostValue       float64    `json:"post_value"`
	PnL             float64    `json:"pnl"`
	ReputationDelta int        `json:"reputation_delta"`
	News            []NewsItem `json:"news"`
	Moves           []Move     `json:"moves"`
	CarriedEffects  int        `json:"carried_effects"`
}

// Return is the close's P/L as a fraction of the pre-close value.
func (s DaySummary) Return() float64 {
	if s.PreValue <= 0 {
		return 0
	}
	return s.PnL / s.PreValue
}

// EngineState is everything the engine needs to resume. News is kept only as
// part of LastSummary.
type EngineState struct {
	Instruments    []Instrument `json:"instruments"`
	Effects        []NewsEffect `json:"effects"`
	Phase          Phase        `json:"phase"`
	LastSummary    *DaySummary  `json:"last_summary,omitempty"`
	TutorialSymbol string       `json:"tutorial_symbol,omitempty"`
}

type Engine struct {
	rand     Rand
	prices   *PriceGenerator
	newsGen  *NewsGenerator
	tutorial string

	instruments []Instrument
	effects     []NewsEffect
	news        []NewsItem
	phase       Phase
	last        *DaySummary
}

type EngineOption func(*Engine)

func WithInstruments(list []Instrument) EngineOption {
	return func(e *Engine) { e.instruments = CloneInstruments(list) }
}

func WithNewsGenerator(g *NewsGenerator) EngineOption {
	return func(e *Engine) {
		if g != nil {
			e.newsGen = g
		}
	}
}

// NewEngine returns an open market over the default instruments unless
// WithInstruments says otherwise.
func NewEngine(r Rand, opts ...EngineOption) *Engine {
	e := &Engine{
		rand:    r,
		prices:  NewPriceGenerator(r),
		newsGen: NewNewsGenerator(r),
		phase:   PhaseOpen,
	}
	for _, opt := range opts {
		opt(e)
	}
	if len(e.instruments) == 0 {
		e.instruments = DefaultInstruments(r)
	}
	return e
}

func (e *Engine) State() EngineState {
	st := EngineState{
		Instruments:    CloneInstruments(e.instruments),
		Effects:        append([]NewsEffect(nil), e.effects...),
		Phase:          e.phase,
		TutorialSymbol: e.tutorial,
	}
	if e.last != nil {
		last := *e.last
		st.LastSummary = &last
	}
	return st
}

// Restore replaces engine state. An interrupted close resumes as open, since
// nothing from it was committed. A settled day gets its summary's news back.
func (e *Engine) Restore(st EngineState) {
	if len(st.Instruments) > 0 {
		e.instruments = CloneInstruments(st.Instruments)
	}
	e.effects = nil
	for _, eff := range st.Effects {
		if eff.DaysRemaining > 0 {
			e.effects = append(e.effects, eff)
		}
	}
	switch st.Phase {
	case PhaseSettled:
		e.phase = PhaseSettled
	default:
		e.phase = PhaseOpen
	}
	e.last = nil
	if st.LastSummary != nil {
		last := *st.LastSummary
		e.last = &last
		if e.phase == PhaseSettled {
			e.news = append([]NewsItem(nil), last.News...)
		}
	}
	e.tutorial = st.TutorialSymbol
}

func (e *Engine) Phase() Phase              { return e.phase }
func (e *Engine) TradingOpen() bool         { return e.phase == PhaseOpen }
func (e *Engine) Instruments() []Instrument { return CloneInstruments(e.instruments) }
func (e *Engine) News() []NewsItem          { return append([]NewsItem(nil), e.news...) }
func (e *Engine) Effects() []NewsEffect     { return append([]NewsEffect(nil), e.effects...) }

func (e *Engine) Instrument(symbol string) (Instrument, bool) {
	in, ok := FindInstrument(e.instruments, symbol)
	if !ok {
		return Instrument{}, false
	}
	return in.Clone(), true
}

func (e *Engine) LastSummary() (DaySummary, bool) {
	if e.last == nil {
		return DaySummary{}, false
	}
	return *e.last, true
}

func (e *Engine) Prices() map[string]float64 { return PriceMap(e.instruments) }

// SetTutorialSymbol gives symbol an extra positive push on every close. An
// empty symbol turns it off.
func (e *Engine) SetTutorialSymbol(symbol string) { e.tutorial = symbol }

func (e *Engine) TutorialSymbol() string { return e.tutorial }

// CloseDay settles the trading day. It reports false without changing
// anything when the market is not open.
func (e *Engine) CloseDay(positions []portfolio.Position, cash float64) (DaySummary, bool) {
	if e.phase != PhaseOpen {
		return DaySummary{}, false
	}
	e.phase = PhaseClosing

	before := PriceMap(e.instruments)
	pre := money.Round2(cash + portfolio.HoldingsValue(positions, before))

	items, fresh := e.newsGen.Generate(e.instruments)
	live := make([]NewsEffect, 0, len(e.effects)+len(fresh))
	live = append(live, e.effects...)
	live = append(live, fresh...)

	mods := FoldEffects(e.instruments, live)
	if e.tutorial != "" {
		if _, ok := FindInstrument(e.instruments, e.tutorial); ok {
			mods[e.tutorial] += uniform(e.rand, tutorialBoost.Min, tutorialBoost.Max)
		}
	}

	next := make([]Instrument, len(e.instruments))
	for i, in := range e.instruments {
		next[i] = e.prices.Advance(in, mods[in.Symbol])
	}
	e.instruments = next
	e.effects = DecayEffects(live)

	after := PriceMap(e.instruments)
	post := money.Round2(cash + portfolio.HoldingsValue(positions, after))
	pnl := money.Round2(post - pre)

	summary := DaySummary{
		PreValue:        pre,
		PostValue:       post,
		PnL:             pnl,
		ReputationDelta: ReputationDelta(pnl),
		News:            items,
		Moves:           moves(positions, before, after),
		CarriedEffects:  len(e.effects),
	}
	e.news = items
	e.last = &summary
	e.phase = PhaseSettled
	return summary, true
}

// Reopen moves a settled market back to open and discards the day's news.
func (e *Engine) Reopen() bool {
	if e.phase != PhaseSettled {
		return false
	}
	e.news = nil
	e.phase = PhaseOpen
	return true
}

// Value is cash plus positions marked at current prices.
func (e *Engine) Value(positions []portfolio.Position, cash float64) float64 {
	return money.Round2(cash + portfolio.HoldingsValue(positions, e.Prices()))
}

// ReputationDelta maps a day's P/L to a reputation change: one point per
// 5000, at least one point for any nonzero result, at most three.
func ReputationDelta(pnl float64) int {
	switch {
	case pnl > 0:
		d := int(math.Floor(pnl / reputationStep))
		return money.ClampInt(d, 1, maxReputationDelta)
	case pnl < 0:
		d := int(math.Ceil(pnl / reputationStep))
		return money.ClampInt(d, -maxReputationDelta, -1)
	default:
		return 0
	}
}

func moves(positions []portfolio.Position, before, after map[string]float64) []Move {
	out := make([]Move, 0, len(positions))
	for _, p := range positions {
		prev, ok := before[p.Symbol]
		if !ok {
			continue
		}
		price := after[p.Symbol]
		out = append(out, Move{
			Symbol:   p.Symbol,
			Shares:   p.Shares,
			Previous: prev,
			Price:    price,
			PnL:      money.Round2((price - prev) * float64(p.Shares)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PnL > out[j].PnL })
	return out
}
