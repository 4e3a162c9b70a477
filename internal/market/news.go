package market

import (
	"github.com/google/uuid"
)

type Scope string

const (
	ScopeInstrument Scope = "instrument"
	ScopeCategory   Scope = "category"
	ScopeGlobal     Scope = "global"
)

// GlobalTarget is the target recorded on global-scope effects.
const GlobalTarget = "market"

// GlobalCategory labels global-scope news items.
const GlobalCategory = "Economy"

type Direction string

const (
	Positive Direction = "positive"
	Negative Direction = "negative"
)

func (d Direction) sign() float64 {
	if d == Negative {
		return -1
	}
	return 1
}

type Strength string

const (
	Small  Strength = "small"
	Medium Strength = "medium"
	Large  Strength = "large"
)

// NewsEffect is a timed price modifier. Modifier is signed and drawn once at
// generation; it is applied unchanged on every close the effect survives.
type NewsEffect struct {
	ID            string    `json:"id"`
	Scope         Scope     `json:"scope"`
	Target        string    `json:"target"`
	Direction     Direction `json:"direction"`
	Strength      Strength  `json:"strength"`
	Modifier      float64   `json:"modifier"`
	DaysRemaining int       `json:"days_remaining"`
}

type NewsItem struct {
	ID              string   `json:"id"`
	Headline        string   `json:"headline"`
	Body            string   `json:"body"`
	Scope           Scope    `json:"scope"`
	Category        string   `json:"category"`
	AffectedSymbols []string `json:"affected_symbols,omitempty"`
}

type StrengthRange struct {
	Min float64
	Max float64
}

type NewsConfig struct {
	// CountWeights[i] is the probability of i items in a day.
	CountWeights []float64
	// InstrumentWeight and CategoryWeight are scope probabilities; the
	// remainder goes to global news.
	InstrumentWeight float64
	CategoryWeight   float64
	Strengths        map[Strength]StrengthRange
	MinDays          int
	MaxDays          int
	GlobalDays       int
}

func DefaultNewsConfig() NewsConfig {
	return NewsConfig{
		CountWeights:     []float64{0.35, 0.40, 0.20, 0.05},
		InstrumentWeight: 0.60,
		CategoryWeight:   0.30,
		Strengths: map[Strength]StrengthRange{
			Small:  {Min: 0.01, Max: 0.025},
			Medium: {Min: 0.02, Max: 0.045},
			Large:  {Min: 0.04, Max: 0.10},
		},
		MinDays:    1,
		MaxDays:    2,
		GlobalDays: 1,
	}
}

type NewsGenerator struct {
	cfg   NewsConfig
	pools Pools
	rand  Rand
	newID func() string
}

type NewsOption func(*NewsGenerator)

func WithNewsConfig(cfg NewsConfig) NewsOption {
	return func(g *NewsGenerator) { g.cfg = cfg }
}

func WithPools(p Pools) NewsOption {
	return func(g *NewsGenerator) { g.pools = p }
}

func WithIDFunc(fn func() string) NewsOption {
	return func(g *NewsGenerator) {
		if fn != nil {
			g.newID = fn
		}
	}
}

func NewNewsGenerator(r Rand, opts ...NewsOption) *NewsGenerator {
	g := &NewsGenerator{
		cfg:   DefaultNewsConfig(),
		pools: DefaultPools(),
		rand:  r,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate draws the day's news. Each target is used at most once per call;
// a slot whose scope has nothing left is skipped.
func (g *NewsGenerator) Generate(instruments []Instrument) ([]NewsItem, []NewsEffect) {
	count := g.rollCount()
	if count == 0 {
		return nil, nil
	}

	used := make(map[Scope]map[string]bool, 3)
	for _, s := range []Scope{ScopeInstrument, ScopeCategory, ScopeGlobal} {
		used[s] = map[string]bool{}
	}

	items := make([]NewsItem, 0, count)
	effects := make([]NewsEffect, 0, count)
	for i := 0; i < count; i++ {
		scope := g.rollScope()
		item, effect, ok := g.draw(scope, instruments, used[scope])
		if !ok {
			continue
		}
		items = append(items, item)
		effects = append(effects, effect)
	}
	return items, effects
}

func (g *NewsGenerator) draw(scope Scope, instruments []Instrument, used map[string]bool) (NewsItem, NewsEffect, bool) {
	var (
		target    string
		category  string
		affected  []string
		templates []Template
		days      int
	)

	switch scope {
	case ScopeInstrument:
		var candidates []Instrument
		for _, in := range instruments {
			if !used[in.Symbol] && len(g.pools.Instrument[in.Symbol]) > 0 {
				candidates = append(candidates, in)
			}
		}
		if len(candidates) == 0 {
			return NewsItem{}, NewsEffect{}, false
		}
		in := candidates[intn(g.rand, len(candidates))]
		target, category, affected = in.Symbol, in.Sector, []string{in.Symbol}
		templates = g.pools.Instrument[in.Symbol]
		days = g.rollDays()
	case ScopeCategory:
		var candidates []string
		for _, sector := range Sectors(instruments) {
			if !used[sector] && len(g.pools.Category[sector]) > 0 {
				candidates = append(candidates, sector)
			}
		}
		if len(candidates) == 0 {
			return NewsItem{}, NewsEffect{}, false
		}
		target = candidates[intn(g.rand, len(candidates))]
		category = target
		for _, in := range instruments {
			if in.Sector == target {
				affected = append(affected, in.Symbol)
			}
		}
		templates = g.pools.Category[target]
		days = g.rollDays()
	default:
		if used[GlobalTarget] || len(g.pools.Global) == 0 {
			return NewsItem{}, NewsEffect{}, false
		}
		target, category = GlobalTarget, GlobalCategory
		templates = g.pools.Global
		days = g.cfg.GlobalDays
	}
	used[target] = true

	tmpl := templates[intn(g.rand, len(templates))]
	item := NewsItem{
		ID:              g.newID(),
		Headline:        tmpl.Headline,
		Body:            tmpl.Body,
		Scope:           scope,
		Category:        category,
		AffectedSymbols: affected,
	}
	effect := NewsEffect{
		ID:            g.newID(),
		Scope:         scope,
		Target:        target,
		Direction:     tmpl.Direction,
		Strength:      tmpl.Strength,
		Modifier:      g.StrengthModifier(tmpl.Strength, tmpl.Direction),
		DaysRemaining: days,
	}
	return item, effect, true
}

// StrengthModifier draws a signed magnitude from the strength's range.
func (g *NewsGenerator) StrengthModifier(s Strength, d Direction) float64 {
	rng, ok := g.cfg.Strengths[s]
	if !ok {
		rng = g.cfg.Strengths[Small]
	}
	return d.sign() * uniform(g.rand, rng.Min, rng.Max)
}

func (g *NewsGenerator) rollCount() int {
	roll := g.rand.Float64()
	acc := 0.0
	for n, w := range g.cfg.CountWeights {
		acc += w
		if roll < acc {
			return n
		}
	}
	return len(g.cfg.CountWeights) - 1
}

func (g *NewsGenerator) rollScope() Scope {
	roll := g.rand.Float64()
	switch {
	case roll < g.cfg.InstrumentWeight:
		return ScopeInstrument
	case roll < g.cfg.InstrumentWeight+g.cfg.CategoryWeight:
		return ScopeCategory
	default:
		return ScopeGlobal
	}
}

func (g *NewsGenerator) rollDays() int {
	span := g.cfg.MaxDays - g.cfg.MinDays + 1
	if span < 1 {
		span = 1
	}
	return g.cfg.MinDays + intn(g.rand, span)
}
