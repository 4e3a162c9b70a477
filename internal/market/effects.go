package market

const (
	CategoryFactor = 0.6
	GlobalFactor   = 0.3
)

// Modifiers maps instrument symbol to the summed return modifier for a close.
type Modifiers map[string]float64

// FoldEffects builds the modifier map for instruments from effects.
func FoldEffects(instruments []Instrument, effects []NewsEffect) Modifiers {
	m := Modifiers{}
	m.Apply(instruments, effects...)
	return m
}

// Apply adds each effect's contribution into m. Contributions are summed, so
// folding in several passes gives the same map as one pass.
func (m Modifiers) Apply(instruments []Instrument, effects ...NewsEffect) {
	for _, e := range effects {
		switch e.Scope {
		case ScopeInstrument:
			m[e.Target] += e.Modifier
		case ScopeCategory:
			for _, in := range instruments {
				if in.Sector == e.Target {
					m[in.Symbol] += e.Modifier * CategoryFactor
				}
			}
		case ScopeGlobal:
			for _, in := range instruments {
				m[in.Symbol] += e.Modifier * GlobalFactor
			}
		}
	}
}

// DecayEffects returns a new slice with every lifetime reduced by one day and
// expired effects dropped.
func DecayEffects(effects []NewsEffect) []NewsEffect {
	out := make([]NewsEffect, 0, len(effects))
	for _, e := range effects {
		e.DaysRemaining--
		if e.DaysRemaining > 0 {
			out = append(out, e)
		}
	}
	return out
}
