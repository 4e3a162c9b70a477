package market

import "fmt"

// scripted returns vals in order, then fallback forever.
type scripted struct {
	vals     []float64
	fallback float64
	i        int
}

func (s *scripted) Float64() float64 {
	if s.i < len(s.vals) {
		v := s.vals[s.i]
		s.i++
		return v
	}
	return s.fallback
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func testInstruments() []Instrument {
	return []Instrument{
		{Symbol: "NLSY", Name: "Nordlite Systems", Sector: "Technology", Price: 100, PreviousPrice: 100, Volatility: 0.04},
		{Symbol: "VCLD", Name: "Vanta Cloudworks", Sector: "Technology", Price: 50, PreviousPrice: 50, Volatility: 0.02},
		{Symbol: "AGCO", Name: "Aurora Grid Co", Sector: "Utilities", Price: 40, PreviousPrice: 40, Volatility: 0.01},
	}
}
