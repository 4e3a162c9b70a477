package market

import (
	"math"
	"strings"

	"tradingdesk/internal/money"
)

type Instrument struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Sector        string    `json:"sector"`
	Price         float64   `json:"price"`
	PreviousPrice float64   `json:"previous_price"`
	Volatility    float64   `json:"volatility"`
	History       []float64 `json:"history"`
}

func (in Instrument) Clone() Instrument {
	out := in
	out.History = append([]float64(nil), in.History...)
	return out
}

// Change is the move since the previous close.
func (in Instrument) Change() float64 {
	return money.Round2(in.Price - in.PreviousPrice)
}

func (in Instrument) ChangePercent() float64 {
	if in.PreviousPrice == 0 {
		return 0
	}
	return (in.Price - in.PreviousPrice) / in.PreviousPrice * 100
}

var catalog = []Instrument{
	{Symbol: "NLSY", Name: "Nordlite Systems", Sector: "Technology", Price: 87.50, Volatility: 0.03},
	{Symbol: "VCLD", Name: "Vanta Cloudworks", Sector: "Technology", Price: 142.25, Volatility: 0.035},
	{Symbol: "KFRG", Name: "Kernel Forge", Sector: "Technology", Price: 65.80, Volatility: 0.04},
	{Symbol: "HLBG", Name: "Halberg Industries", Sector: "Industrial", Price: 98.40, Volatility: 0.025},
	{Symbol: "AGCO", Name: "Aurora Grid Co", Sector: "Utilities", Price: 45.20, Volatility: 0.015},
	{Symbol: "SLVX", Name: "Solvex Materials", Sector: "Materials", Price: 178.90, Volatility: 0.032},
	{Symbol: "BHFN", Name: "Bronze Harbor Finance", Sector: "Finance", Price: 52.30, Volatility: 0.022},
	{Symbol: "MBPY", Name: "Mintbridge Payments", Sector: "Finance", Price: 124.60, Volatility: 0.028},
	{Symbol: "OIGR", Name: "Orchard Insure Group", Sector: "Finance", Price: 38.75, Volatility: 0.018},
	{Symbol: "CRMD", Name: "Cirrus Medical", Sector: "Healthcare", Price: 215.40, Volatility: 0.03},
	{Symbol: "FJFF", Name: "Fjord Fresh Foods", Sector: "Consumer", Price: 28.90, Volatility: 0.02},
	{Symbol: "LRLB", Name: "Lumina Retail Labs", Sector: "Technology", Price: 76.35, Volatility: 0.033},
	{Symbol: "SHMB", Name: "Skyharbor Mobility", Sector: "Transportation", Price: 94.20, Volatility: 0.035},
	{Symbol: "TWSH", Name: "Tideway Shipping", Sector: "Transportation", Price: 42.15, Volatility: 0.025},
	{Symbol: "PNTL", Name: "Pinnacle Telecom", Sector: "Telecom", Price: 56.80, Volatility: 0.015},
}

// DefaultInstruments returns the starting instrument set with a synthetic
// history window drifting toward each list price.
func DefaultInstruments(r Rand) []Instrument {
	out := make([]Instrument, 0, len(catalog))
	half := float64(HistoryLen / 2)
	for _, base := range catalog {
		in := base.Clone()
		in.PreviousPrice = in.Price
		in.History = make([]float64, HistoryLen)
		for i := range in.History {
			variance := (r.Float64() - 0.5) * in.Volatility * in.Price * 2
			in.History[i] = money.Round2(math.Max(MinPrice, in.Price+variance*(float64(i)-half)/half))
		}
		out = append(out, in)
	}
	return out
}

func CloneInstruments(list []Instrument) []Instrument {
	out := make([]Instrument, len(list))
	for i, in := range list {
		out[i] = in.Clone()
	}
	return out
}

func FindInstrument(list []Instrument, symbol string) (Instrument, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, in := range list {
		if in.Symbol == symbol {
			return in, true
		}
	}
	return Instrument{}, false
}

// Sectors lists distinct sectors in first-seen order.
func Sectors(list []Instrument) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, in := range list {
		if _, ok := seen[in.Sector]; ok {
			continue
		}
		seen[in.Sector] = struct{}{}
		out = append(out, in.Sector)
	}
	return out
}

// PriceMap indexes current prices by symbol.
func PriceMap(list []Instrument) map[string]float64 {
	out := make(map[string]float64, len(list))
	for _, in := range list {
		out[in.Symbol] = in.Price
	}
	return out
}
