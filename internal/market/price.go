package market

import (
	"math"

	"tradingdesk/internal/money"
)

const (
	HistoryLen = 30
	MinPrice   = 1.0
)

// PriceGenerator moves one instrument by a volatility-scaled uniform draw plus
// whatever news modifier applies to it.
type PriceGenerator struct {
	rand       Rand
	historyLen int
	minPrice   float64
}

func NewPriceGenerator(r Rand) *PriceGenerator {
	return &PriceGenerator{rand: r, historyLen: HistoryLen, minPrice: MinPrice}
}

// Advance returns a copy of in moved by one day. The input is not modified.
func (g *PriceGenerator) Advance(in Instrument, modifier float64) Instrument {
	baseReturn := (g.rand.Float64()*2 - 1) * in.Volatility
	next := evolvePrice(in.Price, baseReturn+modifier, g.minPrice)

	out := in.Clone()
	out.PreviousPrice = in.Price
	out.Price = next
	out.History = pushHistory(out.History, next, g.historyLen)
	return out
}

func evolvePrice(price, ret, floor float64) float64 {
	next := math.Max(floor, price*(1+ret))
	next = money.Round2(next)
	if next < floor {
		return floor
	}
	return next
}

func pushHistory(history []float64, v float64, capacity int) []float64 {
	if capacity <= 0 {
		return history
	}
	history = append(history, v)
	if over := len(history) - capacity; over > 0 {
		history = append([]float64(nil), history[over:]...)
	}
	return history
}
