package game

import (
	"fmt"
	"time"

	"tradingdesk/internal/clock"
	"tradingdesk/internal/market"
)

var epoch = time.UnixMilli(1_700_000_000_000)

type constRand float64

func (c constRand) Float64() float64 { return float64(c) }

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func testDeps() (Deps, *clock.Manual) {
	clk := clock.NewManual(epoch)
	return Deps{Clock: clk, Rand: market.NewRand(42), NewID: seqIDs()}, clk
}

// rigMarket swaps in a one-instrument market driven by a constant draw. At
// 0.99 every close produces one global headline and a price gain of about 9%.
func rigMarket(s *Session, r market.Rand) {
	list := []market.Instrument{{
		Symbol: "NLSY", Name: "Nordlite Systems", Sector: "Technology",
		Price: 100, PreviousPrice: 100, Volatility: 0.1,
	}}
	gen := market.NewNewsGenerator(r, market.WithIDFunc(seqIDs()))
	s.market = market.NewEngine(r, market.WithInstruments(list), market.WithNewsGenerator(gen))
}
