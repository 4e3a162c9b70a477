// Package portfolio holds cash and positions. The market and idle engines
// only read it; credits and trades go through the methods here.
package portfolio

import (
	"sort"
	"strings"

	"tradingdesk/internal/money"
	"tradingdesk/internal/reason"
)

const StartingCash = 100000.0

type Position struct {
	Symbol  string  `json:"symbol"`
	Shares  int     `json:"shares"`
	AvgCost float64 `json:"avg_cost"`
}

type Fill struct {
	Symbol   string  `json:"symbol"`
	Shares   int     `json:"shares"`
	Price    float64 `json:"price"`
	Amount   float64 `json:"amount"`
	Realized float64 `json:"realized,omitempty"`
}

// State is the persisted form of a Ledger.
type State struct {
	Cash        float64    `json:"cash"`
	Positions   []Position `json:"positions"`
	RealizedPnL float64    `json:"realized_pnl"`
}

type Ledger struct {
	cash      float64
	positions map[string]Position
	realized  float64
}

func New(cash float64) *Ledger {
	return &Ledger{cash: money.Round2(cash), positions: map[string]Position{}}
}

func FromState(st State) *Ledger {
	l := New(money.NonNegative(st.Cash))
	l.realized = money.Round2(st.RealizedPnL)
	for _, p := range st.Positions {
		sym := strings.ToUpper(strings.TrimSpace(p.Symbol))
		if sym == "" || p.Shares <= 0 {
			continue
		}
		p.Symbol = sym
		p.AvgCost = money.NonNegative(p.AvgCost)
		l.positions[sym] = p
	}
	return l
}

func (l *Ledger) State() State {
	return State{Cash: l.cash, Positions: l.Positions(), RealizedPnL: l.realized}
}

func (l *Ledger) Cash() float64        { return l.cash }
func (l *Ledger) RealizedPnL() float64 { return l.realized }

// Positions returns a copy sorted by symbol.
func (l *Ledger) Positions() []Position {
	out := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (l *Ledger) Position(symbol string) (Position, bool) {
	p, ok := l.positions[strings.ToUpper(strings.TrimSpace(symbol))]
	return p, ok
}

// Buy debits qty*price and folds the shares into the position's average cost.
func (l *Ledger) Buy(symbol string, qty int, price float64) (Fill, error) {
	if qty <= 0 {
		return Fill{}, reason.InvalidQuantity
	}
	if price <= 0 {
		return Fill{}, reason.UnknownInstrument
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	cost := money.Round2(price * float64(qty))
	if cost > l.cash {
		return Fill{}, reason.InsufficientFunds
	}

	p := l.positions[symbol]
	total := p.Shares + qty
	p.AvgCost = money.Round2((float64(p.Shares)*p.AvgCost + cost) / float64(total))
	p.Shares = total
	p.Symbol = symbol
	l.positions[symbol] = p
	l.cash = money.Round2(l.cash - cost)

	return Fill{Symbol: symbol, Shares: qty, Price: price, Amount: cost}, nil
}

// Sell credits qty*price and realizes P/L against the average cost. The
// position is removed when no shares remain.
func (l *Ledger) Sell(symbol string, qty int, price float64) (Fill, error) {
	if qty <= 0 {
		return Fill{}, reason.InvalidQuantity
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	p, ok := l.positions[symbol]
	if !ok || p.Shares < qty {
		return Fill{}, reason.InsufficientShares
	}

	proceeds := money.Round2(price * float64(qty))
	realized := money.Round2((price - p.AvgCost) * float64(qty))
	p.Shares -= qty
	if p.Shares == 0 {
		delete(l.positions, symbol)
	} else {
		l.positions[symbol] = p
	}
	l.cash = money.Round2(l.cash + proceeds)
	l.realized = money.Round2(l.realized + realized)

	return Fill{Symbol: symbol, Shares: qty, Price: price, Amount: proceeds, Realized: realized}, nil
}

// Credit adds engine-reported income. Non-positive amounts are ignored.
func (l *Ledger) Credit(amount float64) float64 {
	amount = money.Round2(amount)
	if amount <= 0 {
		return 0
	}
	l.cash = money.Round2(l.cash + amount)
	return amount
}

// HoldingsValue prices every position; symbols missing from prices count as zero.
func (l *Ledger) HoldingsValue(prices map[string]float64) float64 {
	return HoldingsValue(l.Positions(), prices)
}

func (l *Ledger) TotalValue(prices map[string]float64) float64 {
	return money.Round2(l.cash + l.HoldingsValue(prices))
}

func HoldingsValue(positions []Position, prices map[string]float64) float64 {
	total := 0.0
	for _, p := range positions {
		total += float64(p.Shares) * prices[p.Symbol]
	}
	return money.Round2(total)
}
