package game

import (
	"tradingdesk/internal/market"
	"tradingdesk/internal/money"
)

func (s *Session) Desk() DeskView {
	prices := s.market.Prices()
	holdings := s.ledger.HoldingsValue(prices)
	v := DeskView{
		Day:             s.day,
		Phase:           s.market.Phase(),
		Cash:            s.ledger.Cash(),
		HoldingsValue:   holdings,
		TotalValue:      money.Round2(s.ledger.Cash() + holdings),
		RealizedPnL:     s.ledger.RealizedPnL(),
		Reputation:      s.reputation,
		Tier:            s.tier,
		IncomePerSecond: s.idle.IncomePerSecond(s.tier),
		TapBoost:        s.idle.TapBoost(),
		FundSize:        s.idle.FundSize(),
		PendingOffline:  s.idle.Pending(),
		WelcomeBack:     s.idle.WelcomeBack(),
		ClientUsedToday: s.clientUsed,
		Tutorial:        s.tutorial,
	}
	if sum, ok := s.market.LastSummary(); ok && s.market.Phase() == market.PhaseSettled {
		v.LastClose = &sum
	}
	return v
}

func instrumentView(in market.Instrument) InstrumentView {
	return InstrumentView{
		Instrument:    in,
		Change:        in.Change(),
		ChangePercent: in.ChangePercent(),
	}
}

func (s *Session) Instruments() []InstrumentView {
	list := s.market.Instruments()
	out := make([]InstrumentView, len(list))
	for i, in := range list {
		out[i] = instrumentView(in)
	}
	return out
}

func (s *Session) Instrument(symbol string) (InstrumentView, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return InstrumentView{}, err
	}
	in, ok := s.market.Instrument(sym)
	if !ok {
		return InstrumentView{}, errUnknownInstrument(sym)
	}
	return instrumentView(in), nil
}

func (s *Session) Portfolio() PortfolioView {
	prices := s.market.Prices()
	v := PortfolioView{
		Cash:          s.ledger.Cash(),
		HoldingsValue: s.ledger.HoldingsValue(prices),
		RealizedPnL:   s.ledger.RealizedPnL(),
	}
	v.TotalValue = money.Round2(v.Cash + v.HoldingsValue)
	for _, p := range s.ledger.Positions() {
		in, _ := s.market.Instrument(p.Symbol)
		value := money.Round2(float64(p.Shares) * in.Price)
		v.Positions = append(v.Positions, PositionView{
			Symbol:     p.Symbol,
			Name:       in.Name,
			Shares:     p.Shares,
			AvgCost:    p.AvgCost,
			Price:      in.Price,
			Value:      value,
			Unrealized: money.Round2(value - float64(p.Shares)*p.AvgCost),
		})
	}
	return v
}

func (s *Session) Idle() IdleView {
	return IdleView{
		Tier:             s.tier,
		BaseIncome:       money.Round2(s.idle.BaseIncome(s.tier)),
		IncomePerSecond:  s.idle.IncomePerSecond(s.tier),
		ActiveMultiplier: s.idle.ActiveMultiplier(),
		TapBoost:         s.idle.TapBoost(),
		TapBoostMax:      s.idle.Config().TapMax,
		FundSize:         s.idle.FundSize(),
		TotalEarned:      s.idle.TotalEarned(),
		PendingOffline:   s.idle.Pending(),
		WelcomeBack:      s.idle.WelcomeBack(),
		LastActive:       s.idle.LastActive(),
		Boosts:           s.idle.Boosts(),
	}
}
