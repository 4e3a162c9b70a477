package game

import (
	"time"

	"tradingdesk/internal/idle"
	"tradingdesk/internal/market"
	"tradingdesk/internal/portfolio"
	"tradingdesk/internal/progression"
)

type DeskView struct {
	Day             int                `json:"day"`
	Phase           market.Phase       `json:"phase"`
	Cash            float64            `json:"cash"`
	HoldingsValue   float64            `json:"holdings_value"`
	TotalValue      float64            `json:"total_value"`
	RealizedPnL     float64            `json:"realized_pnl"`
	Reputation      int                `json:"reputation"`
	Tier            progression.Tier   `json:"tier"`
	IncomePerSecond float64            `json:"income_per_second"`
	TapBoost        float64            `json:"tap_boost"`
	FundSize        float64            `json:"fund_size"`
	PendingOffline  float64            `json:"pending_offline"`
	WelcomeBack     bool               `json:"welcome_back"`
	ClientUsedToday bool               `json:"client_used_today"`
	Tutorial        bool               `json:"tutorial"`
	Suspended       bool               `json:"suspended"`
	LastClose       *market.DaySummary `json:"last_close,omitempty"`
}

type InstrumentView struct {
	market.Instrument
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

type PositionView struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Shares     int     `json:"shares"`
	AvgCost    float64 `json:"avg_cost"`
	Price      float64 `json:"price"`
	Value      float64 `json:"value"`
	Unrealized float64 `json:"unrealized"`
}

type PortfolioView struct {
	Cash          float64        `json:"cash"`
	HoldingsValue float64        `json:"holdings_value"`
	TotalValue    float64        `json:"total_value"`
	RealizedPnL   float64        `json:"realized_pnl"`
	Positions     []PositionView `json:"positions"`
}

type IdleView struct {
	Tier             progression.Tier   `json:"tier"`
	BaseIncome       float64            `json:"base_income"`
	IncomePerSecond  float64            `json:"income_per_second"`
	ActiveMultiplier float64            `json:"active_multiplier"`
	TapBoost         float64            `json:"tap_boost"`
	TapBoostMax      float64            `json:"tap_boost_max"`
	FundSize         float64            `json:"fund_size"`
	TotalEarned      float64            `json:"total_earned"`
	PendingOffline   float64            `json:"pending_offline"`
	WelcomeBack      bool               `json:"welcome_back"`
	LastActive       time.Time          `json:"last_active"`
	Boosts           []idle.BoostStatus `json:"boosts"`
}

type TradeResult struct {
	Side Side           `json:"side"`
	Fill portfolio.Fill `json:"fill"`
	Cash float64        `json:"cash"`
}

type TickResult struct {
	Income   float64       `json:"income"`
	Elapsed  time.Duration `json:"elapsed"`
	TapBoost float64       `json:"tap_boost"`
}

type Cosmetics struct {
	Owned    []string          `json:"owned"`
	Equipped map[string]string `json:"equipped"`
}

func (c Cosmetics) clone() Cosmetics {
	out := Cosmetics{Owned: append([]string(nil), c.Owned...)}
	if c.Equipped != nil {
		out.Equipped = make(map[string]string, len(c.Equipped))
		for k, v := range c.Equipped {
			out.Equipped[k] = v
		}
	}
	return out
}

const (
	EventTick       = "tick"
	EventTrade      = "trade"
	EventDayClosed  = "day_closed"
	EventDayStarted = "day_started"
	EventClient     = "client"
	EventTap        = "tap"
	EventBoost      = "boost"
	EventCollect    = "collect"
	EventSession    = "session"
	EventReset      = "reset"
	EventTutorial   = "tutorial"
)

// Event is published to subscribers after every state change.
type Event struct {
	Kind string    `json:"kind"`
	At   time.Time `json:"at"`
	Desk DeskView  `json:"desk"`
}
