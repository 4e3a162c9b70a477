package idle

import (
	"time"

	"tradingdesk/internal/clock"
	"tradingdesk/internal/money"
)

// BoostState persists a boost's timers as Unix milliseconds; zero means never.
type BoostState struct {
	ID          string `json:"id"`
	ActivatedAt int64  `json:"activated_at,omitempty"`
	LastUsedAt  int64  `json:"last_used_at,omitempty"`
}

// State is the persisted form of the engine. Pending offline earnings are not
// part of it; they are recomputed from LastActive.
type State struct {
	FundSize    float64      `json:"fund_size"`
	TapBoost    float64      `json:"tap_boost"`
	LastActive  int64        `json:"last_active"`
	TotalEarned float64      `json:"total_earned"`
	Boosts      []BoostState `json:"boosts"`
}

func (e *Engine) State() State {
	st := State{
		FundSize:    e.fundSize,
		TapBoost:    e.tapBoost,
		LastActive:  toMillis(e.lastActive),
		TotalEarned: e.totalEarned,
		Boosts:      make([]BoostState, 0, len(e.boosts)),
	}
	for _, b := range e.boosts {
		st.Boosts = append(st.Boosts, BoostState{
			ID:          b.ID,
			ActivatedAt: toMillis(b.ActivatedAt),
			LastUsedAt:  toMillis(b.LastUsedAt),
		})
	}
	return st
}

// Restore loads st over the catalog. Unknown boost ids are ignored and bad
// numbers fall back to defaults.
func (e *Engine) Restore(st State) {
	e.fundSize = st.FundSize
	if e.fundSize <= 0 {
		e.fundSize = e.cfg.StartFundSize
	}
	e.tapBoost = money.Clamp(st.TapBoost, 0, e.cfg.TapMax)
	e.totalEarned = money.NonNegative(st.TotalEarned)
	e.lastActive = fromMillis(st.LastActive)
	if e.lastActive.IsZero() {
		e.lastActive = e.stamp()
	}
	e.pending = 0
	e.welcomeBack = false

	e.boosts = Catalog()
	for _, bs := range st.Boosts {
		i := e.boostIndex(bs.ID)
		if i < 0 {
			continue
		}
		e.boosts[i].ActivatedAt = fromMillis(bs.ActivatedAt)
		e.boosts[i].LastUsedAt = fromMillis(bs.LastUsedAt)
	}
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return clock.Millis(t)
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
