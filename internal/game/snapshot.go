package game

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"tradingdesk/internal/idle"
	"tradingdesk/internal/market"
	"tradingdesk/internal/money"
	"tradingdesk/internal/portfolio"
	"tradingdesk/internal/progression"
)

const SnapshotVersion = 1

// Snapshot is the persisted desk. The day's news travels inside the market's
// last summary and is shown again only while that day is still settled.
type Snapshot struct {
	Version         int                `json:"version"`
	SavedAt         int64              `json:"saved_at"`
	Day             int                `json:"day"`
	Reputation      int                `json:"reputation"`
	Tier            progression.Tier   `json:"tier"`
	ClientUsedToday bool               `json:"client_used_today"`
	Market          market.EngineState `json:"market"`
	Portfolio       portfolio.State    `json:"portfolio"`
	Idle            idle.State         `json:"idle"`
	Feed            []string           `json:"feed"`
	Cosmetics       Cosmetics          `json:"cosmetics"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Version:         SnapshotVersion,
		SavedAt:         s.deps.Clock.Now().UnixMilli(),
		Day:             s.day,
		Reputation:      s.reputation,
		Tier:            s.tier,
		ClientUsedToday: s.clientUsed,
		Market:          s.market.State(),
		Portfolio:       s.ledger.State(),
		Idle:            s.idle.State(),
		Feed:            s.feed.Items(),
		Cosmetics:       s.cosmetics.clone(),
	}
}

func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return raw, nil
}

func DecodeSnapshot(raw []byte) (Snapshot, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Snapshot{}, ErrNoSave
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	if snap.Version < 1 || snap.Version > SnapshotVersion {
		return Snapshot{}, fmt.Errorf("%w: unsupported version %d", ErrCorruptSave, snap.Version)
	}
	return snap, nil
}

// RestoreSession rebuilds a session from snap. Missing or out-of-range values
// fall back to the defaults of a fresh desk.
func RestoreSession(d Deps, snap Snapshot) *Session {
	s := NewSession(d)

	s.day = snap.Day
	if s.day < StartingDay {
		s.day = StartingDay
	}
	s.reputation = money.ClampInt(snap.Reputation, progression.MinReputation, progression.MaxReputation)
	if snap.Tier.Valid() {
		s.tier = snap.Tier
	} else {
		s.tier = progression.FromReputation(s.reputation)
	}
	s.clientUsed = snap.ClientUsedToday

	ms := snap.Market
	ms.Instruments = sanitizeInstruments(ms.Instruments)
	s.market.Restore(ms)

	s.ledger = portfolio.FromState(snap.Portfolio)
	s.idle.Restore(snap.Idle)
	if len(snap.Feed) > 0 {
		s.feed = NewFeed(FeedLimit, snap.Feed...)
	}
	s.cosmetics = snap.Cosmetics.clone()
	return s
}

func sanitizeInstruments(list []market.Instrument) []market.Instrument {
	out := make([]market.Instrument, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, in := range list {
		sym, err := NormalizeSymbol(in.Symbol)
		if err != nil || seen[sym] || !positive(in.Price) {
			continue
		}
		seen[sym] = true
		in.Symbol = sym
		if !positive(in.PreviousPrice) {
			in.PreviousPrice = in.Price
		}
		if !(in.Volatility >= 0) {
			in.Volatility = 0
		}
		if n := len(in.History); n > market.HistoryLen {
			in.History = in.History[n-market.HistoryLen:]
		}
		out = append(out, in)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
