package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingdesk/internal/idle"
	"tradingdesk/internal/market"
	"tradingdesk/internal/progression"
)

func playedSession(t *testing.T) (*Session, Deps) {
	t.Helper()
	deps, clk := testDeps()
	s := NewSession(deps)
	_, err := s.Buy("NLSY", 25)
	require.NoError(t, err)
	_, err = s.Buy("CRMD", 5)
	require.NoError(t, err)
	_, err = s.CloseDay()
	require.NoError(t, err)
	_, err = s.NewClient()
	require.NoError(t, err)
	_, err = s.StartNextDay()
	require.NoError(t, err)
	s.Tap()
	s.Tap()
	_, err = s.ActivateBoost(idle.DoubleIncome)
	require.NoError(t, err)
	clk.Advance(3 * time.Second)
	s.Tick()
	s.SetCosmetics(Cosmetics{Owned: []string{"lamp"}, Equipped: map[string]string{"desk": "lamp"}})
	return s, deps
}

func TestSnapshotRoundTrip(t *testing.T) {
	s, deps := playedSession(t)

	raw, err := EncodeSnapshot(s.Snapshot())
	require.NoError(t, err)
	snap, err := DecodeSnapshot(raw)
	require.NoError(t, err)
	restored := RestoreSession(deps, snap)

	assert.Equal(t, s.Desk(), restored.Desk())
	assert.Equal(t, s.Portfolio(), restored.Portfolio())
	assert.Equal(t, s.Instruments(), restored.Instruments())
	assert.Equal(t, s.Feed(), restored.Feed())
	assert.Equal(t, s.Cosmetics(), restored.Cosmetics())
	assert.Equal(t, len(s.market.Effects()), len(restored.market.Effects()))

	assert.Equal(t, s.Tick().Income, restored.Tick().Income)
}

func TestSnapshotKeepsSettledDay(t *testing.T) {
	deps, _ := testDeps()
	s := NewSession(deps)
	rigMarket(s, constRand(0.99))
	_, err := s.CloseDay()
	require.NoError(t, err)

	raw, err := EncodeSnapshot(s.Snapshot())
	require.NoError(t, err)
	snap, err := DecodeSnapshot(raw)
	require.NoError(t, err)
	restored := RestoreSession(deps, snap)

	assert.Equal(t, market.PhaseSettled, restored.Phase())
	require.Len(t, restored.News(), 1)
	assert.Equal(t, s.News()[0].Headline, restored.News()[0].Headline)

	_, err = restored.StartNextDay()
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Day())
}

func TestDecodeSnapshotErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrNoSave},
		{"whitespace", "  \n", ErrNoSave},
		{"garbage", "{not json", ErrCorruptSave},
		{"future version", `{"version":99}`, ErrCorruptSave},
		{"missing version", `{"day":3}`, ErrCorruptSave},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(tc.raw))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRestoreSessionSanitizes(t *testing.T) {
	deps, _ := testDeps()
	snap := Snapshot{
		Version:    SnapshotVersion,
		Day:        0,
		Reputation: 500,
		Tier:       progression.Tier("Intern"),
		Market: market.EngineState{
			Phase: market.PhaseClosing,
			Instruments: []market.Instrument{
				{Symbol: "bad$", Price: 10},
				{Symbol: "NLSY", Price: -1},
			},
		},
	}

	s := RestoreSession(deps, snap)
	assert.Equal(t, StartingDay, s.Day())
	assert.Equal(t, progression.MaxReputation, s.Reputation())
	assert.Equal(t, progression.Partner, s.Tier())
	assert.Equal(t, market.PhaseOpen, s.Phase(), "an interrupted close reopens the day")
	assert.Len(t, s.Instruments(), 15, "no valid instruments falls back to the catalog")
	assert.Equal(t, []string{welcomeMessage}, s.Feed())
}

func TestRestoreSessionRepairsInstruments(t *testing.T) {
	deps, _ := testDeps()
	snap := Snapshot{
		Version: SnapshotVersion,
		Day:     4,
		Tier:    progression.Associate,
		Market: market.EngineState{
			Instruments: []market.Instrument{
				{Symbol: "abc", Name: "Abc Corp", Sector: "Energy", Price: 10, Volatility: -1},
				{Symbol: "ABC", Name: "Duplicate", Sector: "Energy", Price: 11},
			},
		},
	}

	s := RestoreSession(deps, snap)
	list := s.Instruments()
	require.Len(t, list, 1)
	assert.Equal(t, "ABC", list[0].Symbol)
	assert.Equal(t, 10.0, list[0].PreviousPrice)
	assert.Equal(t, 0.0, list[0].Volatility)
	assert.Equal(t, progression.Associate, s.Tier(), "a stored tier wins over the reputation")
	assert.Equal(t, 4, s.Day())
}
