package idle

import (
	"errors"
	"testing"
	"time"

	"tradingdesk/internal/clock"
	"tradingdesk/internal/progression"
	"tradingdesk/internal/reason"
)

var epoch = time.UnixMilli(1_700_000_000_000)

// newEngine returns an engine whose Junior base income is exactly 5/s.
func newEngine() (*Engine, *clock.Manual) {
	clk := clock.NewManual(epoch)
	e := New(clk, DefaultConfig())
	e.IncreaseFundSize(10_000_000 - e.FundSize())
	return e, clk
}

func TestTapClampsAtMax(t *testing.T) {
	e, _ := newEngine()
	for i := 0; i < 60; i++ {
		e.Tap()
	}
	if e.TapBoost() != 100 {
		t.Fatalf("expected tap boost capped at 100, got %v", e.TapBoost())
	}
}

func TestDecayTapBoost(t *testing.T) {
	tests := []struct {
		name  string
		delta float64
		want  float64
	}{
		{"five seconds", 5, 9},
		{"negative elapsed", -30, 10},
		{"long gap", 1000, 0},
		{"zero", 0, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newEngine()
			for i := 0; i < 5; i++ {
				e.Tap()
			}
			e.DecayTapBoost(tc.delta)
			if diff := e.TapBoost() - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("expected %v, got %v", tc.want, e.TapBoost())
			}
		})
	}
}

func TestIncomePerSecondMultipliers(t *testing.T) {
	e, _ := newEngine()
	if got := e.IncomePerSecond(progression.Junior); got != 5 {
		t.Fatalf("expected base 5, got %v", got)
	}
	for i := 0; i < 25; i++ {
		e.Tap()
	}
	if got := e.IncomePerSecond(progression.Junior); got != 7.5 {
		t.Fatalf("expected 7.5 with 50%% tap boost, got %v", got)
	}
	if _, err := e.ActivateBoost(DoubleIncome); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if got := e.IncomePerSecond(progression.Junior); got != 15 {
		t.Fatalf("expected 15 with double income, got %v", got)
	}
}

func TestIncomeMonotonicInTapBoost(t *testing.T) {
	e, _ := newEngine()
	prev := e.IncomePerSecond(progression.Senior)
	for i := 0; i < 50; i++ {
		e.Tap()
		cur := e.IncomePerSecond(progression.Senior)
		if cur < prev {
			t.Fatalf("income decreased from %v to %v at tap %d", prev, cur, i)
		}
		prev = cur
	}
}

func TestTickAccruesAndTouches(t *testing.T) {
	e, clk := newEngine()
	clk.Advance(time.Second)
	got := e.Tick(progression.Junior)
	if got != 5 || e.TotalEarned() != 5 {
		t.Fatalf("expected 5 earned, got tick=%v total=%v", got, e.TotalEarned())
	}
	if !e.LastActive().Equal(clk.Now()) {
		t.Fatalf("tick should update last active")
	}
}

func TestBoostExpires(t *testing.T) {
	e, clk := newEngine()
	e.ActivateBoost(DoubleIncome)
	clk.Advance(30*time.Minute - time.Millisecond)
	if e.ActiveMultiplier() != 2 {
		t.Fatalf("expected boost active just before expiry")
	}
	clk.Advance(time.Millisecond)
	if e.ActiveMultiplier() != 1 {
		t.Fatalf("expected boost expired at duration")
	}
	st, _ := e.Boost(DoubleIncome)
	if st.Active || !st.OnCooldown || st.CooldownRemaining != 30*time.Minute {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestBoostCooldownBoundary(t *testing.T) {
	e, clk := newEngine()
	if _, err := e.ActivateBoost(DoubleIncome); err != nil {
		t.Fatalf("first activation: %v", err)
	}
	clk.Advance(time.Hour - time.Millisecond)
	if _, err := e.ActivateBoost(DoubleIncome); !errors.Is(err, reason.BoostCooldown) {
		t.Fatalf("expected cooldown refusal, got %v", err)
	}
	clk.Advance(time.Millisecond)
	act, err := e.ActivateBoost(DoubleIncome)
	if err != nil {
		t.Fatalf("expected activation at cooldown end, got %v", err)
	}
	if !act.Boost.ActivatedAt.Equal(clk.Now()) {
		t.Fatalf("reactivation should restart the window")
	}
}

func TestActivateUnknownBoost(t *testing.T) {
	e, _ := newEngine()
	before := e.Boosts()
	if _, err := e.ActivateBoost("free-money"); !errors.Is(err, reason.UnknownBoost) {
		t.Fatalf("expected unknown boost, got %v", err)
	}
	after := e.Boosts()
	for i := range before {
		if !before[i].LastUsedAt.Equal(after[i].LastUsedAt) {
			t.Fatalf("refused activation changed state")
		}
	}
}

func TestOfflineEarnings(t *testing.T) {
	tests := []struct {
		name string
		gap  time.Duration
		want float64
		flag bool
	}{
		{"one hour", time.Hour, 5 * 3600, true},
		{"capped at eight hours", 10 * time.Hour, 5 * 28800, true},
		{"below threshold", 59 * time.Second, 0, false},
		{"at threshold", time.Minute, 300, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, clk := newEngine()
			clk.Advance(tc.gap)
			got := e.ComputeOfflineEarnings(progression.Junior)
			if got != tc.want || e.Pending() != tc.want {
				t.Fatalf("expected %v, got %v (pending %v)", tc.want, got, e.Pending())
			}
			if e.WelcomeBack() != tc.flag {
				t.Fatalf("expected welcome back %v", tc.flag)
			}
		})
	}
}

func TestOfflineEarningsClockSkew(t *testing.T) {
	e, clk := newEngine()
	clk.Set(epoch.Add(-time.Hour))
	if got := e.ComputeOfflineEarnings(progression.Junior); got != 0 {
		t.Fatalf("expected zero for negative gap, got %v", got)
	}
}

func TestOfflineEarningsIdempotent(t *testing.T) {
	e, clk := newEngine()
	clk.Advance(2 * time.Hour)
	first := e.ComputeOfflineEarnings(progression.Junior)
	second := e.ComputeOfflineEarnings(progression.Junior)
	if first != second || e.Pending() != first {
		t.Fatalf("recompute accumulated: first=%v second=%v pending=%v", first, second, e.Pending())
	}
	if e.TotalEarned() != 0 {
		t.Fatalf("compute must not touch the lifetime total")
	}
}

func TestOfflineUsesBoostsActiveAtExit(t *testing.T) {
	e, clk := newEngine()
	e.ActivateBoost(DoubleIncome)
	clk.Advance(10 * time.Minute)
	e.Touch()
	clk.Advance(time.Hour)
	if got := e.ComputeOfflineEarnings(progression.Junior); got != 36000 {
		t.Fatalf("expected boost at exit to double earnings, got %v", got)
	}

	late, lclk := newEngine()
	lclk.Advance(time.Hour)
	late.ActivateBoost(DoubleIncome)
	if got := late.ComputeOfflineEarnings(progression.Junior); got != 18000 {
		t.Fatalf("boost activated after return must not count, got %v", got)
	}
}

func TestCollectOfflineEarnings(t *testing.T) {
	e, clk := newEngine()
	clk.Advance(time.Hour)
	e.ComputeOfflineEarnings(progression.Junior)
	if got := e.CollectOfflineEarnings(); got != 18000 {
		t.Fatalf("expected 18000 collected, got %v", got)
	}
	if e.Pending() != 0 || e.WelcomeBack() || e.TotalEarned() != 18000 {
		t.Fatalf("unexpected state after collect: pending=%v total=%v", e.Pending(), e.TotalEarned())
	}
	if got := e.CollectOfflineEarnings(); got != 0 {
		t.Fatalf("second collect should be empty, got %v", got)
	}
	if got := e.ComputeOfflineEarnings(progression.Junior); got != 0 {
		t.Fatalf("collect should reset the offline anchor, got %v", got)
	}
}

func TestInstantCollectBoost(t *testing.T) {
	e, clk := newEngine()
	clk.Advance(time.Hour)
	e.ComputeOfflineEarnings(progression.Junior)
	act, err := e.ActivateBoost(InstantCollect)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if act.Collected != 18000 || e.Pending() != 0 {
		t.Fatalf("expected instant collect of 18000, got %+v", act)
	}
	if e.ActiveMultiplier() != 1 {
		t.Fatalf("instant boost must not change the multiplier")
	}
}

func TestApplyTradingPerformance(t *testing.T) {
	tests := []struct {
		name      string
		ret       float64
		portfolio float64
		start     float64
		want      float64
	}{
		{"gain grows fund", 0.02, 50000, 100000, 100010},
		{"small loss ignored", -0.03, 50000, 100000, 100000},
		{"large loss shrinks", -0.1, 50000, 100000, 99950},
		{"floor", -0.9, 0, 10001, 10000},
		{"flat", 0, 50000, 100000, 100000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := New(clock.NewManual(epoch), DefaultConfig())
			e.Restore(State{FundSize: tc.start})
			e.ApplyTradingPerformance(tc.ret, tc.portfolio)
			if e.FundSize() != tc.want {
				t.Fatalf("expected fund %v, got %v", tc.want, e.FundSize())
			}
		})
	}
}

func TestStateRoundTripPreservesTick(t *testing.T) {
	e, clk := newEngine()
	for i := 0; i < 7; i++ {
		e.Tap()
	}
	e.ActivateBoost(DoubleIncome)
	e.DecayTapBoost(3)
	st := e.State()

	restored := New(clk, DefaultConfig())
	restored.Restore(st)

	clk.Advance(time.Second)
	want := e.Tick(progression.Associate)
	got := restored.Tick(progression.Associate)
	if got != want {
		t.Fatalf("round trip changed tick income: %v vs %v", got, want)
	}
	if restored.FundSize() != e.FundSize() || restored.TapBoost() != e.TapBoost() {
		t.Fatalf("round trip changed fund or tap boost")
	}
}

func TestStateRoundTripSubMillisecondClock(t *testing.T) {
	clk := clock.NewManual(time.Unix(1_700_000_000, 600_000))
	e := New(clk, DefaultConfig())
	e.IncreaseFundSize(10_000_000 - e.FundSize())
	if _, err := e.ActivateBoost(DoubleIncome); err != nil {
		t.Fatalf("activate: %v", err)
	}
	e.Touch()

	restored := New(clk, DefaultConfig())
	restored.Restore(e.State())
	if !restored.LastActive().Equal(e.LastActive()) {
		t.Fatalf("last active moved: %v vs %v", restored.LastActive(), e.LastActive())
	}

	for _, step := range []time.Duration{30*time.Minute - 300*time.Microsecond, 400 * time.Microsecond} {
		clk.Advance(step)
		want := e.Tick(progression.Junior)
		got := restored.Tick(progression.Junior)
		if got != want {
			t.Fatalf("after %v: round trip tick %v, live tick %v", step, got, want)
		}
	}
}

func TestRestoreDefaults(t *testing.T) {
	clk := clock.NewManual(epoch)
	e := New(clk, DefaultConfig())
	e.Restore(State{
		FundSize: -1,
		TapBoost: 400,
		Boosts:   []BoostState{{ID: "gone", LastUsedAt: 5}},
	})
	if e.FundSize() != DefaultConfig().StartFundSize {
		t.Fatalf("expected default fund size, got %v", e.FundSize())
	}
	if e.TapBoost() != 100 {
		t.Fatalf("expected tap boost clamped, got %v", e.TapBoost())
	}
	if !e.LastActive().Equal(epoch) {
		t.Fatalf("expected missing last-active to default to now")
	}
	if len(e.Boosts()) != len(Catalog()) {
		t.Fatalf("expected catalog boosts only")
	}
}
