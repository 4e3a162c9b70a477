package main

import (
	"testing"

	"tradingdesk/internal/progression"
)

func TestRunSimReproducible(t *testing.T) {
	opts := simOptions{Days: 6, Seed: 99, Symbol: "NLSY", Qty: 200, Ticks: 5, Client: true}
	a, err := runSim(opts)
	if err != nil {
		t.Fatalf("runSim: %v", err)
	}
	b, err := runSim(opts)
	if err != nil {
		t.Fatalf("runSim: %v", err)
	}
	if len(a) != 6 {
		t.Fatalf("expected 6 days, got %d", len(a))
	}
	for i := range a {
		if a[i].PnL != b[i].PnL || a[i].Reputation != b[i].Reputation || a[i].TotalValue != b[i].TotalValue {
			t.Fatalf("day %d differs: %+v vs %+v", i+1, a[i], b[i])
		}
		if a[i].Day != i+1 {
			t.Fatalf("expected day %d, got %d", i+1, a[i].Day)
		}
		if a[i].Reputation < progression.MinReputation || a[i].Reputation > progression.MaxReputation {
			t.Fatalf("reputation out of range: %d", a[i].Reputation)
		}
		if a[i].Income <= 0 {
			t.Fatalf("expected idle income on day %d", i+1)
		}
	}
}

func TestRunSimErrors(t *testing.T) {
	if _, err := runSim(simOptions{Days: 0}); err == nil {
		t.Fatal("expected error for zero days")
	}
	if _, err := runSim(simOptions{Days: 1, Seed: 1, Symbol: "ZZZZ", Qty: 1}); err == nil {
		t.Fatal("expected error for unknown symbol")
	}
	if _, err := runSim(simOptions{Days: 1, Seed: 1, Symbol: "NLSY", Qty: 1_000_000}); err == nil {
		t.Fatal("expected error when the buy is unaffordable")
	}
}

func TestMoneyAndTruncate(t *testing.T) {
	if got := money(-1234.5); got != "-$1,234.5" {
		t.Fatalf("money: %q", got)
	}
	if got := truncate("Nordlite Systems", 8); got != "Nordlit…" {
		t.Fatalf("truncate: %q", got)
	}
	if got := sparkline([]float64{1, 2, 3}); got != "▁▄█" {
		t.Fatalf("sparkline: %q", got)
	}
}
