// Package progression maps reputation to a career tier and the rates that
// tier unlocks.
package progression

import (
	"fmt"
	"strings"
)

type Tier string

const (
	Junior    Tier = "Junior"
	Associate Tier = "Associate"
	Senior    Tier = "Senior"
	Partner   Tier = "Partner"
)

const (
	MinReputation     = 0
	MaxReputation     = 100
	StartReputation   = 50
	fundSizeForMaxOut = 10_000_000.0
)

var order = []Tier{Junior, Associate, Senior, Partner}

// IncomeRange is the idle income band, per second, available at a tier.
type IncomeRange struct {
	Min float64
	Max float64
}

var incomeByTier = map[Tier]IncomeRange{
	Junior:    {Min: 1, Max: 5},
	Associate: {Min: 5, Max: 15},
	Senior:    {Min: 20, Max: 60},
	Partner:   {Min: 100, Max: 300},
}

var newClientCapital = map[Tier]float64{
	Junior:    50_000,
	Associate: 250_000,
	Senior:    1_000_000,
	Partner:   5_000_000,
}

func FromReputation(rep int) Tier {
	switch {
	case rep >= 90:
		return Partner
	case rep >= 75:
		return Senior
	case rep >= 60:
		return Associate
	default:
		return Junior
	}
}

func Parse(s string) (Tier, error) {
	for _, t := range order {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tier: %q", s)
}

func (t Tier) Valid() bool {
	_, ok := incomeByTier[t]
	return ok
}

func (t Tier) Rank() int {
	for i, o := range order {
		if o == t {
			return i
		}
	}
	return 0
}

// Meets reports whether t is at or above required.
func (t Tier) Meets(required Tier) bool {
	return t.Rank() >= required.Rank()
}

func (t Tier) Income() IncomeRange {
	if r, ok := incomeByTier[t]; ok {
		return r
	}
	return incomeByTier[Junior]
}

// BaseIncome interpolates the tier's income band by how far the fund has
// grown toward ten million.
func BaseIncome(t Tier, fundSize float64) float64 {
	r := t.Income()
	progress := fundSize / fundSizeForMaxOut
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}
	base := r.Min + (r.Max-r.Min)*progress
	if base > r.Max {
		return r.Max
	}
	return base
}

func NewClientCapital(t Tier) float64 {
	if v, ok := newClientCapital[t]; ok {
		return v
	}
	return newClientCapital[Junior]
}
