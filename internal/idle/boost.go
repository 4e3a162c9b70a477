package idle

import "time"

const (
	DoubleIncome   = "double-income"
	InstantCollect = "instant-collect"
)

// Boost is a rewarded multiplier. Zero ActivatedAt / LastUsedAt mean never used.
type Boost struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Multiplier      float64       `json:"multiplier"`
	Duration        time.Duration `json:"duration"`
	Cooldown        time.Duration `json:"cooldown"`
	CollectsOffline bool          `json:"collects_offline,omitempty"`
	ActivatedAt     time.Time     `json:"activated_at"`
	LastUsedAt      time.Time     `json:"last_used_at"`
}

func Catalog() []Boost {
	return []Boost{
		{
			ID:          DoubleIncome,
			Name:        "Double Fund Income",
			Description: "2x fund income for 30 minutes",
			Multiplier:  2,
			Duration:    30 * time.Minute,
			Cooldown:    time.Hour,
		},
		{
			ID:              InstantCollect,
			Name:            "Instant Offline Collect",
			Description:     "Collect max offline earnings instantly",
			Multiplier:      1,
			Duration:        0,
			Cooldown:        24 * time.Hour,
			CollectsOffline: true,
		},
	}
}

// ActiveAt reports whether the boost's window covers t.
func (b Boost) ActiveAt(t time.Time) bool {
	if b.ActivatedAt.IsZero() || b.Duration <= 0 {
		return false
	}
	return !t.Before(b.ActivatedAt) && t.Sub(b.ActivatedAt) < b.Duration
}

func (b Boost) Remaining(now time.Time) time.Duration {
	if b.ActivatedAt.IsZero() || b.Duration <= 0 {
		return 0
	}
	return nonNegative(b.Duration - now.Sub(b.ActivatedAt))
}

func (b Boost) CooldownRemaining(now time.Time) time.Duration {
	if b.LastUsedAt.IsZero() {
		return 0
	}
	return nonNegative(b.Cooldown - now.Sub(b.LastUsedAt))
}

func (b Boost) ReadyAt(now time.Time) bool {
	return b.LastUsedAt.IsZero() || !now.Before(b.LastUsedAt.Add(b.Cooldown))
}

// BoostStatus is a boost plus its timers evaluated at one instant.
type BoostStatus struct {
	Boost
	Active            bool          `json:"active"`
	OnCooldown        bool          `json:"on_cooldown"`
	Remaining         time.Duration `json:"remaining"`
	CooldownRemaining time.Duration `json:"cooldown_remaining"`
}

func statusOf(b Boost, now time.Time) BoostStatus {
	rem := b.Remaining(now)
	cd := b.CooldownRemaining(now)
	return BoostStatus{
		Boost:             b,
		Active:            rem > 0,
		OnCooldown:        cd > 0,
		Remaining:         rem,
		CooldownRemaining: cd,
	}
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
