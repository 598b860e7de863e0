// Package signals derives heat, heartbeat and momentum scores from recent
// stake and engagement activity. Scores are pure functions of (now, events):
// nothing here touches storage, which keeps the math testable in isolation.
package signals

import (
	"math"
	"time"

	"github.com/stackedapp/stacked-server/internal/domain"
)

// EventKind tags what produced an activity event.
type EventKind string

// Event kinds.
const (
	EventStake EventKind = "stake"
	EventLike  EventKind = "like"
	EventFork  EventKind = "fork"
)

// Event is one unit of activity against a target. Stake events carry the
// staked amount; likes and forks are pure engagement.
type Event struct {
	At     time.Time
	UserID string
	Kind   EventKind
	Amount int64
}

// Config tunes the calculator's windows and decay rates.
type Config struct {
	// Window is the trailing activity window for heat and momentum.
	Window time.Duration
	// HeatHalfLife controls how fast stake volume stops counting.
	HeatHalfLife time.Duration
	// HeartbeatHalfLife controls engagement decay. It must be shorter than
	// HeatHalfLife: heartbeat reflects short-term buzz.
	HeartbeatHalfLife time.Duration
}

// DefaultConfig returns the documented production tuning.
func DefaultConfig() Config {
	return Config{
		Window:            24 * time.Hour,
		HeatHalfLife:      24 * time.Hour,
		HeartbeatHalfLife: 6 * time.Hour,
	}
}

// Saturation constants. Scores follow v/(v+k), which is monotonic in v,
// approaches 100 asymptotically and never exceeds it for any input
// magnitude.
const (
	heatSaturation      = 5000 // decayed stake volume at the 50-point mark
	heartbeatSaturation = 8    // decayed distinct engagers at the 50-point mark
)

// Calculator computes signal scores.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a calculator. Zero-valued config fields fall back to
// the defaults.
func NewCalculator(cfg Config) *Calculator {
	defaults := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = defaults.Window
	}
	if cfg.HeatHalfLife <= 0 {
		cfg.HeatHalfLife = defaults.HeatHalfLife
	}
	if cfg.HeartbeatHalfLife <= 0 {
		cfg.HeartbeatHalfLife = defaults.HeartbeatHalfLife
	}
	return &Calculator{cfg: cfg}
}

// Compute derives the three scores for a target from its events. Events
// outside the momentum comparison horizon (two windows) are ignored; callers
// don't need to pre-filter.
func (c *Calculator) Compute(now time.Time, events []Event) domain.Signals {
	signals := domain.Signals{
		Heat:      c.heat(now, events),
		Heartbeat: c.heartbeat(now, events),
		Momentum:  c.momentum(now, events),
	}
	return signals.Clamped()
}

// heat is decayed stake volume in the trailing window, mapped onto [0,100).
// More volume always means more heat; silence lets the decay pull it down.
func (c *Calculator) heat(now time.Time, events []Event) float64 {
	var volume float64
	for _, event := range events {
		age := now.Sub(event.At)
		if age < 0 || age > c.cfg.Window || event.Kind != EventStake {
			continue
		}
		volume += float64(event.Amount) * decay(age, c.cfg.HeatHalfLife)
	}
	return saturate(volume, heatSaturation)
}

// heartbeat is decayed distinct-user engagement. Each user counts once at
// the weight of their most recent event, so one user mashing like cannot
// manufacture buzz.
func (c *Calculator) heartbeat(now time.Time, events []Event) float64 {
	freshest := make(map[string]float64)
	for _, event := range events {
		age := now.Sub(event.At)
		if age < 0 || age > c.cfg.Window {
			continue
		}
		weight := decay(age, c.cfg.HeartbeatHalfLife)
		if weight > freshest[event.UserID] {
			freshest[event.UserID] = weight
		}
	}

	var engagement float64
	for _, weight := range freshest {
		engagement += weight
	}
	return saturate(engagement, heartbeatSaturation)
}

// momentum compares the trailing window against the window before it.
// It is zero when activity is flat or falling and approaches 100 when all
// activity is recent.
func (c *Calculator) momentum(now time.Time, events []Event) float64 {
	var recent, prior float64
	for _, event := range events {
		age := now.Sub(event.At)
		weight := 1 + math.Log1p(float64(event.Amount))
		switch {
		case age >= 0 && age <= c.cfg.Window:
			recent += weight
		case age > c.cfg.Window && age <= 2*c.cfg.Window:
			prior += weight
		}
	}

	if recent+prior == 0 || recent <= prior {
		return 0
	}
	return (recent - prior) / (recent + prior) * 100
}

// decay is exponential decay with the given half-life.
func decay(age, halfLife time.Duration) float64 {
	return math.Exp2(-age.Hours() / halfLife.Hours())
}

// saturate maps v >= 0 onto [0,100) via v/(v+k).
func saturate(v, k float64) float64 {
	if v <= 0 {
		return 0
	}
	return v / (v + k) * 100
}
