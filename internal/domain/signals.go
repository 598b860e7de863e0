package domain

// Signals are derived, time-decayed activity scores attached to an atom or
// stack. They are recomputed from recent stake and engagement events and are
// not independently persisted truth. All three scores are bounded to [0,100];
// updates saturate rather than wrap.
type Signals struct {
	// Heat tracks stake volume in the trailing window, decaying when no new
	// volume arrives.
	Heat float64 `json:"heat"`
	// Heartbeat tracks distinct-user engagement (likes, stakes, forks) and
	// decays faster than heat.
	Heartbeat float64 `json:"heartbeat"`
	// Momentum is the first derivative of activity: positive when the recent
	// window beats the prior one.
	Momentum float64 `json:"momentum"`
}

// Clamped returns a copy with every score saturated into [0,100].
func (s Signals) Clamped() Signals {
	return Signals{
		Heat:      clampScore(s.Heat),
		Heartbeat: clampScore(s.Heartbeat),
		Momentum:  clampScore(s.Momentum),
	}
}

// InBounds reports whether every score is within [0,100].
func (s Signals) InBounds() bool {
	return s.Heat >= 0 && s.Heat <= 100 &&
		s.Heartbeat >= 0 && s.Heartbeat <= 100 &&
		s.Momentum >= 0 && s.Momentum <= 100
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
