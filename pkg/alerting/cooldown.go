package alerting

import "time"

// CooldownGate suppresses repeat alerts for the same vessel within the
// cooldown window. State is process-lifetime only; a restart resets all
// cooldowns.
type CooldownGate struct {
	cooldown time.Duration
	lastSent map[int]time.Time
}

func NewCooldownGate(cooldown time.Duration) *CooldownGate {
	return &CooldownGate{
		cooldown: cooldown,
		lastSent: make(map[int]time.Time),
	}
}

// ShouldAlert reports whether an alert for the vessel is currently permitted.
// Permission is advisory: the caller must confirm the dispatch with
// RecordSent, and only after a successful send, so a failed send never
// starts the cooldown clock.
func (g *CooldownGate) ShouldAlert(mmsi int, now time.Time) bool {
	last, ok := g.lastSent[mmsi]
	if !ok {
		return true
	}
	return now.Sub(last) >= g.cooldown
}

// RecordSent records a confirmed successful dispatch. Entries only move
// forward in time.
func (g *CooldownGate) RecordSent(mmsi int, now time.Time) {
	if last, ok := g.lastSent[mmsi]; ok && now.Before(last) {
		return
	}
	g.lastSent[mmsi] = now
}
