package bot

import "sync"

// SpeedPrefs holds per-user playback-speed settings.
//
// Preferences live for the process lifetime only; there is no persistence
// across restarts. Jobs for different users may run concurrently, so
// access is guarded. Unseen users default to normal speed.
type SpeedPrefs struct {
	mu     sync.RWMutex
	speeds map[int64]float64
}

// NewSpeedPrefs creates an empty preference store.
func NewSpeedPrefs() *SpeedPrefs {
	return &SpeedPrefs{speeds: make(map[int64]float64)}
}

// Speed returns the user's current speed factor, 1.0 if never set.
func (p *SpeedPrefs) Speed(userID int64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if speed, ok := p.speeds[userID]; ok {
		return speed
	}
	return 1.0
}

// Toggle flips the user's preference between 1.0 and 2.0 and returns the
// new value.
func (p *SpeedPrefs) Toggle(userID int64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	speed := 2.0
	if p.speeds[userID] == 2.0 {
		speed = 1.0
	}
	p.speeds[userID] = speed
	return speed
}
