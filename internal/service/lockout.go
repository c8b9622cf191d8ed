package service

import "time"

const (
	DefaultLockoutThreshold = 5
	DefaultLockoutWindow    = 30 * time.Minute
)

// LockoutPolicy decides when repeated login failures lock an account.
// It holds no state; counters live on the user row.
type LockoutPolicy struct {
	Threshold int
	Window    time.Duration
}

func NewLockoutPolicy(threshold int, window time.Duration) LockoutPolicy {
	if threshold <= 0 {
		threshold = DefaultLockoutThreshold
	}
	if window <= 0 {
		window = DefaultLockoutWindow
	}
	return LockoutPolicy{Threshold: threshold, Window: window}
}

// OnFailure returns the incremented failure count and, once the count reaches
// the threshold, the instant the lock expires.
func (p LockoutPolicy) OnFailure(currentCount int, now time.Time) (int, *time.Time) {
	if currentCount < 0 {
		currentCount = 0
	}

	next := currentCount + 1
	if next >= p.Threshold {
		until := now.Add(p.Window)
		return next, &until
	}

	return next, nil
}

func (p LockoutPolicy) OnSuccess() (int, *time.Time) {
	return 0, nil
}

func (p LockoutPolicy) IsLocked(lockedUntil *time.Time, now time.Time) bool {
	return lockedUntil != nil && lockedUntil.After(now)
}
