package service

import "time"

// Clock abstracts time so the paced interstitial and the offer countdown can
// be driven deterministically in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled callback that can be stopped before it fires.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NewClock returns the wall clock.
func NewClock() Clock { return realClock{} }

// The creating interstitial plays fixed paced steps before the paywall
// opens. The settle delay keeps the final step on screen briefly.
var loaderSteps = []time.Duration{
	1200 * time.Millisecond,
	2000 * time.Millisecond,
	1800 * time.Millisecond,
	3000 * time.Millisecond,
}

const loaderSettleDelay = 800 * time.Millisecond

// loaderDuration is the full interstitial runtime.
func loaderDuration() time.Duration {
	total := loaderSettleDelay
	for _, step := range loaderSteps {
		total += step
	}
	return total
}

// offerWindow is how long the discounted subscription offer stays open once
// the paywall appears.
const offerWindow = 10 * time.Minute
