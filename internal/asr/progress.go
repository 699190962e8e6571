package asr

import (
	"time"
)

// ExpectedDuration estimates how long transcription will take for a tier and
// audio length, from the per-tier processing-rate table. Unknown tiers fall
// back to the base rate.
func ExpectedDuration(tier string, audioSeconds float64) time.Duration {
	rate, ok := minutesPerAudioHour[tier]
	if !ok {
		rate = minutesPerAudioHour[DefaultTier]
	}
	minutes := rate * audioSeconds / 3600
	return time.Duration(minutes * float64(time.Minute))
}

// Estimator converts elapsed decode time into a rough progress fraction and
// remaining-time estimate. Decoding gives no incremental output, so this is
// elapsed-versus-expected, clamped so it never claims completion.
type Estimator struct {
	start    time.Time
	expected time.Duration
}

// NewEstimator starts an estimate for a tier and audio duration.
func NewEstimator(tier string, audioSeconds float64) *Estimator {
	return &Estimator{
		start:    time.Now(),
		expected: ExpectedDuration(tier, audioSeconds),
	}
}

// Fraction returns estimated completion in [0, 0.99].
func (e *Estimator) Fraction() float64 {
	return progressFraction(e.expected, time.Since(e.start))
}

// RemainingMinutes returns the estimated minutes left, never negative.
func (e *Estimator) RemainingMinutes() float64 {
	return remainingMinutes(e.expected, time.Since(e.start))
}

// ExpectedMinutes returns the total estimated processing minutes.
func (e *Estimator) ExpectedMinutes() float64 {
	return e.expected.Minutes()
}

func progressFraction(expected, elapsed time.Duration) float64 {
	if expected <= 0 {
		return 0.99
	}
	f := float64(elapsed) / float64(expected)
	if f < 0 {
		return 0
	}
	if f > 0.99 {
		return 0.99
	}
	return f
}

func remainingMinutes(expected, elapsed time.Duration) float64 {
	left := expected - elapsed
	if left < 0 {
		return 0
	}
	return left.Minutes()
}
