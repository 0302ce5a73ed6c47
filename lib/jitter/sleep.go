package jitter

import (
	"math/rand"
	"time"
)

const DefaultMaxMs = 3500

// Jitter implements capped exponential backoff with full jitter.
// sleep = random_between(0, min(cap, base * 2 ** attempt))
// https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
func Jitter(baseMs, maxMs, attempts int) time.Duration {
	if maxMs <= 0 {
		return time.Duration(0)
	}

	// Cap attempts at 30 to avoid shifting into integer overflow.
	if attemptsMaxMs := baseMs * (1 << min(attempts, 30)); attemptsMaxMs > 0 {
		maxMs = min(maxMs, attemptsMaxMs)
	}

	return time.Duration(rand.Intn(maxMs)) * time.Millisecond
}
