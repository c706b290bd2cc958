package retry

import (
	"context"
	"time"
)

// Schedule is a fixed ordered backoff sequence: the first attempt runs
// immediately, each later attempt waits the next configured delay. Used by
// the delivery engine, where the retry decision depends on response
// classification rather than on an error value.
type Schedule struct {
	delays []time.Duration
}

// NewSchedule builds a schedule from whole-second delays.
func NewSchedule(backoffSec []int) Schedule {
	delays := make([]time.Duration, 0, len(backoffSec))
	for _, s := range backoffSec {
		delays = append(delays, time.Duration(s)*time.Second)
	}
	return Schedule{delays: delays}
}

// Attempts returns the total number of attempts the schedule allows.
func (s Schedule) Attempts() int {
	return len(s.delays) + 1
}

// Wait blocks for the delay preceding the given attempt (attempt 0 returns
// immediately). Returns false when the context is cancelled first.
func (s Schedule) Wait(ctx context.Context, attempt int) bool {
	if attempt <= 0 {
		return true
	}
	if attempt > len(s.delays) {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(s.delays[attempt-1]):
		return true
	}
}
