// Package poll implements the blocking wait loop shared by every
// component that waits for an external condition: check a predicate at a
// fixed interval until it holds, a deadline passes, or the caller stops
// the wait.
package poll

import "time"

// Outcome reports how a wait ended.
type Outcome int

const (
	// Ready means the predicate returned true before the deadline.
	Ready Outcome = iota
	// TimedOut means the deadline passed without the predicate holding.
	TimedOut
	// Stopped means the stop channel was closed before the predicate held.
	Stopped
)

func (o Outcome) String() string {
	switch o {
	case Ready:
		return "ready"
	case TimedOut:
		return "timed_out"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Until checks the predicate every interval until it returns true, the
// timeout elapses, or stop is closed. stop is consulted before every
// predicate check, so a stop request takes effect within one interval.
// A nil stop channel disables stopping. A non-positive timeout returns
// TimedOut without checking at all.
func Until(interval, timeout time.Duration, stop <-chan struct{}, check func() bool) Outcome {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-stop:
			return Stopped
		default:
		}

		if check() {
			return Ready
		}

		select {
		case <-stop:
			return Stopped
		case <-ticker.C:
		}
	}
	return TimedOut
}
