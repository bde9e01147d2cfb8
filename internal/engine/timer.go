// Package engine holds the consolidated quiz round logic: question
// sequencing, attempt-limited answer validation, countdown timing, payout
// arithmetic, and sudden-death tie breaking. It performs no I/O; the app
// layer drives wall-clock ticks and wallet calls around it.
package engine

// Countdown is a 1-second-resolution logical timer. The owner decrements it
// through Tick on its serialized event path, so a tick can never race an
// answer submission.
type Countdown struct {
	initial   int
	remaining int
}

// NewCountdown starts a countdown at seconds.
func NewCountdown(seconds int) Countdown {
	return Countdown{initial: seconds, remaining: seconds}
}

// Tick consumes one second and reports whether the countdown just expired.
// Ticking an expired countdown stays at zero.
func (c *Countdown) Tick() bool {
	if c.remaining <= 0 {
		return false
	}
	c.remaining--
	return c.remaining == 0
}

// Reset restores the countdown to its initial duration.
func (c *Countdown) Reset() {
	c.remaining = c.initial
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	return c.remaining
}

// Expired reports whether the countdown has reached zero.
func (c *Countdown) Expired() bool {
	return c.remaining <= 0
}
