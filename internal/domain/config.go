package domain

import "fmt"

// PlatformFeeRate is the fraction withheld from gross winnings. It is the
// same for every mode.
const PlatformFeeRate = 0.10

// Stake limits shared by all modes.
const (
	MinStake = 10
	MaxStake = 100000
)

// TimerDiscipline selects how the round countdown behaves.
type TimerDiscipline int

const (
	// TimerPerQuestion resets the countdown at the start of each question;
	// expiry times out that question only.
	TimerPerQuestion TimerDiscipline = iota
	// TimerWholeSession starts one countdown at round start; expiry ends
	// the entire round at the current score.
	TimerWholeSession
)

// SessionConfig is created at game start from mode constants plus the
// user-chosen stake and stays immutable for the session's lifetime.
type SessionConfig struct {
	Mode            string
	TotalQuestions  int
	QuestionSeconds int // per-question allowance
	SessionSeconds  int // whole-session budget; used when Discipline is TimerWholeSession
	Discipline      TimerDiscipline
	MaxAttempts     int
	RequiredCorrect int
	Stake           float64
	Odds            float64 // zero for pool-form modes
	FeeRate         float64
	// ResetTimerOnRetry restarts the per-question countdown on a wrong
	// attempt that still leaves attempts remaining.
	ResetTimerOnRetry bool
	// AwardOpponentOnMiss credits the other side a point when a player
	// exhausts attempts on a question. Only set for head-to-head play.
	AwardOpponentOnMiss bool
}

// Validate rejects configurations that must not start a session.
func (c SessionConfig) Validate() error {
	if c.TotalQuestions <= 0 {
		return fmt.Errorf("%w: total questions must be positive", ErrInvalidConfig)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max attempts must be positive", ErrInvalidConfig)
	}
	if c.RequiredCorrect < 0 || c.RequiredCorrect > c.TotalQuestions {
		return fmt.Errorf("%w: required correct %d out of range", ErrInvalidConfig, c.RequiredCorrect)
	}
	switch c.Discipline {
	case TimerPerQuestion:
		if c.QuestionSeconds <= 0 {
			return fmt.Errorf("%w: question seconds must be positive", ErrInvalidConfig)
		}
	case TimerWholeSession:
		if c.SessionSeconds <= 0 {
			return fmt.Errorf("%w: session seconds must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown timer discipline", ErrInvalidConfig)
	}
	if c.FeeRate < 0 || c.FeeRate >= 1 {
		return fmt.Errorf("%w: fee rate %v out of range", ErrInvalidConfig, c.FeeRate)
	}
	if c.Stake <= 0 {
		return fmt.Errorf("%w: stake must be positive", ErrInvalidStake)
	}
	if c.Stake < MinStake {
		return fmt.Errorf("%w: minimum stake is %d", ErrInvalidStake, MinStake)
	}
	if c.Stake > MaxStake {
		return fmt.Errorf("%w: maximum stake is %d", ErrInvalidStake, MaxStake)
	}
	return nil
}
