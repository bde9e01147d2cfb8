package engine

import (
	"fmt"

	"squizer-game-service/internal/domain"
)

// NoAnswer marks a question that was never answered in the round history.
const NoAnswer = -1

// AnswerOutcome describes what a single submission did to the round.
type AnswerOutcome struct {
	Correct bool
	// Missed is set when the wrong answer exhausted the attempt budget and
	// the question was forfeited.
	Missed bool
	// Advanced is set when the round moved on to the next question (or
	// completed).
	Advanced bool
	Score    int
	Phase    domain.Phase
}

// Round drives one player through an ordered question sequence under timing
// and attempt constraints. All mutations go through its methods; the caller
// serializes timer ticks and submissions on one event path.
type Round struct {
	cfg       domain.SessionConfig
	questions []domain.Question

	index    int
	attempts int
	score    int
	answered []int
	timer    Countdown
	phase    domain.Phase

	result *domain.SessionResult
}

// NewRound validates the configuration and question pool and starts the
// round at question zero with the clock armed.
func NewRound(cfg domain.SessionConfig, questions []domain.Question) (*Round, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(questions) < cfg.TotalQuestions {
		return nil, fmt.Errorf("%w: have %d, need %d",
			domain.ErrInsufficientQuestions, len(questions), cfg.TotalQuestions)
	}

	answered := make([]int, cfg.TotalQuestions)
	for i := range answered {
		answered[i] = NoAnswer
	}

	r := &Round{
		cfg:       cfg,
		questions: questions[:cfg.TotalQuestions],
		answered:  answered,
		phase:     domain.PhaseActive,
	}
	if cfg.Discipline == domain.TimerWholeSession {
		r.timer = NewCountdown(cfg.SessionSeconds)
	} else {
		r.timer = NewCountdown(cfg.QuestionSeconds)
	}
	return r, nil
}

// SubmitAnswer resolves one attempt at the current question.
func (r *Round) SubmitAnswer(option int) (AnswerOutcome, error) {
	if r.phase != domain.PhaseActive {
		return AnswerOutcome{}, fmt.Errorf("%w: phase %s", domain.ErrInvalidState, r.phase)
	}
	question := r.questions[r.index]
	if option < 0 || option >= len(question.Options) {
		return AnswerOutcome{}, fmt.Errorf("%w: %d", domain.ErrInvalidOption, option)
	}

	if option == question.Correct {
		r.answered[r.index] = option
		r.score++
		r.advance()
		return AnswerOutcome{Correct: true, Advanced: true, Score: r.score, Phase: r.phase}, nil
	}

	r.attempts++
	if r.attempts < r.cfg.MaxAttempts {
		if r.cfg.Discipline == domain.TimerPerQuestion && r.cfg.ResetTimerOnRetry {
			r.timer.Reset()
		}
		return AnswerOutcome{Score: r.score, Phase: r.phase}, nil
	}

	// Attempts exhausted: the question is forfeited and the round moves on.
	r.answered[r.index] = option
	r.advance()
	return AnswerOutcome{Missed: true, Advanced: true, Score: r.score, Phase: r.phase}, nil
}

// HandleTimeout resolves an expired countdown. Per-question timers forfeit
// the current question only; a whole-session timer ends the round at the
// current score.
func (r *Round) HandleTimeout() {
	if r.phase != domain.PhaseActive {
		return
	}
	if r.cfg.Discipline == domain.TimerWholeSession {
		r.phase = domain.PhaseCompleted
		return
	}
	r.advance()
}

// Tick consumes one second of the active countdown, firing HandleTimeout at
// zero. Ticks after the round leaves the active phase are discarded, so a
// late timer event can never re-trigger settlement.
func (r *Round) Tick() {
	if r.phase != domain.PhaseActive {
		return
	}
	if r.timer.Tick() {
		r.HandleTimeout()
	}
}

// Quit forfeits the round. Idempotent: quitting twice, or after completion,
// has no further effect.
func (r *Round) Quit() {
	if r.phase != domain.PhaseActive {
		return
	}
	r.phase = domain.PhaseForfeit
}

func (r *Round) advance() {
	r.attempts = 0
	r.index++
	if r.index >= r.cfg.TotalQuestions {
		r.index = r.cfg.TotalQuestions - 1
		r.phase = domain.PhaseCompleted
		return
	}
	if r.cfg.Discipline == domain.TimerPerQuestion {
		r.timer.Reset()
	}
}

// Result settles the round. It is only valid once the round has completed or
// been forfeited, and always returns the same record for the same round.
func (r *Round) Result() (domain.SessionResult, error) {
	if r.phase == domain.PhaseActive {
		return domain.SessionResult{}, fmt.Errorf("%w: round still active", domain.ErrInvalidState)
	}
	if r.result != nil {
		return *r.result, nil
	}

	result := domain.SessionResult{Outcome: domain.OutcomeLoss, Score: r.score}
	switch {
	case r.phase == domain.PhaseForfeit:
		result.Outcome = domain.OutcomeForfeit
	case r.score >= r.cfg.RequiredCorrect && r.cfg.RequiredCorrect > 0:
		payout, err := MultiplierPayout(r.cfg.Stake, r.cfg.Odds, r.cfg.FeeRate)
		if err != nil {
			return domain.SessionResult{}, err
		}
		result.Outcome = domain.OutcomeWin
		result.Prize = payout.Net
	}
	r.result = &result
	return result, nil
}

// Phase returns the round lifecycle state.
func (r *Round) Phase() domain.Phase { return r.phase }

// Score returns the number of correct answers so far.
func (r *Round) Score() int { return r.score }

// CurrentIndex returns the zero-based index of the question in play.
func (r *Round) CurrentIndex() int { return r.index }

// CurrentQuestion returns the question in play.
func (r *Round) CurrentQuestion() domain.Question { return r.questions[r.index] }

// AttemptsUsed returns the wrong attempts spent on the current question.
func (r *Round) AttemptsUsed() int { return r.attempts }

// Remaining returns the seconds left on the active countdown.
func (r *Round) Remaining() int { return r.timer.Remaining() }

// History returns the chosen option per question, NoAnswer where none was
// accepted.
func (r *Round) History() []int {
	out := make([]int, len(r.answered))
	copy(out, r.answered)
	return out
}
