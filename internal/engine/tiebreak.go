package engine

import (
	"fmt"

	"squizer-game-service/internal/domain"
)

// Sudden-death constants: pool size drawn per activation and the tie score
// that ends it.
const (
	TiePoolSize = 10
	TieWinScore = 4
)

// TieBreakPhase is the sudden-death lifecycle.
type TieBreakPhase int

const (
	TieIdle TieBreakPhase = iota
	TieActive
	TieResolved
)

func (p TieBreakPhase) String() string {
	switch p {
	case TieIdle:
		return "idle"
	case TieActive:
		return "active"
	case TieResolved:
		return "resolved"
	}
	return "unknown"
}

// TieOutcome describes the effect of one sudden-death submission.
type TieOutcome struct {
	Correct  bool
	Score    int
	Resolved bool
	WinnerID string
	// NeedsQuestions is set when the pool ran out with the tie unbroken;
	// the caller must extend the pool before play can continue.
	NeedsQuestions bool
}

// tieProgress tracks one tied participant's walk through the shared pool.
type tieProgress struct {
	index int
	score int
	timer Countdown
}

// TieBreak resolves a tied top score by sudden death: one attempt per
// question per participant, first to TieWinScore wins, decided strictly by
// arrival order of submissions. The engine never draws questions itself;
// the caller supplies the pool and extends it on exhaustion, so extension
// rounds are unbounded and the tie can never deadlock.
type TieBreak struct {
	participants []string
	pool         []domain.Question
	progress     map[string]*tieProgress
	seconds      int
	phase        TieBreakPhase

	winnerID string
}

// NewTieBreak activates sudden death for the tied participant IDs over a
// fresh question pool. questionSeconds arms the per-question countdown.
func NewTieBreak(tiedIDs []string, pool []domain.Question, questionSeconds int) (*TieBreak, error) {
	if len(tiedIDs) < 2 {
		return nil, fmt.Errorf("%w: tie break needs at least 2 participants", domain.ErrInvalidConfig)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: empty tie-break pool", domain.ErrInsufficientQuestions)
	}
	if questionSeconds <= 0 {
		return nil, fmt.Errorf("%w: question seconds must be positive", domain.ErrInvalidConfig)
	}

	tb := &TieBreak{
		participants: append([]string(nil), tiedIDs...),
		pool:         append([]domain.Question(nil), pool...),
		progress:     make(map[string]*tieProgress, len(tiedIDs)),
		seconds:      questionSeconds,
		phase:        TieActive,
	}
	for _, id := range tiedIDs {
		if _, dup := tb.progress[id]; dup {
			return nil, fmt.Errorf("%w: duplicate participant %s", domain.ErrInvalidConfig, id)
		}
		tb.progress[id] = &tieProgress{timer: NewCountdown(questionSeconds)}
	}
	return tb, nil
}

// Submit resolves participantID's single attempt at their current tie
// question. The first participant whose score reaches TieWinScore wins
// immediately, even if others have not answered the current question yet.
func (t *TieBreak) Submit(participantID string, option int) (TieOutcome, error) {
	if t.phase != TieActive {
		return TieOutcome{}, fmt.Errorf("%w: tie break %s", domain.ErrInvalidState, t.phase)
	}
	p, ok := t.progress[participantID]
	if !ok {
		return TieOutcome{}, domain.ErrParticipantNotFound
	}
	if p.index >= len(t.pool) {
		return TieOutcome{NeedsQuestions: true, Score: p.score}, nil
	}
	question := t.pool[p.index]
	if option < 0 || option >= len(question.Options) {
		return TieOutcome{}, fmt.Errorf("%w: %d", domain.ErrInvalidOption, option)
	}

	correct := option == question.Correct
	if correct {
		p.score++
		if p.score >= TieWinScore {
			t.phase = TieResolved
			t.winnerID = participantID
			return TieOutcome{Correct: true, Score: p.score, Resolved: true, WinnerID: participantID}, nil
		}
	}

	t.advance(p)
	return t.afterAdvance(p, correct), nil
}

// HandleTimeout advances participantID past a timed-out question without
// penalty.
func (t *TieBreak) HandleTimeout(participantID string) (TieOutcome, error) {
	if t.phase != TieActive {
		return TieOutcome{}, nil
	}
	p, ok := t.progress[participantID]
	if !ok {
		return TieOutcome{}, domain.ErrParticipantNotFound
	}
	if p.index >= len(t.pool) {
		return TieOutcome{NeedsQuestions: true, Score: p.score}, nil
	}
	t.advance(p)
	return t.afterAdvance(p, false), nil
}

// Tick consumes one second per participant countdown, timing out expiries.
func (t *TieBreak) Tick() {
	if t.phase != TieActive {
		return
	}
	for _, id := range t.participants {
		p := t.progress[id]
		if p.index >= len(t.pool) {
			continue
		}
		if p.timer.Tick() {
			_, _ = t.HandleTimeout(id)
		}
	}
}

func (t *TieBreak) advance(p *tieProgress) {
	p.index++
	p.timer.Reset()
}

// afterAdvance checks the exhaustion policy once a participant has moved:
// when every participant has walked the whole pool with nobody at the
// threshold, a strictly-highest scorer wins; a residual tie asks the caller
// for a fresh pool.
func (t *TieBreak) afterAdvance(p *tieProgress, correct bool) TieOutcome {
	out := TieOutcome{Correct: correct, Score: p.score}
	if !t.poolExhausted() {
		return out
	}

	top, runnersUp := -1, -1
	topID := ""
	for _, id := range t.participants {
		score := t.progress[id].score
		if score > top {
			runnersUp = top
			top = score
			topID = id
		} else if score > runnersUp {
			runnersUp = score
		}
	}
	if top > runnersUp {
		t.phase = TieResolved
		t.winnerID = topID
		out.Resolved = true
		out.WinnerID = topID
		return out
	}
	out.NeedsQuestions = true
	return out
}

func (t *TieBreak) poolExhausted() bool {
	for _, p := range t.progress {
		if p.index < len(t.pool) {
			return false
		}
	}
	return true
}

// NeedsExtension reports whether the pool ran out with the tie unbroken.
func (t *TieBreak) NeedsExtension() bool {
	return t.phase == TieActive && t.poolExhausted()
}

// ExtendPool appends a fresh batch of questions after exhaustion left the
// tie unbroken.
func (t *TieBreak) ExtendPool(questions []domain.Question) error {
	if t.phase != TieActive {
		return fmt.Errorf("%w: tie break %s", domain.ErrInvalidState, t.phase)
	}
	if len(questions) == 0 {
		return fmt.Errorf("%w: empty extension", domain.ErrInsufficientQuestions)
	}
	t.pool = append(t.pool, questions...)
	for _, p := range t.progress {
		p.timer.Reset()
	}
	return nil
}

// Phase returns the sudden-death lifecycle state.
func (t *TieBreak) Phase() TieBreakPhase { return t.phase }

// Winner returns the resolved winner.
func (t *TieBreak) Winner() (string, bool) {
	return t.winnerID, t.phase == TieResolved && t.winnerID != ""
}

// Score returns participantID's tie score.
func (t *TieBreak) Score(participantID string) (int, error) {
	p, ok := t.progress[participantID]
	if !ok {
		return 0, domain.ErrParticipantNotFound
	}
	return p.score, nil
}

// CurrentQuestion returns the pool question participantID faces, or false
// when their pool is exhausted.
func (t *TieBreak) CurrentQuestion(participantID string) (domain.Question, bool, error) {
	p, ok := t.progress[participantID]
	if !ok {
		return domain.Question{}, false, domain.ErrParticipantNotFound
	}
	if p.index >= len(t.pool) {
		return domain.Question{}, false, nil
	}
	return t.pool[p.index], true, nil
}
