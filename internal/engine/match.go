package engine

import (
	"fmt"
	"sort"

	"squizer-game-service/internal/domain"
)

// progress tracks one participant's position in the shared question list.
type progress struct {
	index     int
	attempts  int
	score     int
	timer     Countdown
	done      bool
	forfeited bool
}

// Match runs an adversarial round: a fixed participant set answering the
// same ordered questions at their own pace. Local submissions and remote
// participant events are applied in arrival order through the caller's
// serialized event path; that order decides ties at the score level.
type Match struct {
	cfg          domain.SessionConfig
	questions    []domain.Question
	participants []domain.Participant
	progress     map[string]*progress
	phase        domain.Phase

	winnerID string
	tiedIDs  []string
}

// NewMatch validates the configuration and fixes the participant set.
func NewMatch(cfg domain.SessionConfig, questions []domain.Question, participants []domain.Participant) (*Match, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(questions) < cfg.TotalQuestions {
		return nil, fmt.Errorf("%w: have %d, need %d",
			domain.ErrInsufficientQuestions, len(questions), cfg.TotalQuestions)
	}
	if len(participants) < 2 {
		return nil, fmt.Errorf("%w: match needs at least 2 participants", domain.ErrInvalidConfig)
	}

	m := &Match{
		cfg:          cfg,
		questions:    questions[:cfg.TotalQuestions],
		participants: participants,
		progress:     make(map[string]*progress, len(participants)),
		phase:        domain.PhaseActive,
	}
	for _, p := range participants {
		if _, dup := m.progress[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate participant %s", domain.ErrInvalidConfig, p.ID)
		}
		m.progress[p.ID] = &progress{timer: NewCountdown(cfg.QuestionSeconds)}
	}
	return m, nil
}

// SubmitAnswer resolves one attempt by participantID at their current
// question.
func (m *Match) SubmitAnswer(participantID string, option int) (AnswerOutcome, error) {
	if m.phase != domain.PhaseActive {
		return AnswerOutcome{}, fmt.Errorf("%w: phase %s", domain.ErrInvalidState, m.phase)
	}
	p, ok := m.progress[participantID]
	if !ok {
		return AnswerOutcome{}, domain.ErrParticipantNotFound
	}
	if p.done {
		return AnswerOutcome{}, fmt.Errorf("%w: participant finished", domain.ErrInvalidState)
	}
	question := m.questions[p.index]
	if option < 0 || option >= len(question.Options) {
		return AnswerOutcome{}, fmt.Errorf("%w: %d", domain.ErrInvalidOption, option)
	}

	if option == question.Correct {
		p.score++
		m.advance(p)
		return AnswerOutcome{Correct: true, Advanced: true, Score: p.score, Phase: m.phase}, nil
	}

	p.attempts++
	if p.attempts < m.cfg.MaxAttempts {
		if m.cfg.ResetTimerOnRetry {
			p.timer.Reset()
		}
		return AnswerOutcome{Score: p.score, Phase: m.phase}, nil
	}

	m.creditOpponents(participantID)
	m.advance(p)
	return AnswerOutcome{Missed: true, Advanced: true, Score: p.score, Phase: m.phase}, nil
}

// ApplyParticipantAnswer records a resolved answer for a remote participant
// whose option choice was validated elsewhere (real-time channel or test
// harness). The engine never generates opponent behavior itself.
func (m *Match) ApplyParticipantAnswer(participantID string, correct bool) error {
	if m.phase != domain.PhaseActive {
		return fmt.Errorf("%w: phase %s", domain.ErrInvalidState, m.phase)
	}
	p, ok := m.progress[participantID]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	if p.done {
		return fmt.Errorf("%w: participant finished", domain.ErrInvalidState)
	}
	if correct {
		p.score++
	} else if m.cfg.AwardOpponentOnMiss {
		m.creditOpponents(participantID)
	}
	m.advance(p)
	return nil
}

// HandleTimeout forfeits participantID's current question.
func (m *Match) HandleTimeout(participantID string) error {
	if m.phase != domain.PhaseActive {
		return nil
	}
	p, ok := m.progress[participantID]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	if p.done {
		return nil
	}
	m.creditOpponents(participantID)
	m.advance(p)
	return nil
}

// Tick consumes one second of every unfinished participant's question
// countdown, timing out those that reach zero.
func (m *Match) Tick() {
	if m.phase != domain.PhaseActive {
		return
	}
	for _, participant := range m.participants {
		p := m.progress[participant.ID]
		if p.done {
			continue
		}
		if p.timer.Tick() {
			_ = m.HandleTimeout(participant.ID)
		}
	}
}

// Forfeit drops participantID from contention: they lose their stake and
// cannot win regardless of accumulated score. Idempotent. If only one
// contender remains the match completes as a walkover.
func (m *Match) Forfeit(participantID string) error {
	if m.phase != domain.PhaseActive {
		return nil
	}
	p, ok := m.progress[participantID]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	if p.forfeited {
		return nil
	}
	p.forfeited = true
	p.done = true
	m.checkCompletion()
	return nil
}

// creditOpponents awards every other participant a point when the rule is
// enabled for this mode.
func (m *Match) creditOpponents(participantID string) {
	if !m.cfg.AwardOpponentOnMiss {
		return
	}
	for id, p := range m.progress {
		if id != participantID {
			p.score++
		}
	}
}

func (m *Match) advance(p *progress) {
	p.attempts = 0
	p.index++
	if p.index >= m.cfg.TotalQuestions {
		p.index = m.cfg.TotalQuestions - 1
		p.done = true
		m.checkCompletion()
		return
	}
	p.timer.Reset()
}

func (m *Match) checkCompletion() {
	contenders, unfinished := 0, 0
	for _, p := range m.progress {
		if p.forfeited {
			continue
		}
		contenders++
		if !p.done {
			unfinished++
		}
	}

	// Walkover: everyone else forfeited, the survivor wins immediately.
	if contenders == 1 {
		m.phase = domain.PhaseCompleted
		for _, participant := range m.participants {
			if !m.progress[participant.ID].forfeited {
				m.winnerID = participant.ID
				return
			}
		}
	}
	if unfinished > 0 {
		return
	}
	m.phase = domain.PhaseCompleted

	top := -1
	for _, p := range m.progress {
		if !p.forfeited && p.score > top {
			top = p.score
		}
	}
	var leaders []string
	for _, participant := range m.participants {
		p := m.progress[participant.ID]
		if !p.forfeited && p.score == top {
			leaders = append(leaders, participant.ID)
		}
	}
	if len(leaders) == 1 {
		m.winnerID = leaders[0]
		return
	}
	m.tiedIDs = leaders
}

// Phase returns the match lifecycle state.
func (m *Match) Phase() domain.Phase { return m.phase }

// Winner returns the outright winner once the match has completed untied.
func (m *Match) Winner() (string, bool) {
	return m.winnerID, m.winnerID != ""
}

// TiedParticipants returns the IDs sharing the top score when the match
// completed in a tie, in join order.
func (m *Match) TiedParticipants() []string {
	out := make([]string, len(m.tiedIDs))
	copy(out, m.tiedIDs)
	return out
}

// Score returns participantID's current score.
func (m *Match) Score(participantID string) (int, error) {
	p, ok := m.progress[participantID]
	if !ok {
		return 0, domain.ErrParticipantNotFound
	}
	return p.score, nil
}

// CurrentQuestion returns the question participantID is facing.
func (m *Match) CurrentQuestion(participantID string) (domain.Question, int, error) {
	p, ok := m.progress[participantID]
	if !ok {
		return domain.Question{}, 0, domain.ErrParticipantNotFound
	}
	return m.questions[p.index], p.index, nil
}

// Scoreboard returns current standings ordered by score, ties broken by
// display name for a stable view.
func (m *Match) Scoreboard() []domain.ScoreboardEntry {
	entries := make([]domain.ScoreboardEntry, 0, len(m.participants))
	for _, participant := range m.participants {
		entries = append(entries, domain.ScoreboardEntry{
			ID:          participant.ID,
			DisplayName: participant.DisplayName,
			Score:       m.progress[participant.ID].score,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})
	return entries
}
