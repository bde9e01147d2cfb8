package app

import (
	"context"
	"sync"
	"time"

	"squizer-game-service/internal/domain"
	"squizer-game-service/internal/engine"
)

// SoloSession hosts one solo round. Timer ticks and answer submissions are
// serialized on one mutex, so the engine only ever sees one logical
// timeline of events.
type SoloSession struct {
	userID    string
	cfg       domain.SessionConfig
	round     *engine.Round
	questions []domain.Question
	wallet    Wallet
	history   HistoryStore

	mu       sync.Mutex
	stop     chan struct{}
	stopOnce sync.Once
	settled  bool
}

// SoloView is a transport-friendly snapshot of the round state.
type SoloView struct {
	Mode      string          `json:"mode"`
	Question  domain.Question `json:"question"`
	Index     int             `json:"index"`
	Total     int             `json:"total"`
	Score     int             `json:"score"`
	Attempts  int             `json:"attempts"`
	Remaining int             `json:"remaining"`
	Phase     string          `json:"phase"`
}

// View snapshots the session for a client. The correct option index is
// blanked; the server stays authoritative over scoring.
func (s *SoloSession) View() SoloView {
	s.mu.Lock()
	defer s.mu.Unlock()
	question := s.round.CurrentQuestion()
	question.Correct = -1
	return SoloView{
		Mode:      s.cfg.Mode,
		Question:  question,
		Index:     s.round.CurrentIndex(),
		Total:     s.cfg.TotalQuestions,
		Score:     s.round.Score(),
		Attempts:  s.round.AttemptsUsed(),
		Remaining: s.round.Remaining(),
		Phase:     s.round.Phase().String(),
	}
}

// SubmitAnswer forwards one attempt to the round.
func (s *SoloSession) SubmitAnswer(option int) (engine.AnswerOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := s.round.SubmitAnswer(option)
	if err != nil {
		return engine.AnswerOutcome{}, err
	}
	if out.Phase != domain.PhaseActive {
		s.stopTicker()
	}
	return out, nil
}

// Quit forfeits the round and stops the clock so a late tick cannot
// re-trigger anything. Idempotent.
func (s *SoloSession) Quit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round.Quit()
	s.stopTicker()
}

// Tick consumes one second. Exposed so hosts and tests can drive time
// through the same serialized path as submissions.
func (s *SoloSession) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round.Tick()
	if s.round.Phase() != domain.PhaseActive {
		s.stopTicker()
	}
}

// Result settles the session: on a win the prize is credited, and the drawn
// questions are recorded in the user's seen history. The round's result is
// idempotent and the wallet credit happens at most once.
func (s *SoloSession) Result(ctx context.Context) (domain.SessionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.round.Result()
	if err != nil {
		return domain.SessionResult{}, err
	}
	if s.settled {
		return result, nil
	}

	if result.Outcome == domain.OutcomeWin {
		if err := s.wallet.Credit(ctx, s.userID, result.Prize); err != nil {
			return domain.SessionResult{}, err
		}
	}
	s.settled = true
	s.stopTicker()

	ids := make([]string, len(s.questions))
	for i, q := range s.questions {
		ids[i] = q.ID
	}
	if err := s.history.MarkSeen(ctx, s.userID, ids); err != nil {
		return result, err
	}
	return result, nil
}

// Settled reports whether the session has produced its terminal settlement.
// The registry keeps settled sessions readable until the user's next round.
func (s *SoloSession) Settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled
}

func (s *SoloSession) runTicker(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Tick()
		case <-s.stop:
			return
		}
	}
}

// stopTicker is called with s.mu held.
func (s *SoloSession) stopTicker() {
	s.stopOnce.Do(func() { close(s.stop) })
}
