package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"squizer-game-service/internal/domain"
	"squizer-game-service/internal/engine"
	"go.uber.org/zap"
)

// Battle lifecycle states.
const (
	BattleStatusWaiting  = "waiting"
	BattleStatusActive   = "active"
	BattleStatusTieBreak = "tie_break"
	BattleStatusSettled  = "settled"
)

// Battle event types pushed to subscribers.
const (
	EventJoined     = "joined"
	EventStarted    = "started"
	EventScoreboard = "scoreboard"
	EventTieBreak   = "tieBreak"
	EventSettled    = "settled"
)

// BattleEvent is a broadcast update for battle subscribers.
type BattleEvent struct {
	Type       string                   `json:"type"`
	BattleID   string                   `json:"battleId"`
	Status     string                   `json:"status"`
	Scoreboard []domain.ScoreboardEntry `json:"scoreboard,omitempty"`
	TiedIDs    []string                 `json:"tiedIds,omitempty"`
	WinnerID   string                   `json:"winnerId,omitempty"`
	Prize      float64                  `json:"prize,omitempty"`
}

// BattleSession hosts a multi-player pot battle from lobby to settlement.
// Everything mutating the match or tie break goes through one mutex: local
// submissions, remote participant events, and timer ticks arrive on a
// single logical timeline, and their arrival order decides ties.
type BattleSession struct {
	id           string
	cfg          domain.SessionConfig
	maxPlayers   int
	wallet       Wallet
	draw         func(ctx context.Context, count int, excludeIDs []string) ([]domain.Question, error)
	logger       *zap.Logger
	tickInterval time.Duration
	onDone       func()

	mu           sync.Mutex
	status       string
	participants []domain.Participant
	match        *engine.Match
	tie          *engine.TieBreak
	askedIDs     []string
	subscribers  map[chan BattleEvent]struct{}
	stop         chan struct{}
	stopOnce     sync.Once
	settled      bool
	winnerID     string
	prize        float64
}

func newBattleSession(id string, cfg domain.SessionConfig, maxPlayers int, wallet Wallet,
	draw func(ctx context.Context, count int, excludeIDs []string) ([]domain.Question, error),
	logger *zap.Logger, tickInterval time.Duration, onDone func()) *BattleSession {
	return &BattleSession{
		id:           id,
		cfg:          cfg,
		maxPlayers:   maxPlayers,
		wallet:       wallet,
		draw:         draw,
		logger:       logger,
		tickInterval: tickInterval,
		onDone:       onDone,
		status:       BattleStatusWaiting,
		subscribers:  make(map[chan BattleEvent]struct{}),
		stop:         make(chan struct{}),
	}
}

// join debits the stake and adds the player; the battle starts once full.
func (b *BattleSession) join(ctx context.Context, userID, displayName string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.status != BattleStatusWaiting {
		return fmt.Errorf("%w: battle already started", domain.ErrInvalidState)
	}
	for _, p := range b.participants {
		if p.ID == userID {
			return fmt.Errorf("%w: %s already joined", domain.ErrInvalidState, userID)
		}
	}
	if len(b.participants) >= b.maxPlayers {
		return domain.ErrBattleFull
	}

	if err := b.wallet.Debit(ctx, userID, b.cfg.Stake); err != nil {
		return err
	}
	b.participants = append(b.participants, domain.Participant{ID: userID, DisplayName: displayName})
	b.broadcastLocked(BattleEvent{Type: EventJoined, BattleID: b.id, Status: b.status, Scoreboard: b.scoreboardLocked()})

	if len(b.participants) == b.maxPlayers {
		return b.startLocked(ctx)
	}
	return nil
}

func (b *BattleSession) startLocked(ctx context.Context) error {
	questions, err := b.draw(ctx, b.cfg.TotalQuestions, nil)
	if err != nil {
		return err
	}
	match, err := engine.NewMatch(b.cfg, questions, b.participants)
	if err != nil {
		return err
	}
	b.match = match
	b.recordAskedLocked(questions)
	b.status = BattleStatusActive
	b.broadcastLocked(BattleEvent{Type: EventStarted, BattleID: b.id, Status: b.status, Scoreboard: b.scoreboardLocked()})

	if b.tickInterval > 0 {
		go b.runTicker()
	}
	return nil
}

// SubmitAnswer resolves one attempt by userID, routed to the match or the
// sudden-death round depending on where the battle stands.
func (b *BattleSession) SubmitAnswer(ctx context.Context, userID string, option int) (engine.AnswerOutcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.status {
	case BattleStatusActive:
		out, err := b.match.SubmitAnswer(userID, option)
		if err != nil {
			return engine.AnswerOutcome{}, err
		}
		b.afterChangeLocked(ctx)
		return out, nil
	case BattleStatusTieBreak:
		tieOut, err := b.tie.Submit(userID, option)
		if err != nil {
			return engine.AnswerOutcome{}, err
		}
		b.afterTieLocked(ctx, tieOut)
		return engine.AnswerOutcome{Correct: tieOut.Correct, Advanced: true, Score: tieOut.Score}, nil
	default:
		return engine.AnswerOutcome{}, fmt.Errorf("%w: battle %s", domain.ErrInvalidState, b.status)
	}
}

// ApplyRemoteAnswer records a resolved answer for a participant playing
// through another channel (real-time feed or simulation harness).
func (b *BattleSession) ApplyRemoteAnswer(ctx context.Context, userID string, correct bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status != BattleStatusActive {
		return fmt.Errorf("%w: battle %s", domain.ErrInvalidState, b.status)
	}
	if err := b.match.ApplyParticipantAnswer(userID, correct); err != nil {
		return err
	}
	b.afterChangeLocked(ctx)
	return nil
}

// Quit forfeits userID's stake and drops them from contention.
func (b *BattleSession) Quit(ctx context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status != BattleStatusActive {
		return nil
	}
	if err := b.match.Forfeit(userID); err != nil {
		return err
	}
	b.afterChangeLocked(ctx)
	return nil
}

// Tick drives one second of battle time through the serialized path.
func (b *BattleSession) Tick() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.status {
	case BattleStatusActive:
		b.match.Tick()
		b.afterChangeLocked(context.Background())
	case BattleStatusTieBreak:
		b.tie.Tick()
		if winner, ok := b.tie.Winner(); ok {
			b.settleLocked(context.Background(), winner)
			return
		}
		if b.tie.NeedsExtension() {
			b.afterTieLocked(context.Background(), engine.TieOutcome{NeedsQuestions: true})
		}
	}
}

// afterChangeLocked handles match completion: an outright winner settles,
// a tie activates sudden death over a fresh pool.
func (b *BattleSession) afterChangeLocked(ctx context.Context) {
	b.broadcastLocked(BattleEvent{Type: EventScoreboard, BattleID: b.id, Status: b.status, Scoreboard: b.scoreboardLocked()})
	if b.match.Phase() != domain.PhaseCompleted {
		return
	}
	if winner, ok := b.match.Winner(); ok {
		b.settleLocked(ctx, winner)
		return
	}

	tied := b.match.TiedParticipants()
	if len(tied) < 2 {
		// Everyone forfeited; the pot is not paid out.
		b.settleLocked(ctx, "")
		return
	}
	pool, err := b.draw(ctx, engine.TiePoolSize, b.askedIDs)
	if err != nil {
		return
	}
	tie, err := engine.NewTieBreak(tied, pool, b.cfg.QuestionSeconds)
	if err != nil {
		return
	}
	b.tie = tie
	b.recordAskedLocked(pool)
	b.status = BattleStatusTieBreak
	b.broadcastLocked(BattleEvent{Type: EventTieBreak, BattleID: b.id, Status: b.status, TiedIDs: tied})
}

// afterTieLocked handles sudden-death outcomes: resolution settles, pool
// exhaustion draws a fresh extension.
func (b *BattleSession) afterTieLocked(ctx context.Context, out engine.TieOutcome) {
	if out.Resolved {
		b.settleLocked(ctx, out.WinnerID)
		return
	}
	if out.NeedsQuestions {
		pool, err := b.draw(ctx, engine.TiePoolSize, b.askedIDs)
		if err != nil {
			return
		}
		if b.tie.ExtendPool(pool) == nil {
			b.recordAskedLocked(pool)
		}
	}
}

// recordAskedLocked remembers which questions this battle has used so later
// sudden-death draws exclude them.
func (b *BattleSession) recordAskedLocked(questions []domain.Question) {
	for _, q := range questions {
		b.askedIDs = append(b.askedIDs, q.ID)
	}
}

// settleLocked produces the single terminal settlement: the winner is
// credited the pot net of the platform fee, exactly once.
func (b *BattleSession) settleLocked(ctx context.Context, winnerID string) {
	if b.settled {
		return
	}
	b.settled = true
	b.status = BattleStatusSettled
	b.stopOnce.Do(func() { close(b.stop) })

	// The winner is recorded unconditionally; a failed credit leaves the
	// prize owed, never the outcome rewritten.
	if winnerID != "" {
		b.winnerID = winnerID
		payout, err := engine.PoolPayout(b.cfg.Stake, len(b.participants), b.cfg.FeeRate)
		if err != nil {
			b.logger.Error("battle payout failed",
				zap.String("battleId", b.id),
				zap.String("winnerId", winnerID),
				zap.Error(err))
		} else {
			b.prize = payout.Net
			if err := b.wallet.Credit(ctx, winnerID, payout.Net); err != nil {
				b.logger.Error("winner credit failed",
					zap.String("battleId", b.id),
					zap.String("winnerId", winnerID),
					zap.Float64("prize", payout.Net),
					zap.Error(err))
			}
		}
	}

	b.broadcastLocked(BattleEvent{
		Type:       EventSettled,
		BattleID:   b.id,
		Status:     b.status,
		Scoreboard: b.scoreboardLocked(),
		WinnerID:   b.winnerID,
		Prize:      b.prize,
	})
	if b.onDone != nil {
		b.onDone()
	}
}

// Result reports the terminal outcome for one participant.
func (b *BattleSession) Result(userID string) (domain.SessionResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status != BattleStatusSettled {
		return domain.SessionResult{}, fmt.Errorf("%w: battle %s", domain.ErrInvalidState, b.status)
	}
	found := false
	for _, p := range b.participants {
		if p.ID == userID {
			found = true
			break
		}
	}
	if !found {
		return domain.SessionResult{}, domain.ErrParticipantNotFound
	}

	score := 0
	if b.match != nil {
		score, _ = b.match.Score(userID)
	}
	if userID == b.winnerID {
		return domain.SessionResult{Outcome: domain.OutcomeWin, Score: score, Prize: b.prize}, nil
	}
	return domain.SessionResult{Outcome: domain.OutcomeLoss, Score: score}, nil
}

// ID returns the battle identifier.
func (b *BattleSession) ID() string {
	return b.id
}

// Status returns the battle lifecycle state.
func (b *BattleSession) Status() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// CurrentQuestion returns the question userID faces, with the correct index
// blanked.
func (b *BattleSession) CurrentQuestion(userID string) (domain.Question, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var question domain.Question
	var index int
	switch b.status {
	case BattleStatusActive:
		q, idx, err := b.match.CurrentQuestion(userID)
		if err != nil {
			return domain.Question{}, 0, err
		}
		question, index = q, idx
	case BattleStatusTieBreak:
		q, ok, err := b.tie.CurrentQuestion(userID)
		if err != nil {
			return domain.Question{}, 0, err
		}
		if !ok {
			return domain.Question{}, 0, fmt.Errorf("%w: tie pool exhausted", domain.ErrInvalidState)
		}
		question = q
	default:
		return domain.Question{}, 0, fmt.Errorf("%w: battle %s", domain.ErrInvalidState, b.status)
	}
	question.Correct = -1
	return question, index, nil
}

// Subscribe returns a channel receiving battle events. The caller must
// invoke the cancel function to avoid leaks. Slow subscribers have stale
// events dropped rather than blocking the broadcast.
func (b *BattleSession) Subscribe() (<-chan BattleEvent, func()) {
	ch := make(chan BattleEvent, 8)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	initial := BattleEvent{Type: EventScoreboard, BattleID: b.id, Status: b.status, Scoreboard: b.scoreboardLocked()}
	b.mu.Unlock()

	ch <- initial

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *BattleSession) broadcastLocked(event BattleEvent) {
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

func (b *BattleSession) scoreboardLocked() []domain.ScoreboardEntry {
	if b.match != nil {
		return b.match.Scoreboard()
	}
	entries := make([]domain.ScoreboardEntry, 0, len(b.participants))
	for _, p := range b.participants {
		entries = append(entries, domain.ScoreboardEntry{ID: p.ID, DisplayName: p.DisplayName})
	}
	return entries
}

func (b *BattleSession) runTicker() {
	ticker := time.NewTicker(b.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.Tick()
		case <-b.stop:
			return
		}
	}
}
