package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"squizer-game-service/internal/domain"
	"squizer-game-service/internal/engine"
	"go.uber.org/zap"
)

// QuestionSource supplies ordered, duplicate-free questions for a session.
type QuestionSource interface {
	Draw(ctx context.Context, count int, excludeIDs []string) ([]domain.Question, error)
}

// Wallet is the money collaborator. The service calls it strictly before a
// round starts and after settlement; the engine never touches it.
type Wallet interface {
	Debit(ctx context.Context, userID string, amount float64) error
	Credit(ctx context.Context, userID string, amount float64) error
}

// HistoryStore remembers which questions a user has already seen so solo
// draws do not repeat them until the bank is exhausted.
type HistoryStore interface {
	Seen(ctx context.Context, userID string) ([]string, error)
	MarkSeen(ctx context.Context, userID string, questionIDs []string) error
	Reset(ctx context.Context, userID string) error
}

// BattleRepository abstracts how battle sessions are stored (in-memory,
// Redis-backed liveness, etc).
type BattleRepository interface {
	Get(battleID string) (*BattleSession, bool)
	Put(battleID string, b *BattleSession)
	Delete(battleID string)
}

// GameService hosts game sessions: it moves money and questions around the
// engine and owns the wall clock that drives engine ticks.
type GameService struct {
	source  QuestionSource
	wallet  Wallet
	history HistoryStore
	battles BattleRepository

	tickInterval time.Duration
	rnd          *rand.Rand
	rndMu        sync.Mutex
	logger       *zap.Logger

	mu   sync.RWMutex
	solo map[string]*SoloSession
}

// Option configures a GameService.
type Option func(*GameService)

// WithTickInterval overrides the 1-second tick driver. Zero disables the
// background ticker entirely; the caller then drives Tick itself (tests do
// this for determinism).
func WithTickInterval(d time.Duration) Option {
	return func(s *GameService) { s.tickInterval = d }
}

// WithRand injects the shuffle source for deterministic draws.
func WithRand(rnd *rand.Rand) Option {
	return func(s *GameService) { s.rnd = rnd }
}

// WithLogger wires the host logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *GameService) { s.logger = logger }
}

func NewGameService(source QuestionSource, wallet Wallet, history HistoryStore, battles BattleRepository, opts ...Option) *GameService {
	s := &GameService{
		source:       source,
		wallet:       wallet,
		history:      history,
		battles:      battles,
		tickInterval: time.Second,
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:       zap.NewNop(),
		solo:         make(map[string]*SoloSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSolo debits the stake and opens a solo round for userID. One active
// solo session per user.
func (s *GameService) StartSolo(ctx context.Context, userID string, cfg domain.SessionConfig) (*SoloSession, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Reserve the user's slot before any money moves: a nil entry marks a
	// start in flight, so a concurrent start cannot debit a second stake.
	s.mu.Lock()
	if existing, ok := s.solo[userID]; ok {
		if existing == nil || !existing.Settled() {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: user %s already in a round", domain.ErrInvalidState, userID)
		}
	}
	s.solo[userID] = nil
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		delete(s.solo, userID)
		s.mu.Unlock()
	}

	questions, err := s.drawForUser(ctx, userID, cfg.TotalQuestions)
	if err != nil {
		release()
		return nil, err
	}

	if err := s.wallet.Debit(ctx, userID, cfg.Stake); err != nil {
		release()
		return nil, err
	}

	round, err := engine.NewRound(cfg, questions)
	if err != nil {
		// Stake back: the round never started.
		_ = s.wallet.Credit(ctx, userID, cfg.Stake)
		release()
		return nil, err
	}

	session := &SoloSession{
		userID:    userID,
		cfg:       cfg,
		round:     round,
		questions: questions,
		wallet:    s.wallet,
		history:   s.history,
		stop:      make(chan struct{}),
	}

	s.mu.Lock()
	s.solo[userID] = session
	s.mu.Unlock()

	if s.tickInterval > 0 {
		go session.runTicker(s.tickInterval)
	}
	return session, nil
}

// Solo returns userID's current solo session. A settled session stays
// readable here until the next round replaces it, so result lookups are
// idempotent.
func (s *GameService) Solo(userID string) (*SoloSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.solo[userID]
	if !ok || session == nil {
		return nil, false
	}
	return session, true
}

// JoinBattle registers userID in a battle, debiting the stake. The first
// joiner fixes the configuration and player count; the battle starts
// automatically once full.
func (s *GameService) JoinBattle(ctx context.Context, battleID, userID, displayName string, cfg domain.SessionConfig, maxPlayers int) (*BattleSession, error) {
	if maxPlayers < domain.MinBattlePlayers || maxPlayers > domain.MaxBattlePlayers {
		return nil, fmt.Errorf("%w: players must be between %d and %d",
			domain.ErrInvalidConfig, domain.MinBattlePlayers, domain.MaxBattlePlayers)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	battle, ok := s.battles.Get(battleID)
	if !ok {
		battle = newBattleSession(battleID, cfg, maxPlayers, s.wallet, s.drawShared, s.logger, s.tickInterval, func() {
			s.battles.Delete(battleID)
		})
		s.battles.Put(battleID, battle)
	}

	if err := battle.join(ctx, userID, displayName); err != nil {
		return nil, err
	}
	return battle, nil
}

// Battle returns a stored battle session.
func (s *GameService) Battle(battleID string) (*BattleSession, bool) {
	return s.battles.Get(battleID)
}

// drawForUser draws count questions excluding the user's seen history, with
// shuffled options. The seen set resets once the bank cannot cover the
// request; the same policy applies to every mode.
func (s *GameService) drawForUser(ctx context.Context, userID string, count int) ([]domain.Question, error) {
	seen, err := s.history.Seen(ctx, userID)
	if err != nil {
		return nil, err
	}
	questions, err := s.source.Draw(ctx, count, seen)
	if err == nil {
		return s.shuffle(questions), nil
	}
	if len(seen) == 0 {
		return nil, err
	}
	// Bank exhausted against this user's history: reset and redraw.
	if resetErr := s.history.Reset(ctx, userID); resetErr != nil {
		return nil, resetErr
	}
	questions, err = s.source.Draw(ctx, count, nil)
	if err != nil {
		return nil, err
	}
	return s.shuffle(questions), nil
}

// drawShared draws one question sequence for every participant of a battle.
// Exclusions keep sudden-death pools from repeating what the battle already
// asked.
func (s *GameService) drawShared(ctx context.Context, count int, excludeIDs []string) ([]domain.Question, error) {
	questions, err := s.source.Draw(ctx, count, excludeIDs)
	if err != nil {
		return nil, err
	}
	return s.shuffle(questions), nil
}

func (s *GameService) shuffle(questions []domain.Question) []domain.Question {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return engine.ShuffleAll(questions, s.rnd)
}
