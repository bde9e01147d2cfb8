package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"squizer-game-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches the question bank from a backing store (Postgres in
// production, a static map in tests/demos).
type BankLoader interface {
	LoadBank(ctx context.Context) ([]domain.Question, error)
}

// QuestionSource draws random, duplicate-free questions from a TTL-cached
// bank to avoid hitting the backing store on every round.
type QuestionSource struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.Mutex
	bank      []domain.Question
	expiresAt time.Time
}

func NewQuestionSource(loader BankLoader, ttl time.Duration) *QuestionSource {
	return &QuestionSource{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Draw returns count questions in random order, never repeating an ID
// within the batch and skipping every ID in excludeIDs.
func (s *QuestionSource) Draw(ctx context.Context, count int, excludeIDs []string) ([]domain.Question, error) {
	bank, err := s.getBank(ctx)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}
	candidates := make([]domain.Question, 0, len(bank))
	for _, q := range bank {
		if _, skip := excluded[q.ID]; !skip {
			candidates = append(candidates, q)
		}
	}
	if len(candidates) < count {
		return nil, fmt.Errorf("%w: %d available, %d requested",
			domain.ErrInsufficientQuestions, len(candidates), count)
	}

	s.mu.Lock()
	s.rnd.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	s.mu.Unlock()
	return candidates[:count], nil
}

func (s *QuestionSource) getBank(ctx context.Context) ([]domain.Question, error) {
	now := s.clock()

	s.mu.Lock()
	if s.bank != nil && s.expiresAt.After(now) {
		bank := s.bank
		s.mu.Unlock()
		return bank, nil
	}
	s.mu.Unlock()

	result, err, _ := s.sf.Do("bank", func() (interface{}, error) {
		now := s.clock()
		s.mu.Lock()
		if s.bank != nil && s.expiresAt.After(now) {
			bank := s.bank
			s.mu.Unlock()
			return bank, nil
		}
		s.mu.Unlock()

		bank, err := s.loader.LoadBank(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.bank = bank
		s.expiresAt = now.Add(s.ttlWithJitter())
		s.mu.Unlock()
		return bank, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (s *QuestionSource) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread refreshes
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}

// StaticBankLoader serves a fixed bank from memory (tests and demos).
type StaticBankLoader struct {
	questions []domain.Question
}

func NewStaticBankLoader(questions []domain.Question) *StaticBankLoader {
	return &StaticBankLoader{questions: questions}
}

func (l *StaticBankLoader) LoadBank(_ context.Context) ([]domain.Question, error) {
	return l.questions, nil
}
