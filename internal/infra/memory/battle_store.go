package memory

import (
	"sync"

	"squizer-game-service/internal/app"
)

// BattleStore is an in-memory implementation of app.BattleRepository.
type BattleStore struct {
	mu      sync.RWMutex
	battles map[string]*app.BattleSession
}

func NewBattleStore() *BattleStore {
	return &BattleStore{battles: make(map[string]*app.BattleSession)}
}

func (s *BattleStore) Get(battleID string) (*app.BattleSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	battle, ok := s.battles[battleID]
	return battle, ok
}

func (s *BattleStore) Put(battleID string, b *app.BattleSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.battles[battleID] = b
}

func (s *BattleStore) Delete(battleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.battles, battleID)
}
