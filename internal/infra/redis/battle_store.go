package redis

import (
	"context"
	"sync"
	"time"

	"squizer-game-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// BattleStore is a Redis-aware implementation of BattleRepository. Live
// battle state stays in process, since the event ticker and the answer path
// run through the session's own mutex; Redis carries a TTL'd liveness key
// per battle so a lobby on another instance can tell an open battle ID from
// a dead one before routing a join there. Full cross-instance play would
// need the answer feed replicated over pub/sub on top of this.
type BattleStore struct {
	client  *redis.Client
	ttl     time.Duration
	mu      sync.RWMutex
	battles map[string]*app.BattleSession
}

func NewBattleStore(client *redis.Client, ttl time.Duration) *BattleStore {
	return &BattleStore{
		client:  client,
		ttl:     ttl,
		battles: make(map[string]*app.BattleSession),
	}
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
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(battleID), "1", s.ttl).Err()
}

func (s *BattleStore) Delete(battleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.battles, battleID)
	_ = s.client.Del(context.Background(), s.key(battleID)).Err()
}

func (s *BattleStore) key(battleID string) string {
	return "battle:session:" + battleID
}
