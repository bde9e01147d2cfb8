package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// HistoryStore keeps each user's seen-question set in Redis so it survives
// restarts and is shared across instances.
// Layout: SADD quiz:history:{userID} {questionID...} with a sliding TTL.
type HistoryStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewHistoryStore(client *redis.Client, ttl time.Duration) *HistoryStore {
	return &HistoryStore{client: client, ttl: ttl}
}

func (h *HistoryStore) Seen(ctx context.Context, userID string) ([]string, error) {
	return h.client.SMembers(ctx, h.key(userID)).Result()
}

func (h *HistoryStore) MarkSeen(ctx context.Context, userID string, questionIDs []string) error {
	if len(questionIDs) == 0 {
		return nil
	}
	key := h.key(userID)
	members := make([]interface{}, len(questionIDs))
	for i, id := range questionIDs {
		members[i] = id
	}
	pipe := h.client.Pipeline()
	pipe.SAdd(ctx, key, members...)
	if h.ttl > 0 {
		pipe.Expire(ctx, key, h.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (h *HistoryStore) Reset(ctx context.Context, userID string) error {
	return h.client.Del(ctx, h.key(userID)).Err()
}

func (h *HistoryStore) key(userID string) string {
	return "quiz:history:" + userID
}
