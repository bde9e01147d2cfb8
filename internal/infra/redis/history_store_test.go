package redis

import (
	"context"
	"sort"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestHistoryStoreMarkAndSeen(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewHistoryStore(client, time.Minute)
	ctx := context.Background()

	if err := store.MarkSeen(ctx, "u1", []string{"q1", "q2"}); err != nil {
		t.Fatalf("mark seen: %v", err)
	}
	if err := store.MarkSeen(ctx, "u1", []string{"q2", "q3"}); err != nil {
		t.Fatalf("mark seen again: %v", err)
	}

	seen, err := store.Seen(ctx, "u1")
	if err != nil {
		t.Fatalf("seen: %v", err)
	}
	sort.Strings(seen)
	want := []string{"q1", "q2", "q3"}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}

	if ttl := mr.TTL("quiz:history:u1"); ttl <= 0 {
		t.Fatalf("expected a TTL on the history key, got %v", ttl)
	}
}

func TestHistoryStoreReset(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewHistoryStore(client, time.Minute)
	ctx := context.Background()

	if err := store.MarkSeen(ctx, "u1", []string{"q1"}); err != nil {
		t.Fatalf("mark seen: %v", err)
	}
	if err := store.Reset(ctx, "u1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if mr.Exists("quiz:history:u1") {
		t.Fatalf("expected history key to be removed")
	}

	seen, err := store.Seen(ctx, "u1")
	if err != nil {
		t.Fatalf("seen after reset: %v", err)
	}
	if len(seen) != 0 {
		t.Fatalf("expected empty history, got %v", seen)
	}
}
