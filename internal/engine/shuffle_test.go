package engine

import (
	"math/rand"
	"testing"

	"squizer-game-service/internal/domain"
)

func TestShuffleOptionsRecomputesCorrectIndex(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	q := domain.Question{
		ID:      "q1",
		Prompt:  "capital of Nigeria?",
		Options: []string{"Lagos", "Abuja", "Kano", "Ibadan"},
		Correct: 1,
	}
	for i := 0; i < 100; i++ {
		shuffled := ShuffleOptions(q, rnd)
		if shuffled.Options[shuffled.Correct] != "Abuja" {
			t.Fatalf("correct index %d points at %q", shuffled.Correct, shuffled.Options[shuffled.Correct])
		}
		if len(shuffled.Options) != 4 {
			t.Fatalf("expected 4 options, got %d", len(shuffled.Options))
		}
	}
	// Original must be untouched.
	if q.Correct != 1 || q.Options[1] != "Abuja" {
		t.Fatalf("source question mutated: %+v", q)
	}
}

// Over many shuffles the correct answer must land in each slot with equal
// probability; a permutation that favors leaving it in place would leak the
// answer position.
func TestShuffleFairness(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	q := domain.Question{
		ID:      "q1",
		Options: []string{"a", "b", "c", "d"},
		Correct: 2,
	}

	const runs = 10000
	var counts [4]int
	for i := 0; i < runs; i++ {
		counts[ShuffleOptions(q, rnd).Correct]++
	}

	// Expected 2500 per slot; allow 3x the binomial standard deviation
	// (~37.5), which a uniform permutation stays inside with margin.
	const expected, tolerance = runs / 4, 150
	for slot, n := range counts {
		if n < expected-tolerance || n > expected+tolerance {
			t.Fatalf("slot %d got %d shuffles, outside %d±%d", slot, n, expected, tolerance)
		}
	}
}
