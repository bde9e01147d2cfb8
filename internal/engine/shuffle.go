package engine

import (
	"math/rand"

	"squizer-game-service/internal/domain"
)

// ShuffleOptions returns a copy of q with its options uniformly permuted and
// Correct pointing at the new position of the originally-correct option. The
// injected rand source keeps the permutation deterministic under test.
func ShuffleOptions(q domain.Question, rnd *rand.Rand) domain.Question {
	n := len(q.Options)
	perm := rnd.Perm(n)

	options := make([]string, n)
	correct := q.Correct
	for from, to := range perm {
		options[to] = q.Options[from]
		if from == q.Correct {
			correct = to
		}
	}

	shuffled := q
	shuffled.Options = options
	shuffled.Correct = correct
	return shuffled
}

// ShuffleAll shuffles the options of every question in qs.
func ShuffleAll(qs []domain.Question, rnd *rand.Rand) []domain.Question {
	out := make([]domain.Question, len(qs))
	for i, q := range qs {
		out[i] = ShuffleOptions(q, rnd)
	}
	return out
}
