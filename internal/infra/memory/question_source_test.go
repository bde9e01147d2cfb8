package memory

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"squizer-game-service/internal/domain"
)

func sampleBank(n int) []domain.Question {
	qs := make([]domain.Question, n)
	for i := range qs {
		qs[i] = domain.Question{
			ID:      "q" + strconv.Itoa(i),
			Prompt:  "question " + strconv.Itoa(i),
			Options: []string{"a", "b", "c", "d"},
			Correct: i % 4,
		}
	}
	return qs
}

func TestDrawHasNoDuplicates(t *testing.T) {
	source := NewQuestionSource(NewStaticBankLoader(sampleBank(30)), time.Minute)

	qs, err := source.Draw(context.Background(), 10, nil)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if len(qs) != 10 {
		t.Fatalf("expected 10 questions, got %d", len(qs))
	}
	ids := make(map[string]struct{})
	for _, q := range qs {
		if _, dup := ids[q.ID]; dup {
			t.Fatalf("duplicate id %s in draw", q.ID)
		}
		ids[q.ID] = struct{}{}
	}
}

func TestDrawHonorsExclusions(t *testing.T) {
	source := NewQuestionSource(NewStaticBankLoader(sampleBank(15)), time.Minute)

	exclude := []string{"q0", "q1", "q2", "q3", "q4"}
	qs, err := source.Draw(context.Background(), 10, exclude)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	for _, q := range qs {
		for _, banned := range exclude {
			if q.ID == banned {
				t.Fatalf("excluded question %s drawn", banned)
			}
		}
	}
}

func TestDrawFailsWhenBankExhausted(t *testing.T) {
	source := NewQuestionSource(NewStaticBankLoader(sampleBank(12)), time.Minute)

	_, err := source.Draw(context.Background(), 10, []string{"q0", "q1", "q2"})
	if !errors.Is(err, domain.ErrInsufficientQuestions) {
		t.Fatalf("expected ErrInsufficientQuestions, got %v", err)
	}
}

func TestBankIsCached(t *testing.T) {
	loader := &countingLoader{BankLoader: NewStaticBankLoader(sampleBank(20))}
	source := NewQuestionSource(loader, time.Minute)

	if _, err := source.Draw(context.Background(), 5, nil); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if _, err := source.Draw(context.Background(), 5, nil); err != nil {
		t.Fatalf("draw 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
}

type countingLoader struct {
	BankLoader
	calls int
}

func (l *countingLoader) LoadBank(ctx context.Context) ([]domain.Question, error) {
	l.calls++
	return l.BankLoader.LoadBank(ctx)
}
