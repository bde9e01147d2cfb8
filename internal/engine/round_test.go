package engine

import (
	"errors"
	"math"
	"testing"

	"squizer-game-service/internal/domain"
)

func makeQuestions(n int) []domain.Question {
	qs := make([]domain.Question, n)
	for i := range qs {
		qs[i] = domain.Question{
			ID:      string(rune('a' + i%26)),
			Prompt:  "pick the right one",
			Options: []string{"w", "x", "y", "z"},
			Correct: i % 4,
		}
	}
	for i := range qs {
		qs[i].ID = qs[i].ID + string(rune('0'+i/26))
	}
	return qs
}

func mustRound(t *testing.T, cfg domain.SessionConfig, qs []domain.Question) *Round {
	t.Helper()
	r, err := NewRound(cfg, qs)
	if err != nil {
		t.Fatalf("new round: %v", err)
	}
	return r
}

func TestNewRoundRejectsShortPool(t *testing.T) {
	cfg := domain.QuickPlayConfig(100)
	_, err := NewRound(cfg, makeQuestions(5))
	if !errors.Is(err, domain.ErrInsufficientQuestions) {
		t.Fatalf("expected ErrInsufficientQuestions, got %v", err)
	}
}

func TestNewRoundRejectsBadConfig(t *testing.T) {
	cfg := domain.QuickPlayConfig(100)
	cfg.MaxAttempts = 0
	if _, err := NewRound(cfg, makeQuestions(10)); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	cfg = domain.QuickPlayConfig(0)
	if _, err := NewRound(cfg, makeQuestions(10)); !errors.Is(err, domain.ErrInvalidStake) {
		t.Fatalf("expected ErrInvalidStake, got %v", err)
	}
}

// Answering all ten quick-play questions correctly wins 100 x 3.0 x 0.9.
func TestQuickPlayPerfectRun(t *testing.T) {
	qs := makeQuestions(10)
	r := mustRound(t, domain.QuickPlayConfig(100), qs)

	for i := range qs {
		out, err := r.SubmitAnswer(qs[i].Correct)
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if !out.Correct {
			t.Fatalf("question %d marked wrong", i)
		}
	}
	if r.Phase() != domain.PhaseCompleted {
		t.Fatalf("phase = %s, want completed", r.Phase())
	}

	result, err := r.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.Outcome != domain.OutcomeWin || result.Score != 10 {
		t.Fatalf("result = %+v, want win with 10", result)
	}
	if math.Abs(result.Prize-270) > 1e-9 {
		t.Fatalf("prize = %v, want 270", result.Prize)
	}
}

// Nine out of ten is a loss when every answer is required.
func TestQuickPlayNineOfTenLoses(t *testing.T) {
	qs := makeQuestions(10)
	r := mustRound(t, domain.QuickPlayConfig(100), qs)

	for i := 0; i < 9; i++ {
		if _, err := r.SubmitAnswer(qs[i].Correct); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	wrong := (qs[9].Correct + 1) % 4
	if _, err := r.SubmitAnswer(wrong); err != nil {
		t.Fatalf("submit wrong: %v", err)
	}

	result, err := r.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.Outcome != domain.OutcomeLoss || result.Score != 9 || result.Prize != 0 {
		t.Fatalf("result = %+v, want loss/9/0", result)
	}
}

// Score never decreases and grows by at most one per submission.
func TestScoreMonotonic(t *testing.T) {
	qs := makeQuestions(10)
	r := mustRound(t, domain.QuickPlayConfig(100), qs)

	prev := 0
	for option := 0; r.Phase() == domain.PhaseActive; option = (option + 3) % 4 {
		out, err := r.SubmitAnswer(option)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if out.Score < prev || out.Score > prev+1 {
			t.Fatalf("score jumped from %d to %d", prev, out.Score)
		}
		prev = out.Score
	}
}

// With two attempts allowed, exactly one wrong answer is absorbed and the
// second forces advancement.
func TestAttemptBound(t *testing.T) {
	cfg := domain.OneVOneConfig(100)
	cfg.AwardOpponentOnMiss = false // solo harness for the sequencing rule
	qs := makeQuestions(10)
	r := mustRound(t, cfg, qs)

	wrong := (qs[0].Correct + 1) % 4
	out, err := r.SubmitAnswer(wrong)
	if err != nil {
		t.Fatalf("first wrong: %v", err)
	}
	if out.Advanced || out.Missed {
		t.Fatalf("first wrong attempt must re-prompt, got %+v", out)
	}
	if r.CurrentIndex() != 0 || r.AttemptsUsed() != 1 {
		t.Fatalf("index/attempts = %d/%d, want 0/1", r.CurrentIndex(), r.AttemptsUsed())
	}

	out, err = r.SubmitAnswer(wrong)
	if err != nil {
		t.Fatalf("second wrong: %v", err)
	}
	if !out.Missed || !out.Advanced {
		t.Fatalf("second wrong attempt must forfeit the question, got %+v", out)
	}
	if r.CurrentIndex() != 1 || r.Score() != 0 {
		t.Fatalf("index/score = %d/%d, want 1/0", r.CurrentIndex(), r.Score())
	}
}

func TestSubmitAfterCompletionFails(t *testing.T) {
	qs := makeQuestions(1)
	r := mustRound(t, domain.GoldenChanceConfig(50), qs)

	if _, err := r.SubmitAnswer(qs[0].Correct); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := r.SubmitAnswer(0); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestInvalidOptionRejected(t *testing.T) {
	r := mustRound(t, domain.GoldenChanceConfig(50), makeQuestions(1))
	for _, option := range []int{-1, 4, 99} {
		if _, err := r.SubmitAnswer(option); !errors.Is(err, domain.ErrInvalidOption) {
			t.Fatalf("option %d: expected ErrInvalidOption, got %v", option, err)
		}
	}
}

// A whole-session timer expiry completes the round at the current score
// without processing further questions.
func TestWholeSessionTimeout(t *testing.T) {
	qs := makeQuestions(10)
	r := mustRound(t, domain.QuickPlayConfig(100), qs)

	for i := 0; i < 6; i++ {
		if _, err := r.SubmitAnswer(qs[i].Correct); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	for i := 0; i < 60; i++ {
		r.Tick()
	}
	if r.Phase() != domain.PhaseCompleted {
		t.Fatalf("phase = %s, want completed after timer expiry", r.Phase())
	}

	result, err := r.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.Score != 6 || result.Outcome != domain.OutcomeLoss {
		t.Fatalf("result = %+v, want loss with 6", result)
	}
}

// A per-question timer expiry forfeits only the current question.
func TestPerQuestionTimeoutAdvances(t *testing.T) {
	cfg := domain.OneVOneConfig(100)
	cfg.AwardOpponentOnMiss = false
	r := mustRound(t, cfg, makeQuestions(10))

	for i := 0; i < cfg.QuestionSeconds; i++ {
		r.Tick()
	}
	if r.CurrentIndex() != 1 || r.Phase() != domain.PhaseActive {
		t.Fatalf("index/phase = %d/%s, want 1/active", r.CurrentIndex(), r.Phase())
	}
	if r.Remaining() != cfg.QuestionSeconds {
		t.Fatalf("timer did not re-arm: %d", r.Remaining())
	}
}

func TestResultIdempotentAndQuitAfterCompletionIgnored(t *testing.T) {
	qs := makeQuestions(1)
	r := mustRound(t, domain.GoldenChanceConfig(50), qs)
	if _, err := r.SubmitAnswer(qs[0].Correct); err != nil {
		t.Fatalf("submit: %v", err)
	}

	first, err := r.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	r.Quit() // no effect after completion
	second, err := r.Result()
	if err != nil {
		t.Fatalf("result again: %v", err)
	}
	if first != second {
		t.Fatalf("settlement changed between calls: %+v vs %+v", first, second)
	}
	if first.Outcome != domain.OutcomeWin {
		t.Fatalf("quit after completion flipped outcome: %+v", second)
	}
}

func TestQuitForfeits(t *testing.T) {
	r := mustRound(t, domain.QuickPlayConfig(100), makeQuestions(10))
	r.Quit()
	r.Quit() // idempotent

	if r.Phase() != domain.PhaseForfeit {
		t.Fatalf("phase = %s, want forfeit", r.Phase())
	}
	r.Tick() // late timer event must be a no-op
	result, err := r.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.Outcome != domain.OutcomeForfeit || result.Prize != 0 {
		t.Fatalf("result = %+v, want forfeit/0", result)
	}
}

func TestResultWhileActiveFails(t *testing.T) {
	r := mustRound(t, domain.QuickPlayConfig(100), makeQuestions(10))
	if _, err := r.Result(); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}
