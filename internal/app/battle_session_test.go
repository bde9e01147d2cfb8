package app_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"squizer-game-service/internal/app"
	"squizer-game-service/internal/domain"
	"squizer-game-service/internal/infra/memory"
)

func joinAll(t *testing.T, service *app.GameService, battleID string, cfg domain.SessionConfig, users ...string) *app.BattleSession {
	t.Helper()
	var battle *app.BattleSession
	for _, u := range users {
		b, err := service.JoinBattle(context.Background(), battleID, u, "Player "+u, cfg, len(users))
		if err != nil {
			t.Fatalf("join %s: %v", u, err)
		}
		battle = b
	}
	return battle
}

func answerAll(t *testing.T, battle *app.BattleSession, userID string, correct bool) {
	t.Helper()
	for i := 0; i < 10; i++ {
		q, _, err := battle.CurrentQuestion(userID)
		if err != nil {
			t.Fatalf("current question for %s: %v", userID, err)
		}
		option := correctOption(t, q)
		if !correct {
			option = (option + 1) % domain.OptionCount
		}
		if _, err := battle.SubmitAnswer(context.Background(), userID, option); err != nil {
			t.Fatalf("submit for %s: %v", userID, err)
		}
	}
}

func TestBattleOutrightWinnerTakesPot(t *testing.T) {
	service, wallet, _ := newTestService(t, 30)
	for _, u := range []string{"u1", "u2", "u3"} {
		wallet.Deposit(u, 100)
	}

	battle := joinAll(t, service, "b1", domain.BattleConfig(10), "u1", "u2", "u3")
	if battle.Status() != app.BattleStatusActive {
		t.Fatalf("expected active battle once full, got %s", battle.Status())
	}

	answerAll(t, battle, "u1", true)
	answerAll(t, battle, "u2", false)
	answerAll(t, battle, "u3", false)

	if battle.Status() != app.BattleStatusSettled {
		t.Fatalf("expected settled battle, got %s", battle.Status())
	}
	result, err := battle.Result("u1")
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	// Pot 30, platform keeps 3.
	if result.Outcome != domain.OutcomeWin || result.Prize != 27 {
		t.Fatalf("expected win with prize 27, got %+v", result)
	}
	if got := wallet.Balance("u1"); got != 117 {
		t.Fatalf("expected winner balance 117, got %.2f", got)
	}
	if got := wallet.Balance("u2"); got != 90 {
		t.Fatalf("expected loser balance 90, got %.2f", got)
	}
	if _, ok := service.Battle("b1"); ok {
		t.Fatalf("settled battle should be released from the store")
	}
}

func TestBattleTieRunsSuddenDeath(t *testing.T) {
	service, wallet, _ := newTestService(t, 40)
	wallet.Deposit("u1", 100)
	wallet.Deposit("u2", 100)

	battle := joinAll(t, service, "b1", domain.BattleConfig(10), "u1", "u2")
	answerAll(t, battle, "u1", true)
	answerAll(t, battle, "u2", true)

	if battle.Status() != app.BattleStatusTieBreak {
		t.Fatalf("expected sudden death after a tied match, got %s", battle.Status())
	}

	// First to four correct answers wins the pot.
	for i := 0; i < 4; i++ {
		q, _, err := battle.CurrentQuestion("u1")
		if err != nil {
			t.Fatalf("tie question: %v", err)
		}
		out, err := battle.SubmitAnswer(context.Background(), "u1", correctOption(t, q))
		if err != nil {
			t.Fatalf("tie submit: %v", err)
		}
		if !out.Correct {
			t.Fatalf("expected tie answer %d correct", i)
		}
	}

	if battle.Status() != app.BattleStatusSettled {
		t.Fatalf("expected settled battle after sudden death, got %s", battle.Status())
	}
	result, err := battle.Result("u1")
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.Outcome != domain.OutcomeWin || result.Prize != 18 {
		t.Fatalf("expected win with prize 18, got %+v", result)
	}
	loser, err := battle.Result("u2")
	if err != nil {
		t.Fatalf("loser result: %v", err)
	}
	if loser.Outcome != domain.OutcomeLoss || loser.Prize != 0 {
		t.Fatalf("expected loss without prize, got %+v", loser)
	}
}

func TestBattleRemoteAnswersCount(t *testing.T) {
	service, wallet, _ := newTestService(t, 30)
	wallet.Deposit("u1", 100)
	wallet.Deposit("u2", 100)

	battle := joinAll(t, service, "b1", domain.BattleConfig(10), "u1", "u2")
	answerAll(t, battle, "u1", false)
	for i := 0; i < 10; i++ {
		if err := battle.ApplyRemoteAnswer(context.Background(), "u2", true); err != nil {
			t.Fatalf("remote answer %d: %v", i, err)
		}
	}

	result, err := battle.Result("u2")
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.Outcome != domain.OutcomeWin {
		t.Fatalf("expected remote player to win, got %+v", result)
	}
}

func TestBattleJoinGuards(t *testing.T) {
	service, wallet, _ := newTestService(t, 30)
	for _, u := range []string{"u1", "u2", "u3"} {
		wallet.Deposit(u, 100)
	}
	ctx := context.Background()
	cfg := domain.BattleConfig(10)

	if _, err := service.JoinBattle(ctx, "b1", "u1", "Alice", cfg, 2); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := service.JoinBattle(ctx, "b1", "u1", "Alice", cfg, 2); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected duplicate join rejected, got %v", err)
	}
	if _, err := service.JoinBattle(ctx, "b1", "u2", "Bob", cfg, 2); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := service.JoinBattle(ctx, "b1", "u3", "Carol", cfg, 2); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected join after start rejected, got %v", err)
	}
	if _, err := service.JoinBattle(ctx, "b2", "u3", "Carol", cfg, 1); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected player count outside 2..10 rejected, got %v", err)
	}
}

func TestBattleSubscribeSeesSettlement(t *testing.T) {
	service, wallet, _ := newTestService(t, 30)
	wallet.Deposit("u1", 100)
	wallet.Deposit("u2", 100)

	battle := joinAll(t, service, "b1", domain.BattleConfig(10), "u1", "u2")
	events, cancel := battle.Subscribe()
	defer cancel()

	answerAll(t, battle, "u1", true)
	answerAll(t, battle, "u2", false)

	var settled *app.BattleEvent
	for len(events) > 0 {
		ev := <-events
		if ev.Type == app.EventSettled {
			settled = &ev
		}
	}
	if settled == nil {
		t.Fatalf("expected a settled event on the feed")
	}
	if settled.WinnerID != "u1" || settled.Prize != 18 {
		t.Fatalf("unexpected settlement event: %+v", settled)
	}
}

// creditRejectingWallet accepts debits but refuses every credit, standing in
// for a payout backend outage.
type creditRejectingWallet struct {
	*memory.Wallet
	err error
}

func (w *creditRejectingWallet) Credit(ctx context.Context, userID string, amount float64) error {
	return w.err
}

func TestBattleCreditFailureKeepsWinner(t *testing.T) {
	source := memory.NewQuestionSource(memory.NewStaticBankLoader(arithmeticBank(30)), time.Minute)
	wallet := &creditRejectingWallet{Wallet: memory.NewWallet(), err: errors.New("ledger unavailable")}
	wallet.Deposit("u1", 100)
	wallet.Deposit("u2", 100)
	service := app.NewGameService(source, wallet, memory.NewHistoryStore(), memory.NewBattleStore(),
		app.WithTickInterval(0),
		app.WithRand(rand.New(rand.NewSource(42))))

	battle := joinAll(t, service, "b1", domain.BattleConfig(10), "u1", "u2")
	events, cancel := battle.Subscribe()
	defer cancel()

	answerAll(t, battle, "u1", true)
	answerAll(t, battle, "u2", false)

	if battle.Status() != app.BattleStatusSettled {
		t.Fatalf("expected settled battle, got %s", battle.Status())
	}
	result, err := battle.Result("u1")
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.Outcome != domain.OutcomeWin || result.Prize != 18 {
		t.Fatalf("expected the winner recorded despite the failed credit, got %+v", result)
	}
	var settled *app.BattleEvent
	for len(events) > 0 {
		ev := <-events
		if ev.Type == app.EventSettled {
			settled = &ev
		}
	}
	if settled == nil || settled.WinnerID != "u1" {
		t.Fatalf("expected settlement event naming the winner, got %+v", settled)
	}
	// The credit never landed, so the stake stays debited.
	if got := wallet.Balance("u1"); got != 90 {
		t.Fatalf("expected balance 90 after failed credit, got %.2f", got)
	}
}

func TestTieBreakPoolsAvoidMatchQuestions(t *testing.T) {
	service, wallet, _ := newTestService(t, 40)
	wallet.Deposit("u1", 100)
	wallet.Deposit("u2", 100)

	battle := joinAll(t, service, "b1", domain.BattleConfig(10), "u1", "u2")

	seen := make(map[string]bool)
	for _, u := range []string{"u1", "u2"} {
		for i := 0; i < 10; i++ {
			q, _, err := battle.CurrentQuestion(u)
			if err != nil {
				t.Fatalf("current question for %s: %v", u, err)
			}
			if u == "u1" {
				seen[q.ID] = true
			}
			if _, err := battle.SubmitAnswer(context.Background(), u, correctOption(t, q)); err != nil {
				t.Fatalf("submit for %s: %v", u, err)
			}
		}
	}
	if battle.Status() != app.BattleStatusTieBreak {
		t.Fatalf("expected sudden death after a tied match, got %s", battle.Status())
	}

	// Walk both players through the whole first pool with wrong answers.
	// Every pool question must be fresh, and the residual tie forces an
	// extension that must be fresh again.
	for i := 0; i < 10; i++ {
		q, _, err := battle.CurrentQuestion("u2")
		if err != nil {
			t.Fatalf("tie question: %v", err)
		}
		if seen[q.ID] {
			t.Fatalf("tie pool repeated question %s", q.ID)
		}
		seen[q.ID] = true
		if _, err := battle.SubmitAnswer(context.Background(), "u2", (correctOption(t, q)+1)%domain.OptionCount); err != nil {
			t.Fatalf("tie submit: %v", err)
		}
	}
	for i := 0; i < 10; i++ {
		q, _, err := battle.CurrentQuestion("u1")
		if err != nil {
			t.Fatalf("tie question: %v", err)
		}
		if _, err := battle.SubmitAnswer(context.Background(), "u1", (correctOption(t, q)+1)%domain.OptionCount); err != nil {
			t.Fatalf("tie submit: %v", err)
		}
	}

	if battle.Status() != app.BattleStatusTieBreak {
		t.Fatalf("expected the exhausted tie to continue on an extension, got %s", battle.Status())
	}
	q, _, err := battle.CurrentQuestion("u2")
	if err != nil {
		t.Fatalf("extension question: %v", err)
	}
	if seen[q.ID] {
		t.Fatalf("extension pool repeated question %s", q.ID)
	}
}
