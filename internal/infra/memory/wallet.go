package memory

import (
	"context"
	"fmt"
	"sync"

	"squizer-game-service/internal/domain"
)

// Wallet is an in-memory implementation of app.Wallet. Production deploys
// point the service at the real ledger API instead; this keeps demos and
// tests self-contained.
type Wallet struct {
	mu       sync.Mutex
	balances map[string]float64
}

func NewWallet() *Wallet {
	return &Wallet{balances: make(map[string]float64)}
}

// Deposit seeds a balance.
func (w *Wallet) Deposit(userID string, amount float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[userID] += amount
}

// Balance returns the current balance for userID.
func (w *Wallet) Balance(userID string) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[userID]
}

func (w *Wallet) Debit(_ context.Context, userID string, amount float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.balances[userID] < amount {
		return fmt.Errorf("%w: balance %.2f, stake %.2f", domain.ErrInsufficientBalance, w.balances[userID], amount)
	}
	w.balances[userID] -= amount
	return nil
}

func (w *Wallet) Credit(_ context.Context, userID string, amount float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[userID] += amount
	return nil
}
