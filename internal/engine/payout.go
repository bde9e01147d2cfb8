package engine

import (
	"fmt"

	"squizer-game-service/internal/domain"
)

// Payout is the settled breakdown of a winning stake.
type Payout struct {
	Gross float64 `json:"gross"`
	Fee   float64 `json:"fee"`
	Net   float64 `json:"net"`
}

// MultiplierPayout settles a solo-mode win: stake times odds, minus the
// platform fee on the gross amount.
func MultiplierPayout(stake, odds, feeRate float64) (Payout, error) {
	if stake <= 0 {
		return Payout{}, fmt.Errorf("%w: stake %v", domain.ErrInvalidStake, stake)
	}
	if odds <= 0 {
		return Payout{}, fmt.Errorf("%w: odds %v", domain.ErrInvalidConfig, odds)
	}
	gross := stake * odds
	fee := gross * feeRate
	return Payout{Gross: gross, Fee: fee, Net: gross - fee}, nil
}

// PoolPayout settles a multi-player win: every stake goes into the pot, the
// fee comes off the pot, and the single winner takes the rest.
func PoolPayout(stake float64, participants int, feeRate float64) (Payout, error) {
	if stake <= 0 {
		return Payout{}, fmt.Errorf("%w: stake %v", domain.ErrInvalidStake, stake)
	}
	if participants < 2 {
		return Payout{}, fmt.Errorf("%w: pool needs at least 2 participants", domain.ErrInvalidConfig)
	}
	pot := stake * float64(participants)
	fee := pot * feeRate
	return Payout{Gross: pot, Fee: fee, Net: pot - fee}, nil
}
