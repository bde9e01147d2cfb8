package domain

import "errors"

var (
	// ErrInvalidConfig indicates a malformed session configuration; fatal
	// to session start.
	ErrInvalidConfig = errors.New("invalid session config")
	// ErrInvalidStake is returned for a stake outside the allowed range.
	ErrInvalidStake = errors.New("invalid stake")
	// ErrInvalidState indicates an operation was called in the wrong phase.
	// This is a caller bug and is surfaced rather than swallowed.
	ErrInvalidState = errors.New("operation not valid in current phase")
	// ErrInvalidOption indicates an answer index outside the option range.
	ErrInvalidOption = errors.New("option index out of range")
	// ErrInsufficientQuestions indicates the question pool cannot cover the
	// configured round length.
	ErrInsufficientQuestions = errors.New("not enough questions for round")
	// ErrInsufficientBalance is returned by the wallet when a stake cannot
	// be debited.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrSessionNotFound is returned when a game session has not been started.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrParticipantNotFound is returned when a player acts without joining.
	ErrParticipantNotFound = errors.New("participant not found in session")
	// ErrBattleFull is returned when joining a battle at capacity.
	ErrBattleFull = errors.New("battle already full")
)
