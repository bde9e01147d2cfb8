package domain

// OptionCount is the fixed number of answer options per question.
const OptionCount = 4

// Question is a single multiple-choice question. Immutable once drawn;
// option shuffling produces a new value with Correct recomputed.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
}

// Participant is a player in a multi-player round. The set of participants
// is fixed at round start; only Score mutates as answers resolve.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// Phase is the lifecycle state of a round.
type Phase int

const (
	PhaseActive Phase = iota
	PhaseCompleted
	PhaseForfeit
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseCompleted:
		return "completed"
	case PhaseForfeit:
		return "forfeit"
	}
	return "unknown"
}

// Outcome is the terminal result of a session.
type Outcome string

const (
	OutcomeWin     Outcome = "win"
	OutcomeLoss    Outcome = "loss"
	OutcomeForfeit Outcome = "forfeit"
)

// SessionResult is produced exactly once per session and handed to the
// wallet/storage collaborators; the engine keeps no history beyond it.
type SessionResult struct {
	Outcome Outcome `json:"outcome"`
	Score   int     `json:"score"`
	Prize   float64 `json:"prize"`
}

// ScoreboardEntry is a snapshot-friendly view of a participant.
type ScoreboardEntry struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// Scoreboard captures the ordered standings of a battle session.
type Scoreboard struct {
	BattleID string            `json:"battleId"`
	Entries  []ScoreboardEntry `json:"entries"`
}
