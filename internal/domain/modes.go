package domain

// Mode names as used in configs, storage keys, and transport payloads.
const (
	ModeQuickPlay    = "quick_play"
	ModeGoldenChance = "golden_chance"
	ModeLevel        = "quiz_level"
	ModeOneVOne      = "one_v_one"
	ModeBattle       = "quiz_battle"
)

// QuickPlayConfig: ten questions against one 60-second clock, every answer
// must be correct, fixed 3x odds.
func QuickPlayConfig(stake float64) SessionConfig {
	return SessionConfig{
		Mode:            ModeQuickPlay,
		TotalQuestions:  10,
		SessionSeconds:  60,
		Discipline:      TimerWholeSession,
		MaxAttempts:     1,
		RequiredCorrect: 10,
		Stake:           stake,
		Odds:            3.0,
		FeeRate:         PlatformFeeRate,
	}
}

// GoldenChanceConfig: one shuffled question, 5 seconds, 10x odds.
func GoldenChanceConfig(stake float64) SessionConfig {
	return SessionConfig{
		Mode:            ModeGoldenChance,
		TotalQuestions:  1,
		QuestionSeconds: 5,
		Discipline:      TimerPerQuestion,
		MaxAttempts:     1,
		RequiredCorrect: 1,
		Stake:           stake,
		Odds:            10.0,
		FeeRate:         PlatformFeeRate,
	}
}

// Level identifies a quiz-level tier.
type Level string

const (
	LevelGood  Level = "good"
	LevelSmart Level = "smart"
	LevelBest  Level = "best"
)

type levelSpec struct {
	questions int
	required  int
	odds      float64
}

var levelSpecs = map[Level]levelSpec{
	LevelGood:  {questions: 45, required: 40, odds: 2.5},
	LevelSmart: {questions: 65, required: 58, odds: 4.5},
	LevelBest:  {questions: 85, required: 73, odds: 6.5},
}

// LevelConfig builds the tiered solo mode: a session-wide budget of ten
// seconds per question, with a pass mark below full marks. Unknown levels
// fall back to LevelGood.
func LevelConfig(level Level, stake float64) SessionConfig {
	spec, ok := levelSpecs[level]
	if !ok {
		spec = levelSpecs[LevelGood]
		level = LevelGood
	}
	return SessionConfig{
		Mode:            ModeLevel + ":" + string(level),
		TotalQuestions:  spec.questions,
		QuestionSeconds: 10,
		SessionSeconds:  spec.questions * 10,
		Discipline:      TimerWholeSession,
		MaxAttempts:     1,
		RequiredCorrect: spec.required,
		Stake:           stake,
		Odds:            spec.odds,
		FeeRate:         PlatformFeeRate,
	}
}

// OneVOneConfig: head-to-head, two attempts per question, a missed question
// hands the opponent a point. Pool payout, so Odds stays zero.
func OneVOneConfig(stake float64) SessionConfig {
	return SessionConfig{
		Mode:                ModeOneVOne,
		TotalQuestions:      10,
		QuestionSeconds:     15,
		Discipline:          TimerPerQuestion,
		MaxAttempts:         2,
		RequiredCorrect:     0,
		Stake:               stake,
		FeeRate:             PlatformFeeRate,
		ResetTimerOnRetry:   false,
		AwardOpponentOnMiss: true,
	}
}

// BattleConfig: multi-player pool battle, one attempt per question, highest
// score wins with sudden death on ties.
func BattleConfig(stake float64) SessionConfig {
	return SessionConfig{
		Mode:            ModeBattle,
		TotalQuestions:  10,
		QuestionSeconds: 15,
		Discipline:      TimerPerQuestion,
		MaxAttempts:     1,
		RequiredCorrect: 0,
		Stake:           stake,
		FeeRate:         PlatformFeeRate,
	}
}

// Battle size limits from the lobby rules.
const (
	MinBattlePlayers = 2
	MaxBattlePlayers = 10
)
