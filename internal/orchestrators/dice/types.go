package dice

import "github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"

// Roll is one rolled set of dice
type Roll struct {
	Notation string
	// Dice are the kept dice, Dropped the ones discarded by the method
	Dice    []int
	Dropped []int
	Total   int
}

// RollDiceInput defines the request for rolling dice
type RollDiceInput struct {
	Notation string
}

// RollDiceOutput defines the response for rolling dice
type RollDiceOutput struct {
	Roll *Roll
}

// RollAbilityScoresInput defines the request for rolling a full ability array
type RollAbilityScoresInput struct {
	Method string // "4d6_drop_lowest", "3d6" or "4d6_reroll_1s"
}

// RollAbilityScoresOutput defines the response for rolling ability scores.
// Rolls are in sheet order, strength first.
type RollAbilityScoresOutput struct {
	Method string
	Rolls  []*Roll
	Scores sw5e.AbilityScores
}
