// Package dice rolls ability score arrays and free-form dice for characters
package dice

import (
	"context"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
	"github.com/KirkDiggler/rpg-sheet/internal/errors"
)

const (
	// Dice rolling methods
	MethodStandard = "4d6_drop_lowest"
	MethodClassic  = "3d6"
	MethodHeroic   = "4d6_reroll_1s"

	// Standard ability score dice notation
	AbilityScoreNotation = "4d6"

	maxDice = 100
)

var (
	// Regex for parsing simple dice notation like "2d6", "1d20", "3d8"
	diceNotationRegex = regexp.MustCompile(`^(\d+)d(\d+)$`)
)

// Methods lists the supported ability score methods
var Methods = []string{MethodStandard, MethodClassic, MethodHeroic}

// Config holds the dependencies for the dice orchestrator
type Config struct {
	Roller dice.Roller
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config is required")
	}

	vb := errors.NewValidationBuilder()
	if c.Roller == nil {
		vb.RequiredField("Roller")
	}
	return vb.Build()
}

// Orchestrator rolls dice through the injected roller
type Orchestrator struct {
	roller dice.Roller
}

// New creates a new dice orchestrator
func New(cfg *Config) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &Orchestrator{roller: cfg.Roller}, nil
}

// ParseNotation parses simple dice notation like "2d6" and returns count and size
func ParseNotation(notation string) (count, size int, err error) {
	matches := diceNotationRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(notation)))
	if len(matches) != 3 {
		return 0, 0, errors.InvalidArgumentf("invalid dice notation: %s (expected format: XdY)", notation)
	}

	count, err = strconv.Atoi(matches[1])
	if err != nil {
		return 0, 0, errors.InvalidArgumentf("invalid dice count in notation: %s", notation)
	}

	size, err = strconv.Atoi(matches[2])
	if err != nil {
		return 0, 0, errors.InvalidArgumentf("invalid die size in notation: %s", notation)
	}

	if count <= 0 || size <= 0 {
		return 0, 0, errors.InvalidArgumentf("dice count and size must be positive: %s", notation)
	}
	if count > maxDice {
		return 0, 0, errors.InvalidArgumentf("at most %d dice per roll: %s", maxDice, notation)
	}

	return count, size, nil
}

// RollDice rolls dice in XdY notation
func (o *Orchestrator) RollDice(ctx context.Context, input *RollDiceInput) (*RollDiceOutput, error) {
	if input == nil || input.Notation == "" {
		return nil, errors.InvalidArgument("dice notation is required")
	}

	count, size, err := ParseNotation(input.Notation)
	if err != nil {
		return nil, err
	}

	roll, err := o.roll(input.Notation, count, size, false, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to roll dice")
	}

	slog.InfoContext(ctx, "dice rolled",
		"notation", input.Notation,
		"total", roll.Total)

	return &RollDiceOutput{Roll: roll}, nil
}

// RollAbilityScores rolls six scores, one per ability in sheet order
func (o *Orchestrator) RollAbilityScores(ctx context.Context, input *RollAbilityScoresInput) (*RollAbilityScoresOutput, error) {
	method := MethodStandard
	if input != nil && input.Method != "" {
		method = input.Method
	}

	var (
		rerollOnes bool
		dropLowest int
		notation   = AbilityScoreNotation
	)
	switch method {
	case MethodStandard:
		dropLowest = 1
	case MethodClassic:
		notation = "3d6"
	case MethodHeroic:
		rerollOnes = true
		dropLowest = 1
	default:
		return nil, errors.InvalidArgumentf("unsupported rolling method: %s", method).
			WithMeta("method", method)
	}

	count, size, err := ParseNotation(notation)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse ability score notation")
	}

	out := &RollAbilityScoresOutput{Method: method}
	totals := make([]int, 0, len(sw5e.Abilities))
	for _, ability := range sw5e.Abilities {
		roll, err := o.roll(notation, count, size, rerollOnes, dropLowest)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to roll %s", ability)
		}
		out.Rolls = append(out.Rolls, roll)
		totals = append(totals, roll.Total)
	}
	out.Scores = sw5e.AbilityScores{
		Strength:     totals[0],
		Dexterity:    totals[1],
		Constitution: totals[2],
		Intelligence: totals[3],
		Wisdom:       totals[4],
		Charisma:     totals[5],
	}

	slog.InfoContext(ctx, "ability scores rolled",
		"method", method,
		"scores", totals)

	return out, nil
}

// roll rolls count dice, rerolling ones once when asked, and drops the
// lowest dropLowest of them
func (o *Orchestrator) roll(notation string, count, size int, rerollOnes bool, dropLowest int) (*Roll, error) {
	values, err := o.roller.RollN(count, size)
	if err != nil {
		return nil, err
	}
	if rerollOnes {
		for i, v := range values {
			if v != 1 {
				continue
			}
			if values[i], err = o.roller.Roll(size); err != nil {
				return nil, err
			}
		}
	}

	roll := &Roll{Notation: notation, Dice: values}
	if dropLowest > 0 && len(values) > dropLowest {
		sorted := slices.Clone(values)
		slices.Sort(sorted)
		roll.Dropped = sorted[:dropLowest]
		roll.Dice = sorted[dropLowest:]
	}
	for _, v := range roll.Dice {
		roll.Total += v
	}
	return roll, nil
}
