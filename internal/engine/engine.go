// Package engine computes derived character statistics. Every function here is
// pure: the same character always yields the same DerivedState and the input
// is never modified.
package engine

import (
	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/reference"
)

const (
	baseArmorClass        = 10
	basePassivePerception = 10
	maxPowerLevelCap      = 5
)

// Config contains configuration for creating a Calculator
type Config struct {
	// Catalog supplies hit dice, casting tradition and saving throws.
	// Defaults to the core SW5e catalog.
	Catalog reference.Catalog
	// SavingThrows selects the saving throw policy
	SavingThrows SavingThrowPolicy
}

// Calculator derives statistics from characters
type Calculator struct {
	catalog      reference.Catalog
	savingThrows SavingThrowPolicy
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config is required")
	}

	vb := errors.NewValidationBuilder()
	switch c.SavingThrows {
	case SavesAbilityOnly, SavesWithProficiency:
	default:
		vb.Fieldf("SavingThrows", "unknown saving throw policy %d", int(c.SavingThrows))
	}
	return vb.Build()
}

// New creates a Calculator. An empty config uses the core catalog and
// ability-only saving throws.
func New(cfg *Config) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	catalog := cfg.Catalog
	if catalog == nil {
		catalog = reference.Core()
	}
	return &Calculator{
		catalog:      catalog,
		savingThrows: cfg.SavingThrows,
	}, nil
}

// Catalog returns the reference catalog in use
func (c *Calculator) Catalog() reference.Catalog {
	return c.catalog
}

// Derive computes the derived state of a character. A nil character or one
// without ability scores yields EmptyState rather than an error.
func (c *Calculator) Derive(char *sw5e.Character) *DerivedState {
	if char == nil {
		return EmptyState(0)
	}
	level := char.TotalLevel()
	if char.AbilityScores == nil {
		return EmptyState(level)
	}

	prof := ProficiencyBonus(level)
	mods := make(map[string]int, len(sw5e.Abilities))
	for _, ability := range sw5e.Abilities {
		mods[ability] = AbilityModifier(char.AbilityScores.Score(ability))
	}

	state := &DerivedState{
		AbilityModifiers: mods,
		ProficiencyBonus: prof,
		SavingThrows:     c.savingThrowsFor(char, mods, prof),
		SkillModifiers:   skillModifiers(char, mods, prof),
		ArmorClass:       baseArmorClass + mods[sw5e.AbilityDexterity],
		Initiative:       mods[sw5e.AbilityDexterity],
		MaxPowerLevel:    MaxPowerLevel(level),
	}
	state.HitPointsMaximum = c.hitPointsMaximum(char, mods[sw5e.AbilityConstitution])
	state.PassivePerception = passivePerception(char, state.SkillModifiers, mods)
	state.ForcePoints = c.powerPoints(char, reference.CastingForce, mods[sw5e.AbilityWisdom])
	state.TechPoints = c.powerPoints(char, reference.CastingTech, mods[sw5e.AbilityIntelligence])

	return state
}

// AbilityModifier returns floor((score - 10) / 2)
func AbilityModifier(score int) int {
	diff := score - 10
	if diff < 0 && diff%2 != 0 {
		return diff/2 - 1
	}
	return diff / 2
}

// ProficiencyBonus returns ceil(1 + level/4)
func ProficiencyBonus(level int) int {
	if level <= 0 {
		return 1
	}
	return 1 + (level+3)/4
}

// MaxPowerLevel returns min(5, ceil(level/4))
func MaxPowerLevel(level int) int {
	if level <= 0 {
		return 0
	}
	return min(maxPowerLevelCap, (level+3)/4)
}

// AverageHitDie is the fixed per-level hit point gain: floor(hitDie/2) + 1
func AverageHitDie(hitDie int) int {
	return hitDie/2 + 1
}

func (c *Calculator) savingThrowsFor(char *sw5e.Character, mods map[string]int, prof int) map[string]int {
	saves := make(map[string]int, len(mods))
	for ability, mod := range mods {
		saves[ability] = mod
	}
	classID := primaryClass(char)
	if c.savingThrows != SavesWithProficiency || classID == "" {
		return saves
	}

	// Saving throw proficiencies come from the starting class only.
	info := reference.Lookup(c.catalog, classID)
	for _, ability := range info.SavingThrows {
		if _, ok := saves[ability]; ok {
			saves[ability] += prof
		}
	}
	return saves
}

func skillModifiers(char *sw5e.Character, mods map[string]int, prof int) map[string]int {
	skills := make(map[string]int, len(sw5e.SkillAbilities))
	for skill, ability := range sw5e.SkillAbilities {
		value := mods[ability]
		if s, ok := char.Skills[skill]; ok {
			if s.Proficient {
				value += prof
			}
			if s.Expertise {
				value += prof
			}
		}
		skills[skill] = value
	}
	return skills
}

func passivePerception(char *sw5e.Character, skills, mods map[string]int) int {
	if s, ok := char.Skills[sw5e.SkillPerception]; ok && s.Proficient {
		return basePassivePerception + skills[sw5e.SkillPerception]
	}
	return basePassivePerception + mods[sw5e.AbilityWisdom]
}

// hitPointsMaximum sums every class entry: the entry's first level grants the
// full hit die, later levels the supplied roll or the fixed average, and
// every level adds the constitution modifier.
func (c *Calculator) hitPointsMaximum(char *sw5e.Character, conMod int) int {
	classes := char.Classes
	if len(classes) == 0 && char.Class != "" && char.Level > 0 {
		classes = []sw5e.ClassLevel{{ID: char.Class, Level: char.Level}}
	}

	total := 0
	for _, cl := range classes {
		if cl.Level <= 0 {
			continue
		}
		hitDie := reference.Lookup(c.catalog, cl.ID).HitDie
		total += hitDie + conMod
		for lvl := 2; lvl <= cl.Level; lvl++ {
			gain := AverageHitDie(hitDie)
			if i := lvl - 2; i < len(cl.HitPointRolls) && cl.HitPointRolls[i] > 0 {
				gain = cl.HitPointRolls[i]
			}
			total += gain + conMod
		}
	}
	return total
}

// powerPoints is the total character level plus the casting modifier when
// the primary class belongs to the tradition, else 0. A low modifier can
// make the pool negative.
func (c *Calculator) powerPoints(char *sw5e.Character, casting reference.Casting, mod int) int {
	classID := primaryClass(char)
	if classID == "" || reference.Lookup(c.catalog, classID).Casting != casting {
		return 0
	}
	return char.TotalLevel() + mod
}

// primaryClass is the starting class entry, or the single class field on
// characters without class entries
func primaryClass(char *sw5e.Character) string {
	if len(char.Classes) > 0 {
		return char.Classes[0].ID
	}
	return char.Class
}
