// Package sw5e holds the character record of the SW5e rule set.
package sw5e

import (
	"time"

	"github.com/KirkDiggler/rpg-toolkit/core"
)

// EntityType is the rpg-toolkit entity type of a Character
const EntityType = "character"

// Character is a single player character.
// NOTE: This is a data-only struct. Modifiers, hit point maximums and power
// pools are computed by the engine package and never stored here.
type Character struct {
	ID            string           `json:"id" validate:"charid"`
	Name          string           `json:"name" validate:"required"`
	Species       string           `json:"species" validate:"required"`
	Class         string           `json:"class" validate:"required"`
	Level         int              `json:"level" validate:"min=1,max=20"`
	Background    string           `json:"background"`
	Alignment     string           `json:"alignment"`
	AbilityScores *AbilityScores   `json:"abilityScores,omitempty"`
	Skills        map[string]Skill `json:"skills"`
	Powers        []Power          `json:"powers" validate:"dive"`
	Equipment     []EquipmentItem  `json:"equipment" validate:"dive"`
	Credits       int              `json:"credits" validate:"min=0"`
	Experience    int              `json:"experience" validate:"min=0"`
	HitPoints     HitPoints        `json:"hitPoints"`
	Personality   Personality      `json:"personality"`
	Notes         string           `json:"notes"`
	Classes       []ClassLevel     `json:"classes" validate:"dive"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	Version       int              `json:"version" validate:"min=1"`
}

// AbilityScores holds the six core ability scores
type AbilityScores struct {
	Strength     int `json:"strength" validate:"min=3,max=20"`
	Dexterity    int `json:"dexterity" validate:"min=3,max=20"`
	Constitution int `json:"constitution" validate:"min=3,max=20"`
	Intelligence int `json:"intelligence" validate:"min=3,max=20"`
	Wisdom       int `json:"wisdom" validate:"min=3,max=20"`
	Charisma     int `json:"charisma" validate:"min=3,max=20"`
}

// Skill is the proficiency state of one skill
type Skill struct {
	Proficient bool `json:"proficient"`
	Expertise  bool `json:"expertise,omitempty"`
}

// Power is a known Force or tech power
type Power struct {
	ID    string    `json:"id" validate:"required"`
	Name  string    `json:"name"`
	Level int       `json:"level" validate:"min=0,max=9"`
	Kind  PowerKind `json:"kind,omitempty" validate:"omitempty,oneof=force tech"`
}

// EquipmentItem is a carried item reference with a quantity
type EquipmentItem struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

// HitPoints tracks the current hit point pool
type HitPoints struct {
	Current   int `json:"current" validate:"min=0"`
	Maximum   int `json:"maximum" validate:"min=0"`
	Temporary int `json:"temporary" validate:"min=0"`
}

// Personality holds the roleplay fields of the sheet
type Personality struct {
	Traits     string `json:"traits"`
	Ideals     string `json:"ideals"`
	Bonds      string `json:"bonds"`
	Flaws      string `json:"flaws"`
	Appearance string `json:"appearance"`
	Backstory  string `json:"backstory"`
}

// ClassLevel is one entry of a (possibly multiclass) character.
// HitPointRolls holds the rolled hit die for levels 2..Level of this class;
// missing entries fall back to the fixed average.
type ClassLevel struct {
	ID            string `json:"id" validate:"required"`
	Level         int    `json:"level" validate:"min=1,max=20"`
	Archetype     string `json:"archetype,omitempty"`
	HitPointRolls []int  `json:"hitPointRolls,omitempty"`
}

var _ core.Entity = (*Character)(nil)

// GetID returns the character's ID
func (c *Character) GetID() string {
	return c.ID
}

// GetType returns the entity type for rpg-toolkit
func (c *Character) GetType() string {
	return EntityType
}

// TotalLevel returns the sum of all class levels, or Level when the
// character has no class entries yet.
func (c *Character) TotalLevel() int {
	if len(c.Classes) == 0 {
		return c.Level
	}
	total := 0
	for _, cl := range c.Classes {
		total += cl.Level
	}
	return total
}

// FindClass returns the index of the class entry with the given id
func (c *Character) FindClass(classID string) (int, bool) {
	for i := range c.Classes {
		if c.Classes[i].ID == classID {
			return i, true
		}
	}
	return -1, false
}

// FindEquipment returns the index of the equipment entry with the given id
func (c *Character) FindEquipment(itemID string) (int, bool) {
	for i := range c.Equipment {
		if c.Equipment[i].ID == itemID {
			return i, true
		}
	}
	return -1, false
}

// FindPower returns the index of the power with the given id
func (c *Character) FindPower(powerID string) (int, bool) {
	for i := range c.Powers {
		if c.Powers[i].ID == powerID {
			return i, true
		}
	}
	return -1, false
}

// Score returns the score for the named ability
func (a *AbilityScores) Score(ability string) int {
	switch ability {
	case AbilityStrength:
		return a.Strength
	case AbilityDexterity:
		return a.Dexterity
	case AbilityConstitution:
		return a.Constitution
	case AbilityIntelligence:
		return a.Intelligence
	case AbilityWisdom:
		return a.Wisdom
	case AbilityCharisma:
		return a.Charisma
	default:
		return 0
	}
}

// Clone returns a deep copy so roster snapshots never share mutable state
func (c *Character) Clone() *Character {
	if c == nil {
		return nil
	}

	out := *c
	if c.AbilityScores != nil {
		scores := *c.AbilityScores
		out.AbilityScores = &scores
	}
	if c.Skills != nil {
		out.Skills = make(map[string]Skill, len(c.Skills))
		for k, v := range c.Skills {
			out.Skills[k] = v
		}
	}
	out.Powers = cloneSlice(c.Powers)
	out.Equipment = cloneSlice(c.Equipment)
	out.Classes = cloneSlice(c.Classes)
	for i := range out.Classes {
		out.Classes[i].HitPointRolls = cloneSlice(out.Classes[i].HitPointRolls)
	}
	return &out
}

// cloneSlice copies s, keeping nil and empty distinct for JSON round trips
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
