// Package builders provides test data builders for creating test fixtures
package builders

import (
	"time"

	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
)

// CharacterBuilder provides a fluent interface for building test Character instances
type CharacterBuilder struct {
	char *sw5e.Character
}

// NewCharacterBuilder creates a builder for a valid level 1 fighter
func NewCharacterBuilder() *CharacterBuilder {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &CharacterBuilder{
		char: &sw5e.Character{
			ID:         "char-test-123",
			Name:       "Kira Tal",
			Species:    "human",
			Class:      sw5e.ClassFighter,
			Level:      1,
			Background: "soldier",
			Alignment:  "neutral good",
			AbilityScores: &sw5e.AbilityScores{
				Strength:     15,
				Dexterity:    14,
				Constitution: 13,
				Intelligence: 12,
				Wisdom:       10,
				Charisma:     8,
			},
			Skills:    map[string]sw5e.Skill{},
			Powers:    []sw5e.Power{},
			Equipment: []sw5e.EquipmentItem{},
			HitPoints: sw5e.HitPoints{Current: 11, Maximum: 11},
			Classes:   []sw5e.ClassLevel{{ID: sw5e.ClassFighter, Level: 1}},
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		},
	}
}

// WithID sets the character ID
func (b *CharacterBuilder) WithID(id string) *CharacterBuilder {
	b.char.ID = id
	return b
}

// WithName sets the character name
func (b *CharacterBuilder) WithName(name string) *CharacterBuilder {
	b.char.Name = name
	return b
}

// WithSpecies sets the species
func (b *CharacterBuilder) WithSpecies(species string) *CharacterBuilder {
	b.char.Species = species
	return b
}

// WithClass makes the character single-class at its current level
func (b *CharacterBuilder) WithClass(classID string) *CharacterBuilder {
	b.char.Class = classID
	b.char.Classes = []sw5e.ClassLevel{{ID: classID, Level: b.char.Level}}
	return b
}

// WithLevel sets the level, keeping a single class entry in sync
func (b *CharacterBuilder) WithLevel(level int) *CharacterBuilder {
	b.char.Level = level
	if len(b.char.Classes) == 1 {
		b.char.Classes[0].Level = level
	}
	return b
}

// WithClasses replaces the class entries and sets level to their sum
func (b *CharacterBuilder) WithClasses(classes ...sw5e.ClassLevel) *CharacterBuilder {
	b.char.Classes = classes
	b.char.Level = b.char.TotalLevel()
	if len(classes) > 0 {
		b.char.Class = classes[0].ID
	}
	return b
}

// WithAbilityScores sets the ability scores
func (b *CharacterBuilder) WithAbilityScores(scores sw5e.AbilityScores) *CharacterBuilder {
	b.char.AbilityScores = &scores
	return b
}

// WithoutAbilityScores clears the ability scores, like an early draft
func (b *CharacterBuilder) WithoutAbilityScores() *CharacterBuilder {
	b.char.AbilityScores = nil
	return b
}

// WithSkill marks a skill proficient, optionally with expertise
func (b *CharacterBuilder) WithSkill(skill string, expertise bool) *CharacterBuilder {
	b.char.Skills[skill] = sw5e.Skill{Proficient: true, Expertise: expertise}
	return b
}

// WithEquipment adds an equipment entry
func (b *CharacterBuilder) WithEquipment(id string, quantity int) *CharacterBuilder {
	b.char.Equipment = append(b.char.Equipment, sw5e.EquipmentItem{ID: id, Quantity: quantity})
	return b
}

// WithPower adds a power
func (b *CharacterBuilder) WithPower(power sw5e.Power) *CharacterBuilder {
	b.char.Powers = append(b.char.Powers, power)
	return b
}

// WithVersion sets the version
func (b *CharacterBuilder) WithVersion(version int) *CharacterBuilder {
	b.char.Version = version
	return b
}

// WithUpdatedAt sets the update timestamp
func (b *CharacterBuilder) WithUpdatedAt(t time.Time) *CharacterBuilder {
	b.char.UpdatedAt = t
	return b
}

// Build returns a copy of the built character
func (b *CharacterBuilder) Build() *sw5e.Character {
	return b.char.Clone()
}
