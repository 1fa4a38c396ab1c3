package sw5e_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
)

func TestTotalLevel(t *testing.T) {
	t.Run("falls back to level without classes", func(t *testing.T) {
		c := &sw5e.Character{Level: 3}
		assert.Equal(t, 3, c.TotalLevel())
	})

	t.Run("sums multiclass entries", func(t *testing.T) {
		c := &sw5e.Character{
			Level: 1,
			Classes: []sw5e.ClassLevel{
				{ID: sw5e.ClassEngineer, Level: 3},
				{ID: sw5e.ClassScout, Level: 2},
			},
		}
		assert.Equal(t, 5, c.TotalLevel())
	})
}

func TestCloneIsDeep(t *testing.T) {
	original := &sw5e.Character{
		ID:            "char-1",
		Name:          "Kira",
		AbilityScores: &sw5e.AbilityScores{Strength: 10, Dexterity: 14},
		Skills:        map[string]sw5e.Skill{sw5e.SkillPiloting: {Proficient: true}},
		Powers:        []sw5e.Power{{ID: "force-push", Level: 1, Kind: sw5e.PowerKindForce}},
		Equipment:     []sw5e.EquipmentItem{{ID: "blaster-pistol", Quantity: 1}},
		Classes:       []sw5e.ClassLevel{{ID: sw5e.ClassScout, Level: 2, HitPointRolls: []int{7}}},
	}

	clone := original.Clone()
	require.Equal(t, original, clone)

	clone.AbilityScores.Strength = 18
	clone.Skills[sw5e.SkillStealth] = sw5e.Skill{Proficient: true}
	clone.Powers[0].Level = 3
	clone.Equipment[0].Quantity = 5
	clone.Classes[0].HitPointRolls[0] = 1

	assert.Equal(t, 10, original.AbilityScores.Strength)
	assert.NotContains(t, original.Skills, sw5e.SkillStealth)
	assert.Equal(t, 1, original.Powers[0].Level)
	assert.Equal(t, 1, original.Equipment[0].Quantity)
	assert.Equal(t, 7, original.Classes[0].HitPointRolls[0])
}

func TestCloneKeepsNilAndEmptyDistinct(t *testing.T) {
	c := &sw5e.Character{Powers: []sw5e.Power{}}
	clone := c.Clone()

	assert.NotNil(t, clone.Powers)
	assert.Nil(t, clone.Equipment)
	assert.Nil(t, (*sw5e.Character)(nil).Clone())
}

func TestEntity(t *testing.T) {
	c := &sw5e.Character{ID: "char-9"}
	assert.Equal(t, "char-9", c.GetID())
	assert.Equal(t, sw5e.EntityType, c.GetType())
}

func TestAbilityScore(t *testing.T) {
	scores := &sw5e.AbilityScores{Strength: 8, Wisdom: 15}
	assert.Equal(t, 8, scores.Score(sw5e.AbilityStrength))
	assert.Equal(t, 15, scores.Score(sw5e.AbilityWisdom))
	assert.Equal(t, 0, scores.Score("luck"))
}
