package character_test

import (
	"encoding/json"

	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/orchestrators/character"
	"github.com/KirkDiggler/rpg-sheet/internal/services/conversion"
	"github.com/KirkDiggler/rpg-sheet/internal/testutils/builders"
)

func (s *OrchestratorTestSuite) TestUpdateAbilityScores() {
	id := s.create("Kira")
	scores := sw5e.AbilityScores{Strength: 16, Dexterity: 14, Constitution: 12, Intelligence: 10, Wisdom: 8, Charisma: 18}

	s.Require().NoError(s.orch.UpdateAbilityScores(id, scores))
	s.Equal(scores, *s.get(id).AbilityScores)
	s.Equal(3, s.orch.Derived().AbilityModifiers[sw5e.AbilityStrength])

	scores.Wisdom = 2
	err := s.orch.UpdateAbilityScores(id, scores)
	s.True(errors.IsInvalidArgument(err))
	s.Equal(8, s.get(id).AbilityScores.Wisdom)
}

func (s *OrchestratorTestSuite) TestUpdatePersonality() {
	id := s.create("Kira")
	p := sw5e.Personality{Traits: "Curious", Ideals: "Balance", Bonds: "Her master", Flaws: "Impatient"}

	s.Require().NoError(s.orch.UpdatePersonality(id, p))
	s.Equal(p, s.get(id).Personality)
}

func (s *OrchestratorTestSuite) TestUpdateHitPoints() {
	id := s.create("Kira")

	s.Require().NoError(s.orch.UpdateHitPoints(id, sw5e.HitPoints{Current: 4, Maximum: 12, Temporary: 3}))
	s.Equal(sw5e.HitPoints{Current: 4, Maximum: 12, Temporary: 3}, s.get(id).HitPoints)

	err := s.orch.UpdateHitPoints(id, sw5e.HitPoints{Current: -1, Maximum: 12})
	s.True(errors.IsInvalidArgument(err))
	s.Equal(4, s.get(id).HitPoints.Current)
}

func (s *OrchestratorTestSuite) TestPowers() {
	id := s.create("Kira")
	push := sw5e.Power{ID: "force-push", Name: "Force Push", Level: 1, Kind: sw5e.PowerKindForce}

	s.Require().NoError(s.orch.AddPower(id, push))
	s.Equal([]sw5e.Power{push}, s.get(id).Powers)

	err := s.orch.AddPower(id, push)
	s.True(errors.IsAlreadyExists(err))
	s.Len(s.get(id).Powers, 1)

	err = s.orch.AddPower(id, sw5e.Power{ID: "", Level: 12})
	s.True(errors.IsInvalidArgument(err))

	s.Require().NoError(s.orch.RemovePower(id, "force-push"))
	s.Empty(s.get(id).Powers)

	err = s.orch.RemovePower(id, "force-push")
	s.True(errors.IsNotFound(err))
	s.Equal("force-push", errors.GetMeta(err)["power_id"])
}

func (s *OrchestratorTestSuite) TestEquipmentStacks() {
	id := s.create("Kira")

	s.Require().NoError(s.orch.AddEquipment(id, "medpac", 2))
	s.Require().NoError(s.orch.AddEquipment(id, "medpac", 3))
	s.Require().NoError(s.orch.AddEquipment(id, "blaster-pistol", 1))

	s.Equal([]sw5e.EquipmentItem{
		{ID: "medpac", Quantity: 5},
		{ID: "blaster-pistol", Quantity: 1},
	}, s.get(id).Equipment)

	err := s.orch.AddEquipment(id, "medpac", 0)
	s.True(errors.IsInvalidArgument(err))
	s.Contains(errors.FieldErrors(err), "quantity")
}

func (s *OrchestratorTestSuite) TestUpdateEquipmentQuantity() {
	id := s.create("Kira")
	s.Require().NoError(s.orch.AddEquipment(id, "medpac", 2))
	s.Require().NoError(s.orch.AddEquipment(id, "glowrod", 1))

	s.Require().NoError(s.orch.UpdateEquipmentQuantity(id, "medpac", 7))
	s.Equal(7, s.get(id).Equipment[0].Quantity)

	s.Require().NoError(s.orch.UpdateEquipmentQuantity(id, "medpac", 0))
	s.Equal([]sw5e.EquipmentItem{{ID: "glowrod", Quantity: 1}}, s.get(id).Equipment)

	err := s.orch.UpdateEquipmentQuantity(id, "medpac", 1)
	s.True(errors.IsNotFound(err))

	s.Require().NoError(s.orch.RemoveEquipment(id, "glowrod"))
	s.Empty(s.get(id).Equipment)
	s.True(errors.IsNotFound(s.orch.RemoveEquipment(id, "glowrod")))
}

func (s *OrchestratorTestSuite) TestAddClassLevelRollsHitDie() {
	roller := &fixedRoller{value: 7}
	orch := s.newOrchestrator(nil, "roll", roller)
	defer orch.Close()

	id, err := orch.Create(character.Patch{
		AbilityScores: &sw5e.AbilityScores{Strength: 10, Dexterity: 10, Constitution: 13, Intelligence: 10, Wisdom: 10, Charisma: 10},
	})
	s.Require().NoError(err)

	s.Require().NoError(orch.AddClassLevel(id, sw5e.ClassFighter))

	c, err := orch.Get(id)
	s.Require().NoError(err)
	s.Equal(2, c.Level)
	s.Equal([]sw5e.ClassLevel{{ID: sw5e.ClassFighter, Level: 2, HitPointRolls: []int{7}}}, c.Classes)
	s.Equal([]int{10}, roller.sizes)
	s.Equal(19, orch.Derived().HitPointsMaximum)
}

func (s *OrchestratorTestSuite) TestAddClassLevelMulticlass() {
	id := s.create("Kira")

	s.Require().NoError(s.orch.AddClassLevel(id, sw5e.ClassConsular))

	c := s.get(id)
	s.Equal(2, c.Level)
	s.Equal(sw5e.ClassFighter, c.Class)
	s.Equal([]sw5e.ClassLevel{
		{ID: sw5e.ClassFighter, Level: 1},
		{ID: sw5e.ClassConsular, Level: 1},
	}, c.Classes)

	s.True(errors.IsInvalidArgument(s.orch.AddClassLevel(id, "")))
}

func (s *OrchestratorTestSuite) TestAddClassLevelStopsAtMaximum() {
	id := s.create("Kira")
	s.Require().NoError(s.orch.Update(id, character.Patch{Level: character.Ptr(sw5e.MaxLevel)}))

	err := s.orch.AddClassLevel(id, sw5e.ClassFighter)

	s.True(errors.IsFailedPrecondition(err))
	s.Equal(sw5e.MaxLevel, s.get(id).Level)
}

func (s *OrchestratorTestSuite) TestRemoveClassLevel() {
	id := s.create("Kira")
	s.Require().NoError(s.orch.AddClassLevel(id, sw5e.ClassScout))

	s.Require().NoError(s.orch.RemoveClassLevel(id, sw5e.ClassFighter))
	c := s.get(id)
	s.Equal(1, c.Level)
	s.Equal(sw5e.ClassScout, c.Class)
	s.Equal([]sw5e.ClassLevel{{ID: sw5e.ClassScout, Level: 1}}, c.Classes)

	err := s.orch.RemoveClassLevel(id, sw5e.ClassScout)
	s.True(errors.IsFailedPrecondition(err))
	s.Equal(1, s.get(id).Level)

	s.True(errors.IsNotFound(s.orch.RemoveClassLevel(id, sw5e.ClassFighter)))
}

func (s *OrchestratorTestSuite) TestSetArchetype() {
	id := s.create("Kira")

	s.Require().NoError(s.orch.SetArchetype(id, sw5e.ClassFighter, "Tactical Specialist"))
	s.Equal("Tactical Specialist", s.get(id).Classes[0].Archetype)

	err := s.orch.SetArchetype(id, sw5e.ClassOperative, "Gunslinger")
	s.True(errors.IsNotFound(err))
	s.Equal(sw5e.ClassOperative, errors.GetMeta(err)["class_id"])
}

func (s *OrchestratorTestSuite) TestUndoRestoresEveryStep() {
	id := s.create("Kira")
	original := s.orch.List()

	s.Require().NoError(s.orch.Update(id, character.Patch{Name: character.Ptr("Kira Tal")}))
	s.Require().NoError(s.orch.AddEquipment(id, "medpac", 1))
	s.Require().NoError(s.orch.AddPower(id, sw5e.Power{ID: "saber-throw", Level: 1}))

	for i := 0; i < 3; i++ {
		s.True(s.orch.Undo())
	}

	s.Equal(original, s.orch.List())
	s.Equal(id, s.orch.ActiveID())
	s.True(s.orch.CanRedo())

	s.True(s.orch.Redo())
	s.Equal("Kira Tal", s.get(id).Name)
}

func (s *OrchestratorTestSuite) TestMutationAfterUndoClearsRedo() {
	id := s.create("Kira")
	s.Require().NoError(s.orch.Update(id, character.Patch{Notes: character.Ptr("one")}))

	s.True(s.orch.Undo())
	s.True(s.orch.CanRedo())

	s.Require().NoError(s.orch.Update(id, character.Patch{Notes: character.Ptr("two")}))
	s.False(s.orch.CanRedo())
	s.False(s.orch.Redo())
}

func (s *OrchestratorTestSuite) TestUndoCreateClearsActive() {
	s.create("Kira")

	s.True(s.orch.Undo())

	s.Empty(s.orch.List())
	s.Equal("", s.orch.ActiveID())
	s.Nil(s.orch.Derived())
	s.False(s.orch.Undo())
}

func (s *OrchestratorTestSuite) TestUndoDeleteRestoresActive() {
	first := s.create("Kira")
	second := s.create("Dorn")
	s.Require().Equal(first, s.orch.ActiveID())

	s.Require().NoError(s.orch.Delete(first))
	s.Equal(second, s.orch.ActiveID())

	s.True(s.orch.Undo())
	s.Equal(first, s.orch.ActiveID())
	s.Len(s.orch.List(), 2)
	s.Equal("Kira", s.orch.Active().Name)
	s.NotNil(s.orch.Derived())

	s.True(s.orch.Redo())
	s.Equal(second, s.orch.ActiveID())
}

func (s *OrchestratorTestSuite) TestStopHistoryTracking() {
	s.True(s.orch.IsTracking())
	id := s.create("Kira")

	s.orch.StopHistoryTracking()
	s.False(s.orch.IsTracking())
	s.Require().NoError(s.orch.Update(id, character.Patch{Notes: character.Ptr("untracked")}))

	s.orch.StartHistoryTracking()
	s.True(s.orch.IsTracking())

	s.True(s.orch.Undo())
	s.Empty(s.orch.List())
	s.False(s.orch.CanUndo())
}

func (s *OrchestratorTestSuite) TestExportImportRoundTrip() {
	id := s.create("Kira")
	s.Require().NoError(s.orch.AddEquipment(id, "medpac", 2))
	s.Require().NoError(s.orch.SetArchetype(id, sw5e.ClassFighter, "Assault Specialist"))
	original := s.get(id)

	text, err := s.orch.ExportCharacter(id)
	s.Require().NoError(err)

	doc, err := conversion.Decode([]byte(text))
	s.Require().NoError(err)
	s.Equal(conversion.SchemaVersion, doc.SchemaVersion)
	s.Equal("SW5e Sheet", doc.ApplicationName)

	newID, err := s.orch.ImportCharacter(text)
	s.Require().NoError(err)
	s.NotEqual(id, newID)

	imported := s.get(newID)
	s.Equal(original.Version+1, imported.Version)
	imported.ID = original.ID
	imported.Version = original.Version
	s.Equal(original, imported)
}

func (s *OrchestratorTestSuite) TestImportBareCharacter() {
	bare := builderJSON(s)

	id, err := s.orch.ImportCharacter(bare)
	s.Require().NoError(err)

	c := s.get(id)
	s.Equal("Kira Tal", c.Name)
	s.Equal(2, c.Version)
}

func (s *OrchestratorTestSuite) TestImportInvalidLeavesRosterUnchanged() {
	s.create("Kira")
	before := s.orch.List()

	id, err := s.orch.ImportCharacter(`{"id":"x","name":"","level":40}`)

	s.Equal("", id)
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
	s.Equal(err, s.orch.Err())
	s.Contains(errors.FieldErrors(err), "name")
	s.Equal(before, s.orch.List())
}

func (s *OrchestratorTestSuite) TestImportMalformed() {
	id, err := s.orch.ImportCharacter("not json")

	s.Equal("", id)
	s.True(errors.IsSerialization(err))
	s.Empty(s.orch.List())
}

func (s *OrchestratorTestSuite) TestExportMissing() {
	text, err := s.orch.ExportCharacter("missing")

	s.Equal("", text)
	s.True(errors.IsNotFound(err))
}

func (s *OrchestratorTestSuite) TestDuplicateCharacter() {
	id := s.create("Kira")
	s.Require().NoError(s.orch.AddEquipment(id, "medpac", 2))

	copyID, err := s.orch.DuplicateCharacter(id)
	s.Require().NoError(err)

	original := s.get(id)
	dup := s.get(copyID)
	s.NotEqual(id, copyID)
	s.Equal("Kira (Copy)", dup.Name)
	s.Equal(1, dup.Version)
	s.Equal(original.Equipment, dup.Equipment)
	s.True(dup.CreatedAt.After(original.CreatedAt))
	s.Equal(id, s.orch.ActiveID())

	dup.Equipment[0].Quantity = 99
	s.Equal(2, s.get(copyID).Equipment[0].Quantity)

	_, err = s.orch.DuplicateCharacter("missing")
	s.True(errors.IsNotFound(err))
}

func builderJSON(s *OrchestratorTestSuite) string {
	c := builders.NewCharacterBuilder().WithID("legacy-1").Build()
	data, err := json.Marshal(c)
	s.Require().NoError(err)
	return string(data)
}
