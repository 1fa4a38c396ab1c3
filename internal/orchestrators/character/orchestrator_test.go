package character_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/rpg-sheet/internal/engine"
	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/notify"
	"github.com/KirkDiggler/rpg-sheet/internal/orchestrators/character"
	"github.com/KirkDiggler/rpg-sheet/internal/pkg/clock"
	mockclock "github.com/KirkDiggler/rpg-sheet/internal/pkg/clock/mock"
	"github.com/KirkDiggler/rpg-sheet/internal/pkg/idgen"
	idgenmock "github.com/KirkDiggler/rpg-sheet/internal/pkg/idgen/mock"
	"github.com/KirkDiggler/rpg-sheet/internal/repositories/snapshot"
	"github.com/KirkDiggler/rpg-sheet/internal/validation"
)

func newCalculator(t *testing.T) *engine.Calculator {
	t.Helper()
	calc, err := engine.New(&engine.Config{})
	require.NoError(t, err)
	return calc
}

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedRoller struct {
	value int
	sizes []int
}

func (r *fixedRoller) Roll(size int) (int, error) {
	r.sizes = append(r.sizes, size)
	return r.value, nil
}

func (r *fixedRoller) RollN(count, size int) ([]int, error) {
	out := make([]int, 0, count)
	for i := 0; i < count; i++ {
		v, _ := r.Roll(size)
		out = append(out, v)
	}
	return out, nil
}

type OrchestratorTestSuite struct {
	suite.Suite

	ctx     context.Context
	clock   *clock.Stepper
	store   snapshot.Store
	bus     *notify.Bus
	adapter *snapshot.Adapter
	orch    *character.Orchestrator
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.NewStepper(testStart, time.Millisecond)
	s.store = snapshot.NewMemory()
	s.bus = notify.NewBus()
	s.adapter = s.newAdapter("tab-a")
	s.orch = s.newOrchestrator(s.adapter, "char", nil)
}

func (s *OrchestratorTestSuite) TearDownTest() {
	s.orch.Close()
	s.adapter.Close()
}

func (s *OrchestratorTestSuite) newAdapter(source string) *snapshot.Adapter {
	adapter, err := snapshot.NewAdapter(&snapshot.AdapterConfig{
		Store:       s.store,
		Broadcaster: s.bus,
		Source:      source,
	})
	s.Require().NoError(err)
	return adapter
}

func (s *OrchestratorTestSuite) newOrchestrator(adapter *snapshot.Adapter, idPrefix string, roller *fixedRoller) *character.Orchestrator {
	cfg := &character.Config{
		Store:       adapter,
		Calculator:  newCalculator(s.T()),
		Gate:        validation.New(),
		Clock:       s.clock,
		IDGenerator: idgen.NewSequential(idPrefix),
		AppName:     "SW5e Sheet",
	}
	if roller != nil {
		cfg.Roller = roller
	}
	orch, err := character.New(cfg)
	s.Require().NoError(err)
	return orch
}

func (s *OrchestratorTestSuite) create(name string) string {
	id, err := s.orch.Create(character.Patch{Name: character.Ptr(name)})
	s.Require().NoError(err)
	return id
}

func (s *OrchestratorTestSuite) get(id string) *sw5e.Character {
	c, err := s.orch.Get(id)
	s.Require().NoError(err)
	return c
}

func (s *OrchestratorTestSuite) TestNewValidatesConfig() {
	_, err := character.New(&character.Config{})
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
	fields := errors.FieldErrors(err)
	s.Contains(fields, "Calculator")
	s.Contains(fields, "Gate")

	_, err = character.New(nil)
	s.True(errors.IsInvalidArgument(err))
}

func (s *OrchestratorTestSuite) TestCreateUsesTemplate() {
	id, err := s.orch.Create(character.Patch{})
	s.Require().NoError(err)

	c := s.get(id)
	s.Equal("char_1", c.ID)
	s.Equal("New Character", c.Name)
	s.Equal("human", c.Species)
	s.Equal(sw5e.ClassFighter, c.Class)
	s.Equal(1, c.Level)
	s.Equal(10, c.AbilityScores.Strength)
	s.Equal(sw5e.HitPoints{Current: 1, Maximum: 1}, c.HitPoints)
	s.Equal([]sw5e.ClassLevel{{ID: sw5e.ClassFighter, Level: 1}}, c.Classes)
	s.Equal(1, c.Version)
	s.Equal(testStart, c.CreatedAt)
	s.Equal(c.CreatedAt, c.UpdatedAt)
	s.NoError(s.orch.Err())
}

func (s *OrchestratorTestSuite) TestCreateTwiceYieldsDistinctIDs() {
	partial := character.Patch{Name: character.Ptr("Kira Tal"), Class: character.Ptr(sw5e.ClassConsular)}

	first, err := s.orch.Create(partial)
	s.Require().NoError(err)
	second, err := s.orch.Create(partial)
	s.Require().NoError(err)

	s.NotEqual(first, second)
	s.Equal(1, s.get(first).Version)
	s.Equal(1, s.get(second).Version)
	s.Equal([]sw5e.ClassLevel{{ID: sw5e.ClassConsular, Level: 1}}, s.get(first).Classes)
}

func (s *OrchestratorTestSuite) TestFirstCharacterBecomesActive() {
	s.Nil(s.orch.Derived())

	first := s.create("Kira")
	s.create("Dorn")

	s.Equal(first, s.orch.ActiveID())
	s.Require().NotNil(s.orch.Derived())
	s.Equal(2, s.orch.Derived().ProficiencyBonus)
	s.Equal("Kira", s.orch.Active().Name)
}

func (s *OrchestratorTestSuite) TestCreateValidationIsNotFatal() {
	id, err := s.orch.Create(character.Patch{
		Name:          character.Ptr(""),
		AbilityScores: &sw5e.AbilityScores{Strength: 25, Dexterity: 10, Constitution: 10, Intelligence: 10, Wisdom: 10, Charisma: 10},
	})
	s.Require().NoError(err)
	s.NotEmpty(id)

	recorded := s.orch.Err()
	s.Require().Error(recorded)
	s.True(errors.IsInvalidArgument(recorded))
	fields := errors.FieldErrors(recorded)
	s.Contains(fields, "name")
	s.Contains(fields, "abilityScores.strength")

	s.Equal("", s.get(id).Name)
}

func (s *OrchestratorTestSuite) TestUpdateBumpsVersionAndTime() {
	id := s.create("Kira")
	before := s.get(id)

	s.Require().NoError(s.orch.Update(id, character.Patch{Level: character.Ptr(5)}))

	after := s.get(id)
	s.Equal(before.Version+1, after.Version)
	s.False(after.UpdatedAt.Before(before.UpdatedAt))
	s.Equal(5, after.Level)
	s.Equal([]sw5e.ClassLevel{{ID: sw5e.ClassFighter, Level: 5}}, after.Classes)
	s.Equal(3, s.orch.Derived().ProficiencyBonus)
}

func (s *OrchestratorTestSuite) TestUpdateNeverMovesTimeBackwards() {
	id := s.create("Kira")
	created := s.get(id).UpdatedAt

	s.clock.Advance(-time.Hour)
	s.Require().NoError(s.orch.Update(id, character.Patch{Notes: character.Ptr("rewound")}))

	s.Equal(created, s.get(id).UpdatedAt)
}

func (s *OrchestratorTestSuite) TestUpdateMissingCharacter() {
	err := s.orch.Update("nobody", character.Patch{Name: character.Ptr("x")})

	s.Require().Error(err)
	s.True(errors.IsNotFound(err))
	s.Equal("nobody", errors.GetMeta(err)["character_id"])
	s.Equal(err, s.orch.Err())
}

func (s *OrchestratorTestSuite) TestUpdateRejectsWholePatch() {
	id := s.create("Kira")
	pastBefore := s.orch.CanUndo()

	err := s.orch.Update(id, character.Patch{
		Name:    character.Ptr("Renamed"),
		Level:   character.Ptr(25),
		Credits: character.Ptr(-5),
	})

	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
	fields := errors.FieldErrors(err)
	s.Contains(fields, "level")
	s.Contains(fields, "credits")

	c := s.get(id)
	s.Equal("Kira", c.Name)
	s.Equal(1, c.Version)
	s.Equal(pastBefore, s.orch.CanUndo())
}

func (s *OrchestratorTestSuite) TestUpdateClassesDrivesLevel() {
	id := s.create("Kira")

	s.Require().NoError(s.orch.Update(id, character.Patch{Classes: []sw5e.ClassLevel{
		{ID: sw5e.ClassEngineer, Level: 3},
		{ID: sw5e.ClassScout, Level: 2},
	}}))

	c := s.get(id)
	s.Equal(5, c.Level)
	s.Equal(sw5e.ClassEngineer, c.Class)

	err := s.orch.Update(id, character.Patch{Level: character.Ptr(7)})
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
	s.Equal(5, s.get(id).Level)
}

func (s *OrchestratorTestSuite) TestDeleteOnlyActiveClearsActive() {
	id := s.create("Kira")

	s.Require().NoError(s.orch.Delete(id))

	s.Equal("", s.orch.ActiveID())
	s.Nil(s.orch.Derived())
	s.Nil(s.orch.Active())
	s.Empty(s.orch.List())
}

func (s *OrchestratorTestSuite) TestDeleteActiveReassigns() {
	first := s.create("Kira")
	second := s.create("Dorn")

	s.Require().NoError(s.orch.Delete(first))

	s.Equal(second, s.orch.ActiveID())
	s.NotNil(s.orch.Derived())

	err := s.orch.Delete(first)
	s.True(errors.IsNotFound(err))
}

func (s *OrchestratorTestSuite) TestSetActive() {
	s.create("Kira")
	second := s.create("Dorn")

	s.Require().NoError(s.orch.SetActive(second))
	s.Equal(second, s.orch.ActiveID())
	s.False(s.orch.CanRedo())

	err := s.orch.SetActive("missing")
	s.True(errors.IsNotFound(err))
	s.Equal(second, s.orch.ActiveID())
}

func (s *OrchestratorTestSuite) TestDerivedFor() {
	id, err := s.orch.Create(character.Patch{
		Classes:       []sw5e.ClassLevel{{ID: sw5e.ClassEngineer, Level: 4}},
		AbilityScores: &sw5e.AbilityScores{Strength: 10, Dexterity: 10, Constitution: 10, Intelligence: 14, Wisdom: 10, Charisma: 10},
	})
	s.Require().NoError(err)

	derived, err := s.orch.DerivedFor(id)
	s.Require().NoError(err)
	s.Equal(6, derived.TechPoints)
	s.Equal(0, derived.ForcePoints)

	_, err = s.orch.DerivedFor("missing")
	s.True(errors.IsNotFound(err))
}

func (s *OrchestratorTestSuite) TestClearError() {
	_ = s.orch.Delete("missing")
	s.Error(s.orch.Err())

	s.orch.ClearError()
	s.NoError(s.orch.Err())
}

func (s *OrchestratorTestSuite) TestSuccessfulOperationResetsError() {
	id := s.create("Kira")
	_ = s.orch.Delete("missing")
	s.Require().Error(s.orch.Err())

	s.Require().NoError(s.orch.Update(id, character.Patch{Notes: character.Ptr("ok")}))
	s.NoError(s.orch.Err())
}

func (s *OrchestratorTestSuite) TestNewIDsSkipTakenOnes() {
	ctrl := gomock.NewController(s.T())
	ids := idgenmock.NewMockGenerator(ctrl)
	clk := mockclock.NewMockClock(ctrl)

	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clk.EXPECT().Now().Return(at).AnyTimes()
	gomock.InOrder(
		ids.EXPECT().Generate().Return("hero"),
		ids.EXPECT().Generate().Return("hero"),
		ids.EXPECT().Generate().Return("sidekick"),
	)

	orch, err := character.New(&character.Config{
		Calculator:  newCalculator(s.T()),
		Gate:        validation.New(),
		Clock:       clk,
		IDGenerator: ids,
	})
	s.Require().NoError(err)

	first, err := orch.Create(character.Patch{})
	s.Require().NoError(err)
	second, err := orch.Create(character.Patch{})
	s.Require().NoError(err)

	s.Equal("hero", first)
	s.Equal("sidekick", second)
	c, err := orch.Get(second)
	s.Require().NoError(err)
	s.Equal(at, c.CreatedAt)
}

func (s *OrchestratorTestSuite) TestNewIDGivesUpOnStuckGenerator() {
	ctrl := gomock.NewController(s.T())
	ids := idgenmock.NewMockGenerator(ctrl)
	ids.EXPECT().Generate().Return("same").AnyTimes()

	orch, err := character.New(&character.Config{
		Calculator:  newCalculator(s.T()),
		Gate:        validation.New(),
		Clock:       s.clock,
		IDGenerator: ids,
	})
	s.Require().NoError(err)

	_, err = orch.Create(character.Patch{})
	s.Require().NoError(err)

	id, err := orch.DuplicateCharacter("same")
	s.Empty(id)
	s.True(errors.IsInternal(err))
	s.Len(orch.List(), 1)
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}
