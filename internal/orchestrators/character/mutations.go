package character

import (
	"log/slog"
	"time"

	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-sheet/internal/reference"
)

const maxIDAttempts = 16

// defaultCharacter is the template Create merges a patch over
func defaultCharacter() *sw5e.Character {
	return &sw5e.Character{
		Name:    "New Character",
		Species: "human",
		Class:   sw5e.ClassFighter,
		Level:   1,
		AbilityScores: &sw5e.AbilityScores{
			Strength:     10,
			Dexterity:    10,
			Constitution: 10,
			Intelligence: 10,
			Wisdom:       10,
			Charisma:     10,
		},
		Skills:    map[string]sw5e.Skill{},
		Powers:    []sw5e.Power{},
		Equipment: []sw5e.EquipmentItem{},
		HitPoints: sw5e.HitPoints{Current: 1, Maximum: 1},
		Classes:   []sw5e.ClassLevel{{ID: sw5e.ClassFighter, Level: 1}},
	}
}

// Create merges partial over the default template and inserts the result.
// Validation is not fatal here: violations are recorded in Err and the
// draft is stored anyway. The first character becomes active.
func (o *Orchestrator) Create(partial Patch) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = nil

	c := defaultCharacter()
	if err := partial.apply(c); err != nil {
		o.err = err
		return "", err
	}

	id, err := o.newID()
	if err != nil {
		o.err = err
		return "", err
	}
	now := o.clock.Now().UTC()
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Version = 1

	if err := o.gate.Validate(c); err != nil {
		o.err = asError(err)
		slog.Warn("character created with validation errors",
			"character_id", c.ID,
			"error", err.Error())
	}

	o.insert(c, now)
	slog.Info("character created", "character_id", c.ID, "name", c.Name)
	return c.ID, nil
}

// Update applies a partial update. Every value is range-checked first, so a
// rejected patch leaves the character untouched.
func (o *Orchestrator) Update(id string, partial Patch) error {
	if err := partial.check(); err != nil {
		return o.fail(err)
	}
	return o.mutate(id, partial.apply)
}

// Delete removes a character. When it was active the first remaining
// character becomes active.
func (o *Orchestrator) Delete(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = nil

	if !o.roster.Has(id) {
		o.err = notFound(id)
		return o.err
	}

	o.history.Record(o.entry())
	o.roster = o.roster.Delete(id)
	delete(o.touched, id)
	o.active = o.roster.ResolveActive(o.active)
	o.refreshDerived()
	o.schedule()

	slog.Info("character deleted", "character_id", id, "active_id", o.active)
	return nil
}

// SetActive switches the active character. It is not recorded in history.
func (o *Orchestrator) SetActive(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = nil

	if !o.roster.Has(id) {
		o.err = notFound(id)
		return o.err
	}

	o.active = id
	o.refreshDerived()
	o.schedule()
	return nil
}

// UpdateAbilityScores replaces all six ability scores
func (o *Orchestrator) UpdateAbilityScores(id string, scores sw5e.AbilityScores) error {
	return o.Update(id, Patch{AbilityScores: &scores})
}

// UpdatePersonality replaces the personality fields
func (o *Orchestrator) UpdatePersonality(id string, p sw5e.Personality) error {
	return o.Update(id, Patch{Personality: &p})
}

// UpdateHitPoints replaces the hit point pool
func (o *Orchestrator) UpdateHitPoints(id string, hp sw5e.HitPoints) error {
	return o.Update(id, Patch{HitPoints: &hp})
}

// AddPower adds a power the character does not know yet
func (o *Orchestrator) AddPower(id string, power sw5e.Power) error {
	vb := errors.NewValidationBuilder()
	checkPower(power, "power", vb)
	if err := vb.Build(); err != nil {
		return o.fail(err)
	}

	return o.mutate(id, func(c *sw5e.Character) error {
		if _, ok := c.FindPower(power.ID); ok {
			return errors.AlreadyExistsf("power %s already known", power.ID).WithMeta("power_id", power.ID)
		}
		c.Powers = append(c.Powers, power)
		return nil
	})
}

// RemovePower removes a known power
func (o *Orchestrator) RemovePower(id, powerID string) error {
	return o.mutate(id, func(c *sw5e.Character) error {
		i, ok := c.FindPower(powerID)
		if !ok {
			return errors.NotFoundf("power %s not found", powerID).WithMeta("power_id", powerID)
		}
		c.Powers = append(c.Powers[:i], c.Powers[i+1:]...)
		return nil
	})
}

// AddEquipment adds quantity of an item, stacking onto an existing entry
func (o *Orchestrator) AddEquipment(id, itemID string, quantity int) error {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("itemId", itemID, vb)
	if quantity < 1 {
		vb.Field("quantity", "must be at least 1")
	}
	if err := vb.Build(); err != nil {
		return o.fail(err)
	}

	return o.mutate(id, func(c *sw5e.Character) error {
		if i, ok := c.FindEquipment(itemID); ok {
			c.Equipment[i].Quantity += quantity
			return nil
		}
		c.Equipment = append(c.Equipment, sw5e.EquipmentItem{ID: itemID, Quantity: quantity})
		return nil
	})
}

// RemoveEquipment drops an item entry
func (o *Orchestrator) RemoveEquipment(id, itemID string) error {
	return o.mutate(id, func(c *sw5e.Character) error {
		i, ok := c.FindEquipment(itemID)
		if !ok {
			return errors.NotFoundf("equipment %s not found", itemID).WithMeta("item_id", itemID)
		}
		c.Equipment = append(c.Equipment[:i], c.Equipment[i+1:]...)
		return nil
	})
}

// UpdateEquipmentQuantity sets an item's quantity; zero or less removes it
func (o *Orchestrator) UpdateEquipmentQuantity(id, itemID string, quantity int) error {
	return o.mutate(id, func(c *sw5e.Character) error {
		i, ok := c.FindEquipment(itemID)
		if !ok {
			return errors.NotFoundf("equipment %s not found", itemID).WithMeta("item_id", itemID)
		}
		if quantity <= 0 {
			c.Equipment = append(c.Equipment[:i], c.Equipment[i+1:]...)
			return nil
		}
		c.Equipment[i].Quantity = quantity
		return nil
	})
}

// AddClassLevel adds a level in classID, creating the class entry when
// needed. Hit points for levels after an entry's first are rolled with the
// configured roller, or left to the fixed average.
func (o *Orchestrator) AddClassLevel(id, classID string) error {
	if classID == "" {
		return o.fail(errors.NewValidationBuilder().RequiredField("classId").Build())
	}

	return o.mutate(id, func(c *sw5e.Character) error {
		if c.TotalLevel() >= sw5e.MaxLevel {
			return errors.FailedPreconditionf("character is already level %d", sw5e.MaxLevel)
		}

		i, ok := c.FindClass(classID)
		if !ok {
			c.Classes = append(c.Classes, sw5e.ClassLevel{ID: classID, Level: 1})
			return syncLevel(c)
		}

		entry := &c.Classes[i]
		entry.Level++
		roll, err := o.rollHitDie(classID)
		if err != nil {
			return err
		}
		if roll > 0 || len(entry.HitPointRolls) > 0 {
			for len(entry.HitPointRolls) < entry.Level-2 {
				entry.HitPointRolls = append(entry.HitPointRolls, 0)
			}
			entry.HitPointRolls = append(entry.HitPointRolls, roll)
		}
		return syncLevel(c)
	})
}

// RemoveClassLevel removes a level from classID, dropping the entry at zero.
// A character always keeps at least one level.
func (o *Orchestrator) RemoveClassLevel(id, classID string) error {
	return o.mutate(id, func(c *sw5e.Character) error {
		i, ok := c.FindClass(classID)
		if !ok {
			return errors.NotFoundf("class %s not found on character", classID).WithMeta("class_id", classID)
		}
		if c.TotalLevel() <= sw5e.MinLevel {
			return errors.FailedPreconditionf("character must keep at least %d level", sw5e.MinLevel)
		}

		entry := &c.Classes[i]
		entry.Level--
		if entry.Level == 0 {
			c.Classes = append(c.Classes[:i], c.Classes[i+1:]...)
			return syncLevel(c)
		}
		if keep := entry.Level - 1; len(entry.HitPointRolls) > keep {
			entry.HitPointRolls = entry.HitPointRolls[:keep]
		}
		return syncLevel(c)
	})
}

// SetArchetype sets the archetype of one of the character's classes
func (o *Orchestrator) SetArchetype(id, classID, archetype string) error {
	return o.mutate(id, func(c *sw5e.Character) error {
		i, ok := c.FindClass(classID)
		if !ok {
			return errors.NotFoundf("class %s not found on character", classID).WithMeta("class_id", classID)
		}
		c.Classes[i].Archetype = archetype
		return nil
	})
}

// mutate runs fn against a copy of the character and, when it succeeds,
// records history, bumps the version and installs the copy.
func (o *Orchestrator) mutate(id string, fn func(c *sw5e.Character) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = nil

	current, ok := o.roster.Get(id)
	if !ok {
		o.err = notFound(id)
		return o.err
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		o.err = err
		return err
	}

	now := o.clock.Now().UTC()
	if now.Before(current.UpdatedAt) {
		now = current.UpdatedAt
	}
	next.UpdatedAt = now
	next.Version = current.Version + 1

	o.history.Record(o.entry())
	o.roster = o.roster.Put(next)
	o.touched[id] = clock.Millis(now)
	o.refreshDerived()
	o.schedule()
	return nil
}

// insert adds a new character, making it active when it is the first.
// Callers hold o.mu.
func (o *Orchestrator) insert(c *sw5e.Character, now time.Time) {
	o.history.Record(o.entry())
	o.roster = o.roster.Put(c)
	o.touched[c.ID] = clock.Millis(now)
	if o.active == "" {
		o.active = c.ID
	}
	o.refreshDerived()
	o.schedule()
}

// newID draws ids until one is free in the roster. Callers hold o.mu.
func (o *Orchestrator) newID() (string, error) {
	for range maxIDAttempts {
		id := o.ids.Generate()
		if !o.roster.Has(id) {
			return id, nil
		}
		slog.Debug("generated id already taken", "character_id", id)
	}
	return "", errors.Internal("no free character id")
}

// fail records an error raised before the roster is touched
func (o *Orchestrator) fail(err error) error {
	return o.record(err)
}

func (o *Orchestrator) rollHitDie(classID string) (int, error) {
	if o.roller == nil {
		return 0, nil
	}
	hitDie := reference.Lookup(o.calculator.Catalog(), classID).HitDie
	roll, err := o.roller.Roll(hitDie)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to roll d%d hit die", hitDie)
	}
	return roll, nil
}

// syncLevel keeps Level and Class in step with the class entries
func syncLevel(c *sw5e.Character) error {
	if len(c.Classes) == 0 {
		return errors.FailedPreconditionf("character must keep at least one class")
	}
	c.Level = c.TotalLevel()
	c.Class = c.Classes[0].ID
	return nil
}

// asError converts a gate result into the coded error recorded in Err
func asError(err error) error {
	if ve, ok := err.(*errors.ValidationError); ok && ve.HasErrors() {
		return ve.ToError()
	}
	return err
}
