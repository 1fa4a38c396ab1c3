package character

import (
	"strconv"
	"time"

	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
	"github.com/KirkDiggler/rpg-sheet/internal/errors"
)

// Patch is a partial character update. Nil fields are left unchanged; a
// non-nil slice or map, even an empty one, replaces the current value.
type Patch struct {
	Name          *string
	Species       *string
	Class         *string
	Level         *int
	Background    *string
	Alignment     *string
	AbilityScores *sw5e.AbilityScores
	Skills        map[string]sw5e.Skill
	Powers        []sw5e.Power
	Equipment     []sw5e.EquipmentItem
	Credits       *int
	Experience    *int
	HitPoints     *sw5e.HitPoints
	Personality   *sw5e.Personality
	Notes         *string
	Classes       []sw5e.ClassLevel
}

// Ptr returns a pointer to v, for building patches
func Ptr[T any](v T) *T {
	return &v
}

// ConflictWarning records a remote change discarded by last-writer-wins.
// It is informational and never returned as an error.
type ConflictWarning struct {
	CharacterID   string
	Source        string
	LocalVersion  int64
	RemoteVersion int64
	At            time.Time
}

// Reconciliation summarizes how a remote change was applied
type Reconciliation struct {
	Source    string
	Added     []string
	Updated   []string
	Removed   []string
	Conflicts []ConflictWarning
}

// Changed reports whether the local roster was modified
func (r Reconciliation) Changed() bool {
	return len(r.Added)+len(r.Updated)+len(r.Removed) > 0
}

// check range-checks every value the patch sets, so a failing patch is
// rejected before any field is applied.
func (p *Patch) check() error {
	vb := errors.NewValidationBuilder()

	if p.Name != nil {
		errors.ValidateRequired("name", *p.Name, vb)
	}
	if p.Species != nil {
		errors.ValidateRequired("species", *p.Species, vb)
	}
	if p.Class != nil {
		errors.ValidateRequired("class", *p.Class, vb)
	}
	if p.Level != nil {
		errors.ValidateRange("level", *p.Level, sw5e.MinLevel, sw5e.MaxLevel, vb)
	}
	if p.AbilityScores != nil {
		checkAbilityScores(*p.AbilityScores, vb)
	}
	if p.Credits != nil {
		errors.ValidateNonNegative("credits", *p.Credits, vb)
	}
	if p.Experience != nil {
		errors.ValidateNonNegative("experience", *p.Experience, vb)
	}
	if p.HitPoints != nil {
		checkHitPoints(*p.HitPoints, vb)
	}
	for i, pw := range p.Powers {
		checkPower(pw, "powers["+strconv.Itoa(i)+"]", vb)
	}
	for i, item := range p.Equipment {
		field := "equipment[" + strconv.Itoa(i) + "]"
		errors.ValidateRequired(field+".id", item.ID, vb)
		errors.ValidateNonNegative(field+".quantity", item.Quantity, vb)
	}
	if p.Classes != nil {
		checkClasses(p.Classes, vb)
	}
	for skill := range p.Skills {
		if _, ok := sw5e.SkillAbilities[skill]; !ok {
			vb.Field("skills."+skill, "is not a known skill")
		}
	}

	return vb.Build()
}

// apply writes the patch onto c, keeping level, class and the class entries
// in step with each other.
func (p *Patch) apply(c *sw5e.Character) error {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Species != nil {
		c.Species = *p.Species
	}
	if p.Background != nil {
		c.Background = *p.Background
	}
	if p.Alignment != nil {
		c.Alignment = *p.Alignment
	}
	if p.AbilityScores != nil {
		scores := *p.AbilityScores
		c.AbilityScores = &scores
	}
	if p.Skills != nil {
		c.Skills = make(map[string]sw5e.Skill, len(p.Skills))
		for k, v := range p.Skills {
			c.Skills[k] = v
		}
	}
	if p.Powers != nil {
		c.Powers = append([]sw5e.Power{}, p.Powers...)
	}
	if p.Equipment != nil {
		c.Equipment = append([]sw5e.EquipmentItem{}, p.Equipment...)
	}
	if p.Credits != nil {
		c.Credits = *p.Credits
	}
	if p.Experience != nil {
		c.Experience = *p.Experience
	}
	if p.HitPoints != nil {
		c.HitPoints = *p.HitPoints
	}
	if p.Personality != nil {
		c.Personality = *p.Personality
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}

	if p.Classes != nil {
		c.Classes = make([]sw5e.ClassLevel, len(p.Classes))
		for i, cl := range p.Classes {
			cl.HitPointRolls = append([]int(nil), cl.HitPointRolls...)
			c.Classes[i] = cl
		}
		if len(c.Classes) > 0 {
			c.Class = c.Classes[0].ID
			c.Level = c.TotalLevel()
		}
		if p.Level != nil && *p.Level != c.Level {
			return errors.InvalidArgumentf("level %d does not match class levels totalling %d", *p.Level, c.Level).
				WithMeta("field", "level")
		}
		return nil
	}

	if p.Class != nil {
		c.Class = *p.Class
		if len(c.Classes) == 1 && c.Classes[0].ID != c.Class {
			c.Classes[0] = sw5e.ClassLevel{ID: c.Class, Level: c.Classes[0].Level}
		}
	}
	if p.Level != nil {
		switch len(c.Classes) {
		case 0:
			c.Level = *p.Level
		case 1:
			c.Level = *p.Level
			c.Classes[0].Level = *p.Level
			if keep := *p.Level - 1; len(c.Classes[0].HitPointRolls) > keep {
				c.Classes[0].HitPointRolls = c.Classes[0].HitPointRolls[:keep]
			}
		default:
			if *p.Level != c.TotalLevel() {
				return errors.InvalidArgumentf("level of a multiclass character follows its class levels (%d)", c.TotalLevel()).
					WithMeta("field", "level")
			}
		}
	}
	return nil
}

func checkAbilityScores(a sw5e.AbilityScores, vb *errors.ValidationBuilder) {
	for _, ability := range sw5e.Abilities {
		errors.ValidateRange("abilityScores."+ability, a.Score(ability), sw5e.MinAbilityScore, sw5e.MaxAbilityScore, vb)
	}
}

func checkHitPoints(hp sw5e.HitPoints, vb *errors.ValidationBuilder) {
	errors.ValidateNonNegative("hitPoints.current", hp.Current, vb)
	errors.ValidateNonNegative("hitPoints.maximum", hp.Maximum, vb)
	errors.ValidateNonNegative("hitPoints.temporary", hp.Temporary, vb)
}

func checkPower(pw sw5e.Power, field string, vb *errors.ValidationBuilder) {
	errors.ValidateRequired(field+".id", pw.ID, vb)
	errors.ValidateRange(field+".level", pw.Level, 0, 9, vb)
	if pw.Kind != "" {
		errors.ValidateEnum(field+".kind", string(pw.Kind),
			[]string{string(sw5e.PowerKindForce), string(sw5e.PowerKindTech)}, vb)
	}
}

func checkClasses(classes []sw5e.ClassLevel, vb *errors.ValidationBuilder) {
	total := 0
	for i, cl := range classes {
		field := "classes[" + strconv.Itoa(i) + "]"
		errors.ValidateRequired(field+".id", cl.ID, vb)
		errors.ValidateRange(field+".level", cl.Level, sw5e.MinLevel, sw5e.MaxLevel, vb)
		total += cl.Level
	}
	if total > sw5e.MaxLevel {
		vb.Fieldf("classes", "total level must be at most %d", sw5e.MaxLevel)
	}
}
