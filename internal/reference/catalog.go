// Package reference provides read-only class reference data: hit dice,
// casting tradition and saving throw proficiencies.
package reference

import (
	"strings"

	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
)

// DefaultHitDie is used for classes no catalog knows about
const DefaultHitDie = 8

// Casting identifies the power tradition a class draws on
type Casting string

// Casting traditions
const (
	CastingNone  Casting = ""
	CastingForce Casting = "force"
	CastingTech  Casting = "tech"
)

// ClassInfo is the reference data the engine needs for one class
type ClassInfo struct {
	ID           string
	Name         string
	HitDie       int
	Casting      Casting
	SavingThrows []string
}

// Catalog looks up class reference data by id.
// Implementations must be safe for concurrent readers.
type Catalog interface {
	Class(id string) (ClassInfo, bool)
}

// Static is an in-memory catalog keyed by lower-cased class id
type Static struct {
	classes map[string]ClassInfo
}

// NewStatic builds a catalog from the given classes
func NewStatic(classes ...ClassInfo) *Static {
	s := &Static{classes: make(map[string]ClassInfo, len(classes))}
	for _, c := range classes {
		s.classes[normalize(c.ID)] = c
	}
	return s
}

// Class implements Catalog
func (s *Static) Class(id string) (ClassInfo, bool) {
	info, ok := s.classes[normalize(id)]
	return info, ok
}

// Chain consults each catalog in order and returns the first hit
type Chain []Catalog

// Class implements Catalog
func (c Chain) Class(id string) (ClassInfo, bool) {
	for _, catalog := range c {
		if catalog == nil {
			continue
		}
		if info, ok := catalog.Class(id); ok {
			return info, true
		}
	}
	return ClassInfo{}, false
}

// Lookup returns the class info from catalog, or a d8 non-casting default
// when the class is unknown.
func Lookup(catalog Catalog, id string) ClassInfo {
	if catalog != nil {
		if info, ok := catalog.Class(id); ok {
			if info.HitDie <= 0 {
				info.HitDie = DefaultHitDie
			}
			return info
		}
	}
	return ClassInfo{ID: id, Name: id, HitDie: DefaultHitDie}
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Core returns the catalog of the SW5e core classes
func Core() *Static {
	return NewStatic(
		ClassInfo{
			ID: sw5e.ClassBerserker, Name: "Berserker", HitDie: 12,
			SavingThrows: []string{sw5e.AbilityStrength, sw5e.AbilityConstitution},
		},
		ClassInfo{
			ID: sw5e.ClassConsular, Name: "Consular", HitDie: 6, Casting: CastingForce,
			SavingThrows: []string{sw5e.AbilityWisdom, sw5e.AbilityCharisma},
		},
		ClassInfo{
			ID: sw5e.ClassEngineer, Name: "Engineer", HitDie: 8, Casting: CastingTech,
			SavingThrows: []string{sw5e.AbilityConstitution, sw5e.AbilityIntelligence},
		},
		ClassInfo{
			ID: sw5e.ClassFighter, Name: "Fighter", HitDie: 10,
			SavingThrows: []string{sw5e.AbilityStrength, sw5e.AbilityConstitution},
		},
		ClassInfo{
			ID: sw5e.ClassGuardian, Name: "Guardian", HitDie: 10, Casting: CastingForce,
			SavingThrows: []string{sw5e.AbilityConstitution, sw5e.AbilityCharisma},
		},
		ClassInfo{
			ID: sw5e.ClassMonk, Name: "Monk", HitDie: 8,
			SavingThrows: []string{sw5e.AbilityStrength, sw5e.AbilityDexterity},
		},
		ClassInfo{
			ID: sw5e.ClassOperative, Name: "Operative", HitDie: 8,
			SavingThrows: []string{sw5e.AbilityDexterity, sw5e.AbilityIntelligence},
		},
		ClassInfo{
			ID: sw5e.ClassScholar, Name: "Scholar", HitDie: 8,
			SavingThrows: []string{sw5e.AbilityIntelligence, sw5e.AbilityWisdom},
		},
		ClassInfo{
			ID: sw5e.ClassScout, Name: "Scout", HitDie: 10, Casting: CastingTech,
			SavingThrows: []string{sw5e.AbilityDexterity, sw5e.AbilityIntelligence},
		},
		ClassInfo{
			ID: sw5e.ClassSentinel, Name: "Sentinel", HitDie: 8, Casting: CastingForce,
			SavingThrows: []string{sw5e.AbilityDexterity, sw5e.AbilityCharisma},
		},
	)
}
