package engine

// SavingThrowPolicy controls whether saving throws include proficiency
type SavingThrowPolicy int

const (
	// SavesAbilityOnly reports saving throws as the bare ability modifier.
	SavesAbilityOnly SavingThrowPolicy = iota
	// SavesWithProficiency adds the proficiency bonus to the saving throws
	// the character's first class is proficient in.
	SavesWithProficiency
)

// String returns the config name of the policy
func (p SavingThrowPolicy) String() string {
	switch p {
	case SavesWithProficiency:
		return "proficient"
	default:
		return "ability"
	}
}

// ParseSavingThrowPolicy maps a config value to a policy. Unknown values
// fall back to SavesAbilityOnly.
func ParseSavingThrowPolicy(s string) SavingThrowPolicy {
	if s == "proficient" {
		return SavesWithProficiency
	}
	return SavesAbilityOnly
}

// DerivedState holds every statistic computed from a character's core
// attributes. It is never persisted.
type DerivedState struct {
	AbilityModifiers  map[string]int `json:"abilityModifiers"`
	ProficiencyBonus  int            `json:"proficiencyBonus"`
	SavingThrows      map[string]int `json:"savingThrows"`
	SkillModifiers    map[string]int `json:"skillModifiers"`
	ArmorClass        int            `json:"armorClass"`
	Initiative        int            `json:"initiative"`
	HitPointsMaximum  int            `json:"hitPointsMaximum"`
	PassivePerception int            `json:"passivePerception"`
	ForcePoints       int            `json:"forcePoints"`
	TechPoints        int            `json:"techPoints"`
	MaxPowerLevel     int            `json:"maxPowerLevel"`
}

// EmptyState is returned for drafts without ability scores: every modifier is
// zero, armor class and passive perception sit at their base of 10, and the
// proficiency bonus still follows the level.
func EmptyState(level int) *DerivedState {
	return &DerivedState{
		AbilityModifiers:  map[string]int{},
		ProficiencyBonus:  ProficiencyBonus(level),
		SavingThrows:      map[string]int{},
		SkillModifiers:    map[string]int{},
		ArmorClass:        baseArmorClass,
		PassivePerception: basePassivePerception,
	}
}
