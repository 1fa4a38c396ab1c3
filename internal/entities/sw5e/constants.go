package sw5e

// Class constants for the core SW5e classes
const (
	ClassBerserker = "berserker"
	ClassConsular  = "consular"
	ClassEngineer  = "engineer"
	ClassFighter   = "fighter"
	ClassGuardian  = "guardian"
	ClassMonk      = "monk"
	ClassOperative = "operative"
	ClassScholar   = "scholar"
	ClassScout     = "scout"
	ClassSentinel  = "sentinel"
)

// Ability constants, matching the JSON keys of AbilityScores
const (
	AbilityStrength     = "strength"
	AbilityDexterity    = "dexterity"
	AbilityConstitution = "constitution"
	AbilityIntelligence = "intelligence"
	AbilityWisdom       = "wisdom"
	AbilityCharisma     = "charisma"
)

// Abilities lists the six abilities in sheet order
var Abilities = []string{
	AbilityStrength,
	AbilityDexterity,
	AbilityConstitution,
	AbilityIntelligence,
	AbilityWisdom,
	AbilityCharisma,
}

// Skill constants
const (
	SkillAcrobatics     = "acrobatics"
	SkillAnimalHandling = "animalHandling"
	SkillAthletics      = "athletics"
	SkillDeception      = "deception"
	SkillInsight        = "insight"
	SkillIntimidation   = "intimidation"
	SkillInvestigation  = "investigation"
	SkillLore           = "lore"
	SkillMedicine       = "medicine"
	SkillNature         = "nature"
	SkillPerception     = "perception"
	SkillPerformance    = "performance"
	SkillPersuasion     = "persuasion"
	SkillPiloting       = "piloting"
	SkillSleightOfHand  = "sleightOfHand"
	SkillStealth        = "stealth"
	SkillSurvival       = "survival"
	SkillTechnology     = "technology"
)

// SkillAbilities maps every skill to the ability it keys off
var SkillAbilities = map[string]string{
	SkillAcrobatics:     AbilityDexterity,
	SkillAnimalHandling: AbilityWisdom,
	SkillAthletics:      AbilityStrength,
	SkillDeception:      AbilityCharisma,
	SkillInsight:        AbilityWisdom,
	SkillIntimidation:   AbilityCharisma,
	SkillInvestigation:  AbilityIntelligence,
	SkillLore:           AbilityIntelligence,
	SkillMedicine:       AbilityWisdom,
	SkillNature:         AbilityIntelligence,
	SkillPerception:     AbilityWisdom,
	SkillPerformance:    AbilityCharisma,
	SkillPersuasion:     AbilityCharisma,
	SkillPiloting:       AbilityIntelligence,
	SkillSleightOfHand:  AbilityDexterity,
	SkillStealth:        AbilityDexterity,
	SkillSurvival:       AbilityWisdom,
	SkillTechnology:     AbilityIntelligence,
}

// PowerKind distinguishes Force powers from tech powers
type PowerKind string

// Power kinds
const (
	PowerKindForce PowerKind = "force"
	PowerKindTech  PowerKind = "tech"
)

// Level bounds
const (
	MinLevel        = 1
	MaxLevel        = 20
	MinAbilityScore = 3
	MaxAbilityScore = 20
)
