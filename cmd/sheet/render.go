package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/KirkDiggler/rpg-sheet/internal/engine"
	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD700"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5F87AF")).
			Padding(0, 1)
)

var abilityLabels = map[string]string{
	sw5e.AbilityStrength:     "STR",
	sw5e.AbilityDexterity:    "DEX",
	sw5e.AbilityConstitution: "CON",
	sw5e.AbilityIntelligence: "INT",
	sw5e.AbilityWisdom:       "WIS",
	sw5e.AbilityCharisma:     "CHA",
}

// renderSheet draws a character and its derived statistics
func renderSheet(c *sw5e.Character, d *engine.DerivedState, active bool) string {
	header := titleStyle.Render(c.Name)
	if active {
		header += subtleStyle.Render("  (active)")
	}
	summary := subtleStyle.Render(fmt.Sprintf("%s %s, level %d  |  %s  |  v%d",
		c.Species, classSummary(c), c.Level, c.ID, c.Version))

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		sectionStyle.Render(abilitiesBlock(c, d)),
		sectionStyle.Render(combatBlock(c, d)),
	)

	blocks := []string{header, summary, top}
	if s := skillsBlock(c, d); s != "" {
		blocks = append(blocks, sectionStyle.Render(s))
	}
	if s := inventoryBlock(c); s != "" {
		blocks = append(blocks, sectionStyle.Render(s))
	}
	if c.Notes != "" {
		blocks = append(blocks, labelStyle.Render("Notes")+"\n"+c.Notes)
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func classSummary(c *sw5e.Character) string {
	if len(c.Classes) == 0 {
		return c.Class
	}
	parts := make([]string, 0, len(c.Classes))
	for _, cl := range c.Classes {
		part := fmt.Sprintf("%s %d", cl.ID, cl.Level)
		if cl.Archetype != "" {
			part += " (" + cl.Archetype + ")"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " / ")
}

func abilitiesBlock(c *sw5e.Character, d *engine.DerivedState) string {
	lines := []string{labelStyle.Render("Abilities")}
	if c.AbilityScores == nil {
		return strings.Join(append(lines, subtleStyle.Render("not rolled yet")), "\n")
	}
	for _, ability := range sw5e.Abilities {
		lines = append(lines, fmt.Sprintf("%s %2d (%s)  save %s",
			abilityLabels[ability],
			c.AbilityScores.Score(ability),
			signed(d.AbilityModifiers[ability]),
			signed(d.SavingThrows[ability])))
	}
	return strings.Join(lines, "\n")
}

func combatBlock(c *sw5e.Character, d *engine.DerivedState) string {
	hp := fmt.Sprintf("%d / %d", c.HitPoints.Current, c.HitPoints.Maximum)
	if c.HitPoints.Temporary > 0 {
		hp += fmt.Sprintf(" +%d temp", c.HitPoints.Temporary)
	}
	lines := []string{
		labelStyle.Render("Combat"),
		fmt.Sprintf("Armor class      %d", d.ArmorClass),
		fmt.Sprintf("Initiative       %s", signed(d.Initiative)),
		fmt.Sprintf("Hit points       %s (max %d)", hp, d.HitPointsMaximum),
		fmt.Sprintf("Proficiency      %s", signed(d.ProficiencyBonus)),
		fmt.Sprintf("Passive percep.  %d", d.PassivePerception),
	}
	if d.ForcePoints > 0 {
		lines = append(lines, fmt.Sprintf("Force points     %d", d.ForcePoints))
	}
	if d.TechPoints > 0 {
		lines = append(lines, fmt.Sprintf("Tech points      %d", d.TechPoints))
	}
	if d.ForcePoints > 0 || d.TechPoints > 0 {
		lines = append(lines, fmt.Sprintf("Max power level  %d", d.MaxPowerLevel))
	}
	lines = append(lines, fmt.Sprintf("Credits          %d", c.Credits))
	return strings.Join(lines, "\n")
}

func skillsBlock(c *sw5e.Character, d *engine.DerivedState) string {
	var names []string
	for skill, s := range c.Skills {
		if s.Proficient || s.Expertise {
			names = append(names, skill)
		}
	}
	if len(names) == 0 {
		return ""
	}
	slices.Sort(names)

	lines := []string{labelStyle.Render("Skills")}
	for _, skill := range names {
		mark := ""
		if c.Skills[skill].Expertise {
			mark = " *"
		}
		lines = append(lines, fmt.Sprintf("%-16s %s%s", skill, signed(d.SkillModifiers[skill]), mark))
	}
	return strings.Join(lines, "\n")
}

func inventoryBlock(c *sw5e.Character) string {
	var lines []string
	if len(c.Powers) > 0 {
		lines = append(lines, labelStyle.Render("Powers"))
		for _, p := range c.Powers {
			name := p.Name
			if name == "" {
				name = p.ID
			}
			lines = append(lines, fmt.Sprintf("%s (level %d %s)", name, p.Level, p.Kind))
		}
	}
	if len(c.Equipment) > 0 {
		lines = append(lines, labelStyle.Render("Equipment"))
		for _, item := range c.Equipment {
			lines = append(lines, fmt.Sprintf("%s x%d", item.ID, item.Quantity))
		}
	}
	return strings.Join(lines, "\n")
}

// renderList draws the roster as a table, marking the active character
func renderList(chars []*sw5e.Character, activeID string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(subtleStyle).
		Headers("", "ID", "NAME", "SPECIES", "CLASS", "LEVEL", "VERSION")
	for _, c := range chars {
		marker := ""
		if c.ID == activeID {
			marker = "*"
		}
		t.Row(marker, c.ID, c.Name, c.Species, classSummary(c), fmt.Sprint(c.Level), fmt.Sprint(c.Version))
	}
	return t.Render()
}

func signed(n int) string {
	return fmt.Sprintf("%+d", n)
}
