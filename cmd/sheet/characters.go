package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/orchestrators/character"
)

var (
	// Shared by create and update
	charName       string
	charSpecies    string
	charClass      string
	charBackground string
	charAlignment  string
	charLevel      int
	charCredits    int
	charExperience int
	charNotes      string
	charScores     string

	// Update only
	hpCurrent   int
	hpMaximum   int
	hpTemporary int
	addItems    []string
	removeItems []string
	addLevels   []string
	dropLevels  []string
	archetypes  []string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a character",
	Args:  cobra.NoArgs,
	RunE:  runCreate,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List characters",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a character sheet (defaults to the active character)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

var updateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update a character (defaults to the active character)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runUpdate,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a character",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var activateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Make a character the active one",
	Args:  cobra.ExactArgs(1),
	RunE:  runActivate,
}

var duplicateCmd = &cobra.Command{
	Use:   "duplicate <id>",
	Short: "Copy a character under a new id",
	Args:  cobra.ExactArgs(1),
	RunE:  runDuplicate,
}

func init() {
	for _, cmd := range []*cobra.Command{createCmd, updateCmd} {
		f := cmd.Flags()
		f.StringVar(&charName, "name", "", "character name")
		f.StringVar(&charSpecies, "species", "", "species")
		f.StringVar(&charClass, "class", "", "starting class")
		f.StringVar(&charBackground, "background", "", "background")
		f.StringVar(&charAlignment, "alignment", "", "alignment")
		f.IntVar(&charLevel, "level", 1, "level (single-class characters)")
		f.IntVar(&charCredits, "credits", 0, "credits")
		f.IntVar(&charExperience, "xp", 0, "experience points")
		f.StringVar(&charNotes, "notes", "", "free-form notes")
		f.StringVar(&charScores, "scores", "", "ability scores as STR,DEX,CON,INT,WIS,CHA")
	}

	f := updateCmd.Flags()
	f.IntVar(&hpCurrent, "hp", 0, "current hit points")
	f.IntVar(&hpMaximum, "hp-max", 0, "maximum hit points")
	f.IntVar(&hpTemporary, "hp-temp", 0, "temporary hit points")
	f.StringSliceVar(&addItems, "add-item", nil, "add equipment as id or id:quantity")
	f.StringSliceVar(&removeItems, "remove-item", nil, "remove equipment by id")
	f.StringSliceVar(&addLevels, "add-level", nil, "add a level in a class")
	f.StringSliceVar(&dropLevels, "remove-level", nil, "remove a level from a class")
	f.StringSliceVar(&archetypes, "archetype", nil, "set an archetype as class=archetype")
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	patch, err := patchFromFlags(cmd.Flags())
	if err != nil {
		return err
	}

	id, err := a.orch.Create(patch)
	if err != nil {
		return err
	}
	if warn := a.orch.Err(); warn != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", warn)
	}
	if err := a.finish(ctx); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	chars := a.orch.List()
	if len(chars) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No characters yet. Create one with: sheet create --name <name>")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderList(chars, a.orch.ActiveID()))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.resolveID(args)
	if err != nil {
		return err
	}
	c, err := a.orch.Get(id)
	if err != nil {
		return err
	}
	derived, err := a.orch.DerivedFor(id)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderSheet(c, derived, id == a.orch.ActiveID()))
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.resolveID(args)
	if err != nil {
		return err
	}

	patch, err := patchFromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	if err := hitPointsFromFlags(cmd.Flags(), a, id, &patch); err != nil {
		return err
	}
	if err := a.orch.Update(id, patch); err != nil {
		return err
	}

	for _, entry := range addItems {
		itemID, qty, err := parseItem(entry)
		if err != nil {
			return err
		}
		if err := a.orch.AddEquipment(id, itemID, qty); err != nil {
			return err
		}
	}
	for _, itemID := range removeItems {
		if err := a.orch.RemoveEquipment(id, itemID); err != nil {
			return err
		}
	}
	for _, classID := range addLevels {
		if err := a.orch.AddClassLevel(id, classID); err != nil {
			return err
		}
	}
	for _, classID := range dropLevels {
		if err := a.orch.RemoveClassLevel(id, classID); err != nil {
			return err
		}
	}
	for _, entry := range archetypes {
		classID, archetype, ok := strings.Cut(entry, "=")
		if !ok {
			return errors.InvalidArgumentf("archetype %q must be class=archetype", entry)
		}
		if err := a.orch.SetArchetype(id, classID, archetype); err != nil {
			return err
		}
	}

	if err := a.finish(ctx); err != nil {
		return err
	}
	c, err := a.orch.Get(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "updated %s (version %d)\n", id, c.Version)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.orch.Delete(args[0]); err != nil {
		return err
	}
	if err := a.finish(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return nil
}

func runActivate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.orch.SetActive(args[0]); err != nil {
		return err
	}
	return a.finish(ctx)
}

func runDuplicate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.orch.DuplicateCharacter(args[0])
	if err != nil {
		return err
	}
	if err := a.finish(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

// patchFromFlags sets only the fields whose flags were given
func patchFromFlags(f *pflag.FlagSet) (character.Patch, error) {
	var p character.Patch
	if f.Changed("name") {
		p.Name = character.Ptr(charName)
	}
	if f.Changed("species") {
		p.Species = character.Ptr(charSpecies)
	}
	if f.Changed("class") {
		p.Class = character.Ptr(charClass)
	}
	if f.Changed("background") {
		p.Background = character.Ptr(charBackground)
	}
	if f.Changed("alignment") {
		p.Alignment = character.Ptr(charAlignment)
	}
	if f.Changed("level") {
		p.Level = character.Ptr(charLevel)
	}
	if f.Changed("credits") {
		p.Credits = character.Ptr(charCredits)
	}
	if f.Changed("xp") {
		p.Experience = character.Ptr(charExperience)
	}
	if f.Changed("notes") {
		p.Notes = character.Ptr(charNotes)
	}
	if f.Changed("scores") {
		scores, err := parseScores(charScores)
		if err != nil {
			return p, err
		}
		p.AbilityScores = scores
	}
	return p, nil
}

// hitPointsFromFlags merges the hp flags over the character's current pool
func hitPointsFromFlags(f *pflag.FlagSet, a *app, id string, p *character.Patch) error {
	if !f.Changed("hp") && !f.Changed("hp-max") && !f.Changed("hp-temp") {
		return nil
	}
	c, err := a.orch.Get(id)
	if err != nil {
		return err
	}
	hp := c.HitPoints
	if f.Changed("hp") {
		hp.Current = hpCurrent
	}
	if f.Changed("hp-max") {
		hp.Maximum = hpMaximum
	}
	if f.Changed("hp-temp") {
		hp.Temporary = hpTemporary
	}
	p.HitPoints = &hp
	return nil
}

func parseScores(s string) (*sw5e.AbilityScores, error) {
	parts := strings.Split(s, ",")
	if len(parts) != len(sw5e.Abilities) {
		return nil, errors.InvalidArgumentf("scores must list %d values, got %d", len(sw5e.Abilities), len(parts))
	}
	values := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.InvalidArgumentf("score %q is not a number", part).
				WithMeta("ability", sw5e.Abilities[i])
		}
		values[i] = n
	}
	return &sw5e.AbilityScores{
		Strength:     values[0],
		Dexterity:    values[1],
		Constitution: values[2],
		Intelligence: values[3],
		Wisdom:       values[4],
		Charisma:     values[5],
	}, nil
}

func parseItem(arg string) (string, int, error) {
	itemID, qty, ok := strings.Cut(arg, ":")
	if !ok {
		return arg, 1, nil
	}
	n, err := strconv.Atoi(qty)
	if err != nil {
		return "", 0, errors.InvalidArgumentf("item quantity %q is not a number", qty).WithMeta("item_id", itemID)
	}
	return itemID, n, nil
}
