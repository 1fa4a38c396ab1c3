// Package character implements the character repository: the single owner of
// the in-memory roster, its undo history, persistence and cross-instance sync.
package character

import (
	"context"
	"log/slog"
	"sync"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/rpg-sheet/internal/engine"
	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/history"
	"github.com/KirkDiggler/rpg-sheet/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-sheet/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-sheet/internal/repositories/snapshot"
	"github.com/KirkDiggler/rpg-sheet/internal/validation"
)

// DefaultAppName is written into export documents when none is configured
const DefaultAppName = "SW5e Character Sheet"

// Config holds the dependencies for the character orchestrator
type Config struct {
	// Store persists the roster and carries remote changes. Nil keeps
	// everything in memory.
	Store      *snapshot.Adapter
	Calculator *engine.Calculator
	Gate       *validation.Gate

	Clock       clock.Clock
	IDGenerator idgen.Generator
	// Roller rolls hit dice when a class level is added. Nil uses the
	// fixed average.
	Roller dice.Roller

	Key     string
	AppName string

	// OnReconcile is called after a remote change has been applied
	OnReconcile func(Reconciliation)
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config is required")
	}

	vb := errors.NewValidationBuilder()
	if c.Calculator == nil {
		vb.RequiredField("Calculator")
	}
	if c.Gate == nil {
		vb.RequiredField("Gate")
	}
	return vb.Build()
}

// Orchestrator owns the roster. Every operation runs to completion under one
// lock; persistence happens on a single background writer.
type Orchestrator struct {
	mu sync.Mutex

	roster   history.Roster
	active   string
	derived  *engine.DerivedState
	history  *history.Stack
	touched  map[string]int64
	err      error
	warnings []ConflictWarning

	store       *snapshot.Adapter
	calculator  *engine.Calculator
	gate        *validation.Gate
	clock       clock.Clock
	ids         idgen.Generator
	roller      dice.Roller
	key         string
	appName     string
	onReconcile func(Reconciliation)

	writer   *writer
	unlisten func()
}

// New creates a new character orchestrator
func New(cfg *Config) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	o := &Orchestrator{
		history:     history.NewStack(),
		touched:     make(map[string]int64),
		store:       cfg.Store,
		calculator:  cfg.Calculator,
		gate:        cfg.Gate,
		clock:       cfg.Clock,
		ids:         cfg.IDGenerator,
		roller:      cfg.Roller,
		key:         cfg.Key,
		appName:     cfg.AppName,
		onReconcile: cfg.OnReconcile,
	}
	if o.clock == nil {
		o.clock = clock.New()
	}
	if o.ids == nil {
		o.ids = idgen.NewCharacterIDs()
	}
	if o.key == "" {
		o.key = snapshot.DefaultKey
	}
	if o.appName == "" {
		o.appName = DefaultAppName
	}

	if o.store != nil {
		o.writer = newWriter(o.persist)
		unlisten, err := o.store.Listen(context.Background(), o.reconcile)
		if err != nil {
			o.writer.close()
			return nil, errors.Wrap(err, "failed to listen for remote changes")
		}
		o.unlisten = unlisten
	}

	return o, nil
}

// Load replaces the in-memory roster with the persisted one. History is
// reset and derived state recomputed. Without a store Load does nothing.
func (o *Orchestrator) Load(ctx context.Context) error {
	if o.store == nil {
		return nil
	}

	snap, err := o.store.Get(ctx, o.key)
	if err != nil {
		return o.record(errors.Wrap(err, "failed to load characters"))
	}
	state, err := snap.State()
	if err != nil {
		return o.record(err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.roster = state.Characters
	o.active = state.ActiveCharacterID
	if o.active == "" && o.roster.Len() > 0 {
		o.active = o.roster.First()
	}
	o.history.Reset()
	o.touched = make(map[string]int64)
	o.refreshDerived()

	slog.InfoContext(ctx, "characters loaded",
		"key", o.key,
		"count", o.roster.Len(),
		"active_id", o.active)
	return nil
}

// Flush blocks until every scheduled write has been attempted
func (o *Orchestrator) Flush(ctx context.Context) error {
	if o.writer == nil {
		return nil
	}
	return o.writer.flush(ctx)
}

// Close drains pending writes and stops listening for remote changes
func (o *Orchestrator) Close() {
	if o.unlisten != nil {
		o.unlisten()
	}
	if o.writer != nil {
		o.writer.close()
	}
}

// Get returns a copy of the character with the given id
func (o *Orchestrator) Get(id string) (*sw5e.Character, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	c, ok := o.roster.Get(id)
	if !ok {
		return nil, notFound(id)
	}
	return c.Clone(), nil
}

// List returns copies of every character in insertion order
func (o *Orchestrator) List() []*sw5e.Character {
	o.mu.Lock()
	defer o.mu.Unlock()

	chars := o.roster.Characters()
	for i, c := range chars {
		chars[i] = c.Clone()
	}
	return chars
}

// Active returns a copy of the active character, or nil
func (o *Orchestrator) Active() *sw5e.Character {
	o.mu.Lock()
	defer o.mu.Unlock()

	c, ok := o.roster.Get(o.active)
	if !ok {
		return nil
	}
	return c.Clone()
}

// ActiveID returns the active character id, or "" when none is active
func (o *Orchestrator) ActiveID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Derived returns the derived state of the active character, or nil
func (o *Orchestrator) Derived() *engine.DerivedState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.derived
}

// DerivedFor computes the derived state of any character
func (o *Orchestrator) DerivedFor(id string) (*engine.DerivedState, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	c, ok := o.roster.Get(id)
	if !ok {
		return nil, notFound(id)
	}
	return o.calculator.Derive(c), nil
}

// Err returns the most recent failure, or nil
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// ClearError resets the error field
func (o *Orchestrator) ClearError() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = nil
}

// Warnings returns the conflicts recorded by remote reconciliation
func (o *Orchestrator) Warnings() []ConflictWarning {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]ConflictWarning(nil), o.warnings...)
}

// ClearWarnings drops recorded conflicts
func (o *Orchestrator) ClearWarnings() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.warnings = nil
}

// record stores err in the error field and returns it
func (o *Orchestrator) record(err error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
	return err
}

// refreshDerived recomputes derived state for the active character.
// Callers hold o.mu.
func (o *Orchestrator) refreshDerived() {
	c, ok := o.roster.Get(o.active)
	if !ok {
		o.active = ""
		o.derived = nil
		return
	}
	o.derived = o.calculator.Derive(c)
}

func notFound(id string) *errors.Error {
	return errors.NotFoundf("character %s not found", id).WithMeta("character_id", id)
}
