package character

import (
	"github.com/KirkDiggler/rpg-sheet/internal/history"
	"github.com/KirkDiggler/rpg-sheet/internal/pkg/clock"
)

// Undo restores the roster and active character as they were before the
// last tracked mutation.
// It reports false when there was nothing to undo.
func (o *Orchestrator) Undo() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	restored, ok := o.history.Undo(o.entry())
	if !ok {
		return false
	}
	o.install(restored)
	return true
}

// Redo reapplies the last undone mutation
func (o *Orchestrator) Redo() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	restored, ok := o.history.Redo(o.entry())
	if !ok {
		return false
	}
	o.install(restored)
	return true
}

// StartHistoryTracking resumes recording mutations for undo
func (o *Orchestrator) StartHistoryTracking() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.history.StartTracking()
}

// StopHistoryTracking stops recording, so a batch of edits can be kept out
// of history or folded under one entry recorded beforehand.
func (o *Orchestrator) StopHistoryTracking() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.history.StopTracking()
}

// IsTracking reports whether mutations are recorded for undo
func (o *Orchestrator) IsTracking() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.history.Tracking()
}

// CanUndo reports whether Undo would change anything
func (o *Orchestrator) CanUndo() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.history.CanUndo()
}

// CanRedo reports whether Redo would change anything
func (o *Orchestrator) CanRedo() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.history.CanRedo()
}

// entry captures the current state for the history stack. Callers hold o.mu.
func (o *Orchestrator) entry() history.Entry {
	return history.Entry{Roster: o.roster, Active: o.active}
}

// install replaces the roster after an undo or redo. Callers hold o.mu.
func (o *Orchestrator) install(restored history.Entry) {
	now := clock.Millis(o.clock.Now())
	for _, id := range restored.Roster.IDs() {
		o.touched[id] = now
	}
	o.roster = restored.Roster
	o.active = restored.Roster.ResolveActive(restored.Active)
	o.refreshDerived()
	o.schedule()
}
