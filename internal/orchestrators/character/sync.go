package character

import (
	"context"
	"log/slog"
	"sync"

	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/notify"
	"github.com/KirkDiggler/rpg-sheet/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-sheet/internal/repositories/snapshot"
)

// schedule queues a write of the current roster. Callers hold o.mu.
func (o *Orchestrator) schedule() {
	if o.writer == nil {
		return
	}

	snap, err := snapshot.New(snapshot.State{
		Characters:        o.roster,
		ActiveCharacterID: o.active,
	}, o.clock.Now())
	if err != nil {
		o.err = err
		slog.Error("failed to encode characters", "key", o.key, "error", err.Error())
		return
	}
	o.writer.enqueue(snap)
}

// persist runs on the writer goroutine. A failed write keeps the in-memory
// roster and surfaces the failure through Err.
func (o *Orchestrator) persist(snap *snapshot.Snapshot) {
	ctx := context.Background()
	if err := o.store.Set(ctx, o.key, snap); err != nil {
		slog.ErrorContext(ctx, "failed to persist characters",
			"key", o.key,
			"version", snap.Version,
			"error", err.Error())
		o.record(errors.WrapWithCode(err, errors.CodeSerialization, "failed to persist characters"))
	}
}

// reconcile applies a remote change with last-writer-wins per character:
// the remote snapshot replaces a character unless the local copy was
// changed after the remote write. It is not recorded in history and is
// not written back.
func (o *Orchestrator) reconcile(ev snapshot.ChangeEvent) {
	if ev.Key != o.key {
		return
	}
	if ev.Action == notify.ActionRemove {
		slog.Info("persisted characters removed by another instance; keeping local roster",
			"key", ev.Key,
			"source", ev.Source)
		return
	}

	state, err := ev.Snapshot.State()
	if err != nil {
		slog.Warn("ignoring undecodable remote characters",
			"key", ev.Key,
			"source", ev.Source,
			"error", err.Error())
		_ = o.record(err)
		return
	}

	o.mu.Lock()
	result := o.merge(state, ev.Snapshot.Version, ev.Source)
	o.mu.Unlock()

	if result.Changed() || len(result.Conflicts) > 0 {
		slog.Info("reconciled remote change",
			"key", ev.Key,
			"source", ev.Source,
			"added", len(result.Added),
			"updated", len(result.Updated),
			"removed", len(result.Removed),
			"conflicts", len(result.Conflicts))
	}
	if o.onReconcile != nil {
		o.onReconcile(result)
	}
}

// merge folds the remote roster into the local one. Callers hold o.mu.
func (o *Orchestrator) merge(remote *snapshot.State, remoteVersion int64, source string) Reconciliation {
	result := Reconciliation{Source: source}
	next := o.roster
	now := o.clock.Now()

	for _, rc := range remote.Characters.Characters() {
		local, ok := next.Get(rc.ID)
		if !ok {
			next = next.Put(rc)
			result.Added = append(result.Added, rc.ID)
			continue
		}

		localVersion := o.localVersion(local.ID)
		if localVersion > remoteVersion {
			if local.Version != rc.Version || !local.UpdatedAt.Equal(rc.UpdatedAt) {
				w := ConflictWarning{
					CharacterID:   rc.ID,
					Source:        source,
					LocalVersion:  localVersion,
					RemoteVersion: remoteVersion,
					At:            now,
				}
				o.warnings = append(o.warnings, w)
				result.Conflicts = append(result.Conflicts, w)
			}
			continue
		}

		if local.Version != rc.Version || !local.UpdatedAt.Equal(rc.UpdatedAt) {
			next = next.Put(rc)
			result.Updated = append(result.Updated, rc.ID)
		}
	}

	for _, id := range next.IDs() {
		if remote.Characters.Has(id) {
			continue
		}
		if o.localVersion(id) > remoteVersion {
			continue
		}
		next = next.Delete(id)
		delete(o.touched, id)
		result.Removed = append(result.Removed, id)
	}

	if result.Changed() {
		for _, id := range append(result.Added, result.Updated...) {
			o.touched[id] = remoteVersion
		}
		o.roster = next
		o.active = next.ResolveActive(o.active)
		o.refreshDerived()
	}
	return result
}

// localVersion is the wall-clock millis of the last local change to id,
// falling back to its updatedAt for characters loaded from storage.
func (o *Orchestrator) localVersion(id string) int64 {
	if v, ok := o.touched[id]; ok {
		return v
	}
	if c, ok := o.roster.Get(id); ok {
		return clock.Millis(c.UpdatedAt)
	}
	return 0
}

// writer is the single background persistence goroutine. Only the newest
// pending snapshot is kept: every snapshot holds the whole roster, so an
// older pending one is superseded.
type writer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending *snapshot.Snapshot
	busy    bool
	closed  bool
	done    chan struct{}
	write   func(*snapshot.Snapshot)
}

func newWriter(write func(*snapshot.Snapshot)) *writer {
	w := &writer{write: write, done: make(chan struct{})}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

func (w *writer) run() {
	defer close(w.done)

	for {
		w.mu.Lock()
		for w.pending == nil && !w.closed {
			w.cond.Wait()
		}
		if w.pending == nil {
			w.mu.Unlock()
			return
		}
		snap := w.pending
		w.pending = nil
		w.busy = true
		w.mu.Unlock()

		w.write(snap)

		w.mu.Lock()
		w.busy = false
		w.cond.Broadcast()
		w.mu.Unlock()
	}
}

func (w *writer) enqueue(snap *snapshot.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending = snap
	w.cond.Broadcast()
}

// flush waits until nothing is pending or being written
func (w *writer) flush(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		w.mu.Lock()
		for (w.pending != nil || w.busy) && !w.stopped() {
			w.cond.Wait()
		}
		w.mu.Unlock()
		close(idle)
	}()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stopped reports whether run has exited. Callers hold w.mu.
func (w *writer) stopped() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// close writes whatever is pending and stops the goroutine
func (w *writer) close() {
	w.mu.Lock()
	w.closed = true
	w.cond.Broadcast()
	w.mu.Unlock()
	<-w.done
}
