package snapshot

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/notify"
)

// ChangeEvent is raised for a change made by another instance.
// Snapshot is nil for a remove.
type ChangeEvent struct {
	Key      string
	Action   notify.Action
	Source   string
	Snapshot *Snapshot
}

// Listener receives remote change events
type Listener func(ChangeEvent)

// AdapterConfig configures an Adapter
type AdapterConfig struct {
	Store       Store
	Broadcaster notify.Broadcaster
	Source      string
}

// Validate validates the configuration
func (cfg *AdapterConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument(errConfigMissing)
	}

	vb := errors.NewValidationBuilder()
	if cfg.Store == nil {
		vb.RequiredField("store")
	}
	errors.ValidateRequired("source", cfg.Source, vb)
	return vb.Build()
}

// Adapter pairs a Store with an optional Broadcaster. Local writes are
// announced to other instances and their announcements are turned into
// ChangeEvents; messages carrying our own source are ignored.
type Adapter struct {
	store       Store
	broadcaster notify.Broadcaster
	source      string

	mu          sync.Mutex
	nextID      int
	listeners   map[int]Listener
	unsubscribe func()
}

// NewAdapter creates an adapter
func NewAdapter(cfg *AdapterConfig) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid snapshot adapter config")
	}

	return &Adapter{
		store:       cfg.Store,
		broadcaster: cfg.Broadcaster,
		source:      cfg.Source,
		listeners:   make(map[int]Listener),
	}, nil
}

// Source returns the tag this instance stamps on its messages
func (a *Adapter) Source() string {
	return a.source
}

// Get returns the snapshot under key, or nil when absent
func (a *Adapter) Get(ctx context.Context, key string) (*Snapshot, error) {
	out, err := a.store.Get(ctx, GetInput{Key: key})
	if err != nil {
		slog.ErrorContext(ctx, "failed to read snapshot", "key", key, "error", err.Error())
		return nil, err
	}
	return out.Snapshot, nil
}

// Set stores snap and, once committed, announces it to other instances.
// A failed announcement is returned after the write has succeeded.
func (a *Adapter) Set(ctx context.Context, key string, snap *Snapshot) error {
	if _, err := a.store.Set(ctx, SetInput{Key: key, Snapshot: snap}); err != nil {
		slog.ErrorContext(ctx, "failed to write snapshot", "key", key, "error", err.Error())
		return err
	}

	if a.broadcaster == nil {
		return nil
	}

	value, err := json.Marshal(snap)
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeSerialization, "failed to encode notification value")
	}

	return a.publish(ctx, notify.Message{
		Action: notify.ActionUpdate,
		Key:    key,
		Value:  value,
		Source: a.source,
	})
}

// Remove deletes key and announces the removal
func (a *Adapter) Remove(ctx context.Context, key string) error {
	if _, err := a.store.Remove(ctx, RemoveInput{Key: key}); err != nil {
		slog.ErrorContext(ctx, "failed to remove snapshot", "key", key, "error", err.Error())
		return err
	}

	if a.broadcaster == nil {
		return nil
	}

	return a.publish(ctx, notify.Message{
		Action: notify.ActionRemove,
		Key:    key,
		Source: a.source,
	})
}

func (a *Adapter) publish(ctx context.Context, msg notify.Message) error {
	if err := a.broadcaster.Publish(ctx, msg); err != nil {
		slog.WarnContext(ctx, "failed to broadcast change",
			"key", msg.Key,
			"action", string(msg.Action),
			"error", err.Error())
		return err
	}
	return nil
}

// Listen registers l for remote changes. The broadcaster subscription is
// opened with the first listener.
func (a *Adapter) Listen(ctx context.Context, l Listener) (func(), error) {
	if l == nil {
		return nil, errors.InvalidArgument("listener is required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.broadcaster != nil && a.unsubscribe == nil {
		cancel, err := a.broadcaster.Subscribe(ctx, a.receive)
		if err != nil {
			return nil, errors.Wrap(err, "failed to subscribe to changes")
		}
		a.unsubscribe = cancel
	}

	a.nextID++
	id := a.nextID
	a.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			delete(a.listeners, id)
		})
	}, nil
}

// Close drops the broadcaster subscription and all listeners
func (a *Adapter) Close() {
	a.mu.Lock()
	cancel := a.unsubscribe
	a.unsubscribe = nil
	a.listeners = make(map[int]Listener)
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (a *Adapter) receive(msg notify.Message) {
	if msg.Source == a.source {
		return
	}

	event := ChangeEvent{Key: msg.Key, Action: msg.Action, Source: msg.Source}
	if msg.Action == notify.ActionUpdate {
		snap, err := a.remoteSnapshot(msg)
		if err != nil {
			slog.Warn("ignoring remote change",
				"key", msg.Key,
				"source", msg.Source,
				"error", err.Error())
			return
		}
		event.Snapshot = snap
	}

	a.mu.Lock()
	ids := make([]int, 0, len(a.listeners))
	for id := range a.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, a.listeners[id])
	}
	a.mu.Unlock()

	for _, l := range listeners {
		l(event)
	}
}

// remoteSnapshot decodes the message value, falling back to the store when
// the publisher sent no value.
func (a *Adapter) remoteSnapshot(msg notify.Message) (*Snapshot, error) {
	if len(msg.Value) > 0 {
		return decodeEnvelope(msg.Value)
	}

	out, err := a.store.Get(context.Background(), GetInput{Key: msg.Key})
	if err != nil {
		return nil, err
	}
	if out.Snapshot == nil {
		return nil, errors.NotFoundf("snapshot %s not found", msg.Key)
	}
	return out.Snapshot, nil
}
