package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/rpg-sheet/internal/clients/external"
	"github.com/KirkDiggler/rpg-sheet/internal/config"
	"github.com/KirkDiggler/rpg-sheet/internal/engine"
	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/notify"
	"github.com/KirkDiggler/rpg-sheet/internal/orchestrators/character"
	"github.com/KirkDiggler/rpg-sheet/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/rpg-sheet/internal/redis"
	"github.com/KirkDiggler/rpg-sheet/internal/reference"
	"github.com/KirkDiggler/rpg-sheet/internal/repositories/snapshot"
	"github.com/KirkDiggler/rpg-sheet/internal/validation"
)

// appClock stamps every opened sheet
var appClock clock.Clock = clock.New()

// app is one opened sheet: its store, change feed and orchestrator
type app struct {
	cfg     *config.Config
	store   snapshot.Store
	adapter *snapshot.Adapter
	orch    *character.Orchestrator
	clock   clock.Clock

	redis   redisclient.Client
	closers []func() error
}

// openStorage opens the configured store and broadcaster behind an adapter
func openStorage(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, clock: appClock}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	broadcaster, err := a.openBroadcaster(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.adapter, err = snapshot.NewAdapter(&snapshot.AdapterConfig{
		Store:       a.store,
		Broadcaster: broadcaster,
		Source:      cfg.App.Instance,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// openApp wires storage into an orchestrator and loads the persisted roster
func openApp(ctx context.Context, cfg *config.Config, onReconcile func(character.Reconciliation)) (*app, error) {
	a, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	catalog, err := buildCatalog(cfg.Rules)
	if err != nil {
		a.Close()
		return nil, err
	}

	calculator, err := engine.New(&engine.Config{
		Catalog:      catalog,
		SavingThrows: engine.ParseSavingThrowPolicy(cfg.Rules.SavingThrows),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.orch, err = character.New(&character.Config{
		Store:       a.adapter,
		Calculator:  calculator,
		Clock:       a.clock,
		Gate:        validation.New(),
		Roller:      dice.DefaultRoller,
		Key:         cfg.Store.Key,
		AppName:     cfg.App.Name,
		OnReconcile: onReconcile,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := a.orch.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}

	slog.DebugContext(ctx, "sheet opened",
		"instance", cfg.App.Instance,
		"store", cfg.Store.Driver,
		"notify", cfg.Notify.Driver)
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Store.Driver {
	case config.StoreRedis:
		client, err := a.redisClient(ctx)
		if err != nil {
			return err
		}
		a.store, err = snapshot.NewRedis(&snapshot.RedisConfig{Client: client})
		return err
	case config.StoreSQLite:
		store, err := snapshot.OpenSQLite(a.cfg.Store.SQLitePath)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, store.Close)
		a.store = store
		return nil
	case config.StoreFile:
		store, err := snapshot.NewFile(a.cfg.Store.Dir)
		if err != nil {
			return err
		}
		a.store = store
		return nil
	default:
		a.store = snapshot.NewMemory()
		return nil
	}
}

func (a *app) openBroadcaster(ctx context.Context) (notify.Broadcaster, error) {
	switch a.cfg.Notify.Driver {
	case config.NotifyMemory:
		return notify.NewBus(), nil
	case config.NotifyRedis:
		client, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return notify.NewRedis(&notify.RedisConfig{
			Client:  client,
			Channel: a.cfg.Notify.Channel,
		})
	case config.NotifyFile:
		return notify.NewFile(&notify.FileConfig{
			Dir:       a.cfg.Notify.Dir,
			Retention: a.cfg.Notify.Retention,
		})
	default:
		return nil, nil
	}
}

// redisClient connects once and is shared by the store and the broadcaster
func (a *app) redisClient(ctx context.Context) (redisclient.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	client, err := redisclient.Connect(ctx, a.cfg.Store.RedisAddr, &redisclient.Options{
		DB:     a.cfg.Store.RedisDB,
		UseTLS: a.cfg.Store.RedisTLS,
	})
	if err != nil {
		return nil, err
	}
	a.redis = client
	a.closers = append(a.closers, client.Close)
	return client, nil
}

// buildCatalog puts the dnd5e-api catalog behind the core SW5e classes when
// enabled
func buildCatalog(rules config.RulesConfig) (reference.Catalog, error) {
	if !rules.ExternalCatalog {
		return reference.Core(), nil
	}
	ext, err := external.New(&external.Config{BaseURL: rules.ExternalBaseURL})
	if err != nil {
		return nil, err
	}
	return reference.Chain{reference.Core(), ext}, nil
}

// Close drains pending writes and releases every connection
func (a *app) Close() {
	if a.orch != nil {
		a.orch.Close()
	}
	if a.adapter != nil {
		a.adapter.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("failed to close resource", "error", err.Error())
		}
	}
	a.closers = nil
}

// finish waits for queued writes and reports a failed save
func (a *app) finish(ctx context.Context) error {
	if err := a.orch.Flush(ctx); err != nil {
		return err
	}
	if err := a.orch.Err(); errors.IsSerialization(err) {
		return err
	}
	return nil
}

// resolveID accepts an explicit id or falls back to the active character
func (a *app) resolveID(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	id := a.orch.ActiveID()
	if id == "" {
		return "", errors.InvalidArgument("no character id given and no active character")
	}
	return id, nil
}
