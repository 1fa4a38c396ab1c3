package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-sheet/internal/config"
	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/orchestrators/character"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow changes made by other instances",
	Long: `watch keeps the roster open and prints every change another instance
publishes, including edits it had to discard because the local copy was newer.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	if cfg.Notify.Driver == config.NotifyNone {
		return errors.FailedPreconditionf("watch needs a notify driver; set notify.driver to redis or file")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			slog.Info("received shutdown signal, closing sheet")
			cancel()
		case <-ctx.Done():
		}
	}()

	out := cmd.OutOrStdout()
	a, err := openApp(ctx, cfg, func(r character.Reconciliation) {
		if !r.Changed() && len(r.Conflicts) == 0 {
			return
		}
		fmt.Fprintln(out, describeReconciliation(r))
	})
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintf(out, "watching %q as %s (%d characters)\n",
		cfg.Store.Key, cfg.App.Instance, len(a.orch.List()))

	<-ctx.Done()
	return nil
}

func describeReconciliation(r character.Reconciliation) string {
	parts := []string{"change from " + r.Source + ":"}
	if len(r.Added) > 0 {
		parts = append(parts, "added "+strings.Join(r.Added, ", "))
	}
	if len(r.Updated) > 0 {
		parts = append(parts, "updated "+strings.Join(r.Updated, ", "))
	}
	if len(r.Removed) > 0 {
		parts = append(parts, "removed "+strings.Join(r.Removed, ", "))
	}
	for _, w := range r.Conflicts {
		parts = append(parts, fmt.Sprintf("kept local %s (local %d > remote %d)",
			w.CharacterID, w.LocalVersion, w.RemoteVersion))
	}
	return strings.Join(parts, " ")
}
