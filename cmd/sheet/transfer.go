package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/services/conversion"
)

var (
	exportYAML bool
	exportOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Write a character export document (defaults to the active character)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Import an export document or bare character JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	exportCmd.Flags().BoolVar(&exportYAML, "yaml", false, "write YAML for reading instead of JSON")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "write to a file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.resolveID(args)
	if err != nil {
		return err
	}

	var data []byte
	if exportYAML {
		c, err := a.orch.Get(id)
		if err != nil {
			return err
		}
		if data, err = conversion.ExportYAML(c, cfg.App.Name, a.clock.Now()); err != nil {
			return err
		}
	} else {
		text, err := a.orch.ExportCharacter(id)
		if err != nil {
			return err
		}
		data = []byte(text)
	}

	if exportOut == "" {
		_, err = cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(exportOut, data, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write %s", exportOut)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "exported %s to %s\n", id, exportOut)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", args[0])
	}

	a, err := openApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.orch.ImportCharacter(string(data))
	if err != nil {
		return err
	}
	if err := a.finish(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
