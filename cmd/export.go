package main

import (
	"encoding/json"
	"fmt"

	"github.com/immxrtalbeast/codecollab/internal/config"
	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <session-id>",
		Short: "Print the persisted record of a session as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, config.MustLoad(opts.configPath), args[0])
		},
	}
}

func runExport(cmd *cobra.Command, cfg *config.Config, sessionID string) error {
	if cfg.Storage.Driver == config.StorageMemory {
		return fmt.Errorf("export needs a persistent storage driver, got %q", cfg.Storage.Driver)
	}

	store, closeStore, err := openSnapshotStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	defer func() { _ = closeStore() }()

	record, err := store.Get(cmd.Context(), sessionID)
	if err != nil {
		return fmt.Errorf("load session %s: %w", sessionID, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}
