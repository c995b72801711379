package main

import (
	"errors"
	"fmt"

	"github.com/dukerupert/nacp/internal/database"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload a snapshot of the database to object storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		archiver := newArchiver()
		if !archiver.Configured() {
			return errors.New("archive storage is not configured")
		}

		db, err := database.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		obj, err := archiver.Snapshot(cmd.Context(), db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "snapshot %s (%s)\n", obj.Key, humanize.Bytes(uint64(obj.Size)))
		return nil
	},
}
