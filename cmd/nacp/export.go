package main

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/dukerupert/nacp/internal/database"
	"github.com/dukerupert/nacp/internal/export"
	"github.com/dukerupert/nacp/internal/store"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	exportTable   string
	exportFormat  string
	exportOut     string
	exportArchive bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a table to CSV or Excel",
	Long: `Write every row of one admin table to a CSV or Excel file.

With --archive the file is uploaded to the configured object storage
instead of being written locally.

Tables: ` + strings.Join(store.AdminTables, ", "),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportTable, "table", "registration_form", "table to export")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv or xlsx")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default <table>.<format>)")
	exportCmd.Flags().BoolVar(&exportArchive, "archive", false, "upload to object storage")
}

func runExport(cmd *cobra.Command, args []string) error {
	f, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	body, err := exportBytes(db, exportTable, f)
	if err != nil {
		return err
	}

	if exportArchive {
		obj, err := newArchiver().Upload(cmd.Context(), f.Filename(exportTable), f.ContentType(), body)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "archived %s (%s)\n", obj.Key, humanize.Bytes(uint64(obj.Size)))
		return nil
	}

	out := exportOut
	if out == "" {
		out = f.Filename(exportTable)
	}
	if err := os.WriteFile(out, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", out, humanize.Bytes(uint64(len(body))))
	return nil
}

func exportBytes(db *sql.DB, table string, f export.Format) ([]byte, error) {
	ts := store.NewTableStore(db)
	if !ts.Known(table) {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	dump, err := ts.Dump(table)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, f, dump); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
