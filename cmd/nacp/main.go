package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dukerupert/nacp/internal/archive"
	"github.com/dukerupert/nacp/internal/config"
	"github.com/dukerupert/nacp/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "nacp",
	Short: "NACP agricultural census pilot",
	Long: `Registration wizard, census survey and admin dashboard for the
National Agricultural Census Pilot of The Bahamas.

Settings come from nacp.yaml (or --config), a .env file and NACP_*
environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = c
		logger = logging.Setup(cfg.Log.Level, cfg.Log.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file (default nacp.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(adminCmd)
}

func newArchiver() *archive.Archiver {
	return archive.New(archive.Config{
		Endpoint:  cfg.Archive.Endpoint,
		Bucket:    cfg.Archive.Bucket,
		Region:    cfg.Archive.Region,
		AccessKey: cfg.Archive.AccessKey,
		SecretKey: cfg.Archive.SecretKey,
		Prefix:    cfg.Archive.Prefix,
	}, logger.With("component", "archive"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
