package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/nacp/internal/auth"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin account helpers",
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for admin.credentials",
	Long: `Print a bcrypt hash to store in admin.credentials instead of a plain
text password. The password is read from stdin when not given.`,
	Args: cobra.MaximumNArgs(1),
	// The config is not needed to hash a password.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) == 1 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if password == "" {
			return errors.New("password is empty")
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	adminCmd.AddCommand(hashPasswordCmd)
}
