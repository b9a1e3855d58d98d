// Команда ezctl - служебные операции: миграции схемы и выпуск токенов для админки.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ezcode-server/internal/auth"
	"ezcode-server/internal/config"
	"ezcode-server/internal/database"
	"ezcode-server/internal/models"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var opts struct {
	dsn        string
	secretsDir string
	secret     string
	userID     string
	roles      []string
	ttl        time.Duration
}

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

var rootCmd = &cobra.Command{
	Use:           "ezctl",
	Short:         "Maintenance commands for ezcode-server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema migrations",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if opts.dsn == "" {
			return errors.New("database DSN is required: use --dsn or DATABASE_URL")
		}
		return nil
	},
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return database.NewMigrator(opts.dsn, log).Up()
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (all when steps is omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 0
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("steps must be a positive integer, got %q", args[0])
			}
			steps = n
		}
		return database.NewMigrator(opts.dsn, log).Down(steps)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		version, dirty, err := database.NewMigrator(opts.dsn, log).Version()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
		return nil
	},
}

var migrateForceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Set the schema version without running migrations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return database.NewMigrator(opts.dsn, log).ForceVersion(v)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Access tokens for the API",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a signed access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := opts.secret
		if secret == "" {
			s, err := config.ReadSecret(opts.secretsDir, "jwt_secret")
			if err != nil {
				return err
			}
			secret = s
		}
		if strings.TrimSpace(opts.userID) == "" {
			return errors.New("--user is required")
		}
		token, err := auth.IssueToken(secret, opts.userID, opts.roles, opts.ttl)
		if err != nil {
			return err
		}
		log.Info().Str("userId", opts.userID).Strs("roles", opts.roles).Dur("ttl", opts.ttl).Msg("token issued")
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&opts.dsn, "dsn", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd, migrateForceCmd)

	tokenIssueCmd.Flags().StringVar(&opts.secret, "secret", os.Getenv("JWT_SECRET"), "HMAC secret (defaults to the jwt_secret file)")
	tokenIssueCmd.Flags().StringVar(&opts.secretsDir, "secrets-dir", "/run/secrets", "directory with secret files")
	tokenIssueCmd.Flags().StringVar(&opts.userID, "user", "", "user id placed into the token")
	tokenIssueCmd.Flags().StringSliceVar(&opts.roles, "role", []string{models.RoleAdmin}, "roles placed into the token")
	tokenIssueCmd.Flags().DurationVar(&opts.ttl, "ttl", 24*time.Hour, "token lifetime")
	tokenCmd.AddCommand(tokenIssueCmd)

	rootCmd.AddCommand(migrateCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
