package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/crm/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrationsPath string

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
		Long: `Apply, roll back and author SQL migrations.

Migrations are plain up/down SQL pairs named <timestamp>_<name>.
The sqlite driver is migrated from the models by the server and does not
use these files.`,
	}
	cmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "migrations directory (default: database.migrations_path)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *migration.Migrator, _ []string) error {
				return m.Up()
			}),
		},
		&cobra.Command{
			Use:   "down [n]",
			Short: "Roll back n migrations, or all of them",
			Args:  cobra.MaximumNArgs(1),
			RunE: withMigrator(func(m *migration.Migrator, args []string) error {
				n := 0
				if len(args) == 1 {
					v, err := strconv.Atoi(args[0])
					if err != nil || v <= 0 {
						return fmt.Errorf("invalid step count %q", args[0])
					}
					n = v
				}
				return m.Down(n)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the applied migration version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *migration.Migrator, _ []string) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if version == 0 {
					state.log.Info("No migrations applied")
					return nil
				}
				state.log.Info("Current migration version",
					zap.Uint("version", version),
					zap.Bool("dirty", dirty),
				)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(m *migration.Migrator, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				state.log.Warn("Forcing migration version", zap.Int("version", version))
				return m.Force(version)
			}),
		},
		&cobra.Command{
			Use:   "create <name> [description]",
			Short: "Create an empty up/down migration pair",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(_ *cobra.Command, args []string) error {
				description := ""
				if len(args) == 2 {
					description = args[1]
				}
				f, err := migration.Create(resolveMigrationsPath(), args[0], description, time.Now())
				if err != nil {
					return err
				}
				state.log.Info("Migration created",
					zap.String("version", f.Version),
					zap.String("up_file", f.UpPath),
					zap.String("down_file", f.DownPath),
				)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List migration files",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				names, err := migration.List(resolveMigrationsPath())
				if err != nil {
					return err
				}
				if len(names) == 0 {
					state.log.Info("No migrations found")
					return nil
				}
				for _, name := range names {
					cmd.Println("  -", name)
				}
				return nil
			},
		},
	)
	return cmd
}

// withMigrator opens a Postgres connection and a migrator for fn
func withMigrator(fn func(m *migration.Migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		if state.cfg.Database.Driver != "postgres" {
			return errors.New("SQL migrations require the postgres driver")
		}

		db, err := sql.Open("postgres", state.cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return fmt.Errorf("ping database: %w", err)
		}

		path := resolveMigrationsPath()
		state.log.Debug("Using migrations", zap.String("path", path))
		m, err := migration.New(db, path, state.log)
		if err != nil {
			_ = db.Close()
			return err
		}
		defer func() { _ = m.Close() }()
		return fn(m, args)
	}
}

// resolveMigrationsPath prefers the flag, then the configured path, then a
// migrations directory next to the binary's source tree
func resolveMigrationsPath() string {
	path := migrationsPath
	if path == "" && state.cfg != nil {
		path = state.cfg.Database.MigrationsPath
	}
	if path == "" {
		path = "migrations"
	}
	if _, err := os.Stat(path); err != nil && !filepath.IsAbs(path) {
		if exe, err := os.Executable(); err == nil {
			candidate := filepath.Join(filepath.Dir(exe), "..", "..", path)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
