package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/subcommands"

	"treasurytracker/internal/config"
	"treasurytracker/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	commander := subcommands.NewCommander(flag.CommandLine, "migrate")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(&upCmd{}, "")
	commander.Register(&downCmd{}, "")
	commander.Register(&versionCmd{}, "")
	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// withMigrate opens a migrate instance on the configured PostgreSQL database
// and closes it once fn returns.
func withMigrate(source string, fn func(m *migrate.Migrate) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	m, err := migrate.New(source, cfg.PostgresURL())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Get().Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			logger.Get().Warnf("migrate database close error: %v", dbErr)
		}
	}()

	return fn(m)
}

func exitStatus(err error) subcommands.ExitStatus {
	if err != nil {
		logger.Get().Errorf("Migration error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// --- upCmd ---

type upCmd struct {
	source string
}

func (*upCmd) Name() string     { return "up" }
func (*upCmd) Synopsis() string { return "apply all pending migrations" }
func (*upCmd) Usage() string {
	return `migrate up [-source <url>]

  Applies every migration newer than the current schema version.
`
}

func (c *upCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.source, "source", "file://migrations", "Location of the migration files.")
}

func (c *upCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return exitStatus(withMigrate(c.source, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up failed: %w", err)
		}
		logger.Get().Info("Migrations applied successfully")
		return nil
	}))
}

// --- downCmd ---

type downCmd struct {
	source string
}

func (*downCmd) Name() string     { return "down" }
func (*downCmd) Synopsis() string { return "roll back the last N migrations" }
func (*downCmd) Usage() string {
	return `migrate down [-source <url>] [N]

  Rolls back N migrations, one when N is omitted.
`
}

func (c *downCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.source, "source", "file://migrations", "Location of the migration files.")
}

func (c *downCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	steps := 1
	if f.NArg() > 0 {
		n, err := strconv.Atoi(f.Arg(0))
		if err != nil || n < 1 {
			fmt.Fprintf(os.Stderr, "invalid step count %q\n", f.Arg(0))
			return subcommands.ExitUsageError
		}
		steps = n
	}

	return exitStatus(withMigrate(c.source, func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		logger.Get().Infof("Rolled back %d migration(s)", steps)
		return nil
	}))
}

// --- versionCmd ---

type versionCmd struct {
	source string
}

func (*versionCmd) Name() string     { return "version" }
func (*versionCmd) Synopsis() string { return "print the current schema version" }
func (*versionCmd) Usage() string {
	return `migrate version [-source <url>]
`
}

func (c *versionCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.source, "source", "file://migrations", "Location of the migration files.")
}

func (c *versionCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return exitStatus(withMigrate(c.source, func(m *migrate.Migrate) error {
		version, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		logger.Get().Infof("Version: %d, Dirty: %v", version, dirty)
		return nil
	}))
}
