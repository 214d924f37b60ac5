package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"

	"github.com/erp/connector/internal/infrastructure/migration"
	"go.uber.org/zap"
)

// errUsage marks a command line the tool cannot run
var errUsage = errors.New("usage")

// migrator is the schema operations the database commands use
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	GoTo(version uint) error
	Version() (uint, bool, error)
	Force(version int) error
	Close() error
}

var _ migrator = (*migration.Migrator)(nil)

// cli holds what the commands need besides their arguments
type cli struct {
	source    fs.FS
	createDir string
	log       *zap.Logger
	stdout    io.Writer
	// open connects the migrator for commands that touch the database
	open func(ctx context.Context) (migrator, error)
}

// run executes one command. create and list never open the database.
func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: command required", errUsage)
	}

	switch args[0] {
	case "create":
		return c.create(args[1:])
	case "list":
		return c.list()
	case "up", "down", "step", "goto", "version", "force":
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	m, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			c.log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return c.apply(m, args)
}

func (c *cli) create(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: migrate create <name> [description]", errUsage)
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}

	mf, err := migration.CreateMigration(c.createDir, args[0], description)
	if err != nil {
		return err
	}
	c.log.Info("Migration created",
		zap.Uint("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func (c *cli) list() error {
	entries, err := migration.ListMigrations(c.source)
	if err != nil {
		return err
	}
	c.log.Info("Available migrations", zap.Int("count", len(entries)))
	for _, entry := range entries {
		fmt.Fprintln(c.stdout, entry)
	}
	return nil
}

// apply runs a database command on m
func (c *cli) apply(m migrator, args []string) error {
	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "step":
		n, err := intArg(args, "migrate step <n>")
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "goto":
		if len(args) < 2 {
			return fmt.Errorf("%w: migrate goto <version>", errUsage)
		}
		version, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("%w: invalid version %q", errUsage, args[1])
		}
		return m.GoTo(uint(version))
	case "force":
		version, err := intArg(args, "migrate force <version>")
		if err != nil {
			return err
		}
		return m.Force(version)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			fmt.Fprintln(c.stdout, "no migrations applied")
			return nil
		}
		fmt.Fprintf(c.stdout, "version %d (dirty: %t)\n", version, dirty)
		return nil
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

func intArg(args []string, usage string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%w: %s", errUsage, usage)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid number %q", errUsage, args[1])
	}
	return n, nil
}
