package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/connector/internal/infrastructure/config"
	"github.com/erp/connector/internal/infrastructure/logger"
	"github.com/erp/connector/internal/infrastructure/migration"
	"github.com/erp/connector/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// defaultMigrationsDir is where create writes new migration files
const defaultMigrationsDir = "migrations"

func main() {
	var (
		migrationsPath string
		configPath     string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Read migrations from a directory instead of the embedded set")
	flag.StringVar(&configPath, "config", "", "Path to the configuration file (default: search config.toml)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	c := &cli{
		source:    migrations.FS,
		createDir: defaultMigrationsDir,
		log:       log,
		stdout:    os.Stdout,
	}
	if migrationsPath != "" {
		c.source = os.DirFS(migrationsPath)
		c.createDir = migrationsPath
	}
	c.open = func(ctx context.Context) (migrator, error) {
		return openMigrator(ctx, configPath, c.source, log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.run(ctx, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			printUsage()
			os.Exit(2)
		}
		log.Fatal("Migration command failed", zap.Error(err))
	}
}

// openMigrator connects to the configured database and prepares a migrator
// over source
func openMigrator(ctx context.Context, configPath string, source fs.FS, log *zap.Logger) (migrator, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	m, err := migration.New(db, source, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

func printUsage() {
	fmt.Println(`Connector Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current migration version
  force <version>       Force set migration version (use with caution)
  create <name> [desc]  Create a new migration file pair
  list                  List available migrations

Flags:
  -path string          Migrations directory (default: embedded; create writes to ./migrations)
  -config string        Configuration file (default: search config.toml)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  CONNECTOR_DATABASE_HOST, CONNECTOR_DATABASE_PORT, CONNECTOR_DATABASE_USER,
  CONNECTOR_DATABASE_PASSWORD, CONNECTOR_DATABASE_DBNAME, CONNECTOR_DATABASE_SSLMODE

Examples:
  migrate up
  migrate step -1
  migrate create add_identity_index "Index identities by object type"`)
}
