package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/erp/connector/internal/infrastructure/config"
	"github.com/erp/connector/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// options are the command line settings of one import run
type options struct {
	configPath string
	inputPath  string
	itemIDs    []int
	seedPath   string
	outputPath string
	dryRun     bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting import",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.Bool("dry_run", opts.dryRun),
	)

	if err := run(ctx, cfg, opts, log, os.Stdout); err != nil {
		log.Error("Import failed", zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var (
		opts  options
		items string
	)

	fs := flag.NewFlagSet("importer", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "Path to the configuration file (default: search config.toml)")
	fs.StringVar(&opts.inputPath, "input", "", "Read raw products from a JSON file instead of the REST API")
	fs.StringVar(&items, "items", "", "Comma separated item IDs to read from the REST API")
	fs.StringVar(&opts.seedPath, "identities", "", "Register the identity mappings of a JSON file before the run")
	fs.StringVar(&opts.outputPath, "output", "", "Write the report to a file (default: stdout)")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Keep identities and settings in memory")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if items != "" {
		for _, part := range strings.Split(items, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || id <= 0 {
				return options{}, fmt.Errorf("invalid item ID %q", part)
			}
			opts.itemIDs = append(opts.itemIDs, id)
		}
	}

	switch {
	case opts.inputPath == "" && len(opts.itemIDs) == 0:
		return options{}, errors.New("one of -input or -items is required")
	case opts.inputPath != "" && len(opts.itemIDs) > 0:
		return options{}, errors.New("-input and -items are mutually exclusive")
	}
	return opts, nil
}
