package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"vibecheck.dev/vibecheck/internal/cli"
	"vibecheck.dev/vibecheck/internal/config"
	"vibecheck.dev/vibecheck/internal/db"
	"vibecheck.dev/vibecheck/internal/entity"
	"vibecheck.dev/vibecheck/internal/logging"
)

func runSeed(args []string) int {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Seeding timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("seed failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	created, err := entity.Seed(ctx, pool)
	if err != nil {
		logger.Error().Err(err).Msg("entity seeding failed")
		fmt.Fprintf(os.Stderr, "Seeding failed: %v\n", err)
		return 1
	}

	logger.Info().Int("created", created).Int("catalog_size", len(entity.Catalog)).Msg("entity seeding complete")
	fmt.Printf("ok: %d entities created, %d already present\n", created, len(entity.Catalog)-created)
	return 0
}
