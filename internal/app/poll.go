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
	"vibecheck.dev/vibecheck/internal/logging"
)

func runPoll(args []string) int {
	fs := flag.NewFlagSet("poll", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Minute, "Job timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	var jobName string
	switch fs.Arg(0) {
	case "news":
		jobName = jobNameNews
	case "stories":
		jobName = jobNameStories
	default:
		fmt.Fprintln(os.Stderr, "usage: vibecheck poll [flags] <news|stories>")
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
		logger.Error().Err(err).Msg("poll failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	sched := buildScheduler(cfg, pool, logger)
	if err := sched.RunOnce(ctx, jobName); err != nil {
		logger.Error().Err(err).Str("job", jobName).Msg("job run failed")
		fmt.Fprintf(os.Stderr, "Job %s failed: %v\n", jobName, err)
		return 1
	}

	fmt.Printf("ok: %s completed\n", jobName)
	return 0
}
