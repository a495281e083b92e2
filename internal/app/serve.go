package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vibecheck.dev/vibecheck/internal/cli"
	"vibecheck.dev/vibecheck/internal/config"
	"vibecheck.dev/vibecheck/internal/db"
	"vibecheck.dev/vibecheck/internal/httpapi"
	"vibecheck.dev/vibecheck/internal/logging"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "0.0.0.0", "HTTP listen host")
	port := fs.Int("port", 8080, "HTTP listen port")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	connectTimeout := fs.Duration("connect-timeout", 30*time.Second, "Database connect timeout")

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, *connectTimeout)
	pool, err := db.NewPool(connectCtx, cfg)
	cancel()
	if err != nil {
		logger.Error().Err(err).Msg("serve failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	sched := buildScheduler(cfg, pool, logger)
	sched.Start()
	defer sched.Stop()

	server := httpapi.NewServer(pool, sched, logger, httpapi.Options{
		Host:            *host,
		Port:            *port,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: *shutdownTimeout,
		AllowedOrigins:  cfg.CORSAllowedOriginsList(),
	})

	logger.Info().
		Str("host", *host).
		Int("port", *port).
		Dur("news_interval", cfg.NewsInterval()).
		Dur("stories_interval", cfg.StoriesInterval()).
		Msg("starting scheduler and API server")

	if err := server.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("server terminated with error")
		return 1
	}

	logger.Info().Msg("shutdown complete")
	return 0
}
