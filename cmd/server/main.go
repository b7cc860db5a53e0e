// Package main implements the entry point for the Recall API server, which
// serves spaced repetition reviews for account cards.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/phrazzld/recall-api/internal/config"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/platform/postgres"
	"github.com/spf13/pflag"
)

// cliOptions holds the parsed command line.
type cliOptions struct {
	configFile string
	migrate    string
	envFile    string
	flags      *pflag.FlagSet
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("Failed to parse flags: %v", err)
	}

	if err := loadEnvFile(opts.envFile); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}

	cfg, appLogger, err := initializeApp(opts)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger, opts.migrate); err != nil {
		appLogger.Error("Application exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// parseFlags builds the command line flag set. Flags that map to
// configuration keys are bound through config.FlagBindings.
func parseFlags(args []string) (*cliOptions, error) {
	flagSet := pflag.NewFlagSet("recall-api", pflag.ContinueOnError)
	opts := &cliOptions{flags: flagSet}

	flagSet.StringVarP(&opts.configFile, "config", "c", "", "path to a YAML config file")
	flagSet.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded into the environment when present")
	flagSet.StringVar(&opts.migrate, "migrate", "",
		fmt.Sprintf("run a migration command and exit (%s)", strings.Join(postgres.MigrationCommands, ", ")))
	flagSet.Int("port", 0, "HTTP listen port")
	flagSet.String("log-level", "", "log level (debug, info, warn, error)")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// loadEnvFile loads a dotenv file without overriding variables that are
// already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp(opts *cliOptions) (*config.Config, *slog.Logger, error) {
	loadOpts := config.Options{ConfigFile: opts.configFile}
	if opts.flags != nil {
		loadOpts.Flags = changedFlags(opts.flags)
	}

	cfg, err := config.LoadWithOptions(loadOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Int("daily_limit", cfg.Review.DailyLimit),
		slog.Bool("cache_enabled", cfg.Cache.Enabled()))

	return cfg, appLogger, nil
}

// changedFlags returns a flag set holding only the flags the user set, so
// unset flags never shadow environment or file values.
func changedFlags(all *pflag.FlagSet) *pflag.FlagSet {
	changed := pflag.NewFlagSet(all.Name(), pflag.ContinueOnError)
	all.Visit(func(f *pflag.Flag) {
		changed.AddFlag(f)
	})
	return changed
}

// run connects to the database and either executes a migration command or
// serves HTTP until ctx is canceled.
func run(ctx context.Context, cfg *config.Config, appLogger *slog.Logger, migrate string) error {
	db, err := postgres.Open(ctx, cfg.Database, appLogger)
	if err != nil {
		return err
	}

	if migrate != "" {
		defer func() {
			if cerr := db.Close(); cerr != nil {
				appLogger.Error("Error closing database connection", slog.String("error", cerr.Error()))
			}
		}()
		return postgres.Migrate(ctx, db, migrate, appLogger)
	}

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create application: %w", err)
	}

	return app.Run(ctx)
}
