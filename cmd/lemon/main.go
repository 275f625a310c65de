package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/betbot/golemon/pkg/config"
	"github.com/betbot/golemon/pkg/logger"
	"github.com/betbot/golemon/pkg/sdk/lemon"
	"github.com/betbot/golemon/pkg/shutdown"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err.Error())
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "lemon",
		Usage: "lemon.markets trading and market data client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (`.yaml`, .yml or .json)",
				Sources: cli.EnvVars("LEMON_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "trading space, paper or money (overrides LEMON_MODE)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file loaded before the config",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "log only to the configured log file",
			},
		},
		Commands: []*cli.Command{
			accountCommand(),
			positionsCommand(),
			withdrawalsCommand(),
			withdrawCommand(),
			statementsCommand(),
			documentsCommand(),
			ordersCommand(),
			marketCommand(),
			credentialsCommand(),
		},
	}
}

// loadConfig reads the dotenv file, the config file and the environment,
// then initializes logging from the result.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	if envFile := cmd.String("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if mode := strings.TrimSpace(cmd.String("mode")); mode != "" {
		if err := os.Setenv("LEMON_MODE", mode); err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadFromFile(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
		Quiet:      cmd.Bool("quiet"),
	}); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

// withClient runs fn with an authenticated client and releases it on
// return, including on interrupt.
func withClient(ctx context.Context, cmd *cli.Command, fn func(context.Context, *lemon.Client) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := lemon.NewClient(ctx, cfg)
	if err != nil {
		return err
	}

	sm := shutdown.NewManager()
	sm.OnShutdown("lemon session", func(context.Context) { client.Close() })
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if !sm.Shutdown(sctx) {
			logger.Warnf("shutdown did not finish within %s", shutdownTimeout)
		}
	}()

	logger.Debugf("lemon client ready (mode=%s)", cfg.Mode)
	return fn(ctx, client)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireArgs(cmd *cli.Command, n int, usage string) ([]string, error) {
	args := cmd.Args().Slice()
	if len(args) < n {
		return nil, fmt.Errorf("usage: %s %s", cmd.FullName(), usage)
	}
	return args, nil
}
