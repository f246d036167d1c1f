package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/schedulectx/internal"
	"github.com/starford/schedulectx/internal/schedule"
	pkgconfig "github.com/starford/schedulectx/pkg/config"
)

var version = "dev"

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(configPath, "", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, opts...); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func printContext(ctx context.Context, cmd *cli.Command) error {
	var ctxOpts []schedule.ContextOption
	if cmd.IsSet("date") {
		ctxOpts = append(ctxOpts, schedule.WithGameDate(cmd.String("date")))
	}
	return internal.WriteContext(ctx, os.Stdout, ctxOpts)
}

func main() {
	cmd := &cli.Command{
		Name:    "schedulectx",
		Usage:   "Serve the team schedule as prompt-ready context",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, schedule watcher and event stream",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve schedule tools over MCP stdio",
				Action: serveMCP,
			},
			{
				Name:  "context",
				Usage: "Print the schedule context block",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "date",
						Aliases: []string{"d"},
						Usage:   "Game date to mention in the note (embedded verbatim)",
					},
				},
				Action: printContext,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
