package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/argo-setups/internal/config"
	"github.com/rxtech-lab/argo-setups/internal/version"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "monitor",
		Usage:   "Watch intraday setups and translate their levels to turbo prices",
		Version: version.GetVersion(),
		Writer:  os.Stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration (falls back to config.example.yaml)",
				Value:   config.DefaultPath,
				Sources: cli.EnvVars("MONITOR_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Environment file loaded before anything else",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			serveCommand(),
			watchCommand(),
			translateCommand(),
			downloadCommand(),
			schemaCommand(),
		},
	}
}
