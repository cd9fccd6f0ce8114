package main

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-setups/internal/config"
	"github.com/rxtech-lab/argo-setups/internal/engine"
	"github.com/rxtech-lab/argo-setups/internal/logger"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/urfave/cli/v3"
)

const apiKeyEnv = "POLYGON_API_KEY"

// runFlags override the configured run parameters for one invocation.
var runFlags = []cli.Flag{
	&cli.StringFlag{Name: "setup", Aliases: []string{"s"}, Usage: "Setup to run (morning_gap, morning_momentum, opening_range_break, closing_reversion, breakout)"},
	&cli.StringFlag{Name: "symbol", Usage: "Underlying symbol"},
	&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "Feed mode (mock, live, replay)"},
	&cli.FloatFlag{Name: "prev-close", Usage: "Previous session close"},
	&cli.FloatFlag{Name: "leverage", Usage: "Turbo leverage"},
	&cli.FloatFlag{Name: "ratio", Usage: "Turbo ratio"},
	&cli.FloatFlag{Name: "market-price", Usage: "Current turbo price (0 clears it)"},
	&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Stop after this many bars (0 is unlimited)"},
	&cli.StringFlag{Name: "replay-file", Usage: "Parquet or CSV file replayed in replay mode"},
}

// environment is what every command needs: configuration and a logger.
type environment struct {
	cfg *config.AppConfig
	log *logger.Logger
	out io.Writer
}

// loadEnvironment loads the env file, the configuration and the logger.
// quiet discards logs, for commands that own the terminal.
func loadEnvironment(cmd *cli.Command, quiet bool) (*environment, error) {
	if err := godotenv.Load(cmd.String("env-file")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	applyConfigFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}

	log := logger.NewNop()
	if !quiet {
		log, err = logger.NewLoggerWithLevel(level)
		if err != nil {
			return nil, err
		}
	}

	out := cmd.Root().Writer
	if out == nil {
		out = os.Stdout
	}

	return &environment{cfg: cfg, log: log, out: out}, nil
}

// applyConfigFlags copies flags that change configuration rather than run parameters.
func applyConfigFlags(cmd *cli.Command, cfg *config.AppConfig) {
	if cmd.IsSet("limit") {
		cfg.Feed.Limit = int(cmd.Int("limit"))
	}

	if cmd.IsSet("replay-file") {
		cfg.Feed.ReplayFile = cmd.String("replay-file")
	}
}

// startParams maps the run flags to engine start parameters.
func startParams(cmd *cli.Command) engine.StartParams {
	p := engine.StartParams{}

	if cmd.IsSet("setup") {
		p.Setup = optional.Some(types.SetupName(cmd.String("setup")))
	}

	if cmd.IsSet("symbol") {
		p.Symbol = optional.Some(cmd.String("symbol"))
	}

	if cmd.IsSet("mode") {
		p.FeedMode = optional.Some(types.FeedMode(cmd.String("mode")))
	}

	if cmd.IsSet("prev-close") {
		p.PreviousClose = optional.Some(cmd.Float("prev-close"))
	}

	if cmd.IsSet("leverage") {
		p.Leverage = optional.Some(cmd.Float("leverage"))
	}

	if cmd.IsSet("ratio") {
		p.Ratio = optional.Some(cmd.Float("ratio"))
	}

	if cmd.IsSet("market-price") {
		p.MarketPrice = optional.Some(cmd.Float("market-price"))
	}

	return p
}

func (env *environment) sources() engine.SourceFactory {
	return engine.NewSourceFactory(os.Getenv(apiKeyEnv))
}
