package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-setups/internal/translator"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
	"github.com/urfave/cli/v3"
)

func translateCommand() *cli.Command {
	return &cli.Command{
		Name:  "translate",
		Usage: "Translate one set of underlying levels to turbo levels",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "side", Usage: "LONG or SHORT", Value: string(types.SideLong)},
			&cli.FloatFlag{Name: "entry", Usage: "Entry on the underlying", Required: true},
			&cli.FloatFlag{Name: "stop", Usage: "Stop on the underlying", Required: true},
			&cli.FloatFlag{Name: "target", Usage: "Target on the underlying", Required: true},
			&cli.FloatFlag{Name: "underlying", Usage: "Underlying price the turbo quote refers to (defaults to entry)"},
			&cli.FloatFlag{Name: "market-price", Usage: "Current turbo price; without it distances are printed"},
			&cli.FloatFlag{Name: "ratio", Usage: "Turbo ratio (defaults to turbo.ratio)"},
			&cli.FloatFlag{Name: "leverage", Usage: "Turbo leverage (defaults to turbo.leverage)"},
			&cli.BoolFlag{Name: "json", Usage: "Print JSON"},
		},
		Action: translateAction,
	}
}

func translateAction(_ context.Context, cmd *cli.Command) error {
	env, err := loadEnvironment(cmd, true)
	if err != nil {
		return err
	}

	side := types.Side(strings.ToUpper(cmd.String("side")))
	if side != types.SideLong && side != types.SideShort {
		return errors.Newf(errors.ErrCodeInvalidParameter, "side must be LONG or SHORT, got %q", cmd.String("side"))
	}

	sig := types.Signal{
		Side:   side,
		Entry:  cmd.Float("entry"),
		Stop:   cmd.Float("stop"),
		Target: cmd.Float("target"),
	}

	leverage := env.cfg.Turbo.Leverage
	if cmd.IsSet("leverage") {
		leverage = cmd.Float("leverage")
	}

	ratio := env.cfg.Turbo.Ratio
	if cmd.IsSet("ratio") {
		ratio = cmd.Float("ratio")
	}

	underlying := sig.Entry
	if cmd.IsSet("underlying") {
		underlying = cmd.Float("underlying")
	}

	marketPrice := optional.None[float64]()
	if cmd.IsSet("market-price") {
		marketPrice = optional.Some(cmd.Float("market-price"))
	} else if price, ok := env.cfg.MarketPrice(); ok {
		marketPrice = optional.Some(price)
	}

	trans := translator.New(translator.Config{
		Leverage:  leverage,
		LongISIN:  env.cfg.Turbo.LongISIN,
		ShortISIN: env.cfg.Turbo.ShortISIN,
	})

	levels := trans.Translate(sig, underlying, marketPrice, optional.Some(ratio))
	sig.Levels = &levels

	if cmd.Bool("json") {
		enc := json.NewEncoder(env.out)
		enc.SetIndent("", "  ")

		return enc.Encode(levels)
	}

	fmt.Fprintf(env.out, "%s entry %.2f stop %.2f target %.2f (R:R %.2f)\n", side, sig.Entry, sig.Stop, sig.Target, sig.RiskReward())

	switch {
	case levels.Absolute != nil:
		abs := levels.Absolute
		fmt.Fprintf(env.out, "financing %.4f ratio %.2f\n", abs.Financing, abs.Ratio)
		fmt.Fprintf(env.out, "turbo buy %.2f stop %.2f target %.2f\n", abs.MarketPrice, abs.StopPrice, abs.TargetPrice)
	case levels.Distance != nil:
		fmt.Fprintf(env.out, "turbo x%.2f stop distance %.4f target distance %.4f\n",
			levels.Leverage, levels.Distance.StopDistance, levels.Distance.TargetDistance)
	}

	return nil
}
