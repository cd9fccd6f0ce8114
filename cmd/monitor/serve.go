package main

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-setups/internal/engine"
	"github.com/rxtech-lab/argo-setups/internal/metrics"
	"github.com/rxtech-lab/argo-setups/internal/scheduler"
	"github.com/rxtech-lab/argo-setups/internal/server"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP control surface, optionally on the configured schedule",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "addr", Aliases: []string{"a"}, Usage: "Listen address (overrides server.addr)"},
			&cli.BoolFlag{Name: "start", Usage: "Start a run immediately"},
		}, runFlags...),
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	env, err := loadEnvironment(cmd, false)
	if err != nil {
		return err
	}
	defer env.log.Sync() //nolint:errcheck

	m := metrics.New()

	// the hub exists only after the server, so the listener reaches it through srv
	var srv *server.Server

	notify := engine.OnSignalCallback(func(types.Signal) { srv.Hub().Notify() })

	e, err := engine.New(env.cfg,
		engine.WithLogger(env.log),
		engine.WithMetrics(m),
		engine.WithSourceFactory(env.sources()),
		engine.WithSignalListener(notify),
	)
	if err != nil {
		return err
	}

	srv = server.New(e, env.cfg, m, env.log)

	if err := srv.Start(ctx, cmd.String("addr")); err != nil {
		return err
	}

	if env.cfg.Schedule.Enabled {
		loc, err := env.cfg.LoadLocation()
		if err != nil {
			return err
		}

		sched, err := scheduler.New(e, env.cfg.Schedule, loc, env.log)
		if err != nil {
			return err
		}

		sched.Start()
		defer sched.Stop()

		if !cmd.Bool("start") {
			sched.CatchUp(time.Now())
		}
	}

	if cmd.Bool("start") {
		if err := e.Start(startParams(cmd)); err != nil {
			return err
		}
	}

	<-ctx.Done()
	env.log.Info("Shutting down")

	e.Stop()
	e.Wait(engine.DefaultStopTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		env.log.Warn("HTTP shutdown failed", zap.Error(err))
	}

	return nil
}
