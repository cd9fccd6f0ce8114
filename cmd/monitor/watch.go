package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-setups/internal/engine"
	"github.com/rxtech-lab/argo-setups/internal/tui"
	"github.com/urfave/cli/v3"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Run the engine behind a terminal dashboard",
		Flags: append([]cli.Flag{
			&cli.DurationFlag{Name: "refresh", Usage: "Dashboard refresh interval", Value: tui.DefaultRefresh},
		}, runFlags...),
		Action: watchAction,
	}
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	// the dashboard owns the terminal, so logs are discarded
	env, err := loadEnvironment(cmd, true)
	if err != nil {
		return err
	}

	e, err := engine.New(env.cfg,
		engine.WithLogger(env.log),
		engine.WithSourceFactory(env.sources()),
	)
	if err != nil {
		return err
	}

	if err := e.Start(startParams(cmd)); err != nil {
		return err
	}

	defer func() {
		e.Stop()
		e.Wait(engine.DefaultStopTimeout)
	}()

	program := tea.NewProgram(
		tui.NewModel(e.Snapshot, cmd.Duration("refresh")),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err = program.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}

	return err
}
