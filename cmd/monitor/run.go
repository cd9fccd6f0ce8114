package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-setups/internal/engine"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
	"github.com/urfave/cli/v3"
)

const pollInterval = 100 * time.Millisecond

func runCommand() *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Run the engine and print signals until Ctrl-C or the bar limit",
		Flags:  runFlags,
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	env, err := loadEnvironment(cmd, false)
	if err != nil {
		return err
	}
	defer env.log.Sync() //nolint:errcheck

	out := &syncWriter{mu: sync.Mutex{}, w: env.out}
	printer := signalPrinter(out)

	e, err := engine.New(env.cfg,
		engine.WithLogger(env.log),
		engine.WithSourceFactory(env.sources()),
		engine.WithCallbacks(engine.Callbacks{OnSignal: &printer}),
	)
	if err != nil {
		return err
	}

	if err := e.Start(startParams(cmd)); err != nil {
		return err
	}

	params := e.Params()
	fmt.Fprintf(out, "Watching %s with %s (%s feed)\n", params.Symbol, params.Setup.DisplayName(), params.FeedMode)

	snap := waitForRun(ctx, e)

	fmt.Fprintf(out, "Processed %d bars, %d signals\n", snap.BarCount, len(snap.Signals))

	if snap.Status == types.EngineStatusError {
		return errors.New(errors.ErrCodeEngineRunFailed, snap.ErrorMessage)
	}

	return nil
}

// waitForRun blocks until the run ends on its own or ctx is cancelled.
func waitForRun(ctx context.Context, e *engine.Engine) types.Snapshot {
	for !e.Wait(pollInterval) {
		select {
		case <-ctx.Done():
			e.Stop()
			e.Wait(engine.DefaultStopTimeout)

			return e.Snapshot()
		default:
		}
	}

	return e.Snapshot()
}

func signalPrinter(out io.Writer) engine.OnSignalCallback {
	return func(sig types.Signal) {
		fmt.Fprintln(out, formatSignalLine(sig))
	}
}

// formatSignalLine renders a signal on one console line.
func formatSignalLine(sig types.Signal) string {
	line := fmt.Sprintf("%s %-5s %-22s entry %.2f stop %.2f target %.2f",
		sig.Time.Format("2006-01-02 15:04"), sig.Side, sig.Setup.DisplayName(), sig.Entry, sig.Stop, sig.Target)

	levels := sig.Levels
	switch {
	case levels == nil:
	case levels.Absolute != nil:
		line += fmt.Sprintf(" | turbo %s buy %.2f stop %.2f target %.2f",
			levels.ISIN(sig.Side), levels.Absolute.MarketPrice, levels.Absolute.StopPrice, levels.Absolute.TargetPrice)
	case levels.Distance != nil:
		line += fmt.Sprintf(" | turbo x%.2f stop -%.4f target +%.4f",
			levels.Leverage, levels.Distance.StopDistance, levels.Distance.TargetDistance)
	}

	return line
}

// syncWriter serializes writes from the worker and the command.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.w.Write(p)
}
