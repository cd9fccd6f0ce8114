package engine

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-setups/internal/detector"
	"github.com/rxtech-lab/argo-setups/internal/history"
	"github.com/rxtech-lab/argo-setups/internal/translator"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
	"go.uber.org/zap"
)

// historyLoader is implemented by detectors that accept warm-up bars.
type historyLoader interface {
	LoadHistory(bars []types.Bar)
}

func (e *Engine) work(ctx context.Context, r *run, det detector.Detector, params types.RunParameters) {
	defer close(r.done)
	defer r.cancel()

	err := e.guardedLoop(ctx, r, det, params)
	e.finish(r, err)
}

// guardedLoop turns a panic anywhere in the loop into a run error.
func (e *Engine) guardedLoop(ctx context.Context, r *run, det detector.Detector, params types.RunParameters) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			e.log.Error("Recovered panic in engine worker",
				zap.String("run_id", r.id),
				zap.Any("panic", recovered),
				zap.ByteString("stack", debug.Stack()),
			)

			err = errors.Newf(errors.ErrCodeEngineRunFailed, "unexpected fault: %v", recovered)
		}
	}()

	return e.loop(ctx, r, det, params)
}

// evaluate feeds one bar to the detector. A detector panic fails the run with ErrCodeDetectorFault.
func (e *Engine) evaluate(r *run, det detector.Detector, bar types.Bar) (result optional.Option[types.Signal], err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			e.log.Error("Recovered panic in detector",
				zap.String("run_id", r.id),
				zap.String("setup", string(det.Name())),
				zap.Time("bar_time", bar.Time),
				zap.Any("panic", recovered),
				zap.ByteString("stack", debug.Stack()),
			)

			result = optional.None[types.Signal]()
			err = errors.Newf(errors.ErrCodeDetectorFault, "%s detector fault: %v", det.Name(), recovered)
		}
	}()

	return det.OnBar(bar), nil
}

func (e *Engine) loop(ctx context.Context, r *run, det detector.Detector, params types.RunParameters) error {
	src, err := e.sources(e.cfg, params, e.log)
	if err != nil {
		return errors.Wrap(errors.ErrCodeEngineNoSource, "failed to build bar source", err)
	}

	e.warmUp(ctx, det)

	trans := translator.New(translator.Config{
		Leverage:  params.Leverage,
		LongISIN:  e.cfg.Turbo.LongISIN,
		ShortISIN: e.cfg.Turbo.ShortISIN,
	})
	ratio := optional.Some(params.Ratio)

	running := false
	if !e.update(r, func(s *state) {
		if s.status == types.EngineStatusStarting {
			s.status = types.EngineStatusRunning
			running = true
		}
	}) {
		return nil
	}

	if running {
		e.metrics.SetStatus(types.EngineStatusRunning)
		e.callbacks.status(types.EngineStatusRunning, "")
	}

	for bar, srcErr := range src.Bars(ctx) {
		if r.stop.Load() {
			return nil
		}

		if srcErr != nil {
			return errors.Wrap(errors.ErrCodeEngineRunFailed, "bar source failed", srcErr)
		}

		started := time.Now()

		if !e.update(r, func(s *state) { s.recordBar(bar) }) {
			return nil
		}

		e.callbacks.bar(bar)

		result, err := e.evaluate(r, det, bar)
		if err != nil {
			return err
		}

		if result.IsSome() {
			sig := result.Unwrap()
			levels := trans.Translate(sig, sig.Entry, params.MarketPrice, ratio)
			sig.Levels = &levels

			stored := sig.Clone()
			if !e.update(r, func(s *state) { s.recordSignal(stored) }) {
				return nil
			}

			e.metrics.ObserveSignal(sig)
			e.log.Info("Signal",
				zap.String("run_id", r.id),
				zap.String("setup", string(sig.Setup)),
				zap.String("side", string(sig.Side)),
				zap.Float64("entry", sig.Entry),
				zap.Float64("stop", sig.Stop),
				zap.Float64("target", sig.Target),
				zap.Bool("absolute_levels", levels.IsAbsolute()),
			)
			e.callbacks.signal(sig)
		}

		e.metrics.ObserveBar(bar, time.Since(started))
	}

	return nil
}

// update applies fn to the state when r is still the current run.
func (e *Engine) update(r *run, fn func(s *state)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.runID != r.id {
		return false
	}

	fn(&e.state)

	return true
}

// finish freezes the state to stopped or error.
func (e *Engine) finish(r *run, err error) {
	status := types.EngineStatusStopped
	message := ""

	current := e.update(r, func(s *state) {
		switch {
		case err != nil:
			s.fail(err.Error())
		case s.status != types.EngineStatusError:
			s.status = types.EngineStatusStopped
		}

		status = s.status
		message = s.errorMessage
	})
	if !current {
		e.log.Debug("Superseded worker exited", zap.String("run_id", r.id))

		return
	}

	if status == types.EngineStatusError {
		e.metrics.RunFailed()
		e.log.Error("Run failed", zap.String("run_id", r.id), zap.String("error", message))
	} else {
		e.log.Info("Run finished", zap.String("run_id", r.id))
	}

	e.metrics.SetStatus(status)
	e.callbacks.status(status, message)
}

// warmUp loads the previous session into detectors that keep an indicator history.
// A missing or unreadable file only costs the warm-up.
func (e *Engine) warmUp(ctx context.Context, det detector.Detector) {
	path := e.cfg.History.WarmupFile
	if path == "" {
		return
	}

	loader, ok := det.(historyLoader)
	if !ok {
		return
	}

	loc, err := e.cfg.LoadLocation()
	if err != nil {
		e.log.Warn("Skipping warm-up", zap.Error(err))

		return
	}

	bars, err := history.ReadFile(ctx, path, history.Query{
		Limit:    e.cfg.History.WarmupBars,
		Latest:   true,
		Location: loc,
	}, e.log)
	if err != nil {
		e.log.Warn("Skipping warm-up", zap.String("path", path), zap.Error(err))

		return
	}

	loader.LoadHistory(bars)
	e.log.Info("Loaded warm-up bars", zap.String("path", path), zap.Int("count", len(bars)))
}
