// Package engine runs one detector over one bar source and publishes the
// results through a lock-protected state.
//
// A run is owned by a single worker goroutine. Stopping is cooperative: the
// worker checks a stop flag between bars and the run context is cancelled so
// sources abort their sleeps and polls. Stop latency is still bounded by how
// long the source takes to hand over the bar it is producing.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-setups/internal/config"
	"github.com/rxtech-lab/argo-setups/internal/detector"
	"github.com/rxtech-lab/argo-setups/internal/logger"
	"github.com/rxtech-lab/argo-setups/internal/metrics"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
	"go.uber.org/zap"
)

// DefaultStopTimeout bounds how long Start waits for the previous worker.
const DefaultStopTimeout = 3 * time.Second

// StartParams override the configured run parameters. Absent fields keep the
// value of the previous run, or the configuration on the first run.
type StartParams struct {
	Setup         optional.Option[types.SetupName]
	PreviousClose optional.Option[float64]
	Leverage      optional.Option[float64]
	Ratio         optional.Option[float64]
	Symbol        optional.Option[string]
	FeedMode      optional.Option[types.FeedMode]
	// MarketPrice of zero clears the derivative quote.
	MarketPrice optional.Option[float64]
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithSourceFactory replaces the way runs build their bar source.
func WithSourceFactory(factory SourceFactory) Option {
	return func(e *Engine) {
		e.sources = factory
	}
}

// WithMetrics records engine activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithStopTimeout bounds the wait for a previous worker on restart.
func WithStopTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		e.stopTimeout = timeout
	}
}

// WithCallbacks installs the engine listeners.
func WithCallbacks(callbacks Callbacks) Option {
	return func(e *Engine) {
		e.callbacks = callbacks
	}
}

// WithSignalListener installs only the signal listener.
func WithSignalListener(fn OnSignalCallback) Option {
	return func(e *Engine) {
		e.callbacks.OnSignal = &fn
	}
}

// run is the handle of one worker.
type run struct {
	id     string
	stop   atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}
}

func (r *run) wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-r.done:
		return true
	case <-timer.C:
		return false
	}
}

// Engine drives the active detector and holds the shared state.
type Engine struct {
	cfg         *config.AppConfig
	log         *logger.Logger
	metrics     *metrics.Metrics
	sources     SourceFactory
	stopTimeout time.Duration
	callbacks   Callbacks

	// control serializes Start and Stop and guards current and params.
	control sync.Mutex
	current *run
	params  types.RunParameters

	mu    sync.Mutex
	state state
}

// New creates a stopped engine. The configuration is copied.
func New(cfg *config.AppConfig, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeEngineInitFailed, "engine needs a configuration")
	}

	e := &Engine{
		cfg:         cfg.Clone(),
		log:         nil,
		metrics:     nil,
		sources:     nil,
		stopTimeout: DefaultStopTimeout,
		callbacks:   Callbacks{},
		control:     sync.Mutex{},
		current:     nil,
		params:      types.RunParameters{},
		mu:          sync.Mutex{},
		state:       state{},
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.log == nil {
		e.log = logger.NewNop()
	}

	e.log = e.log.Named("engine")

	if e.sources == nil {
		e.sources = NewSourceFactory("")
	}

	if e.stopTimeout <= 0 {
		e.stopTimeout = DefaultStopTimeout
	}

	e.params = paramsFromConfig(e.cfg)
	e.state = newState(e.params)

	return e, nil
}

func paramsFromConfig(cfg *config.AppConfig) types.RunParameters {
	marketPrice := optional.None[float64]()
	if price, ok := cfg.MarketPrice(); ok {
		marketPrice = optional.Some(price)
	}

	return types.RunParameters{
		Setup:         cfg.DemoSetup,
		PreviousClose: cfg.DemoPrevClose,
		Leverage:      cfg.Turbo.Leverage,
		Ratio:         cfg.Turbo.Ratio,
		MarketPrice:   marketPrice,
		Symbol:        cfg.UnderlyingSymbol,
		FeedMode:      cfg.Feed.Mode,
	}
}

// Start applies p, stops a running worker and spawns a new one.
// Configuration errors are returned before the running worker or the state is touched.
func (e *Engine) Start(p StartParams) error {
	e.control.Lock()
	defer e.control.Unlock()

	params, err := mergeParams(e.params, p)
	if err != nil {
		return err
	}

	det, err := e.buildDetector(params)
	if err != nil {
		return err
	}

	if prev := e.current; prev != nil {
		prev.stop.Store(true)
		prev.cancel()

		if !prev.wait(e.stopTimeout) {
			e.log.Warn("Previous worker still running after stop timeout, starting anyway",
				zap.String("run_id", prev.id),
				zap.Duration("timeout", e.stopTimeout),
			)
		}
	}

	e.params = params

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		id:     uuid.NewString(),
		stop:   atomic.Bool{},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	e.current = r

	e.mu.Lock()
	e.state.reset(r.id, params)
	e.mu.Unlock()

	e.metrics.RunStarted()
	e.metrics.SetStatus(types.EngineStatusStarting)
	e.callbacks.status(types.EngineStatusStarting, "")

	e.log.Info("Starting run",
		zap.String("run_id", r.id),
		zap.String("setup", string(params.Setup)),
		zap.String("symbol", params.Symbol),
		zap.String("feed_mode", string(params.FeedMode)),
		zap.Float64("previous_close", params.PreviousClose),
	)

	go e.work(ctx, r, det, params)

	return nil
}

// Stop asks the worker to exit and reports the engine as stopped right away.
// An error status is kept until the next Start.
func (e *Engine) Stop() {
	e.control.Lock()
	r := e.current
	e.control.Unlock()

	if r != nil {
		r.stop.Store(true)
		r.cancel()
	}

	e.mu.Lock()
	changed := e.state.status != types.EngineStatusError && e.state.status != types.EngineStatusStopped
	if changed {
		e.state.status = types.EngineStatusStopped
	}
	e.mu.Unlock()

	if changed {
		e.metrics.SetStatus(types.EngineStatusStopped)
		e.callbacks.status(types.EngineStatusStopped, "")
		e.log.Info("Stop requested")
	}
}

// IsRunning reports whether a run is starting or running.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state.status == types.EngineStatusStarting || e.state.status == types.EngineStatusRunning
}

// Snapshot returns a deep copy of the state taken under one lock acquisition.
func (e *Engine) Snapshot() types.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state.snapshot()
}

// Wait blocks until the current worker exits or timeout elapses.
// It returns true when no worker is alive.
func (e *Engine) Wait(timeout time.Duration) bool {
	e.control.Lock()
	r := e.current
	e.control.Unlock()

	if r == nil {
		return true
	}

	return r.wait(timeout)
}

// Params returns the parameters the next Start falls back to.
func (e *Engine) Params() types.RunParameters {
	e.control.Lock()
	defer e.control.Unlock()

	return e.params
}

// Config returns the engine's copy of the configuration.
func (e *Engine) Config() *config.AppConfig {
	return e.cfg.Clone()
}

func mergeParams(base types.RunParameters, p StartParams) (types.RunParameters, error) {
	out := base

	if p.Setup.IsSome() {
		out.Setup = p.Setup.Unwrap()
	}

	if p.PreviousClose.IsSome() {
		out.PreviousClose = p.PreviousClose.Unwrap()
	}

	if p.Leverage.IsSome() {
		out.Leverage = p.Leverage.Unwrap()
	}

	if p.Ratio.IsSome() {
		out.Ratio = p.Ratio.Unwrap()
	}

	if p.Symbol.IsSome() {
		out.Symbol = p.Symbol.Unwrap()
	}

	if p.FeedMode.IsSome() {
		out.FeedMode = p.FeedMode.Unwrap()
	}

	if p.MarketPrice.IsSome() {
		out.MarketPrice = p.MarketPrice
		if p.MarketPrice.Unwrap() == 0 {
			out.MarketPrice = optional.None[float64]()
		}
	}

	switch {
	case out.PreviousClose <= 0:
		return base, errors.Newf(errors.ErrCodeInvalidParameter, "previous close must be positive, got %v", out.PreviousClose)
	case out.Leverage <= 0:
		return base, errors.Newf(errors.ErrCodeInvalidParameter, "leverage must be positive, got %v", out.Leverage)
	case out.Ratio <= 0:
		return base, errors.Newf(errors.ErrCodeInvalidParameter, "ratio must be positive, got %v", out.Ratio)
	case out.Symbol == "":
		return base, errors.New(errors.ErrCodeMissingParameter, "symbol is required")
	case !out.FeedMode.Valid():
		return base, errors.Newf(errors.ErrCodeInvalidParameter, "unknown feed mode %q", out.FeedMode)
	case out.MarketPrice.IsSome() && out.MarketPrice.Unwrap() < 0:
		return base, errors.Newf(errors.ErrCodeInvalidParameter, "market price must not be negative, got %v", out.MarketPrice.Unwrap())
	}

	return out, nil
}

func (e *Engine) buildDetector(params types.RunParameters) (detector.Detector, error) {
	opts := []detector.Option{
		detector.WithLogger(e.log),
		detector.WithPreviousClose(params.PreviousClose),
	}

	if e.cfg.DemoForceWindow {
		opts = append(opts, detector.WithForcedWindow())
	}

	return detector.New(params.Setup, e.cfg.SetupParams(params.Setup), opts...)
}
