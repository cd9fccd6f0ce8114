// Package scheduler starts and stops the engine on cron expressions so the
// monitor follows the trading session without manual control.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rxtech-lab/argo-setups/internal/config"
	"github.com/rxtech-lab/argo-setups/internal/engine"
	"github.com/rxtech-lab/argo-setups/internal/logger"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
	"go.uber.org/zap"
)

// Controller is the part of the engine the scheduler drives.
type Controller interface {
	Start(p engine.StartParams) error
	Stop()
}

// Scheduler runs one start and one stop entry in the feed's location.
type Scheduler struct {
	cron  *cron.Cron
	ctrl  Controller
	log   *logger.Logger
	start cron.Schedule
	stop  cron.Schedule
	loc   *time.Location
}

// New parses the start and stop expressions (standard five fields) and
// registers them. Nothing runs until Start.
func New(ctrl Controller, cfg config.ScheduleConfig, loc *time.Location, log *logger.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}

	log = log.Named("scheduler")

	start, err := cron.ParseStandard(cfg.Start)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid schedule start %q", cfg.Start)
	}

	stop, err := cron.ParseStandard(cfg.Stop)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid schedule stop %q", cfg.Stop)
	}

	cronLog := cronLogger{log: log}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog)),
		),
		ctrl:  ctrl,
		log:   log,
		start: start,
		stop:  stop,
		loc:   loc,
	}

	s.cron.Schedule(start, cron.FuncJob(s.startRun))
	s.cron.Schedule(stop, cron.FuncJob(s.stopRun))

	return s, nil
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()

	start, stop := s.Next(time.Now())
	s.log.Info("Scheduler started", zap.Time("next_start", start), zap.Time("next_stop", stop))
}

// Stop halts the schedule and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

// Next returns the next start and stop times after now.
func (s *Scheduler) Next(now time.Time) (time.Time, time.Time) {
	now = now.In(s.loc)

	return s.start.Next(now), s.stop.Next(now)
}

// InSession reports whether now lies between a start and the following stop,
// that is whether the next stop comes before the next start.
func (s *Scheduler) InSession(now time.Time) bool {
	start, stop := s.Next(now)

	return stop.Before(start)
}

// CatchUp starts a run when the process comes up inside a session. It
// returns whether a run was started.
func (s *Scheduler) CatchUp(now time.Time) bool {
	if !s.InSession(now) {
		return false
	}

	s.log.Info("Inside session window, starting now")
	s.startRun()

	return true
}

func (s *Scheduler) startRun() {
	if err := s.ctrl.Start(engine.StartParams{}); err != nil {
		s.log.Error("Scheduled start failed", zap.Error(err))

		return
	}

	s.log.Info("Scheduled start")
}

func (s *Scheduler) stopRun() {
	s.ctrl.Stop()
	s.log.Info("Scheduled stop")
}

// cronLogger forwards cron's own logging to zap.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
