package detector

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
)

// clock is a time of day in seconds after midnight.
type clock int

const (
	startOfDay clock = 0
	endOfDay   clock = 23*3600 + 59*60
)

func parseClock(s string) (clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, errors.Newf(errors.ErrCodeInvalidTimeWindow, "time %q is not HH:MM", s)
	}

	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, errors.Newf(errors.ErrCodeInvalidTimeWindow, "time %q has an invalid hour", s)
	}

	m, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 || m < 0 || m > 59 {
		return 0, errors.Newf(errors.ErrCodeInvalidTimeWindow, "time %q has an invalid minute", s)
	}

	return clock(h*3600 + m*60), nil
}

func (c clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/3600, int(c)%3600/60)
}

// timeWindow is an inclusive time-of-day range.
type timeWindow struct {
	start clock
	end   clock
}

func newTimeWindow(start, end string) (timeWindow, error) {
	s, err := parseClock(start)
	if err != nil {
		return timeWindow{}, err
	}

	e, err := parseClock(end)
	if err != nil {
		return timeWindow{}, err
	}

	if e < s {
		return timeWindow{}, errors.Newf(errors.ErrCodeInvalidTimeWindow, "window end %s is before start %s", e, s)
	}

	return timeWindow{start: s, end: e}, nil
}

func wholeDay() timeWindow {
	return timeWindow{start: startOfDay, end: endOfDay}
}

// contains reports whether the bar's local time of day lies in [start, end].
func (w timeWindow) contains(bar types.Bar) bool {
	t := clockOf(bar)

	return t >= w.start && t <= w.end
}

// containsHalfOpen reports whether the bar's local time of day lies in [start, end).
func (w timeWindow) containsHalfOpen(bar types.Bar) bool {
	t := clockOf(bar)

	return t >= w.start && t < w.end
}

func clockOf(bar types.Bar) clock {
	return clock(bar.Time.Hour()*3600 + bar.Time.Minute()*60 + bar.Time.Second())
}
