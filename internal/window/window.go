// Package window holds bounded bar histories.
package window

import (
	"github.com/rxtech-lab/argo-setups/internal/types"
)

// Window stores the most recent bars up to a fixed capacity.
// When the window is full the oldest bar is evicted.
// A Window is owned by a single goroutine and is not safe for concurrent use.
type Window struct {
	maxSize int
	// bars are ordered oldest first
	bars []types.Bar
}

// New creates a window holding at most maxSize bars.
func New(maxSize int) *Window {
	if maxSize < 1 {
		maxSize = 1
	}

	return &Window{
		maxSize: maxSize,
		bars:    make([]types.Bar, 0, maxSize),
	}
}

// Add appends a bar, evicting the oldest entry when over capacity.
func (w *Window) Add(bar types.Bar) {
	w.bars = append(w.bars, bar)
	if len(w.bars) > w.maxSize {
		w.bars = w.bars[len(w.bars)-w.maxSize:]
	}
}

// Replace discards the current content and loads bars, keeping the newest maxSize of them.
func (w *Window) Replace(bars []types.Bar) {
	if len(bars) > w.maxSize {
		bars = bars[len(bars)-w.maxSize:]
	}

	w.bars = make([]types.Bar, len(bars), w.maxSize)
	copy(w.bars, bars)
}

// Len returns the number of bars held.
func (w *Window) Len() int {
	return len(w.bars)
}

// At returns the bar at index i counted from the newest bar, so At(0) is the latest.
func (w *Window) At(i int) (types.Bar, bool) {
	if i < 0 || i >= len(w.bars) {
		return types.Bar{}, false //nolint:exhaustruct // zero value for not found
	}

	return w.bars[len(w.bars)-1-i], true
}

// Tail returns a view of the last n bars in chronological order.
// The returned slice must not be modified and is only valid until the next Add.
func (w *Window) Tail(n int) []types.Bar {
	if n <= 0 {
		return nil
	}

	if n > len(w.bars) {
		n = len(w.bars)
	}

	return w.bars[len(w.bars)-n:]
}

// View returns every bar in chronological order without copying.
func (w *Window) View() []types.Bar {
	return w.bars
}

// Snapshot returns a copy of every bar in chronological order.
func (w *Window) Snapshot() []types.Bar {
	out := make([]types.Bar, len(w.bars))
	copy(out, w.bars)

	return out
}

// Clear removes all bars.
func (w *Window) Clear() {
	w.bars = make([]types.Bar, 0, w.maxSize)
}
