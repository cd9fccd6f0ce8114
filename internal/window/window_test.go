package window

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/stretchr/testify/suite"
)

type WindowTestSuite struct {
	suite.Suite
}

func TestWindowSuite(t *testing.T) {
	suite.Run(t, new(WindowTestSuite))
}

func bar(i int) types.Bar {
	return types.Bar{
		Symbol: "ASML.AS",
		Time:   time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		Close:  float64(i),
	}
}

func (suite *WindowTestSuite) TestEvictsOldest() {
	w := New(3)
	for i := 1; i <= 5; i++ {
		w.Add(bar(i))
	}

	suite.Equal(3, w.Len())

	closes := []float64{}
	for _, b := range w.View() {
		closes = append(closes, b.Close)
	}

	suite.Equal([]float64{3, 4, 5}, closes)
}

func (suite *WindowTestSuite) TestAt() {
	w := New(10)
	_, ok := w.At(0)
	suite.False(ok)

	w.Add(bar(1))
	w.Add(bar(2))

	last, ok := w.At(0)
	suite.True(ok)
	suite.Equal(2.0, last.Close)

	prev, ok := w.At(1)
	suite.True(ok)
	suite.Equal(1.0, prev.Close)

	_, ok = w.At(2)
	suite.False(ok)
	_, ok = w.At(-1)
	suite.False(ok)
}

func (suite *WindowTestSuite) TestTail() {
	w := New(10)
	for i := 1; i <= 4; i++ {
		w.Add(bar(i))
	}

	tail := w.Tail(2)
	suite.Len(tail, 2)
	suite.Equal(3.0, tail[0].Close)
	suite.Equal(4.0, tail[1].Close)

	suite.Len(w.Tail(100), 4)
	suite.Nil(w.Tail(0))
}

func (suite *WindowTestSuite) TestSnapshotIsCopy() {
	w := New(2)
	w.Add(bar(1))

	snap := w.Snapshot()
	snap[0].Close = 99

	last, _ := w.At(0)
	suite.Equal(1.0, last.Close)
}

func (suite *WindowTestSuite) TestReplaceKeepsNewest() {
	w := New(2)
	w.Add(bar(9))
	w.Replace([]types.Bar{bar(1), bar(2), bar(3)})

	suite.Equal(2, w.Len())
	first, _ := w.At(1)
	suite.Equal(2.0, first.Close)
}

func (suite *WindowTestSuite) TestClearAndMinimumSize() {
	w := New(0)
	w.Add(bar(1))
	w.Add(bar(2))
	suite.Equal(1, w.Len())

	w.Clear()
	suite.Equal(0, w.Len())
}
