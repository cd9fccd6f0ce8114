package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/stretchr/testify/suite"
)

type StateTestSuite struct {
	suite.Suite
	state state
}

func TestStateSuite(t *testing.T) {
	suite.Run(t, new(StateTestSuite))
}

func (suite *StateTestSuite) SetupTest() {
	suite.state = newState(types.RunParameters{
		Setup:         types.SetupMorningGap,
		PreviousClose: 1210,
		Leverage:      3.5,
		Ratio:         10,
		MarketPrice:   optional.Some(5.0),
		Symbol:        "ASML.AS",
		FeedMode:      types.FeedModeMock,
	})
	suite.state.reset("run-1", suite.state.params)
}

func bar(i int) types.Bar {
	price := 1000 + float64(i)

	return types.Bar{
		Symbol: "ASML.AS",
		Time:   time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		Open:   price,
		High:   price + 1,
		Low:    price - 1,
		Close:  price,
		Volume: 100,
	}
}

func signal(i int) types.Signal {
	return types.Signal{
		ID:     fmt.Sprintf("sig-%d", i),
		Side:   types.SideLong,
		Symbol: "ASML.AS",
		Entry:  float64(i),
		Setup:  types.SetupBreakout,
		Meta:   map[string]float64{"n": float64(i)},
		Levels: &types.DerivativeLevels{
			Leverage: 3.5,
			Distance: &types.DistanceLevels{StopDistance: 1, TargetDistance: 2},
		},
	}
}

func (suite *StateTestSuite) TestResetStartsRun() {
	suite.state.recordBar(bar(0))
	suite.state.recordSignal(signal(0))
	suite.state.fail("boom")

	suite.state.reset("run-2", suite.state.params)

	snap := suite.state.snapshot()
	suite.Equal("run-2", snap.RunID)
	suite.Equal(types.EngineStatusStarting, snap.Status)
	suite.Empty(snap.ErrorMessage)
	suite.Zero(snap.BarCount)
	suite.Empty(snap.Bars)
	suite.Empty(snap.Signals)
	suite.True(snap.Price.IsNone())
	suite.True(snap.LastBar.IsNone())
}

func (suite *StateTestSuite) TestBarsEvictOldest() {
	for i := range ChartBars + 20 {
		suite.state.recordBar(bar(i))
	}

	snap := suite.state.snapshot()
	suite.Equal(ChartBars+20, snap.BarCount)
	suite.Len(snap.Bars, ChartBars)
	suite.Equal(bar(20), snap.Bars[0])
	suite.Equal(bar(ChartBars+19), snap.Bars[ChartBars-1])
	suite.Equal(bar(ChartBars+19).Close, snap.Price.Unwrap())
	suite.Equal(bar(ChartBars+19), snap.LastBar.Unwrap())
}

func (suite *StateTestSuite) TestSignalsEvictOldest() {
	for i := range MaxSignals + 1 {
		suite.state.recordSignal(signal(i))
	}

	snap := suite.state.snapshot()
	suite.Len(snap.Signals, MaxSignals)
	suite.Equal("sig-1", snap.Signals[0].ID)
	suite.Equal(fmt.Sprintf("sig-%d", MaxSignals), snap.Signals[MaxSignals-1].ID)
	suite.Equal(fmt.Sprintf("sig-%d", MaxSignals), snap.LatestSignal().Unwrap().ID)
}

func (suite *StateTestSuite) TestFail() {
	suite.state.fail("feed went away")

	snap := suite.state.snapshot()
	suite.Equal(types.EngineStatusError, snap.Status)
	suite.Equal("feed went away", snap.ErrorMessage)
}

func (suite *StateTestSuite) TestSnapshotDoesNotAlias() {
	suite.state.recordBar(bar(0))
	suite.state.recordSignal(signal(0))

	snap := suite.state.snapshot()
	snap.Bars[0].Close = -1
	snap.Signals[0].Meta["n"] = -1
	snap.Signals[0].Levels.Distance.StopDistance = -1

	again := suite.state.snapshot()
	suite.Equal(1000.0, again.Bars[0].Close)
	suite.Equal(0.0, again.Signals[0].Meta["n"])
	suite.Equal(1.0, again.Signals[0].Levels.Distance.StopDistance)
	suite.Equal(5.0, again.Params.MarketPrice.Unwrap())
}
