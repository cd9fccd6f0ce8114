package detector

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/mocks"
	"github.com/stretchr/testify/suite"
)

type OpeningRangeTestSuite struct {
	suite.Suite
	day time.Time
}

func TestOpeningRangeSuite(t *testing.T) {
	suite.Run(t, new(OpeningRangeTestSuite))
}

func (suite *OpeningRangeTestSuite) SetupTest() {
	suite.day = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
}

func (suite *OpeningRangeTestSuite) newDetector(opts ...Option) *OpeningRangeBreak {
	d, err := NewOpeningRangeBreak(DefaultOpeningRangeParams(), opts...)
	suite.Require().NoError(err)

	return d
}

func (suite *OpeningRangeTestSuite) buildRange(d *OpeningRangeBreak, session *mocks.SessionBuilder) {
	for range 15 {
		suite.True(d.OnBar(session.Bar(100, 101, 99, 100, 6000)).IsNone())
	}
}

func (suite *OpeningRangeTestSuite) TestDegenerateRangeNeverFires() {
	for _, forced := range []bool{true, false} {
		var opts []Option
		if forced {
			opts = append(opts, WithForcedWindow())
		}

		d := suite.newDetector(opts...)
		session := mocks.NewSession("ASML.AS", suite.day, 8, 5)

		for range 15 {
			suite.True(d.OnBar(session.Flat(100, 6000)).IsNone())
		}

		for _, price := range []float64{150, 50, 100.01, 99.99} {
			suite.True(d.OnBar(session.Flat(price, 100000)).IsNone(), "forced=%v price=%v", forced, price)
		}
	}
}

func (suite *OpeningRangeTestSuite) TestForcedLong() {
	d := suite.newDetector(WithForcedWindow())
	session := mocks.NewSession("ASML.AS", suite.day, 3, 0)
	suite.buildRange(d, session)

	result := d.OnBar(session.Bar(100, 102.5, 100, 102, 6000))
	suite.Require().True(result.IsSome())

	sig := result.Unwrap()
	suite.Equal(types.SideLong, sig.Side)
	suite.Equal(102.0, sig.Entry)
	suite.Equal(99.0, sig.Stop)
	suite.Equal(104.6, sig.Target)
	suite.Equal(101.0, sig.Meta["range_high"])
	suite.Equal(99.0, sig.Meta["range_low"])
	suite.Equal(2.0, sig.Meta["range_size"])

	suite.True(d.OnBar(session.Bar(102, 106, 102, 105, 6000)).IsNone())
}

func (suite *OpeningRangeTestSuite) TestForceWindowParameter() {
	params := DefaultOpeningRangeParams()
	params.ForceWindow = true
	params.RangeNCandles = 2

	d, err := NewOpeningRangeBreak(params)
	suite.Require().NoError(err)

	session := mocks.NewSession("ASML.AS", suite.day, 22, 0)
	d.OnBar(session.Bar(100, 101, 99, 100, 6000))
	d.OnBar(session.Bar(100, 101, 99, 100, 6000))
	suite.True(d.OnBar(session.Bar(100, 100, 97, 98, 6000)).IsSome())
}

func (suite *OpeningRangeTestSuite) TestLiveShort() {
	d := suite.newDetector()
	session := mocks.NewSession("ASML.AS", suite.day, 8, 5)
	suite.buildRange(d, session)

	// 08:20 closes the range, inside it nothing happens
	suite.True(d.OnBar(session.Bar(100, 100.5, 99.5, 100, 6000)).IsNone())

	result := d.OnBar(session.At(8, 25).Bar(99, 99.5, 97.5, 98, 6000))
	suite.Require().True(result.IsSome())

	sig := result.Unwrap()
	suite.Equal(types.SideShort, sig.Side)
	suite.Equal(98.0, sig.Entry)
	suite.Equal(101.0, sig.Stop)
	suite.Equal(95.4, sig.Target)
}

func (suite *OpeningRangeTestSuite) TestLiveBreakoutAtRangeEnd() {
	d := suite.newDetector()
	session := mocks.NewSession("ASML.AS", suite.day, 8, 5)
	suite.buildRange(d, session)

	// the first bar at range_end may already break out
	suite.True(d.OnBar(session.Bar(100, 103, 100, 102, 6000)).IsSome())
}

func (suite *OpeningRangeTestSuite) TestLiveBreakoutAfterBreakEnd() {
	d := suite.newDetector()
	session := mocks.NewSession("ASML.AS", suite.day, 8, 5)
	suite.buildRange(d, session)

	suite.True(d.OnBar(session.At(8, 46).Bar(100, 103, 100, 102, 6000)).IsNone())
}

func (suite *OpeningRangeTestSuite) TestLiveNeedsRange() {
	d := suite.newDetector()
	session := mocks.NewSession("ASML.AS", suite.day, 8, 30)

	suite.True(d.OnBar(session.Bar(100, 103, 100, 102, 6000)).IsNone())
}

func (suite *OpeningRangeTestSuite) TestVolumeFloor() {
	d := suite.newDetector()
	session := mocks.NewSession("ASML.AS", suite.day, 8, 5)
	suite.buildRange(d, session)

	suite.True(d.OnBar(session.Bar(100, 103, 100, 102, 4999)).IsNone())
	suite.True(d.OnBar(session.Bar(100, 103, 100, 102, 5000)).IsSome())
}
