package detector

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/mocks"
	"github.com/stretchr/testify/suite"
)

type GapFillTestSuite struct {
	suite.Suite
	day time.Time
}

func TestGapFillSuite(t *testing.T) {
	suite.Run(t, new(GapFillTestSuite))
}

func (suite *GapFillTestSuite) SetupTest() {
	suite.day = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
}

func (suite *GapFillTestSuite) newDetector(opts ...Option) *GapFill {
	d, err := NewGapFill(DefaultGapFillParams(), opts...)
	suite.Require().NoError(err)

	return d
}

func (suite *GapFillTestSuite) TestNoPreviousCloseNeverFires() {
	d := suite.newDetector()

	config := mocks.DefaultConfig()
	config.StartTime = suite.day.Add(8 * time.Hour)
	config.Count = 200
	config.Volatility = 0.02
	config.VolumeBase = 20000

	for _, bar := range mocks.NewDataGenerator(3).Generate(config) {
		suite.True(d.OnBar(bar).IsNone())
	}

	// bars are still retained for the ATR
	suite.Equal(200, d.history.Len())
}

func (suite *GapFillTestSuite) TestFiresOnFirstHigherClose() {
	d := suite.newDetector(WithPreviousClose(1210))
	session := mocks.NewSession("ASML.AS", suite.day, 8, 5)

	suite.True(d.OnBar(session.Bar(1195, 1196, 1190, 1192, 6000)).IsNone())
	suite.True(d.OnBar(session.Bar(1192, 1193, 1188, 1191, 3000)).IsNone())

	result := d.OnBar(session.Bar(1191, 1195, 1190, 1194, 3000))
	suite.Require().True(result.IsSome())

	sig := result.Unwrap()
	suite.Equal(types.SideLong, sig.Side)
	suite.Equal(types.SetupMorningGap, sig.Setup)
	suite.Equal("Morning Gap Fill", sig.SetupName)
	suite.Equal("ASML.AS", sig.Symbol)
	suite.NotEmpty(sig.ID)
	suite.Equal(1194.0, sig.Entry)
	// lowest low of the session so far, no ATR yet so the fixed buffer of 0 applies
	suite.Equal(1188.0, sig.Stop)
	// aims to fill the gap
	suite.Equal(1210.0, sig.Target)
	suite.Equal(1210.0, sig.Meta["prev_close"])
	suite.Equal(1195.0, sig.Meta["first_open"])
	suite.Equal(15.0, sig.Meta["gap"])
	suite.NotContains(sig.Meta, "atr")

	// disarmed for the rest of the session
	suite.True(d.OnBar(session.Bar(1194, 1199, 1193, 1198, 3000)).IsNone())
}

func (suite *GapFillTestSuite) TestATRBufferWithWarmupHistory() {
	d := suite.newDetector(WithPreviousClose(1210))

	warmup := mocks.NewSession("ASML.AS", suite.day.AddDate(0, 0, -1), 16, 0)
	bars := make([]types.Bar, 0, 20)
	for range 20 {
		bars = append(bars, warmup.Bar(1200, 1201, 1199, 1200, 1000))
	}

	d.LoadHistory(bars)
	suite.Equal(20, d.history.Len())

	session := mocks.NewSession("ASML.AS", suite.day, 8, 5)
	d.OnBar(session.Bar(1195, 1196, 1190, 1192, 6000))
	d.OnBar(session.Bar(1192, 1193, 1188, 1191, 3000))

	result := d.OnBar(session.Bar(1191, 1195, 1190, 1194, 3000))
	suite.Require().True(result.IsSome())

	sig := result.Unwrap()
	// true ranges 2 x19, then 10, 5, 5 with Wilder smoothing over 14
	suite.InDelta(2.905977, sig.Meta["atr"], 1e-6)
	suite.InDelta(1188-0.871793, sig.Stop, 1e-4)
	suite.Equal(1210.0, sig.Target)
}

func (suite *GapFillTestSuite) TestTargetUsesRatioWhenGapAlreadyFilled() {
	d := suite.newDetector(WithPreviousClose(1210))
	session := mocks.NewSession("ASML.AS", suite.day, 8, 5)

	d.OnBar(session.Bar(1195, 1201, 1190, 1200, 6000))
	result := d.OnBar(session.Bar(1200, 1215, 1199, 1212, 4000))
	suite.Require().True(result.IsSome())

	sig := result.Unwrap()
	suite.Equal(1212.0, sig.Entry)
	suite.Equal(1190.0, sig.Stop)
	suite.Equal(1212+22*1.5, sig.Target)
}

func (suite *GapFillTestSuite) TestSmallGapDoesNotArm() {
	d := suite.newDetector(WithPreviousClose(1210))
	session := mocks.NewSession("ASML.AS", suite.day, 8, 5)

	d.OnBar(session.Bar(1205, 1206, 1200, 1201, 9000))
	for i := range 10 {
		price := 1202 + float64(i)
		suite.True(d.OnBar(session.Bar(price, price+1, price-1, price+0.5, 9000)).IsNone())
	}
}

func (suite *GapFillTestSuite) TestLowOpeningVolumeDoesNotArm() {
	d := suite.newDetector(WithPreviousClose(1210))
	session := mocks.NewSession("ASML.AS", suite.day, 8, 5)

	d.OnBar(session.Bar(1195, 1196, 1190, 1192, 4999))
	suite.True(d.OnBar(session.Bar(1192, 1199, 1191, 1198, 9000)).IsNone())
}

func (suite *GapFillTestSuite) TestBarsBeforeWindowAreNotTheOpen() {
	d := suite.newDetector(WithPreviousClose(1210))
	session := mocks.NewSession("ASML.AS", suite.day, 7, 55)

	// pre-market bars without a gap are ignored
	d.OnBar(session.Bar(1209, 1210, 1208, 1209, 9000))
	d.OnBar(session.Bar(1209, 1210, 1208, 1209, 9000))

	d.OnBar(session.At(8, 5).Bar(1195, 1196, 1190, 1192, 6000))
	suite.True(d.OnBar(session.Bar(1192, 1196, 1191, 1195, 3000)).IsSome())
}

func (suite *GapFillTestSuite) TestArmedButOutOfWindowWaits() {
	d := suite.newDetector(WithPreviousClose(1210))
	session := mocks.NewSession("ASML.AS", suite.day, 8, 59)

	d.OnBar(session.Bar(1195, 1196, 1190, 1192, 6000))
	// 09:00 is still inside the inclusive window
	suite.True(d.OnBar(session.Bar(1192, 1193, 1189, 1190, 3000)).IsNone())
	// 09:01 is outside
	suite.True(d.OnBar(session.Bar(1190, 1199, 1189, 1198, 3000)).IsNone())
}

func (suite *GapFillTestSuite) TestAtMostOneSignalPerSession() {
	d := suite.newDetector(WithPreviousClose(1210))
	session := mocks.NewSession("ASML.AS", suite.day, 8, 5)

	d.OnBar(session.Bar(1195, 1196, 1190, 1192, 6000))
	suite.True(d.OnBar(session.Bar(1192, 1196, 1191, 1195, 3000)).IsSome())

	// a second qualifying open later in the same session does not re-arm
	suite.True(d.OnBar(session.Bar(1190, 1191, 1185, 1186, 9000)).IsNone())
	suite.True(d.OnBar(session.Bar(1186, 1190, 1185, 1189, 9000)).IsNone())

	// the next session measures its gap against 1189, the last close of this one
	next := mocks.NewSession("ASML.AS", suite.day.AddDate(0, 0, 1), 8, 5)
	suite.True(d.OnBar(next.Bar(1175, 1177, 1172, 1174, 7000)).IsNone())

	result := d.OnBar(next.Bar(1174, 1180, 1173, 1179, 3000))
	suite.Require().True(result.IsSome())
	suite.Equal(1189.0, result.Unwrap().Meta["prev_close"])
	suite.Equal(1189.0, result.Unwrap().Target)
}

func (suite *GapFillTestSuite) TestGapMeasuredAgainstPreviousSession() {
	type bar struct {
		open, high, low, close, volume float64
	}

	// Each session opens at 08:05 on consecutive dates. The detector starts with
	// a reference close of 1210, so the first session gaps down by 15.
	sessions := []struct {
		name      string
		bars      []bar
		fires     bool
		prevClose float64
		target    float64
	}{
		{
			name:      "gap down below the configured close",
			bars:      []bar{{1195, 1196, 1190, 1192, 6000}, {1192, 1197, 1191, 1196, 3000}, {1196, 1199, 1195, 1198, 3000}},
			fires:     true,
			prevClose: 1210,
			target:    1210,
		},
		{
			name: "gap up above the previous session close",
			// 11 below the first session's reference but above its 1198 close
			bars: []bar{{1199, 1201, 1197, 1198, 9000}, {1198, 1203, 1197, 1202, 3000}, {1202, 1203, 1200, 1201, 3000}},
		},
		{
			name:      "gap down below the previous session close",
			bars:      []bar{{1188, 1189, 1185, 1186, 6000}, {1186, 1192, 1185, 1191, 3000}},
			fires:     true,
			prevClose: 1201,
			target:    1201,
		},
		{
			name: "small gap below the minimum",
			bars: []bar{{1185, 1186, 1183, 1184, 6000}, {1184, 1190, 1183, 1189, 3000}},
		},
	}

	d := suite.newDetector(WithPreviousClose(1210))

	for i, session := range sessions {
		builder := mocks.NewSession("ASML.AS", suite.day.AddDate(0, 0, i), 8, 5)

		var fired []types.Signal

		for _, b := range session.bars {
			if result := d.OnBar(builder.Bar(b.open, b.high, b.low, b.close, b.volume)); result.IsSome() {
				fired = append(fired, result.Unwrap())
			}
		}

		if !session.fires {
			suite.Empty(fired, session.name)

			continue
		}

		suite.Require().Len(fired, 1, session.name)
		suite.Equal(session.prevClose, fired[0].Meta["prev_close"], session.name)
		suite.Equal(session.target, fired[0].Target, session.name)
	}
}

func (suite *GapFillTestSuite) TestNoPreviousCloseAcrossSessions() {
	d := suite.newDetector()

	for i := range 3 {
		session := mocks.NewSession("ASML.AS", suite.day.AddDate(0, 0, i), 8, 5)
		suite.True(d.OnBar(session.Bar(1150, 1151, 1140, 1141, 9000)).IsNone())
		suite.True(d.OnBar(session.Bar(1141, 1150, 1140, 1149, 9000)).IsNone())
	}
}

func (suite *GapFillTestSuite) TestSetPreviousCloseLater() {
	d := suite.newDetector()
	session := mocks.NewSession("ASML.AS", suite.day, 8, 5)

	suite.True(d.OnBar(session.Bar(1195, 1196, 1190, 1192, 6000)).IsNone())

	d.SetPreviousClose(1210)
	suite.True(d.OnBar(session.Bar(1192, 1193, 1188, 1189, 6000)).IsNone())
	suite.True(d.OnBar(session.Bar(1189, 1193, 1188, 1192, 3000)).IsSome())
}

func (suite *GapFillTestSuite) TestForcedWindowIgnoresClock() {
	d := suite.newDetector(WithPreviousClose(1210), WithForcedWindow())
	session := mocks.NewSession("ASML.AS", suite.day, 3, 0)

	d.OnBar(session.Bar(1195, 1196, 1190, 1192, 6000))
	suite.True(d.OnBar(session.Bar(1192, 1196, 1191, 1195, 3000)).IsSome())
}
