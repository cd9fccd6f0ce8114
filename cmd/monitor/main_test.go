package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-setups/internal/history"
	"github.com/rxtech-lab/argo-setups/internal/logger"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/mocks"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const testConfig = `
underlying_symbol: ASML.AS
demo_prev_close: 1210
feed:
  mode: mock
  pace: 0s
  limit: 30
  seed: 42
log:
  level: error
`

type MonitorTestSuite struct {
	suite.Suite
	dir        string
	configPath string
	out        *bytes.Buffer
}

func TestMonitorSuite(t *testing.T) {
	suite.Run(t, new(MonitorTestSuite))
}

func (suite *MonitorTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.configPath = filepath.Join(suite.dir, "config.yaml")
	suite.Require().NoError(os.WriteFile(suite.configPath, []byte(testConfig), 0o600))
	suite.out = &bytes.Buffer{}
}

func (suite *MonitorTestSuite) run(args ...string) error {
	app := newApp()
	app.Writer = suite.out

	base := []string{"monitor", "--config", suite.configPath, "--env-file", filepath.Join(suite.dir, "missing.env")}

	return app.Run(context.Background(), append(base, args...))
}

func (suite *MonitorTestSuite) TestRunStopsAtLimit() {
	suite.Require().NoError(suite.run("run", "--setup", "breakout"))

	out := suite.out.String()
	suite.Contains(out, "Watching ASML.AS with Generic Breakout (mock feed)")
	suite.Contains(out, "Processed 30 bars")
}

func (suite *MonitorTestSuite) TestRunRejectsUnknownSetup() {
	err := suite.run("run", "--setup", "scalping")
	suite.True(errors.HasCode(err, errors.ErrCodeUnsupportedSetup))
}

func (suite *MonitorTestSuite) TestRunLoadsEnvFile() {
	envPath := filepath.Join(suite.dir, "test.env")
	suite.Require().NoError(os.WriteFile(envPath, []byte("MONITOR_TEST_VALUE=loaded\n"), 0o600))
	suite.T().Cleanup(func() { os.Unsetenv("MONITOR_TEST_VALUE") })

	app := newApp()
	app.Writer = suite.out

	err := app.Run(context.Background(), []string{"monitor", "--config", suite.configPath, "--env-file", envPath, "run", "--limit", "5"})
	suite.Require().NoError(err)
	suite.Equal("loaded", os.Getenv("MONITOR_TEST_VALUE"))
	suite.Contains(suite.out.String(), "Processed 5 bars")
}

func (suite *MonitorTestSuite) TestTranslateJSON() {
	suite.Require().NoError(suite.run("translate", "--entry", "100", "--stop", "98", "--target", "104", "--market-price", "2", "--ratio", "10", "--json"))

	var levels types.DerivativeLevels
	suite.Require().NoError(json.Unmarshal(suite.out.Bytes(), &levels))
	suite.Require().True(levels.IsAbsolute())
	suite.Equal(80.0, levels.Absolute.Financing)
	suite.Equal(1.8, levels.Absolute.StopPrice)
	suite.Equal(2.4, levels.Absolute.TargetPrice)
}

func (suite *MonitorTestSuite) TestTranslateDistanceText() {
	suite.Require().NoError(suite.run("translate", "--side", "short", "--entry", "100", "--stop", "102", "--target", "96"))

	out := suite.out.String()
	suite.Contains(out, "SHORT entry 100.00 stop 102.00 target 96.00 (R:R 2.00)")
	suite.Contains(out, "turbo x3.50 stop distance 0.5714 target distance 1.1429")
}

func (suite *MonitorTestSuite) TestTranslateRejectsSide() {
	err := suite.run("translate", "--side", "up", "--entry", "100", "--stop", "98", "--target", "104")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *MonitorTestSuite) TestSchema() {
	suite.Require().NoError(suite.run("schema"))
	suite.Contains(suite.out.String(), "underlying_symbol")
	suite.Contains(suite.out.String(), "poll_interval")
}

func (suite *MonitorTestSuite) TestSetupSchema() {
	suite.Require().NoError(suite.run("schema", "--setup", "morning_gap"))
	suite.Contains(suite.out.String(), "atr_buffer_k")
	suite.NotContains(suite.out.String(), "underlying_symbol")

	err := suite.run("schema", "--setup", "scalping")
	suite.True(errors.HasCode(err, errors.ErrCodeUnsupportedSetup))
}

func (suite *MonitorTestSuite) TestSessionDays() {
	loc, err := time.LoadLocation("Europe/Amsterdam")
	suite.Require().NoError(err)

	days, err := sessionDays(
		time.Date(2024, 3, 30, 15, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		loc,
	)
	suite.Require().NoError(err)
	suite.Require().Len(days, 3)
	suite.Equal(30, days[0].Day())
	suite.Equal(31, days[1].Day())
	suite.Equal(1, days[2].Day())
	suite.Equal(0, days[2].Hour())

	_, err = sessionDays(time.Date(2024, 4, 2, 0, 0, 0, 0, loc), time.Date(2024, 4, 1, 0, 0, 0, 0, loc), loc)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *MonitorTestSuite) TestDownloadWritesEverySession() {
	ctrl := gomock.NewController(suite.T())
	fetcher := mocks.NewMockFetcher(ctrl)

	day1 := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	first := mocks.NewSession("", day1, 9, 0)
	second := mocks.NewSession("ASML.AS", day2, 9, 0)

	gomock.InOrder(
		fetcher.EXPECT().FetchSession(gomock.Any(), "ASML.AS", day1).Return([]types.Bar{first.Flat(100, 10), first.Flat(101, 10)}, nil),
		fetcher.EXPECT().FetchSession(gomock.Any(), "ASML.AS", day2).Return([]types.Bar{second.Flat(102, 10)}, nil),
	)

	path := filepath.Join(suite.dir, "bars.parquet")
	w, err := history.NewWriter(path, logger.NewNop())
	suite.Require().NoError(err)
	defer w.Close()

	count, err := download(context.Background(), fetcher, w, "ASML.AS", []time.Time{day1, day2}, suite.out, logger.NewNop())
	suite.Require().NoError(err)
	suite.Equal(3, count)

	_, err = w.Finalize()
	suite.Require().NoError(err)

	bars, err := history.ReadFile(context.Background(), path, history.Query{Symbol: "ASML.AS"}, logger.NewNop())
	suite.Require().NoError(err)
	suite.Require().Len(bars, 3)
	suite.Equal(100.0, bars[0].Close)
	suite.Equal(102.0, bars[2].Close)
}

func (suite *MonitorTestSuite) TestDownloadStopsOnFetchError() {
	ctrl := gomock.NewController(suite.T())
	fetcher := mocks.NewMockFetcher(ctrl)

	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	fetcher.EXPECT().FetchSession(gomock.Any(), "ASML.AS", day).
		Return(nil, errors.New(errors.ErrCodeMarketDataFetchFailed, "rate limited"))

	w, err := history.NewWriter(filepath.Join(suite.dir, "bars.csv"), logger.NewNop())
	suite.Require().NoError(err)
	defer w.Close()

	_, err = download(context.Background(), fetcher, w, "ASML.AS", []time.Time{day, day.AddDate(0, 0, 1)}, suite.out, logger.NewNop())
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
}

func (suite *MonitorTestSuite) TestFormatSignalLine() {
	sig := types.Signal{
		Side:   types.SideLong,
		Time:   time.Date(2024, 3, 4, 9, 7, 0, 0, time.UTC),
		Entry:  1194,
		Stop:   1188,
		Target: 1210,
		Setup:  types.SetupMorningGap,
		Levels: &types.DerivativeLevels{
			Leverage: 3.5,
			Distance: &types.DistanceLevels{StopDistance: 1.7143, TargetDistance: 4.5714},
		},
	}

	line := formatSignalLine(sig)
	suite.Contains(line, "2024-03-04 09:07 LONG  Morning Gap Fill")
	suite.Contains(line, "entry 1194.00 stop 1188.00 target 1210.00")
	suite.Contains(line, "turbo x3.50 stop -1.7143 target +4.5714")
}
