package feed

import (
	"context"
	"iter"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-setups/internal/history"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/mocks"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type FeedTestSuite struct {
	suite.Suite
	amsterdam *time.Location
}

func TestFeedSuite(t *testing.T) {
	suite.Run(t, new(FeedTestSuite))
}

func (suite *FeedTestSuite) SetupSuite() {
	loc, err := time.LoadLocation("Europe/Amsterdam")
	suite.Require().NoError(err)
	suite.amsterdam = loc
}

func collect(seq iter.Seq2[types.Bar, error]) ([]types.Bar, error) {
	bars := make([]types.Bar, 0)

	for bar, err := range seq {
		if err != nil {
			return bars, err
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

func utcBar(hh, mm int, closePrice float64) types.Bar {
	return types.Bar{
		Symbol: "ASML.AS",
		Time:   time.Date(2024, 3, 4, hh, mm, 0, 0, time.UTC),
		Open:   closePrice,
		High:   closePrice + 1,
		Low:    closePrice - 1,
		Close:  closePrice,
		Volume: 1000,
	}
}

func (suite *FeedTestSuite) TestFromSliceAndLimit() {
	bars := []types.Bar{utcBar(8, 0, 1), utcBar(8, 1, 2), utcBar(8, 2, 3)}

	all, err := collect(FromSlice(bars).Bars(context.Background()))
	suite.NoError(err)
	suite.Len(all, 3)

	capped, err := collect(Limit(FromSlice(bars), 2).Bars(context.Background()))
	suite.NoError(err)
	suite.Len(capped, 2)
	suite.Equal(2.0, capped[1].Close)

	unlimited, err := collect(Limit(FromSlice(bars), 0).Bars(context.Background()))
	suite.NoError(err)
	suite.Len(unlimited, 3)
}

func (suite *FeedTestSuite) TestFromSliceStopsOnCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bars, err := collect(FromSlice([]types.Bar{utcBar(8, 0, 1)}).Bars(ctx))
	suite.NoError(err)
	suite.Empty(bars)
}

func (suite *FeedTestSuite) TestRandomWalkShape() {
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, suite.amsterdam)
	walk := NewRandomWalk(RandomWalkConfig{
		Symbol:        "ASML.AS",
		PreviousClose: 1210,
		StartTime:     start,
		Seed:          42,
	})

	bars, err := collect(Limit(walk, 300).Bars(context.Background()))
	suite.Require().NoError(err)
	suite.Require().Len(bars, 300)

	suite.Equal(1197.9, bars[0].Open)
	suite.True(bars[0].Time.Equal(start))

	for i, bar := range bars {
		suite.Equal("ASML.AS", bar.Symbol)
		suite.GreaterOrEqual(bar.High, math.Max(bar.Open, bar.Close))
		suite.LessOrEqual(bar.Low, math.Min(bar.Open, bar.Close))
		suite.GreaterOrEqual(bar.Close, walkMinPrice)
		suite.LessOrEqual(math.Abs(bar.Close-bar.Open), walkMaxDrift+1e-3)
		suite.LessOrEqual(bar.High-math.Max(bar.Open, bar.Close), walkMaxWick+1e-3)
		suite.GreaterOrEqual(bar.Volume, float64(walkMinVol))
		suite.LessOrEqual(bar.Volume, float64(walkMaxVol))

		if i > 0 {
			suite.Equal(bars[i-1].Close, bar.Open)
			suite.Equal(time.Minute, bar.Time.Sub(bars[i-1].Time))
		}
	}
}

func (suite *FeedTestSuite) TestRandomWalkDeterministic() {
	cfg := RandomWalkConfig{Symbol: "X", PreviousClose: 100, StartTime: time.Unix(0, 0), Seed: 7}

	first, err := collect(Limit(NewRandomWalk(cfg), 20).Bars(context.Background()))
	suite.Require().NoError(err)

	second, err := collect(Limit(NewRandomWalk(cfg), 20).Bars(context.Background()))
	suite.Require().NoError(err)

	suite.Equal(first, second)
}

func (suite *FeedTestSuite) TestRandomWalkPaceAbortsOnCancel() {
	walk := NewRandomWalk(RandomWalkConfig{Symbol: "X", PreviousClose: 100, Pace: time.Hour, Seed: 1})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan int)

	go func() {
		count := 0
		for range walk.Bars(ctx) {
			count++
		}
		done <- count
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case count := <-done:
		suite.Equal(1, count)
	case <-time.After(2 * time.Second):
		suite.Fail("random walk did not stop after cancel")
	}
}

func (suite *FeedTestSuite) newPoller(fetcher Fetcher) *Poller {
	poller, err := NewPoller(fetcher, PollerConfig{
		Symbol:       "ASML.AS",
		PollInterval: time.Millisecond,
		Location:     suite.amsterdam,
		FetchRate:    1000,
		Now: func() time.Time {
			return time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
		},
	}, nil)
	suite.Require().NoError(err)

	return poller
}

func (suite *FeedTestSuite) TestPollerDedupesAndConvertsLocation() {
	ctrl := gomock.NewController(suite.T())
	fetcher := mocks.NewMockFetcher(ctrl)

	gomock.InOrder(
		fetcher.EXPECT().FetchSession(gomock.Any(), "ASML.AS", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, day time.Time) ([]types.Bar, error) {
				suite.Equal(suite.amsterdam, day.Location())
				suite.Equal(10, day.Hour())

				// unordered on purpose
				return []types.Bar{utcBar(8, 1, 101), utcBar(8, 0, 100)}, nil
			}),
		fetcher.EXPECT().FetchSession(gomock.Any(), "ASML.AS", gomock.Any()).
			Return([]types.Bar{utcBar(8, 0, 100), utcBar(8, 1, 101), utcBar(8, 2, 102)}, nil),
	)

	bars, err := collect(Limit(suite.newPoller(fetcher), 3).Bars(context.Background()))
	suite.Require().NoError(err)
	suite.Require().Len(bars, 3)

	for i, bar := range bars {
		suite.Equal(suite.amsterdam, bar.Time.Location())
		suite.Equal(9, bar.Time.Hour())
		suite.Equal(i, bar.Time.Minute())
		suite.Equal(100.0+float64(i), bar.Close)
	}
}

func (suite *FeedTestSuite) TestPollerFetchError() {
	ctrl := gomock.NewController(suite.T())
	fetcher := mocks.NewMockFetcher(ctrl)

	fetcher.EXPECT().FetchSession(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New(errors.ErrCodeUnknown, "rate limited"))

	bars, err := collect(suite.newPoller(fetcher).Bars(context.Background()))
	suite.Empty(bars)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
}

func (suite *FeedTestSuite) TestPollerStopsOnCancel() {
	ctrl := gomock.NewController(suite.T())
	fetcher := mocks.NewMockFetcher(ctrl)

	ctx, cancel := context.WithCancel(context.Background())

	fetcher.EXPECT().FetchSession(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, time.Time) ([]types.Bar, error) {
			cancel()

			return nil, context.Canceled
		})

	bars, err := collect(suite.newPoller(fetcher).Bars(ctx))
	suite.NoError(err)
	suite.Empty(bars)
}

func (suite *FeedTestSuite) TestNewPollerValidation() {
	_, err := NewPoller(nil, PollerConfig{Symbol: "X"}, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))

	ctrl := gomock.NewController(suite.T())
	_, err = NewPoller(mocks.NewMockFetcher(ctrl), PollerConfig{}, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))

	poller, err := NewPoller(mocks.NewMockFetcher(ctrl), PollerConfig{Symbol: "X"}, nil)
	suite.Require().NoError(err)
	suite.Equal(DefaultPollInterval, poller.config.PollInterval)
	suite.Equal(DefaultLocation, poller.config.Location.String())
}

func (suite *FeedTestSuite) TestNewFetcher() {
	_, err := NewFetcher(ProviderPolygon, "")
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))

	fetcher, err := NewFetcher(ProviderBinance, "")
	suite.NoError(err)
	suite.NotNil(fetcher)

	_, err = NewFetcher("yahoo", "")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidProvider))
}

func (suite *FeedTestSuite) TestSessionBounds() {
	day := time.Date(2024, 3, 31, 15, 4, 0, 0, suite.amsterdam)
	start, end := sessionBounds(day)

	suite.Equal(0, start.Hour())
	suite.Equal(31, start.Day())
	suite.Equal(1, end.Day())
	// DST starts on this date
	suite.Equal(23*time.Hour, end.Sub(start))
}

func (suite *FeedTestSuite) TestReplay() {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "replay.parquet")

	input := []types.Bar{utcBar(8, 0, 10), utcBar(8, 1, 11), utcBar(8, 2, 12)}
	suite.Require().NoError(history.WriteFile(path, input, nil))

	replay := NewReplay(ReplayConfig{Path: path, Symbol: "ASML.AS", Location: suite.amsterdam}, nil)

	bars, err := collect(replay.Bars(context.Background()))
	suite.Require().NoError(err)
	suite.Require().Len(bars, 3)
	suite.Equal(12.0, bars[2].Close)
	suite.Equal(9, bars[0].Time.Hour())
}

func (suite *FeedTestSuite) TestReplayMissingFile() {
	replay := NewReplay(ReplayConfig{Path: filepath.Join(os.TempDir(), "does-not-exist.parquet")}, nil)

	_, err := collect(replay.Bars(context.Background()))
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}
