package feed

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
)

// polygonPageLimit is the maximum number of aggregates per request.
const polygonPageLimit = 50000

// PolygonFetcher reads one-minute aggregates from the Polygon.io REST API.
type PolygonFetcher struct {
	client *polygon.Client
}

// NewPolygonFetcher creates a fetcher authenticated with apiKey.
func NewPolygonFetcher(apiKey string) (*PolygonFetcher, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "polygon api key is required")
	}

	return &PolygonFetcher{client: polygon.New(apiKey)}, nil
}

// FetchSession implements Fetcher.
func (f *PolygonFetcher) FetchSession(ctx context.Context, symbol string, day time.Time) ([]types.Bar, error) {
	start, end := sessionBounds(day)

	return f.FetchRange(ctx, symbol, start, end)
}

// FetchRange returns the one-minute bars in [from, to].
func (f *PolygonFetcher) FetchRange(ctx context.Context, symbol string, from, to time.Time) ([]types.Bar, error) {
	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   models.Minute,
		From:       models.Millis(from),
		To:         models.Millis(to),
	}.WithLimit(polygonPageLimit)

	iter := f.client.ListAggs(ctx, params)
	bars := make([]types.Bar, 0)

	for iter.Next() {
		agg := iter.Item()
		bars = append(bars, types.Bar{
			Symbol: symbol,
			Time:   time.Time(agg.Timestamp),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "polygon aggregates for %s", symbol)
	}

	return bars, nil
}

// sessionBounds returns midnight of day and the following midnight in day's location.
func sessionBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

	return start, start.AddDate(0, 0, 1)
}
