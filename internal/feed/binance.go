package feed

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
)

// binancePageLimit is the largest page the klines endpoint returns.
const binancePageLimit = 1000

// BinanceFetcher reads one-minute klines from the public Binance API.
type BinanceFetcher struct {
	client *binance.Client
}

// NewBinanceFetcher creates a fetcher. Klines need no credentials.
func NewBinanceFetcher() *BinanceFetcher {
	return &BinanceFetcher{client: binance.NewClient("", "")}
}

// FetchSession implements Fetcher.
func (f *BinanceFetcher) FetchSession(ctx context.Context, symbol string, day time.Time) ([]types.Bar, error) {
	start, end := sessionBounds(day)

	return f.FetchRange(ctx, symbol, start, end)
}

// FetchRange pages through the klines in [from, to].
func (f *BinanceFetcher) FetchRange(ctx context.Context, symbol string, from, to time.Time) ([]types.Bar, error) {
	startMillis := from.UnixMilli()
	endMillis := to.UnixMilli()
	bars := make([]types.Bar, 0)

	for startMillis <= endMillis {
		klines, err := f.client.NewKlinesService().
			Symbol(symbol).
			Interval("1m").
			StartTime(startMillis).
			EndTime(endMillis).
			Limit(binancePageLimit).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "binance klines for %s", symbol)
		}

		for _, k := range klines {
			bar, err := klineToBar(symbol, k)
			if err != nil {
				return nil, err
			}

			bars = append(bars, bar)
		}

		if len(klines) < binancePageLimit {
			break
		}

		startMillis = klines[len(klines)-1].CloseTime + 1
	}

	return bars, nil
}

func klineToBar(symbol string, k *binance.Kline) (types.Bar, error) {
	values := [5]float64{}

	for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.Bar{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "kline at %d", k.OpenTime)
		}

		values[i] = v
	}

	return types.Bar{
		Symbol: symbol,
		Time:   time.UnixMilli(k.OpenTime),
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}
