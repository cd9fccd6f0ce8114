package feed

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
)

// Provider names a market data vendor.
type Provider string

const (
	ProviderPolygon Provider = "polygon"
	ProviderBinance Provider = "binance"
)

// RangeFetcher is a Fetcher that can also return an arbitrary time range.
type RangeFetcher interface {
	Fetcher
	FetchRange(ctx context.Context, symbol string, from, to time.Time) ([]types.Bar, error)
}

// NewFetcher builds the fetcher for provider. Polygon needs an API key.
func NewFetcher(provider Provider, apiKey string) (RangeFetcher, error) {
	switch provider {
	case ProviderPolygon:
		fetcher, err := NewPolygonFetcher(apiKey)
		if err != nil {
			return nil, err
		}

		return fetcher, nil
	case ProviderBinance:
		return NewBinanceFetcher(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider %q", provider)
	}
}
