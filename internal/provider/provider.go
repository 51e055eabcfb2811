package provider

import (
	"context"
)

// Asset is one upstream market record.
// Numeric fields stay as text; they are only interpreted at display time.
type Asset struct {
	ID                string `json:"id"`
	Symbol            string `json:"symbol"`
	Name              string `json:"name"`
	MarketCapUSD      string `json:"marketCapUsd"`
	PriceUSD          string `json:"priceUsd"`
	ChangePercent24Hr string `json:"changePercent24Hr"`
}

type Provider interface {
	Name() string
	Fetch(ctx context.Context) ([]Asset, error)
}
