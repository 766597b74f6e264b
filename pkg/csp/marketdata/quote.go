package marketdata

import (
	"context"
	"fmt"
	"time"

	yfgo "github.com/komsit37/yf-go"
)

// QuoteService implements PriceSource using yf-go's price module.
type QuoteService struct {
	client  *yfgo.Client
	timeout time.Duration
}

func NewQuoteService(timeout time.Duration) *QuoteService {
	return &QuoteService{client: yfgo.NewClient(), timeout: timeout}
}

func (s *QuoteService) LatestPrice(ctx context.Context, sym string) (float64, error) {
	if sym == "" {
		return 0, fmt.Errorf("empty symbol")
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.client.QuoteSummaryTyped(cctx, sym, []yfgo.QuoteSummaryModule{yfgo.ModulePrice})
	if err != nil {
		return 0, err
	}
	if res.Price == nil {
		return 0, fmt.Errorf("no price for %s", sym)
	}
	p := res.Price.RegularMarketPrice
	if p.Raw == nil || *p.Raw <= 0 {
		return 0, fmt.Errorf("no price for %s", sym)
	}
	return *p.Raw, nil
}
