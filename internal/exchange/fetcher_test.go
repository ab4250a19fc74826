package exchange

import (
	"context"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// fakeFetcher serves rates from a map and counts calls.
type fakeFetcher struct {
	calls   atomic.Int32
	rates   map[Pair]decimal.Decimal
	failFor map[string]error // keyed by From
	err     error

	// when set, Latest signals started and waits on release
	started chan struct{}
	release chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		rates:   map[Pair]decimal.Decimal{},
		failFor: map[string]error{},
	}
}

func (f *fakeFetcher) Latest(ctx context.Context, req LatestRequest) (*RatesResponse, error) {
	f.calls.Add(1)
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	if err, ok := f.failFor[req.From]; ok {
		return nil, err
	}
	resp := &RatesResponse{
		Amount: decimal.NewFromInt(1),
		Base:   req.From,
		Date:   "2024-05-17",
		Rates:  map[string]decimal.Decimal{},
	}
	if r, ok := f.rates[Pair{From: req.From, To: req.To}]; ok {
		resp.Rates[req.To] = r
	}
	return resp, nil
}
