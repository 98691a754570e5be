// Package loader fetches the dashboard's status cards and mounts them.
//
// A Loader is single-shot per page: it issues one request, then mounts every
// returned card, in order, into one fixed container. There is no retry and
// no deduplication; calling Load twice mounts every card twice.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/homeweave/dashboard/internal/domain/card"
	"github.com/homeweave/dashboard/pkg/logger"
	"github.com/homeweave/dashboard/pkg/metrics"
)

// Defaults used by the dashboard page.
const (
	DefaultEndpoint = "/api/status-cards"
	DefaultSelector = ".content .weave-medium-cards-row"
)

// Fetcher retrieves the status response from endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string) (card.StatusResponse, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, endpoint string) (card.StatusResponse, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, endpoint string) (card.StatusResponse, error) {
	return f(ctx, endpoint)
}

// Mounter instantiates one card into the container addressed by selector.
type Mounter interface {
	Mount(ctx context.Context, selector string, c card.Card) error
}

// State of a Loader.
type State int32

// States. A failed fetch leaves the loader Pending.
const (
	StatePending State = iota
	StateRendered
)

func (s State) String() string {
	if s == StateRendered {
		return "rendered"
	}
	return "pending"
}

// Result describes one Load.
type Result struct {
	// Cards is the number of cards in the response.
	Cards int
	// Mounted is the number of cards mounted without error.
	Mounted int
}

// Loader is the status card loader. Build one per page.
type Loader struct {
	fetcher  Fetcher
	mounter  Mounter
	endpoint string
	selector string
	timeout  time.Duration
	logger   logger.Logger

	state atomic.Int32
}

// New creates a Loader with explicit collaborators.
func New(fetcher Fetcher, mounter Mounter, opts ...Option) *Loader {
	l := &Loader{
		fetcher:  fetcher,
		mounter:  mounter,
		endpoint: DefaultEndpoint,
		selector: DefaultSelector,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State reports whether cards have been rendered.
func (l *Loader) State() State { return State(l.state.Load()) }

// Selector returns the container the loader mounts into.
func (l *Loader) Selector() string { return l.selector }

// Load fetches the status response and mounts each card into the container.
//
// A fetch failure returns an error wrapping ErrFetch, ErrStatus or ErrDecode
// and mounts nothing. Mount failures do not stop the loop; they are joined
// under ErrMount once every card had its mount call.
func (l *Loader) Load(ctx context.Context) (Result, error) {
	const op = "loader.load"

	fetchCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := l.fetcher.Fetch(fetchCtx, l.endpoint)
	latencyMs := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordCardFetch(outcome(err), latencyMs)
		l.logger.Warn(ctx, "status cards fetch failed",
			logger.String("endpoint", l.endpoint),
			logger.Error(err),
		)
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordCardFetch("ok", latencyMs)

	res := Result{Cards: len(resp.Cards)}
	var mountErrs []error
	for i, c := range resp.Cards {
		if err := l.mounter.Mount(ctx, l.selector, c); err != nil {
			mountErrs = append(mountErrs, fmt.Errorf("card %d: %w", i, err))
			continue
		}
		res.Mounted++
	}
	l.state.Store(int32(StateRendered))

	l.logger.Debug(ctx, "status cards mounted",
		logger.String("selector", l.selector),
		logger.Int("cards", res.Cards),
		logger.Int("mounted", res.Mounted),
	)
	if len(mountErrs) > 0 {
		return res, fmt.Errorf("%s: %w: %w", op, ErrMount, errors.Join(mountErrs...))
	}
	return res, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrStatus):
		return "status"
	case errors.Is(err, ErrDecode):
		return "decode"
	default:
		return "fetch"
	}
}
