package dashboard

import (
	"context"
	"slices"
	"sync"
	"time"

	"coinboard/internal/market"
	"coinboard/internal/provider"
)

// RefreshThreshold is how old the table may get before a scheduled refresh.
const RefreshThreshold = 60 * time.Second

// State holds the rows on screen, the selection and the refresh clock.
//
// Rows are replaced wholesale on every successful refresh and never edited
// in place, so a slice handed out by Rows stays internally consistent.
type State struct {
	provider  provider.Provider
	threshold time.Duration

	mu          sync.RWMutex
	rows        []market.Row
	selected    int // -1 when nothing is selected
	lastRefresh time.Time
	lastErr     error
}

type Option func(*State)

// WithThreshold overrides RefreshThreshold.
func WithThreshold(d time.Duration) Option {
	return func(s *State) {
		s.threshold = d
	}
}

// New returns an empty state. It does not fetch: the zero refresh time makes
// the first Due check true, so the loop loads data on its first pass.
func New(p provider.Provider, opts ...Option) *State {
	s := &State{
		provider:  p,
		threshold: RefreshThreshold,
		rows:      []market.Row{},
		selected:  -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rows returns a copy of the current snapshot.
func (s *State) Rows() []market.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rows)
}

func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Selected returns the selected index, if any.
func (s *State) Selected() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected, s.selected >= 0
}

func (s *State) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

// LastError is the error of the most recent refresh, nil after a success.
func (s *State) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// SelectNext moves the selection down, wrapping to the first row.
func (s *State) SelectNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.rows)
	if n == 0 {
		return
	}
	if s.selected < 0 {
		s.selected = 0
		return
	}
	s.selected = (s.selected + 1) % n
}

// SelectPrevious moves the selection up, wrapping to the last row.
func (s *State) SelectPrevious() {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.rows)
	if n == 0 {
		return
	}
	switch {
	case s.selected < 0:
		s.selected = 0
	case s.selected == 0:
		s.selected = n - 1
	default:
		s.selected--
	}
}

// Due reports whether a scheduled refresh should run at now.
func (s *State) Due(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh.IsZero() || now.Sub(s.lastRefresh) >= s.threshold
}

// Fetch asks the provider for a fresh asset list. It does not touch the state
// and is safe to call from any goroutine.
func (s *State) Fetch(ctx context.Context) ([]provider.Asset, error) {
	return s.provider.Fetch(ctx)
}

// Apply records the outcome of a fetch made at now. A failure only records
// the error: rows and refresh time keep their previous values.
func (s *State) Apply(assets []provider.Asset, err error, now time.Time) {
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return
	}

	rows := market.ToDisplayRows(assets)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.lastRefresh = now
	s.lastErr = nil
	// the index survives a refresh, clamped to the new length
	switch {
	case len(rows) == 0:
		s.selected = -1
	case s.selected >= len(rows):
		s.selected = len(rows) - 1
	}
}

// MaybeRefresh fetches and applies when the threshold has passed.
// It reports whether a fetch was attempted.
func (s *State) MaybeRefresh(ctx context.Context, now time.Time) (bool, error) {
	if !s.Due(now) {
		return false, nil
	}
	return true, s.ForceRefresh(ctx, now)
}

// ForceRefresh fetches and applies regardless of the threshold.
func (s *State) ForceRefresh(ctx context.Context, now time.Time) error {
	assets, err := s.Fetch(ctx)
	s.Apply(assets, err, now)
	return err
}
