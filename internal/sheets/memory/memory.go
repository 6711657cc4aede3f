package memory

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"fintrack/internal/analytics"
	ports "fintrack/internal/sheets"
)

// Store records exports in memory. It backs tests and dry runs of the
// export command.
type Store struct {
	mu       sync.Mutex
	monthly  *analytics.Monthly
	rankings map[string][]analytics.Ranked
	order    []string
	writes   int
}

var _ ports.AnalyticsWriter = (*Store)(nil)

func New() *Store {
	return &Store{rankings: map[string][]analytics.Ranked{}}
}

// WriteMonthly replaces the recorded series.
func (s *Store) WriteMonthly(_ context.Context, m analytics.Monthly) error {
	cp := analytics.Monthly{
		Labels:        slices.Clone(m.Labels),
		ExpenseTotals: slices.Clone(m.ExpenseTotals),
		IncomeTotals:  slices.Clone(m.IncomeTotals),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monthly = &cp
	s.writes++
	return nil
}

// WriteRanking replaces the ranking recorded under title.
func (s *Store) WriteRanking(_ context.Context, title string, ranked []analytics.Ranked) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("ranking title is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rankings[title]; !ok {
		s.order = append(s.order, title)
	}
	s.rankings[title] = slices.Clone(ranked)
	s.writes++
	return nil
}

// Monthly returns the last written series, if any.
func (s *Store) Monthly() (analytics.Monthly, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.monthly == nil {
		return analytics.Monthly{}, false
	}
	return *s.monthly, true
}

// Ranking returns the ranking written under title.
func (s *Store) Ranking(title string) ([]analytics.Ranked, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rankings[title]
	return slices.Clone(r), ok
}

// Titles lists ranking titles in first-write order.
func (s *Store) Titles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// Writes counts successful write calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
