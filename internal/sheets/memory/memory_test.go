package memory

import (
	"context"
	"testing"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

func TestWriteMonthlyReplaces(t *testing.T) {
	s := New()
	if _, ok := s.Monthly(); ok {
		t.Fatalf("expected no series before first write")
	}

	labels := []string{"jan/24"}
	_ = s.WriteMonthly(context.Background(), analytics.Monthly{
		Labels:        labels,
		ExpenseTotals: []core.Money{{Cents: 100}},
		IncomeTotals:  []core.Money{{Cents: 0}},
	})
	labels[0] = "mutated"
	_ = s.WriteMonthly(context.Background(), analytics.Monthly{
		Labels:        []string{"fev/24", "mar/24"},
		ExpenseTotals: []core.Money{{Cents: 1}, {Cents: 2}},
		IncomeTotals:  []core.Money{{Cents: 3}, {Cents: 4}},
	})

	m, ok := s.Monthly()
	if !ok || m.Len() != 2 || m.Labels[0] != "fev/24" {
		t.Fatalf("unexpected series: %+v", m)
	}
	if s.Writes() != 2 {
		t.Fatalf("writes = %d, want 2", s.Writes())
	}
}

func TestWriteRankingByTitle(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.WriteRanking(ctx, "", nil); err == nil {
		t.Fatalf("expected error for empty title")
	}
	_ = s.WriteRanking(ctx, "Top categories", []analytics.Ranked{{ID: "c1", Name: "Food", Total: core.Money{Cents: 10}}})
	_ = s.WriteRanking(ctx, "Top accounts", nil)
	_ = s.WriteRanking(ctx, "Top categories", []analytics.Ranked{{ID: "c2", Name: "Rent", Total: core.Money{Cents: 20}}})

	got, ok := s.Ranking("Top categories")
	if !ok || len(got) != 1 || got[0].ID != "c2" {
		t.Fatalf("unexpected ranking: %+v", got)
	}
	titles := s.Titles()
	if len(titles) != 2 || titles[0] != "Top categories" || titles[1] != "Top accounts" {
		t.Fatalf("unexpected titles: %v", titles)
	}
	if _, ok := s.Ranking("missing"); ok {
		t.Fatalf("expected missing ranking")
	}
}
