package nc

import (
	"testing"
	"time"
)

func TestRankMonotonicWithUrgency(t *testing.T) {
	if !(Rank(SeverityAlta) > Rank(SeverityMedia) && Rank(SeverityMedia) > Rank(SeverityBaixa)) {
		t.Fatalf("ranks not monotonic: alta=%d media=%d baixa=%d",
			Rank(SeverityAlta), Rank(SeverityMedia), Rank(SeverityBaixa))
	}
	if Rank(SeverityBaixa) != 1 || Rank(SeverityMedia) != 2 || Rank(SeverityAlta) != 3 {
		t.Fatalf("unexpected rank table")
	}
}

func TestRankUnknownDefaultsToMedia(t *testing.T) {
	if Rank(Severity("critica")) != 2 {
		t.Fatalf("Rank(unknown) = %d", Rank(Severity("critica")))
	}
	if Rank(Severity("")) != 2 {
		t.Fatalf("Rank(empty) = %d", Rank(Severity("")))
	}
	if CanonicalSeverity(Severity("urgent")) != SeverityMedia {
		t.Fatalf("CanonicalSeverity(unknown) = %q", CanonicalSeverity(Severity("urgent")))
	}
}

func TestDueAtOffsets(t *testing.T) {
	createdAt := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)

	cases := []struct {
		severity Severity
		days     int
	}{
		{SeverityAlta, 2},
		{SeverityMedia, 5},
		{SeverityBaixa, 10},
		{Severity("unknown"), 5},
	}
	for _, tc := range cases {
		got := DueAt(createdAt, tc.severity)
		want := createdAt.AddDate(0, 0, tc.days)
		if !got.Equal(want) {
			t.Fatalf("DueAt(%s) = %v, want %v", tc.severity, got, want)
		}
		if got.Before(createdAt) {
			t.Fatalf("DueAt(%s) before createdAt", tc.severity)
		}
	}
}

func TestDueAtCrossesMonthBoundaryByCalendarDays(t *testing.T) {
	createdAt := time.Date(2026, 1, 30, 23, 0, 0, 0, time.UTC)
	got := DueAt(createdAt, SeverityAlta)
	want := time.Date(2026, 2, 1, 23, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("DueAt across month = %v, want %v", got, want)
	}
}

func TestResolveRequestedDueAtAcceptsInRange(t *testing.T) {
	createdAt := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	got := ResolveRequestedDueAt(createdAt, SeverityBaixa, "2026-03-15T00:00:00Z")
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ResolveRequestedDueAt() = %v, want %v", got, want)
	}
}

func TestResolveRequestedDueAtCapsAlta(t *testing.T) {
	createdAt := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	got := ResolveRequestedDueAt(createdAt, SeverityAlta, "2026-03-20T00:00:00Z")
	want := createdAt.AddDate(0, 0, 2)
	if !got.Equal(want) {
		t.Fatalf("ResolveRequestedDueAt(alta beyond cap) = %v, want %v", got, want)
	}
}

func TestResolveRequestedDueAtFallsBackOnGarbage(t *testing.T) {
	createdAt := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	got := ResolveRequestedDueAt(createdAt, SeverityMedia, "amanhã")
	if !got.Equal(createdAt.AddDate(0, 0, 5)) {
		t.Fatalf("ResolveRequestedDueAt(garbage) = %v", got)
	}

	got = ResolveRequestedDueAt(createdAt, SeverityMedia, "2026-03-01T00:00:00Z")
	if !got.Equal(createdAt.AddDate(0, 0, 5)) {
		t.Fatalf("ResolveRequestedDueAt(before createdAt) = %v", got)
	}
}

func TestClampDueAtEnforcesAltaCap(t *testing.T) {
	createdAt := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	existingDue := createdAt.AddDate(0, 0, 10)

	got := ClampDueAt(createdAt, SeverityAlta, existingDue)
	if !got.Equal(createdAt.AddDate(0, 0, 2)) {
		t.Fatalf("ClampDueAt(alta) = %v", got)
	}

	got = ClampDueAt(createdAt, SeverityBaixa, existingDue)
	if !got.Equal(existingDue) {
		t.Fatalf("ClampDueAt(baixa) = %v", got)
	}

	got = ClampDueAt(createdAt, SeverityMedia, time.Time{})
	if !got.Equal(createdAt.AddDate(0, 0, 5)) {
		t.Fatalf("ClampDueAt(zero due) = %v", got)
	}
}
