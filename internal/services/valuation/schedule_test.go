package valuation

import (
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/bondval/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveRateSchedule_MergesHistoryAndForecast(t *testing.T) {
	now := date(2025, 6, 22)

	// History newest-first, as the rate provider delivers it
	history := []models.RatePoint{
		{Date: date(2025, 6, 6), Rate: 20.0},
		{Date: date(2024, 10, 28), Rate: 21.0},
		{Date: date(2024, 7, 29), Rate: 18.0},
	}
	forecast := []models.RateSchedulePoint{
		{Date: date(2025, 9, 15), Rate: 17.0},
		{Date: date(2026, 2, 1), Rate: 14.0},
	}

	schedule, err := ResolveRateSchedule(history, forecast, now)
	if err != nil {
		t.Fatalf("ResolveRateSchedule() error = %v", err)
	}

	if len(schedule) != 5 {
		t.Fatalf("schedule length = %d, want 5", len(schedule))
	}
	for i := 1; i < len(schedule); i++ {
		if !schedule[i].Date.After(schedule[i-1].Date) {
			t.Errorf("schedule not ascending at %d: %v then %v", i, schedule[i-1].Date, schedule[i].Date)
		}
	}
}

func TestResolveRateSchedule_DropsFutureHistoryAndPastForecast(t *testing.T) {
	now := date(2025, 6, 22)

	history := []models.RatePoint{
		{Date: date(2025, 8, 1), Rate: 25.0}, // after now: dropped
		{Date: date(2025, 6, 6), Rate: 20.0},
	}
	forecast := []models.RateSchedulePoint{
		{Date: date(2025, 1, 1), Rate: 19.0}, // not after now: dropped
		{Date: date(2025, 9, 15), Rate: 17.0},
	}

	schedule, err := ResolveRateSchedule(history, forecast, now)
	if err != nil {
		t.Fatalf("ResolveRateSchedule() error = %v", err)
	}
	if len(schedule) != 2 {
		t.Fatalf("schedule length = %d, want 2", len(schedule))
	}
	if schedule[0].Rate != 20.0 || schedule[1].Rate != 17.0 {
		t.Errorf("schedule rates = %v, %v; want 20, 17", schedule[0].Rate, schedule[1].Rate)
	}
}

func TestResolveRateSchedule_SynthesizesFromForecast(t *testing.T) {
	now := date(2025, 6, 22)

	// No history, forecast entirely in the past: synthesize a point at now
	forecast := []models.RateSchedulePoint{
		{Date: date(2024, 1, 1), Rate: 16.0},
	}

	schedule, err := ResolveRateSchedule(nil, forecast, now)
	if err != nil {
		t.Fatalf("ResolveRateSchedule() error = %v", err)
	}
	if len(schedule) != 1 {
		t.Fatalf("schedule length = %d, want 1", len(schedule))
	}
	if !schedule[0].Date.Equal(now) || schedule[0].Rate != 16.0 {
		t.Errorf("synthesized point = %+v, want now/16.0", schedule[0])
	}
}

func TestResolveRateSchedule_EmptyEverything(t *testing.T) {
	_, err := ResolveRateSchedule(nil, nil, date(2025, 6, 22))
	if !errors.Is(err, ErrEmptySchedule) {
		t.Errorf("error = %v, want ErrEmptySchedule", err)
	}
}

func TestResolveRateSchedule_DeduplicatesHistoryByDate(t *testing.T) {
	now := date(2025, 6, 22)
	history := []models.RatePoint{
		{Date: date(2025, 6, 6), Rate: 20.0},
		{Date: date(2025, 6, 6), Rate: 19.0},
	}

	schedule, err := ResolveRateSchedule(history, nil, now)
	if err != nil {
		t.Fatalf("ResolveRateSchedule() error = %v", err)
	}
	if len(schedule) != 1 {
		t.Errorf("schedule length = %d, want 1 after dedup", len(schedule))
	}
}

func TestRateAt(t *testing.T) {
	schedule := RateSchedule{
		{Date: date(2025, 1, 1), Rate: 20.0},
		{Date: date(2025, 7, 1), Rate: 17.0},
		{Date: date(2026, 1, 1), Rate: 14.0},
	}

	tests := []struct {
		name string
		at   time.Time
		want float64
	}{
		{"before schedule", date(2024, 6, 1), 20.0},
		{"exact first point", date(2025, 1, 1), 20.0},
		{"between points", date(2025, 10, 1), 17.0},
		{"exact later point", date(2026, 1, 1), 14.0},
		{"after schedule", date(2030, 1, 1), 14.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := schedule.RateAt(tt.at)
			if err != nil {
				t.Fatalf("RateAt() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RateAt(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestRateAt_Empty(t *testing.T) {
	var schedule RateSchedule
	_, err := schedule.RateAt(date(2025, 1, 1))
	if !errors.Is(err, ErrEmptySchedule) {
		t.Errorf("error = %v, want ErrEmptySchedule", err)
	}
}
