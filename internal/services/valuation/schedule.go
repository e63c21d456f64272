package valuation

import (
	"errors"
	"sort"
	"time"

	"github.com/ternarybob/bondval/internal/models"
)

// ErrEmptySchedule is returned when a rate schedule has no points and no
// fallback exists.
var ErrEmptySchedule = errors.New("rate schedule is empty")

// RateSchedule is an ascending sequence of rate points covering the period
// from purchase onward.
type RateSchedule []models.RateSchedulePoint

// ResolveRateSchedule merges historical key-rate points with a forecast
// scenario into one ascending timeline: historical points up to now,
// forecast points strictly after now. History may arrive ascending or
// descending and is deduplicated by date. When neither side contributes a
// point, a single point at now is synthesized from the first forecast rate;
// with no forecast either, ErrEmptySchedule is returned.
func ResolveRateSchedule(history []models.RatePoint, forecast []models.RateSchedulePoint, now time.Time) (RateSchedule, error) {
	var schedule RateSchedule

	seen := make(map[string]bool)
	for _, p := range history {
		if p.Date.After(now) {
			continue
		}
		day := p.Date.Format("2006-01-02")
		if seen[day] {
			continue
		}
		seen[day] = true
		schedule = append(schedule, models.RateSchedulePoint{Date: p.Date, Rate: p.Rate})
	}

	for _, p := range forecast {
		if !p.Date.After(now) {
			continue
		}
		schedule = append(schedule, p)
	}

	if len(schedule) == 0 {
		if len(forecast) == 0 {
			return nil, ErrEmptySchedule
		}
		schedule = RateSchedule{{Date: now, Rate: forecast[0].Rate}}
	}

	sort.Slice(schedule, func(i, j int) bool {
		return schedule[i].Date.Before(schedule[j].Date)
	})

	return schedule, nil
}

// RateAt returns the latest rate whose date is on or before the query date.
// Queries predating the schedule return the first point's rate.
func (s RateSchedule) RateAt(date time.Time) (float64, error) {
	if len(s) == 0 {
		return 0, ErrEmptySchedule
	}

	rate := s[0].Rate
	for _, p := range s {
		if p.Date.After(date) {
			break
		}
		rate = p.Rate
	}
	return rate, nil
}
