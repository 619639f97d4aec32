package service

import (
	"time"

	"github.com/sproutapp/sprout/internal/model"
)

// DefaultLookaheadDays is how far ahead the watering schedule looks when
// the caller doesn't say.
const DefaultLookaheadDays = 3

// ScheduleEntry is one plant that needs attention within the lookahead
// window.
type ScheduleEntry struct {
	Plant        model.Plant `json:"plant"`
	DaysUntilDue int         `json:"daysUntilDue"`
	Overdue      bool        `json:"overdue"`
	NeverWatered bool        `json:"neverWatered,omitempty"`
}

// WateringSchedule reports which plants are due for watering within
// lookaheadDays of now. A plant that has never been watered is always due.
// Otherwise daysUntilDue is the watering frequency minus the whole days
// elapsed since the last watering; zero or negative means overdue. Input
// order is preserved.
func WateringSchedule(plants []model.Plant, now time.Time, lookaheadDays int) []ScheduleEntry {
	entries := make([]ScheduleEntry, 0, len(plants))

	for _, p := range plants {
		if p.LastWatered == nil {
			entries = append(entries, ScheduleEntry{
				Plant:        p,
				DaysUntilDue: 0,
				NeverWatered: true,
			})
			continue
		}

		last, err := time.Parse(model.DateFormat, *p.LastWatered)
		if err != nil {
			// A malformed stored date should never happen; treat the
			// plant as never watered rather than dropping it silently.
			entries = append(entries, ScheduleEntry{
				Plant:        p,
				DaysUntilDue: 0,
				NeverWatered: true,
			})
			continue
		}

		daysElapsed := int(now.UTC().Sub(last).Hours() / 24)
		daysUntilDue := p.WateringFrequencyDays - daysElapsed
		if daysUntilDue > lookaheadDays {
			continue
		}

		entries = append(entries, ScheduleEntry{
			Plant:        p,
			DaysUntilDue: daysUntilDue,
			Overdue:      daysUntilDue <= 0,
		})
	}

	return entries
}
