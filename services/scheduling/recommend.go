package scheduling

import (
	"time"

	"glowdesk/models"
)

const (
	alternativeDateCount  = 7
	alternativeTimeLimit  = 3
	alternativeStaffLimit = 3
)

// recommend builds alternatives independently of the conflict list so an
// infeasible request always comes back with actionable options.
func (v *Validator) recommend(req Request, snap *snapshot, requiredSlots int) models.Recommendations {
	return models.Recommendations{
		AlternativeDates: alternativeDates(req.Date),
		AlternativeTimes: alternativeTimes(snap.refSlotMinutes, requiredSlots, v.SlotWidthMinutes),
		AlternativeStaff: alternativeStaff(snap.staffPerService),
	}
}

// alternativeDates lists the next seven calendar days labeled with the
// weekday name.
func alternativeDates(from string) []string {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		start = time.Now()
	}
	dates := make([]string, 0, alternativeDateCount)
	for i := 1; i <= alternativeDateCount; i++ {
		d := start.AddDate(0, 0, i)
		dates = append(dates, d.Format("Monday 2006-01-02"))
	}
	return dates
}

// alternativeTimes lists up to three window starts satisfying the
// consecutive-capacity requirement, scanning left to right.
func alternativeTimes(mins []int, requiredSlots, width int) []string {
	var out []string
	for i := range mins {
		if consecutiveRunAt(mins, i, requiredSlots, width) {
			out = append(out, MinutesToClock(mins[i]))
			if len(out) == alternativeTimeLimit {
				break
			}
		}
	}
	return out
}

// alternativeStaff lists up to three qualified staff names, deduplicated,
// in catalog order across services.
func alternativeStaff(staffPerService [][]models.Staff) []string {
	seen := make(map[string]bool)
	var out []string
	for _, staff := range staffPerService {
		for _, s := range staff {
			if seen[s.ID] {
				continue
			}
			seen[s.ID] = true
			out = append(out, s.Name)
			if len(out) == alternativeStaffLimit {
				return out
			}
		}
	}
	return out
}
