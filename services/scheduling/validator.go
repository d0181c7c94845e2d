package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"glowdesk/models"
)

// CatalogReader is the slice of the POS availability surface the
// validator needs.
type CatalogReader interface {
	ListStaffForService(ctx context.Context, serviceID, locationID, date string) ([]models.Staff, error)
	ListSlotsForStaff(ctx context.Context, staffID, date string) ([]models.Slot, error)
}

// Validator reconciles a candidate booking against business hours, staff
// availability and consecutive slot capacity. It is deterministic: the
// same request against the same backend snapshot yields the same conflict
// list and the same alternative ordering.
type Validator struct {
	Catalog          CatalogReader
	SlotWidthMinutes int
	DefaultStartTime string // used when the customer named no time, e.g. "10:00"
}

// Request is one candidate booking to validate.
type Request struct {
	Services         []models.SelectedService
	Location         models.Location
	Date             string // YYYY-MM-DD
	Time             string // optional, HH:MM 24h
	PreferredStaffID string // optional
}

// snapshot carries the backend data fetched during the conflict pass so
// recommendations reuse it instead of refetching.
type snapshot struct {
	staffPerService [][]models.Staff
	refSlots        []models.Slot
	refSlotMinutes  []int
}

// Validate runs the full scheduling check. Conflicts from every step
// accumulate rather than short-circuiting so the customer sees all
// problems at once. A backend read failure aborts with an error; partial
// results are never reported as valid.
func (v *Validator) Validate(ctx context.Context, req Request) (*models.SchedulingValidation, error) {
	if len(req.Services) == 0 {
		return nil, fmt.Errorf("no services to validate")
	}

	total := 0
	for _, svc := range req.Services {
		q := svc.Quantity
		if q <= 0 {
			q = 1
		}
		total += svc.DurationMinutes * q
	}
	result := &models.SchedulingValidation{
		TotalDurationMinutes: total,
		RequiredSlotCount:    RequiredSlots(total, v.SlotWidthMinutes),
	}

	start := v.effectiveStart(req.Time)
	var conflicts []models.Conflict

	conflicts = append(conflicts, v.checkBusinessHours(req.Location, start, total)...)

	snap, staffConflicts, err := v.checkStaff(ctx, req, start, result.RequiredSlotCount)
	if err != nil {
		return nil, err
	}
	conflicts = append(conflicts, staffConflicts...)

	capacityConflicts, err := v.checkSlotCapacity(ctx, req, snap, start, result.RequiredSlotCount)
	if err != nil {
		return nil, err
	}
	conflicts = append(conflicts, capacityConflicts...)

	result.Conflicts = conflicts
	result.IsValid = len(conflicts) == 0
	if !result.IsValid {
		result.Recommendations = v.recommend(req, snap, result.RequiredSlotCount)
	}
	return result, nil
}

func (v *Validator) effectiveStart(requested string) int {
	if requested != "" {
		if m, err := ParseClockTime(requested); err == nil {
			return m
		}
	}
	m, err := ParseClockTime(v.DefaultStartTime)
	if err != nil {
		return 10 * 60
	}
	return m
}

// checkBusinessHours rejects starts before opening and bookings that run
// past closing, suggesting the latest feasible start in the latter case.
func (v *Validator) checkBusinessHours(loc models.Location, start, total int) []models.Conflict {
	open, err := ParseClockTime(loc.OpenTime)
	if err != nil {
		open = 0
	}
	closing, err := ParseClockTime(loc.CloseTime)
	if err != nil {
		closing = 24 * 60
	}

	var conflicts []models.Conflict
	if start < open {
		conflicts = append(conflicts, models.Conflict{
			Type:      models.ConflictLocationClosed,
			Message:   fmt.Sprintf("%s opens at %s", loc.Name, MinutesToClock(open)),
			Suggested: &models.SuggestedFix{Time: MinutesToClock(open)},
		})
	}
	if start+total > closing {
		latest := closing - total
		fix := &models.SuggestedFix{}
		if latest >= open {
			fix.Time = MinutesToClock(latest)
		}
		conflicts = append(conflicts, models.Conflict{
			Type: models.ConflictDurationExceedsWindow,
			Message: fmt.Sprintf("the booking needs %d minutes but %s closes at %s",
				total, loc.Name, MinutesToClock(closing)),
			Suggested: fix,
		})
	}
	return conflicts
}

// checkStaff verifies, per service, that qualified staff exist on the
// date and that a preferred staff member is both qualified and free for
// the requested window.
func (v *Validator) checkStaff(ctx context.Context, req Request, start, requiredSlots int) (*snapshot, []models.Conflict, error) {
	snap := &snapshot{staffPerService: make([][]models.Staff, len(req.Services))}
	var conflicts []models.Conflict

	for i, svc := range req.Services {
		staff, err := v.Catalog.ListStaffForService(ctx, svc.ServiceID, req.Location.ID, req.Date)
		if err != nil {
			return nil, nil, fmt.Errorf("staff lookup for %s: %w", svc.Name, err)
		}
		snap.staffPerService[i] = staff

		if len(staff) == 0 {
			conflicts = append(conflicts, models.Conflict{
				Type:      models.ConflictStaffUnavailable,
				Message:   fmt.Sprintf("no staff available for %s on %s", svc.Name, req.Date),
				Suggested: &models.SuggestedFix{Date: nextDay(req.Date)},
			})
			continue
		}

		if req.PreferredStaffID == "" {
			continue
		}
		preferred := findStaff(staff, req.PreferredStaffID)
		if preferred == nil {
			c := models.Conflict{
				Type:    models.ConflictStaffUnavailable,
				Message: fmt.Sprintf("the requested staff member cannot perform %s on %s", svc.Name, req.Date),
			}
			if alt := firstOtherStaff(staff, req.PreferredStaffID); alt != nil {
				c.Suggested = &models.SuggestedFix{StaffID: alt.ID, StaffName: alt.Name}
			}
			conflicts = append(conflicts, c)
			continue
		}

		// The preferred staff is qualified: make sure the requested window
		// is actually open in their slot calendar.
		slots, err := v.Catalog.ListSlotsForStaff(ctx, preferred.ID, req.Date)
		if err != nil {
			return nil, nil, fmt.Errorf("slot lookup for %s: %w", preferred.Name, err)
		}
		mins := slotMinutes(slots)
		if idx := indexOfMinute(mins, start); idx < 0 || !consecutiveRunAt(mins, idx, requiredSlots, v.SlotWidthMinutes) {
			c := models.Conflict{
				Type: models.ConflictTimeOverlap,
				Message: fmt.Sprintf("%s is already booked around %s on %s",
					preferred.Name, MinutesToClock(start), req.Date),
			}
			if alt := firstOtherStaff(staff, req.PreferredStaffID); alt != nil {
				c.Suggested = &models.SuggestedFix{StaffID: alt.ID, StaffName: alt.Name}
			}
			conflicts = append(conflicts, c)
		}
	}
	return snap, conflicts, nil
}

// checkSlotCapacity locates the requested start in the reference staff's
// slot list and verifies enough consecutive slots follow it, scanning
// left to right, first fit wins.
func (v *Validator) checkSlotCapacity(ctx context.Context, req Request, snap *snapshot, start, requiredSlots int) ([]models.Conflict, error) {
	ref := v.referenceStaff(req, snap)
	if ref == nil {
		// Zero qualified staff was already reported by the staff check.
		return nil, nil
	}

	slots, err := v.Catalog.ListSlotsForStaff(ctx, ref.ID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("slot lookup for %s: %w", ref.Name, err)
	}
	snap.refSlots = slots
	snap.refSlotMinutes = slotMinutes(slots)
	mins := snap.refSlotMinutes

	if len(mins) == 0 {
		return []models.Conflict{{
			Type:      models.ConflictTimeOverlap,
			Message:   fmt.Sprintf("no open slots remain on %s", req.Date),
			Suggested: &models.SuggestedFix{Date: nextDay(req.Date)},
		}}, nil
	}

	idx := indexOfMinute(mins, start)
	if idx < 0 {
		return []models.Conflict{{
			Type:      models.ConflictTimeOverlap,
			Message:   fmt.Sprintf("%s is not available on %s", MinutesToClock(start), req.Date),
			Suggested: &models.SuggestedFix{Time: MinutesToClock(mins[0])},
		}}, nil
	}

	if !consecutiveRunAt(mins, idx, requiredSlots, v.SlotWidthMinutes) {
		c := models.Conflict{
			Type: models.ConflictTimeOverlap,
			Message: fmt.Sprintf("not enough back-to-back time from %s for %d minutes",
				MinutesToClock(start), v.SlotWidthMinutes*requiredSlots),
		}
		if win, ok := earliestWindow(mins, requiredSlots, v.SlotWidthMinutes); ok {
			c.Suggested = &models.SuggestedFix{Time: MinutesToClock(win)}
		}
		return []models.Conflict{c}, nil
	}
	return nil, nil
}

// referenceStaff picks the staff whose calendar anchors the capacity
// check: the preferred staff when qualified for the first service,
// otherwise the first qualified staff for the first service.
func (v *Validator) referenceStaff(req Request, snap *snapshot) *models.Staff {
	if len(snap.staffPerService) == 0 || len(snap.staffPerService[0]) == 0 {
		return nil
	}
	first := snap.staffPerService[0]
	if req.PreferredStaffID != "" {
		if s := findStaff(first, req.PreferredStaffID); s != nil {
			return s
		}
	}
	return &first[0]
}

func findStaff(staff []models.Staff, id string) *models.Staff {
	for i := range staff {
		if staff[i].ID == id {
			return &staff[i]
		}
	}
	return nil
}

func firstOtherStaff(staff []models.Staff, excludeID string) *models.Staff {
	for i := range staff {
		if staff[i].ID != excludeID {
			return &staff[i]
		}
	}
	return nil
}

// slotMinutes converts slot labels to sorted minutes since midnight.
// Unparseable labels are dropped.
func slotMinutes(slots []models.Slot) []int {
	mins := make([]int, 0, len(slots))
	for _, s := range slots {
		m, err := ParseClockTime(s.Label)
		if err != nil {
			continue
		}
		mins = append(mins, m)
	}
	sort.Ints(mins)
	return mins
}

func indexOfMinute(mins []int, m int) int {
	for i, v := range mins {
		if v == m {
			return i
		}
	}
	return -1
}

// consecutiveRunAt reports whether count slots starting at index i are
// gap-free: each following slot begins exactly one width later.
func consecutiveRunAt(mins []int, i, count, width int) bool {
	if count <= 0 {
		return true
	}
	if i+count > len(mins) {
		return false
	}
	for k := 1; k < count; k++ {
		if mins[i+k] != mins[i]+k*width {
			return false
		}
	}
	return true
}

// earliestWindow scans left to right for the first start offering count
// consecutive slots.
func earliestWindow(mins []int, count, width int) (int, bool) {
	for i := range mins {
		if consecutiveRunAt(mins, i, count, width) {
			return mins[i], true
		}
	}
	return 0, false
}

// nextDay returns the following calendar date, falling back to the input
// when it does not parse.
func nextDay(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, 1).Format("2006-01-02")
}
