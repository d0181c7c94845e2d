package scheduling

import (
	"context"
	"errors"
	"testing"

	"glowdesk/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	staff map[string][]models.Staff // serviceID -> staff
	slots map[string][]models.Slot  // staffID -> open slots
	err   error
}

func (f *fakeCatalog) ListStaffForService(_ context.Context, serviceID, _, _ string) ([]models.Staff, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.staff[serviceID], nil
}

func (f *fakeCatalog) ListSlotsForStaff(_ context.Context, staffID, _ string) ([]models.Slot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.slots[staffID], nil
}

func slotsAt(labels ...string) []models.Slot {
	out := make([]models.Slot, 0, len(labels))
	for i, l := range labels {
		out = append(out, models.Slot{ID: string(rune('a' + i)), Label: l})
	}
	return out
}

func newValidator(cat *fakeCatalog) *Validator {
	return &Validator{Catalog: cat, SlotWidthMinutes: 30, DefaultStartTime: "10:00"}
}

var testLocation = models.Location{ID: "loc-1", Name: "Downtown Branch", OpenTime: "09:00", CloseTime: "21:00"}

func TestValidateHappyPath(t *testing.T) {
	cat := &fakeCatalog{
		staff: map[string][]models.Staff{
			"svc-1": {{ID: "st-1", Name: "Maya"}},
			"svc-2": {{ID: "st-1", Name: "Maya"}},
		},
		slots: map[string][]models.Slot{
			"st-1": slotsAt("14:00", "14:30", "15:00", "15:30"),
		},
	}
	v := newValidator(cat)

	got, err := v.Validate(context.Background(), Request{
		Services: []models.SelectedService{
			{ServiceID: "svc-1", Name: "Gel Manicure", DurationMinutes: 45, Quantity: 1},
			{ServiceID: "svc-2", Name: "Haircut", DurationMinutes: 30, Quantity: 1},
		},
		Location: testLocation,
		Date:     "2026-09-01",
		Time:     "14:00",
	})
	require.NoError(t, err)
	assert.True(t, got.IsValid)
	assert.Empty(t, got.Conflicts)
	assert.Equal(t, 75, got.TotalDurationMinutes)
	assert.Equal(t, 3, got.RequiredSlotCount)
}

func TestValidateQuantityCountsTowardDuration(t *testing.T) {
	cat := &fakeCatalog{
		staff: map[string][]models.Staff{"svc-1": {{ID: "st-1", Name: "Maya"}}},
		slots: map[string][]models.Slot{"st-1": slotsAt("14:00", "14:30")},
	}
	v := newValidator(cat)

	got, err := v.Validate(context.Background(), Request{
		Services: []models.SelectedService{
			{ServiceID: "svc-1", Name: "Gel Manicure", DurationMinutes: 45, Quantity: 2},
		},
		Location: testLocation,
		Date:     "2026-09-01",
		Time:     "14:00",
	})
	require.NoError(t, err)
	assert.Equal(t, 90, got.TotalDurationMinutes)
	assert.Equal(t, 3, got.RequiredSlotCount)
	// Only two open slots: not enough consecutive capacity.
	assert.False(t, got.IsValid)
}

func TestValidateNoStaffOnDate(t *testing.T) {
	cat := &fakeCatalog{
		staff: map[string][]models.Staff{"svc-1": nil},
		slots: map[string][]models.Slot{},
	}
	v := newValidator(cat)

	got, err := v.Validate(context.Background(), Request{
		Services: []models.SelectedService{
			{ServiceID: "svc-1", Name: "Gel Manicure", DurationMinutes: 45, Quantity: 1},
		},
		Location: testLocation,
		Date:     "2026-09-01",
		Time:     "14:00",
	})
	require.NoError(t, err)
	require.False(t, got.IsValid)
	require.Len(t, got.Conflicts, 1)
	assert.Equal(t, models.ConflictStaffUnavailable, got.Conflicts[0].Type)
	require.NotNil(t, got.Conflicts[0].Suggested)
	assert.Equal(t, "2026-09-02", got.Conflicts[0].Suggested.Date)

	// Seven weekday-labeled alternative dates, starting the day after.
	require.Len(t, got.Recommendations.AlternativeDates, 7)
	assert.Equal(t, "Wednesday 2026-09-02", got.Recommendations.AlternativeDates[0])
	assert.Equal(t, "Tuesday 2026-09-08", got.Recommendations.AlternativeDates[6])
}

func TestValidateRequestedTimeNotOpen(t *testing.T) {
	cat := &fakeCatalog{
		staff: map[string][]models.Staff{"svc-1": {{ID: "st-1", Name: "Maya"}}},
		slots: map[string][]models.Slot{"st-1": slotsAt("10:00", "10:30", "11:00")},
	}
	v := newValidator(cat)

	got, err := v.Validate(context.Background(), Request{
		Services: []models.SelectedService{
			{ServiceID: "svc-1", Name: "Gel Manicure", DurationMinutes: 45, Quantity: 1},
		},
		Location: testLocation,
		Date:     "2026-09-01",
		Time:     "14:00",
	})
	require.NoError(t, err)
	require.False(t, got.IsValid)
	require.Len(t, got.Conflicts, 1)
	assert.Equal(t, models.ConflictTimeOverlap, got.Conflicts[0].Type)
	require.NotNil(t, got.Conflicts[0].Suggested)
	assert.Equal(t, "10:00", got.Conflicts[0].Suggested.Time)

	assert.Equal(t, []string{"10:00", "10:30"}, got.Recommendations.AlternativeTimes)
	assert.Equal(t, []string{"Maya"}, got.Recommendations.AlternativeStaff)
}

func TestValidateInsufficientConsecutiveSlots(t *testing.T) {
	// 14:00 is open but 14:30 is taken; the run restarts at 16:00.
	cat := &fakeCatalog{
		staff: map[string][]models.Staff{"svc-1": {{ID: "st-1", Name: "Maya"}}},
		slots: map[string][]models.Slot{"st-1": slotsAt("14:00", "16:00", "16:30")},
	}
	v := newValidator(cat)

	got, err := v.Validate(context.Background(), Request{
		Services: []models.SelectedService{
			{ServiceID: "svc-1", Name: "Gel Manicure", DurationMinutes: 45, Quantity: 1},
		},
		Location: testLocation,
		Date:     "2026-09-01",
		Time:     "14:00",
	})
	require.NoError(t, err)
	require.False(t, got.IsValid)
	require.Len(t, got.Conflicts, 1)
	assert.Equal(t, models.ConflictTimeOverlap, got.Conflicts[0].Type)
	require.NotNil(t, got.Conflicts[0].Suggested)
	assert.Equal(t, "16:00", got.Conflicts[0].Suggested.Time)
}

func TestValidateDurationExceedsWindow(t *testing.T) {
	cat := &fakeCatalog{
		staff: map[string][]models.Staff{"svc-1": {{ID: "st-1", Name: "Maya"}}},
		slots: map[string][]models.Slot{"st-1": slotsAt("14:00", "14:30", "15:00", "15:30")},
	}
	v := newValidator(cat)
	loc := models.Location{ID: "loc-1", Name: "Downtown Branch", OpenTime: "09:00", CloseTime: "15:00"}

	got, err := v.Validate(context.Background(), Request{
		Services: []models.SelectedService{
			{ServiceID: "svc-1", Name: "Spa Day", DurationMinutes: 120, Quantity: 1},
		},
		Location: loc,
		Date:     "2026-09-01",
		Time:     "14:00",
	})
	require.NoError(t, err)
	require.False(t, got.IsValid)

	var found *models.Conflict
	for i := range got.Conflicts {
		if got.Conflicts[i].Type == models.ConflictDurationExceedsWindow {
			found = &got.Conflicts[i]
		}
	}
	require.NotNil(t, found)
	require.NotNil(t, found.Suggested)
	assert.Equal(t, "13:00", found.Suggested.Time)
}

func TestValidatePreferredStaffNotQualified(t *testing.T) {
	cat := &fakeCatalog{
		staff: map[string][]models.Staff{"svc-1": {{ID: "st-1", Name: "Maya"}, {ID: "st-2", Name: "Lina"}}},
		slots: map[string][]models.Slot{
			"st-1": slotsAt("14:00", "14:30"),
			"st-2": slotsAt("14:00", "14:30"),
		},
	}
	v := newValidator(cat)

	got, err := v.Validate(context.Background(), Request{
		Services: []models.SelectedService{
			{ServiceID: "svc-1", Name: "Gel Manicure", DurationMinutes: 45, Quantity: 1},
		},
		Location:         testLocation,
		Date:             "2026-09-01",
		Time:             "14:00",
		PreferredStaffID: "st-9",
	})
	require.NoError(t, err)
	require.False(t, got.IsValid)
	require.Len(t, got.Conflicts, 1)
	assert.Equal(t, models.ConflictStaffUnavailable, got.Conflicts[0].Type)
	require.NotNil(t, got.Conflicts[0].Suggested)
	assert.Equal(t, "Maya", got.Conflicts[0].Suggested.StaffName)
}

func TestValidatePreferredStaffBooked(t *testing.T) {
	// Lina is qualified but her 14:00 is gone; Maya still has it.
	cat := &fakeCatalog{
		staff: map[string][]models.Staff{"svc-1": {{ID: "st-1", Name: "Maya"}, {ID: "st-2", Name: "Lina"}}},
		slots: map[string][]models.Slot{
			"st-1": slotsAt("14:00", "14:30"),
			"st-2": slotsAt("16:00", "16:30"),
		},
	}
	v := newValidator(cat)

	got, err := v.Validate(context.Background(), Request{
		Services: []models.SelectedService{
			{ServiceID: "svc-1", Name: "Gel Manicure", DurationMinutes: 45, Quantity: 1},
		},
		Location:         testLocation,
		Date:             "2026-09-01",
		Time:             "14:00",
		PreferredStaffID: "st-2",
	})
	require.NoError(t, err)
	require.False(t, got.IsValid)

	var overlap *models.Conflict
	for i := range got.Conflicts {
		if got.Conflicts[i].Type == models.ConflictTimeOverlap && got.Conflicts[i].Suggested != nil &&
			got.Conflicts[i].Suggested.StaffName != "" {
			overlap = &got.Conflicts[i]
		}
	}
	require.NotNil(t, overlap)
	assert.Equal(t, "Maya", overlap.Suggested.StaffName)
}

func TestValidateDefaultStartWhenNoTime(t *testing.T) {
	cat := &fakeCatalog{
		staff: map[string][]models.Staff{"svc-1": {{ID: "st-1", Name: "Maya"}}},
		slots: map[string][]models.Slot{"st-1": slotsAt("10:00", "10:30")},
	}
	v := newValidator(cat)

	got, err := v.Validate(context.Background(), Request{
		Services: []models.SelectedService{
			{ServiceID: "svc-1", Name: "Gel Manicure", DurationMinutes: 45, Quantity: 1},
		},
		Location: testLocation,
		Date:     "2026-09-01",
	})
	require.NoError(t, err)
	assert.True(t, got.IsValid)
}

func TestValidateBackendErrorAborts(t *testing.T) {
	cat := &fakeCatalog{err: errors.New("backend down")}
	v := newValidator(cat)

	_, err := v.Validate(context.Background(), Request{
		Services: []models.SelectedService{
			{ServiceID: "svc-1", Name: "Gel Manicure", DurationMinutes: 45, Quantity: 1},
		},
		Location: testLocation,
		Date:     "2026-09-01",
		Time:     "14:00",
	})
	require.Error(t, err)
}

func TestValidateIsDeterministic(t *testing.T) {
	cat := &fakeCatalog{
		staff: map[string][]models.Staff{"svc-1": {{ID: "st-1", Name: "Maya"}, {ID: "st-2", Name: "Lina"}}},
		slots: map[string][]models.Slot{
			"st-1": slotsAt("10:00", "10:30", "12:00"),
			"st-2": slotsAt("10:00"),
		},
	}
	v := newValidator(cat)
	req := Request{
		Services: []models.SelectedService{
			{ServiceID: "svc-1", Name: "Gel Manicure", DurationMinutes: 45, Quantity: 1},
		},
		Location: testLocation,
		Date:     "2026-09-01",
		Time:     "14:00",
	}

	first, err := v.Validate(context.Background(), req)
	require.NoError(t, err)
	second, err := v.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
