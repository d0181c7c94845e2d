package conversation

import (
	"context"
	"strings"
	"testing"
	"time"

	sessionRepo "glowdesk/database/repository/session"
	"glowdesk/integrations/pos"
	"glowdesk/models"
	"glowdesk/services/scheduling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePOS struct {
	services  []models.Service
	locations []models.Location
	staff     map[string][]models.Staff
	slots     map[string][]models.Slot
	payments  []models.PaymentMethod
	err       error
}

func (f *fakePOS) ListLocations(context.Context) ([]models.Location, error) {
	return f.locations, f.err
}

func (f *fakePOS) ListServices(context.Context, string) ([]models.Service, error) {
	return f.services, f.err
}

func (f *fakePOS) ListStaffForService(_ context.Context, serviceID, _, _ string) ([]models.Staff, error) {
	return f.staff[serviceID], f.err
}

func (f *fakePOS) ListSlotsForStaff(_ context.Context, staffID, _ string) ([]models.Slot, error) {
	return f.slots[staffID], f.err
}

func (f *fakePOS) ListPaymentMethods(context.Context) ([]models.PaymentMethod, error) {
	return f.payments, f.err
}

type fakeFinalizer struct {
	calls int
	err   error
}

func (f *fakeFinalizer) Finalize(_ context.Context, _ *models.Session) (*models.OrderResult, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return &models.OrderResult{OrderID: "ord-1"}, "https://pay.glowdesk.app/orders/ord-1", nil
}

func newFakePOS() *fakePOS {
	return &fakePOS{
		services: []models.Service{
			{ID: "svc-1", Name: "Gel Manicure", Category: "Nails", Price: 120, DurationMinutes: 45},
			{ID: "svc-2", Name: "Haircut", Category: "Hair", Price: 90, DurationMinutes: 30},
		},
		locations: []models.Location{
			{ID: "loc-1", Name: "Downtown Branch", OpenTime: "09:00", CloseTime: "21:00"},
		},
		staff: map[string][]models.Staff{
			"svc-1": {{ID: "st-1", Name: "Maya"}},
			"svc-2": {{ID: "st-1", Name: "Maya"}},
		},
		slots: map[string][]models.Slot{
			"st-1": {
				{ID: "sl-1", Label: "10:00"},
				{ID: "sl-2", Label: "10:30"},
				{ID: "sl-3", Label: "14:00"},
				{ID: "sl-4", Label: "14:30"},
				{ID: "sl-5", Label: "15:00"},
			},
		},
		payments: []models.PaymentMethod{
			{ID: "pm-1", Name: "Card", Online: true},
			{ID: "pm-2", Name: "Cash", Online: false},
		},
	}
}

func newTestMachine(cat *fakePOS, fin *fakeFinalizer) *Machine {
	return &Machine{
		Store:   sessionRepo.NewMemoryStore(30 * time.Minute),
		Catalog: cat,
		Validator: &scheduling.Validator{
			Catalog:          cat,
			SlotWidthMinutes: 30,
			DefaultStartTime: "10:00",
		},
		Finalizer: fin,
		Logger:    zap.NewNop(),
	}
}

func send(t *testing.T, m *Machine, text string) *models.ChatReply {
	t.Helper()
	reply, err := m.ProcessMessage(context.Background(), "cust-1", text)
	require.NoError(t, err)
	return reply
}

func TestHappyPathBooking(t *testing.T) {
	fin := &fakeFinalizer{}
	m := newTestMachine(newFakePOS(), fin)

	reply := send(t, m, "I'd like a gel manicure")
	assert.Equal(t, models.PhaseServiceReview, reply.Phase)
	assert.Contains(t, reply.ReplyText, "Gel Manicure")

	reply = send(t, m, "that's all, continue")
	assert.Equal(t, models.PhaseLocationSelection, reply.Phase)
	assert.Contains(t, reply.ReplyText, "Downtown Branch")

	reply = send(t, m, "downtown")
	assert.Equal(t, models.PhaseDateSelection, reply.Phase)

	reply = send(t, m, "tomorrow")
	assert.Equal(t, models.PhaseTimeSelection, reply.Phase)
	assert.NotEmpty(t, reply.Collected.Date)

	reply = send(t, m, "at 2pm")
	assert.Equal(t, models.PhaseStaffSelection, reply.Phase)
	assert.Equal(t, "14:00", reply.Collected.Time)

	reply = send(t, m, "anyone is fine")
	assert.Equal(t, models.PhaseCustomerInfo, reply.Phase)
	require.Len(t, reply.Collected.Staff, 1)
	assert.Equal(t, "Maya", reply.Collected.Staff[0].Name)

	reply = send(t, m, "my name is Jane Doe, jane@example.com")
	assert.Equal(t, models.PhasePaymentMethod, reply.Phase)
	assert.Equal(t, "Jane Doe", reply.Collected.Customer.Name)

	reply = send(t, m, "card please")
	assert.Equal(t, models.PhaseConfirmation, reply.Phase)
	assert.Contains(t, reply.ReplyText, "Total")

	reply = send(t, m, "yes")
	assert.Equal(t, models.PhaseCompleted, reply.Phase)
	assert.Equal(t, "ord-1", reply.OrderID)
	assert.Equal(t, "https://pay.glowdesk.app/orders/ord-1", reply.PaymentLink)
	assert.Contains(t, reply.ReplyText, "ord-1")
	assert.Equal(t, 1, fin.calls)
}

func TestMultiEntityMessageSkipsAnsweredPhases(t *testing.T) {
	m := newTestMachine(newFakePOS(), &fakeFinalizer{})

	reply := send(t, m, "a gel manicure tomorrow at 2pm at the downtown branch")
	assert.Equal(t, models.PhaseServiceReview, reply.Phase)
	require.NotNil(t, reply.Collected.Location)
	assert.NotEmpty(t, reply.Collected.Date)
	assert.Equal(t, "14:00", reply.Collected.Time)

	// Location, date and time were already answered: continue lands
	// directly on staff selection.
	reply = send(t, m, "continue")
	assert.Equal(t, models.PhaseStaffSelection, reply.Phase)
}

func TestEmptyTextIsIdempotent(t *testing.T) {
	m := newTestMachine(newFakePOS(), &fakeFinalizer{})

	send(t, m, "gel manicure")
	send(t, m, "continue")
	send(t, m, "downtown")
	afterSetup, err := m.Store.Get(context.Background(), "cust-1")
	require.NoError(t, err)

	first := send(t, m, "")
	second := send(t, m, "")
	assert.Equal(t, first.ReplyText, second.ReplyText)
	assert.Equal(t, first.Phase, second.Phase)

	after, err := m.Store.Get(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, afterSetup.Phase, after.Phase)
	assert.Equal(t, afterSetup.Collected, after.Collected)
	assert.Len(t, after.History, len(afterSetup.History))
}

func TestEmptyPromptRestatesCommittedData(t *testing.T) {
	m := newTestMachine(newFakePOS(), &fakeFinalizer{})

	send(t, m, "gel manicure")
	send(t, m, "continue")
	send(t, m, "downtown")

	reply := send(t, m, "")
	assert.Contains(t, reply.ReplyText, "Gel Manicure")
	assert.Contains(t, reply.ReplyText, "Downtown Branch")
}

func TestAmbiguousServiceAsksToNarrow(t *testing.T) {
	cat := newFakePOS()
	cat.services = []models.Service{
		{ID: "svc-1", Name: "Gel Manicure", Category: "Nails", Price: 120, DurationMinutes: 45},
		{ID: "svc-2", Name: "Classic Manicure", Category: "Nails", Price: 80, DurationMinutes: 30},
	}
	m := newTestMachine(cat, &fakeFinalizer{})

	reply := send(t, m, "a manicure please")
	assert.Equal(t, models.PhaseServiceSelection, reply.Phase)
	assert.Empty(t, reply.Collected.Services)
	assert.Contains(t, reply.ReplyText, "Which one")
	assert.Contains(t, reply.ReplyText, "Gel Manicure")
	assert.Contains(t, reply.ReplyText, "Classic Manicure")
}

func TestArabicDetectionAndReply(t *testing.T) {
	m := newTestMachine(newFakePOS(), &fakeFinalizer{})

	reply := send(t, m, "أريد قص شعر")
	assert.Equal(t, models.PhaseServiceReview, reply.Phase)

	session, err := m.Store.Get(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, models.LanguageArabic, session.Language)
	assert.Contains(t, reply.ReplyText, "خدمة")
}

func TestRedirectToOwningPhaseInsteadOfSkipping(t *testing.T) {
	m := newTestMachine(newFakePOS(), &fakeFinalizer{})

	s := models.NewSession("cust-1")
	s.Phase = models.PhaseStaffSelection
	s.AddService(models.SelectedService{ServiceID: "svc-1", Name: "Gel Manicure", UnitPrice: 120, DurationMinutes: 45, Quantity: 1})
	require.NoError(t, m.Store.Save(context.Background(), s))

	reply := send(t, m, "whoever is free")
	assert.Equal(t, models.PhaseLocationSelection, reply.Phase)
	assert.Contains(t, reply.ReplyText, "branch")
}

func TestCorruptedSessionStartsFresh(t *testing.T) {
	m := newTestMachine(newFakePOS(), &fakeFinalizer{})

	s := models.NewSession("cust-1")
	s.Phase = models.Phase("definitely_not_a_phase")
	require.NoError(t, m.Store.Save(context.Background(), s))

	reply := send(t, m, "hello")
	assert.Equal(t, models.PhaseServiceSelection, reply.Phase)
	assert.Empty(t, reply.Collected.Services)
	assert.Contains(t, reply.ReplyText, "Welcome")
}

func TestFinalizationFailureKeepsSessionRecoverable(t *testing.T) {
	fin := &fakeFinalizer{err: &pos.OrderRejectedError{Message: "slot already taken"}}
	m := newTestMachine(newFakePOS(), fin)

	runToConfirmation(t, m)

	reply := send(t, m, "yes")
	assert.Equal(t, models.PhaseBookingValidation, reply.Phase)
	assert.Contains(t, reply.ReplyText, "slot already taken")
	assert.NotEmpty(t, reply.Error)
	assert.Equal(t, 1, fin.calls)

	// The collected data survives for a retry.
	session, err := m.Store.Get(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Collected.Services)
	assert.NotNil(t, session.Collected.PaymentMethod)
}

func TestBackendOutageProducesFriendlyReply(t *testing.T) {
	cat := newFakePOS()
	cat.err = pos.ErrBackendUnavailable
	m := newTestMachine(cat, &fakeFinalizer{})

	reply := send(t, m, "gel manicure")
	assert.NotEmpty(t, reply.Error)
	assert.Contains(t, reply.ReplyText, "try again")
	assert.NotContains(t, strings.ToLower(reply.ReplyText), "backend")
}

func TestCompletedSessionStartsOverOnNextMessage(t *testing.T) {
	fin := &fakeFinalizer{}
	m := newTestMachine(newFakePOS(), fin)

	runToConfirmation(t, m)
	reply := send(t, m, "yes")
	require.Equal(t, models.PhaseCompleted, reply.Phase)

	reply = send(t, m, "I want a haircut now")
	assert.Empty(t, reply.OrderID)
	assert.Equal(t, models.PhaseServiceReview, reply.Phase)
	require.Len(t, reply.Collected.Services, 1)
	assert.Equal(t, "Haircut", reply.Collected.Services[0].Name)
	assert.Equal(t, 1, fin.calls)
}

func TestValidationConflictRegressesToTimeSelection(t *testing.T) {
	cat := newFakePOS()
	// 18:00 is not an open slot for Maya.
	m := newTestMachine(cat, &fakeFinalizer{})

	send(t, m, "gel manicure")
	send(t, m, "continue")
	send(t, m, "downtown")
	send(t, m, "tomorrow")

	reply := send(t, m, "at 6pm")
	assert.Equal(t, models.PhaseTimeSelection, reply.Phase)
	assert.Empty(t, reply.Collected.Time)
	assert.Contains(t, reply.ReplyText, "Available times")
	assert.NotEmpty(t, reply.Collected.ValidationErrors)
}

func runToConfirmation(t *testing.T, m *Machine) {
	t.Helper()
	send(t, m, "gel manicure")
	send(t, m, "continue")
	send(t, m, "downtown")
	send(t, m, "tomorrow")
	send(t, m, "at 2pm")
	send(t, m, "anyone")
	send(t, m, "my name is Jane Doe, jane@example.com")
	reply := send(t, m, "card")
	require.Equal(t, models.PhaseConfirmation, reply.Phase)
}
