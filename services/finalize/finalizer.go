package finalize

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	recordsRepo "glowdesk/database/repository/records"
	"glowdesk/models"
	"glowdesk/services/scheduling"

	"go.uber.org/zap"
)

// ErrMissingFields is returned when the session does not yet carry every
// field an order submission needs. The wrapped message lists them.
var ErrMissingFields = errors.New("booking data incomplete")

// Backend is the slice of the POS surface the finalizer uses: one
// identity resolution, one slot read per staff member, one order write.
type Backend interface {
	ResolveCustomer(ctx context.Context, name, email, phone string) (string, error)
	ListSlotsForStaff(ctx context.Context, staffID, date string) ([]models.Slot, error)
	SubmitOrder(ctx context.Context, req models.OrderRequest) (*models.OrderResult, error)
}

// ReminderScheduler enqueues the appointment reminder after a successful
// submission.
type ReminderScheduler interface {
	EnqueueAppointmentReminder(p models.ReminderPayload, fireAt time.Time) error
}

// Finalizer turns a fully collected session into exactly one order
// submission. The caller guarantees single-writer access to the session.
type Finalizer struct {
	Backend            Backend
	Records            recordsRepo.OrderRecordRepository
	Reminders          ReminderScheduler
	SlotWidthMinutes   int
	PaymentLinkBaseURL string
	ReminderLead       time.Duration
	Logger             *zap.Logger
}

// Finalize gates on the preconditions, resolves the customer, assembles
// one order line per selected service with its consecutive slot ids, and
// submits the order once. On success it returns the result and, for
// online payment methods, the payment link.
func (f *Finalizer) Finalize(ctx context.Context, s *models.Session) (*models.OrderResult, string, error) {
	if missing := missingFields(s); len(missing) > 0 {
		return nil, "", fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}

	customerID, err := f.Backend.ResolveCustomer(ctx,
		s.Collected.Customer.Name, s.Collected.Customer.Email, s.Collected.Customer.Phone)
	if err != nil {
		return nil, "", fmt.Errorf("resolving customer: %w", err)
	}

	lines, err := f.buildLines(ctx, s)
	if err != nil {
		return nil, "", err
	}

	result, err := f.Backend.SubmitOrder(ctx, models.OrderRequest{
		CustomerID:      customerID,
		LocationID:      s.Collected.Location.ID,
		PaymentMethodID: s.Collected.PaymentMethod.ID,
		Lines:           lines,
	})
	if err != nil {
		return nil, "", err
	}

	link := ""
	if s.Collected.PaymentMethod.Online {
		link = strings.TrimRight(f.PaymentLinkBaseURL, "/") + "/" + result.OrderID
	}

	f.archive(ctx, s, result.OrderID, link)
	f.scheduleReminder(s, result.OrderID)

	f.Logger.Info("order finalized",
		zap.String("customerId", s.CustomerID),
		zap.String("orderId", result.OrderID))
	return result, link, nil
}

// missingFields checks the seven submission preconditions and names every
// field that is still absent.
func missingFields(s *models.Session) []string {
	var missing []string
	if len(s.Collected.Services) == 0 {
		missing = append(missing, "services")
	}
	if s.Collected.Location == nil {
		missing = append(missing, "location")
	}
	if s.Collected.Date == "" {
		missing = append(missing, "date")
	}
	if s.Collected.Time == "" {
		missing = append(missing, "time")
	}
	if len(s.Collected.Staff) < len(s.Collected.Services) {
		missing = append(missing, "staff")
	}
	if s.Collected.Customer.Name == "" || s.Collected.Customer.Email == "" {
		missing = append(missing, "customer contact")
	}
	if s.Collected.PaymentMethod == nil {
		missing = append(missing, "payment method")
	}
	return missing
}

// buildLines assembles one order line per service. Each line claims the
// consecutive slots its duration occupies, walking forward from the
// booked start time within the assigned staff member's open slots.
func (f *Finalizer) buildLines(ctx context.Context, s *models.Session) ([]models.OrderLine, error) {
	start, err := scheduling.ParseClockTime(s.Collected.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: time", ErrMissingFields)
	}

	lines := make([]models.OrderLine, 0, len(s.Collected.Services))
	cursor := start
	for _, svc := range s.Collected.Services {
		assigned := s.StaffFor(svc.ServiceID)
		if assigned == nil {
			return nil, fmt.Errorf("%w: staff for %s", ErrMissingFields, svc.Name)
		}

		q := svc.Quantity
		if q <= 0 {
			q = 1
		}
		needed := scheduling.RequiredSlots(svc.DurationMinutes*q, f.SlotWidthMinutes)

		slotIDs, err := f.claimSlots(ctx, assigned.StaffID, s.Collected.Date, cursor, needed)
		if err != nil {
			return nil, err
		}

		lines = append(lines, models.OrderLine{
			ServiceID: svc.ServiceID,
			Quantity:  q,
			Rate:      svc.UnitPrice,
			StaffID:   assigned.StaffID,
			SlotIDs:   slotIDs,
			Date:      s.Collected.Date,
		})
		cursor += needed * f.SlotWidthMinutes
	}
	return lines, nil
}

// claimSlots returns the ids of `needed` consecutive open slots starting
// at `start` minutes for the given staff member.
func (f *Finalizer) claimSlots(ctx context.Context, staffID, date string, start, needed int) ([]string, error) {
	slots, err := f.Backend.ListSlotsForStaff(ctx, staffID, date)
	if err != nil {
		return nil, err
	}

	type timedSlot struct {
		id     string
		minute int
	}
	timed := make([]timedSlot, 0, len(slots))
	for _, slot := range slots {
		m, err := scheduling.ParseClockTime(slot.Label)
		if err != nil {
			continue
		}
		timed = append(timed, timedSlot{id: slot.ID, minute: m})
	}
	sort.Slice(timed, func(i, j int) bool { return timed[i].minute < timed[j].minute })

	idx := -1
	for i, t := range timed {
		if t.minute == start {
			idx = i
			break
		}
	}
	if idx < 0 || idx+needed > len(timed) {
		return nil, fmt.Errorf("slots at %s no longer open for staff %s",
			scheduling.MinutesToClock(start), staffID)
	}

	ids := make([]string, 0, needed)
	for i := 0; i < needed; i++ {
		t := timed[idx+i]
		if t.minute != start+i*f.SlotWidthMinutes {
			return nil, fmt.Errorf("slots at %s no longer consecutive for staff %s",
				scheduling.MinutesToClock(start), staffID)
		}
		ids = append(ids, t.id)
	}
	return ids, nil
}

// archive writes the order record. The order already succeeded; a failed
// archive write is logged and swallowed.
func (f *Finalizer) archive(ctx context.Context, s *models.Session, orderID, link string) {
	if f.Records == nil {
		return
	}
	total := 0.0
	for _, svc := range s.Collected.Services {
		q := svc.Quantity
		if q <= 0 {
			q = 1
		}
		total += svc.UnitPrice * float64(q)
	}
	record := models.OrderRecord{
		CustomerID:   s.CustomerID,
		OrderID:      orderID,
		LocationName: s.Collected.Location.Name,
		Services:     s.Collected.Services,
		Staff:        s.Collected.Staff,
		Date:         s.Collected.Date,
		Time:         s.Collected.Time,
		Total:        total,
		PaymentLink:  link,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if _, err := f.Records.Create(ctx, record); err != nil {
		f.Logger.Warn("order record archive failed",
			zap.String("orderId", orderID), zap.Error(err))
	}
}

// scheduleReminder queues the appointment reminder ahead of the booked
// start. The order already succeeded; enqueue failures are logged and
// swallowed.
func (f *Finalizer) scheduleReminder(s *models.Session, orderID string) {
	if f.Reminders == nil {
		return
	}
	day, err := time.ParseInLocation("2006-01-02", s.Collected.Date, time.Local)
	if err != nil {
		return
	}
	minutes, err := scheduling.ParseClockTime(s.Collected.Time)
	if err != nil {
		return
	}
	fireAt := day.Add(time.Duration(minutes) * time.Minute).Add(-f.ReminderLead)

	payload := models.ReminderPayload{
		CustomerID:   s.CustomerID,
		OrderID:      orderID,
		LocationName: s.Collected.Location.Name,
		Date:         s.Collected.Date,
		Time:         s.Collected.Time,
	}
	if err := f.Reminders.EnqueueAppointmentReminder(payload, fireAt); err != nil {
		f.Logger.Warn("reminder enqueue failed",
			zap.String("orderId", orderID), zap.Error(err))
	}
}
