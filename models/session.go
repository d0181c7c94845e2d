package models

import (
	"fmt"
	"time"
)

// Phase is one step of the booking conversation. The set is closed; every
// dispatch over Phase must handle all values and route unknown ones back
// to PhaseGreeting.
type Phase string

const (
	PhaseGreeting          Phase = "greeting"
	PhaseServiceSelection  Phase = "service_selection"
	PhaseServiceReview     Phase = "service_review"
	PhaseLocationSelection Phase = "location_selection"
	PhaseDateSelection     Phase = "date_selection"
	PhaseTimeSelection     Phase = "time_selection"
	PhaseStaffSelection    Phase = "staff_selection"
	PhaseCustomerInfo      Phase = "customer_info"
	PhasePaymentMethod     Phase = "payment_method"
	PhaseBookingValidation Phase = "booking_validation"
	PhaseConfirmation      Phase = "confirmation"
	PhasePaymentProcessing Phase = "payment_processing"
	PhaseCompleted         Phase = "completed"
)

// AllPhases lists the phases in happy-path order.
var AllPhases = []Phase{
	PhaseGreeting,
	PhaseServiceSelection,
	PhaseServiceReview,
	PhaseLocationSelection,
	PhaseDateSelection,
	PhaseTimeSelection,
	PhaseStaffSelection,
	PhaseCustomerInfo,
	PhasePaymentMethod,
	PhaseBookingValidation,
	PhaseConfirmation,
	PhasePaymentProcessing,
	PhaseCompleted,
}

// Valid reports whether p is a member of the closed phase set.
func (p Phase) Valid() bool {
	for _, ph := range AllPhases {
		if p == ph {
			return true
		}
	}
	return false
}

// Language of the conversation, detected per inbound message.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// SelectedService is one service committed to the booking. Duplicate
// selections of the same service merge into Quantity.
type SelectedService struct {
	ServiceID       string  `json:"serviceId" bson:"serviceId"`
	Name            string  `json:"name" bson:"name"`
	UnitPrice       float64 `json:"unitPrice" bson:"unitPrice"`
	DurationMinutes int     `json:"durationMinutes" bson:"durationMinutes"`
	Quantity        int     `json:"quantity" bson:"quantity"`
}

// SelectedStaff assigns one staff member to one selected service.
type SelectedStaff struct {
	StaffID           string `json:"staffId" bson:"staffId"`
	Name              string `json:"name" bson:"name"`
	AssignedServiceID string `json:"assignedServiceId" bson:"assignedServiceId"`
}

// SelectedLocation is the committed branch.
type SelectedLocation struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// SelectedPayment is the committed payment method.
type SelectedPayment struct {
	ID     string `json:"id" bson:"id"`
	Name   string `json:"name" bson:"name"`
	Online bool   `json:"online" bson:"online"`
}

// CustomerInfo holds the customer's contact details. Phone comes from the
// chat channel identity and is always present.
type CustomerInfo struct {
	Name  string `json:"name,omitempty" bson:"name,omitempty"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
	Phone string `json:"phone" bson:"phone"`
}

// CollectedData is everything the conversation has gathered so far.
// Ordering invariants: Services must be non-empty before Location is set,
// and Location must be set before Date.
type CollectedData struct {
	Services         []SelectedService `json:"services,omitempty"`
	Location         *SelectedLocation `json:"location,omitempty"`
	Date             string            `json:"date,omitempty"` // YYYY-MM-DD
	Time             string            `json:"time,omitempty"` // HH:MM, 24h
	Staff            []SelectedStaff   `json:"staff,omitempty"`
	Customer         CustomerInfo      `json:"customer"`
	PaymentMethod    *SelectedPayment  `json:"paymentMethod,omitempty"`
	ValidationErrors []string          `json:"validationErrors,omitempty"`
	OrderID          string            `json:"orderId,omitempty"`
	PaymentLink      string            `json:"paymentLink,omitempty"`
}

// HistoryEntry is one appended chat message. Entries are immutable once
// appended and are used only as phrasing context, never for control flow.
type HistoryEntry struct {
	Text         string    `json:"text"`
	FromCustomer bool      `json:"fromCustomer"`
	Timestamp    time.Time `json:"timestamp"`
	Phase        Phase     `json:"phase"`
}

// Session is the full booking-conversation state for one customer.
type Session struct {
	CustomerID   string         `json:"customerId"`
	Phase        Phase          `json:"phase"`
	Language     Language       `json:"language"`
	Collected    CollectedData  `json:"collected"`
	History      []HistoryEntry `json:"history"`
	LastActivity time.Time      `json:"lastActivity"`
}

// NewSession creates a fresh session in the greeting phase. The chat
// channel identity doubles as the customer phone number.
func NewSession(customerID string) *Session {
	return &Session{
		CustomerID:   customerID,
		Phase:        PhaseGreeting,
		Language:     LanguageEnglish,
		Collected:    CollectedData{Customer: CustomerInfo{Phone: customerID}},
		LastActivity: time.Now(),
	}
}

// AddService commits a service selection, merging quantity when the same
// service id was already selected. Insertion order is selection order.
func (s *Session) AddService(svc SelectedService) {
	if svc.Quantity <= 0 {
		svc.Quantity = 1
	}
	for i := range s.Collected.Services {
		if s.Collected.Services[i].ServiceID == svc.ServiceID {
			s.Collected.Services[i].Quantity += svc.Quantity
			return
		}
	}
	s.Collected.Services = append(s.Collected.Services, svc)
}

// AssignStaff commits a staff assignment for a service, replacing any
// previous assignment for that service (0..1 staff per service).
func (s *Session) AssignStaff(st SelectedStaff) {
	for i := range s.Collected.Staff {
		if s.Collected.Staff[i].AssignedServiceID == st.AssignedServiceID {
			s.Collected.Staff[i] = st
			return
		}
	}
	s.Collected.Staff = append(s.Collected.Staff, st)
}

// StaffFor returns the staff assigned to the given service, if any.
func (s *Session) StaffFor(serviceID string) *SelectedStaff {
	for i := range s.Collected.Staff {
		if s.Collected.Staff[i].AssignedServiceID == serviceID {
			return &s.Collected.Staff[i]
		}
	}
	return nil
}

// AppendHistory records one message in the append-only log.
func (s *Session) AppendHistory(text string, fromCustomer bool) {
	s.History = append(s.History, HistoryEntry{
		Text:         text,
		FromCustomer: fromCustomer,
		Timestamp:    time.Now(),
		Phase:        s.Phase,
	})
	s.LastActivity = time.Now()
}

// TotalDurationMinutes sums the durations of all selected services,
// counting quantity.
func (s *Session) TotalDurationMinutes() int {
	total := 0
	for _, svc := range s.Collected.Services {
		q := svc.Quantity
		if q <= 0 {
			q = 1
		}
		total += svc.DurationMinutes * q
	}
	return total
}

// CheckInvariants verifies the ordering invariants on load. A violation
// means the stored session is corrupted and must be replaced with a fresh
// one rather than crashing the conversation.
func (s *Session) CheckInvariants() error {
	if !s.Phase.Valid() {
		return fmt.Errorf("unknown phase %q", s.Phase)
	}
	if s.Collected.Location != nil && len(s.Collected.Services) == 0 {
		return fmt.Errorf("location set without any selected service")
	}
	if s.Collected.Date != "" && s.Collected.Location == nil {
		return fmt.Errorf("date set without a location")
	}
	return nil
}
