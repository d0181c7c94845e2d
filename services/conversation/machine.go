package conversation

import (
	"context"
	"errors"
	"time"

	sessionRepo "glowdesk/database/repository/session"
	"glowdesk/integrations/pos"
	"glowdesk/models"
	"glowdesk/services/finalize"
	"glowdesk/services/scheduling"

	"go.uber.org/zap"
)

// Machine owns the booking conversation: one session per customer, one
// message processed at a time per customer identity.
type Machine struct {
	Store     sessionRepo.Store
	Catalog   pos.Catalog
	Validator *scheduling.Validator
	Finalizer OrderFinalizer
	Replies   ReplyGenerator
	Logger    *zap.Logger
}

// ProcessMessage runs one inbound message through the full pipeline:
// load-or-create session, extract, validate, transition, optionally
// finalize, persist, reply. The per-key lock serializes messages for the
// same customer; different customers proceed concurrently.
func (m *Machine) ProcessMessage(ctx context.Context, customerID, text string) (*models.ChatReply, error) {
	unlock := m.Store.Lock(customerID)
	defer unlock()

	session := m.loadOrCreate(ctx, customerID)

	if text != "" && !languageSticky(session) {
		session.Language = DetectLanguage(text)
	}
	if text != "" {
		session.AppendHistory(text, true)
	}

	replyText, err := m.dispatch(ctx, text, session)
	if err != nil {
		replyText = m.errorReply(err, session)
	}
	replyText = m.rephrase(ctx, replyText, session)

	if text != "" {
		session.AppendHistory(replyText, false)
	}

	if saveErr := m.Store.Save(ctx, session); saveErr != nil {
		m.Logger.Error("failed to persist session",
			zap.String("customerId", customerID), zap.Error(saveErr))
		return nil, saveErr
	}

	reply := &models.ChatReply{
		ReplyText:   replyText,
		Phase:       session.Phase,
		Collected:   session.Collected,
		OrderID:     session.Collected.OrderID,
		PaymentLink: session.Collected.PaymentLink,
	}
	if err != nil {
		reply.Error = err.Error()
	}
	return reply, nil
}

// loadOrCreate fetches the customer's session, replacing a missing or
// corrupted one with a fresh greeting-phase session.
func (m *Machine) loadOrCreate(ctx context.Context, customerID string) *models.Session {
	session, err := m.Store.Get(ctx, customerID)
	if err != nil {
		if !errors.Is(err, sessionRepo.ErrNotFound) {
			m.Logger.Warn("session load failed, starting fresh",
				zap.String("customerId", customerID), zap.Error(err))
		}
		return models.NewSession(customerID)
	}
	if err := session.CheckInvariants(); err != nil {
		m.Logger.Warn("corrupted session replaced",
			zap.String("customerId", customerID), zap.Error(err))
		return models.NewSession(customerID)
	}
	return session
}

// dispatch routes to the current phase handler. The switch is exhaustive
// over the closed phase set; anything unroutable recovers to greeting.
func (m *Machine) dispatch(ctx context.Context, text string, s *models.Session) (string, error) {
	switch s.Phase {
	case models.PhaseGreeting:
		return m.handleGreeting(ctx, text, s)
	case models.PhaseServiceSelection:
		return m.handleServiceSelection(ctx, text, s)
	case models.PhaseServiceReview:
		return m.handleServiceReview(ctx, text, s)
	case models.PhaseLocationSelection:
		return m.handleLocationSelection(ctx, text, s)
	case models.PhaseDateSelection:
		return m.handleDateSelection(ctx, text, s)
	case models.PhaseTimeSelection:
		return m.handleTimeSelection(ctx, text, s)
	case models.PhaseStaffSelection:
		return m.handleStaffSelection(ctx, text, s)
	case models.PhaseCustomerInfo:
		return m.handleCustomerInfo(ctx, text, s)
	case models.PhasePaymentMethod:
		return m.handlePaymentMethod(ctx, text, s)
	case models.PhaseBookingValidation:
		return m.handleBookingValidation(ctx, text, s)
	case models.PhaseConfirmation:
		return m.handleConfirmation(ctx, text, s)
	case models.PhasePaymentProcessing:
		return m.handlePaymentProcessing(ctx, text, s)
	case models.PhaseCompleted:
		return m.handleCompleted(ctx, text, s)
	default:
		s.Phase = models.PhaseGreeting
		return m.handleGreeting(ctx, text, s)
	}
}

// prompt renders the current phase's question by re-dispatching with an
// empty message. Handlers are idempotent under empty input, so this is
// safe after automatic transitions.
func (m *Machine) prompt(ctx context.Context, s *models.Session) string {
	reply, err := m.dispatch(ctx, "", s)
	if err != nil {
		return m.errorReply(err, s)
	}
	return reply
}

// errorReply maps the error taxonomy to a reply in the customer's
// language. Raw error text never reaches the customer.
func (m *Machine) errorReply(err error, s *models.Session) string {
	m.Logger.Warn("message processing error",
		zap.String("customerId", s.CustomerID),
		zap.String("phase", string(s.Phase)),
		zap.Error(err))

	var rejected *pos.OrderRejectedError
	switch {
	case errors.As(err, &rejected):
		// Backend message verbatim plus the generic fallback.
		return rejected.Message + "\n" + errorPrompt("finalization_failed", s.Language)
	case errors.Is(err, finalize.ErrMissingFields):
		return errorPrompt("finalization_failed", s.Language)
	default:
		return errorPrompt("backend_unavailable", s.Language)
	}
}

// rephrase asks the reply generator to restate the canned reply, keeping
// the canned text whenever generation fails or times out.
func (m *Machine) rephrase(ctx context.Context, canned string, s *models.Session) string {
	if m.Replies == nil {
		return canned
	}
	genCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := m.Replies.GenerateReply(genCtx, buildPromptContext(canned, s), s.Language)
	if err != nil || out == "" {
		return canned
	}
	return out
}

// buildPromptContext gives the generator the canned reply plus the last
// few history entries for tone; history is phrasing context only.
func buildPromptContext(canned string, s *models.Session) string {
	ctx := "Reply to the customer conveying exactly this information, keeping it short and friendly:\n" + canned
	n := len(s.History)
	if n > 4 {
		n = 4
	}
	if n > 0 {
		ctx += "\nRecent messages:\n"
		for _, h := range s.History[len(s.History)-n:] {
			who := "assistant"
			if h.FromCustomer {
				who = "customer"
			}
			ctx += who + ": " + h.Text + "\n"
		}
	}
	return ctx
}
