package conversation

import (
	"context"
	"fmt"
	"strings"

	"glowdesk/models"
	"glowdesk/services/extraction"
	"glowdesk/services/scheduling"
)

// determineNext returns the owning phase of the first field that is still
// missing. Handlers redirect here instead of guessing, so no transition
// ever skips an unmet precondition.
func determineNext(s *models.Session) models.Phase {
	c := s.Collected
	switch {
	case len(c.Services) == 0:
		return models.PhaseServiceSelection
	case c.Location == nil:
		return models.PhaseLocationSelection
	case c.Date == "":
		return models.PhaseDateSelection
	case c.Time == "":
		return models.PhaseTimeSelection
	case len(c.Staff) < len(c.Services):
		return models.PhaseStaffSelection
	case c.Customer.Name == "" || c.Customer.Email == "":
		return models.PhaseCustomerInfo
	case c.PaymentMethod == nil:
		return models.PhasePaymentMethod
	default:
		return models.PhaseBookingValidation
	}
}

func (m *Machine) handleGreeting(ctx context.Context, text string, s *models.Session) (string, error) {
	if text == "" {
		return promptFor(models.PhaseGreeting, s.Language), nil
	}
	s.Phase = models.PhaseServiceSelection
	cat, err := m.fetchCatalog(ctx, s)
	if err != nil {
		return "", err
	}
	cand := extraction.Extract(text, s, cat)
	if len(cand.Services) > 0 {
		return m.commitServices(ctx, cand, s)
	}
	return promptFor(models.PhaseGreeting, s.Language), nil
}

func (m *Machine) handleServiceSelection(ctx context.Context, text string, s *models.Session) (string, error) {
	if text == "" {
		return summarize(s) + promptFor(models.PhaseServiceSelection, s.Language), nil
	}
	cat, err := m.fetchCatalog(ctx, s)
	if err != nil {
		return "", err
	}
	cand := extraction.Extract(text, s, cat)
	if len(cand.Services) == 0 {
		return summarize(s) + promptFor(models.PhaseServiceSelection, s.Language), nil
	}
	return m.commitServices(ctx, cand, s)
}

// commitServices routes extraction candidates into the session. A tie at
// the top score is ambiguous: the customer is asked to narrow down and
// nothing is committed.
func (m *Machine) commitServices(ctx context.Context, cand extraction.Candidates, s *models.Session) (string, error) {
	if len(cand.Services) > 1 && cand.Services[0].Score == cand.Services[1].Score {
		names := make([]string, 0, len(cand.Services))
		for _, sc := range cand.Services {
			names = append(names, sc.Service.Name)
		}
		return errorPrompt("ambiguous_service", s.Language) + "\n" + strings.Join(names, " / "), nil
	}

	top := cand.Services[0].Service
	s.AddService(models.SelectedService{
		ServiceID:       top.ID,
		Name:            top.Name,
		UnitPrice:       top.Price,
		DurationMinutes: top.DurationMinutes,
		Quantity:        1,
	})
	m.absorb(cand, s)

	s.Phase = models.PhaseServiceReview
	return summarize(s) + promptFor(models.PhaseServiceReview, s.Language), nil
}

// absorb commits the remaining extraction candidates in invariant order:
// location needs services, date needs a location. Time, name and email
// have no ordering constraints.
func (m *Machine) absorb(cand extraction.Candidates, s *models.Session) {
	if cand.Location != nil && len(s.Collected.Services) > 0 && s.Collected.Location == nil {
		s.Collected.Location = &models.SelectedLocation{ID: cand.Location.ID, Name: cand.Location.Name}
	}
	if cand.Date != "" && s.Collected.Location != nil && s.Collected.Date == "" {
		s.Collected.Date = cand.Date
	}
	if cand.Time != "" && s.Collected.Time == "" {
		s.Collected.Time = cand.Time
	}
	if cand.Name != "" && s.Collected.Customer.Name == "" {
		s.Collected.Customer.Name = cand.Name
	}
	if cand.Email != "" && s.Collected.Customer.Email == "" {
		s.Collected.Customer.Email = cand.Email
	}
}

func (m *Machine) handleServiceReview(ctx context.Context, text string, s *models.Session) (string, error) {
	if text == "" {
		return summarize(s) + promptFor(models.PhaseServiceReview, s.Language), nil
	}
	cat, err := m.fetchCatalog(ctx, s)
	if err != nil {
		return "", err
	}
	cand := extraction.Extract(text, s, cat)
	if len(cand.Services) > 0 && cand.Services[0].Score > 70 {
		return m.commitServices(ctx, cand, s)
	}
	if wantsMoreServices(text) {
		s.Phase = models.PhaseServiceSelection
		return promptFor(models.PhaseServiceSelection, s.Language), nil
	}
	if wantsToProceed(text) || isNegative(text) {
		m.absorb(cand, s)
		s.Phase = determineNext(s)
		return m.prompt(ctx, s), nil
	}
	return summarize(s) + promptFor(models.PhaseServiceReview, s.Language), nil
}

func (m *Machine) handleLocationSelection(ctx context.Context, text string, s *models.Session) (string, error) {
	if len(s.Collected.Services) == 0 {
		s.Phase = models.PhaseServiceSelection
		return m.prompt(ctx, s), nil
	}
	locations, err := m.Catalog.ListLocations(ctx)
	if err != nil {
		return "", err
	}
	if text == "" {
		return summarize(s) + promptFor(models.PhaseLocationSelection, s.Language) + "\n" + locationList(locations), nil
	}
	cat, err := m.fetchCatalog(ctx, s)
	if err != nil {
		return "", err
	}
	cand := extraction.Extract(text, s, cat)
	if cand.Location == nil {
		return summarize(s) + promptFor(models.PhaseLocationSelection, s.Language) + "\n" + locationList(locations), nil
	}
	s.Collected.Location = &models.SelectedLocation{ID: cand.Location.ID, Name: cand.Location.Name}
	m.absorb(cand, s)
	s.Phase = determineNext(s)
	return m.prompt(ctx, s), nil
}

func (m *Machine) handleDateSelection(ctx context.Context, text string, s *models.Session) (string, error) {
	if s.Collected.Location == nil {
		s.Phase = determineNext(s)
		return m.prompt(ctx, s), nil
	}
	if text == "" {
		return summarize(s) + promptFor(models.PhaseDateSelection, s.Language), nil
	}
	cat, err := m.fetchCatalog(ctx, s)
	if err != nil {
		return "", err
	}
	cand := extraction.Extract(text, s, cat)
	if cand.Date == "" {
		return summarize(s) + promptFor(models.PhaseDateSelection, s.Language), nil
	}
	s.Collected.Date = cand.Date
	m.absorb(cand, s)

	// The date is only committed if at least one staff member can perform
	// every selected service on it.
	validation, err := m.validate(ctx, s, "")
	if err != nil {
		s.Collected.Date = ""
		return "", err
	}
	if hasConflict(validation, models.ConflictStaffUnavailable) {
		s.Collected.Date = ""
		s.Collected.Time = ""
		return renderConflicts(validation, s.Language), nil
	}

	s.Phase = determineNext(s)
	return m.prompt(ctx, s), nil
}

func (m *Machine) handleTimeSelection(ctx context.Context, text string, s *models.Session) (string, error) {
	if s.Collected.Date == "" {
		s.Phase = determineNext(s)
		return m.prompt(ctx, s), nil
	}
	if text == "" {
		return summarize(s) + promptFor(models.PhaseTimeSelection, s.Language), nil
	}
	cat, err := m.fetchCatalog(ctx, s)
	if err != nil {
		return "", err
	}
	cand := extraction.Extract(text, s, cat)
	if cand.Time == "" {
		return summarize(s) + promptFor(models.PhaseTimeSelection, s.Language), nil
	}
	s.Collected.Time = cand.Time

	validation, err := m.validate(ctx, s, "")
	if err != nil {
		s.Collected.Time = ""
		return "", err
	}
	if !validation.IsValid {
		m.regress(validation, s)
		return renderConflicts(validation, s.Language), nil
	}

	m.absorb(cand, s)
	s.Phase = determineNext(s)
	return m.prompt(ctx, s), nil
}

func (m *Machine) handleStaffSelection(ctx context.Context, text string, s *models.Session) (string, error) {
	if next := determineNext(s); next != models.PhaseStaffSelection &&
		phaseIndex(next) < phaseIndex(models.PhaseStaffSelection) {
		s.Phase = next
		return m.prompt(ctx, s), nil
	}
	staff, err := m.Catalog.ListStaffForService(ctx,
		s.Collected.Services[0].ServiceID, s.Collected.Location.ID, s.Collected.Date)
	if err != nil {
		return "", err
	}
	if text == "" {
		return summarize(s) + promptFor(models.PhaseStaffSelection, s.Language) + "\n" + staffList(staff), nil
	}

	if wantsAnyStaff(text) {
		if err := m.autoAssignStaff(ctx, s); err != nil {
			return "", err
		}
		s.Phase = determineNext(s)
		return m.prompt(ctx, s), nil
	}

	chosen := matchStaffName(text, staff)
	if chosen == nil {
		return summarize(s) + promptFor(models.PhaseStaffSelection, s.Language) + "\n" + staffList(staff), nil
	}

	validation, err := m.validate(ctx, s, chosen.ID)
	if err != nil {
		return "", err
	}
	if !validation.IsValid {
		m.regress(validation, s)
		return renderConflicts(validation, s.Language), nil
	}

	if err := m.assignPreferredStaff(ctx, s, chosen); err != nil {
		return "", err
	}
	s.Phase = determineNext(s)
	return m.prompt(ctx, s), nil
}

func (m *Machine) handleCustomerInfo(ctx context.Context, text string, s *models.Session) (string, error) {
	if text == "" {
		return summarize(s) + promptFor(models.PhaseCustomerInfo, s.Language), nil
	}
	cat, err := m.fetchCatalog(ctx, s)
	if err != nil {
		return "", err
	}
	cand := extraction.Extract(text, s, cat)
	m.absorb(cand, s)

	missing := missingContact(s)
	if len(missing) > 0 {
		if s.Language == models.LanguageArabic {
			return "ما زلت بحاجة إلى: " + strings.Join(missing, "، "), nil
		}
		return "I still need your " + strings.Join(missing, " and ") + ".", nil
	}
	s.Phase = determineNext(s)
	return m.prompt(ctx, s), nil
}

func (m *Machine) handlePaymentMethod(ctx context.Context, text string, s *models.Session) (string, error) {
	methods, err := m.Catalog.ListPaymentMethods(ctx)
	if err != nil {
		return "", err
	}
	if text == "" {
		return summarize(s) + promptFor(models.PhasePaymentMethod, s.Language) + "\n" + paymentList(methods), nil
	}
	chosen := matchPaymentMethod(text, methods)
	if chosen == nil {
		return summarize(s) + promptFor(models.PhasePaymentMethod, s.Language) + "\n" + paymentList(methods), nil
	}
	s.Collected.PaymentMethod = &models.SelectedPayment{ID: chosen.ID, Name: chosen.Name, Online: chosen.Online}
	s.Phase = models.PhaseBookingValidation
	return m.runFinalValidation(ctx, s)
}

func (m *Machine) handleBookingValidation(ctx context.Context, text string, s *models.Session) (string, error) {
	if text == "" {
		return bookingSummary(s) + "\n" + promptFor(models.PhaseConfirmation, s.Language), nil
	}
	return m.runFinalValidation(ctx, s)
}

// runFinalValidation is the last scheduling check before the customer is
// asked to confirm.
func (m *Machine) runFinalValidation(ctx context.Context, s *models.Session) (string, error) {
	if next := determineNext(s); next != models.PhaseBookingValidation {
		s.Phase = next
		return m.prompt(ctx, s), nil
	}
	preferred := ""
	if st := s.StaffFor(s.Collected.Services[0].ServiceID); st != nil {
		preferred = st.StaffID
	}
	validation, err := m.validate(ctx, s, preferred)
	if err != nil {
		return "", err
	}
	if !validation.IsValid {
		m.regress(validation, s)
		return renderConflicts(validation, s.Language), nil
	}
	s.Phase = models.PhaseConfirmation
	return bookingSummary(s) + "\n" + promptFor(models.PhaseConfirmation, s.Language), nil
}

func (m *Machine) handleConfirmation(ctx context.Context, text string, s *models.Session) (string, error) {
	if text == "" {
		return bookingSummary(s) + "\n" + promptFor(models.PhaseConfirmation, s.Language), nil
	}
	if isNegative(text) {
		s.Phase = models.PhaseServiceReview
		return summarize(s) + promptFor(models.PhaseServiceReview, s.Language), nil
	}
	if !isAffirmative(text) {
		return bookingSummary(s) + "\n" + promptFor(models.PhaseConfirmation, s.Language), nil
	}

	s.Phase = models.PhasePaymentProcessing
	result, paymentLink, err := m.Finalizer.Finalize(ctx, s)
	if err != nil {
		// The customer keeps their data and can retry from here.
		s.Phase = models.PhaseBookingValidation
		return "", err
	}
	s.Collected.OrderID = result.OrderID
	s.Collected.PaymentLink = paymentLink
	s.Collected.ValidationErrors = nil
	s.Phase = models.PhaseCompleted

	reply := promptFor(models.PhaseCompleted, s.Language)
	if s.Language == models.LanguageArabic {
		reply = fmt.Sprintf("رقم حجزك: %s\n%s", result.OrderID, reply)
	} else {
		reply = fmt.Sprintf("Your booking number is %s.\n%s", result.OrderID, reply)
	}
	if paymentLink != "" {
		reply += "\n" + paymentLink
	}
	return reply, nil
}

func (m *Machine) handlePaymentProcessing(ctx context.Context, text string, s *models.Session) (string, error) {
	if s.Collected.OrderID != "" {
		if text != "" {
			s.Phase = models.PhaseCompleted
		}
		reply := promptFor(models.PhaseCompleted, s.Language)
		if s.Collected.PaymentLink != "" {
			reply += "\n" + s.Collected.PaymentLink
		}
		return reply, nil
	}
	if text == "" {
		return promptFor(models.PhasePaymentProcessing, s.Language), nil
	}
	s.Phase = models.PhaseBookingValidation
	return m.prompt(ctx, s), nil
}

func (m *Machine) handleCompleted(ctx context.Context, text string, s *models.Session) (string, error) {
	if text == "" {
		reply := promptFor(models.PhaseCompleted, s.Language)
		if s.Collected.PaymentLink != "" {
			reply += "\n" + s.Collected.PaymentLink
		}
		return reply, nil
	}
	// A completed session is terminal; the next message starts over.
	lang := s.Language
	*s = *models.NewSession(s.CustomerID)
	s.Language = lang
	return m.handleGreeting(ctx, text, s)
}

// ---- shared helpers ----

// fetchCatalog loads the reference data the extractor matches against,
// scoped to the selected location once one is committed.
func (m *Machine) fetchCatalog(ctx context.Context, s *models.Session) (extraction.Catalog, error) {
	locationID := ""
	if s.Collected.Location != nil {
		locationID = s.Collected.Location.ID
	}
	services, err := m.Catalog.ListServices(ctx, locationID)
	if err != nil {
		return extraction.Catalog{}, err
	}
	locations, err := m.Catalog.ListLocations(ctx)
	if err != nil {
		return extraction.Catalog{}, err
	}
	return extraction.Catalog{Services: services, Locations: locations}, nil
}

// validate runs the scheduling validator for the session's current
// selections and records the outcome on the session.
func (m *Machine) validate(ctx context.Context, s *models.Session, preferredStaffID string) (*models.SchedulingValidation, error) {
	loc, err := m.resolveLocation(ctx, s)
	if err != nil {
		return nil, err
	}
	validation, err := m.Validator.Validate(ctx, scheduling.Request{
		Services:         s.Collected.Services,
		Location:         loc,
		Date:             s.Collected.Date,
		Time:             s.Collected.Time,
		PreferredStaffID: preferredStaffID,
	})
	if err != nil {
		return nil, err
	}
	s.Collected.ValidationErrors = nil
	for _, c := range validation.Conflicts {
		s.Collected.ValidationErrors = append(s.Collected.ValidationErrors, c.Message)
	}
	return validation, nil
}

func (m *Machine) resolveLocation(ctx context.Context, s *models.Session) (models.Location, error) {
	locations, err := m.Catalog.ListLocations(ctx)
	if err != nil {
		return models.Location{}, err
	}
	for _, loc := range locations {
		if s.Collected.Location != nil && loc.ID == s.Collected.Location.ID {
			return loc, nil
		}
	}
	return models.Location{}, fmt.Errorf("selected location no longer exists")
}

// regress moves the session back to the phase that owns the conflicting
// field and clears that field so it can be re-collected.
func (m *Machine) regress(v *models.SchedulingValidation, s *models.Session) {
	if hasConflict(v, models.ConflictStaffUnavailable) {
		for _, c := range v.Conflicts {
			if c.Type == models.ConflictStaffUnavailable && c.Suggested != nil && c.Suggested.Date != "" {
				s.Collected.Date = ""
				s.Collected.Time = ""
				s.Collected.Staff = nil
				s.Phase = models.PhaseDateSelection
				return
			}
		}
		s.Collected.Staff = nil
		s.Phase = models.PhaseStaffSelection
		return
	}
	s.Collected.Time = ""
	s.Phase = models.PhaseTimeSelection
}

// autoAssignStaff gives every service its first qualified staff member.
func (m *Machine) autoAssignStaff(ctx context.Context, s *models.Session) error {
	for _, svc := range s.Collected.Services {
		staff, err := m.Catalog.ListStaffForService(ctx, svc.ServiceID, s.Collected.Location.ID, s.Collected.Date)
		if err != nil {
			return err
		}
		if len(staff) == 0 {
			return fmt.Errorf("no staff available for %s", svc.Name)
		}
		s.AssignStaff(models.SelectedStaff{
			StaffID:           staff[0].ID,
			Name:              staff[0].Name,
			AssignedServiceID: svc.ServiceID,
		})
	}
	return nil
}

// assignPreferredStaff assigns the chosen staff to every service they are
// qualified for and the first qualified alternative elsewhere.
func (m *Machine) assignPreferredStaff(ctx context.Context, s *models.Session, chosen *models.Staff) error {
	for _, svc := range s.Collected.Services {
		staff, err := m.Catalog.ListStaffForService(ctx, svc.ServiceID, s.Collected.Location.ID, s.Collected.Date)
		if err != nil {
			return err
		}
		assigned := models.SelectedStaff{AssignedServiceID: svc.ServiceID}
		if q := findQualified(staff, chosen.ID); q != nil {
			assigned.StaffID, assigned.Name = q.ID, q.Name
		} else if len(staff) > 0 {
			assigned.StaffID, assigned.Name = staff[0].ID, staff[0].Name
		} else {
			return fmt.Errorf("no staff available for %s", svc.Name)
		}
		s.AssignStaff(assigned)
	}
	return nil
}

func findQualified(staff []models.Staff, id string) *models.Staff {
	for i := range staff {
		if staff[i].ID == id {
			return &staff[i]
		}
	}
	return nil
}

func matchStaffName(text string, staff []models.Staff) *models.Staff {
	lower := strings.ToLower(text)
	for i := range staff {
		if strings.Contains(lower, strings.ToLower(staff[i].Name)) {
			return &staff[i]
		}
	}
	// First-name match.
	for i := range staff {
		first := strings.ToLower(strings.Fields(staff[i].Name)[0])
		if strings.Contains(lower, first) {
			return &staff[i]
		}
	}
	return nil
}

var paymentKeywords = map[string][]string{
	"card":   {"card", "visa", "mastercard", "mada", "بطاقة", "فيزا", "مدى"},
	"cash":   {"cash", "كاش", "نقد", "نقدا", "نقداً"},
	"online": {"online", "link", "pay later", "أونلاين", "اونلاين", "رابط"},
}

func matchPaymentMethod(text string, methods []models.PaymentMethod) *models.PaymentMethod {
	lower := strings.ToLower(text)
	for i := range methods {
		if strings.Contains(lower, strings.ToLower(methods[i].Name)) {
			return &methods[i]
		}
	}
	for i := range methods {
		name := strings.ToLower(methods[i].Name)
		for key, words := range paymentKeywords {
			if !strings.Contains(name, key) {
				continue
			}
			for _, w := range words {
				if strings.Contains(lower, w) {
					return &methods[i]
				}
			}
		}
	}
	return nil
}

func missingContact(s *models.Session) []string {
	var missing []string
	if s.Collected.Customer.Name == "" {
		if s.Language == models.LanguageArabic {
			missing = append(missing, "الاسم")
		} else {
			missing = append(missing, "name")
		}
	}
	if s.Collected.Customer.Email == "" {
		if s.Language == models.LanguageArabic {
			missing = append(missing, "البريد الإلكتروني")
		} else {
			missing = append(missing, "email")
		}
	}
	return missing
}

func hasConflict(v *models.SchedulingValidation, t models.ConflictType) bool {
	for _, c := range v.Conflicts {
		if c.Type == t {
			return true
		}
	}
	return false
}

func phaseIndex(p models.Phase) int {
	for i, ph := range models.AllPhases {
		if ph == p {
			return i
		}
	}
	return 0
}

func locationList(locations []models.Location) string {
	names := make([]string, 0, len(locations))
	for _, l := range locations {
		names = append(names, l.Name)
	}
	return strings.Join(names, " / ")
}

func staffList(staff []models.Staff) string {
	names := make([]string, 0, len(staff))
	for _, s := range staff {
		names = append(names, s.Name)
	}
	return strings.Join(names, " / ")
}

func paymentList(methods []models.PaymentMethod) string {
	names := make([]string, 0, len(methods))
	for _, m := range methods {
		names = append(names, m.Name)
	}
	return strings.Join(names, " / ")
}

var (
	affirmativeWords = []string{"yes", "yeah", "yep", "confirm", "sure", "ok", "okay", "تم", "نعم", "اي", "أكد", "اكد", "موافق", "تمام", "أجل"}
	negativeWords    = []string{"no", "nope", "cancel", "لا", "إلغاء", "الغاء", "كلا"}
	moreWords        = []string{"add", "another", "more", "also", "أضف", "اضف", "كمان", "أيضا", "ايضا"}
	proceedWords     = []string{"continue", "proceed", "done", "that's all", "thats all", "next", "checkout", "نكمل", "كمل", "خلص", "متابعة", "بس"}
	anyStaffWords    = []string{"anyone", "any ", "whoever", "don't care", "dont care", "skip", "أي أحد", "اي احد", "أي احد", "لا يهم", "مين ما كان"}
)

func containsAnyWord(text string, words []string) bool {
	lower := " " + strings.ToLower(strings.TrimSpace(text)) + " "
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func isAffirmative(text string) bool { return containsAnyWord(text, affirmativeWords) }
func isNegative(text string) bool    { return containsAnyWord(text, negativeWords) }
func wantsMoreServices(text string) bool {
	return containsAnyWord(text, moreWords)
}
func wantsToProceed(text string) bool {
	return containsAnyWord(text, proceedWords)
}
func wantsAnyStaff(text string) bool { return containsAnyWord(text, anyStaffWords) }
