package conversation

import (
	"fmt"
	"strings"

	"glowdesk/models"
)

// Canned prompts per phase and language. These are the deterministic
// fallback wording; the reply generator may rephrase them but every error
// path and test relies on these being stable.
var phasePrompts = map[models.Phase]map[models.Language]string{
	models.PhaseGreeting: {
		models.LanguageEnglish: "Welcome! I can help you book an appointment. What service would you like?",
		models.LanguageArabic:  "أهلاً بك! أستطيع مساعدتك في حجز موعد. ما الخدمة التي تودين حجزها؟",
	},
	models.PhaseServiceSelection: {
		models.LanguageEnglish: "Which service would you like to book?",
		models.LanguageArabic:  "ما الخدمة التي تودين حجزها؟",
	},
	models.PhaseServiceReview: {
		models.LanguageEnglish: "Would you like to add another service, or shall we continue?",
		models.LanguageArabic:  "هل تودين إضافة خدمة أخرى أم نكمل الحجز؟",
	},
	models.PhaseLocationSelection: {
		models.LanguageEnglish: "Which branch works best for you?",
		models.LanguageArabic:  "أي فرع يناسبك؟",
	},
	models.PhaseDateSelection: {
		models.LanguageEnglish: "What date would you like to come in?",
		models.LanguageArabic:  "في أي تاريخ تودين الحضور؟",
	},
	models.PhaseTimeSelection: {
		models.LanguageEnglish: "What time suits you?",
		models.LanguageArabic:  "ما الوقت الذي يناسبك؟",
	},
	models.PhaseStaffSelection: {
		models.LanguageEnglish: "Do you have a preferred specialist, or shall I pick for you? You can say \"anyone\".",
		models.LanguageArabic:  "هل لديك أخصائية مفضلة أم أختار لك؟ يمكنك قول \"أي أحد\".",
	},
	models.PhaseCustomerInfo: {
		models.LanguageEnglish: "Almost done! Could you share your name and email?",
		models.LanguageArabic:  "اقتربنا من النهاية! ما اسمك وبريدك الإلكتروني؟",
	},
	models.PhasePaymentMethod: {
		models.LanguageEnglish: "How would you like to pay?",
		models.LanguageArabic:  "كيف تودين الدفع؟",
	},
	models.PhaseBookingValidation: {
		models.LanguageEnglish: "Let me check that everything is available...",
		models.LanguageArabic:  "دعيني أتأكد من توفر كل شيء...",
	},
	models.PhaseConfirmation: {
		models.LanguageEnglish: "Shall I confirm this booking? (yes/no)",
		models.LanguageArabic:  "هل أؤكد هذا الحجز؟ (نعم/لا)",
	},
	models.PhasePaymentProcessing: {
		models.LanguageEnglish: "Your booking is confirmed. I'm preparing your payment details...",
		models.LanguageArabic:  "تم تأكيد حجزك. جاري تجهيز تفاصيل الدفع...",
	},
	models.PhaseCompleted: {
		models.LanguageEnglish: "Your booking is all set. We look forward to seeing you!",
		models.LanguageArabic:  "تم حجزك بنجاح. نتطلع لرؤيتك!",
	},
}

var errorPrompts = map[string]map[models.Language]string{
	"backend_unavailable": {
		models.LanguageEnglish: "Sorry, I couldn't reach our booking system just now. Please try again in a moment.",
		models.LanguageArabic:  "عذراً، لم أستطع الوصول إلى نظام الحجز الآن. حاولي مرة أخرى بعد قليل.",
	},
	"finalization_failed": {
		models.LanguageEnglish: "Sorry, the booking could not be completed. You can adjust the details and try again.",
		models.LanguageArabic:  "عذراً، لم يكتمل الحجز. يمكنك تعديل التفاصيل والمحاولة مرة أخرى.",
	},
	"ambiguous_service": {
		models.LanguageEnglish: "I found a few services that could match. Which one did you mean?",
		models.LanguageArabic:  "وجدت عدة خدمات مشابهة. أي واحدة تقصدين؟",
	},
}

func promptFor(phase models.Phase, lang models.Language) string {
	byLang, ok := phasePrompts[phase]
	if !ok {
		byLang = phasePrompts[models.PhaseGreeting]
	}
	if p, ok := byLang[lang]; ok {
		return p
	}
	return byLang[models.LanguageEnglish]
}

func errorPrompt(key string, lang models.Language) string {
	byLang := errorPrompts[key]
	if p, ok := byLang[lang]; ok {
		return p
	}
	return byLang[models.LanguageEnglish]
}

// summarize restates every committed selection so a re-prompt never
// re-asks what the customer already answered.
func summarize(s *models.Session) string {
	var parts []string
	if len(s.Collected.Services) > 0 {
		names := make([]string, 0, len(s.Collected.Services))
		for _, svc := range s.Collected.Services {
			if svc.Quantity > 1 {
				names = append(names, fmt.Sprintf("%s x%d", svc.Name, svc.Quantity))
			} else {
				names = append(names, svc.Name)
			}
		}
		parts = append(parts, strings.Join(names, ", "))
	}
	if s.Collected.Location != nil {
		parts = append(parts, s.Collected.Location.Name)
	}
	if s.Collected.Date != "" {
		parts = append(parts, s.Collected.Date)
	}
	if s.Collected.Time != "" {
		parts = append(parts, s.Collected.Time)
	}
	if len(parts) == 0 {
		return ""
	}
	if s.Language == models.LanguageArabic {
		return "حجزك حتى الآن: " + strings.Join(parts, "، ") + "\n"
	}
	return "So far: " + strings.Join(parts, ", ") + "\n"
}

// renderConflicts turns a failed validation into a customer-facing
// message: every conflict, each suggestion, then the ranked alternatives.
func renderConflicts(v *models.SchedulingValidation, lang models.Language) string {
	var sb strings.Builder
	if lang == models.LanguageArabic {
		sb.WriteString("للأسف لا يمكن إتمام الحجز كما طلبت:\n")
	} else {
		sb.WriteString("Unfortunately that doesn't quite work:\n")
	}
	for _, c := range v.Conflicts {
		sb.WriteString("- " + c.Message)
		if c.Suggested != nil {
			var hints []string
			if c.Suggested.Time != "" {
				hints = append(hints, c.Suggested.Time)
			}
			if c.Suggested.Date != "" {
				hints = append(hints, c.Suggested.Date)
			}
			if c.Suggested.StaffName != "" {
				hints = append(hints, c.Suggested.StaffName)
			}
			if len(hints) > 0 {
				if lang == models.LanguageArabic {
					sb.WriteString(" (اقتراح: " + strings.Join(hints, ", ") + ")")
				} else {
					sb.WriteString(" (suggestion: " + strings.Join(hints, ", ") + ")")
				}
			}
		}
		sb.WriteString("\n")
	}
	rec := v.Recommendations
	if len(rec.AlternativeTimes) > 0 {
		if lang == models.LanguageArabic {
			sb.WriteString("أوقات متاحة: " + strings.Join(rec.AlternativeTimes, ", ") + "\n")
		} else {
			sb.WriteString("Available times: " + strings.Join(rec.AlternativeTimes, ", ") + "\n")
		}
	}
	if len(rec.AlternativeStaff) > 0 {
		if lang == models.LanguageArabic {
			sb.WriteString("أخصائيات متاحات: " + strings.Join(rec.AlternativeStaff, ", ") + "\n")
		} else {
			sb.WriteString("Available specialists: " + strings.Join(rec.AlternativeStaff, ", ") + "\n")
		}
	}
	if len(rec.AlternativeDates) > 0 {
		if lang == models.LanguageArabic {
			sb.WriteString("أيام بديلة: " + strings.Join(rec.AlternativeDates, ", ") + "\n")
		} else {
			sb.WriteString("Alternative days: " + strings.Join(rec.AlternativeDates, ", ") + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// bookingSummary renders the full review shown before confirmation.
func bookingSummary(s *models.Session) string {
	var sb strings.Builder
	if s.Language == models.LanguageArabic {
		sb.WriteString("تفاصيل حجزك:\n")
	} else {
		sb.WriteString("Here is your booking:\n")
	}
	total := 0.0
	for _, svc := range s.Collected.Services {
		q := svc.Quantity
		if q <= 0 {
			q = 1
		}
		line := fmt.Sprintf("- %s x%d (%.2f)\n", svc.Name, q, svc.UnitPrice*float64(q))
		sb.WriteString(line)
		total += svc.UnitPrice * float64(q)
	}
	if s.Collected.Location != nil {
		sb.WriteString("- " + s.Collected.Location.Name + "\n")
	}
	sb.WriteString(fmt.Sprintf("- %s %s\n", s.Collected.Date, s.Collected.Time))
	for _, st := range s.Collected.Staff {
		sb.WriteString("- " + st.Name + "\n")
	}
	if s.Collected.PaymentMethod != nil {
		sb.WriteString("- " + s.Collected.PaymentMethod.Name + "\n")
	}
	if s.Language == models.LanguageArabic {
		sb.WriteString(fmt.Sprintf("الإجمالي: %.2f", total))
	} else {
		sb.WriteString(fmt.Sprintf("Total: %.2f", total))
	}
	return sb.String()
}
