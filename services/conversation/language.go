package conversation

import (
	"unicode"

	"glowdesk/models"
)

// DetectLanguage applies the Arabic-script heuristic: any Arabic rune in
// the message marks it Arabic, otherwise English.
func DetectLanguage(text string) models.Language {
	for _, r := range text {
		if unicode.Is(unicode.Arabic, r) {
			return models.LanguageArabic
		}
	}
	return models.LanguageEnglish
}

// languageSticky reports whether the session language is locked in. The
// language follows each inbound message early in the conversation and
// becomes sticky once a service and the customer's name are collected.
func languageSticky(s *models.Session) bool {
	return len(s.Collected.Services) > 0 && s.Collected.Customer.Name != ""
}
