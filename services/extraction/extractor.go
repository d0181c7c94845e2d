package extraction

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"glowdesk/models"
	"glowdesk/services/scheduling"
)

// Catalog is the reference data candidates are matched against.
type Catalog struct {
	Services  []models.Service
	Locations []models.Location
}

// ServiceCandidate is a scored catalog match.
type ServiceCandidate struct {
	Service models.Service
	Score   int
}

// Candidates are newly recognized values extracted from one message. They
// are proposals only: callers must route them through validation before
// committing anything to the session.
type Candidates struct {
	Services []ServiceCandidate
	Location *models.Location
	Date     string // YYYY-MM-DD
	Time     string // HH:MM, 24h
	Name     string
	Email    string
}

// Matching score ladder for services. Candidates below the keyword tier
// are discarded; ties keep catalog order; at most three are returned.
const (
	scoreExact        = 100
	scoreNameContains = 90
	scoreTextContains = 80
	scoreKeyword      = 70
	maxServiceMatches = 3
)

// categoryKeywords maps free-text keywords (English and Arabic) to
// catalog categories for the shared-domain-keyword tier.
var categoryKeywords = map[string]string{
	"nail":     "Nails",
	"nails":    "Nails",
	"manicure": "Nails",
	"pedicure": "Nails",
	"أظافر":    "Nails",
	"مناكير":   "Nails",
	"hair":     "Hair",
	"haircut":  "Hair",
	"blowout":  "Hair",
	"شعر":      "Hair",
	"قص":       "Hair",
	"facial":   "Skin",
	"skin":     "Skin",
	"بشرة":     "Skin",
	"تنظيف":    "Skin",
	"massage":  "Massage",
	"مساج":     "Massage",
	"تدليك":    "Massage",
	"makeup":   "Makeup",
	"مكياج":    "Makeup",
	"lashes":   "Lashes",
	"رموش":     "Lashes",
	"wax":      "Waxing",
	"waxing":   "Waxing",
	"شمع":      "Waxing",
}

var (
	emailRE   = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	isoDateRE = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dmDateRE  = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)
	// A time mention needs either minutes or a meridiem so bare numbers in
	// dates and quantities are not mistaken for times.
	timeRE = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*(am|pm|صباحا|صباحاً|مساء|مساءً)?|\b(\d{1,2})\s*(am|pm|صباحا|صباحاً|مساء|مساءً)`)
	nameRE = regexp.MustCompile(`(?i)(?:my name is|i am|i'm|this is)\s+([A-Za-z]+(?:\s+[A-Za-z]+)?)|(?:اسمي|انا|أنا)\s+([\p{Arabic}]+(?:\s+[\p{Arabic}]+)?)`)
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"الأحد":     time.Sunday,
	"الاحد":     time.Sunday,
	"الإثنين":   time.Monday,
	"الاثنين":   time.Monday,
	"الثلاثاء":  time.Tuesday,
	"الأربعاء":  time.Wednesday,
	"الاربعاء":  time.Wednesday,
	"الخميس":    time.Thursday,
	"الجمعة":    time.Friday,
	"السبت":     time.Saturday,
}

// Extract scans one raw message for fields the session has not committed
// yet. It reads the session but never writes to it, performs no I/O, and
// is deterministic for a fixed catalog and clock day.
func Extract(text string, session *models.Session, catalog Catalog) Candidates {
	return ExtractAt(text, session, catalog, time.Now())
}

// ExtractAt is Extract with an injected reference time for relative dates.
func ExtractAt(text string, session *models.Session, catalog Catalog, now time.Time) Candidates {
	var c Candidates
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return c
	}

	c.Services = MatchServices(lower, catalog.Services)

	if session.Collected.Location == nil {
		c.Location = matchLocation(lower, catalog.Locations)
	}
	if session.Collected.Date == "" {
		c.Date = extractDate(lower, now)
	}
	if session.Collected.Time == "" {
		c.Time = extractTime(text)
	}
	if session.Collected.Customer.Name == "" {
		c.Name = extractName(text)
	}
	if session.Collected.Customer.Email == "" {
		c.Email = emailRE.FindString(text)
	}
	return c
}

// MatchServices scores every catalog service against the message and
// returns the top candidates, highest score first, catalog order breaking
// ties.
func MatchServices(lowerText string, services []models.Service) []ServiceCandidate {
	var matches []ServiceCandidate
	for _, svc := range services {
		score := scoreService(lowerText, svc)
		if score < scoreKeyword {
			continue
		}
		matches = append(matches, ServiceCandidate{Service: svc, Score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > maxServiceMatches {
		matches = matches[:maxServiceMatches]
	}
	return matches
}

func scoreService(lowerText string, svc models.Service) int {
	name := strings.ToLower(svc.Name)
	switch {
	case lowerText == name:
		return scoreExact
	case len(lowerText) >= 3 && strings.Contains(name, lowerText):
		return scoreNameContains
	case strings.Contains(lowerText, name):
		return scoreTextContains
	}
	for keyword, category := range categoryKeywords {
		if svc.Category == category && containsWord(lowerText, keyword) {
			return scoreKeyword
		}
	}
	return 0
}

func matchLocation(lowerText string, locations []models.Location) *models.Location {
	for i, loc := range locations {
		name := strings.ToLower(loc.Name)
		if lowerText == name || strings.Contains(lowerText, name) {
			return &locations[i]
		}
	}
	// Partial match: any word of the branch name, e.g. "downtown" for
	// "Downtown Branch".
	for i, loc := range locations {
		for _, word := range strings.Fields(strings.ToLower(loc.Name)) {
			if len(word) >= 4 && containsWord(lowerText, word) {
				return &locations[i]
			}
		}
	}
	return nil
}

func extractDate(lowerText string, now time.Time) string {
	if m := isoDateRE.FindString(lowerText); m != "" {
		if _, err := time.Parse("2006-01-02", m); err == nil {
			return m
		}
	}
	if m := dmDateRE.FindStringSubmatch(lowerText); m != nil {
		if d := parseDayMonth(m, now); d != "" {
			return d
		}
	}
	switch {
	case containsAny(lowerText, "today", "tonight", "اليوم"):
		return now.Format("2006-01-02")
	case containsAny(lowerText, "tomorrow", "tmrw", "غدا", "غداً", "بكرة", "بكره"):
		return now.AddDate(0, 0, 1).Format("2006-01-02")
	}
	for name, wd := range weekdayNames {
		if containsWord(lowerText, name) {
			return nextWeekday(now, wd).Format("2006-01-02")
		}
	}
	return ""
}

func parseDayMonth(m []string, now time.Time) string {
	day := atoi(m[1])
	month := atoi(m[2])
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return ""
	}
	year := now.Year()
	if m[3] != "" {
		year = atoi(m[3])
		if year < 100 {
			year += 2000
		}
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
	if m[3] == "" && d.Before(now.Truncate(24*time.Hour)) {
		d = d.AddDate(1, 0, 0)
	}
	return d.Format("2006-01-02")
}

func extractTime(text string) string {
	m := timeRE.FindString(text)
	if m == "" {
		return ""
	}
	mins, err := scheduling.ParseClockTime(m)
	if err != nil {
		return ""
	}
	return scheduling.MinutesToClock(mins)
}

func extractName(text string) string {
	m := nameRE.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(m[2])
}

func nextWeekday(now time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return now.AddDate(0, 0, days)
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	idx := strings.Index(text, word)
	if idx < 0 {
		return false
	}
	before := idx == 0 || !isLetter(rune(text[idx-1]))
	afterIdx := idx + len(word)
	after := afterIdx >= len(text) || !isLetter(rune(text[afterIdx]))
	return before && after
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}
