package extraction

import (
	"testing"
	"time"

	"glowdesk/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCatalog = Catalog{
	Services: []models.Service{
		{ID: "svc-1", Name: "Gel Manicure", Category: "Nails", Price: 120, DurationMinutes: 45},
		{ID: "svc-2", Name: "Classic Manicure", Category: "Nails", Price: 80, DurationMinutes: 30},
		{ID: "svc-3", Name: "Haircut", Category: "Hair", Price: 90, DurationMinutes: 30},
		{ID: "svc-4", Name: "Pedicure", Category: "Nails", Price: 100, DurationMinutes: 40},
		{ID: "svc-5", Name: "Facial", Category: "Skin", Price: 150, DurationMinutes: 60},
	},
	Locations: []models.Location{
		{ID: "loc-1", Name: "Downtown Branch"},
		{ID: "loc-2", Name: "Mall Branch"},
	},
}

// A fixed reference day keeps relative dates deterministic. 2026-08-25 is
// a Tuesday.
var refNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func extract(t *testing.T, text string) Candidates {
	t.Helper()
	return ExtractAt(text, models.NewSession("cust-1"), testCatalog, refNow)
}

func TestMatchServicesScoreLadder(t *testing.T) {
	// Exact name.
	got := MatchServices("gel manicure", testCatalog.Services)
	require.NotEmpty(t, got)
	assert.Equal(t, "svc-1", got[0].Service.ID)
	assert.Equal(t, 100, got[0].Score)

	// Message is a fragment of the name.
	got = MatchServices("haircu", testCatalog.Services)
	require.NotEmpty(t, got)
	assert.Equal(t, "svc-3", got[0].Service.ID)
	assert.Equal(t, 90, got[0].Score)

	// Name appears inside a longer message.
	got = MatchServices("i would like a haircut please", testCatalog.Services)
	require.NotEmpty(t, got)
	assert.Equal(t, "svc-3", got[0].Service.ID)
	assert.Equal(t, 80, got[0].Score)

	// Shared domain keyword only.
	got = MatchServices("something for my nails", testCatalog.Services)
	require.NotEmpty(t, got)
	assert.Equal(t, 70, got[0].Score)

	// No relation at all.
	got = MatchServices("what is the weather", testCatalog.Services)
	assert.Empty(t, got)
}

func TestMatchServicesCapsAtThree(t *testing.T) {
	// "nails" keyword hits three catalog services in the Nails category.
	got := MatchServices("nails", testCatalog.Services)
	assert.Len(t, got, 3)
	// Catalog order breaks the tie.
	assert.Equal(t, "svc-1", got[0].Service.ID)
	assert.Equal(t, "svc-2", got[1].Service.ID)
	assert.Equal(t, "svc-4", got[2].Service.ID)
}

func TestMatchServicesArabicKeyword(t *testing.T) {
	got := MatchServices("أريد مناكير", testCatalog.Services)
	require.NotEmpty(t, got)
	assert.Equal(t, "Nails", got[0].Service.Category)
}

func TestExtractDates(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"book me for 2026-09-01 please", "2026-09-01"},
		{"tomorrow works", "2026-08-26"},
		{"غدا", "2026-08-26"},
		{"today if possible", "2026-08-25"},
		{"on friday", "2026-08-28"},
		{"الجمعة", "2026-08-28"},
		// Next Tuesday, not the reference day itself.
		{"tuesday", "2026-09-01"},
		{"on 3/9", "2026-09-03"},
		{"on 3/9/2027", "2027-09-03"},
	}
	for _, tc := range cases {
		got := extract(t, tc.text)
		assert.Equal(t, tc.want, got.Date, tc.text)
	}
}

func TestExtractTimes(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"at 2pm", "14:00"},
		{"around 2:30 pm", "14:30"},
		{"at 14:00", "14:00"},
		{"at 9:15", "09:15"},
		{"الساعة 5 مساء", "17:00"},
		// Bare numbers are not times.
		{"2 manicures", ""},
	}
	for _, tc := range cases {
		got := extract(t, tc.text)
		assert.Equal(t, tc.want, got.Time, tc.text)
	}
}

func TestExtractNameAndEmail(t *testing.T) {
	got := extract(t, "my name is Jane Doe, email jane.doe@example.com")
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "jane.doe@example.com", got.Email)

	got = extract(t, "i'm Omar")
	assert.Equal(t, "Omar", got.Name)

	got = extract(t, "اسمي سارة")
	assert.Equal(t, "سارة", got.Name)
}

func TestExtractLocation(t *testing.T) {
	got := extract(t, "the downtown branch works")
	require.NotNil(t, got.Location)
	assert.Equal(t, "loc-1", got.Location.ID)

	// A single word of the branch name is enough.
	got = extract(t, "downtown please")
	require.NotNil(t, got.Location)
	assert.Equal(t, "loc-1", got.Location.ID)

	got = extract(t, "somewhere nice")
	assert.Nil(t, got.Location)
}

func TestExtractSkipsCommittedFields(t *testing.T) {
	s := models.NewSession("cust-1")
	s.Collected.Location = &models.SelectedLocation{ID: "loc-1", Name: "Downtown Branch"}
	s.Collected.Date = "2026-09-01"
	s.Collected.Time = "14:00"
	s.Collected.Customer.Name = "Jane"
	s.Collected.Customer.Email = "jane@example.com"

	got := ExtractAt("tomorrow at 2pm, downtown, my name is Omar, omar@example.com", s, testCatalog, refNow)
	assert.Nil(t, got.Location)
	assert.Empty(t, got.Date)
	assert.Empty(t, got.Time)
	assert.Empty(t, got.Name)
	assert.Empty(t, got.Email)
}

func TestExtractMultipleEntitiesInOneMessage(t *testing.T) {
	got := extract(t, "a gel manicure tomorrow at 2pm at the downtown branch")
	require.NotEmpty(t, got.Services)
	assert.Equal(t, "svc-1", got.Services[0].Service.ID)
	require.NotNil(t, got.Location)
	assert.Equal(t, "loc-1", got.Location.ID)
	assert.Equal(t, "2026-08-26", got.Date)
	assert.Equal(t, "14:00", got.Time)
}

func TestExtractEmptyText(t *testing.T) {
	got := extract(t, "   ")
	assert.Empty(t, got.Services)
	assert.Nil(t, got.Location)
	assert.Empty(t, got.Date)
	assert.Empty(t, got.Time)
}
