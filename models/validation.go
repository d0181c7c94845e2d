package models

// ConflictType tags the reason a candidate booking is infeasible.
type ConflictType string

const (
	ConflictTimeOverlap           ConflictType = "time_overlap"
	ConflictStaffUnavailable      ConflictType = "staff_unavailable"
	ConflictLocationClosed        ConflictType = "location_closed"
	ConflictDurationExceedsWindow ConflictType = "duration_exceeds_window"
)

// SuggestedFix is an optional concrete alternative attached to a conflict.
type SuggestedFix struct {
	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`
	StaffID   string `json:"staffId,omitempty"`
	StaffName string `json:"staffName,omitempty"`
}

// Conflict is one structured reason a booking cannot be scheduled as
// requested, with a human message and an optional suggested fix.
type Conflict struct {
	Type      ConflictType  `json:"type"`
	Message   string        `json:"message"`
	Suggested *SuggestedFix `json:"suggested,omitempty"`
}

// Recommendations are generated independently of the conflict list so the
// customer always sees actionable alternatives.
type Recommendations struct {
	AlternativeTimes []string `json:"alternativeTimes,omitempty"`
	AlternativeStaff []string `json:"alternativeStaff,omitempty"`
	AlternativeDates []string `json:"alternativeDates,omitempty"`
}

// SchedulingValidation is the ephemeral result of one validator call.
// It is never persisted.
type SchedulingValidation struct {
	IsValid              bool            `json:"isValid"`
	Conflicts            []Conflict      `json:"conflicts,omitempty"`
	Recommendations      Recommendations `json:"recommendations"`
	TotalDurationMinutes int             `json:"totalDurationMinutes"`
	RequiredSlotCount    int             `json:"requiredSlotCount"`
}
