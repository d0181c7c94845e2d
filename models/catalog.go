package models

// Location is a bookable branch as reported by the POS backend.
type Location struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OpenTime  string `json:"openTime"`  // HH:MM, 24h
	CloseTime string `json:"closeTime"` // HH:MM, 24h
}

// Service is a bookable service from the POS catalog.
type Service struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"durationMinutes"`
}

// Staff is a staff member qualified for a service on a given date/location.
type Staff struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Slot is one fixed-width schedulable time unit belonging to a staff
// member on a date. Label is the wall-clock start, HH:MM 24h.
type Slot struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// PaymentMethod is a payment option from the POS backend. Online methods
// get a payment link derived from the order id after finalization.
type PaymentMethod struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Online bool   `json:"online"`
}
