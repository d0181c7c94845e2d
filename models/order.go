package models

import "time"

// OrderLine is one service line of an order submission: quantity, rate,
// the staff assigned to perform it and the slot ids it occupies.
type OrderLine struct {
	ServiceID string   `json:"serviceId"`
	Quantity  int      `json:"quantity"`
	Rate      float64  `json:"rate"`
	StaffID   string   `json:"staffId"`
	SlotIDs   []string `json:"slotIds"`
	Date      string   `json:"date"`
}

// OrderRequest is the fully assembled order submitted to the POS backend.
type OrderRequest struct {
	CustomerID      string      `json:"customerId"`
	LocationID      string      `json:"locationId"`
	PaymentMethodID string      `json:"paymentMethodId"`
	Lines           []OrderLine `json:"lines"`
}

// OrderResult is the POS backend's answer to an order submission.
type OrderResult struct {
	OrderID string `json:"orderId"`
	Message string `json:"message,omitempty"`
}

// OrderRecord is the archived copy of a finalized order, written to the
// records collection after a successful submission.
type OrderRecord struct {
	ID           string            `json:"id" bson:"id"`
	CustomerID   string            `json:"customerId" bson:"customerId"`
	OrderID      string            `json:"orderId" bson:"orderId"`
	LocationName string            `json:"locationName" bson:"locationName"`
	Services     []SelectedService `json:"services" bson:"services"`
	Staff        []SelectedStaff   `json:"staff" bson:"staff"`
	Date         string            `json:"date" bson:"date"`
	Time         string            `json:"time" bson:"time"`
	Total        float64           `json:"total" bson:"total"`
	PaymentLink  string            `json:"paymentLink,omitempty" bson:"paymentLink,omitempty"`
	CreatedAt    time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt" bson:"updatedAt"`
}
