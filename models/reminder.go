package models

// ReminderPayload is the queued task body for an appointment reminder.
type ReminderPayload struct {
	CustomerID   string `json:"customerId"`
	OrderID      string `json:"orderId"`
	LocationName string `json:"locationName"`
	Date         string `json:"date"`
	Time         string `json:"time"`
}
