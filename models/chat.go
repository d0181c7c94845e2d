package models

// ChatRequest is the inbound message payload from the chat transport.
type ChatRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
	Text       string `json:"text"`
}

// ChatReply is the canonical result of processing one inbound message,
// shared by every caller of the conversation machine.
type ChatReply struct {
	ReplyText   string        `json:"reply"`
	Phase       Phase         `json:"phase"`
	Collected   CollectedData `json:"collected"`
	OrderID     string        `json:"orderId,omitempty"`
	PaymentLink string        `json:"paymentLink,omitempty"`
	Error       string        `json:"error,omitempty"`
}
