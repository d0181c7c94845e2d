package pos

// customerResolveRequest asks the backend to look up or create a customer
// identity by contact details.
type customerResolveRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type customerResolveResponse struct {
	CustomerID string `json:"customerId"`
}

type orderSubmitResponse struct {
	OrderID string `json:"orderId"`
	Message string `json:"message,omitempty"`
}

type errorResponse struct {
	Message string `json:"message"`
}
