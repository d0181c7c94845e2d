package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"glowdesk/models"

	"go.uber.org/zap"
)

// Client is the read façade over the POS backend (locations, services,
// staff, slots, payment methods) plus the two write-side calls the
// finalizer needs. All reads are idempotent; SubmitOrder must be called
// at most once per user confirmation.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a POS client with a bounded per-request timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// ListLocations returns all bookable branches.
func (c *Client) ListLocations(ctx context.Context) ([]models.Location, error) {
	var out []models.Location
	if err := c.getJSON(ctx, "/api/locations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListServices returns the service catalog for a location.
func (c *Client) ListServices(ctx context.Context, locationID string) ([]models.Service, error) {
	q := url.Values{}
	if locationID != "" {
		q.Set("location_id", locationID)
	}
	var out []models.Service
	if err := c.getJSON(ctx, "/api/services", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListStaffForService returns the staff qualified to perform a service at
// a location on a date.
func (c *Client) ListStaffForService(ctx context.Context, serviceID, locationID, date string) ([]models.Staff, error) {
	q := url.Values{}
	q.Set("service_id", serviceID)
	q.Set("location_id", locationID)
	q.Set("date", date)
	var out []models.Staff
	if err := c.getJSON(ctx, "/api/staff", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSlotsForStaff returns the open fixed-width slots of a staff member
// on a date, in label order.
func (c *Client) ListSlotsForStaff(ctx context.Context, staffID, date string) ([]models.Slot, error) {
	q := url.Values{}
	q.Set("staff_id", staffID)
	q.Set("date", date)
	var out []models.Slot
	if err := c.getJSON(ctx, "/api/slots", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPaymentMethods returns the accepted payment methods.
func (c *Client) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var out []models.PaymentMethod
	if err := c.getJSON(ctx, "/api/payment-methods", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveCustomer looks up or creates the customer identity in the POS
// backend and returns its id. The call is idempotent on the backend side.
func (c *Client) ResolveCustomer(ctx context.Context, name, email, phone string) (string, error) {
	body := customerResolveRequest{Name: name, Email: email, Phone: phone}
	var out customerResolveResponse
	if err := c.postJSON(ctx, "/api/customers/resolve", body, &out); err != nil {
		return "", err
	}
	if out.CustomerID == "" {
		return "", fmt.Errorf("%w: empty customer id", ErrInvalidResponse)
	}
	return out.CustomerID, nil
}

// SubmitOrder submits the assembled order. A rejection is returned as
// *OrderRejectedError with the backend's message verbatim.
func (c *Client) SubmitOrder(ctx context.Context, req models.OrderRequest) (*models.OrderResult, error) {
	var out orderSubmitResponse
	if err := c.postJSON(ctx, "/api/orders", req, &out); err != nil {
		return nil, err
	}
	if out.OrderID == "" {
		return nil, fmt.Errorf("%w: empty order id", ErrInvalidResponse)
	}
	return &models.OrderResult{OrderID: out.OrderID, Message: out.Message}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrBackendUnavailable, err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request: %v", ErrInvalidResponse, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrBackendUnavailable, err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("POS request failed", zap.String("url", req.URL.String()), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		// Continue below.
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest:
		var rej errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&rej); err != nil || rej.Message == "" {
			rej.Message = fmt.Sprintf("request rejected with status %d", resp.StatusCode)
		}
		return &OrderRejectedError{Message: rej.Message}
	default:
		body, _ := io.ReadAll(resp.Body)
		c.log.Error("POS returned unexpected status",
			zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return fmt.Errorf("%w: unexpected status %d", ErrBackendUnavailable, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}
	return nil
}
