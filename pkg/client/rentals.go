package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"smartrentals/pkg/middleware"
	"smartrentals/pkg/model"
	"time"
)

// RentalsClient is a typed client for the rentals REST API.
type RentalsClient struct {
	http          *HttpClient
	webhookSecret string
}

type RentalsOption func(*RentalsClient)

// WithStaffToken authenticates every request as staff.
func WithStaffToken(token string) RentalsOption {
	return func(c *RentalsClient) {
		c.http.Headers["Authorization"] = "Bearer " + token
	}
}

// WithWebhookSecret lets the client sign payment confirmations.
func WithWebhookSecret(secret string) RentalsOption {
	return func(c *RentalsClient) {
		c.webhookSecret = secret
	}
}

func WithHTTPClient(hc *http.Client) RentalsOption {
	return func(c *RentalsClient) {
		c.http.HTTPClient = hc
	}
}

func NewRentalsClient(baseURL string, opts ...RentalsOption) *RentalsClient {
	c := &RentalsClient{http: NewHttpClient(baseURL)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RentalsClient) BaseURL() string {
	return c.http.BaseURL
}

// QuoteRequest asks for the price of one rental window.
type QuoteRequest struct {
	ProductID string    `json:"product_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

func (c *RentalsClient) CreateProduct(ctx context.Context, create *model.ProductCreate) (*model.Product, error) {
	var p model.Product
	return &p, c.call(ctx, http.MethodPost, "/api/v1/products", create, http.StatusCreated, &p)
}

func (c *RentalsClient) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	return &p, c.call(ctx, http.MethodGet, "/api/v1/products/"+url.PathEscape(id), nil, http.StatusOK, &p)
}

func (c *RentalsClient) UpdateProduct(ctx context.Context, id string, update *model.ProductUpdate) (*model.Product, error) {
	var p model.Product
	return &p, c.call(ctx, http.MethodPatch, "/api/v1/products/"+url.PathEscape(id), update, http.StatusOK, &p)
}

func (c *RentalsClient) DeleteProduct(ctx context.Context, id string) (*model.Removal, error) {
	var r model.Removal
	return &r, c.call(ctx, http.MethodDelete, "/api/v1/products/"+url.PathEscape(id), nil, http.StatusOK, &r)
}

func (c *RentalsClient) DeleteUnit(ctx context.Context, id string) (*model.Removal, error) {
	var r model.Removal
	return &r, c.call(ctx, http.MethodDelete, "/api/v1/inventory/id/"+url.PathEscape(id), nil, http.StatusOK, &r)
}

func (c *RentalsClient) CreateUnit(ctx context.Context, create *model.InventoryUnitCreate) (*model.InventoryUnit, error) {
	var u model.InventoryUnit
	return &u, c.call(ctx, http.MethodPost, "/api/v1/inventory", create, http.StatusCreated, &u)
}

func (c *RentalsClient) ListUnits(ctx context.Context, productID string) ([]*model.InventoryUnit, error) {
	var units []*model.InventoryUnit
	path := "/api/v1/inventory?product_id=" + url.QueryEscape(productID)
	return units, c.call(ctx, http.MethodGet, path, nil, http.StatusOK, &units)
}

func (c *RentalsClient) AvailableUnits(ctx context.Context, productID string, start, end time.Time) ([]*model.InventoryUnit, error) {
	q := url.Values{}
	q.Set("start", start.UTC().Format(time.RFC3339))
	q.Set("end", end.UTC().Format(time.RFC3339))
	var units []*model.InventoryUnit
	path := "/api/v1/availability/products/" + url.PathEscape(productID) + "?" + q.Encode()
	return units, c.call(ctx, http.MethodGet, path, nil, http.StatusOK, &units)
}

func (c *RentalsClient) Quote(ctx context.Context, req QuoteRequest) (*model.Quote, error) {
	var q model.Quote
	return &q, c.call(ctx, http.MethodPost, "/api/v1/availability/quote", req, http.StatusOK, &q)
}

// PlaceOrder books an order. A non-empty idempotencyKey makes retries safe.
func (c *RentalsClient) PlaceOrder(ctx context.Context, create *model.OrderCreate, idempotencyKey string) (*model.Order, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers[middleware.IdempotencyKeyHeader] = idempotencyKey
	}
	if create.CustomerRef != "" {
		headers[middleware.CustomerRefHeader] = create.CustomerRef
	}
	resp, err := c.http.POSTWithHeaders(ctx, "/api/v1/orders", create, headers)
	if err != nil {
		return nil, err
	}
	var o model.Order
	return &o, decode(resp, http.StatusCreated, &o)
}

func (c *RentalsClient) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	return &o, c.call(ctx, http.MethodGet, "/api/v1/orders/"+url.PathEscape(id), nil, http.StatusOK, &o)
}

// MyOrders lists the orders placed under customerRef, newest first.
func (c *RentalsClient) MyOrders(ctx context.Context, customerRef string) ([]*model.Order, error) {
	resp, err := c.http.request(ctx, http.MethodGet, "/api/v1/my/orders", nil, map[string]string{
		middleware.CustomerRefHeader: customerRef,
	})
	if err != nil {
		return nil, err
	}
	var orders []*model.Order
	return orders, decode(resp, http.StatusOK, &orders)
}

// ConfirmOrder posts a signed payment confirmation, as the payment
// provider's webhook would.
func (c *RentalsClient) ConfirmOrder(ctx context.Context, id string, payment *model.PaymentConfirmation) (*model.Order, error) {
	if c.webhookSecret == "" {
		return nil, errors.New("confirming an order requires a webhook secret")
	}
	body, err := json.Marshal(payment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment: %w", err)
	}
	resp, err := c.http.POSTRaw(ctx, "/api/v1/orders/"+url.PathEscape(id)+"/confirm", body, map[string]string{
		"Content-Type":             "application/json",
		middleware.SignatureHeader: middleware.Sign(body, c.webhookSecret),
	})
	if err != nil {
		return nil, err
	}
	var o model.Order
	return &o, decode(resp, http.StatusOK, &o)
}

func (c *RentalsClient) ReturnOrder(ctx context.Context, id, note string) (*model.Order, error) {
	var o model.Order
	path := "/api/v1/orders/" + url.PathEscape(id) + "/return"
	return &o, c.call(ctx, http.MethodPost, path, model.StatusNote{Note: note}, http.StatusOK, &o)
}

func (c *RentalsClient) CancelOrder(ctx context.Context, id, note string) (*model.Order, error) {
	var o model.Order
	path := "/api/v1/orders/" + url.PathEscape(id) + "/cancel"
	return &o, c.call(ctx, http.MethodPost, path, model.StatusNote{Note: note}, http.StatusOK, &o)
}

func (c *RentalsClient) UpcomingReservations(ctx context.Context, start, end time.Time) ([]*model.Reservation, error) {
	q := url.Values{}
	if !start.IsZero() {
		q.Set("start", start.UTC().Format(time.RFC3339))
	}
	if !end.IsZero() {
		q.Set("end", end.UTC().Format(time.RFC3339))
	}
	var out []*model.Reservation
	return out, c.call(ctx, http.MethodGet, "/api/v1/reports/upcoming-reservations?"+q.Encode(), nil, http.StatusOK, &out)
}

func (c *RentalsClient) Settings(ctx context.Context) (*model.Settings, error) {
	var s model.Settings
	return &s, c.call(ctx, http.MethodGet, "/api/v1/settings", nil, http.StatusOK, &s)
}

func (c *RentalsClient) call(ctx context.Context, method, path string, body any, want int, out any) error {
	resp, err := c.http.request(ctx, method, path, body, nil)
	if err != nil {
		return err
	}
	return decode(resp, want, out)
}

// decode unwraps the {"data": ...} envelope of a successful response.
func decode(resp *Response, want int, out any) error {
	if resp.StatusCode != want {
		return apiError(resp)
	}
	envelope := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := resp.DecodeJSON(&envelope); err != nil {
		return fmt.Errorf("decoding %s response: %w", resp.Request.URL.Path, err)
	}
	return nil
}
