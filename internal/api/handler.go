package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/safar/go-crm-backend/internal/database"
	"github.com/safar/go-crm-backend/internal/metrics"
	"github.com/safar/go-crm-backend/internal/store"
)

// OperationRequest is the document accepted by the single query/mutation
// endpoint: a named field plus its structured input.
type OperationRequest struct {
	Operation string          `json:"operation"`
	Input     json.RawMessage `json:"input,omitempty"`
}

// OperationResponse carries the resolved data plus an optional message and
// error strings. Bulk mutations report their per-item failures in Errors
// alongside the records that did succeed.
type OperationResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

type resolverFunc func(ctx context.Context, input json.RawMessage) (*OperationResponse, error)

// Handler resolves operation documents against the store. The mapping from
// field name to resolver is an explicit table, not derived from reflection.
type Handler struct {
	db        *sql.DB
	resolvers map[string]resolverFunc
}

func NewHandler(db *sql.DB) *Handler {
	h := &Handler{db: db}
	h.resolvers = map[string]resolverFunc{
		// Queries
		"hello":        h.hello,
		"allCustomers": h.allCustomers,
		"allProducts":  h.allProducts,
		"allOrders":    h.allOrders,
		"recentOrders": h.recentOrders,
		"crmReport":    h.crmReport,

		// Mutations
		"createCustomer":         h.createCustomer,
		"bulkCreateCustomers":    h.bulkCreateCustomers,
		"createProduct":          h.createProduct,
		"createOrder":            h.createOrder,
		"updateLowStockProducts": h.updateLowStockProducts,
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var req OperationRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resolver, ok := h.resolvers[req.Operation]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown operation %q", req.Operation))
		return
	}

	resp, err := resolver(r.Context(), req.Input)
	if err != nil {
		metrics.RecordOperation(req.Operation, false)
		writeError(w, statusFor(err), err)
		return
	}

	metrics.RecordOperation(req.Operation, true)
	writeJSON(w, http.StatusOK, resp)
}

// --- Queries ----------------------------------------------------------------

func (h *Handler) hello(ctx context.Context, _ json.RawMessage) (*OperationResponse, error) {
	return &OperationResponse{Data: "Hello, GraphQL!"}, nil
}

func (h *Handler) allCustomers(ctx context.Context, input json.RawMessage) (*OperationResponse, error) {
	var filter store.CustomerFilter
	if err := decodeInput(input, &filter); err != nil {
		return nil, err
	}
	customers, err := store.ListCustomers(ctx, h.db, filter)
	if err != nil {
		return nil, err
	}
	return &OperationResponse{Data: customers}, nil
}

func (h *Handler) allProducts(ctx context.Context, input json.RawMessage) (*OperationResponse, error) {
	var filter store.ProductFilter
	if err := decodeInput(input, &filter); err != nil {
		return nil, err
	}
	products, err := store.ListProducts(ctx, h.db, filter)
	if err != nil {
		return nil, err
	}
	return &OperationResponse{Data: products}, nil
}

func (h *Handler) allOrders(ctx context.Context, input json.RawMessage) (*OperationResponse, error) {
	var filter store.OrderFilter
	if err := decodeInput(input, &filter); err != nil {
		return nil, err
	}
	orders, err := store.ListOrders(ctx, h.db, filter)
	if err != nil {
		return nil, err
	}
	return &OperationResponse{Data: orders}, nil
}

func (h *Handler) recentOrders(ctx context.Context, _ json.RawMessage) (*OperationResponse, error) {
	orders, err := store.RecentOrders(ctx, h.db)
	if err != nil {
		return nil, err
	}
	return &OperationResponse{Data: orders}, nil
}

func (h *Handler) crmReport(ctx context.Context, _ json.RawMessage) (*OperationResponse, error) {
	report, err := store.GetCRMReport(ctx, h.db)
	if err != nil {
		return nil, err
	}
	return &OperationResponse{Data: report}, nil
}

// --- Mutations --------------------------------------------------------------

func (h *Handler) createCustomer(ctx context.Context, input json.RawMessage) (*OperationResponse, error) {
	var in store.CustomerInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	customer, err := store.CreateCustomer(ctx, h.db, in)
	if err != nil {
		return nil, err
	}
	return &OperationResponse{Data: customer, Message: "Customer created successfully"}, nil
}

func (h *Handler) bulkCreateCustomers(ctx context.Context, input json.RawMessage) (*OperationResponse, error) {
	var in []store.CustomerInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	customers, itemErrors, err := store.BulkCreateCustomers(ctx, h.db, in)
	if err != nil {
		return nil, err
	}
	return &OperationResponse{Data: customers, Errors: itemErrors}, nil
}

func (h *Handler) createProduct(ctx context.Context, input json.RawMessage) (*OperationResponse, error) {
	var in store.ProductInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	product, err := store.CreateProduct(ctx, h.db, in)
	if err != nil {
		return nil, err
	}
	return &OperationResponse{Data: product}, nil
}

func (h *Handler) createOrder(ctx context.Context, input json.RawMessage) (*OperationResponse, error) {
	var in store.OrderInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	order, err := store.CreateOrder(ctx, h.db, in)
	if err != nil {
		return nil, err
	}
	return &OperationResponse{Data: order}, nil
}

func (h *Handler) updateLowStockProducts(ctx context.Context, _ json.RawMessage) (*OperationResponse, error) {
	products, message, err := store.UpdateLowStockProducts(ctx, h.db)
	if err != nil {
		return nil, err
	}
	return &OperationResponse{Data: products, Message: message}, nil
}

// --- Helpers ----------------------------------------------------------------

func decodeJSON(body io.Reader, v interface{}) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func decodeInput(input json.RawMessage, v interface{}) error {
	if len(input) == 0 {
		return nil
	}
	if err := json.Unmarshal(input, v); err != nil {
		return &store.ValidationError{Field: "input", Message: err.Error()}
	}
	return nil
}

// statusFor maps domain errors onto HTTP status codes. Anything unexpected
// is a 500; the caller only ever sees the human-readable message.
func statusFor(err error) int {
	var validationErr *store.ValidationError
	switch {
	case errors.As(err, &validationErr),
		errors.Is(err, database.ErrDuplicateEmail),
		errors.Is(err, database.ErrCustomerNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrEmptyProductList):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrOrderNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, &OperationResponse{Errors: []string{err.Error()}})
}
