package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/dukaan-ai/orderdesk/internal/models"
	apperrors "github.com/dukaan-ai/orderdesk/pkg/errors"
)

type ApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Health represents the health check response
type Health struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// healthCheckHandler handles the health check endpoint
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	health := Health{
		Status:    "ok",
		Version:   "0.1.0",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    health,
	})
}

// listOrdersHandler returns orders newest first, optionally filtered by the
// status query parameter used by the list tabs.
func (s *Server) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	status := models.OrderStatus(r.URL.Query().Get("status"))
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	orders, err := s.orderService.ListOrders(r.Context(), status, limit, offset)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    orders,
	})
}

type createOrderRequest struct {
	CustomerName  string          `json:"customer_name"`
	Total         float64         `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	Items         json.RawMessage `json:"items"`
}

// createOrderHandler creates a new order awaiting a decision
func (s *Server) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.CustomerName == "" {
		s.respondWithError(w, http.StatusBadRequest, "customer_name is required")
		return
	}

	order, err := s.orderService.CreateOrder(r.Context(), req.CustomerName, req.Total, req.PaymentMethod, req.Items)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Data:    order,
	})
}

// getOrderByIDHandler returns an order by ID
func (s *Server) getOrderByIDHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	order, err := s.orderService.GetOrder(r.Context(), id)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    order,
	})
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// updateOrderStatusHandler handles the manual advance buttons: accepting
// later-stage progress (preparing -> ready_for_pickup -> completed) and the
// manual reject of a new order. Illegal edges come back as conflicts.
func (s *Server) updateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	var req updateStatusRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if !models.IsValidStatus(req.Status) {
		s.respondWithError(w, http.StatusBadRequest, "Unknown status")
		return
	}

	if err := s.controller.ManualAdvance(r.Context(), id, req.Status); err != nil {
		s.respondWithAppError(w, err)
		return
	}

	order, err := s.orderService.GetOrder(r.Context(), id)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    order,
	})
}

// listProductsHandler returns the product catalog
func (s *Server) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	products, err := s.productRepo.List(r.Context(), limit, offset)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    products,
	})
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}

// respondWithAppError maps application errors to HTTP status codes
func (s *Server) respondWithAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError

	if errors.As(err, &appErr) {
		s.respondWithError(w, appErr.StatusCode, appErr.Message)
		return
	}

	s.logger.Error("Unhandled error", "error", err)
	s.respondWithError(w, http.StatusInternalServerError, "Internal server error")
}

// respondWithError sends a JSON response with an error message
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, ApiResponse{
		Success: false,
		Error:   message,
	})
}

// respondWithJSON sends a JSON response
func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)

	if err != nil {
		s.logger.Error("Failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
