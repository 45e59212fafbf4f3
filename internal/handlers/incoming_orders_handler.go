package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/dukaan-ai/orderdesk/internal/decision"
	"github.com/dukaan-ai/orderdesk/internal/service"
	"github.com/dukaan-ai/orderdesk/pkg/logger"
)

// IncomingOrderMessage is the payload published by the storefront when a
// customer places an order.
type IncomingOrderMessage struct {
	CustomerName  string          `json:"customer_name"`
	Total         float64         `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	Items         json.RawMessage `json:"items"`
}

// IncomingOrdersHandler stores orders arriving on the incoming-orders topic
// and opens a list-surface decision window for each, so the countdown starts
// the moment the order lands on the desk.
type IncomingOrdersHandler struct {
	orders     *service.OrderService
	controller *decision.Controller
	logger     logger.Logger
}

// NewIncomingOrdersHandler creates a new IncomingOrdersHandler
func NewIncomingOrdersHandler(orders *service.OrderService, controller *decision.Controller, logger logger.Logger) *IncomingOrdersHandler {
	return &IncomingOrdersHandler{
		orders:     orders,
		controller: controller,
		logger:     logger,
	}
}

// HandleMessage handles one incoming order message from Kafka
func (h *IncomingOrdersHandler) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var incoming IncomingOrderMessage

	if err := json.Unmarshal(msg.Value, &incoming); err != nil {
		h.logger.Error("Failed to unmarshal incoming order", "error", err, "offset", msg.Offset)
		// A malformed message will never parse; drop it rather than redeliver.
		return nil
	}

	if incoming.CustomerName == "" {
		h.logger.Warn("Incoming order without customer name dropped", "offset", msg.Offset)
		return nil
	}

	order, err := h.orders.CreateOrder(ctx, incoming.CustomerName, incoming.Total, incoming.PaymentMethod, incoming.Items)

	if err != nil {
		return fmt.Errorf("failed to store incoming order: %w", err)
	}

	if err := h.controller.OnOrderEnteredNew(order, decision.SurfaceList); err != nil {
		h.logger.Error("Failed to open decision window", "error", err, "orderID", order.ID)
	}

	h.logger.Info("Incoming order received",
		"orderID", order.ID,
		"customer", order.CustomerName,
		"total", order.Total)

	return nil
}
