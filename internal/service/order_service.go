package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukaan-ai/orderdesk/internal/models"
	"github.com/dukaan-ai/orderdesk/internal/repository"
	apperrors "github.com/dukaan-ai/orderdesk/pkg/errors"
	"github.com/dukaan-ai/orderdesk/pkg/logger"
)

// OrderService owns order persistence and is the only place order statuses
// are mutated. Every caller, whether a decision window or a manual button,
// goes through RequestStatusTransition.
type OrderService struct {
	orderRepo  *repository.OrderRepository
	outboxRepo *repository.OutboxRepository
	logger     logger.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo *repository.OrderRepository,
	outboxRepo *repository.OutboxRepository,
	logger logger.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// CreateOrder stores a new order awaiting a decision and publishes an
// order_created event through the outbox, in one transaction
func (s *OrderService) CreateOrder(
	ctx context.Context,
	customerName string,
	total float64,
	paymentMethod string,
	items json.RawMessage,
) (*models.Order, error) {
	order := models.NewOrder(customerName, total, paymentMethod, items)

	outboxMsg, err := models.NewOrderCreatedEvent(order)

	if err != nil {
		s.logger.Error("Failed to create outbox message", "error", err)
		return nil, fmt.Errorf("failed to create outbox message: %w", err)
	}

	tx, err := s.orderRepo.BeginTx(ctx)

	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction", "error", rbErr)
			}
		}
	}()

	if err = s.orderRepo.CreateInTx(tx, order); err != nil {
		return nil, err
	}

	if err = s.outboxRepo.CreateInTx(tx, outboxMsg); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Order created", "orderID", order.ID, "outboxID", outboxMsg.ID)
	return order, nil
}

// RequestStatusTransition validates the requested edge against the order
// lifecycle and, if legal, persists the new status together with an outbox
// event. Illegal requests are rejected without mutating anything; callers
// racing a decision window see ErrInvalidTransition and treat it as a no-op.
func (s *OrderService) RequestStatusTransition(ctx context.Context, orderID string, target models.OrderStatus, trigger string) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", orderID))
		}
		return err
	}

	oldStatus := order.Status

	newStatus, err := models.Transition(oldStatus, target)

	if err != nil {
		return apperrors.NewInvalidTransitionError(
			fmt.Sprintf("cannot move order %s from %s to %s", orderID, oldStatus, target))
	}

	order.Status = newStatus

	outboxMsg, err := models.NewOrderStatusChangedEvent(order, oldStatus, trigger)

	if err != nil {
		s.logger.Error("Failed to create outbox message", "error", err)
		return fmt.Errorf("failed to create outbox message: %w", err)
	}

	tx, err := s.orderRepo.BeginTx(ctx)

	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction", "error", rbErr)
			}
		}
	}()

	if err = s.orderRepo.UpdateStatusInTx(tx, order, oldStatus); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			// Another terminal action won between our read and this write;
			// this request degrades to the usual invalid-transition rejection.
			return apperrors.NewInvalidTransitionError(
				fmt.Sprintf("order %s left %s before the %s transition committed", orderID, oldStatus, target))
		}
		return err
	}

	if err = s.outboxRepo.CreateInTx(tx, outboxMsg); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Order status updated",
		"orderID", order.ID,
		"oldStatus", oldStatus,
		"newStatus", newStatus,
		"trigger", trigger)

	return nil
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
		}
		return nil, err
	}

	return order, nil
}

// ListOrders retrieves orders with pagination, optionally filtered by status
func (s *OrderService) ListOrders(ctx context.Context, status models.OrderStatus, limit, offset int) ([]*models.Order, error) {
	if status != "" && !models.IsValidStatus(status) {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown status filter %q", status))
	}

	return s.orderRepo.List(ctx, status, limit, offset)
}

// CountOrders counts the total number of orders
func (s *OrderService) CountOrders(ctx context.Context) (int, error) {
	return s.orderRepo.Count(ctx)
}
