package models

import "errors"

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusNew            OrderStatus = "new"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReadyForPickup OrderStatus = "ready_for_pickup"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusRejected       OrderStatus = "rejected"
)

// ErrInvalidTransition is returned when a requested status change does not
// match a legal edge of the order lifecycle.
var ErrInvalidTransition = errors.New("invalid order status transition")

// legalTransitions holds the full order lifecycle:
//
//	new -> preparing -> ready_for_pickup -> completed
//	new -> rejected
//
// rejected and completed are terminal.
var legalTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusNew:            {OrderStatusPreparing, OrderStatusRejected},
	OrderStatusPreparing:      {OrderStatusReadyForPickup},
	OrderStatusReadyForPickup: {OrderStatusCompleted},
	OrderStatusRejected:       nil,
	OrderStatusCompleted:      nil,
}

// IsValidStatus reports whether s is one of the known order statuses.
func IsValidStatus(s OrderStatus) bool {
	_, ok := legalTransitions[s]
	return ok
}

// IsTerminal reports whether no transition leads out of s.
func IsTerminal(s OrderStatus) bool {
	next, ok := legalTransitions[s]
	return ok && len(next) == 0
}

// CanTransition reports whether the edge current -> target is legal.
func CanTransition(current, target OrderStatus) bool {
	for _, next := range legalTransitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// Transition validates the edge current -> target and returns the new status.
// It returns ErrInvalidTransition for any pair outside the lifecycle table and
// has no side effects, so callers decide whether a rejection is worth logging.
func Transition(current, target OrderStatus) (OrderStatus, error) {
	if !CanTransition(current, target) {
		return current, ErrInvalidTransition
	}
	return target, nil
}
