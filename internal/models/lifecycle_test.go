package models

import (
	"errors"
	"testing"
)

func TestTransitionLegalEdges(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
	}{
		{OrderStatusNew, OrderStatusPreparing},
		{OrderStatusNew, OrderStatusRejected},
		{OrderStatusPreparing, OrderStatusReadyForPickup},
		{OrderStatusReadyForPickup, OrderStatusCompleted},
	}

	for _, c := range cases {
		got, err := Transition(c.from, c.to)
		if err != nil {
			t.Errorf("Transition(%s, %s) returned error: %v", c.from, c.to, err)
		}
		if got != c.to {
			t.Errorf("Transition(%s, %s) = %s, want %s", c.from, c.to, got, c.to)
		}
	}
}

func TestTransitionIllegalEdgesRejected(t *testing.T) {
	statuses := []OrderStatus{
		OrderStatusNew,
		OrderStatusPreparing,
		OrderStatusReadyForPickup,
		OrderStatusCompleted,
		OrderStatusRejected,
	}

	legal := map[[2]OrderStatus]bool{
		{OrderStatusNew, OrderStatusPreparing}:            true,
		{OrderStatusNew, OrderStatusRejected}:             true,
		{OrderStatusPreparing, OrderStatusReadyForPickup}: true,
		{OrderStatusReadyForPickup, OrderStatusCompleted}: true,
	}

	// Every (status, target) pair outside the lifecycle table must fail and
	// leave the current status unchanged.
	for _, from := range statuses {
		for _, to := range statuses {
			if legal[[2]OrderStatus{from, to}] {
				continue
			}

			got, err := Transition(from, to)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Transition(%s, %s) error = %v, want ErrInvalidTransition", from, to, err)
			}
			if got != from {
				t.Errorf("Transition(%s, %s) mutated status to %s", from, to, got)
			}
		}
	}
}

func TestTransitionBackwardsFails(t *testing.T) {
	// Forward advance succeeds.
	if _, err := Transition(OrderStatusPreparing, OrderStatusReadyForPickup); err != nil {
		t.Fatalf("forward advance failed: %v", err)
	}

	// The same edge walked backwards is invalid.
	if _, err := Transition(OrderStatusReadyForPickup, OrderStatusPreparing); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("backwards advance error = %v, want ErrInvalidTransition", err)
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusRejected, OrderStatusCompleted} {
		if !IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = false, want true", s)
		}
	}

	for _, s := range []OrderStatus{OrderStatusNew, OrderStatusPreparing, OrderStatusReadyForPickup} {
		if IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = true, want false", s)
		}
	}
}

func TestIsValidStatus(t *testing.T) {
	if !IsValidStatus(OrderStatusNew) {
		t.Error("IsValidStatus(new) = false, want true")
	}
	if IsValidStatus(OrderStatus("shipped")) {
		t.Error("IsValidStatus(shipped) = true, want false")
	}
}
