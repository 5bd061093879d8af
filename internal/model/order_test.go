package model

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	statuses := []OrderStatus{
		OrderStatusPending,
		OrderStatusAccepted,
		OrderStatusInProgress,
		OrderStatusCompleted,
		OrderStatusCancelled,
	}

	allowed := map[OrderStatus]map[OrderStatus]bool{
		OrderStatusPending:  {OrderStatusAccepted: true, OrderStatusCancelled: true},
		OrderStatusAccepted: {OrderStatusInProgress: true},
		OrderStatusInProgress: {OrderStatusCompleted: true},
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[from][to]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransitionRejectsSelfLoop(t *testing.T) {
	for from := range allowedTransitions {
		if CanTransition(from, from) {
			t.Errorf("CanTransition(%s, %s) should be false", from, from)
		}
	}
}

func TestApplyTransitionStampsTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	order := &Order{Status: OrderStatusPending}

	if err := ApplyTransition(order, OrderStatusAccepted, now); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if order.AcceptedAt == nil || !order.AcceptedAt.Equal(now) {
		t.Fatalf("accepted_at not stamped")
	}

	later := now.Add(30 * time.Minute)
	if err := ApplyTransition(order, OrderStatusInProgress, later); err != nil {
		t.Fatalf("start: %v", err)
	}
	if order.StartedAt == nil || !order.StartedAt.Equal(later) {
		t.Fatalf("started_at not stamped")
	}
	if !order.AcceptedAt.Equal(now) {
		t.Fatalf("accepted_at was overwritten")
	}

	end := later.Add(45 * time.Minute)
	if err := ApplyTransition(order, OrderStatusCompleted, end); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if order.CompletedAt == nil || !order.CompletedAt.Equal(end) {
		t.Fatalf("completed_at not stamped")
	}
	if order.Status != OrderStatusCompleted {
		t.Fatalf("status = %s, want completed", order.Status)
	}
}

func TestApplyTransitionRejectsInvalid(t *testing.T) {
	now := time.Now()

	order := &Order{Status: OrderStatusCompleted}
	if err := ApplyTransition(order, OrderStatusCancelled, now); err == nil {
		t.Fatal("expected error for completed -> cancelled")
	}
	if order.Status != OrderStatusCompleted {
		t.Fatalf("status mutated on rejected transition: %s", order.Status)
	}

	order = &Order{Status: OrderStatusAccepted}
	if err := ApplyTransition(order, OrderStatusCancelled, now); err == nil {
		t.Fatal("expected error for accepted -> cancelled")
	}
}

func TestTimestampColumn(t *testing.T) {
	cases := map[OrderStatus]string{
		OrderStatusAccepted:   "accepted_at",
		OrderStatusInProgress: "started_at",
		OrderStatusCompleted:  "completed_at",
		OrderStatusCancelled:  "cancelled_at",
		OrderStatusPending:    "",
	}
	for status, want := range cases {
		if got := TimestampColumn(status); got != want {
			t.Errorf("TimestampColumn(%s) = %q, want %q", status, got, want)
		}
	}
}
