package orders

import (
	"errors"
	"fmt"
)

// Status is an order's lifecycle state.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	StatusShipping        Status = "SHIPPING"
	StatusDelivered       Status = "DELIVERED"
	StatusCompleted       Status = "COMPLETED"
	StatusCancelled       Status = "CANCELLED"
)

// Actor identifies who is requesting a transition.
type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorAdmin    Actor = "admin"
	ActorGateway  Actor = "gateway"
)

var (
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrCancelNotAllowed  = errors.New("order can no longer be cancelled by the customer")
	ErrReasonRequired    = errors.New("a cancellation reason is required")
)

// transitions lists the only legal successors of each status; any move not
// in this table is refused, for admins included.
var transitions = map[Status][]Status{
	StatusPending:         {StatusAwaitingPayment, StatusShipping, StatusCancelled},
	StatusAwaitingPayment: {StatusShipping, StatusCancelled},
	StatusShipping:        {StatusDelivered, StatusCancelled},
	StatusDelivered:       {StatusCompleted},
	StatusCompleted:       {},
	StatusCancelled:       {},
}

// customerCancellable are the states a customer may cancel from; later
// states need an admin.
var customerCancellable = map[Status]bool{
	StatusPending:         true,
	StatusAwaitingPayment: true,
}

func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transitions exist from s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0 && ValidStatus(s)
}

// CanTransition checks the table only, ignoring the actor.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition validates a requested transition for an actor. Cancellation
// always requires a reason so the status log stays meaningful.
func CheckTransition(from, to Status, actor Actor, reason string) error {
	if !ValidStatus(from) || !ValidStatus(to) {
		return fmt.Errorf("%w: unknown status %q -> %q", ErrIllegalTransition, from, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	if to == StatusCancelled {
		if reason == "" {
			return ErrReasonRequired
		}
		if actor == ActorCustomer && !customerCancellable[from] {
			return fmt.Errorf("%w: status %s", ErrCancelNotAllowed, from)
		}
	}
	return nil
}

// CustomerCanCancel is what the order detail endpoint uses to decide whether
// to offer the cancel action.
func CustomerCanCancel(s Status) bool {
	return customerCancellable[s]
}
