package port

import (
	"context"
	"errors"
	"fmt"

	"github.com/andrescamacho/portsim-go/internal/domain/shared"
	"github.com/andrescamacho/portsim-go/internal/domain/warehouse"
)

// Reason names why a transfer guard refused to move containers
type Reason string

const (
	// ReasonCapacityExceeded means the destination has too little free space
	ReasonCapacityExceeded Reason = "capacity_exceeded"

	// ReasonInsufficientStock means the source holds too few containers
	ReasonInsufficientStock Reason = "insufficient_stock"
)

// Side identifies one of the two warehouses taking part in a transfer
type Side string

const (
	SidePort Side = "port"
	SideShip Side = "ship"
)

// Stage tells whether a guard ran holding only the port lock (outer)
// or holding both locks (inner)
type Stage string

const (
	StageOuter Stage = "outer"
	StageInner Stage = "inner"
)

// ProtocolViolationError indicates a ship used a berth operation that
// requires a reservation it does not hold (or already holds one).
// It is a caller bug, not a contention outcome.
type ProtocolViolationError struct {
	ShipID    ShipID
	Operation string
	Detail    string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("protocol violation: ship %s cannot %s: %s", e.ShipID, e.Operation, e.Detail)
}

// MooringDeniedError indicates the wait for a free berth was cancelled
type MooringDeniedError struct {
	ShipID ShipID
	Err    error
}

func (e *MooringDeniedError) Error() string {
	return fmt.Sprintf("mooring denied for ship %s: %v", e.ShipID, e.Err)
}

func (e *MooringDeniedError) Unwrap() error { return e.Err }

// TransferRefusedError indicates a capacity or stock guard rejected a transfer.
// Nothing was moved.
type TransferRefusedError struct {
	BerthID   int
	Direction Direction
	Guard     Side
	Stage     Stage
	Reason    Reason
	Requested int
	Available int
}

func (e *TransferRefusedError) Error() string {
	return fmt.Sprintf("berth %d %s refused by %s %s guard: %s (requested %d, available %d)",
		e.BerthID, e.Direction, e.Stage, e.Guard, e.Reason, e.Requested, e.Available)
}

// TransferAbandonedError indicates a warehouse lock could not be acquired,
// either because the bounded wait expired or because the caller cancelled.
// Nothing was moved.
type TransferAbandonedError struct {
	BerthID   int
	Direction Direction
	Side      Side
	Err       error
}

func (e *TransferAbandonedError) Error() string {
	return fmt.Sprintf("berth %d %s abandoned waiting for %s warehouse lock: %v",
		e.BerthID, e.Direction, e.Side, e.Err)
}

func (e *TransferAbandonedError) Unwrap() error { return e.Err }

// Outcome labels for logs and metrics
const (
	OutcomeSuccess           = "success"
	OutcomeLockTimeout       = "lock_timeout"
	OutcomeCancelled         = "cancelled"
	OutcomeCapacityExceeded  = string(ReasonCapacityExceeded)
	OutcomeInsufficientStock = string(ReasonInsufficientStock)
	OutcomeMooringDenied     = "mooring_denied"
	OutcomeProtocolViolation = "protocol_violation"
	OutcomeInvalid           = "invalid"
	OutcomeUnknown           = "unknown"
)

// Outcome classifies an error returned by Port or Berth.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}

	var (
		refused   *TransferRefusedError
		timeout   *warehouse.LockTimeoutError
		denied    *MooringDeniedError
		violation *ProtocolViolationError
		invalid   *shared.ValidationError
	)
	switch {
	case errors.As(err, &refused):
		return string(refused.Reason)
	case errors.As(err, &timeout):
		return OutcomeLockTimeout
	case errors.As(err, &denied):
		return OutcomeMooringDenied
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	case errors.As(err, &violation):
		return OutcomeProtocolViolation
	case errors.As(err, &invalid):
		return OutcomeInvalid
	default:
		return OutcomeUnknown
	}
}
