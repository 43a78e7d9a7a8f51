package routing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Stage identifies which pipeline stage produced an outcome, so operators
// can distinguish a data problem from a stock problem from a provider outage.
type Stage string

const (
	StageValidate  Stage = "validate"
	StageTransform Stage = "transform"
	StageInventory Stage = "inventory"
	StageSubmit    Stage = "submit"
)

// State is the per-order routing state machine position
type State string

const (
	StateDetected         State = "DETECTED"
	StateValidated        State = "VALIDATED"
	StateRejected         State = "REJECTED"
	StateTransformed      State = "TRANSFORMED"
	StateInventoryBlocked State = "INVENTORY_BLOCKED"
	StateSubmitted        State = "SUBMITTED"
	StateFailed           State = "FAILED"
	StateRouted           State = "ROUTED"
	// StateSkipped means the order's status was outside the fulfillable set.
	// Not a failure; the order may become actionable later.
	StateSkipped State = "SKIPPED"
)

// StageError is a structured pipeline failure: which stage, which code, and
// a human-readable message.
type StageError struct {
	Stage   Stage  `json:"stage"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *StageError) Error() string {
	return string(e.Stage) + ": " + e.Message
}

// Result is the outcome of one routing attempt for one order. Immutable;
// appended to the audit trail.
type Result struct {
	// ID uniquely identifies this attempt
	ID uuid.UUID
	// OrderID is the source platform's order ID
	OrderID string
	// State is the terminal state of this attempt
	State State
	// Success is true when State is ROUTED
	Success bool
	// FulfillmentOrderID is set on success
	FulfillmentOrderID string
	// Warnings are non-fatal issues encountered along the pipeline
	Warnings []string
	// Error is set when the attempt did not reach ROUTED
	Error *StageError
	// AttemptedAt is when the attempt started
	AttemptedAt time.Time
}

// NewResult creates a Result in the Detected state
func NewResult(orderID string) *Result {
	return &Result{
		ID:          uuid.New(),
		OrderID:     orderID,
		State:       StateDetected,
		AttemptedAt: time.Now(),
	}
}

// MarkRouted records a successful routing
func (r *Result) MarkRouted(fulfillmentOrderID string) {
	r.State = StateRouted
	r.Success = true
	r.FulfillmentOrderID = fulfillmentOrderID
}

// MarkFailed records a stage failure
func (r *Result) MarkFailed(state State, stage Stage, code, message string) {
	r.State = state
	r.Success = false
	r.Error = &StageError{Stage: stage, Code: code, Message: message}
}

// MarkSkipped records that the order was not actionable
func (r *Result) MarkSkipped(reason string) {
	r.State = StateSkipped
	r.Success = false
	r.AddWarning(reason)
}

// AddWarning appends a non-fatal issue
func (r *Result) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// BatchResult aggregates per-order outcomes of one RoutePendingOrders run.
// A batch keeps processing after individual failures; one bad order never
// aborts the batch.
type BatchResult struct {
	TotalOrders  int
	SuccessCount int
	FailedCount  int
	SkippedCount int
	Results      []Result
}

// ResultRepository is the audit trail of routing attempts
type ResultRepository interface {
	// Append stores one immutable routing result
	Append(ctx context.Context, result *Result) error

	// FindByOrder returns all attempts for an order, newest first
	FindByOrder(ctx context.Context, orderID string) ([]Result, error)

	// ListRouted returns the latest successful attempt per routed order
	ListRouted(ctx context.Context) ([]Result, error)
}
