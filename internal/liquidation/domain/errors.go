package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a ValidationError for callers that need to branch on it.
type ErrorCode string

const (
	CodeNegativeQuantity        ErrorCode = "negative_quantity"
	CodeMissingField            ErrorCode = "missing_field"
	CodeClassificationMismatch  ErrorCode = "classification_mismatch"
	CodeAllocationMismatch      ErrorCode = "allocation_mismatch"
	CodeNoPendingReconciliation ErrorCode = "no_pending_reconciliation"
	CodeAwaitingAllocation      ErrorCode = "awaiting_retailer_allocation"
	CodeNotAwaitingAllocation   ErrorCode = "not_awaiting_allocation"
	CodeRetailerSplitNotAllowed ErrorCode = "retailer_split_not_allowed"
	CodeIncompleteStockCount    ErrorCode = "incomplete_stock_count"
	CodeOutOfRange              ErrorCode = "out_of_range"
	CodeEntryExists             ErrorCode = "entry_exists"
	CodeDealerExists            ErrorCode = "dealer_exists"
	CodeDealerInactive          ErrorCode = "dealer_inactive"
	CodeInvalidDealer           ErrorCode = "invalid_dealer"
	CodeExceedsAvailable        ErrorCode = "exceeds_available"
	CodeUnknownEstimateField    ErrorCode = "unknown_estimate_field"
	CodeForeignRetailer         ErrorCode = "retailer_not_under_distributor"
	CodeReconciliationPending   ErrorCode = "reconciliation_pending"
)

// ValidationError is a recoverable rejection. Prior state is left untouched.
// Expected and Given are set when the rejection is a numeric mismatch.
type ValidationError struct {
	Code     ErrorCode `json:"code"`
	Field    string    `json:"field,omitempty"`
	Expected *int64    `json:"expected,omitempty"`
	Given    *int64    `json:"given,omitempty"`
	Missing  []string  `json:"missing,omitempty"`
	Reason   string    `json:"reason,omitempty"`
}

// NewMismatchError builds a ValidationError carrying the expected and given numbers.
func NewMismatchError(code ErrorCode, field string, expected, given int64) *ValidationError {
	return &ValidationError{Code: code, Field: field, Expected: &expected, Given: &given}
}

// NewValidationError builds a ValidationError without numbers.
func NewValidationError(code ErrorCode, field, reason string) *ValidationError {
	return &ValidationError{Code: code, Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed: ")
	b.WriteString(string(e.Code))
	if e.Field != "" {
		b.WriteString(" (")
		b.WriteString(e.Field)
		b.WriteString(")")
	}
	if e.Expected != nil && e.Given != nil {
		fmt.Fprintf(&b, ": expected %d, given %d", *e.Expected, *e.Given)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing %s", strings.Join(e.Missing, ","))
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// Shortfall returns expected minus given, or zero when the error has no numbers.
func (e *ValidationError) Shortfall() int64 {
	if e.Expected == nil || e.Given == nil {
		return 0
	}
	return *e.Expected - *e.Given
}

// InvariantViolation reports that a recomputation disagreed with stored
// derived values. It is a defect, never a user error.
type InvariantViolation struct {
	DealerID  string `json:"dealer_id"`
	SKU       string `json:"sku"`
	Invariant string `json:"invariant"`
	Expected  string `json:"expected"`
	Actual    string `json:"actual"`
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant %s violated for %s/%s: expected %s, actual %s",
		e.Invariant, e.DealerID, e.SKU, e.Expected, e.Actual)
}

// NotFoundError reports a reference to a ledger object that does not exist.
type NotFoundError struct {
	Resource string `json:"resource"`
	ID       string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

func IsInvariantViolation(err error) bool {
	var iv *InvariantViolation
	return errors.As(err, &iv)
}
