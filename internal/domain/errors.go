package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrItemNotFound             = errors.New("inventory item not found")
	ErrInsufficientStock        = errors.New("insufficient stock")
	ErrInvalidTransition        = errors.New("invalid status transition")
	ErrConcurrentUpdateConflict = errors.New("concurrent update conflict")
	ErrIndeterminate            = errors.New("outcome indeterminate")
	ErrDuplicateOperation       = errors.New("operation already applied")

	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInvariantViolation = errors.New("inventory invariant violated")
	ErrStoreUnavailable   = errors.New("document store unavailable")

	ErrBookingNotFound   = errors.New("booking not found")
	ErrReportNotFound    = errors.New("damage report not found")
	ErrPredefinedItem    = errors.New("predefined items cannot be deleted")
	ErrItemReserved      = errors.New("item has active reservations")
	ErrDuplicateItemName = errors.New("an item with this name already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrPaymentIncomplete = errors.New("payment not completed")
	ErrMediaNotFound     = errors.New("media asset not found")
)

// IsSuccess reports whether err should be treated as a successful outcome.
func IsSuccess(err error) bool {
	return err == nil || errors.Is(err, ErrDuplicateOperation)
}

// ItemFailure is one failed line of a multi-item operation.
type ItemFailure struct {
	ItemID string
	Err    error
}

// BatchError reports a multi-item operation that did not complete for
// every item. Succeeded lists the items whose update was committed.
type BatchError struct {
	Operation string
	Succeeded []string
	Failed    []ItemFailure
}

func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		parts = append(parts, fmt.Sprintf("%s: %v", f.ItemID, f.Err))
	}
	return fmt.Sprintf("%s failed for %d item(s) [%s]; succeeded for [%s]",
		e.Operation, len(e.Failed), strings.Join(parts, "; "), strings.Join(e.Succeeded, ", "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}

// Message turns an error into the single human-readable sentence shown to
// admins and customers.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var batch *BatchError
	if errors.As(err, &batch) {
		return fmt.Sprintf("%s could not be completed for every item. Updated: %s. Failed: %s.",
			capitalize(batch.Operation), listOrNone(batch.Succeeded), listOrNone(failedIDs(batch.Failed)))
	}
	switch {
	case errors.Is(err, ErrItemNotFound):
		return "The requested inventory item does not exist."
	case errors.Is(err, ErrInsufficientStock):
		return "Not enough units are available for this request."
	case errors.Is(err, ErrInvalidTransition):
		return "This status change is not allowed."
	case errors.Is(err, ErrConcurrentUpdateConflict):
		return "The item was changed by someone else. Please try again."
	case errors.Is(err, ErrIndeterminate):
		return "The update may or may not have been saved. Refresh before retrying."
	case errors.Is(err, ErrStoreUnavailable):
		return "The inventory store is unreachable. Nothing was changed."
	case errors.Is(err, ErrBookingNotFound):
		return "The booking does not exist."
	case errors.Is(err, ErrReportNotFound):
		return "The damage report does not exist."
	case errors.Is(err, ErrPredefinedItem):
		return "Predefined catalog items can be edited but not deleted."
	case errors.Is(err, ErrItemReserved):
		return "The item cannot be deleted while units are reserved."
	case errors.Is(err, ErrDuplicateItemName):
		return "An item with this name already exists."
	case errors.Is(err, ErrPaymentIncomplete):
		return "The payment has not been completed."
	case errors.Is(err, ErrMediaNotFound):
		return "The file does not exist."
	}
	return err.Error()
}

func failedIDs(failures []ItemFailure) []string {
	ids := make([]string, 0, len(failures))
	for _, f := range failures {
		ids = append(ids, f.ItemID)
	}
	return ids
}

func listOrNone(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	return strings.Join(ids, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
