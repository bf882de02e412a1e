package budgets

import "errors"

var (
	// ErrBudgetNotFound is returned when a budget is not found
	ErrBudgetNotFound = errors.New("budget not found")

	ErrLeadRequired        = errors.New("budgets: lead reference required")
	ErrDescriptionRequired = errors.New("budgets: description required")
	ErrAmountNotPositive   = errors.New("budgets: amount must be positive")
	ErrValidUntilPast      = errors.New("budgets: valid-until date must be in the future")
	ErrInvalidStatus       = errors.New("budgets: unknown status")
)
