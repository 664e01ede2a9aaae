package planner

import (
	"errors"

	"planner/core/recurrence"
	"planner/core/series"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried in the "code" field of error responses.
const (
	CodeNotFound             = "not_found"
	CodeNotRecurring         = "not_recurring"
	CodeInvalidScope         = "invalid_scope"
	CodeScopeNotAllowed      = "scope_not_allowed"
	CodeDateConflict         = "date_conflict"
	CodeInvalidRule          = "invalid_rule"
	CodeUnsupportedFrequency = "unsupported_frequency"
	CodeValidation           = "validation_failed"
	CodeTransactionFailed    = "transaction_failed"
	CodeInternal             = "internal"
)

var codeErrors = []struct {
	code   string
	err    error
	status int
}{
	{CodeNotFound, series.ErrNotFound, fiber.StatusNotFound},
	{CodeNotRecurring, series.ErrNotRecurring, fiber.StatusBadRequest},
	{CodeInvalidScope, series.ErrInvalidScope, fiber.StatusBadRequest},
	{CodeScopeNotAllowed, series.ErrScopeNotAllowed, fiber.StatusBadRequest},
	{CodeDateConflict, series.ErrDateConflict, fiber.StatusConflict},
	{CodeInvalidRule, recurrence.ErrInvalidRule, fiber.StatusBadRequest},
	{CodeUnsupportedFrequency, recurrence.ErrUnsupportedFrequency, fiber.StatusBadRequest},
	{CodeTransactionFailed, series.ErrTransactionFailed, fiber.StatusInternalServerError},
}

// classify returns the HTTP status and code for err.
func classify(err error) (int, string) {
	for _, ce := range codeErrors {
		if errors.Is(err, ce.err) {
			return ce.status, ce.code
		}
	}
	return fiber.StatusInternalServerError, CodeInternal
}

// errorForCode returns the sentinel a response code stands for, or nil.
func errorForCode(code string) error {
	for _, ce := range codeErrors {
		if ce.code == code {
			return ce.err
		}
	}
	return nil
}
