package series

import (
	"errors"

	"planner/core/recurrence"
)

var (
	// ErrNotFound is returned when an instance or series id does not exist.
	ErrNotFound = errors.New("series: not found")
	// ErrNotRecurring is returned for a following/all scope on a standalone item.
	ErrNotRecurring = errors.New("series: instance is not part of a series")
	// ErrInvalidScope is returned for a missing or unknown scope.
	ErrInvalidScope = errors.New("series: invalid scope")
	// ErrScopeNotAllowed is returned when a change cannot be applied at the
	// requested scope, such as a rule change on a single series instance.
	ErrScopeNotAllowed = errors.New("series: change not allowed for scope")
	// ErrDateConflict is returned when a moved instance would land on a date
	// its series already occupies.
	ErrDateConflict = errors.New("series: series already has an instance on that date")
	// ErrTransactionFailed wraps any storage failure during a mutation. The
	// mutation was rolled back as a whole.
	ErrTransactionFailed = errors.New("series: transaction failed")
)

// IsClientError reports whether err is caused by the request rather than storage.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrNotFound,
		ErrNotRecurring,
		ErrInvalidScope,
		ErrScopeNotAllowed,
		ErrDateConflict,
		recurrence.ErrInvalidRule,
		recurrence.ErrUnsupportedFrequency,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
