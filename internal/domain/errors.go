package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the domain.
var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidInput   = errors.New("invalid input")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Machine-readable rule codes carried by BusinessRuleError so clients can
// branch on the specific rule that was violated.
const (
	RuleInvalidTransition         = "invalid_transition"
	RuleEventNotModifiable        = "event_not_modifiable"
	RuleInvalidCancellationReason = "invalid_cancellation_reason"
	RuleInvalidRescheduleReason   = "invalid_reschedule_reason"
	RuleEmptyInviteBatch          = "empty_invite_batch"
	RuleCapacityExceeded          = "capacity_exceeded"
	RuleInvitationDeadlinePassed  = "invitation_deadline_passed"
	RuleCannotRemoveSelf          = "cannot_remove_self"
	RuleVotingClosed              = "voting_closed"
	RuleOptionsLocked             = "options_locked"
	RuleInvalidThreshold          = "invalid_threshold"
	RuleInvalidSchedule           = "invalid_schedule"
	RuleInvalidBudget             = "invalid_budget"
	RuleOverlappingEvent          = "overlapping_event"
)

// BusinessRuleError is a validation failure with a machine-readable code.
type BusinessRuleError struct {
	Code    string
	Message string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBusinessRuleError builds a BusinessRuleError with a formatted message.
func NewBusinessRuleError(code, format string, args ...any) *BusinessRuleError {
	return &BusinessRuleError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsBusinessRule returns the BusinessRuleError wrapped in err, if any.
func AsBusinessRule(err error) (*BusinessRuleError, bool) {
	var bre *BusinessRuleError
	ok := errors.As(err, &bre)
	return bre, ok
}
