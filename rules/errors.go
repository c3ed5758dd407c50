package rules

import "errors"

// ErrInvalidPeriod is returned when a deadline period or a
// GenerateDeadline action's day count is negative.
var ErrInvalidPeriod = errors.New("period days cannot be negative")

// ErrMalformedAction marks an action whose payload cannot be applied.
// It is always reported per-action via ActionError, never fatally.
var ErrMalformedAction = errors.New("malformed action")

// ErrRuleNotFound is returned by stores when no rule has the given ID.
var ErrRuleNotFound = errors.New("rule not found")

// ErrRuleExists is returned by stores on an Add with a duplicate ID.
var ErrRuleExists = errors.New("rule already exists")
