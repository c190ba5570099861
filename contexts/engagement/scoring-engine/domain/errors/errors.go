package errors

import "errors"

var (
	ErrInvalidRequest  = errors.New("scoring input is invalid")
	ErrUnknownAction   = errors.New("action kind is not recognized")
	ErrUnknownUtility  = errors.New("utility type is not recognized")
	ErrInvalidQuantity = errors.New("consumption quantity must be non-negative")
	ErrUnknownMetric   = errors.New("leaderboard metric is not recognized")
	ErrUserNotFound    = errors.New("user is not known to the scoring engine")
)
