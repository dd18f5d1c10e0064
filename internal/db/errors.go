package db

import "errors"

// Domain-level database error sentinels.
var (
	ErrFeedbackNotFound = errors.New("feedback report not found")
)
