package repository

import "errors"

// Sentinel kinds for result store errors.
var (
	ErrNotFound  = errors.New("assessment not found")
	ErrInvalidID = errors.New("assessment has no submission id")
)
