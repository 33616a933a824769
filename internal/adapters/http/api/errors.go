package api

import "errors"

var (
	// ErrBadRequest wraps every request decoding or validation failure.
	ErrBadRequest = errors.New("bad request")
	// ErrBackpressure is reported to clients when the submission queue is full.
	ErrBackpressure = errors.New("submission queue full; retry later")
	// ErrNotStarted is reported when submissions arrive outside Start/Stop.
	ErrNotStarted = errors.New("submission pipeline not running")
)
