package domain

import "errors"

var (
	// ErrConfiguration marks malformed configuration or conflicting period
	// selectors, detected before any aggregation starts.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInvalidDate marks an unparseable anchor date or a custom range
	// whose start falls after its end.
	ErrInvalidDate = errors.New("invalid date")

	// ErrUnknownAccount marks a roster account without a user record.
	// It aborts the whole report run, not just the one user.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrRender marks a template or output failure while writing the
	// report artifact. The assembled report value itself is not lost.
	ErrRender = errors.New("render failed")
)
