package workflow

import "errors"

var (
	ErrCheckoutInProgress   = errors.New("checkout already in progress")
	ErrNoCheckoutInProgress = errors.New("no checkout in progress")
	ErrIllegalTransition    = errors.New("illegal workflow transition")
)
