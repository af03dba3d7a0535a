package domain

import "errors"

var (
	ErrNoPairs             = errors.New("يجب اختيار زوج واحد على الأقل")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrMalformedResponse   = errors.New("malformed upstream response")
	ErrPriceTimeout        = errors.New("price request timed out")
	ErrChannelNotFound     = errors.New("channel not found")
)

// ValidationError is the only failure an analysis request reports to its caller.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
