package model

import "errors"

// Validation error kinds surfaced by Create requests. Handlers map
// these to 400s; everything else is a storage or lifecycle failure
// owned by the repository and service layers.
var (
	ErrMissingField    = errors.New("required field is missing")
	ErrInvalidLocation = errors.New("location is not served")
	ErrInvalidPhone    = errors.New("phone number is not acceptable")
	ErrInvalidAmount   = errors.New("amount is not acceptable")
	ErrInvalidCurrency = errors.New("currency is not supported")
	ErrInvalidMode     = errors.New("recovery mode is not supported")
)

// IsValidationError reports whether err belongs to the request
// validation taxonomy above.
func IsValidationError(err error) bool {
	for _, kind := range []error{
		ErrMissingField,
		ErrInvalidLocation,
		ErrInvalidPhone,
		ErrInvalidAmount,
		ErrInvalidCurrency,
		ErrInvalidMode,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
