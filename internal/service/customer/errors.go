package customer

import "errors"

var (
	ErrNotFound      = errors.New("customer not found")
	ErrInvalidPhone  = errors.New("invalid phone number")
	ErrPhoneRequired = errors.New("customer id or phone number is required")
)
