package treatment

import "errors"

var (
	ErrNotFound         = errors.New("treatment package not found")
	ErrProductNotFound  = errors.New("treatment product not found")
	ErrNotTreatment     = errors.New("product is not a treatment")
	ErrInvalidSessions  = errors.New("treatment must have at least one session")
	ErrInvalidLink      = errors.New("service does not reference a valid package session item")
	ErrPackageOwner     = errors.New("treatment package belongs to another customer")
	ErrPackageItemInUse = errors.New("package session item is already used")
)
