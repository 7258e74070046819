package appointment

import "errors"

var (
	ErrNotFound           = errors.New("appointment not found")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrProductNotFound    = errors.New("service product not found")
	ErrInvalidStatus      = errors.New("invalid appointment status")
	ErrInvalidDate        = errors.New("invalid appointment date")
	ErrInvalidTime        = errors.New("invalid appointment time")
	ErrNoServices         = errors.New("appointment must have at least one service")
	ErrInvalidPackageLink = errors.New("invalid treatment package link")
	ErrTechnicianBusy     = errors.New("technician is already booked in this time window")
	ErrBedBusy            = errors.New("bed is already booked in this time window")
)
