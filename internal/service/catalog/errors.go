package catalog

import "errors"

var (
	ErrNotFound           = errors.New("product not found")
	ErrInvalidProduct     = errors.New("invalid product")
	ErrInvalidStockChange = errors.New("invalid stock change")
)
