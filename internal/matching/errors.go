package matching

import "errors"

var (
	ErrInvalidSide      = errors.New("invalid order side")
	ErrInvalidQty       = errors.New("invalid order quantity")
	ErrInvalidPrice     = errors.New("invalid order price")
	ErrPriceNotOnTick   = errors.New("price is not a multiple of the tick size")
	ErrDuplicateOrderID = errors.New("order id is already resting in the book")
	ErrOrderNotFound    = errors.New("order not found")
)
