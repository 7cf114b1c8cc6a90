package types

import "errors"

var (
	ErrFoodUnavailable = errors.New("food is not available")
	ErrRequestNotFound = errors.New("food request not found")
	ErrInvalidStatus   = errors.New("invalid food status")
)
