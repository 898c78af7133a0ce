package load

import "errors"

var (
	ErrLoadNotFound  = errors.New("load not found")
	ErrStaleStatus   = errors.New("load status changed since read")
	ErrInvalidStatus = errors.New("invalid load status")
)
