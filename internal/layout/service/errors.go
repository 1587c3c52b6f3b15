package service

import "errors"

var (
	ErrUnknownPage       = errors.New("unknown page")
	ErrUnknownCard       = errors.New("unknown card")
	ErrInvalidBreakpoint = errors.New("invalid breakpoint")
	ErrMobileMode        = errors.New("grid layout is not available below mobile width")
)
