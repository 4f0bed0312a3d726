package model

import "errors"

var (
	ErrUnknownCountry    = errors.New("unknown country")
	ErrUnknownCurrency   = errors.New("unknown currency")
	ErrUnknownAgeBracket = errors.New("unknown age bracket")
	ErrUnknownFee        = errors.New("unknown fee name")
	ErrFeeNotConfigured  = errors.New("fee not configured")
	ErrInvalidRate       = errors.New("invalid exchange rate")
	ErrNotInteger        = errors.New("not an integer")
	ErrNotNumber         = errors.New("not a number")
	ErrOutOfRange        = errors.New("value out of range")
)
