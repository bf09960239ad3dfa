package domain

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrNoData      = errors.New("no fresh data")
	ErrInvalidRule = errors.New("invalid watch parameters")
)
