package client

import "errors"

var (
	ErrUnavailable = errors.New("photo api unavailable")
	ErrNoTokens    = errors.New("no tokens configured")
)
