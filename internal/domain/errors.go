package domain

import "errors"

var (
	ErrSessionClosed    = errors.New("session is closed")
	ErrConnectExhausted = errors.New("connect attempts exhausted")
)
