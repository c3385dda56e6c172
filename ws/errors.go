package ws

import (
	"github.com/pkg/errors"
)

var (
	ErrConnectionClosed = errors.New("connection has been closed")
	ErrCannotConnect    = errors.New("connection cannot be established")
	ErrTerminated       = errors.New("program exit")
	ErrRateLimit        = errors.New("rate limit exceeded")
	ErrNotOpen          = errors.New("connection is not open")
	ErrAlreadyOpen      = errors.New("connection already opened")
)
