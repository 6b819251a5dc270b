package smpp

import (
	"errors"
	"fmt"

	"github.com/linxGnu/gosmpp/data"
)

var (
	ErrBindFailed      = errors.New("bind failed")
	ErrAuthFailed      = errors.New("auth failed")
	ErrWindowFull      = errors.New("window full")
	ErrNotAllowed      = errors.New("not allowed")
	ErrSessionClosed   = errors.New("session closed")
	ErrResponseTimeout = errors.New("response timeout")
	ErrConnectionIsNil = errors.New("connection is nil")
)

type StatusError struct {
	status data.CommandStatusType
}

func NewStatusError(status data.CommandStatusType) *StatusError {
	return &StatusError{status: status}
}

func (e *StatusError) Status() data.CommandStatusType {
	return e.status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("(%d) %s", e.status, e.status.Desc())
}
