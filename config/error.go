package config

import (
	"errors"
	"fmt"
)

var (
	ErrUnrecognizedMode = errors.New("unrecognized connection mode")
	ErrMissingDefault   = errors.New("connection mode is set neither on the connection nor in defaults")
)

type UnrecognizedModeError struct {
	Name  string
	Value string
}

func (e *UnrecognizedModeError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("unrecognized connection mode %q", e.Value)
	}
	return fmt.Sprintf("connection %s: unrecognized connection mode %q", e.Name, e.Value)
}

func (e *UnrecognizedModeError) Unwrap() error {
	return ErrUnrecognizedMode
}
