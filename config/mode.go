package config

import (
	"strconv"
	"strings"
)

// ConnectionMode selects which clients a connection gets.
type ConnectionMode int

const (
	ModeUnset ConnectionMode = iota
	ModeMock
	ModeTest
	ModeStandard
)

var modeNames = map[ConnectionMode]string{
	ModeMock:     "mock",
	ModeTest:     "test",
	ModeStandard: "standard",
}

func ParseConnectionMode(s string) (ConnectionMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeUnset, nil
	}
	for mode, name := range modeNames {
		if name == s {
			return mode, nil
		}
	}
	return ModeUnset, &UnrecognizedModeError{Value: s}
}

func (m ConnectionMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	if m == ModeUnset {
		return "unset"
	}
	return "mode(" + strconv.Itoa(int(m)) + ")"
}

func (m ConnectionMode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

func (m *ConnectionMode) UnmarshalText(text []byte) error {
	mode, err := ParseConnectionMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

func (m ConnectionMode) MarshalText() ([]byte, error) {
	if m == ModeUnset {
		return []byte{}, nil
	}
	if !m.Valid() {
		return nil, &UnrecognizedModeError{Value: m.String()}
	}
	return []byte(m.String()), nil
}
