package client

import (
	"strings"
)

const (
	TonUnknown         byte = 0
	TonInternational   byte = 1
	TonNetworkSpecific byte = 3
	TonAlphanumeric    byte = 5

	NpiUnknown byte = 0
	NpiIsdn    byte = 1
)

// TypeOfAddressParser picks TON and NPI for the addresses of outgoing messages.
type TypeOfAddressParser interface {
	Source(addr string) (ton byte, npi byte)
	Destination(addr string) (ton byte, npi byte)
}

// DefaultTypeOfAddressParser treats letters as alphanumeric sender ids,
// numbers up to ShortCodeLength digits as short codes and the rest as E.164.
type DefaultTypeOfAddressParser struct {
	ShortCodeLength int
}

func NewDefaultTypeOfAddressParser() *DefaultTypeOfAddressParser {
	return &DefaultTypeOfAddressParser{ShortCodeLength: 8}
}

func (p *DefaultTypeOfAddressParser) Source(addr string) (byte, byte) {
	return p.classify(addr)
}

func (p *DefaultTypeOfAddressParser) Destination(addr string) (byte, byte) {
	return p.classify(addr)
}

func (p *DefaultTypeOfAddressParser) classify(addr string) (byte, byte) {
	addr = strings.TrimPrefix(strings.TrimSpace(addr), "+")
	if !isDigits(addr) {
		return TonAlphanumeric, NpiUnknown
	}
	if len(addr) <= p.ShortCodeLength {
		return TonNetworkSpecific, NpiUnknown
	}
	return TonInternational, NpiIsdn
}

type UnknownTypeOfAddressParser struct{}

func (UnknownTypeOfAddressParser) Source(string) (byte, byte) {
	return TonUnknown, NpiUnknown
}

func (UnknownTypeOfAddressParser) Destination(string) (byte, byte) {
	return TonUnknown, NpiUnknown
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
