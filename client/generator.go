package client

import (
	"errors"
	"math/rand"

	"github.com/google/uuid"
)

// ResultGenerator fabricates send results for connections that do not reach a real SMSC.
type ResultGenerator interface {
	Generate(smscName string, msg Message) MessageResponse
}

type ResultGeneratorFunc func(smscName string, msg Message) MessageResponse

func (f ResultGeneratorFunc) Generate(smscName string, msg Message) MessageResponse {
	return f(smscName, msg)
}

type AlwaysSuccessGenerator struct{}

func (AlwaysSuccessGenerator) Generate(smscName string, msg Message) MessageResponse {
	return SuccessResponse(msg, smscName, uuid.NewString())
}

var ErrGeneratedFailure = errors.New("generated failure")

// RandomGenerator fails a FailureRatio share of the messages.
type RandomGenerator struct {
	FailureRatio float64
}

func (g RandomGenerator) Generate(smscName string, msg Message) MessageResponse {
	if rand.Float64() < g.FailureRatio {
		return ErrorResponse(msg, smscName, CodeRejected, ErrGeneratedFailure)
	}
	return SuccessResponse(msg, smscName, uuid.NewString())
}
