package client

import (
	"context"
)

// MockSenderClient never touches the network, every send is answered by the generator.
type MockSenderClient struct {
	name      string
	generator ResultGenerator
}

func NewMockSenderClient(name string, generator ResultGenerator) *MockSenderClient {
	if generator == nil {
		generator = AlwaysSuccessGenerator{}
	}
	return &MockSenderClient{name: name, generator: generator}
}

func (c *MockSenderClient) ID() string {
	return c.name
}

func (c *MockSenderClient) Setup() error {
	return nil
}

func (c *MockSenderClient) Send(ctx context.Context, msg Message) MessageResponse {
	if err := msg.Validate(0); err != nil {
		return ErrorResponse(msg, c.name, CodeInvalidParam, err)
	}
	return c.generator.Generate(c.name, msg)
}

func (c *MockSenderClient) Close() error {
	return nil
}
