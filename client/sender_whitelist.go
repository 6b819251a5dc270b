package client

import (
	"context"
	"strings"

	"github.com/yyliziqiu/smsc/config"
)

// TestSenderClient forwards messages for whitelisted phones to the real
// sender and answers everything else with the generator.
type TestSenderClient struct {
	name      string
	delegate  SenderClient
	generator ResultGenerator
	allowed   map[string]struct{}
}

func NewTestSenderClient(delegate SenderClient, conf config.Effective, generator ResultGenerator) *TestSenderClient {
	if generator == nil {
		generator = AlwaysSuccessGenerator{}
	}

	allowed := make(map[string]struct{}, len(conf.AllowedPhones))
	for _, phone := range conf.AllowedPhones {
		allowed[normalizePhone(phone)] = struct{}{}
	}

	return &TestSenderClient{
		name:      conf.Name,
		delegate:  delegate,
		generator: generator,
		allowed:   allowed,
	}
}

func (c *TestSenderClient) ID() string {
	return c.name
}

func (c *TestSenderClient) Delegate() SenderClient {
	return c.delegate
}

func (c *TestSenderClient) Setup() error {
	return c.delegate.Setup()
}

func (c *TestSenderClient) Allowed(msisdn string) bool {
	_, ok := c.allowed[normalizePhone(msisdn)]
	return ok
}

func (c *TestSenderClient) Send(ctx context.Context, msg Message) MessageResponse {
	if c.Allowed(msg.Msisdn) {
		return c.delegate.Send(ctx, msg)
	}
	if err := msg.Validate(0); err != nil {
		return ErrorResponse(msg, c.name, CodeInvalidParam, err)
	}
	return c.generator.Generate(c.name, msg)
}

func (c *TestSenderClient) Close() error {
	return c.delegate.Close()
}

func normalizePhone(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "+")
}
