package connection

import (
	"context"
	"errors"

	"github.com/yyliziqiu/smsc/client"
)

// SmscConnection pairs the clients of one named SMSC. It is immutable once built.
type SmscConnection struct {
	name     string
	sender   client.SenderClient
	response client.ResponseClient
}

func newSmscConnection(name string, sender client.SenderClient, response client.ResponseClient) *SmscConnection {
	return &SmscConnection{name: name, sender: sender, response: response}
}

func (c *SmscConnection) Name() string {
	return c.name
}

func (c *SmscConnection) Sender() client.SenderClient {
	return c.sender
}

// Response is nil in mock mode.
func (c *SmscConnection) Response() client.ResponseClient {
	return c.response
}

func (c *SmscConnection) Send(ctx context.Context, msg client.Message) client.MessageResponse {
	return c.sender.Send(ctx, msg)
}

// Setup prepares the sessions of a connection built without setup.
func (c *SmscConnection) Setup(consumer client.DeliveryReportConsumer) error {
	return setupClients(c.sender, c.response, consumer, true)
}

func (c *SmscConnection) Close() error {
	var errs []error
	if c.response != nil {
		errs = append(errs, c.response.Close())
	}
	errs = append(errs, c.sender.Close())
	return errors.Join(errs...)
}
