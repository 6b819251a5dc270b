package client

import (
	"github.com/yyliziqiu/smsc/config"
)

// ClientFactory constructs the clients of a connection.
type ClientFactory interface {
	MockSender(name string, generator ResultGenerator) SenderClient
	StandardSender(conf config.Effective, parser TypeOfAddressParser) SenderClient
	TestSender(delegate SenderClient, conf config.Effective, generator ResultGenerator) SenderClient
	StandardResponse(conf config.Effective) ResponseClient
}

type DefaultClientFactory struct {
	Dial DialFunc
}

func NewDefaultClientFactory() *DefaultClientFactory {
	return &DefaultClientFactory{Dial: DefaultDialFunc}
}

func (f *DefaultClientFactory) MockSender(name string, generator ResultGenerator) SenderClient {
	return NewMockSenderClient(name, generator)
}

func (f *DefaultClientFactory) StandardSender(conf config.Effective, parser TypeOfAddressParser) SenderClient {
	return NewStandardSenderClient(conf, parser, f.Dial)
}

func (f *DefaultClientFactory) TestSender(delegate SenderClient, conf config.Effective, generator ResultGenerator) SenderClient {
	return NewTestSenderClient(delegate, conf, generator)
}

func (f *DefaultClientFactory) StandardResponse(conf config.Effective) ResponseClient {
	return NewStandardResponseClient(conf, f.Dial)
}
