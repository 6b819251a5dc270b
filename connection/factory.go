package connection

import (
	"fmt"
	"sync"

	"github.com/yyliziqiu/smsc/client"
	"github.com/yyliziqiu/smsc/config"
	"github.com/yyliziqiu/smsc/util"
)

// Factory builds the ConnectionsHolder of a process. The build runs once,
// later calls return the cached result.
type Factory struct {
	props     *config.Properties
	generator client.ResultGenerator
	consumer  client.DeliveryReportConsumer
	parser    client.TypeOfAddressParser
	clients   client.ClientFactory

	once   sync.Once
	holder *ConnectionsHolder
	err    error
}

func NewFactory(props *config.Properties, generator client.ResultGenerator, consumer client.DeliveryReportConsumer, parser client.TypeOfAddressParser, clients client.ClientFactory) *Factory {
	if generator == nil {
		generator = client.AlwaysSuccessGenerator{}
	}
	if consumer == nil {
		consumer = client.NullDeliveryReportConsumer{}
	}
	if parser == nil {
		parser = client.NewDefaultTypeOfAddressParser()
	}
	if clients == nil {
		clients = client.NewDefaultClientFactory()
	}
	return &Factory{
		props:     props,
		generator: generator,
		consumer:  consumer,
		parser:    parser,
		clients:   clients,
	}
}

func (f *Factory) Holder() (*ConnectionsHolder, error) {
	f.once.Do(func() {
		f.holder, f.err = f.build()
	})
	return f.holder, f.err
}

func (f *Factory) build() (*ConnectionsHolder, error) {
	if f.props == nil {
		return newConnectionsHolder(nil), nil
	}

	// Resolve everything first so a bad mode fails before any session is bound.
	names := f.props.OrderedNames()
	effs := make([]config.Effective, 0, len(names))
	for _, name := range names {
		smsc := f.props.Connections[name]
		if smsc == nil {
			return nil, fmt.Errorf("connection %s: empty configuration", name)
		}
		eff, err := config.Resolve(name, f.props.Defaults, *smsc)
		if err != nil {
			return nil, err
		}
		if !eff.Mode.Valid() {
			return nil, &config.UnrecognizedModeError{Name: name, Value: eff.Mode.String()}
		}
		effs = append(effs, eff)
	}

	list := make([]*SmscConnection, 0, len(effs))
	for _, eff := range effs {
		conn, err := f.buildConnection(eff)
		if err != nil {
			return nil, f.abort(list, eff.Name, err)
		}

		err = setupClients(conn.sender, conn.response, f.consumer, f.props.SetupRightAway)
		if err != nil {
			return nil, f.abort(append(list, conn), eff.Name, err)
		}

		list = append(list, conn)

		util.LogInfo("[ConnectionFactory] Connection %s built, mode: %s, setup: %t", eff.Name, eff.Mode, f.props.SetupRightAway && conn.response != nil)
	}

	return newConnectionsHolder(list), nil
}

// abort closes what was built so far, no partial holder survives a failure.
func (f *Factory) abort(list []*SmscConnection, name string, err error) error {
	util.LogError("[ConnectionFactory] Build connection %s failed, error: %v", name, err)
	if cerr := closeAll(list); cerr != nil {
		util.LogWarn("[ConnectionFactory] Close built connections failed, error: %v", cerr)
	}
	return fmt.Errorf("connection %s: %w", name, err)
}

func (f *Factory) buildConnection(eff config.Effective) (*SmscConnection, error) {
	switch eff.Mode {
	case config.ModeMock:
		return newSmscConnection(eff.Name, f.clients.MockSender(eff.Name, f.generator), nil), nil
	case config.ModeStandard:
		return newSmscConnection(eff.Name, f.clients.StandardSender(eff, f.parser), f.clients.StandardResponse(eff)), nil
	case config.ModeTest:
		standard := f.clients.StandardSender(eff, f.parser)
		return newSmscConnection(eff.Name, f.clients.TestSender(standard, eff, f.generator), f.clients.StandardResponse(eff)), nil
	}
	return nil, &config.UnrecognizedModeError{Name: eff.Name, Value: eff.Mode.String()}
}
