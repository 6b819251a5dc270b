package client

import (
	"fmt"

	"github.com/linxGnu/gosmpp/pdu"

	"github.com/yyliziqiu/smsc/config"
	"github.com/yyliziqiu/smsc/smpp"
)

// DialFunc opens the transport of a client, tests swap it for a pipe.
type DialFunc func(conf config.Effective) smpp.Dial

func DefaultDialFunc(conf config.Effective) smpp.Dial {
	if conf.UseTLS {
		return smpp.TlsDial(nil, conf.BindTimeout)
	}
	return smpp.TcpDial(conf.BindTimeout)
}

var bindTypes = map[string]pdu.BindingType{
	"transmitter": pdu.Transmitter,
	"receiver":    pdu.Receiver,
	"transceiver": pdu.Transceiver,
}

func bindSession(conf config.Effective, dial DialFunc, bindType string, sc smpp.SessionConfig) (*smpp.Session, error) {
	if dial == nil {
		dial = DefaultDialFunc
	}

	conn := smpp.NewClientConnection(smpp.ClientConnectionConfig{
		Dial:        dial(conf),
		Smsc:        conf.Addr(),
		SystemId:    conf.Username,
		Password:    conf.Password,
		BindType:    bindTypes[bindType],
		SystemType:  conf.SystemType,
		BindTimeout: conf.BindTimeout,
	})

	sc.EnquireLink = conf.EnquireLink
	sc.AttemptDial = conf.RebindPeriod
	sc.WindowSize = conf.WindowSize
	sc.WindowWait = conf.RequestTimeout

	sess, err := smpp.NewSession(conn, sc)
	if err != nil {
		return nil, fmt.Errorf("bind as %s to %s: %w", bindType, conf.Addr(), err)
	}

	return sess, nil
}
