package smpp

import (
	"fmt"
	"net"
	"time"

	"github.com/linxGnu/gosmpp/data"
	"github.com/linxGnu/gosmpp/pdu"
)

type ServerConnection struct {
	conf     *ServerConnectionConfig
	conn     net.Conn
	systemId string
	bindType pdu.BindingType
	selfAddr string
	peerAddr string
}

type ServerConnectionConfig struct {
	Authenticate ServerConnectionAuthenticate
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type ServerConnectionAuthenticate func(conn *ServerConnection, systemId string, password string) data.CommandStatusType

func NewServerConnection(conn net.Conn, conf ServerConnectionConfig) *ServerConnection {
	return &ServerConnection{conn: conn, conf: &conf}
}

func (c *ServerConnection) SelfAddr() string {
	return c.selfAddr
}

func (c *ServerConnection) PeerAddr() string {
	return c.peerAddr
}

func (c *ServerConnection) SetDeadline(t time.Time) error {
	if c.conn == nil {
		return ErrConnectionIsNil
	}
	return c.conn.SetDeadline(t)
}

func (c *ServerConnection) SystemId() string {
	return c.systemId
}

func (c *ServerConnection) BindType() pdu.BindingType {
	return c.bindType
}

func (c *ServerConnection) Dial() error {
	err := c.dial()
	if err != nil && c.conn != nil {
		_ = c.conn.Close()
	}
	return err
}

func (c *ServerConnection) dial() error {
	if c.conn == nil {
		return ErrConnectionIsNil
	}

	c.selfAddr, c.peerAddr = ConnAddrs(c.conn)

	br, err := c.readBind()
	if err != nil {
		return err
	}

	c.systemId = br.SystemID
	c.bindType = br.BindingType

	var status data.CommandStatusType = data.ESME_ROK
	if c.conf.Authenticate != nil {
		status = c.conf.Authenticate(c, br.SystemID, br.Password)
	}

	brp := br.GetResponse().(*pdu.BindResp)

	// A rejected bind carries no body. gosmpp still reads system_id from a
	// rejected bind_transceiver_resp, so that one keeps it.
	if status != data.ESME_ROK {
		if brp.CommandID == data.BIND_TRANSCEIVER_RESP {
			brp.CommandStatus = status
			_, err = c.Write(brp)
		} else {
			_, err = ConnWriteStatus(c.conn, brp, status, c.conf.WriteTimeout)
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrAuthFailed, c.systemId)
	}

	_, err = c.Write(brp)
	return err
}

// readBind waits for the bind request, requests sent before it are refused with ESME_RINVBNDSTS.
func (c *ServerConnection) readBind() (*pdu.BindRequest, error) {
	for i := 0; i < 3; i++ {
		p, err := c.Read()
		if err != nil {
			return nil, err
		}
		if br, ok := p.(*pdu.BindRequest); ok {
			return br, nil
		}
		if p.CanResponse() {
			if _, err = ConnWriteStatus(c.conn, p.GetResponse(), data.ESME_RINVBNDSTS, c.conf.WriteTimeout); err != nil {
				return nil, err
			}
		}
	}
	return nil, ErrBindFailed
}

func (c *ServerConnection) Read() (pdu.PDU, error) {
	return ConnRead(c.conn, c.conf.ReadTimeout)
}

func (c *ServerConnection) Write(pd pdu.PDU) (int, error) {
	return ConnWrite(c.conn, pd, c.conf.WriteTimeout)
}

func (c *ServerConnection) Close(bye bool) error {
	return ConnClose(c.conn, bye)
}
