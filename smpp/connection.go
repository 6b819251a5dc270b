package smpp

import (
	"encoding/binary"
	"net"
	"time"

	"github.com/linxGnu/gosmpp/data"
	"github.com/linxGnu/gosmpp/pdu"
)

const headerLen = 16

type Connection interface {
	SelfAddr() string
	PeerAddr() string
	SetDeadline(time.Time) error
	SystemId() string
	BindType() pdu.BindingType
	Dial() error
	Read() (pdu.PDU, error)
	Write(pdu.PDU) (int, error)
	Close(bool) error
}

func ConnAddrs(conn net.Conn) (string, string) {
	return conn.LocalAddr().String(), conn.RemoteAddr().String()
}

func ConnRead(conn net.Conn, timeout time.Duration) (pdu.PDU, error) {
	if timeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, err
		}
	}

	return pdu.Parse(conn)
}

func ConnWrite(conn net.Conn, pd pdu.PDU, timeout time.Duration) (int, error) {
	buf := pdu.NewBuffer(make([]byte, 0, 32))
	pd.Marshal(buf)

	if timeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return 0, err
		}
	}

	return conn.Write(buf.Bytes())
}

// ConnWriteStatus writes the header of p alone with status set, the form of a negative response.
func ConnWriteStatus(conn net.Conn, p pdu.PDU, status data.CommandStatusType, timeout time.Duration) (int, error) {
	buf := pdu.NewBuffer(make([]byte, 0, 32))
	p.Marshal(buf)

	b := buf.Bytes()[:headerLen]
	binary.BigEndian.PutUint32(b[0:4], headerLen)
	binary.BigEndian.PutUint32(b[8:12], uint32(status))

	if timeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return 0, err
		}
	}

	return conn.Write(b)
}

func ConnClose(conn net.Conn, bye bool) error {
	if conn == nil {
		return nil
	}
	if bye {
		// Send unbind and close without waiting for unbind_resp, the short
		// sleep keeps the peer from resetting while it answers.
		_, _ = ConnWrite(conn, pdu.NewUnbind(), 100*time.Millisecond)
		time.Sleep(100 * time.Millisecond)
	}
	return conn.Close()
}

// ============ Client ============

type ClientConnection struct {
	conf     *ClientConnectionConfig
	conn     net.Conn
	selfAddr string
	peerAddr string
}

type ClientConnectionConfig struct {
	Dial         Dial
	Smsc         string
	SystemId     string
	Password     string
	BindType     pdu.BindingType
	SystemType   string
	AddressRange pdu.AddressRange
	BindTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func NewClientConnection(conf ClientConnectionConfig) *ClientConnection {
	if conf.Dial == nil {
		conf.Dial = DefaultDial
	}
	return &ClientConnection{conf: &conf}
}

func (c *ClientConnection) SelfAddr() string {
	return c.selfAddr
}

func (c *ClientConnection) PeerAddr() string {
	return c.peerAddr
}

func (c *ClientConnection) SetDeadline(t time.Time) error {
	if c.conn == nil {
		return ErrConnectionIsNil
	}
	return c.conn.SetDeadline(t)
}

func (c *ClientConnection) SystemId() string {
	return c.conf.SystemId
}

func (c *ClientConnection) BindType() pdu.BindingType {
	return c.conf.BindType
}

func (c *ClientConnection) Dial() error {
	if c.conn != nil {
		_ = c.conn.Close()
	}

	var err error
	c.conn, err = c.conf.Dial(c.conf.Smsc)
	if err != nil {
		return err
	}

	c.selfAddr, c.peerAddr = ConnAddrs(c.conn)

	err = c.bind()
	if err != nil {
		_ = c.conn.Close()
		return err
	}

	return nil
}

func (c *ClientConnection) bind() error {
	if c.conf.BindTimeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.conf.BindTimeout)); err != nil {
			return err
		}
		defer func() { _ = c.conn.SetDeadline(time.Time{}) }()
	}

	bp := pdu.NewBindRequest(c.conf.BindType)
	bp.SystemID = c.conf.SystemId
	bp.Password = c.conf.Password
	bp.SystemType = c.conf.SystemType
	bp.AddressRange = c.conf.AddressRange

	_, err := c.Write(bp)
	if err != nil {
		return err
	}

	// The peer may interleave a few other PDUs before the bind response.
	var (
		p  pdu.PDU
		rp *pdu.BindResp
		ok bool
	)
	for i := 0; i < 3; i++ {
		p, err = c.Read()
		if err != nil {
			return err
		}
		rp, ok = p.(*pdu.BindResp)
		if ok {
			break
		}
	}

	if !ok || bp.GetSequenceNumber() != rp.GetSequenceNumber() {
		return ErrBindFailed
	}

	if rp.CommandStatus != data.ESME_ROK {
		return NewStatusError(rp.CommandStatus)
	}

	return nil
}

func (c *ClientConnection) Read() (pdu.PDU, error) {
	return ConnRead(c.conn, c.conf.ReadTimeout)
}

func (c *ClientConnection) Write(pd pdu.PDU) (int, error) {
	return ConnWrite(c.conn, pd, c.conf.WriteTimeout)
}

func (c *ClientConnection) Close(bye bool) error {
	return ConnClose(c.conn, bye)
}
