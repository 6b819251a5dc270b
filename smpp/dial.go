package smpp

import (
	"crypto/tls"
	"net"
	"time"
)

const dialKeepAlive = 30 * time.Second

var DefaultDial = TcpDial(0)

// Dial opens the transport to an SMSC address.
type Dial func(addr string) (net.Conn, error)

func newDialer(timeout time.Duration) *net.Dialer {
	return &net.Dialer{Timeout: timeout, KeepAlive: dialKeepAlive}
}

func TcpDial(timeout time.Duration) Dial {
	return func(addr string) (net.Conn, error) {
		return newDialer(timeout).Dial("tcp", addr)
	}
}

// TlsDial verifies the peer certificate. ServerName falls back to the host of the address.
func TlsDial(conf *tls.Config, timeout time.Duration) Dial {
	return func(addr string) (net.Conn, error) {
		tc := &tls.Config{}
		if conf != nil {
			tc = conf.Clone()
		}
		if tc.ServerName == "" && !tc.InsecureSkipVerify {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			tc.ServerName = host
		}
		return tls.DialWithDialer(newDialer(timeout), "tcp", addr, tc)
	}
}
