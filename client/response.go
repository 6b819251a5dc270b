package client

import (
	"sync"

	"github.com/yyliziqiu/smsc/config"
	"github.com/yyliziqiu/smsc/smpp"
	"github.com/yyliziqiu/smsc/util"
)

// StandardResponseClient binds as a receiver and hands incoming pdus to its handler.
type StandardResponseClient struct {
	conf    config.Effective
	dial    DialFunc
	sess    *smpp.Session
	handler *ResponseSessionHandler
	closed  bool
	mu      sync.Mutex
}

func NewStandardResponseClient(conf config.Effective, dial DialFunc) *StandardResponseClient {
	return &StandardResponseClient{conf: conf, dial: dial}
}

func (c *StandardResponseClient) ID() string {
	return c.conf.Name
}

func (c *StandardResponseClient) Handler() *ResponseSessionHandler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler
}

func (c *StandardResponseClient) Setup(handler *ResponseSessionHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	if c.sess != nil {
		return nil
	}

	sess, err := bindSession(c.conf, c.dial, "receiver", smpp.SessionConfig{
		OnReceive: handler.HandlePdu,
		OnClosed: func(sess *smpp.Session, reason string, desc string) {
			util.LogInfo("[ResponseClient@%s] Session %s closed, reason: %s, desc: %s", c.conf.Name, sess.Id(), reason, desc)
		},
	})
	if err != nil {
		return err
	}
	c.sess = sess
	c.handler = handler

	util.LogInfo("[ResponseClient@%s] Bound to %s", c.conf.Name, c.conf.Addr())

	return nil
}

func (c *StandardResponseClient) Close() error {
	c.mu.Lock()
	sess := c.sess
	c.sess = nil
	c.closed = true
	c.mu.Unlock()

	if sess != nil {
		sess.Close()
		util.LogInfo("[ResponseClient@%s] Closed", c.conf.Name)
	}
	return nil
}
