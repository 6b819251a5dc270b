package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/linxGnu/gosmpp/data"
	"github.com/linxGnu/gosmpp/pdu"

	"github.com/yyliziqiu/smsc/config"
	"github.com/yyliziqiu/smsc/smpp"
	"github.com/yyliziqiu/smsc/util"
)

const (
	esmDatagram           byte = 0x01
	esmUdhi               byte = 0x40
	pidSilent             byte = 0x40
	dlrRequested          byte = 0x01
	dlrNotWanted          byte = 0x00
	defaultRequestTimeout      = 10 * time.Second
)

// StandardSenderClient binds as a transmitter and submits messages over SMPP.
type StandardSenderClient struct {
	conf   config.Effective
	parser TypeOfAddressParser
	dial   DialFunc
	sess   *smpp.Session
	closed bool
	mu     sync.RWMutex
}

func NewStandardSenderClient(conf config.Effective, parser TypeOfAddressParser, dial DialFunc) *StandardSenderClient {
	if parser == nil {
		parser = NewDefaultTypeOfAddressParser()
	}
	return &StandardSenderClient{conf: conf, parser: parser, dial: dial}
}

func (c *StandardSenderClient) ID() string {
	return c.conf.Name
}

func (c *StandardSenderClient) Setup() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	if c.sess != nil {
		return nil
	}

	sess, err := bindSession(c.conf, c.dial, "transmitter", smpp.SessionConfig{
		OnRespond: func(_ *smpp.Session, resp *smpp.Response) {
			if ch, ok := resp.TraceData().(chan *smpp.Response); ok {
				ch <- resp
			}
		},
		OnClosed: func(sess *smpp.Session, reason string, desc string) {
			util.LogInfo("[SenderClient@%s] Session %s closed, reason: %s, desc: %s", c.conf.Name, sess.Id(), reason, desc)
		},
	})
	if err != nil {
		return err
	}
	c.sess = sess

	util.LogInfo("[SenderClient@%s] Bound to %s", c.conf.Name, c.conf.Addr())

	return nil
}

func (c *StandardSenderClient) session() *smpp.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess
}

func (c *StandardSenderClient) Send(ctx context.Context, msg Message) MessageResponse {
	if err := msg.Validate(c.conf.MaxLength); err != nil {
		return ErrorResponse(msg, c.conf.Name, CodeInvalidParam, err)
	}

	sess := c.session()
	if sess == nil {
		return ErrorResponse(msg, c.conf.Name, CodeNotBound, ErrNotSetup)
	}

	parts, err := c.buildSubmitSM(msg)
	if err != nil {
		return ErrorResponse(msg, c.conf.Name, CodeInvalidParam, err)
	}

	// Every segment gets its own id, the first one identifies the message.
	var smscID string
	for i, p := range parts {
		id, code, err := c.submit(ctx, sess, p)
		if err != nil {
			util.LogWarn("[SenderClient@%s] Submit failed, to: %s, segment: %d/%d, error: %v", c.conf.Name, msg.Msisdn, i+1, len(parts), err)
			return ErrorResponse(msg, c.conf.Name, code, err)
		}
		if i == 0 {
			smscID = id
		}
	}

	util.LogDebug("[SenderClient@%s] Submitted, to: %s, smsc id: %s, segments: %d", c.conf.Name, msg.Msisdn, smscID, len(parts))

	return SuccessResponse(msg, c.conf.Name, smscID)
}

func (c *StandardSenderClient) submit(ctx context.Context, sess *smpp.Session, p *pdu.SubmitSM) (string, int, error) {
	ch := make(chan *smpp.Response, 1)

	err := sess.Write(p, ch)
	if err != nil {
		if errors.Is(err, smpp.ErrSessionClosed) {
			return "", CodeNotBound, err
		}
		return "", CodeSendFailed, err
	}

	timer := time.NewTimer(c.requestTimeout())
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp.Error != nil {
			if errors.Is(resp.Error, smpp.ErrResponseTimeout) {
				return "", CodeTimeout, resp.Error
			}
			return "", CodeSendFailed, resp.Error
		}
		rp, ok := resp.Pdu.(*pdu.SubmitSMResp)
		if !ok {
			return "", CodeSendFailed, ErrUnexpectedResponse
		}
		if rp.CommandStatus != data.ESME_ROK {
			return "", CodeRejected, smpp.NewStatusError(rp.CommandStatus)
		}
		return rp.MessageID, 0, nil
	case <-timer.C:
		return "", CodeTimeout, smpp.ErrResponseTimeout
	case <-ctx.Done():
		return "", CodeTimeout, ctx.Err()
	}
}

func (c *StandardSenderClient) requestTimeout() time.Duration {
	if c.conf.RequestTimeout > 0 {
		return c.conf.RequestTimeout
	}
	return defaultRequestTimeout
}

func (c *StandardSenderClient) buildSubmitSM(msg Message) ([]*pdu.SubmitSM, error) {
	sourceTon, sourceNpi := c.parser.Source(msg.Source)
	destTon, destNpi := c.parser.Destination(msg.Msisdn)

	newPdu := func(sm pdu.ShortMessage) *pdu.SubmitSM {
		p := pdu.NewSubmitSM().(*pdu.SubmitSM)
		p.SourceAddr = smpp.Address(sourceTon, sourceNpi, msg.Source)
		p.DestAddr = smpp.Address(destTon, destNpi, msg.Msisdn)
		p.Message = sm
		p.RegisteredDelivery = dlrRequested
		switch msg.Type {
		case MessageDatagram:
			p.EsmClass |= esmDatagram
			p.RegisteredDelivery = dlrNotWanted
		case MessageSilent:
			p.ProtocolID = pidSilent
			p.RegisteredDelivery = dlrNotWanted
		}
		return p
	}

	_, segments, isGsm := smpp.DetectMessage(msg.Text)
	ucs2 := c.conf.Ucs2Only || !isGsm

	if segments <= 1 {
		if ucs2 {
			return []*pdu.SubmitSM{newPdu(smpp.Ucs2Message(msg.Text))}, nil
		}
		return []*pdu.SubmitSM{newPdu(smpp.Gsm7bitMessage(msg.Text))}, nil
	}

	var enc data.Encoding = data.GSM7BIT
	if ucs2 {
		enc = data.UCS2
	}
	sms, err := pdu.NewLongMessageWithEncoding(msg.Text, enc)
	if err != nil {
		return nil, err
	}

	parts := make([]*pdu.SubmitSM, 0, len(sms))
	for _, sm := range sms {
		p := newPdu(*sm)
		p.EsmClass |= esmUdhi
		parts = append(parts, p)
	}

	return parts, nil
}

func (c *StandardSenderClient) Close() error {
	c.mu.Lock()
	sess := c.sess
	c.sess = nil
	c.closed = true
	c.mu.Unlock()

	if sess != nil {
		sess.Close()
		util.LogInfo("[SenderClient@%s] Closed", c.conf.Name)
	}
	return nil
}
