package smpp

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linxGnu/gosmpp/pdu"
	"github.com/yyliziqiu/gdk/xuid"
)

// Session status.
const (
	SessionActive int32 = iota
	SessionClosed
)

// Close reasons passed to OnClosed.
const (
	CloseByError    = "error"
	CloseByPdu      = "pdu"
	CloseByExplicit = "explicit"
)

type Session struct {
	id     string
	conn   Connection
	conf   *SessionConfig
	term   *SessionTerm
	status int32
	closed int32
	done   chan struct{}
	mu     sync.RWMutex
}

// SessionTerm holds the state of one bound period of the session, a redial creates a new term.
type SessionTerm struct {
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	window *MapWindow
	queue  chan *Request
}

type SessionConfig struct {
	Context     any                             // custom user data
	EnquireLink time.Duration                   // heartbeat interval, 0 disables it
	AttemptDial time.Duration                   // redial interval, 0 disables redial
	WindowClear time.Duration                   // interval of the timeout sweep
	WindowSize  int                             // max outstanding requests
	WindowWait  time.Duration                   // request timeout
	OnReceive   func(*Session, pdu.PDU) pdu.PDU // invoked on every requestable pdu from the peer
	OnRespond   func(*Session, *Response)       // invoked on the response or failure of a user request
	OnClosed    func(*Session, string, string)  // invoked once the session is finally closed
}

func NewSession(conn Connection, conf SessionConfig) (*Session, error) {
	if conf.WindowClear == 0 {
		conf.WindowClear = time.Minute
	}
	if conf.WindowSize == 0 {
		conf.WindowSize = 100
	}
	if conf.WindowWait == 0 {
		conf.WindowWait = 10 * time.Minute
	}

	s := &Session{
		id:     xuid.Get(),
		conn:   conn,
		conf:   &conf,
		status: SessionClosed,
		done:   make(chan struct{}),
	}

	err := s.dial()
	if err != nil {
		return nil, err
	}

	_store.add(s)

	return s, nil
}

func (s *Session) dial() error {
	if atomic.LoadInt32(&s.status) == SessionActive {
		return nil
	}

	err := s.conn.Dial()
	if err != nil {
		logWarn("[Session@%s:%s] Dial failed, peer addr: %s, error: %v", s.id, s.SystemId(), s.PeerAddr(), err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	term := &SessionTerm{
		ctx:    ctx,
		cancel: cancel,
		window: NewMapWindow(s.conf.WindowSize, s.conf.WindowWait),
		queue:  make(chan *Request),
	}

	s.mu.Lock()
	s.term = term
	s.mu.Unlock()

	term.wg.Add(3)

	atomic.StoreInt32(&s.status, SessionActive)

	s.loopRead(term)
	s.loopWrite(term)
	s.loopWindow(term)

	logInfo("[Session@%s:%s] Dial succeed, peer addr: %s", s.id, s.SystemId(), s.PeerAddr())

	return nil
}

func (s *Session) currTerm() *SessionTerm {
	s.mu.RLock()
	term := s.term
	s.mu.RUnlock()

	return term
}

func (s *Session) loopRead(term *SessionTerm) {
	go func() {
		defer term.wg.Done()
		for {
			select {
			case <-term.ctx.Done():
				logDebug("[Session@%s:%s] Loop read exit", s.id, s.SystemId())
				return
			default:
				if s.read(term) {
					logDebug("[Session@%s:%s] Loop read stop", s.id, s.SystemId())
					return
				}
			}
		}
	}()
}

func (s *Session) read(term *SessionTerm) bool {
	p, err := s.conn.Read()
	if err != nil {
		if term.ctx.Err() == nil {
			logWarn("[Session@%s:%s] Read failed, error: %v", s.id, s.SystemId(), err)
		}
		s.close(CloseByError, err.Error())
		return true
	}

	switch p.(type) {
	case *pdu.EnquireLink:
		logDebug("[Session@%s:%s] Received enquire link pdu", s.id, s.SystemId())
		s.writeToQueue(term, s.newRequest(p.GetResponse(), nil, SubmitterSys))
		return false
	case *pdu.EnquireLinkResp:
		term.window.Take(p.GetSequenceNumber())
		return false
	case *pdu.Unbind:
		logInfo("[Session@%s:%s] Received unbind pdu", s.id, s.SystemId())
		s.writeToQueue(term, s.newRequest(p.GetResponse(), nil, SubmitterSys))
		s.close(CloseByPdu, "received unbind")
		return true
	case *pdu.UnbindResp:
		logInfo("[Session@%s:%s] Received unbind resp pdu", s.id, s.SystemId())
		s.close(CloseByPdu, "received unbind response")
		return true
	case *pdu.BindRequest:
		return false
	case *pdu.AlertNotification:
		s.onReceive(p)
		return false
	case *pdu.GenericNack, *pdu.Outbind:
		logInfo("[Session@%s:%s] Received generic nack or out bind pdu", s.id, s.SystemId())
		s.close(CloseByPdu, "received unexpected pdu")
		return true
	}

	if p.CanResponse() {
		rp := s.onReceive(p)
		if rp != nil {
			s.writeToQueue(term, s.newRequest(rp, nil, SubmitterSys))
		}
	} else {
		request := term.window.Take(p.GetSequenceNumber())
		if request != nil {
			s.onRespond(NewResponse(request, p, nil))
		}
	}

	return false
}

func (s *Session) close(reason string, desc string) {
	if !atomic.CompareAndSwapInt32(&s.status, SessionActive, SessionClosed) {
		return
	}

	term := s.currTerm()

	go func() {
		logInfo("[Session@%s:%s] Closing, reason: %s, desc: %s", s.id, s.SystemId(), reason, desc)

		// Unblock the pending read.
		_ = s.conn.SetDeadline(time.Now().Add(300 * time.Millisecond))

		term.cancel()
		term.wg.Wait()

		_ = s.conn.Close(reason == CloseByExplicit)

		for _, request := range term.window.TakeAll() {
			s.onRespond(NewResponse(request, nil, ErrSessionClosed))
		}

		logInfo("[Session@%s:%s] Closed", s.id, s.SystemId())

		if s.conf.AttemptDial == 0 || reason == CloseByExplicit {
			s.finish(reason, desc)
			return
		}

		logInfo("[Session@%s:%s] Redialing", s.id, s.SystemId())

		ticker := time.NewTicker(s.conf.AttemptDial)
		defer ticker.Stop()
		for {
			<-ticker.C
			if s.ClosedExplicitly() {
				logInfo("[Session@%s:%s] Close when redialing", s.id, s.SystemId())
				s.finish(CloseByExplicit, "")
				return
			}
			if s.dial() == nil {
				if s.ClosedExplicitly() {
					logInfo("[Session@%s:%s] Close when redialed", s.id, s.SystemId())
					s.close(CloseByExplicit, "")
				}
				return
			}
		}
	}()
}

func (s *Session) finish(reason string, desc string) {
	_store.del(s.id)
	if s.conf.OnClosed != nil {
		s.conf.OnClosed(s, reason, desc)
	}
	close(s.done)
}

func (s *Session) writeToQueue(term *SessionTerm, request *Request) bool {
	select {
	case term.queue <- request:
		return true
	case <-term.ctx.Done():
		return false
	}
}

func (s *Session) newRequest(p pdu.PDU, traceData any, submitter int8) *Request {
	return &Request{
		Pdu:       p,
		TraceData: traceData,
		SessionId: s.id,
		submitter: submitter,
	}
}

func (s *Session) loopWrite(term *SessionTerm) {
	go func() {
		var tick <-chan time.Time
		if s.conf.EnquireLink > 0 {
			t := time.NewTicker(s.conf.EnquireLink)
			defer t.Stop()
			tick = t.C
		}
		defer term.wg.Done()
		for {
			select {
			case <-term.ctx.Done():
				logDebug("[Session@%s:%s] Loop write exit", s.id, s.SystemId())
				return
			case request := <-term.queue:
				if s.write(term, request) {
					logDebug("[Session@%s:%s] Loop write stop", s.id, s.SystemId())
					return
				}
			case <-tick:
				if s.write(term, s.newRequest(pdu.NewEnquireLink(), nil, SubmitterSys)) {
					logDebug("[Session@%s:%s] Loop write stop", s.id, s.SystemId())
					return
				}
			}
		}
	}()
}

func (s *Session) write(term *SessionTerm, request *Request) bool {
	if request.submitter == SubmitterUser && !s.allowWrite(request.Pdu) {
		s.onRespond(NewResponse(request, nil, ErrNotAllowed))
		return false
	}

	request.SubmitAt = time.Now().Unix()

	if request.Pdu.CanResponse() {
		err := term.window.Put(request)
		if err != nil {
			logWarn("[Session@%s:%s] Put request to window failed, error: %v", s.id, s.SystemId(), err)
			s.onRespond(NewResponse(request, nil, err))
			return false
		}
	}

	n, err := s.conn.Write(request.Pdu)
	if err != nil {
		logWarn("[Session@%s:%s] Write failed, error: %v", s.id, s.SystemId(), err)
		if request.Pdu.CanResponse() {
			term.window.Take(request.Pdu.GetSequenceNumber())
		}
		s.onRespond(NewResponse(request, nil, err))
		if n > 0 {
			s.close(CloseByError, err.Error())
			return true
		}
		if nerr, ok := err.(net.Error); !ok || !nerr.Timeout() {
			s.close(CloseByError, err.Error())
			return true
		}
	}

	return false
}

func (s *Session) allowWrite(p pdu.PDU) bool {
	switch p.(type) {
	case *pdu.BindRequest, *pdu.Unbind, *pdu.Outbind, *pdu.GenericNack, *pdu.AlertNotification:
		return false
	}
	return true
}

func (s *Session) loopWindow(term *SessionTerm) {
	go func() {
		t := time.NewTicker(s.conf.WindowClear)
		defer func() {
			t.Stop()
			term.wg.Done()
		}()
		for {
			select {
			case <-term.ctx.Done():
				logDebug("[Session@%s:%s] Loop window exit", s.id, s.SystemId())
				return
			case <-t.C:
				requests := term.window.TakeTimeout()
				for _, request := range requests {
					s.onRespond(NewResponse(request, nil, ErrResponseTimeout))
				}
				if len(requests) > 0 {
					logDebug("[Session@%s:%s] Handled timeout requests, count: %d", s.id, s.SystemId(), len(requests))
				}
			}
		}
	}()
}

func (s *Session) onReceive(p pdu.PDU) pdu.PDU {
	if s.conf.OnReceive != nil {
		return s.conf.OnReceive(s, p)
	}
	if p.CanResponse() {
		return p.GetResponse()
	}
	return nil
}

func (s *Session) onRespond(response *Response) {
	if s.conf.OnRespond != nil && response.Request.submitter == SubmitterUser {
		s.conf.OnRespond(s, response)
	}
}

func (s *Session) Id() string {
	return s.id
}

func (s *Session) Context() any {
	return s.conf.Context
}

func (s *Session) SystemId() string {
	return s.conn.SystemId()
}

func (s *Session) BindType() pdu.BindingType {
	return s.conn.BindType()
}

func (s *Session) PeerAddr() string {
	return s.conn.PeerAddr()
}

// Write queues p for transmission. traceData comes back on the Response.
func (s *Session) Write(p pdu.PDU, traceData any) error {
	if atomic.LoadInt32(&s.status) == SessionClosed {
		return ErrSessionClosed
	}
	if !s.writeToQueue(s.currTerm(), s.newRequest(p, traceData, SubmitterUser)) {
		return ErrSessionClosed
	}
	return nil
}

func (s *Session) Close() {
	atomic.StoreInt32(&s.closed, 1)
	s.close(CloseByExplicit, "")
}

// Done is closed after the session is finally closed and will not redial.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Closed() bool {
	return atomic.LoadInt32(&s.status) == SessionClosed
}

func (s *Session) ClosedExplicitly() bool {
	return atomic.LoadInt32(&s.closed) == 1
}
