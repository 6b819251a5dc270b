package simulator

import (
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/linxGnu/gosmpp/data"
	"github.com/linxGnu/gosmpp/pdu"
	"github.com/yyliziqiu/gdk/xuid"

	"github.com/yyliziqiu/smsc/smpp"
	"github.com/yyliziqiu/smsc/util"
)

var ErrServerClosed = errors.New("simulator closed")

const receiptTick = 20 * time.Millisecond

type Config struct {
	Listen       string
	Users        map[string]string // system id to password, empty accepts everyone
	RejectPhones []string          // submits to these numbers fail with ESME_RINVDSTADR
	FailPhones   []string          // submits succeed but the receipt says UNDELIV
	DeliverDelay time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Submit is a submit_sm accepted by the simulator.
type Submit struct {
	SystemId  string
	MessageId string
	Source    string
	Dest      string
	Text      string
	Receipt   bool
}

// Server is a minimal SMSC. It answers submit_sm and pushes receipts to
// the receiver sessions bound with the same system id.
type Server struct {
	conf     Config
	listener net.Listener
	submits  []Submit
	receipts *receiptQueue
	done     chan struct{}
	closed   bool
	wg       sync.WaitGroup
	mu       sync.Mutex
}

func New(conf Config) *Server {
	if conf.Listen == "" {
		conf.Listen = "127.0.0.1:0"
	}
	return &Server{
		conf:     conf,
		receipts: newReceiptQueue(),
		done:     make(chan struct{}),
	}
}

// Start listens and accepts connections in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.conf.Listen)
	if err != nil {
		return err
	}
	s.listener = listener

	util.LogInfo("[Simulator] Listening on %s", listener.Addr())

	s.wg.Add(2)
	go s.serve()
	go s.loopReceipts()

	return nil
}

func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// HostPort splits Addr for building connection settings.
func (s *Server) HostPort() (string, int) {
	if s.listener == nil {
		return "", 0
	}
	addr, ok := s.listener.Addr().(*net.TCPAddr)
	if !ok {
		return "", 0
	}
	return addr.IP.String(), addr.Port
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isClosed() {
				return
			}
			util.LogWarn("[Simulator] Accept failed, error: %v", err)
			continue
		}
		go s.accept(conn)
	}
}

func (s *Server) accept(conn net.Conn) {
	serv := smpp.NewServerConnection(conn, smpp.ServerConnectionConfig{
		Authenticate: s.authenticate,
		ReadTimeout:  s.conf.ReadTimeout,
		WriteTimeout: s.conf.WriteTimeout,
	})

	sess, err := smpp.NewSession(serv, smpp.SessionConfig{
		Context:   s,
		OnReceive: s.onReceive,
		OnClosed: func(sess *smpp.Session, reason string, desc string) {
			util.LogInfo("[Simulator] Session closed, system id: %s, reason: %s, desc: %s", sess.SystemId(), reason, desc)
		},
	})
	if err != nil {
		util.LogWarn("[Simulator] Bind failed, peer addr: %s, error: %v", conn.RemoteAddr(), err)
		return
	}

	if s.isClosed() {
		sess.Close()
		return
	}

	util.LogInfo("[Simulator] Session bound, system id: %s, bind type: %d", sess.SystemId(), sess.BindType())
}

func (s *Server) authenticate(_ *smpp.ServerConnection, systemId string, password string) data.CommandStatusType {
	if len(s.conf.Users) == 0 {
		return data.ESME_ROK
	}
	want, ok := s.conf.Users[systemId]
	if !ok || want != password {
		return data.ESME_RINVPASWD
	}
	return data.ESME_ROK
}

func (s *Server) onReceive(sess *smpp.Session, p pdu.PDU) pdu.PDU {
	sp, ok := p.(*pdu.SubmitSM)
	if !ok {
		if p.CanResponse() {
			return p.GetResponse()
		}
		return nil
	}

	rp := sp.GetResponse().(*pdu.SubmitSMResp)

	dest := sp.DestAddr.Address()
	if contains(s.conf.RejectPhones, dest) {
		rp.CommandStatus = data.ESME_RINVDSTADR
		return rp
	}

	text, _ := smpp.MessageText(&sp.Message)
	submit := Submit{
		SystemId:  sess.SystemId(),
		MessageId: xuid.Get(),
		Source:    sp.SourceAddr.Address(),
		Dest:      dest,
		Text:      text,
		Receipt:   sp.RegisteredDelivery&0x01 != 0,
	}
	rp.MessageID = submit.MessageId

	s.mu.Lock()
	s.submits = append(s.submits, submit)
	s.mu.Unlock()

	if submit.Receipt {
		s.receipts.Put(submit, time.Now().Add(s.conf.DeliverDelay))
	}

	return rp
}

func (s *Server) loopReceipts() {
	defer s.wg.Done()

	t := time.NewTicker(receiptTick)
	defer t.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-t.C:
			for _, item := range s.receipts.TakeDue(now) {
				s.deliver(item.Submit)
			}
		}
	}
}

func (s *Server) deliver(submit Submit) {
	stat, code := smpp.DlrStatDelivered, 0
	if contains(s.conf.FailPhones, submit.Dest) {
		stat, code = smpp.DlrStatUndeliverable, 1
	}
	dlr := smpp.BuildDlr(submit.MessageId, 1, 1, stat, code)
	if code != 0 {
		dlr.Dlvrd = "000"
	}

	sess := s.receiver(submit.SystemId)
	if sess == nil {
		util.LogWarn("[Simulator] No receiver for %s, receipt of %s dropped", submit.SystemId, submit.MessageId)
		return
	}

	if err := sess.Write(dlr.Pdu(submit.Dest, submit.Source), nil); err != nil {
		util.LogWarn("[Simulator] Deliver receipt failed, message id: %s, error: %v", submit.MessageId, err)
	}
}

func (s *Server) receiver(systemId string) *smpp.Session {
	for _, sess := range s.sessions() {
		if sess.SystemId() != systemId {
			continue
		}
		if bt := sess.BindType(); bt == pdu.Receiver || bt == pdu.Transceiver {
			return sess
		}
	}
	return nil
}

// sessions returns the live sessions accepted by this server.
func (s *Server) sessions() []*smpp.Session {
	return smpp.FindSessions(func(sess *smpp.Session) bool {
		return sess.Context() == any(s) && !sess.Closed()
	})
}

// Submits returns a copy of the accepted submits.
func (s *Server) Submits() []Submit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Submit(nil), s.submits...)
}

// CancelReceipt drops the pending receipt of a message.
func (s *Server) CancelReceipt(messageId string) bool {
	return s.receipts.Cancel(messageId)
}

// PendingReceipts returns the number of receipts not yet delivered.
func (s *Server) PendingReceipts() int {
	return s.receipts.Len()
}

// Sessions returns the number of bound sessions.
func (s *Server) Sessions() int {
	return len(s.sessions())
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for _, sess := range s.sessions() {
		sess.Close()
	}
	s.wg.Wait()

	return err
}

func contains(phones []string, phone string) bool {
	phone = strings.TrimPrefix(phone, "+")
	for _, p := range phones {
		if strings.TrimPrefix(p, "+") == phone {
			return true
		}
	}
	return false
}
