package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yyliziqiu/smsc/smpp"
)

type MessageType int

const (
	MessageSimple MessageType = iota
	MessageDatagram
	MessageSilent
)

func (t MessageType) String() string {
	switch t {
	case MessageSimple:
		return "simple"
	case MessageDatagram:
		return "datagram"
	case MessageSilent:
		return "silent"
	}
	return "unknown"
}

var (
	ErrEmptyMsisdn = errors.New("msisdn is empty")
	ErrEmptySource = errors.New("source is empty")
	ErrEmptyText   = errors.New("text is empty")
	ErrTooLong     = errors.New("message is too long")
	ErrBadType     = errors.New("unknown message type")
)

type Message struct {
	Text   string
	Msisdn string
	Source string
	Type   MessageType
}

func NewMessage(text string, msisdn string, source string) Message {
	return Message{Text: text, Msisdn: msisdn, Source: source, Type: MessageSimple}
}

func NewSilentMessage(msisdn string, source string) Message {
	return Message{Msisdn: msisdn, Source: source, Type: MessageSilent}
}

// Validate checks the message. maxLength limits the text in characters, 0 means no limit.
func (m Message) Validate(maxLength int) error {
	if strings.TrimSpace(m.Msisdn) == "" {
		return ErrEmptyMsisdn
	}
	if strings.TrimSpace(m.Source) == "" {
		return ErrEmptySource
	}
	switch m.Type {
	case MessageSimple, MessageDatagram:
		if m.Text == "" {
			return ErrEmptyText
		}
	case MessageSilent:
	default:
		return ErrBadType
	}
	if maxLength > 0 {
		if n, _, _ := smpp.DetectMessage(m.Text); n > maxLength {
			return fmt.Errorf("%w: %d > %d", ErrTooLong, n, maxLength)
		}
	}
	return nil
}

const (
	CodeInvalidParam = iota + 1
	CodeNotBound
	CodeSendFailed
	CodeTimeout
	CodeRejected
)

type MessageError struct {
	Code    int
	Message string
}

func (e *MessageError) Error() string {
	return fmt.Sprintf("(%d) %s", e.Code, e.Message)
}

type MessageResponse struct {
	Original Message
	SmscID   string
	SmscName string
	Success  bool
	Err      *MessageError
}

func SuccessResponse(msg Message, smscName string, smscID string) MessageResponse {
	return MessageResponse{Original: msg, SmscID: smscID, SmscName: smscName, Success: true}
}

func ErrorResponse(msg Message, smscName string, code int, err error) MessageResponse {
	return MessageResponse{
		Original: msg,
		SmscName: smscName,
		Err:      &MessageError{Code: code, Message: err.Error()},
	}
}
