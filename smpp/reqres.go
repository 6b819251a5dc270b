package smpp

import (
	"github.com/linxGnu/gosmpp/pdu"
)

// Requests are submitted by the session itself or by the user through Write.
const (
	SubmitterSys int8 = iota
	SubmitterUser
)

type Request struct {
	// submitted pdu
	Pdu pdu.PDU

	// trace info
	TraceData any
	SessionId string
	SubmitAt  int64

	// mark the submitter
	submitter int8
}

// Response will be created when received response of transmit pdu or error occurred.
// The Pdu will be nil if the Error is not nil.
type Response struct {
	Request *Request
	Pdu     pdu.PDU
	Error   error
}

func NewResponse(request *Request, p pdu.PDU, err error) *Response {
	return &Response{
		Request: request,
		Pdu:     p,
		Error:   err,
	}
}

func (resp *Response) TraceData() any {
	return resp.Request.TraceData
}

func (resp *Response) SessionId() string {
	return resp.Request.SessionId
}
