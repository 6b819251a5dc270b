package client

import (
	"github.com/linxGnu/gosmpp/pdu"

	"github.com/yyliziqiu/smsc/smpp"
	"github.com/yyliziqiu/smsc/util"
)

// ResponseSessionHandler turns pdus received by a ResponseClient into
// delivery reports for the consumer.
type ResponseSessionHandler struct {
	client   ResponseClient
	consumer DeliveryReportConsumer
}

func NewResponseSessionHandler(client ResponseClient, consumer DeliveryReportConsumer) *ResponseSessionHandler {
	if consumer == nil {
		consumer = NullDeliveryReportConsumer{}
	}
	return &ResponseSessionHandler{client: client, consumer: consumer}
}

func (h *ResponseSessionHandler) Client() ResponseClient {
	return h.client
}

func (h *ResponseSessionHandler) Consumer() DeliveryReportConsumer {
	return h.consumer
}

// HandlePdu acknowledges every requestable pdu, receipts are forwarded before the ack.
func (h *ResponseSessionHandler) HandlePdu(sess *smpp.Session, p pdu.PDU) pdu.PDU {
	if dp, ok := p.(*pdu.DeliverSM); ok {
		h.handleDeliver(dp)
	}
	if p.CanResponse() {
		return p.GetResponse()
	}
	return nil
}

func (h *ResponseSessionHandler) handleDeliver(p *pdu.DeliverSM) {
	id := h.client.ID()

	text, err := smpp.MessageText(&p.Message)
	if err != nil {
		util.LogWarn("[ResponseHandler@%s] Decode deliver sm failed, error: %v", id, err)
		return
	}

	if !smpp.IsDlr(p) {
		util.LogInfo("[ResponseHandler@%s] Received mobile originated message, from: %s, to: %s", id, p.SourceAddr.Address(), p.DestAddr.Address())
		return
	}

	dlr, err := smpp.ParseDlr(text)
	if err != nil {
		util.LogWarn("[ResponseHandler@%s] Parse receipt failed, text: %q, error: %v", id, text, err)
		return
	}

	report := newDeliveryReport(id, dlr, p.SourceAddr.Address(), p.DestAddr.Address())

	defer func() {
		if r := recover(); r != nil {
			util.LogError("[ResponseHandler@%s] Consumer panicked, message id: %s, panic: %v", id, report.MessageID, r)
		}
	}()
	h.consumer.Consume(report)
}
