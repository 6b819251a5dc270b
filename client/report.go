package client

import (
	"strconv"
	"time"

	"github.com/yyliziqiu/smsc/smpp"
	"github.com/yyliziqiu/smsc/util"
)

// DeliveryReport is the final disposition of a message, as reported by the SMSC.
type DeliveryReport struct {
	MessageID        string
	ResponseClientID string
	Submitted        int
	Delivered        int
	SubmitDate       time.Time
	DoneDate         time.Time
	Status           string
	ErrorCode        string
	Text             string
	Source           string
	Destination      string
}

func (r DeliveryReport) IsDelivered() bool {
	return r.Status == smpp.DlrStatDelivered
}

func newDeliveryReport(clientID string, dlr smpp.Dlr, source string, destination string) DeliveryReport {
	submitted, _ := strconv.Atoi(dlr.Sub)
	delivered, _ := strconv.Atoi(dlr.Dlvrd)
	return DeliveryReport{
		MessageID:        dlr.Id,
		ResponseClientID: clientID,
		Submitted:        submitted,
		Delivered:        delivered,
		SubmitDate:       dlr.Sd,
		DoneDate:         dlr.Dd,
		Status:           dlr.Stat,
		ErrorCode:        dlr.Err,
		Text:             dlr.Text,
		Source:           source,
		Destination:      destination,
	}
}

type DeliveryReportConsumer interface {
	Consume(report DeliveryReport)
}

type DeliveryReportConsumerFunc func(report DeliveryReport)

func (f DeliveryReportConsumerFunc) Consume(report DeliveryReport) {
	f(report)
}

// NullDeliveryReportConsumer drops every report.
type NullDeliveryReportConsumer struct{}

func (NullDeliveryReportConsumer) Consume(report DeliveryReport) {
	util.LogDebug("[DeliveryReport] Dropped report, client: %s, message id: %s, status: %s", report.ResponseClientID, report.MessageID, report.Status)
}
