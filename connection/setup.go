package connection

import (
	"fmt"

	"github.com/yyliziqiu/smsc/client"
)

// setupClients binds the sender first, then the response client with a
// handler of its own. Mock connections have nothing to bind.
func setupClients(sender client.SenderClient, response client.ResponseClient, consumer client.DeliveryReportConsumer, setup bool) error {
	if !setup || response == nil {
		return nil
	}

	err := sender.Setup()
	if err != nil {
		return fmt.Errorf("setup sender %s: %w", sender.ID(), err)
	}

	handler := client.NewResponseSessionHandler(response, consumer)

	err = response.Setup(handler)
	if err != nil {
		return fmt.Errorf("setup response %s: %w", response.ID(), err)
	}

	return nil
}
