package notification

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	Logger "github.com/isk-daniar/bulletin-board/utils/log"
)

// Dispatcher drains the event bus and hands each email to the mail
// transport. Delivery failures are logged and dropped: the entity mutation
// that triggered the notification is already committed and must stay so.
type Dispatcher struct {
	EventBus *gochannel.GoChannel
	Mailer   Mailer
}

func NewDispatcher(e *gochannel.GoChannel, m Mailer) *Dispatcher {
	return &Dispatcher{EventBus: e, Mailer: m}
}

// Run blocks consuming the outbound email topic until ctx is cancelled.
// Intended to be started in its own goroutine from main.
func (d *Dispatcher) Run(ctx context.Context) error {
	messages, err := d.EventBus.Subscribe(ctx, TopicOutboundEmail)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		var email Email
		if err := json.Unmarshal(msg.Payload, &email); err != nil {
			Logger.Log.Error("malformed email payload on event bus: ", err)
			continue
		}

		if err := d.Mailer.Send(email); err != nil {
			Logger.Log.Error("fail to deliver email: ", err)
		}
	}
	return nil
}
