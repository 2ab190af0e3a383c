package notification

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const TopicOutboundEmail = "outbound_email"

// Email is the payload carried on the event bus. Everything the mail
// transport needs is embedded so the dispatcher never reads the database.
type Email struct {
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Recipients []string `json:"recipients"`
}

// NewEventBus creates the in-process event bus notifications travel on. For
// now we use a golang channel implementation for the EventBus, but later when
// needed we could substitute it with a broker-based one.
func NewEventBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NopLogger{},
	)
}

// Publisher enqueues emails onto the event bus. Publishing is decoupled from
// delivery: once the message is on the bus the originating request is done,
// a failing mail transport can no longer abort it.
type Publisher struct {
	EventBus *gochannel.GoChannel
}

func NewPublisher(e *gochannel.GoChannel) *Publisher {
	return &Publisher{EventBus: e}
}

func (p *Publisher) Publish(email Email) error {
	data, err := json.Marshal(email)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	return p.EventBus.Publish(TopicOutboundEmail, msg)
}
