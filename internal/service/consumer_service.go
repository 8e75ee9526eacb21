package service

import (
	"context"

	"arthik-chat-be/internal/pkg/logger"
	"arthik-chat-be/pkg/events"
	"arthik-chat-be/pkg/historysync"

	"github.com/ThreeDotsLabs/watermill/message"
)

// LiveDelivery pushes a serialized event to the owner's clients watching a
// session.
type LiveDelivery interface {
	DeliverToSession(ownerId string, sessionId string, payload []byte)
}

// EventForwarder ships events out of the process (NATS JetStream).
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	live       LiveDelivery
	history    historysync.HistorySync
	forwarder  EventForwarder
	logger     logger.ILogger
}

// NewConsumerService fans chat events out to live sockets, the history
// side store and the external bus. Any of them may be nil.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	live LiveDelivery,
	history historysync.HistorySync,
	forwarder EventForwarder,
	log logger.ILogger,
) IConsumerService {
	if history == nil {
		history = historysync.Noop{}
	}
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		live:       live,
		history:    history,
		forwarder:  forwarder,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks: fan-out is best effort and a failed sink must
// not replay the event into the others.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	event, err := events.Unmarshal(msg.Payload)
	if err != nil {
		cs.logger.Error("ConsumerService", "Dropping malformed event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err,
		})
		return
	}

	switch event.EventType() {
	case events.TypeMessageCreated:
		if cs.live != nil {
			cs.live.DeliverToSession(events.StringField(event, "ownerId"), events.StringField(event, "sessionId"), msg.Payload)
		}
	case events.TypeSessionCreated, events.TypeTurnCompleted:
		entry := historysync.Entry{
			SessionId: events.StringField(event, "sessionId"),
			Title:     events.StringField(event, "title"),
			UpdatedAt: events.TimeField(event, "updatedAt"),
		}
		if err := cs.history.AppendToHistory(ctx, events.StringField(event, "ownerId"), entry); err != nil {
			cs.logger.Warn("ConsumerService", "History sync failed", map[string]interface{}{
				"session_id": entry.SessionId,
				"error":      err.Error(),
			})
		}
	}

	if cs.forwarder != nil {
		if err := cs.forwarder.Publish(ctx, event); err != nil {
			cs.logger.Warn("ConsumerService", "Forwarding event failed", map[string]interface{}{
				"event_type": event.EventType(),
				"error":      err.Error(),
			})
		}
	}
}
