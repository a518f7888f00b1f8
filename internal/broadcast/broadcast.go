package broadcast

import (
	"context"

	"github.com/lzx0713/FreeChat/internal/model"
	"github.com/lzx0713/FreeChat/internal/ws"
	"github.com/lzx0713/FreeChat/pkg/mq"
)

// Payload is the wire form of a broadcast event on the Kafka topic.
type Payload struct {
	Session string            `json:"session"`
	Message model.ChatMessage `json:"message"`
}

// KafkaBroadcaster publishes accepted messages to the broadcast topic,
// keyed by session so one session's messages stay ordered on a partition.
type KafkaBroadcaster struct {
	producer *mq.KafkaProducer
}

func NewKafkaBroadcaster(producer *mq.KafkaProducer) *KafkaBroadcaster {
	return &KafkaBroadcaster{producer: producer}
}

func (b *KafkaBroadcaster) Broadcast(ctx context.Context, session string, msg *model.ChatMessage) error {
	return b.producer.SendMessage(session, Payload{
		Session: session,
		Message: *msg,
	})
}

// LocalBroadcaster hands messages straight to the in-process hub. Used in
// degraded mode when Kafka is unconfigured or unreachable; only viewers
// connected to this instance see the message.
type LocalBroadcaster struct {
	hub *ws.Hub
}

func NewLocalBroadcaster(hub *ws.Hub) *LocalBroadcaster {
	return &LocalBroadcaster{hub: hub}
}

func (b *LocalBroadcaster) Broadcast(ctx context.Context, session string, msg *model.ChatMessage) error {
	b.hub.BroadcastToSession(session, msg)
	return nil
}
