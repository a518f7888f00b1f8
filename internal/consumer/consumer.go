package consumer

import (
	"context"
	"encoding/json"
	"log"

	"github.com/IBM/sarama"

	"github.com/lzx0713/FreeChat/internal/broadcast"
	"github.com/lzx0713/FreeChat/internal/ws"
)

// MessageConsumer 把广播主题上的消息交给 Hub 推送给各会话的在线客户端
type MessageConsumer struct {
	hub *ws.Hub
}

func NewMessageConsumer(hub *ws.Hub) *MessageConsumer {
	return &MessageConsumer{hub: hub}
}

// Setup is run at the beginning of a new session, before ConsumeClaim
func (consumer *MessageConsumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited
func (consumer *MessageConsumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim must start a consumer loop of ConsumerGroupClaim's Messages().
func (consumer *MessageConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var payload broadcast.Payload
		if err := json.Unmarshal(message.Value, &payload); err != nil {
			// 坏消息直接标记消费，避免死循环
			log.Printf("反序列化广播消息失败: %v", err)
			session.MarkMessage(message, "")
			continue
		}

		consumer.hub.BroadcastToSession(payload.Session, &payload.Message)
		session.MarkMessage(message, "")
	}
	return nil
}

// StartConsumer 启动消费者组，断开后自动重连
func StartConsumer(brokers []string, groupID string, topic string, consumer *MessageConsumer) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetNewest

	client, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		log.Fatalf("创建消费者组客户端失败: %v", err)
	}

	ctx := context.Background()
	go func() {
		for {
			if err := client.Consume(ctx, []string{topic}, consumer); err != nil {
				log.Printf("消费者错误: %v", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
}
