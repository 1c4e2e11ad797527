package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"fanpass/internal/models"
)

// Marketplace and payment topics. One writer per topic, all created up
// front so concurrent publishers never mutate shared state.
const (
	TopicMarketListed     = "fanpass.market.listed"
	TopicMarketSold       = "fanpass.market.sold"
	TopicMarketRented     = "fanpass.market.rented"
	TopicMarketCancelled  = "fanpass.market.cancelled"
	TopicPaymentCompleted = "fanpass.payment.completed"
)

func AllTopics() []string {
	return []string{
		TopicMarketListed,
		TopicMarketSold,
		TopicMarketRented,
		TopicMarketCancelled,
		TopicPaymentCompleted,
	}
}

type Producer struct {
	writers map[string]*kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writers := make(map[string]*kafka.Writer, len(AllTopics()))
	for _, topic := range AllTopics() {
		writers[topic] = kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   topic,
		})
	}
	return &Producer{writers: writers}
}

func (p *Producer) publish(ctx context.Context, topic, key string, payload interface{}) error {
	w, ok := p.writers[topic]
	if !ok {
		return fmt.Errorf("no writer for topic %s", topic)
	}

	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	fmt.Printf("Publishing to Kafka [%s]: %s\n", topic, string(msgBytes))

	return w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: msgBytes,
	})
}

// PublishMarketEvent streams a marketplace lifecycle event keyed by token id.
func (p *Producer) PublishMarketEvent(ctx context.Context, event models.MarketEvent) error {
	var topic string
	switch event.Type {
	case models.MarketEventListed:
		topic = TopicMarketListed
	case models.MarketEventSold:
		topic = TopicMarketSold
	case models.MarketEventRented:
		topic = TopicMarketRented
	case models.MarketEventCancelled:
		topic = TopicMarketCancelled
	default:
		return fmt.Errorf("unknown market event type: %s", event.Type)
	}
	return p.publish(ctx, topic, strconv.FormatInt(event.TokenID, 10), event)
}

// PublishPaymentCompleted streams a completed payment keyed by payment id.
func (p *Producer) PublishPaymentCompleted(ctx context.Context, event models.PaymentEvent) error {
	return p.publish(ctx, TopicPaymentCompleted, event.PaymentID, event)
}

func (p *Producer) Close() error {
	for _, w := range p.writers {
		if err := w.Close(); err != nil {
			return err
		}
	}
	return nil
}
