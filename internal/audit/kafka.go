package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Kafka publishes refresh events as JSON records keyed by canonical name, so
// a partition sees every refresh of a given company in order.
type Kafka struct {
	client *kgo.Client
	topic  string
	log    *slog.Logger
}

func NewKafka(brokers []string, topic string, log *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic, log: log}, nil
}

// Publish hands the event to the async producer. Delivery failures are
// logged in the produce callback; the resolve that triggered the event has
// usually completed by then.
func (k *Kafka) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.CanonicalName),
		Value: payload,
	}
	k.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			k.log.Error("audit event delivery failed",
				"topic", k.topic, "company", event.CanonicalName, "error", err)
		}
	})
	return nil
}

func (k *Kafka) Close() error {
	k.client.Close()
	return nil
}
