package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/mystery-kit-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Kafka keys events by organization so one tenant's events stay ordered.
// Each instance must consume with its own group id to see every event.
type Kafka struct {
	writer     messageWriter
	reader     messageReader
	logger     logger.ZapLogger
	retryDelay time.Duration
}

// NewKafka takes a *broker.KafkaProducer and *broker.KafkaConsumer.
func NewKafka(writer messageWriter, reader messageReader, log logger.ZapLogger) *Kafka {
	return &Kafka{writer: writer, reader: reader, logger: log, retryDelay: time.Second}
}

var _ PubSub = (*Kafka)(nil)

func (k *Kafka) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return k.writer.Publish(ctx, ev.OrganizationID, payload)
}

// Subscribe runs a single read loop. Call it once per consumer.
func (k *Kafka) Subscribe(ctx context.Context) (<-chan Event, error) {
	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		for {
			msg, err := k.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				k.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-time.After(k.retryDelay):
					continue
				case <-ctx.Done():
					return
				}
			}

			var ev Event
			if err := json.Unmarshal(msg.Value, &ev); err != nil {
				k.logger.Error("Failed to unmarshal feed event", zap.Int64("offset", msg.Offset), zap.Error(err))
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
