package kafka

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// Handler processes one package change message. A non-nil error stops
// Consume and leaves the message uncommitted.
type Handler func(ctx context.Context, key, value []byte) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r messageReader
}

// NewConsumer reads topic as part of groupID. Without a group it reads the
// topic directly and offsets are not committed to the broker.
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
		MaxWait:           time.Second,
	}
	if groupID != "" {
		cfg.GroupTopics = []string{topic}
	} else {
		cfg.Topic = topic
	}
	return newConsumerWithReader(kafka.NewReader(cfg))
}

func newConsumerWithReader(r messageReader) *Consumer {
	return &Consumer{r: r}
}

// Consume blocks until ctx is done, a fetch fails or handle returns an error.
func (c *Consumer) Consume(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			return errors.Wrap(err, "fetch package change")
		}
		if err := handle(ctx, msg.Key, msg.Value); err != nil {
			return errors.Wrapf(err, "handle package change offset=%d", msg.Offset)
		}
		if err := c.r.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, "commit package change")
		}
	}
}

func (c *Consumer) Close() error {
	return errors.Wrap(c.r.Close(), "close kafka reader")
}
