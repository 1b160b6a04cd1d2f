package feedbus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/yanqian/solarinfra/internal/domain/changefeed"
)

// KafkaFeed writes events to a topic per collection and tails them for subscribers.
type KafkaFeed struct {
	brokers []string
	prefix  string
	logger  *slog.Logger

	mu      sync.Mutex
	writers map[changefeed.Collection]*kafka.Writer
}

// NewKafkaFeed constructs a feed for the given brokers.
func NewKafkaFeed(brokers []string, prefix string, logger *slog.Logger) *KafkaFeed {
	return &KafkaFeed{
		brokers: brokers,
		prefix:  prefix,
		logger:  logger.With("component", "feedbus.kafka"),
		writers: make(map[changefeed.Collection]*kafka.Writer),
	}
}

func (f *KafkaFeed) writer(collection changefeed.Collection) *kafka.Writer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.writers[collection]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(f.brokers...),
		Topic:                  channelName(f.prefix, collection),
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	f.writers[collection] = w
	return w
}

// Publish writes the event keyed by document id.
func (f *KafkaFeed) Publish(ctx context.Context, event changefeed.Event) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	return f.writer(event.Collection).WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ID),
		Value: payload,
		Time:  event.At,
	})
}

// Subscribe tails the collection topic from its current end until ctx is done.
func (f *KafkaFeed) Subscribe(ctx context.Context, collection changefeed.Collection) (<-chan changefeed.Event, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  f.brokers,
		Topic:    channelName(f.prefix, collection),
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
	if err := reader.SetOffset(kafka.LastOffset); err != nil {
		_ = reader.Close()
		return nil, err
	}
	out := make(chan changefeed.Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer reader.Close()
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
					f.logger.Warn("kafka subscription ended", "topic", msg.Topic, "error", err)
				}
				return
			}
			event, err := decodeEvent(msg.Value, collection)
			if err != nil {
				f.logger.Warn("dropping malformed change event", "offset", msg.Offset, "error", err)
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close flushes and closes every writer.
func (f *KafkaFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var errs []error
	for collection, w := range f.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(f.writers, collection)
	}
	return errors.Join(errs...)
}

var _ changefeed.Feed = (*KafkaFeed)(nil)
