package feedbus

import (
	"context"
	"errors"
	"log/slog"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/solarinfra/internal/domain/changefeed"
)

// ValkeyFeed broadcasts events over Valkey pub/sub, one channel per collection.
type ValkeyFeed struct {
	client valkey.Client
	prefix string
	logger *slog.Logger
}

// NewValkeyFeed constructs a feed on an existing client.
func NewValkeyFeed(client valkey.Client, prefix string, logger *slog.Logger) *ValkeyFeed {
	return &ValkeyFeed{client: client, prefix: prefix, logger: logger.With("component", "feedbus.valkey")}
}

// Publish sends the event to the collection channel.
func (f *ValkeyFeed) Publish(ctx context.Context, event changefeed.Event) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	cmd := f.client.B().Publish().Channel(channelName(f.prefix, event.Collection)).Message(string(payload)).Build()
	return f.client.Do(ctx, cmd).Error()
}

// Subscribe listens on the collection channel until ctx is done.
func (f *ValkeyFeed) Subscribe(ctx context.Context, collection changefeed.Collection) (<-chan changefeed.Event, error) {
	out := make(chan changefeed.Event, subscriberBuffer)
	channel := channelName(f.prefix, collection)
	go func() {
		defer close(out)
		err := f.client.Receive(ctx, f.client.B().Subscribe().Channel(channel).Build(), func(msg valkey.PubSubMessage) {
			event, err := decodeEvent([]byte(msg.Message), collection)
			if err != nil {
				f.logger.Warn("dropping malformed change event", "channel", msg.Channel, "error", err)
				return
			}
			select {
			case out <- event:
			case <-ctx.Done():
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			f.logger.Warn("valkey subscription ended", "channel", channel, "error", err)
		}
	}()
	return out, nil
}

var _ changefeed.Feed = (*ValkeyFeed)(nil)
