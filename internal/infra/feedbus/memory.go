package feedbus

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/yanqian/solarinfra/internal/domain/changefeed"
)

const subscriberBuffer = 32

// MemoryFeed fans events out to in-process subscribers.
type MemoryFeed struct {
	mu      sync.RWMutex
	subs    map[changefeed.Collection]map[chan changefeed.Event]struct{}
	dropped atomic.Int64
}

// NewMemoryFeed constructs an empty feed.
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[changefeed.Collection]map[chan changefeed.Event]struct{})}
}

// Publish delivers to every subscriber of the collection. Slow subscribers lose events instead of blocking writers.
func (f *MemoryFeed) Publish(_ context.Context, event changefeed.Event) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for ch := range f.subs[event.Collection] {
		select {
		case ch <- event:
		default:
			f.dropped.Add(1)
		}
	}
	return nil
}

// Subscribe registers a listener until ctx is done.
func (f *MemoryFeed) Subscribe(ctx context.Context, collection changefeed.Collection) (<-chan changefeed.Event, error) {
	ch := make(chan changefeed.Event, subscriberBuffer)
	f.mu.Lock()
	if f.subs[collection] == nil {
		f.subs[collection] = make(map[chan changefeed.Event]struct{})
	}
	f.subs[collection][ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs[collection], ch)
		f.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// Dropped reports how many events were discarded for full subscriber buffers.
func (f *MemoryFeed) Dropped() int64 {
	return f.dropped.Load()
}

func (f *MemoryFeed) subscriberCount(collection changefeed.Collection) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[collection])
}

var _ changefeed.Feed = (*MemoryFeed)(nil)
