package changefeed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Collection names a document collection whose changes are broadcast.
type Collection string

const (
	CollectionProducts Collection = "products"
	CollectionQuotes   Collection = "quotes"
	CollectionLeads    Collection = "leads"
	CollectionUsers    Collection = "users"
)

// Collections lists every collection that emits events.
var Collections = []Collection{CollectionProducts, CollectionQuotes, CollectionLeads, CollectionUsers}

// ParseCollection validates a collection name supplied by a client.
func ParseCollection(raw string) (Collection, error) {
	c := Collection(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Collections {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown collection %q", raw)
}

// Kind describes what happened to a document.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
)

// Event announces a write to a single document. Subscribers re-read the document if they need it.
type Event struct {
	Collection Collection `json:"collection"`
	Kind       Kind       `json:"kind"`
	ID         string     `json:"id"`
	At         time.Time  `json:"at"`
}

// Publisher broadcasts events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Subscriber streams events for one collection. The channel closes once ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, collection Collection) (<-chan Event, error)
}

// Feed is a backend that can both publish and subscribe.
type Feed interface {
	Publisher
	Subscriber
}

// Notify publishes an event after a successful write. Failures are logged and never surface to the writer.
func Notify(ctx context.Context, pub Publisher, logger *slog.Logger, collection Collection, kind Kind, id string) {
	if pub == nil {
		return
	}
	event := Event{Collection: collection, Kind: kind, ID: id, At: time.Now().UTC()}
	if err := pub.Publish(ctx, event); err != nil && logger != nil {
		logger.Warn("change event publish failed", "collection", collection, "kind", kind, "id", id, "error", err)
	}
}
