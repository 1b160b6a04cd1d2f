package feedbus

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yanqian/solarinfra/internal/domain/changefeed"
)

// DefaultPrefix namespaces channels and topics.
const DefaultPrefix = "solar.changes"

func channelName(prefix string, collection changefeed.Collection) string {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPrefix
	}
	return prefix + "." + string(collection)
}

func encodeEvent(event changefeed.Event) ([]byte, error) {
	return json.Marshal(event)
}

// decodeEvent rejects payloads addressed to another collection.
func decodeEvent(payload []byte, want changefeed.Collection) (changefeed.Event, error) {
	var event changefeed.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return changefeed.Event{}, err
	}
	if event.Collection != want {
		return changefeed.Event{}, fmt.Errorf("event for %q on %q stream", event.Collection, want)
	}
	return event, nil
}
