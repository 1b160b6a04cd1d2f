package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/solarinfra/internal/domain/changefeed"
)

const streamHeartbeat = 25 * time.Second

// Overview returns the dashboard snapshot.
func (h *Handler) Overview(c *gin.Context) {
	overview, err := h.adminSvc.Overview(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// ListUsers returns the most recent accounts.
func (h *Handler) ListUsers(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			badRequest(c, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}
	users, err := h.authSvc.ListUsers(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": users})
}

// StreamChanges pushes change events for one collection as server-sent events.
func (h *Handler) StreamChanges(c *gin.Context) {
	collection, err := changefeed.ParseCollection(c.Query("collection"))
	if err != nil {
		badRequest(c, err)
		return
	}
	if h.feed == nil {
		abortWithError(c, NewHTTPError(http.StatusServiceUnavailable, "feed_unavailable", "change feed is not configured", nil))
		return
	}
	ctx := c.Request.Context()
	events, err := h.feed.Subscribe(ctx, collection)
	if err != nil {
		fail(c, err)
		return
	}

	// Streams outlive the server write timeout; EventSource reconnects if this is unsupported.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(c.Writer, ": ping\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to encode change event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(c.Writer, "event: change\ndata: %s\n\n", payload); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}
