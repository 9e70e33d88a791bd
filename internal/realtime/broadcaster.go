package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/workpulse/workpulse/internal/attendance"
)

const channelPrefix = "attendance.org."

// Frame is one message on an organization's live feed: either a committed
// event or a structured error addressed to a single employee.
type Frame struct {
	Data       *attendance.Event `json:"data,omitempty"`
	Error      string            `json:"error,omitempty"`
	EmployeeID string            `json:"employeeId,omitempty"`
}

// EventFrame builds the fan-out frame for a committed event.
func EventFrame(event attendance.Event) Frame {
	return Frame{Data: &event, EmployeeID: event.EmployeeID}
}

// ErrorFrame builds the error frame delivered to the originating client only.
func ErrorFrame(message, employeeID string) Frame {
	return Frame{Error: message, EmployeeID: employeeID}
}

func channelFor(orgID int64) string {
	return channelPrefix + strconv.FormatInt(orgID, 10)
}

// Broadcaster publishes committed events onto the organization's redis
// channel. Publish runs strictly after the commit; its failures are logged
// and never propagated back to the recorder.
type Broadcaster struct {
	client *redis.Client
	logger *slog.Logger
}

// NewBroadcaster constructs a Broadcaster.
func NewBroadcaster(client *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{client: client, logger: logger}
}

// Publish fans the committed event out to every subscriber of the
// organization's feed, across all server instances.
func (b *Broadcaster) Publish(ctx context.Context, orgID int64, event attendance.Event) {
	payload, err := json.Marshal(EventFrame(event))
	if err != nil {
		b.logger.Error("marshal event frame", slog.Any("error", err))
		return
	}
	if err := b.client.Publish(ctx, channelFor(orgID), payload).Err(); err != nil {
		b.logger.Warn("publish event", slog.Int64("org_id", orgID), slog.Any("error", err))
	}
}

// Relay subscribes to every organization channel and feeds the local Hub.
// One relay runs per server instance, beside the HTTP listener.
type Relay struct {
	client *redis.Client
	hub    *Hub
	logger *slog.Logger
}

// NewRelay constructs a Relay.
func NewRelay(client *redis.Client, hub *Hub, logger *slog.Logger) *Relay {
	return &Relay{client: client, hub: hub, logger: logger}
}

// Run pumps redis messages into the hub until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	pubsub := r.client.PSubscribe(ctx, channelPrefix+"*")
	defer func() { _ = pubsub.Close() }()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("realtime: subscribe: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			orgID, err := strconv.ParseInt(strings.TrimPrefix(msg.Channel, channelPrefix), 10, 64)
			if err != nil {
				r.logger.Warn("relay: unexpected channel", slog.String("channel", msg.Channel))
				continue
			}
			r.hub.Broadcast(orgID, []byte(msg.Payload))
		}
	}
}
