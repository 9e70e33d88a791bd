package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/workpulse/workpulse/internal/attendance"
	"github.com/workpulse/workpulse/internal/observability"
	"github.com/workpulse/workpulse/internal/shared"
	"github.com/workpulse/workpulse/internal/token"
)

const (
	writeTimeout  = 10 * time.Second
	maxFrameBytes = 4 << 10
)

// ChannelHandler serves the realtime attendance channel over a websocket.
// The handshake itself is public; a bearer token presented in the
// Authorization header or the token query parameter is verified at upgrade
// and bound to the connection. Sockets without a verified principal may
// neither subscribe nor record: every inbound message answers with an error
// frame on that socket only.
type ChannelHandler struct {
	logger      *slog.Logger
	authority   *token.Authority
	recorder    *attendance.Service
	broadcaster *Broadcaster
	hub         *Hub
	metrics     *observability.Metrics
	upgrader    websocket.Upgrader
	now         func() time.Time
}

// NewChannelHandler constructs a ChannelHandler. allowedOrigins restricts
// browser handshakes; an empty list accepts any origin.
func NewChannelHandler(logger *slog.Logger, authority *token.Authority, recorder *attendance.Service, broadcaster *Broadcaster, hub *Hub, metrics *observability.Metrics, allowedOrigins []string) *ChannelHandler {
	return &ChannelHandler{
		logger:      logger,
		authority:   authority,
		recorder:    recorder,
		broadcaster: broadcaster,
		hub:         hub,
		metrics:     metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		now: time.Now,
	}
}

// originChecker gates browser handshakes against a configured allowlist.
// Requests without an Origin header (CLI tools, service clients) pass;
// with an empty allowlist every origin passes, since the frontend may be
// served from anywhere during development.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// inboundMessage mirrors the attendance request the client publishes.
type inboundMessage struct {
	EmployeeID string   `json:"employeeId"`
	Type       string   `json:"type"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

// Serve upgrades the connection and runs the read loop until the client
// disconnects.
func (h *ChannelHandler) Serve(w http.ResponseWriter, r *http.Request) {
	principal := h.bindPrincipal(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", slog.Any("error", err))
		return
	}
	defer func() { _ = conn.Close() }()
	conn.SetReadLimit(maxFrameBytes)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan []byte, 32)

	// Single writer goroutine: gorilla allows one concurrent writer per conn.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case frame := <-out:
				_ = conn.SetWriteDeadline(h.now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	if principal != nil && principal.OrgID != nil {
		sub := h.hub.Subscribe(*principal.OrgID, 32)
		defer h.hub.Unsubscribe(sub)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case frame, ok := <-sub.C():
					if !ok {
						return
					}
					select {
					case out <- frame:
					default:
					}
				}
			}
		}()
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket closed", slog.Any("error", err))
			}
			return
		}
		h.handleInbound(ctx, principal, data, out)
	}
}

// bindPrincipal verifies an optional bearer credential at handshake time.
// Verification failures are treated exactly like a missing credential.
func (h *ChannelHandler) bindPrincipal(r *http.Request) *shared.Principal {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		raw = bearerFromHeader(r)
	}
	if raw == "" {
		return nil
	}
	p, err := h.authority.Verify(raw, h.now())
	if err != nil {
		h.logger.Warn("websocket token rejected", slog.Any("error", err))
		return nil
	}
	return &p
}

func bearerFromHeader(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

func (h *ChannelHandler) handleInbound(ctx context.Context, principal *shared.Principal, data []byte, out chan<- []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.send(out, ErrorFrame("invalid message", ""))
		return
	}

	if principal == nil {
		h.send(out, ErrorFrame("authentication required", msg.EmployeeID))
		return
	}

	event, err := h.recorder.Record(ctx, *principal, attendance.RecordInput{
		EmployeeID: msg.EmployeeID,
		Type:       attendance.EventType(msg.Type),
		Latitude:   msg.Latitude,
		Longitude:  msg.Longitude,
	})
	if err != nil {
		if errors.Is(err, attendance.ErrOutOfGeofence) {
			h.metrics.GeofenceRejection()
		}
		// Errors go to the originating socket only; other subscribers of the
		// feed never see one client's invalid request.
		h.send(out, ErrorFrame(clientMessage(err), msg.EmployeeID))
		return
	}

	h.metrics.EventRecorded(string(event.Type))
	if principal.OrgID != nil {
		h.broadcaster.Publish(ctx, *principal.OrgID, event)
		return
	}
	// No organization feed to fan out to; answer the originator directly.
	h.send(out, EventFrame(event))
}

func (h *ChannelHandler) send(out chan<- []byte, frame Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("marshal frame", slog.Any("error", err))
		return
	}
	select {
	case out <- payload:
	default:
	}
}

// clientMessage maps recorder errors to the message carried on the channel,
// keeping internal details (SQL, wrapping chains) off the wire.
func clientMessage(err error) string {
	switch {
	case errors.Is(err, attendance.ErrMissingLocation):
		return "location information is required for check-in"
	case errors.Is(err, attendance.ErrOutOfGeofence):
		return "you are outside the allowed check-in area"
	case errors.Is(err, attendance.ErrUnknownEventType):
		return "unknown attendance event type"
	case errors.Is(err, shared.ErrForbidden):
		return "employee id does not match the authenticated identity"
	case errors.Is(err, shared.ErrNotFound):
		return "employee not found"
	default:
		return "attendance could not be recorded, please retry"
	}
}
