package realtime_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/workpulse/workpulse/internal/attendance"
	"github.com/workpulse/workpulse/internal/observability"
	"github.com/workpulse/workpulse/internal/org"
	"github.com/workpulse/workpulse/internal/realtime"
	"github.com/workpulse/workpulse/internal/shared"
	"github.com/workpulse/workpulse/internal/token"
	_ "github.com/workpulse/workpulse/testing"
)

type memLedger struct {
	mu     sync.Mutex
	nextID int64
	events []attendance.Event
}

func (m *memLedger) Insert(ctx context.Context, event attendance.Event) (attendance.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	event.ID = m.nextID
	event.RecordedAt = time.Now().UTC()
	m.events = append(m.events, event)
	return event, nil
}

func (m *memLedger) ListByEmployeeID(ctx context.Context, employeeID string) ([]attendance.Event, error) {
	return nil, nil
}

func (m *memLedger) GetEmployeeOrg(ctx context.Context, employeeID string) (int64, *int64, error) {
	return 0, nil, shared.ErrNotFound
}

func (m *memLedger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

type memOrgs struct{}

func (memOrgs) GetByID(ctx context.Context, id int64) (*org.Organization, error) {
	return &org.Organization{ID: id, Name: "Acme"}, nil
}

func (memOrgs) UpdateGeofence(ctx context.Context, id int64, lat, lon, radius *float64) (*org.Organization, error) {
	return nil, shared.ErrNotFound
}

type channelFixture struct {
	server    *httptest.Server
	authority *token.Authority
	hub       *realtime.Hub
	ledger    *memLedger
}

func newChannelFixture(t *testing.T) *channelFixture {
	t.Helper()
	client, hub := newRelayFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authority := token.NewAuthority("test-secret", time.Hour)
	ledger := &memLedger{}
	recorder := attendance.NewService(ledger, memOrgs{})
	broadcaster := realtime.NewBroadcaster(client, logger)
	handler := realtime.NewChannelHandler(logger, authority, recorder, broadcaster, hub, observability.NewMetrics(), nil)

	server := httptest.NewServer(http.HandlerFunc(handler.Serve))
	t.Cleanup(server.Close)
	return &channelFixture{server: server, authority: authority, hub: hub, ledger: ledger}
}

func (f *channelFixture) dial(t *testing.T, rawToken string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/attendance"
	if rawToken != "" {
		url += "?token=" + rawToken
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (f *channelFixture) tokenFor(t *testing.T, identityID int64, employeeID string, orgID int64) string {
	t.Helper()
	signed, err := f.authority.Issue(token.Subject{
		IdentityID: identityID,
		EmployeeID: employeeID,
		OrgID:      &orgID,
		Role:       shared.RoleEmployee,
	}, time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return signed
}

func (f *channelFixture) waitSubscribers(t *testing.T, orgID int64, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.hub.SubscriberCount(orgID) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d subscribers for org %d, got %d", n, orgID, f.hub.SubscriberCount(orgID))
}

func readFrame(t *testing.T, conn *websocket.Conn) realtime.Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var frame realtime.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return frame
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, raw, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected no frame, got %s", raw)
	}
}

func TestChannelFansOutToOrganization(t *testing.T) {
	f := newChannelFixture(t)

	kim := f.dial(t, f.tokenFor(t, 1, "kim_1", 1))
	lee := f.dial(t, f.tokenFor(t, 2, "lee_1", 1))
	foe := f.dial(t, f.tokenFor(t, 3, "foe_2", 2))
	f.waitSubscribers(t, 1, 2)
	f.waitSubscribers(t, 2, 1)

	if err := kim.WriteMessage(websocket.TextMessage, []byte(`{"employeeId":"kim_1","type":"CHECK_IN","latitude":37.5,"longitude":127.0}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	for name, conn := range map[string]*websocket.Conn{"kim": kim, "lee": lee} {
		frame := readFrame(t, conn)
		if frame.Error != "" {
			t.Fatalf("%s: unexpected error frame %q", name, frame.Error)
		}
		if frame.Data == nil || frame.Data.EmployeeID != "kim_1" || frame.Data.Type != attendance.CheckIn {
			t.Fatalf("%s: unexpected frame %+v", name, frame)
		}
		if frame.Data.RecordedAt.IsZero() {
			t.Fatalf("%s: expected server-assigned timestamp", name)
		}
	}
	expectSilence(t, foe)

	if f.ledger.count() != 1 {
		t.Fatalf("expected 1 committed event, got %d", f.ledger.count())
	}
}

func TestChannelErrorGoesToOriginatorOnly(t *testing.T) {
	f := newChannelFixture(t)

	kim := f.dial(t, f.tokenFor(t, 1, "kim_1", 1))
	lee := f.dial(t, f.tokenFor(t, 2, "lee_1", 1))
	f.waitSubscribers(t, 1, 2)

	// kim tries to record for someone else.
	if err := kim.WriteMessage(websocket.TextMessage, []byte(`{"employeeId":"lee_1","type":"CHECK_IN"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	frame := readFrame(t, kim)
	if frame.Error == "" {
		t.Fatalf("expected error frame, got %+v", frame)
	}
	if frame.Data != nil {
		t.Fatalf("error frame must not carry event data")
	}
	expectSilence(t, lee)

	if f.ledger.count() != 0 {
		t.Fatalf("rejected event must not be persisted")
	}
}

func TestChannelRequiresAuthenticationToRecord(t *testing.T) {
	f := newChannelFixture(t)

	anon := f.dial(t, "")
	if err := anon.WriteMessage(websocket.TextMessage, []byte(`{"employeeId":"kim_1","type":"CHECK_IN"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readFrame(t, anon)
	if frame.Error == "" {
		t.Fatalf("expected error frame for unauthenticated record, got %+v", frame)
	}
	if f.ledger.count() != 0 {
		t.Fatalf("unauthenticated event must not be persisted")
	}
}

func TestChannelRejectsGarbledMessage(t *testing.T) {
	f := newChannelFixture(t)

	kim := f.dial(t, f.tokenFor(t, 1, "kim_1", 1))
	f.waitSubscribers(t, 1, 1)

	if err := kim.WriteMessage(websocket.TextMessage, []byte(`{`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readFrame(t, kim)
	if frame.Error == "" {
		t.Fatalf("expected error frame for garbled payload, got %+v", frame)
	}
}

func TestHandshakeEnforcesOriginAllowlist(t *testing.T) {
	client, hub := newRelayFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authority := token.NewAuthority("test-secret", time.Hour)
	recorder := attendance.NewService(&memLedger{}, memOrgs{})
	broadcaster := realtime.NewBroadcaster(client, logger)
	handler := realtime.NewChannelHandler(logger, authority, recorder, broadcaster, hub, observability.NewMetrics(),
		[]string{"https://app.workpulse.example"})

	server := httptest.NewServer(http.HandlerFunc(handler.Serve))
	t.Cleanup(server.Close)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/attendance"

	// A browser handshake from an unlisted origin is refused.
	if _, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}}); err == nil {
		t.Fatal("expected handshake to fail for unlisted origin")
	} else if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 handshake response, got %+v", resp)
	}

	// The listed origin and clients without an Origin header connect.
	for _, hdr := range []http.Header{{"Origin": {"https://app.workpulse.example"}}, nil} {
		conn, _, err := websocket.DefaultDialer.Dial(url, hdr)
		if err != nil {
			t.Fatalf("dial with %v: %v", hdr, err)
		}
		_ = conn.Close()
	}
}
