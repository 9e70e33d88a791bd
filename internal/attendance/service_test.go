package attendance_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/workpulse/workpulse/internal/attendance"
	"github.com/workpulse/workpulse/internal/org"
	"github.com/workpulse/workpulse/internal/shared"
	_ "github.com/workpulse/workpulse/testing"
)

type stubLedger struct {
	mu     sync.Mutex
	nextID int64
	events []attendance.Event
	owners map[string]*int64
}

func (s *stubLedger) Insert(ctx context.Context, event attendance.Event) (attendance.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	event.ID = s.nextID
	event.RecordedAt = time.Now().UTC()
	s.events = append(s.events, event)
	return event, nil
}

func (s *stubLedger) ListByEmployeeID(ctx context.Context, employeeID string) ([]attendance.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []attendance.Event
	for _, e := range s.events {
		if e.EmployeeID == employeeID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubLedger) GetEmployeeOrg(ctx context.Context, employeeID string) (int64, *int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orgID, ok := s.owners[employeeID]
	if !ok {
		return 0, nil, shared.ErrNotFound
	}
	return 1, orgID, nil
}

func (s *stubLedger) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type stubOrgs struct {
	orgs map[int64]*org.Organization
}

func (s *stubOrgs) GetByID(ctx context.Context, id int64) (*org.Organization, error) {
	o, ok := s.orgs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

func (s *stubOrgs) UpdateGeofence(ctx context.Context, id int64, lat, lon, radius *float64) (*org.Organization, error) {
	return nil, errors.New("not implemented")
}

func ptr[T any](v T) *T { return &v }

func fencedOrg(id int64) *org.Organization {
	return &org.Organization{
		ID:              id,
		Name:            "Acme",
		Latitude:        ptr(37.5),
		Longitude:       ptr(127.0),
		GeofenceRadiusM: ptr(100.0),
	}
}

func openOrg(id int64) *org.Organization {
	return &org.Organization{ID: id, Name: "Acme"}
}

func principalFor(orgID int64, employeeID string) shared.Principal {
	return shared.Principal{
		IdentityID: 1,
		EmployeeID: employeeID,
		OrgID:      &orgID,
		Role:       shared.RoleEmployee,
	}
}

func TestRecordInsideFence(t *testing.T) {
	ledger := &stubLedger{}
	service := attendance.NewService(ledger, &stubOrgs{orgs: map[int64]*org.Organization{1: fencedOrg(1)}})

	event, err := service.Record(context.Background(), principalFor(1, "kim_1"), attendance.RecordInput{
		EmployeeID: "kim_1",
		Type:       attendance.CheckIn,
		Latitude:   ptr(37.50072), // roughly 80m from the anchor
		Longitude:  ptr(127.0),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if event.ID == 0 {
		t.Fatalf("expected committed id")
	}
	if event.RecordedAt.IsZero() {
		t.Fatalf("expected server-assigned timestamp")
	}
	if event.Type != attendance.CheckIn {
		t.Fatalf("expected CHECK_IN, got %q", event.Type)
	}
}

func TestRecordOutsideFence(t *testing.T) {
	ledger := &stubLedger{}
	service := attendance.NewService(ledger, &stubOrgs{orgs: map[int64]*org.Organization{1: fencedOrg(1)}})

	_, err := service.Record(context.Background(), principalFor(1, "kim_1"), attendance.RecordInput{
		EmployeeID: "kim_1",
		Type:       attendance.CheckIn,
		Latitude:   ptr(37.508), // roughly 890m from the anchor
		Longitude:  ptr(127.0),
	})
	if !errors.Is(err, attendance.ErrOutOfGeofence) {
		t.Fatalf("expected ErrOutOfGeofence, got %v", err)
	}
	if ledger.count() != 0 {
		t.Fatalf("rejected event must not be persisted")
	}
}

func TestRecordMissingLocation(t *testing.T) {
	ledger := &stubLedger{}
	service := attendance.NewService(ledger, &stubOrgs{orgs: map[int64]*org.Organization{1: fencedOrg(1)}})

	_, err := service.Record(context.Background(), principalFor(1, "kim_1"), attendance.RecordInput{
		EmployeeID: "kim_1",
		Type:       attendance.CheckOut,
	})
	if !errors.Is(err, attendance.ErrMissingLocation) {
		t.Fatalf("expected ErrMissingLocation, got %v", err)
	}
	if ledger.count() != 0 {
		t.Fatalf("rejected event must not be persisted")
	}
}

func TestRecordWithoutFenceConfigured(t *testing.T) {
	ledger := &stubLedger{}
	service := attendance.NewService(ledger, &stubOrgs{orgs: map[int64]*org.Organization{1: openOrg(1)}})

	// No coordinates at all: fine when the organization has no fence.
	if _, err := service.Record(context.Background(), principalFor(1, "kim_1"), attendance.RecordInput{
		EmployeeID: "kim_1",
		Type:       attendance.CheckIn,
	}); err != nil {
		t.Fatalf("record without fence: %v", err)
	}
	// Arbitrary far-away coordinates are accepted too.
	if _, err := service.Record(context.Background(), principalFor(1, "kim_1"), attendance.RecordInput{
		EmployeeID: "kim_1",
		Type:       attendance.CheckOut,
		Latitude:   ptr(-33.86),
		Longitude:  ptr(151.2),
	}); err != nil {
		t.Fatalf("record far away without fence: %v", err)
	}
}

func TestRecordRejectsUnknownType(t *testing.T) {
	ledger := &stubLedger{}
	service := attendance.NewService(ledger, &stubOrgs{orgs: map[int64]*org.Organization{1: openOrg(1)}})

	_, err := service.Record(context.Background(), principalFor(1, "kim_1"), attendance.RecordInput{
		EmployeeID: "kim_1",
		Type:       "LUNCH",
	})
	if !errors.Is(err, attendance.ErrUnknownEventType) {
		t.Fatalf("expected ErrUnknownEventType, got %v", err)
	}
}

func TestRecordRejectsForeignEmployeeID(t *testing.T) {
	ledger := &stubLedger{}
	service := attendance.NewService(ledger, &stubOrgs{orgs: map[int64]*org.Organization{1: openOrg(1)}})

	_, err := service.Record(context.Background(), principalFor(1, "kim_1"), attendance.RecordInput{
		EmployeeID: "lee_1",
		Type:       attendance.CheckIn,
	})
	if !errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if ledger.count() != 0 {
		t.Fatalf("spoofed event must not be persisted")
	}
}

func TestHistoryVisibility(t *testing.T) {
	ledger := &stubLedger{owners: map[string]*int64{
		"kim_1": ptr(int64(1)),
		"lee_2": ptr(int64(2)),
	}}
	service := attendance.NewService(ledger, &stubOrgs{orgs: map[int64]*org.Organization{1: openOrg(1), 2: openOrg(2)}})

	if _, err := service.Record(context.Background(), principalFor(1, "kim_1"), attendance.RecordInput{
		EmployeeID: "kim_1", Type: attendance.CheckIn,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Self access.
	events, err := service.History(context.Background(), principalFor(1, "kim_1"), "kim_1")
	if err != nil {
		t.Fatalf("self history: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	// Same-org admin.
	admin := shared.Principal{IdentityID: 99, EmployeeID: "boss_1", OrgID: ptr(int64(1)), Role: shared.RoleAdmin}
	if _, err := service.History(context.Background(), admin, "kim_1"); err != nil {
		t.Fatalf("same-org admin history: %v", err)
	}

	// An existing employee of another tenant looks exactly like a
	// nonexistent one: not-found either way, never forbidden.
	foreignAdmin := shared.Principal{IdentityID: 98, EmployeeID: "boss_2", OrgID: ptr(int64(2)), Role: shared.RoleAdmin}
	if _, err := service.History(context.Background(), foreignAdmin, "kim_1"); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-tenant admin, got %v", err)
	}
	if _, err := service.History(context.Background(), foreignAdmin, "ghost_1"); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown employee, got %v", err)
	}
	if _, err := service.History(context.Background(), principalFor(2, "peon_2"), "kim_1"); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-tenant employee, got %v", err)
	}

	// Plain employee reading a colleague in the same organization.
	if _, err := service.History(context.Background(), principalFor(1, "other_1"), "kim_1"); !errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin peer, got %v", err)
	}

	// Unknown employee answers not-found for a same-org admin as well.
	if _, err := service.History(context.Background(), admin, "ghost_1"); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown employee, got %v", err)
	}
}

func TestConcurrentRecordsAcrossTenants(t *testing.T) {
	ledger := &stubLedger{}
	service := attendance.NewService(ledger, &stubOrgs{orgs: map[int64]*org.Organization{
		1: fencedOrg(1),
		2: openOrg(2),
	}})

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := service.Record(context.Background(), principalFor(1, "kim_1"), attendance.RecordInput{
				EmployeeID: "kim_1",
				Type:       attendance.CheckIn,
				Latitude:   ptr(37.5),
				Longitude:  ptr(127.0),
			})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := service.Record(context.Background(), principalFor(2, "lee_2"), attendance.RecordInput{
				EmployeeID: "lee_2",
				Type:       attendance.CheckOut,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent record: %v", err)
		}
	}
	if ledger.count() != 20 {
		t.Fatalf("expected 20 committed events, got %d", ledger.count())
	}
}
