package attendance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workpulse/workpulse/internal/shared"
)

// Repository defines persistence operations for the attendance ledger.
type Repository interface {
	Insert(ctx context.Context, event Event) (Event, error)
	ListByEmployeeID(ctx context.Context, employeeID string) ([]Event, error)
	GetEmployeeOrg(ctx context.Context, employeeID string) (identityID int64, orgID *int64, err error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert appends one event. The timestamp is assigned by the database inside
// the same statement, so the write is atomic: the committed row carries both
// its id and its server clock.
func (r *PGRepository) Insert(ctx context.Context, event Event) (Event, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO attendance_events (identity_id, employee_id, event_type, latitude, longitude, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 RETURNING id, recorded_at`,
		event.IdentityID, event.EmployeeID, event.Type, event.Latitude, event.Longitude)
	if err := row.Scan(&event.ID, &event.RecordedAt); err != nil {
		return Event{}, err
	}
	return event, nil
}

// ListByEmployeeID returns the chronological attendance history.
func (r *PGRepository) ListByEmployeeID(ctx context.Context, employeeID string) ([]Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, identity_id, employee_id, event_type, latitude, longitude, recorded_at
		 FROM attendance_events WHERE employee_id = $1 ORDER BY recorded_at, id`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.IdentityID, &e.EmployeeID, &e.Type, &e.Latitude, &e.Longitude, &e.RecordedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEmployeeOrg resolves the identity and organization an employee id
// belongs to, for tenant checks on the read path.
func (r *PGRepository) GetEmployeeOrg(ctx context.Context, employeeID string) (int64, *int64, error) {
	var identityID int64
	var orgID *int64
	err := r.pool.QueryRow(ctx, `SELECT id, org_id FROM identities WHERE employee_id = $1`, employeeID).Scan(&identityID, &orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil, shared.ErrNotFound
		}
		return 0, nil, err
	}
	return identityID, orgID, nil
}

var _ Repository = (*PGRepository)(nil)
