package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/workpulse/workpulse/internal/jobs"
)

// Digester aggregates one day of attendance events per organization and
// stores the counts for reporting.
type Digester struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewDigester constructs a Digester.
func NewDigester(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *Digester {
	return &Digester{pool: pool, logger: logger, metrics: metrics}
}

// HandleAttendanceDigest processes TaskAttendanceDigest tasks.
func (d *Digester) HandleAttendanceDigest(ctx context.Context, t *asynq.Task) error {
	var payload AttendanceDigestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	day := time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)
	if payload.Day != "" {
		parsed, err := time.Parse("2006-01-02", payload.Day)
		if err != nil {
			return asynq.SkipRetry
		}
		day = parsed
	}

	return d.metrics.Track(TaskAttendanceDigest).End(d.Run(ctx, day))
}

// Run computes and upserts the digest for one UTC day.
func (d *Digester) Run(ctx context.Context, day time.Time) error {
	rows, err := d.pool.Query(ctx,
		`SELECT i.org_id,
		        count(*) FILTER (WHERE a.event_type = 'CHECK_IN'),
		        count(*) FILTER (WHERE a.event_type = 'CHECK_OUT')
		 FROM attendance_events a
		 JOIN identities i ON i.id = a.identity_id
		 WHERE i.org_id IS NOT NULL
		   AND a.recorded_at >= $1 AND a.recorded_at < $2
		 GROUP BY i.org_id`,
		day, day.AddDate(0, 0, 1))
	if err != nil {
		return err
	}
	defer rows.Close()

	type digest struct {
		orgID     int64
		checkIns  int64
		checkOuts int64
	}
	var digests []digest
	for rows.Next() {
		var dg digest
		if err := rows.Scan(&dg.orgID, &dg.checkIns, &dg.checkOuts); err != nil {
			return err
		}
		digests = append(digests, dg)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, dg := range digests {
		_, err := d.pool.Exec(ctx,
			`INSERT INTO attendance_digests (org_id, day, check_ins, check_outs)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (org_id, day) DO UPDATE SET check_ins = EXCLUDED.check_ins, check_outs = EXCLUDED.check_outs`,
			dg.orgID, day, dg.checkIns, dg.checkOuts)
		if err != nil {
			return err
		}
		d.metrics.AddDigestedEvents(dg.orgID, dg.checkIns+dg.checkOuts)
		d.logger.Info("attendance digest",
			slog.Int64("org_id", dg.orgID),
			slog.String("day", day.Format("2006-01-02")),
			slog.Int64("check_ins", dg.checkIns),
			slog.Int64("check_outs", dg.checkOuts))
	}
	return nil
}
