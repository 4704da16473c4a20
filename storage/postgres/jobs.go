package postgres

import (
	"context"
	"time"

	payments "github.com/goliatone/go-payments"
	"github.com/goliatone/go-payments/scheduler"
)

const jobColumns = `job_id, kind, tracking_data, schedule_time, retry_count,
	status, created_at, modified_at`

func (s *Store) Enqueue(ctx context.Context, job scheduler.Job) (scheduler.Job, error) {
	_, err := s.db.ExecContext(ctx, `INSERT INTO process_jobs
		(job_id, kind, tracking_data, schedule_time, retry_count, status, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		job.ID, string(job.Kind), []byte(job.TrackingData), job.ScheduleTime,
		job.RetryCount, string(job.Status), job.CreatedAt, job.ModifiedAt)
	if err != nil {
		return scheduler.Job{}, payments.WrapStorage(err, "enqueue job")
	}
	return job, nil
}

// FindDue claims due pending jobs. The status flip to running happens in
// the same statement so two consumers polling concurrently never claim the
// same job.
func (s *Store) FindDue(ctx context.Context, now time.Time, limit int) ([]scheduler.Job, error) {
	rows, err := s.db.QueryContext(ctx, `UPDATE process_jobs SET status = $1, modified_at = now()
		WHERE job_id IN (
			SELECT job_id FROM process_jobs
			WHERE status = $2 AND schedule_time <= $3
			ORDER BY schedule_time
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns,
		string(scheduler.JobStatusRunning), string(scheduler.JobStatusPending), now, limit)
	if err != nil {
		return nil, payments.WrapStorage(err, "find due jobs")
	}
	defer rows.Close()

	var out []scheduler.Job
	for rows.Next() {
		var job scheduler.Job
		var kind, status string
		var tracking []byte
		if err := rows.Scan(&job.ID, &kind, &tracking, &job.ScheduleTime,
			&job.RetryCount, &status, &job.CreatedAt, &job.ModifiedAt); err != nil {
			return nil, payments.WrapStorage(err, "scan job")
		}
		job.Kind = scheduler.JobKind(kind)
		job.Status = scheduler.JobStatus(status)
		job.TrackingData = tracking
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, payments.WrapStorage(err, "find due jobs")
	}
	return out, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status scheduler.JobStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE process_jobs SET status = $1, modified_at = now()
		WHERE job_id = $2`, string(status), id)
	if err != nil {
		return payments.WrapStorage(err, "update job status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return payments.NewStorageOther("job not found: " + id)
	}
	return nil
}

func (s *Store) Requeue(ctx context.Context, id string, at time.Time, retryCount int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE process_jobs
		SET status = $1, schedule_time = $2, retry_count = $3, modified_at = now()
		WHERE job_id = $4`,
		string(scheduler.JobStatusPending), at, retryCount, id)
	if err != nil {
		return payments.WrapStorage(err, "requeue job")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return payments.NewStorageOther("job not found: " + id)
	}
	return nil
}
