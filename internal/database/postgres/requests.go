package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"classservice/internal/database/repo"
	"classservice/internal/errdefs"
)

func (r *PostgresRepository) CreateRequestIfFree(ctx context.Context, req repo.ClassRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize the overlap check and the insert per student, otherwise two
	// concurrent submits could both pass the check.
	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, req.StudentID,
	); err != nil {
		return fmt.Errorf("failed to acquire student lock: %w", err)
	}

	// Half-open interval intersection over non-Rejected requests.
	var overlapping bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM class_requests
			WHERE student_id = $1
			  AND status <> 'Rejected'
			  AND starts_at < $3
			  AND starts_at + make_interval(mins => duration_min) > $2
		)
	`, req.StudentID, req.StartsAt, req.EndsAt()).Scan(&overlapping); err != nil {
		return fmt.Errorf("failed to check overlapping requests: %w", err)
	}
	if overlapping {
		return errdefs.ErrRequestConflict
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO class_requests
			(id, student_id, tutor_id, course_id, type, notes, starts_at, duration_min, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		req.ID,
		req.StudentID,
		req.TutorID,
		req.CourseID,
		req.Type,
		req.Notes,
		req.StartsAt,
		req.DurationMin,
		req.Status,
		req.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create class request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit class request: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetRequest(ctx context.Context, id string) (*repo.ClassRequest, error) {
	query := `
		SELECT id::text, student_id::text, tutor_id::text, course_id::text,
		       type, notes, starts_at, duration_min, status, created_at
		FROM class_requests
		WHERE id = $1
	`

	var req repo.ClassRequest
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.StudentID,
		&req.TutorID,
		&req.CourseID,
		&req.Type,
		&req.Notes,
		&req.StartsAt,
		&req.DurationMin,
		&req.Status,
		&req.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errdefs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get class request: %w", err)
	}

	return &req, nil
}

func (r *PostgresRepository) MarkDecided(ctx context.Context, id, status string) error {
	// Conditional flip: only a Pending request may be decided, so one of two
	// racing decisions loses with ErrRequestNotPending.
	res, err := r.pool.Exec(ctx,
		`UPDATE class_requests SET status = $2 WHERE id = $1 AND status = 'Pending'`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update class request status: %w", err)
	}

	if res.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM class_requests WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check class request: %w", err)
		}
		if !exists {
			return errdefs.ErrNotFound
		}
		return errdefs.ErrRequestNotPending
	}

	return nil
}

func (r *PostgresRepository) ListRequestsByTutor(ctx context.Context, tutorID string) ([]repo.ClassRequest, error) {
	return r.listRequests(ctx, "tutor_id", tutorID)
}

func (r *PostgresRepository) ListRequestsByStudent(ctx context.Context, studentID string) ([]repo.ClassRequest, error) {
	return r.listRequests(ctx, "student_id", studentID)
}

func (r *PostgresRepository) listRequests(ctx context.Context, column, id string) ([]repo.ClassRequest, error) {
	query := fmt.Sprintf(`
		SELECT id::text, student_id::text, tutor_id::text, course_id::text,
		       type, notes, starts_at, duration_min, status, created_at
		FROM class_requests
		WHERE %s = $1
		ORDER BY created_at DESC
	`, column)

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list class requests: %w", err)
	}
	defer rows.Close()

	var requests []repo.ClassRequest
	for rows.Next() {
		var req repo.ClassRequest
		if err := rows.Scan(
			&req.ID,
			&req.StudentID,
			&req.TutorID,
			&req.CourseID,
			&req.Type,
			&req.Notes,
			&req.StartsAt,
			&req.DurationMin,
			&req.Status,
			&req.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan class request row: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating class request rows: %w", err)
	}

	return requests, nil
}
