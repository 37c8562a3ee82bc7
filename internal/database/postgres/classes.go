package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"classservice/internal/database/repo"
	"classservice/internal/errdefs"
)

const classColumns = `
	c.id::text, c.type, c.title, c.course_id::text, c.tutor_id::text,
	c.student_id::text, c.starts_at, c.duration_min, c.meeting_link,
	c.status, c.created_at,
	COALESCE(array_agg(p.student_id::text ORDER BY p.added_at)
		FILTER (WHERE p.student_id IS NOT NULL), '{}')
`

const classJoin = `
	LEFT JOIN class_participants p ON p.class_id = c.id
`

const classGroupBy = `
	GROUP BY c.id
`

func scanClass(row pgx.Row) (*repo.Class, error) {
	var class repo.Class
	err := row.Scan(
		&class.ID,
		&class.Type,
		&class.Title,
		&class.CourseID,
		&class.TutorID,
		&class.StudentID,
		&class.StartsAt,
		&class.DurationMin,
		&class.MeetingLink,
		&class.Status,
		&class.CreatedAt,
		&class.Participants,
	)
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *PostgresRepository) CreateClassIfFree(ctx context.Context, class repo.Class) (*repo.Class, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize the overlap check and the insert per tutor, otherwise two
	// concurrent accepts could both pass the check and double-book.
	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, class.TutorID,
	); err != nil {
		return nil, fmt.Errorf("failed to acquire tutor lock: %w", err)
	}

	conflictQuery := `
		SELECT ` + classColumns + `
		FROM classes c` + classJoin + `
		WHERE c.tutor_id = $1
		  AND c.starts_at < $3
		  AND c.starts_at + make_interval(mins => c.duration_min) > $2` + classGroupBy + `
		LIMIT 1
	`

	conflict, err := scanClass(tx.QueryRow(ctx, conflictQuery, class.TutorID, class.StartsAt, class.EndsAt()))
	if err == nil {
		return conflict, errdefs.ErrScheduleConflict
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check schedule conflicts: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO classes
			(id, type, title, course_id, tutor_id, student_id, starts_at, duration_min, meeting_link, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		class.ID,
		class.Type,
		class.Title,
		class.CourseID,
		class.TutorID,
		class.StudentID,
		class.StartsAt,
		class.DurationMin,
		class.MeetingLink,
		class.Status,
		class.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create class: %w", err)
	}

	for _, studentID := range class.Participants {
		if _, err := tx.Exec(ctx, `
			INSERT INTO class_participants (class_id, student_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, class.ID, studentID); err != nil {
			return nil, fmt.Errorf("failed to add class participant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit class creation: %w", err)
	}

	return &class, nil
}

func (r *PostgresRepository) GetClass(ctx context.Context, id string) (*repo.Class, error) {
	query := `
		SELECT ` + classColumns + `
		FROM classes c` + classJoin + `
		WHERE c.id = $1` + classGroupBy

	class, err := scanClass(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errdefs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get class: %w", err)
	}

	return class, nil
}

func (r *PostgresRepository) FindGroupClassByCourse(ctx context.Context, courseID string) (*repo.Class, error) {
	query := `
		SELECT ` + classColumns + `
		FROM classes c` + classJoin + `
		WHERE c.course_id = $1 AND c.type = 'Group'` + classGroupBy + `
		ORDER BY c.created_at ASC
		LIMIT 1
	`

	class, err := scanClass(r.pool.QueryRow(ctx, query, courseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errdefs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find group class: %w", err)
	}

	return class, nil
}

func (r *PostgresRepository) AddParticipant(ctx context.Context, classID, studentID string) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		INSERT INTO class_participants (class_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, classID, studentID)
	if err != nil {
		return false, fmt.Errorf("failed to add class participant: %w", err)
	}

	return res.RowsAffected() > 0, nil
}

func (r *PostgresRepository) ListClassesByTutor(ctx context.Context, tutorID string) ([]repo.Class, error) {
	query := `
		SELECT ` + classColumns + `
		FROM classes c` + classJoin + `
		WHERE c.tutor_id = $1` + classGroupBy + `
		ORDER BY c.starts_at ASC
	`

	return r.listClasses(ctx, query, tutorID)
}

func (r *PostgresRepository) ListAcceptedByStudent(ctx context.Context, studentID string) ([]repo.Class, error) {
	// Personal classes requested by the student plus Group classes the
	// student participates in.
	query := `
		SELECT ` + classColumns + `
		FROM classes c` + classJoin + `
		WHERE c.status = 'Accepted'
		  AND ((c.type = 'Personal' AND c.student_id = $1)
		    OR (c.type = 'Group' AND EXISTS (
			SELECT 1 FROM class_participants cp
			WHERE cp.class_id = c.id AND cp.student_id = $1
		)))` + classGroupBy + `
		ORDER BY c.starts_at ASC
	`

	return r.listClasses(ctx, query, studentID)
}

func (r *PostgresRepository) ListGroupClassesByCourse(ctx context.Context, courseID string, futureOnly bool) ([]repo.Class, error) {
	query := `
		SELECT ` + classColumns + `
		FROM classes c` + classJoin + `
		WHERE c.course_id = $1 AND c.type = 'Group'
	`
	if futureOnly {
		query += ` AND c.starts_at >= now()`
	}
	query += classGroupBy + ` ORDER BY c.starts_at ASC`

	return r.listClasses(ctx, query, courseID)
}

func (r *PostgresRepository) listClasses(ctx context.Context, query string, args ...interface{}) ([]repo.Class, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	defer rows.Close()

	var classes []repo.Class
	for rows.Next() {
		class, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan class row: %w", err)
		}
		classes = append(classes, *class)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating class rows: %w", err)
	}

	return classes, nil
}

func (r *PostgresRepository) DeleteClass(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete class: %w", err)
	}

	if res.RowsAffected() == 0 {
		return errdefs.ErrNotFound
	}

	return nil
}
