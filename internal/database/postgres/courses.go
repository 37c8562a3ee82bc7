package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"classservice/internal/database/repo"
	"classservice/internal/errdefs"
)

func (r *PostgresRepository) GetCourse(ctx context.Context, id string) (*repo.Course, error) {
	var course repo.Course
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, description, tutor_id::text
		FROM courses
		WHERE id = $1
	`, id).Scan(&course.ID, &course.Name, &course.Description, &course.TutorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errdefs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	return &course, nil
}

func (r *PostgresRepository) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	var enrolled bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM course_enrollments
			WHERE course_id = $1 AND student_id = $2
		)
	`, courseID, studentID).Scan(&enrolled)
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}

	return enrolled, nil
}

func (r *PostgresRepository) ListEnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT student_id::text
		FROM course_enrollments
		WHERE course_id = $1
		ORDER BY enrolled_at ASC
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrolled students: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment row: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollment rows: %w", err)
	}

	return ids, nil
}

func (r *PostgresRepository) GetUsers(ctx context.Context, ids []string) (map[string]repo.User, error) {
	if len(ids) == 0 {
		return map[string]repo.User{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, first_name, last_name, email, role
		FROM users
		WHERE id = ANY($1::uuid[])
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	users := make(map[string]repo.User, len(ids))
	for rows.Next() {
		var u repo.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users[u.ID] = u
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}
