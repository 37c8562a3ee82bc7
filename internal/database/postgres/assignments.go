package postgres

import (
	"context"
	"fmt"
	"time"

	"classservice/internal/database/repo"
	"classservice/internal/errdefs"
)

func (r *PostgresRepository) CreateAssignment(ctx context.Context, a repo.Assignment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO assignments (id, class_id, file_url, uploaded_at, deadline)
		VALUES ($1, $2, $3, $4, $5)
	`,
		a.ID,
		a.ClassID,
		a.FileURL,
		a.UploadedAt,
		a.Deadline,
	)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListAssignments(ctx context.Context, classID string) ([]repo.Assignment, error) {
	// Position addressing is a read-time view: order is stable by
	// (uploaded_at, id) and (submitted_at, id).
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, class_id::text, file_url, uploaded_at, deadline
		FROM assignments
		WHERE class_id = $1
		ORDER BY uploaded_at ASC, id ASC
	`, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []repo.Assignment
	index := make(map[string]int)
	for rows.Next() {
		var a repo.Assignment
		if err := rows.Scan(&a.ID, &a.ClassID, &a.FileURL, &a.UploadedAt, &a.Deadline); err != nil {
			return nil, fmt.Errorf("failed to scan assignment row: %w", err)
		}
		index[a.ID] = len(assignments)
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignment rows: %w", err)
	}

	if len(assignments) == 0 {
		return assignments, nil
	}

	solRows, err := r.pool.Query(ctx, `
		SELECT s.id::text, s.assignment_id::text, s.student_id::text,
		       COALESCE(trim(u.first_name || ' ' || u.last_name), ''),
		       COALESCE(u.email, ''),
		       s.file_url, s.submitted_at, s.grade, s.feedback
		FROM solutions s
		LEFT JOIN users u ON u.id = s.student_id
		JOIN assignments a ON a.id = s.assignment_id
		WHERE a.class_id = $1
		ORDER BY s.submitted_at ASC, s.id ASC
	`, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to list solutions: %w", err)
	}
	defer solRows.Close()

	for solRows.Next() {
		var s repo.Solution
		if err := solRows.Scan(
			&s.ID,
			&s.AssignmentID,
			&s.StudentID,
			&s.StudentName,
			&s.StudentEmail,
			&s.FileURL,
			&s.SubmittedAt,
			&s.Grade,
			&s.Feedback,
		); err != nil {
			return nil, fmt.Errorf("failed to scan solution row: %w", err)
		}
		if i, ok := index[s.AssignmentID]; ok {
			assignments[i].Solutions = append(assignments[i].Solutions, s)
		}
	}
	if err := solRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating solution rows: %w", err)
	}

	return assignments, nil
}

func (r *PostgresRepository) SetDeadline(ctx context.Context, assignmentID string, deadline time.Time) error {
	res, err := r.pool.Exec(ctx,
		`UPDATE assignments SET deadline = $2 WHERE id = $1`,
		assignmentID, deadline,
	)
	if err != nil {
		return fmt.Errorf("failed to set assignment deadline: %w", err)
	}

	if res.RowsAffected() == 0 {
		return errdefs.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) CreateSolution(ctx context.Context, s repo.Solution) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO solutions (id, assignment_id, student_id, file_url, submitted_at, grade, feedback)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		s.ID,
		s.AssignmentID,
		s.StudentID,
		s.FileURL,
		s.SubmittedAt,
		s.Grade,
		s.Feedback,
	)
	if err != nil {
		return fmt.Errorf("failed to create solution: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GradeSolution(ctx context.Context, solutionID string, grade, feedback *string) error {
	// Only provided fields are overwritten.
	res, err := r.pool.Exec(ctx, `
		UPDATE solutions
		SET grade = COALESCE($2, grade), feedback = COALESCE($3, feedback)
		WHERE id = $1
	`, solutionID, grade, feedback)
	if err != nil {
		return fmt.Errorf("failed to grade solution: %w", err)
	}

	if res.RowsAffected() == 0 {
		return errdefs.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) DeleteAssignment(ctx context.Context, assignmentID string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	if res.RowsAffected() == 0 {
		return errdefs.ErrNotFound
	}

	return nil
}
