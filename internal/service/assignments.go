package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"classservice/internal/database/repo"
	"classservice/internal/errdefs"
	"classservice/internal/files"
	"classservice/internal/logging"
)

// AssignmentService tracks per-class assignments and their solution
// submissions. Assignments are addressed externally by list position; the
// position is a read-time view over stable identifiers, so callers must
// re-fetch after any mutation before addressing by index again.
type AssignmentService struct {
	assignments repo.AssignmentRepository
	classes     repo.ClassRepository
	storage     files.Storage
	logger      *logging.Logger
}

func NewAssignmentService(
	assignments repo.AssignmentRepository,
	classes repo.ClassRepository,
	storage files.Storage,
	logger *logging.Logger,
) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		classes:     classes,
		storage:     storage,
		logger:      logger,
	}
}

func (s *AssignmentService) PostAssignment(ctx context.Context, classID, tutorID string, data []byte, filename string) ([]repo.Assignment, error) {
	class, err := s.classes.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.TutorID != tutorID {
		return nil, errdefs.ErrPermissionDenied
	}

	if !files.IsPDF(filename, data) {
		return nil, fmt.Errorf("only PDF files are allowed: %w", errdefs.ErrValidation)
	}

	fileURL, err := s.storage.Upload(ctx, data, filename, "assignment")
	if err != nil {
		return nil, err
	}

	assignment := repo.Assignment{
		ID:         newID(),
		ClassID:    classID,
		FileURL:    fileURL,
		UploadedAt: time.Now(),
	}
	if err := s.assignments.CreateAssignment(ctx, assignment); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "assignment uploaded",
		zap.String("class_id", classID),
		zap.String("assignment_id", assignment.ID),
	)

	return s.assignments.ListAssignments(ctx, classID)
}

func (s *AssignmentService) SetDeadline(ctx context.Context, classID string, index int, deadline time.Time, tutorID string) ([]repo.Assignment, error) {
	assignment, err := s.assignmentByIndex(ctx, classID, tutorID, index)
	if err != nil {
		return nil, err
	}

	if err := s.assignments.SetDeadline(ctx, assignment.ID, deadline); err != nil {
		return nil, err
	}

	return s.assignments.ListAssignments(ctx, classID)
}

func (s *AssignmentService) SubmitSolution(ctx context.Context, classID string, index int, studentID string, data []byte, filename string) error {
	if _, err := s.classes.GetClass(ctx, classID); err != nil {
		return err
	}

	if !files.IsPDF(filename, data) {
		return fmt.Errorf("only PDF files are allowed: %w", errdefs.ErrValidation)
	}

	list, err := s.assignments.ListAssignments(ctx, classID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(list) {
		return fmt.Errorf("assignment not found: %w", errdefs.ErrNotFound)
	}
	assignment := list[index]

	// Submission closes once the deadline passes; this is the
	// authoritative check, not the client's.
	if assignment.Deadline != nil && time.Now().After(*assignment.Deadline) {
		return errdefs.ErrDeadlinePassed
	}

	fileURL, err := s.storage.Upload(ctx, data, filename, "solution")
	if err != nil {
		return err
	}

	solution := repo.Solution{
		ID:           newID(),
		AssignmentID: assignment.ID,
		StudentID:    studentID,
		FileURL:      fileURL,
		SubmittedAt:  time.Now(),
	}

	return s.assignments.CreateSolution(ctx, solution)
}

func (s *AssignmentService) GradeSolution(ctx context.Context, classID string, assignmentIndex, solutionIndex int, tutorID string, grade, feedback *string) error {
	assignment, err := s.assignmentByIndex(ctx, classID, tutorID, assignmentIndex)
	if err != nil {
		return err
	}
	if solutionIndex < 0 || solutionIndex >= len(assignment.Solutions) {
		return fmt.Errorf("solution not found: %w", errdefs.ErrNotFound)
	}

	return s.assignments.GradeSolution(ctx, assignment.Solutions[solutionIndex].ID, grade, feedback)
}

func (s *AssignmentService) DeleteAssignment(ctx context.Context, classID string, index int, tutorID string) ([]repo.Assignment, error) {
	assignment, err := s.assignmentByIndex(ctx, classID, tutorID, index)
	if err != nil {
		return nil, err
	}

	if err := s.assignments.DeleteAssignment(ctx, assignment.ID); err != nil {
		return nil, err
	}

	return s.assignments.ListAssignments(ctx, classID)
}

func (s *AssignmentService) GetAssignments(ctx context.Context, classID string) ([]repo.Assignment, error) {
	if _, err := s.classes.GetClass(ctx, classID); err != nil {
		return nil, err
	}

	return s.assignments.ListAssignments(ctx, classID)
}

func (s *AssignmentService) assignmentByIndex(ctx context.Context, classID, tutorID string, index int) (*repo.Assignment, error) {
	class, err := s.classes.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.TutorID != tutorID {
		return nil, errdefs.ErrPermissionDenied
	}

	list, err := s.assignments.ListAssignments(ctx, classID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("assignment not found: %w", errdefs.ErrNotFound)
	}

	return &list[index], nil
}
