package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"classservice/internal/database/repo"
	"classservice/internal/errdefs"
	"classservice/internal/kafka"
	"classservice/internal/logging"
)

const minDurationMinutes = 30

// EventSender publishes class-request lifecycle events for the
// notification pipeline. Emission is best-effort.
type EventSender interface {
	SendRequestEvent(ctx context.Context, event kafka.RequestEvent) error
}

// Scheduler is the part of ScheduleService the request ledger needs.
type Scheduler interface {
	AcceptIntoClass(ctx context.Context, req *repo.ClassRequest, meetingLink string) (*repo.Class, error)
	DiscardClass(ctx context.Context, classID string) error
}

// RequestService owns the class-request lifecycle: Pending until the
// course's tutor accepts or rejects.
type RequestService struct {
	requests      repo.RequestRepository
	courses       repo.CourseRepository
	notifications repo.NotificationRepository
	scheduler     Scheduler
	events        EventSender
	logger        *logging.Logger
}

func NewRequestService(
	requests repo.RequestRepository,
	courses repo.CourseRepository,
	notifications repo.NotificationRepository,
	scheduler Scheduler,
	events EventSender,
	logger *logging.Logger,
) *RequestService {
	return &RequestService{
		requests:      requests,
		courses:       courses,
		notifications: notifications,
		scheduler:     scheduler,
		events:        events,
		logger:        logger,
	}
}

type SubmitRequestInput struct {
	StudentID   string
	CourseID    string
	Type        string
	StartsAt    time.Time
	DurationMin int
	Notes       string
}

func (s *RequestService) SubmitRequest(ctx context.Context, in SubmitRequestInput) (*repo.ClassRequest, error) {
	if in.Type != repo.ClassTypePersonal && in.Type != repo.ClassTypeGroup {
		return nil, fmt.Errorf("type must be Personal or Group: %w", errdefs.ErrValidation)
	}
	if in.StartsAt.IsZero() {
		return nil, fmt.Errorf("time is required: %w", errdefs.ErrValidation)
	}
	if in.DurationMin < minDurationMinutes {
		return nil, fmt.Errorf("duration must be at least %d minutes: %w", minDurationMinutes, errdefs.ErrValidation)
	}

	course, err := s.courses.GetCourse(ctx, in.CourseID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.courses.IsEnrolled(ctx, in.CourseID, in.StudentID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, errdefs.ErrNotEnrolled
	}

	request := repo.ClassRequest{
		ID:          newID(),
		StudentID:   in.StudentID,
		TutorID:     course.TutorID,
		CourseID:    in.CourseID,
		Type:        in.Type,
		Notes:       in.Notes,
		StartsAt:    in.StartsAt,
		DurationMin: in.DurationMin,
		Status:      repo.RequestStatusPending,
		CreatedAt:   time.Now(),
	}

	if err := s.requests.CreateRequestIfFree(ctx, request); err != nil {
		return nil, err
	}

	s.notifyTutor(ctx, &request, course)

	return &request, nil
}

// notifyTutor is best-effort: a notification failure never rolls back the
// request it announces.
func (s *RequestService) notifyTutor(ctx context.Context, request *repo.ClassRequest, course *repo.Course) {
	message := fmt.Sprintf(
		"You have received a class request from a student for the course: %s at %s.",
		course.Name, request.StartsAt.UTC().Format(time.RFC3339),
	)

	notification := repo.Notification{
		ID:        newID(),
		UserID:    course.TutorID,
		Type:      "ClassRequestSent",
		Message:   message,
		Status:    repo.NotificationUnread,
		CreatedAt: time.Now(),
	}
	if err := s.notifications.CreateNotification(ctx, notification); err != nil {
		s.logger.Error(ctx, "failed to store tutor notification",
			zap.String("request_id", request.ID), zap.Error(err))
	}

	if s.events == nil {
		return
	}
	event := kafka.RequestEvent{
		RequestID: request.ID,
		StudentID: request.StudentID,
		TutorID:   request.TutorID,
		CourseID:  request.CourseID,
		ClassType: request.Type,
		StartsAt:  request.StartsAt,
		EventType: "requested",
		Message:   message,
	}
	if err := s.events.SendRequestEvent(ctx, event); err != nil {
		s.logger.Error(ctx, "failed to emit request event",
			zap.String("request_id", request.ID), zap.Error(err))
	}
}

type Decision struct {
	Request *repo.ClassRequest
	Class   *repo.Class
}

// Decide applies the tutor's verdict. For an accept, the class is
// materialized before the status flip so a scheduling conflict leaves the
// request Pending. The flip itself is conditional on the Pending status,
// which makes a concurrent double-decide lose cleanly.
func (s *RequestService) Decide(ctx context.Context, requestID, tutorID, decision, meetingLink string) (*Decision, error) {
	if decision != repo.RequestStatusAccepted && decision != repo.RequestStatusRejected {
		return nil, fmt.Errorf("status must be Accepted or Rejected: %w", errdefs.ErrValidation)
	}

	request, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.TutorID != tutorID {
		return nil, errdefs.ErrPermissionDenied
	}
	if request.Status != repo.RequestStatusPending {
		return nil, errdefs.ErrRequestNotPending
	}

	var class *repo.Class
	if decision == repo.RequestStatusAccepted {
		class, err = s.scheduler.AcceptIntoClass(ctx, request, meetingLink)
		if err != nil {
			return nil, err
		}
	}

	// A concurrent decide may win the flip. A freshly created Personal
	// class is then an orphan and gets discarded. A group append stays:
	// the membership may predate this decide, and removing it could undo
	// an earlier legitimate accept.
	if err := s.requests.MarkDecided(ctx, requestID, decision); err != nil {
		if errors.Is(err, errdefs.ErrRequestNotPending) && class != nil && request.Type == repo.ClassTypePersonal {
			if discardErr := s.scheduler.DiscardClass(ctx, class.ID); discardErr != nil {
				s.logger.Error(ctx, "failed to discard orphaned class",
					zap.String("class_id", class.ID), zap.Error(discardErr))
			}
		}
		return nil, err
	}
	request.Status = decision

	s.logger.Info(ctx, "class request decided",
		zap.String("request_id", requestID),
		zap.String("decision", decision),
	)

	return &Decision{Request: request, Class: class}, nil
}

func (s *RequestService) ListForTutor(ctx context.Context, tutorID string) ([]repo.ClassRequest, error) {
	return s.requests.ListRequestsByTutor(ctx, tutorID)
}

func (s *RequestService) ListForStudent(ctx context.Context, studentID string) ([]repo.ClassRequest, error) {
	return s.requests.ListRequestsByStudent(ctx, studentID)
}
