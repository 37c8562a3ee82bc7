package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"classservice/internal/database/repo"
	"classservice/internal/kafka"
)

type RequestRepository struct {
	mock.Mock
}

func (m *RequestRepository) CreateRequestIfFree(ctx context.Context, req repo.ClassRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *RequestRepository) GetRequest(ctx context.Context, id string) (*repo.ClassRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repo.ClassRequest), args.Error(1)
}

func (m *RequestRepository) MarkDecided(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *RequestRepository) ListRequestsByTutor(ctx context.Context, tutorID string) ([]repo.ClassRequest, error) {
	args := m.Called(ctx, tutorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repo.ClassRequest), args.Error(1)
}

func (m *RequestRepository) ListRequestsByStudent(ctx context.Context, studentID string) ([]repo.ClassRequest, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repo.ClassRequest), args.Error(1)
}

type ClassRepository struct {
	mock.Mock
}

func (m *ClassRepository) CreateClassIfFree(ctx context.Context, class repo.Class) (*repo.Class, error) {
	args := m.Called(ctx, class)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repo.Class), args.Error(1)
}

func (m *ClassRepository) GetClass(ctx context.Context, id string) (*repo.Class, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repo.Class), args.Error(1)
}

func (m *ClassRepository) FindGroupClassByCourse(ctx context.Context, courseID string) (*repo.Class, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repo.Class), args.Error(1)
}

func (m *ClassRepository) AddParticipant(ctx context.Context, classID, studentID string) (bool, error) {
	args := m.Called(ctx, classID, studentID)
	return args.Bool(0), args.Error(1)
}

func (m *ClassRepository) ListClassesByTutor(ctx context.Context, tutorID string) ([]repo.Class, error) {
	args := m.Called(ctx, tutorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repo.Class), args.Error(1)
}

func (m *ClassRepository) ListAcceptedByStudent(ctx context.Context, studentID string) ([]repo.Class, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repo.Class), args.Error(1)
}

func (m *ClassRepository) ListGroupClassesByCourse(ctx context.Context, courseID string, futureOnly bool) ([]repo.Class, error) {
	args := m.Called(ctx, courseID, futureOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repo.Class), args.Error(1)
}

func (m *ClassRepository) DeleteClass(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type AssignmentRepository struct {
	mock.Mock
}

func (m *AssignmentRepository) CreateAssignment(ctx context.Context, a repo.Assignment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *AssignmentRepository) ListAssignments(ctx context.Context, classID string) ([]repo.Assignment, error) {
	args := m.Called(ctx, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repo.Assignment), args.Error(1)
}

func (m *AssignmentRepository) SetDeadline(ctx context.Context, assignmentID string, deadline time.Time) error {
	args := m.Called(ctx, assignmentID, deadline)
	return args.Error(0)
}

func (m *AssignmentRepository) CreateSolution(ctx context.Context, s repo.Solution) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *AssignmentRepository) GradeSolution(ctx context.Context, solutionID string, grade, feedback *string) error {
	args := m.Called(ctx, solutionID, grade, feedback)
	return args.Error(0)
}

func (m *AssignmentRepository) DeleteAssignment(ctx context.Context, assignmentID string) error {
	args := m.Called(ctx, assignmentID)
	return args.Error(0)
}

type CourseRepository struct {
	mock.Mock
}

func (m *CourseRepository) GetCourse(ctx context.Context, id string) (*repo.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repo.Course), args.Error(1)
}

func (m *CourseRepository) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	args := m.Called(ctx, courseID, studentID)
	return args.Bool(0), args.Error(1)
}

func (m *CourseRepository) ListEnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *CourseRepository) GetUsers(ctx context.Context, ids []string) (map[string]repo.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]repo.User), args.Error(1)
}

type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) CreateNotification(ctx context.Context, n repo.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NotificationRepository) ListNotifications(ctx context.Context, userID string) ([]repo.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repo.Notification), args.Error(1)
}

func (m *NotificationRepository) MarkSeen(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *NotificationRepository) DeleteNotification(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

type Storage struct {
	mock.Mock
}

func (m *Storage) Upload(ctx context.Context, data []byte, filename, category string) (string, error) {
	args := m.Called(ctx, data, filename, category)
	return args.String(0), args.Error(1)
}

type EventSender struct {
	mock.Mock
}

func (m *EventSender) SendRequestEvent(ctx context.Context, event kafka.RequestEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type Scheduler struct {
	mock.Mock
}

func (m *Scheduler) AcceptIntoClass(ctx context.Context, req *repo.ClassRequest, meetingLink string) (*repo.Class, error) {
	args := m.Called(ctx, req, meetingLink)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repo.Class), args.Error(1)
}

func (m *Scheduler) DiscardClass(ctx context.Context, classID string) error {
	args := m.Called(ctx, classID)
	return args.Error(0)
}
