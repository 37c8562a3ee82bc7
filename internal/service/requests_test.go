package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"classservice/internal/database/repo"
	"classservice/internal/errdefs"
	"classservice/internal/logging"
	"classservice/internal/service"
	"classservice/internal/service/mocks"
)

const (
	studentID = "aba4f587-7f40-4bbd-a4a2-9b7f6b7dbcd0"
	tutorID   = "1b671a64-40d5-491e-99b0-da01ff1f3341"
	courseID  = "c56a4180-65aa-42ec-a945-5fd21dec0538"
	requestID = "f47ac10b-58cc-4372-a567-0e02b2c3d479"
)

type requestFixture struct {
	requests      *mocks.RequestRepository
	courses       *mocks.CourseRepository
	notifications *mocks.NotificationRepository
	scheduler     *mocks.Scheduler
	events        *mocks.EventSender
	svc           *service.RequestService
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()
	f := &requestFixture{
		requests:      &mocks.RequestRepository{},
		courses:       &mocks.CourseRepository{},
		notifications: &mocks.NotificationRepository{},
		scheduler:     &mocks.Scheduler{},
		events:        &mocks.EventSender{},
	}
	f.svc = service.NewRequestService(
		f.requests, f.courses, f.notifications, f.scheduler, f.events,
		logging.New(zap.NewNop()),
	)
	return f
}

func validInput() service.SubmitRequestInput {
	return service.SubmitRequestInput{
		StudentID:   studentID,
		CourseID:    courseID,
		Type:        repo.ClassTypePersonal,
		StartsAt:    time.Now().Add(24 * time.Hour),
		DurationMin: 60,
	}
}

func TestSubmitRequest(t *testing.T) {
	ctx := context.Background()
	course := &repo.Course{ID: courseID, Name: "Algebra", TutorID: tutorID}

	t.Run("Success", func(t *testing.T) {
		f := newRequestFixture(t)
		f.courses.On("GetCourse", ctx, courseID).Return(course, nil)
		f.courses.On("IsEnrolled", ctx, courseID, studentID).Return(true, nil)
		f.requests.On("CreateRequestIfFree", ctx, mock.MatchedBy(func(r repo.ClassRequest) bool {
			return r.StudentID == studentID && r.TutorID == tutorID && r.Status == repo.RequestStatusPending
		})).Return(nil)
		f.notifications.On("CreateNotification", ctx, mock.MatchedBy(func(n repo.Notification) bool {
			return n.UserID == tutorID && n.Status == repo.NotificationUnread
		})).Return(nil)
		f.events.On("SendRequestEvent", ctx, mock.Anything).Return(nil)

		request, err := f.svc.SubmitRequest(ctx, validInput())
		require.NoError(t, err)
		require.Equal(t, repo.RequestStatusPending, request.Status)
		require.Equal(t, tutorID, request.TutorID)
		f.requests.AssertExpectations(t)
		f.notifications.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})

	t.Run("Invalid Type", func(t *testing.T) {
		f := newRequestFixture(t)
		in := validInput()
		in.Type = "Hybrid"

		_, err := f.svc.SubmitRequest(ctx, in)
		require.ErrorIs(t, err, errdefs.ErrValidation)
	})

	t.Run("Duration Too Short", func(t *testing.T) {
		f := newRequestFixture(t)
		in := validInput()
		in.DurationMin = 15

		_, err := f.svc.SubmitRequest(ctx, in)
		require.ErrorIs(t, err, errdefs.ErrValidation)
	})

	t.Run("Not Enrolled", func(t *testing.T) {
		f := newRequestFixture(t)
		f.courses.On("GetCourse", ctx, courseID).Return(course, nil)
		f.courses.On("IsEnrolled", ctx, courseID, studentID).Return(false, nil)

		_, err := f.svc.SubmitRequest(ctx, validInput())
		require.ErrorIs(t, err, errdefs.ErrNotEnrolled)
		f.requests.AssertNotCalled(t, "CreateRequestIfFree", mock.Anything, mock.Anything)
	})

	t.Run("Overlapping Request", func(t *testing.T) {
		f := newRequestFixture(t)
		f.courses.On("GetCourse", ctx, courseID).Return(course, nil)
		f.courses.On("IsEnrolled", ctx, courseID, studentID).Return(true, nil)
		f.requests.On("CreateRequestIfFree", ctx, mock.Anything).Return(errdefs.ErrRequestConflict)

		_, err := f.svc.SubmitRequest(ctx, validInput())
		require.ErrorIs(t, err, errdefs.ErrRequestConflict)
		f.notifications.AssertNotCalled(t, "CreateNotification", mock.Anything, mock.Anything)
	})

	t.Run("Notification Failure Does Not Roll Back", func(t *testing.T) {
		f := newRequestFixture(t)
		f.courses.On("GetCourse", ctx, courseID).Return(course, nil)
		f.courses.On("IsEnrolled", ctx, courseID, studentID).Return(true, nil)
		f.requests.On("CreateRequestIfFree", ctx, mock.Anything).Return(nil)
		f.notifications.On("CreateNotification", ctx, mock.Anything).Return(errors.New("db down"))
		f.events.On("SendRequestEvent", ctx, mock.Anything).Return(errors.New("broker down"))

		request, err := f.svc.SubmitRequest(ctx, validInput())
		require.NoError(t, err)
		require.NotNil(t, request)
	})
}

func pendingRequest() *repo.ClassRequest {
	return &repo.ClassRequest{
		ID:          requestID,
		StudentID:   studentID,
		TutorID:     tutorID,
		CourseID:    courseID,
		Type:        repo.ClassTypePersonal,
		StartsAt:    time.Now().Add(24 * time.Hour),
		DurationMin: 60,
		Status:      repo.RequestStatusPending,
	}
}

func TestDecide(t *testing.T) {
	ctx := context.Background()

	t.Run("Accept Creates Class Then Flips Status", func(t *testing.T) {
		f := newRequestFixture(t)
		request := pendingRequest()
		class := &repo.Class{ID: "class-1", TutorID: tutorID}

		f.requests.On("GetRequest", ctx, requestID).Return(request, nil)
		f.scheduler.On("AcceptIntoClass", ctx, request, "https://meet.example/x").Return(class, nil)
		f.requests.On("MarkDecided", ctx, requestID, repo.RequestStatusAccepted).Return(nil)

		decision, err := f.svc.Decide(ctx, requestID, tutorID, repo.RequestStatusAccepted, "https://meet.example/x")
		require.NoError(t, err)
		require.Equal(t, repo.RequestStatusAccepted, decision.Request.Status)
		require.Equal(t, class, decision.Class)
		f.requests.AssertExpectations(t)
	})

	t.Run("Reject Skips Scheduler", func(t *testing.T) {
		f := newRequestFixture(t)
		f.requests.On("GetRequest", ctx, requestID).Return(pendingRequest(), nil)
		f.requests.On("MarkDecided", ctx, requestID, repo.RequestStatusRejected).Return(nil)

		decision, err := f.svc.Decide(ctx, requestID, tutorID, repo.RequestStatusRejected, "")
		require.NoError(t, err)
		require.Nil(t, decision.Class)
		f.scheduler.AssertNotCalled(t, "AcceptIntoClass", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Invalid Decision", func(t *testing.T) {
		f := newRequestFixture(t)

		_, err := f.svc.Decide(ctx, requestID, tutorID, "Maybe", "")
		require.ErrorIs(t, err, errdefs.ErrValidation)
	})

	t.Run("Wrong Tutor", func(t *testing.T) {
		f := newRequestFixture(t)
		f.requests.On("GetRequest", ctx, requestID).Return(pendingRequest(), nil)

		_, err := f.svc.Decide(ctx, requestID, "someone-else", repo.RequestStatusAccepted, "")
		require.ErrorIs(t, err, errdefs.ErrPermissionDenied)
	})

	t.Run("Already Decided", func(t *testing.T) {
		f := newRequestFixture(t)
		request := pendingRequest()
		request.Status = repo.RequestStatusAccepted
		f.requests.On("GetRequest", ctx, requestID).Return(request, nil)

		_, err := f.svc.Decide(ctx, requestID, tutorID, repo.RequestStatusRejected, "")
		require.ErrorIs(t, err, errdefs.ErrRequestNotPending)
	})

	t.Run("Schedule Conflict Leaves Request Pending", func(t *testing.T) {
		f := newRequestFixture(t)
		request := pendingRequest()
		conflicting := &repo.Class{
			ID:          "class-0",
			Title:       "Group Class for Algebra",
			StartsAt:    request.StartsAt,
			DurationMin: 90,
		}
		f.requests.On("GetRequest", ctx, requestID).Return(request, nil)
		f.scheduler.On("AcceptIntoClass", ctx, request, "").
			Return(nil, &service.ScheduleConflictError{Conflicting: conflicting})

		_, err := f.svc.Decide(ctx, requestID, tutorID, repo.RequestStatusAccepted, "")
		require.ErrorIs(t, err, errdefs.ErrScheduleConflict)

		var conflictErr *service.ScheduleConflictError
		require.ErrorAs(t, err, &conflictErr)
		require.Equal(t, conflicting, conflictErr.Conflicting)
		f.requests.AssertNotCalled(t, "MarkDecided", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Concurrent Loser Discards Personal Class", func(t *testing.T) {
		f := newRequestFixture(t)
		request := pendingRequest()
		f.requests.On("GetRequest", ctx, requestID).Return(request, nil)
		f.scheduler.On("AcceptIntoClass", ctx, request, "").Return(&repo.Class{ID: "class-1", Type: repo.ClassTypePersonal}, nil)
		f.requests.On("MarkDecided", ctx, requestID, repo.RequestStatusAccepted).
			Return(errdefs.ErrRequestNotPending)
		f.scheduler.On("DiscardClass", ctx, "class-1").Return(nil)

		_, err := f.svc.Decide(ctx, requestID, tutorID, repo.RequestStatusAccepted, "")
		require.ErrorIs(t, err, errdefs.ErrRequestNotPending)
		f.scheduler.AssertCalled(t, "DiscardClass", ctx, "class-1")
	})

	t.Run("Concurrent Loser Keeps Group Membership", func(t *testing.T) {
		f := newRequestFixture(t)
		request := pendingRequest()
		request.Type = repo.ClassTypeGroup
		f.requests.On("GetRequest", ctx, requestID).Return(request, nil)
		f.scheduler.On("AcceptIntoClass", ctx, request, "").Return(&repo.Class{ID: "class-g", Type: repo.ClassTypeGroup}, nil)
		f.requests.On("MarkDecided", ctx, requestID, repo.RequestStatusAccepted).
			Return(errdefs.ErrRequestNotPending)

		_, err := f.svc.Decide(ctx, requestID, tutorID, repo.RequestStatusAccepted, "")
		require.ErrorIs(t, err, errdefs.ErrRequestNotPending)
		f.scheduler.AssertNotCalled(t, "DiscardClass", mock.Anything, mock.Anything)
	})
}

func TestListRequests(t *testing.T) {
	ctx := context.Background()

	t.Run("For Tutor", func(t *testing.T) {
		f := newRequestFixture(t)
		expected := []repo.ClassRequest{*pendingRequest()}
		f.requests.On("ListRequestsByTutor", ctx, tutorID).Return(expected, nil)

		list, err := f.svc.ListForTutor(ctx, tutorID)
		require.NoError(t, err)
		require.Equal(t, expected, list)
	})

	t.Run("For Student", func(t *testing.T) {
		f := newRequestFixture(t)
		expected := []repo.ClassRequest{*pendingRequest()}
		f.requests.On("ListRequestsByStudent", ctx, studentID).Return(expected, nil)

		list, err := f.svc.ListForStudent(ctx, studentID)
		require.NoError(t, err)
		require.Equal(t, expected, list)
	})
}
