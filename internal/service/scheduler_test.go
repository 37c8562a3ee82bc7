package service_test

import (
	"context"
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

type scheduleFixture struct {
	classes *mocks.ClassRepository
	courses *mocks.CourseRepository
	svc     *service.ScheduleService
}

func newScheduleFixture(t *testing.T) *scheduleFixture {
	t.Helper()
	f := &scheduleFixture{
		classes: &mocks.ClassRepository{},
		courses: &mocks.CourseRepository{},
	}
	f.svc = service.NewScheduleService(f.classes, f.courses, logging.New(zap.NewNop()))
	return f
}

func TestAcceptIntoClass(t *testing.T) {
	ctx := context.Background()
	course := &repo.Course{ID: courseID, Name: "Algebra", TutorID: tutorID}

	t.Run("Personal Creates New Class", func(t *testing.T) {
		f := newScheduleFixture(t)
		request := pendingRequest()
		f.courses.On("GetCourse", ctx, courseID).Return(course, nil)
		f.classes.On("CreateClassIfFree", ctx, mock.MatchedBy(func(c repo.Class) bool {
			return c.Type == repo.ClassTypePersonal &&
				c.StudentID != nil && *c.StudentID == studentID &&
				c.Title == "Personal Class for Algebra" &&
				c.MeetingLink == "https://meet.example/x"
		})).Return(&repo.Class{ID: "class-1", TutorID: tutorID}, nil)

		class, err := f.svc.AcceptIntoClass(ctx, request, "https://meet.example/x")
		require.NoError(t, err)
		require.Equal(t, "class-1", class.ID)
		f.classes.AssertExpectations(t)
	})

	t.Run("Personal Double Booking", func(t *testing.T) {
		f := newScheduleFixture(t)
		request := pendingRequest()
		conflicting := &repo.Class{ID: "class-0", Title: "Busy", StartsAt: request.StartsAt, DurationMin: 120}
		f.courses.On("GetCourse", ctx, courseID).Return(course, nil)
		f.classes.On("CreateClassIfFree", ctx, mock.Anything).
			Return(conflicting, errdefs.ErrScheduleConflict)

		_, err := f.svc.AcceptIntoClass(ctx, request, "")
		require.ErrorIs(t, err, errdefs.ErrScheduleConflict)

		var conflictErr *service.ScheduleConflictError
		require.ErrorAs(t, err, &conflictErr)
		require.Equal(t, conflicting, conflictErr.Conflicting)
	})

	t.Run("Group Reuses Existing Class", func(t *testing.T) {
		f := newScheduleFixture(t)
		request := pendingRequest()
		request.Type = repo.ClassTypeGroup
		existing := &repo.Class{ID: "class-g", Type: repo.ClassTypeGroup, CourseID: courseID}
		refreshed := &repo.Class{ID: "class-g", Type: repo.ClassTypeGroup, CourseID: courseID, Participants: []string{"other", studentID}}

		f.courses.On("GetCourse", ctx, courseID).Return(course, nil)
		f.classes.On("FindGroupClassByCourse", ctx, courseID).Return(existing, nil)
		f.classes.On("AddParticipant", ctx, "class-g", studentID).Return(true, nil)
		f.classes.On("GetClass", ctx, "class-g").Return(refreshed, nil)

		class, err := f.svc.AcceptIntoClass(ctx, request, "")
		require.NoError(t, err)
		require.Equal(t, refreshed, class)
		f.classes.AssertNotCalled(t, "CreateClassIfFree", mock.Anything, mock.Anything)
	})

	t.Run("Group Reuse Is Idempotent", func(t *testing.T) {
		f := newScheduleFixture(t)
		request := pendingRequest()
		request.Type = repo.ClassTypeGroup
		existing := &repo.Class{ID: "class-g", Type: repo.ClassTypeGroup, CourseID: courseID, Participants: []string{studentID}}

		f.courses.On("GetCourse", ctx, courseID).Return(course, nil)
		f.classes.On("FindGroupClassByCourse", ctx, courseID).Return(existing, nil)
		f.classes.On("AddParticipant", ctx, "class-g", studentID).Return(false, nil)
		f.classes.On("GetClass", ctx, "class-g").Return(existing, nil)

		class, err := f.svc.AcceptIntoClass(ctx, request, "")
		require.NoError(t, err)
		require.Equal(t, []string{studentID}, class.Participants)
	})

	t.Run("First Group Request Seeds Class", func(t *testing.T) {
		f := newScheduleFixture(t)
		request := pendingRequest()
		request.Type = repo.ClassTypeGroup

		f.courses.On("GetCourse", ctx, courseID).Return(course, nil)
		f.classes.On("FindGroupClassByCourse", ctx, courseID).Return(nil, errdefs.ErrNotFound)
		f.classes.On("CreateClassIfFree", ctx, mock.MatchedBy(func(c repo.Class) bool {
			return c.Type == repo.ClassTypeGroup &&
				c.Title == "Group Class for Algebra" &&
				len(c.Participants) == 1 && c.Participants[0] == studentID &&
				c.MeetingLink == "No meeting link provided"
		})).Return(&repo.Class{ID: "class-g"}, nil)

		class, err := f.svc.AcceptIntoClass(ctx, request, "")
		require.NoError(t, err)
		require.Equal(t, "class-g", class.ID)
	})
}

func TestCreateGroupClass(t *testing.T) {
	ctx := context.Background()
	course := &repo.Course{ID: courseID, Name: "Algebra", TutorID: tutorID}
	input := service.CreateGroupClassInput{
		Title:       "Weekly Session",
		StartsAt:    time.Now().Add(48 * time.Hour),
		DurationMin: 90,
	}

	t.Run("Success Seeds Enrolled Students", func(t *testing.T) {
		f := newScheduleFixture(t)
		enrolled := []string{"s1", "s2", "s3"}
		f.courses.On("GetCourse", ctx, courseID).Return(course, nil)
		f.courses.On("ListEnrolledStudentIDs", ctx, courseID).Return(enrolled, nil)
		f.classes.On("CreateClassIfFree", ctx, mock.MatchedBy(func(c repo.Class) bool {
			return c.Type == repo.ClassTypeGroup && len(c.Participants) == 3
		})).Return(&repo.Class{ID: "class-g", Participants: enrolled}, nil)

		class, err := f.svc.CreateGroupClass(ctx, tutorID, courseID, input)
		require.NoError(t, err)
		require.Len(t, class.Participants, 3)
	})

	t.Run("Past Start Time", func(t *testing.T) {
		f := newScheduleFixture(t)
		in := input
		in.StartsAt = time.Now().Add(-time.Hour)

		_, err := f.svc.CreateGroupClass(ctx, tutorID, courseID, in)
		require.ErrorIs(t, err, errdefs.ErrValidation)
	})

	t.Run("Not Course Owner", func(t *testing.T) {
		f := newScheduleFixture(t)
		f.courses.On("GetCourse", ctx, courseID).Return(course, nil)

		_, err := f.svc.CreateGroupClass(ctx, "someone-else", courseID, input)
		require.ErrorIs(t, err, errdefs.ErrPermissionDenied)
	})

	t.Run("No Enrolled Students", func(t *testing.T) {
		f := newScheduleFixture(t)
		f.courses.On("GetCourse", ctx, courseID).Return(course, nil)
		f.courses.On("ListEnrolledStudentIDs", ctx, courseID).Return([]string{}, nil)

		_, err := f.svc.CreateGroupClass(ctx, tutorID, courseID, input)
		require.ErrorIs(t, err, errdefs.ErrValidation)
	})

	t.Run("Tutor Double Booking", func(t *testing.T) {
		f := newScheduleFixture(t)
		conflicting := &repo.Class{ID: "class-0", StartsAt: input.StartsAt, DurationMin: 60}
		f.courses.On("GetCourse", ctx, courseID).Return(course, nil)
		f.courses.On("ListEnrolledStudentIDs", ctx, courseID).Return([]string{"s1"}, nil)
		f.classes.On("CreateClassIfFree", ctx, mock.Anything).
			Return(conflicting, errdefs.ErrScheduleConflict)

		_, err := f.svc.CreateGroupClass(ctx, tutorID, courseID, input)
		require.ErrorIs(t, err, errdefs.ErrScheduleConflict)
	})
}

func TestJoinGroupClass(t *testing.T) {
	ctx := context.Background()
	groupClass := &repo.Class{ID: "class-g", Type: repo.ClassTypeGroup, CourseID: courseID}

	t.Run("Success", func(t *testing.T) {
		f := newScheduleFixture(t)
		joined := &repo.Class{ID: "class-g", Type: repo.ClassTypeGroup, CourseID: courseID, Participants: []string{studentID}}
		f.classes.On("GetClass", ctx, "class-g").Return(groupClass, nil).Once()
		f.courses.On("IsEnrolled", ctx, courseID, studentID).Return(true, nil)
		f.classes.On("AddParticipant", ctx, "class-g", studentID).Return(true, nil)
		f.classes.On("GetClass", ctx, "class-g").Return(joined, nil).Once()

		class, err := f.svc.JoinGroupClass(ctx, "class-g", studentID)
		require.NoError(t, err)
		require.Contains(t, class.Participants, studentID)
	})

	t.Run("Not A Group Class", func(t *testing.T) {
		f := newScheduleFixture(t)
		personal := &repo.Class{ID: "class-p", Type: repo.ClassTypePersonal}
		f.classes.On("GetClass", ctx, "class-p").Return(personal, nil)

		_, err := f.svc.JoinGroupClass(ctx, "class-p", studentID)
		require.ErrorIs(t, err, errdefs.ErrNotFound)
	})

	t.Run("Not Enrolled", func(t *testing.T) {
		f := newScheduleFixture(t)
		f.classes.On("GetClass", ctx, "class-g").Return(groupClass, nil)
		f.courses.On("IsEnrolled", ctx, courseID, studentID).Return(false, nil)

		_, err := f.svc.JoinGroupClass(ctx, "class-g", studentID)
		require.ErrorIs(t, err, errdefs.ErrNotEnrolled)
	})

	t.Run("Already Joined", func(t *testing.T) {
		f := newScheduleFixture(t)
		f.classes.On("GetClass", ctx, "class-g").Return(groupClass, nil)
		f.courses.On("IsEnrolled", ctx, courseID, studentID).Return(true, nil)
		f.classes.On("AddParticipant", ctx, "class-g", studentID).Return(false, nil)

		_, err := f.svc.JoinGroupClass(ctx, "class-g", studentID)
		require.ErrorIs(t, err, errdefs.ErrAlreadyJoined)
	})
}

func TestListAvailableGroupTimes(t *testing.T) {
	ctx := context.Background()
	f := newScheduleFixture(t)
	now := time.Now()
	f.classes.On("ListGroupClassesByCourse", ctx, courseID, false).Return([]repo.Class{
		{ID: "a", StartsAt: now, DurationMin: 60},
		{ID: "b", StartsAt: now.Add(time.Hour), DurationMin: 90},
	}, nil)

	times, err := f.svc.ListAvailableGroupTimes(ctx, courseID)
	require.NoError(t, err)
	require.Equal(t, []service.GroupTime{
		{Time: now, DurationMin: 60},
		{Time: now.Add(time.Hour), DurationMin: 90},
	}, times)
}

func TestAcceptedClasses(t *testing.T) {
	ctx := context.Background()

	t.Run("Tutor Sees Only Accepted", func(t *testing.T) {
		f := newScheduleFixture(t)
		f.classes.On("ListClassesByTutor", ctx, tutorID).Return([]repo.Class{
			{ID: "a", CourseID: courseID, TutorID: tutorID, Status: repo.RequestStatusAccepted},
			{ID: "b", CourseID: courseID, TutorID: tutorID, Status: "Cancelled"},
		}, nil)
		f.courses.On("GetUsers", ctx, mock.Anything).Return(map[string]repo.User{
			tutorID: {ID: tutorID, FirstName: "Ada", LastName: "Lovelace"},
		}, nil)
		f.courses.On("GetCourse", ctx, courseID).Return(&repo.Course{ID: courseID, Name: "Algebra"}, nil)

		views, err := f.svc.AcceptedClasses(ctx, tutorID, true)
		require.NoError(t, err)
		require.Len(t, views, 1)
		require.Equal(t, "a", views[0].ID)
		require.Equal(t, "Algebra", views[0].CourseName)
		require.Equal(t, "Ada Lovelace", views[0].TutorName)
	})

	t.Run("Student Path", func(t *testing.T) {
		f := newScheduleFixture(t)
		sid := studentID
		f.classes.On("ListAcceptedByStudent", ctx, studentID).Return([]repo.Class{
			{ID: "a", CourseID: courseID, TutorID: tutorID, StudentID: &sid, Status: repo.RequestStatusAccepted},
		}, nil)
		f.courses.On("GetUsers", ctx, mock.Anything).Return(map[string]repo.User{
			tutorID:   {ID: tutorID, FirstName: "Ada", LastName: "Lovelace"},
			studentID: {ID: studentID, FirstName: "Alan"},
		}, nil)
		f.courses.On("GetCourse", ctx, courseID).Return(&repo.Course{ID: courseID, Name: "Algebra"}, nil)

		views, err := f.svc.AcceptedClasses(ctx, studentID, false)
		require.NoError(t, err)
		require.Len(t, views, 1)
		require.Equal(t, "Alan", views[0].StudentName)
	})
}

func TestDeleteClass(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newScheduleFixture(t)
		f.classes.On("GetClass", ctx, "class-1").Return(&repo.Class{ID: "class-1", TutorID: tutorID}, nil)
		f.classes.On("DeleteClass", ctx, "class-1").Return(nil)

		require.NoError(t, f.svc.DeleteClass(ctx, "class-1", tutorID))
	})

	t.Run("Not Owner", func(t *testing.T) {
		f := newScheduleFixture(t)
		f.classes.On("GetClass", ctx, "class-1").Return(&repo.Class{ID: "class-1", TutorID: tutorID}, nil)

		err := f.svc.DeleteClass(ctx, "class-1", "someone-else")
		require.ErrorIs(t, err, errdefs.ErrPermissionDenied)
		f.classes.AssertNotCalled(t, "DeleteClass", mock.Anything, mock.Anything)
	})
}
