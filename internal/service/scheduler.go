package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"classservice/internal/database/repo"
	"classservice/internal/errdefs"
	"classservice/internal/logging"
)

const defaultMeetingLink = "No meeting link provided"

// ScheduleService materializes accepted class requests into classes and
// owns the tutor no-overlap and group-aggregation invariants.
type ScheduleService struct {
	classes repo.ClassRepository
	courses repo.CourseRepository
	logger  *logging.Logger
}

func NewScheduleService(classes repo.ClassRepository, courses repo.CourseRepository, logger *logging.Logger) *ScheduleService {
	return &ScheduleService{
		classes: classes,
		courses: courses,
		logger:  logger,
	}
}

type GroupTime struct {
	Time        time.Time `json:"time"`
	DurationMin int       `json:"duration"`
}

// AcceptIntoClass turns an accepted request into a class. Personal requests
// always create a new class. Group requests reuse the course's existing
// group class when there is one; joining an existing group class bypasses
// the overlap check because that session is already on the tutor's
// schedule.
func (s *ScheduleService) AcceptIntoClass(ctx context.Context, req *repo.ClassRequest, meetingLink string) (*repo.Class, error) {
	course, err := s.courses.GetCourse(ctx, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load course %s: %w", req.CourseID, err)
	}

	if req.Type == repo.ClassTypeGroup {
		existing, err := s.classes.FindGroupClassByCourse(ctx, req.CourseID)
		switch {
		case err == nil:
			if _, err := s.classes.AddParticipant(ctx, existing.ID, req.StudentID); err != nil {
				return nil, err
			}
			return s.classes.GetClass(ctx, existing.ID)
		case errors.Is(err, errdefs.ErrNotFound):
			// First accepted group request seeds the class.
		default:
			return nil, err
		}
	}

	class := repo.Class{
		ID:          newID(),
		Type:        req.Type,
		CourseID:    req.CourseID,
		TutorID:     req.TutorID,
		StartsAt:    req.StartsAt,
		DurationMin: req.DurationMin,
		MeetingLink: meetingLink,
		Status:      repo.RequestStatusAccepted,
		CreatedAt:   time.Now(),
	}

	if req.Type == repo.ClassTypePersonal {
		studentID := req.StudentID
		class.StudentID = &studentID
		class.Title = "Personal Class for " + course.Name
	} else {
		class.Title = "Group Class for " + course.Name
		class.Participants = []string{req.StudentID}
		if class.MeetingLink == "" {
			class.MeetingLink = defaultMeetingLink
		}
	}

	created, err := s.classes.CreateClassIfFree(ctx, class)
	if err != nil {
		if errors.Is(err, errdefs.ErrScheduleConflict) {
			return nil, &ScheduleConflictError{Conflicting: created}
		}
		return nil, err
	}

	return created, nil
}

type CreateGroupClassInput struct {
	Title       string
	StartsAt    time.Time
	DurationMin int
	MeetingLink string
}

// CreateGroupClass is the tutor-initiated path, independent of any request.
// Participants are seeded with every currently-enrolled student.
func (s *ScheduleService) CreateGroupClass(ctx context.Context, tutorID, courseID string, in CreateGroupClassInput) (*repo.Class, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("title is required: %w", errdefs.ErrValidation)
	}
	if in.StartsAt.IsZero() {
		return nil, fmt.Errorf("time is required: %w", errdefs.ErrValidation)
	}
	if in.DurationMin <= 0 {
		return nil, fmt.Errorf("duration is required: %w", errdefs.ErrValidation)
	}
	if in.StartsAt.Before(time.Now()) {
		return nil, fmt.Errorf("cannot create a class in the past: %w", errdefs.ErrValidation)
	}

	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.TutorID != tutorID {
		return nil, errdefs.ErrPermissionDenied
	}

	enrolled, err := s.courses.ListEnrolledStudentIDs(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if len(enrolled) == 0 {
		return nil, fmt.Errorf("no students are enrolled in this course: %w", errdefs.ErrValidation)
	}

	meetingLink := in.MeetingLink
	if meetingLink == "" {
		meetingLink = defaultMeetingLink
	}

	class := repo.Class{
		ID:           newID(),
		Type:         repo.ClassTypeGroup,
		Title:        in.Title,
		CourseID:     courseID,
		TutorID:      tutorID,
		StartsAt:     in.StartsAt,
		DurationMin:  in.DurationMin,
		MeetingLink:  meetingLink,
		Status:       repo.RequestStatusAccepted,
		CreatedAt:    time.Now(),
		Participants: enrolled,
	}

	created, err := s.classes.CreateClassIfFree(ctx, class)
	if err != nil {
		if errors.Is(err, errdefs.ErrScheduleConflict) {
			return nil, &ScheduleConflictError{Conflicting: created}
		}
		return nil, err
	}

	s.logger.Info(ctx, "group class created",
		zap.String("class_id", created.ID),
		zap.String("course_id", courseID),
		zap.Int("participants", len(enrolled)),
	)

	return created, nil
}

// ListAvailableGroupTimes returns every group session of the course with no
// future-only filtering; clients filter as needed.
func (s *ScheduleService) ListAvailableGroupTimes(ctx context.Context, courseID string) ([]GroupTime, error) {
	classes, err := s.classes.ListGroupClassesByCourse(ctx, courseID, false)
	if err != nil {
		return nil, err
	}

	times := make([]GroupTime, 0, len(classes))
	for _, class := range classes {
		times = append(times, GroupTime{Time: class.StartsAt, DurationMin: class.DurationMin})
	}

	return times, nil
}

func (s *ScheduleService) ListGroupClasses(ctx context.Context, courseID string) ([]repo.Class, error) {
	return s.classes.ListGroupClassesByCourse(ctx, courseID, true)
}

func (s *ScheduleService) JoinGroupClass(ctx context.Context, classID, studentID string) (*repo.Class, error) {
	class, err := s.classes.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.Type != repo.ClassTypeGroup {
		return nil, fmt.Errorf("group class not found: %w", errdefs.ErrNotFound)
	}

	enrolled, err := s.courses.IsEnrolled(ctx, class.CourseID, studentID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, errdefs.ErrNotEnrolled
	}

	added, err := s.classes.AddParticipant(ctx, classID, studentID)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, errdefs.ErrAlreadyJoined
	}

	return s.classes.GetClass(ctx, classID)
}

// AcceptedClasses lists the classes a principal attends or teaches, with
// user and course references resolved for display.
func (s *ScheduleService) AcceptedClasses(ctx context.Context, userID string, isTutor bool) ([]ClassView, error) {
	var (
		classes []repo.Class
		err     error
	)
	if isTutor {
		all, listErr := s.classes.ListClassesByTutor(ctx, userID)
		if listErr != nil {
			return nil, listErr
		}
		for _, class := range all {
			if class.Status == repo.RequestStatusAccepted {
				classes = append(classes, class)
			}
		}
	} else {
		classes, err = s.classes.ListAcceptedByStudent(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	return s.resolveViews(ctx, classes)
}

func (s *ScheduleService) TutorClasses(ctx context.Context, tutorID string) ([]ClassView, error) {
	classes, err := s.classes.ListClassesByTutor(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	return s.resolveViews(ctx, classes)
}

// DiscardClass removes a class without an ownership check. It backs out a
// class materialized for an accept whose status flip lost to a concurrent
// decide.
func (s *ScheduleService) DiscardClass(ctx context.Context, classID string) error {
	return s.classes.DeleteClass(ctx, classID)
}

func (s *ScheduleService) DeleteClass(ctx context.Context, classID, tutorID string) error {
	class, err := s.classes.GetClass(ctx, classID)
	if err != nil {
		return err
	}
	if class.TutorID != tutorID {
		return errdefs.ErrPermissionDenied
	}

	return s.classes.DeleteClass(ctx, classID)
}

type ClassView struct {
	repo.Class
	CourseName       string            `json:"courseName"`
	TutorName        string            `json:"tutorName"`
	StudentName      string            `json:"studentName,omitempty"`
	ParticipantNames map[string]string `json:"participantNames,omitempty"`
}

func (s *ScheduleService) resolveViews(ctx context.Context, classes []repo.Class) ([]ClassView, error) {
	ids := make([]string, 0, len(classes)*2)
	courseIDs := make(map[string]struct{})
	for _, class := range classes {
		ids = append(ids, class.TutorID)
		if class.StudentID != nil {
			ids = append(ids, *class.StudentID)
		}
		ids = append(ids, class.Participants...)
		courseIDs[class.CourseID] = struct{}{}
	}

	users, err := s.courses.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	courseNames := make(map[string]string, len(courseIDs))
	for courseID := range courseIDs {
		course, err := s.courses.GetCourse(ctx, courseID)
		if err != nil {
			if errors.Is(err, errdefs.ErrNotFound) {
				continue
			}
			return nil, err
		}
		courseNames[courseID] = course.Name
	}

	views := make([]ClassView, 0, len(classes))
	for _, class := range classes {
		view := ClassView{
			Class:            class,
			CourseName:       courseNames[class.CourseID],
			TutorName:        displayName(users, class.TutorID),
			ParticipantNames: make(map[string]string, len(class.Participants)),
		}
		if class.StudentID != nil {
			view.StudentName = displayName(users, *class.StudentID)
		}
		for _, participant := range class.Participants {
			view.ParticipantNames[participant] = displayName(users, participant)
		}
		views = append(views, view)
	}

	return views, nil
}

func displayName(users map[string]repo.User, id string) string {
	u, ok := users[id]
	if !ok {
		return ""
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}
