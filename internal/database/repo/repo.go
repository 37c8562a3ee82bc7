package repo

import (
	"context"
	"time"
)

const (
	ClassTypePersonal = "Personal"
	ClassTypeGroup    = "Group"

	RequestStatusPending  = "Pending"
	RequestStatusAccepted = "Accepted"
	RequestStatusRejected = "Rejected"

	NotificationUnread = "unread"
	NotificationSeen   = "seen"
)

type ClassRequest struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"studentId"`
	TutorID     string    `json:"tutorId"`
	CourseID    string    `json:"courseId"`
	Type        string    `json:"type"` // "Personal" or "Group"
	Notes       string    `json:"notes,omitempty"`
	StartsAt    time.Time `json:"time"`
	DurationMin int       `json:"duration"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (r *ClassRequest) EndsAt() time.Time {
	return r.StartsAt.Add(time.Duration(r.DurationMin) * time.Minute)
}

type Class struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	CourseID     string    `json:"courseId"`
	TutorID      string    `json:"tutorId"`
	StudentID    *string   `json:"studentId,omitempty"` // set for Personal classes only
	StartsAt     time.Time `json:"time"`
	DurationMin  int       `json:"duration"`
	MeetingLink  string    `json:"meetingLink,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	Participants []string  `json:"participants,omitempty"` // Group classes
}

func (c *Class) EndsAt() time.Time {
	return c.StartsAt.Add(time.Duration(c.DurationMin) * time.Minute)
}

type Assignment struct {
	ID         string     `json:"id"`
	ClassID    string     `json:"classId"`
	FileURL    string     `json:"fileUrl"`
	UploadedAt time.Time  `json:"uploadedAt"`
	Deadline   *time.Time `json:"deadline,omitempty"`
	Solutions  []Solution `json:"solutions"`
}

type Solution struct {
	ID           string    `json:"id"`
	AssignmentID string    `json:"assignmentId"`
	StudentID    string    `json:"studentId"`
	StudentName  string    `json:"studentName,omitempty"`
	StudentEmail string    `json:"studentEmail,omitempty"`
	FileURL      string    `json:"fileUrl"`
	SubmittedAt  time.Time `json:"submittedAt"`
	Grade        *string   `json:"grade,omitempty"`
	Feedback     *string   `json:"feedback,omitempty"`
}

type Course struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TutorID     string `json:"tutorId"`
}

type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type RequestRepository interface {
	// CreateRequestIfFree inserts the request unless the student already has
	// a non-Rejected request intersecting its [start, end) window. The
	// overlap check and the insert run in one transaction serialized per
	// student. On overlap returns errdefs.ErrRequestConflict.
	CreateRequestIfFree(ctx context.Context, req ClassRequest) error
	GetRequest(ctx context.Context, id string) (*ClassRequest, error)
	// MarkDecided flips status from Pending to the given value. Returns
	// errdefs.ErrRequestNotPending if the request was already decided.
	MarkDecided(ctx context.Context, id, status string) error
	ListRequestsByTutor(ctx context.Context, tutorID string) ([]ClassRequest, error)
	ListRequestsByStudent(ctx context.Context, studentID string) ([]ClassRequest, error)
}

type ClassRepository interface {
	// CreateClassIfFree inserts the class unless the tutor already has a
	// class intersecting its [start, end) window. The overlap check and the
	// insert run in one transaction serialized per tutor, so two concurrent
	// accepts cannot both pass the check. On conflict the competing class
	// is returned together with errdefs.ErrScheduleConflict.
	CreateClassIfFree(ctx context.Context, class Class) (*Class, error)
	GetClass(ctx context.Context, id string) (*Class, error)
	// FindGroupClassByCourse returns the oldest Group class of the course,
	// or errdefs.ErrNotFound.
	FindGroupClassByCourse(ctx context.Context, courseID string) (*Class, error)
	// AddParticipant appends the student if absent. Reports whether a row
	// was actually added.
	AddParticipant(ctx context.Context, classID, studentID string) (bool, error)
	ListClassesByTutor(ctx context.Context, tutorID string) ([]Class, error)
	ListAcceptedByStudent(ctx context.Context, studentID string) ([]Class, error)
	ListGroupClassesByCourse(ctx context.Context, courseID string, futureOnly bool) ([]Class, error)
	DeleteClass(ctx context.Context, id string) error
}

type AssignmentRepository interface {
	CreateAssignment(ctx context.Context, a Assignment) error
	// ListAssignments returns the class's assignments ordered by
	// (uploaded_at, id), each with its solutions ordered by
	// (submitted_at, id) and student display fields resolved.
	ListAssignments(ctx context.Context, classID string) ([]Assignment, error)
	SetDeadline(ctx context.Context, assignmentID string, deadline time.Time) error
	CreateSolution(ctx context.Context, s Solution) error
	GradeSolution(ctx context.Context, solutionID string, grade, feedback *string) error
	DeleteAssignment(ctx context.Context, assignmentID string) error
}

type CourseRepository interface {
	GetCourse(ctx context.Context, id string) (*Course, error)
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
	ListEnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error)
	GetUsers(ctx context.Context, ids []string) (map[string]User, error)
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n Notification) error
	ListNotifications(ctx context.Context, userID string) ([]Notification, error)
	MarkSeen(ctx context.Context, id, userID string) error
	DeleteNotification(ctx context.Context, id, userID string) error
}
