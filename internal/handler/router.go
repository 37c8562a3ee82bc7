package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"classservice/internal/identity"
	"classservice/internal/logging"
	"classservice/internal/middleware"
)

// NewRouter assembles the REST surface. All /classes and /notifications
// routes sit behind the identity provider; role gates follow the caller
// column of the API contract.
func NewRouter(
	logger *logging.Logger,
	provider identity.Provider,
	classes *ClassHandler,
	assignments *AssignmentHandler,
	notifications *NotificationHandler,
	ping func(ctx context.Context) error,
) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if ping != nil {
			if err := ping(req.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	tutorOnly := middleware.RequireRole(identity.RoleTutor)
	studentOnly := middleware.RequireRole(identity.RoleStudent)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(provider))

		r.Route("/classes", func(r chi.Router) {
			r.With(studentOnly).Post("/send-request/{courseId}", classes.SendRequest)
			r.With(studentOnly).Get("/student/class-requests", classes.StudentRequests)
			r.With(studentOnly).Post("/join-group-class/{classId}", classes.JoinGroupClass)
			r.With(studentOnly).Get("/group-classes/{courseId}", classes.GroupClasses)
			r.With(studentOnly).Get("/available-group-times/{courseId}", classes.AvailableGroupTimes)

			r.With(tutorOnly).Post("/handle-request/{requestId}", classes.HandleRequest)
			r.With(tutorOnly).Get("/class-requests", classes.TutorRequests)
			r.With(tutorOnly).Post("/create-group-class/{courseId}", classes.CreateGroupClass)
			r.With(tutorOnly).Get("/tutor-classes", classes.TutorClasses)
			r.With(tutorOnly).Delete("/{classId}", classes.DeleteClass)

			r.Get("/accepted-classes", classes.AcceptedClasses)

			r.Route("/{classId}/assignment", func(r chi.Router) {
				r.Get("/", assignments.Get)
				r.With(tutorOnly).Post("/", assignments.Post)
				r.With(studentOnly).Post("/{idx}/submit", assignments.Submit)
				r.With(tutorOnly).Put("/{idx}/deadline", assignments.SetDeadline)
				r.With(tutorOnly).Put("/{aIdx}/solution/{sIdx}/grade", assignments.Grade)
				r.With(tutorOnly).Delete("/{idx}", assignments.Delete)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notifications.List)
			r.Post("/{id}/seen", notifications.MarkSeen)
			r.Delete("/{id}", notifications.Delete)
		})
	})

	return r
}
