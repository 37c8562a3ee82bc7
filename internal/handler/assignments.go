package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"classservice/internal/errdefs"
	"classservice/internal/service"
)

type AssignmentHandler struct {
	assignments *service.AssignmentService
}

func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

func (h *AssignmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	list, err := h.assignments.GetAssignments(r.Context(), chi.URLParam(r, "classId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"assignments": list})
}

func (h *AssignmentHandler) Post(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	data, filename, err := readUpload(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := h.assignments.PostAssignment(r.Context(), chi.URLParam(r, "classId"), principal.ID, data, filename)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"assignments": list})
}

func (h *AssignmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	index, err := indexParam(r, "idx")
	if err != nil {
		writeError(w, r, err)
		return
	}

	data, filename, err := readUpload(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.assignments.SubmitSolution(r.Context(), chi.URLParam(r, "classId"), index, principal.ID, data, filename); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "solution submitted")
}

type deadlineBody struct {
	Deadline time.Time `json:"deadline"`
}

func (h *AssignmentHandler) SetDeadline(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	index, err := indexParam(r, "idx")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body deadlineBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.Deadline.IsZero() {
		writeError(w, r, errdefs.ErrValidation)
		return
	}

	list, err := h.assignments.SetDeadline(r.Context(), chi.URLParam(r, "classId"), index, body.Deadline, principal.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"assignments": list})
}

type gradeBody struct {
	Grade    *string `json:"grade"`
	Feedback *string `json:"feedback"`
}

func (h *AssignmentHandler) Grade(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	assignmentIndex, err := indexParam(r, "aIdx")
	if err != nil {
		writeError(w, r, err)
		return
	}
	solutionIndex, err := indexParam(r, "sIdx")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body gradeBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.assignments.GradeSolution(r.Context(), chi.URLParam(r, "classId"), assignmentIndex, solutionIndex, principal.ID, body.Grade, body.Feedback); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "solution graded")
}

func (h *AssignmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	index, err := indexParam(r, "idx")
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := h.assignments.DeleteAssignment(r.Context(), chi.URLParam(r, "classId"), index, principal.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"assignments": list})
}
