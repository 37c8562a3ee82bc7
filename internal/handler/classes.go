package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"classservice/internal/identity"
	"classservice/internal/service"
)

const listingCacheTTL = 30 * time.Second

// Cache is the read-through cache used by the group-class listing
// endpoints. A nil Cache disables caching.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

type ClassHandler struct {
	requests *service.RequestService
	schedule *service.ScheduleService
	cache    Cache
}

func NewClassHandler(requests *service.RequestService, schedule *service.ScheduleService, cache Cache) *ClassHandler {
	return &ClassHandler{requests: requests, schedule: schedule, cache: cache}
}

type sendRequestBody struct {
	Type        string    `json:"type"`
	Time        time.Time `json:"time"`
	Duration    int       `json:"duration"`
	Suggestions string    `json:"suggestions"`
}

func (h *ClassHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var body sendRequestBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	request, err := h.requests.SubmitRequest(r.Context(), service.SubmitRequestInput{
		StudentID:   principal.ID,
		CourseID:    chi.URLParam(r, "courseId"),
		Type:        body.Type,
		StartsAt:    body.Time,
		DurationMin: body.Duration,
		Notes:       body.Suggestions,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"classRequest": request})
}

type handleRequestBody struct {
	Status    string `json:"status"`
	ClassLink string `json:"classLink"`
}

func (h *ClassHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var body handleRequestBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	decision, err := h.requests.Decide(r.Context(), chi.URLParam(r, "requestId"), principal.ID, body.Status, body.ClassLink)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if decision.Class != nil {
		h.invalidateListings(r.Context(), decision.Class.CourseID)
	}

	payload := map[string]any{"type": decision.Request.Type}
	if decision.Class != nil {
		payload["class"] = decision.Class
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *ClassHandler) AcceptedClasses(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	classes, err := h.schedule.AcceptedClasses(r.Context(), principal.ID, principal.Role == identity.RoleTutor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"acceptedClasses": classes})
}

type createGroupClassBody struct {
	Title     string    `json:"title"`
	Time      time.Time `json:"time"`
	Duration  int       `json:"duration"`
	ClassLink string    `json:"classLink"`
}

func (h *ClassHandler) CreateGroupClass(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var body createGroupClassBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	courseID := chi.URLParam(r, "courseId")
	class, err := h.schedule.CreateGroupClass(r.Context(), principal.ID, courseID, service.CreateGroupClassInput{
		Title:       body.Title,
		StartsAt:    body.Time,
		DurationMin: body.Duration,
		MeetingLink: body.ClassLink,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.invalidateListings(r.Context(), courseID)

	writeJSON(w, http.StatusCreated, map[string]any{"groupClass": class})
}

func (h *ClassHandler) GroupClasses(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	key := "group-classes:" + courseID

	if h.serveCached(w, r, key) {
		return
	}

	classes, err := h.schedule.ListGroupClasses(r.Context(), courseID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.writeAndCache(w, r, key, map[string]any{"groupClasses": classes})
}

func (h *ClassHandler) JoinGroupClass(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	class, err := h.schedule.JoinGroupClass(r.Context(), chi.URLParam(r, "classId"), principal.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.invalidateListings(r.Context(), class.CourseID)

	writeJSON(w, http.StatusOK, map[string]any{"groupClass": class})
}

func (h *ClassHandler) AvailableGroupTimes(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	key := "available-group-times:" + courseID

	if h.serveCached(w, r, key) {
		return
	}

	times, err := h.schedule.ListAvailableGroupTimes(r.Context(), courseID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.writeAndCache(w, r, key, map[string]any{"data": times})
}

func (h *ClassHandler) TutorRequests(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	requests, err := h.requests.ListForTutor(r.Context(), principal.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"classRequests": requests})
}

func (h *ClassHandler) StudentRequests(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	requests, err := h.requests.ListForStudent(r.Context(), principal.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"classRequests": requests})
}

func (h *ClassHandler) TutorClasses(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	classes, err := h.schedule.TutorClasses(r.Context(), principal.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tutorClasses": classes})
}

func (h *ClassHandler) DeleteClass(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := h.schedule.DeleteClass(r.Context(), chi.URLParam(r, "classId"), principal.ID); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "class deleted")
}

func (h *ClassHandler) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	if h.cache == nil {
		return false
	}
	data, ok := h.cache.Get(r.Context(), key)
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	return true
}

func (h *ClassHandler) writeAndCache(w http.ResponseWriter, r *http.Request, key string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h.cache != nil {
		h.cache.Set(r.Context(), key, data, listingCacheTTL)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *ClassHandler) invalidateListings(ctx context.Context, courseID string) {
	if h.cache == nil {
		return
	}
	h.cache.Delete(ctx, "group-classes:"+courseID, "available-group-times:"+courseID)
}
