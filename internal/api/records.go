package api

import (
	"net/http"

	"example.com/journal/internal/auth"
)

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createActivity(w, r)
	case http.MethodGet:
		h.listActivities(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *Handler) activityByID(w http.ResponseWriter, r *http.Request) {
	id := pathID(r.URL.Path, "/v1/activities/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing activity id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getActivity(w, r, id)
	case http.MethodPatch:
		h.updateActivity(w, r, id)
	case http.MethodDelete:
		h.deleteActivity(w, r, id)
	default:
		methodNotAllowed(w)
	}
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authorize(w, r, auth.ScopeJournalWrite)
	if !ok {
		return
	}

	var req CreateActivityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.journal.CreateActivity(r.Context(), claims.UserID(), req.input())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authorize(w, r, auth.ScopeJournalRead)
	if !ok {
		return
	}

	activities, err := h.journal.ListActivities(r.Context(), claims.UserID())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	items := make([]ActivityView, 0, len(activities))
	for _, a := range activities {
		items = append(items, toActivityView(a))
	}
	writeJSON(w, http.StatusOK, ListResponse[ActivityView]{Items: items})
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := h.authorize(w, r, auth.ScopeJournalRead)
	if !ok {
		return
	}

	activity, err := h.journal.GetActivity(r.Context(), claims.UserID(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*activity))
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := h.authorize(w, r, auth.ScopeJournalWrite)
	if !ok {
		return
	}

	var req UpdateActivityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.journal.UpdateActivity(r.Context(), claims.UserID(), id, req.patch()); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.getActivity(w, r, id)
}

func (h *Handler) deleteActivity(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := h.authorize(w, r, auth.ScopeJournalWrite)
	if !ok {
		return
	}

	if err := h.journal.DeleteActivity(r.Context(), claims.UserID(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reflections(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createReflection(w, r)
	case http.MethodGet:
		h.listReflections(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *Handler) reflectionByID(w http.ResponseWriter, r *http.Request) {
	id := pathID(r.URL.Path, "/v1/reflections/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing reflection id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getReflection(w, r, id)
	case http.MethodPatch:
		h.updateReflection(w, r, id)
	case http.MethodDelete:
		h.deleteReflection(w, r, id)
	default:
		methodNotAllowed(w)
	}
}

func (h *Handler) createReflection(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authorize(w, r, auth.ScopeJournalWrite)
	if !ok {
		return
	}

	var req CreateReflectionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.journal.CreateReflection(r.Context(), claims.UserID(), req.input())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

func (h *Handler) listReflections(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authorize(w, r, auth.ScopeJournalRead)
	if !ok {
		return
	}

	reflections, err := h.journal.ListReflections(r.Context(), claims.UserID())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	items := make([]ReflectionView, 0, len(reflections))
	for _, ref := range reflections {
		items = append(items, toReflectionView(ref))
	}
	writeJSON(w, http.StatusOK, ListResponse[ReflectionView]{Items: items})
}

func (h *Handler) getReflection(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := h.authorize(w, r, auth.ScopeJournalRead)
	if !ok {
		return
	}

	reflection, err := h.journal.GetReflection(r.Context(), claims.UserID(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReflectionView(*reflection))
}

func (h *Handler) updateReflection(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := h.authorize(w, r, auth.ScopeJournalWrite)
	if !ok {
		return
	}

	var req UpdateReflectionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.journal.UpdateReflection(r.Context(), claims.UserID(), id, req.patch()); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.getReflection(w, r, id)
}

func (h *Handler) deleteReflection(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := h.authorize(w, r, auth.ScopeJournalWrite)
	if !ok {
		return
	}

	if err := h.journal.DeleteReflection(r.Context(), claims.UserID(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
