package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"example.com/journal/internal/auth"
	"example.com/journal/internal/domain"
	"example.com/journal/internal/persistence"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (h *Handler) entries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	claims, ok := h.authorize(w, r, auth.ScopeJournalRead)
	if !ok {
		return
	}

	filter, err := parseEntryFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	entries, next, err := h.journal.ListEntries(r.Context(), claims.UserID(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	items := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		view, err := toEntryView(e)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		items = append(items, view)
	}
	writeJSON(w, http.StatusOK, ListResponse[EntryView]{Items: items, NextCursor: persistence.EncodeCursor(next)})
}

func parseEntryFilter(r *http.Request) (domain.EntryFilter, error) {
	q := r.URL.Query()
	kind, err := domain.ParseEntryKind(q.Get("kind"))
	if err != nil {
		return domain.EntryFilter{}, err
	}

	filter := domain.EntryFilter{
		Kind:  kind,
		Query: q.Get("q"),
		Tag:   q.Get("tag"),
		Limit: defaultPageSize,
	}
	if filter.From, err = parseTimeParam(q.Get("from")); err != nil {
		return domain.EntryFilter{}, errors.New("from must be an RFC 3339 timestamp")
	}
	if filter.To, err = parseTimeParam(q.Get("to")); err != nil {
		return domain.EntryFilter{}, errors.New("to must be an RFC 3339 timestamp")
	}
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return domain.EntryFilter{}, errors.New("limit must be a positive integer")
		}
		filter.Limit = min(parsed, maxPageSize)
	}
	if filter.Cursor, err = persistence.DecodeCursor(q.Get("cursor")); err != nil {
		return domain.EntryFilter{}, errors.New("invalid cursor")
	}
	return filter, nil
}

func parseTimeParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func (h *Handler) tags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	claims, ok := h.authorize(w, r, auth.ScopeJournalRead)
	if !ok {
		return
	}

	tags, err := h.journal.ListTags(r.Context(), claims.UserID())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[TagView]{Items: toTagViews(tags)})
}

// tagName reads the tag from the escaped path so names holding "/" can be
// addressed as %2F.
func tagName(u *url.URL) (string, bool) {
	raw := pathID(u.EscapedPath(), "/v1/tags/")
	if raw == "" {
		return "", false
	}
	name, err := url.PathUnescape(raw)
	if err != nil {
		return "", false
	}
	return name, true
}

func (h *Handler) tagByName(w http.ResponseWriter, r *http.Request) {
	name, ok := tagName(r.URL)
	if !ok || strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing tag name")
		return
	}

	switch r.Method {
	case http.MethodPut:
		claims, ok := h.authorize(w, r, auth.ScopeJournalWrite)
		if !ok {
			return
		}
		var req UpsertTagRequest
		if !decodeOptionalBody(w, r, &req) {
			return
		}
		var typ *domain.TagType
		if req.Type != nil {
			t := domain.TagType(*req.Type)
			typ = &t
		}
		tag, err := h.journal.UpsertTag(r.Context(), claims.UserID(), name, typ)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toTagView(tag))
	case http.MethodDelete:
		claims, ok := h.authorize(w, r, auth.ScopeJournalWrite)
		if !ok {
			return
		}
		if err := h.journal.DeleteTag(r.Context(), claims.UserID(), name); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (h *Handler) insights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	claims, ok := h.authorize(w, r, auth.ScopeJournalRead)
	if !ok {
		return
	}

	loc := h.loc
	if tz := r.URL.Query().Get("tz"); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "unknown time zone "+strconv.Quote(tz))
			return
		}
		loc = parsed
	}

	ctx, userID := r.Context(), claims.UserID()
	switch pathID(r.URL.Path, "/v1/insights/") {
	case "daily":
		points, err := h.series.Daily(ctx, userID, loc)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, DailyResponse{Points: toDailyViews(points)})
	case "weekly":
		points, err := h.series.Weekly(ctx, userID, loc)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toWeeklyResponse(points))
	case "current":
		avg, err := h.series.CurrentWeek(ctx, userID)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, AveragesView(avg))
	case "overview":
		overview, err := h.series.Overview(ctx, userID, loc)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, OverviewResponse{
			Daily:       toDailyViews(overview.Daily),
			Weekly:      toWeeklyResponse(overview.Weekly),
			CurrentWeek: AveragesView(overview.CurrentWeek),
		})
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown insight series")
	}
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		claims, ok := h.authorize(w, r, auth.ScopeJournalRead)
		if !ok {
			return
		}
		user, err := h.journal.GetUser(r.Context(), claims.UserID())
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserView(*user))
	case http.MethodPut:
		claims, ok := h.authorize(w, r, auth.ScopeJournalWrite)
		if !ok {
			return
		}
		var req UpsertUserRequest
		if !decodeBody(w, r, &req) {
			return
		}
		user, err := h.journal.UpsertUser(r.Context(), domain.User{
			ID:         claims.UserID(),
			Name:       req.Name,
			Email:      req.Email,
			ProfilePic: req.ProfilePic,
		})
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserView(*user))
	default:
		methodNotAllowed(w)
	}
}
