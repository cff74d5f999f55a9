package progress

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gedquiz/internal/app/apiresp"
	"gedquiz/internal/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type progressService interface {
	ListHistory(ctx context.Context, userID string, limit int) ([]HistoryEntry, error)
	ListBookmarkedQuestions(ctx context.Context, userID string) ([]Bookmark, error)
	CreateBookmark(ctx context.Context, userID string, questionID int64) error
	DeleteBookmark(ctx context.Context, userID string, questionID int64) error
	Stats(ctx context.Context, userID string) (Stats, error)
	DeleteUserData(ctx context.Context, userID string) error
}

type Handler struct {
	svc      progressService
	validate *validator.Validate
}

type historyQuery struct {
	Limit int `validate:"gte=0,lte=50"`
}

type deleteDataRequest struct {
	Confirm bool `json:"confirm" validate:"eq=true"`
}

func NewHandler(store *Store) *Handler {
	return newHandler(store)
}

func newHandler(svc progressService) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := historyQuery{}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			apiresp.WriteError(w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		q.Limit = n
	}
	if err := h.validate.Struct(q); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "limit must be between 0 and 50")
		return
	}

	items, err := h.svc.ListHistory(r.Context(), userID, q.Limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

func (h *Handler) Bookmarks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	items, err := h.svc.ListBookmarkedQuestions(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

func (h *Handler) PutBookmark(w http.ResponseWriter, r *http.Request) {
	h.changeBookmark(w, r, true)
}

func (h *Handler) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	h.changeBookmark(w, r, false)
}

func (h *Handler) changeBookmark(w http.ResponseWriter, r *http.Request, on bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	questionID, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
	if err != nil || questionID <= 0 {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid question id")
		return
	}

	if on {
		err = h.svc.CreateBookmark(r.Context(), userID, questionID)
	} else {
		err = h.svc.DeleteBookmark(r.Context(), userID, questionID)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, map[string]interface{}{
		"question_id": questionID,
		"bookmarked":  on,
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	stats, err := h.svc.Stats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, stats)
}

// DeleteData wipes the caller's history and bookmarks. The body must carry
// {"confirm":true}.
func (h *Handler) DeleteData(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req deleteDataRequest
	if err := decodeJSON(r, &req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apiresp.WriteErrorCode(w, r, http.StatusUnprocessableEntity, "confirmation_required", "confirm must be true")
		return
	}

	if err := h.svc.DeleteUserData(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, map[string]bool{"deleted": true})
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := auth.CurrentUserID(r.Context())
	if userID == "" {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrQuestionNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
	default:
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(dst)
}
