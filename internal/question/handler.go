package question

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gedquiz/internal/app/apiresp"
	"gedquiz/internal/quiz"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type questionReader interface {
	ListExams(ctx context.Context, subject string) ([]Exam, error)
	Search(ctx context.Context, term, field string) ([]quiz.Question, error)
}

type Handler struct {
	store    questionReader
	validate *validator.Validate
}

type searchQuery struct {
	Term  string `validate:"required,min=2,max=200"`
	Field string `validate:"omitempty,oneof=all passage question options explanation group passage_group"`
}

func NewHandler(store *Store) *Handler {
	return newHandler(store)
}

func newHandler(store questionReader) *Handler {
	return &Handler{store: store, validate: validator.New()}
}

func (h *Handler) ListExams(w http.ResponseWriter, r *http.Request) {
	subject := strings.TrimSpace(chi.URLParam(r, "subject"))
	if subject == "" {
		apiresp.WriteError(w, r, http.StatusBadRequest, "subject is required")
		return
	}

	items, err := h.store.ListExams(r.Context(), subject)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := searchQuery{
		Term:  strings.TrimSpace(r.URL.Query().Get("q")),
		Field: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("field"))),
	}
	if err := h.validate.Struct(q); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "q must be at least 2 characters and field one of all, passage, question, options, explanation, group")
		return
	}

	items, err := h.store.Search(r.Context(), q.Term, q.Field)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
		"limit": SearchLimit,
	})
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrQuestionNotFound), errors.Is(err, ErrExamNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
	default:
		apiresp.WriteError(w, r, http.StatusBadGateway, "question source unavailable")
	}
}
