package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"gedquiz/internal/app/apiresp"
	"gedquiz/internal/auth"
	"gedquiz/internal/progress"
	"gedquiz/internal/question"
	"gedquiz/internal/quiz"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type sessionService interface {
	Start(ctx context.Context, userID string, in StartInput) (*quiz.Engine, error)
	Get(id, userID string) (*quiz.Engine, error)
	Quit(id, userID string) error
	SetBookmark(ctx context.Context, id, userID string, questionID int64, on bool) (*quiz.Engine, error)
	Card(ctx context.Context, userID string, questionID int64) (Card, error)
}

type Handler struct {
	svc      sessionService
	validate *validator.Validate
}

type startRequest struct {
	Source     string `json:"source" validate:"required,oneof=one-by-one batch mock retry search"`
	Subject    string `json:"subject" validate:"max=100"`
	Category   string `json:"category" validate:"max=100"`
	Title      string `json:"title" validate:"max=200"`
	Year       int    `json:"year" validate:"required_if=Source mock,omitempty,gte=1900,lte=2100"`
	Round      int    `json:"round" validate:"required_if=Source mock,omitempty,gte=1,lte=9"`
	Limit      int    `json:"limit" validate:"omitempty,gte=1,lte=50"`
	QuestionID int64  `json:"question_id" validate:"required_if=Source retry,omitempty,gt=0"`
	Term       string `json:"term" validate:"required_if=Source search,omitempty,min=2,max=200"`
	Field      string `json:"field" validate:"omitempty,oneof=all passage question options explanation group passage_group"`
}

type answerRequest struct {
	Option int `json:"option" validate:"required,gte=1,lte=4"`
}

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

func NewHandler(svc *Service) *Handler {
	return newHandler(svc)
}

func newHandler(svc sessionService) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Source = strings.ToLower(strings.TrimSpace(req.Source))
	req.Field = strings.ToLower(strings.TrimSpace(req.Field))
	if err := h.validate.Struct(req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	e, err := h.svc.Start(r.Context(), auth.CurrentUserID(r.Context()), StartInput{
		Source:     Source(req.Source),
		Subject:    req.Subject,
		Category:   req.Category,
		Title:      req.Title,
		Year:       req.Year,
		Round:      req.Round,
		Limit:      req.Limit,
		QuestionID: req.QuestionID,
		Term:       req.Term,
		Field:      req.Field,
	})
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, buildView(e))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, buildView(e))
}

func (h *Handler) SelectAnswer(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	questionID, ok := parseQuestionID(w, r)
	if !ok {
		return
	}
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "option must be between 1 and 4")
		return
	}

	if err := e.SelectAnswer(questionID, req.Option); err != nil {
		writeSessionError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, buildView(e))
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	item, err := e.ConfirmAnswer(r.Context())
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, map[string]interface{}{
		"item":    item,
		"session": buildView(e),
	})
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	if err := e.Advance(r.Context()); err != nil {
		writeSessionError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, buildView(e))
}

func (h *Handler) Prev(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	if err := e.GoBack(); err != nil {
		writeSessionError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, buildView(e))
}

// Submit grades a non one-by-one session. The body must carry
// {"confirm":true}.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	confirmed, ok := readConfirm(w, r)
	if !ok {
		return
	}
	if _, err := e.SubmitAll(r.Context(), confirmed); err != nil {
		writeSessionError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, buildView(e))
}

// EarlyResult ends a one-by-one session. The body must carry
// {"confirm":true}.
func (h *Handler) EarlyResult(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	confirmed, ok := readConfirm(w, r)
	if !ok {
		return
	}
	if _, err := e.RequestEarlyResult(confirmed); err != nil {
		writeSessionError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, buildView(e))
}

func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	res, done := e.Result()
	if !done {
		apiresp.WriteErrorCode(w, r, http.StatusConflict, "not_finished", "session has not finished")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, map[string]interface{}{
		"result": res,
		"wrong":  res.Wrong(),
	})
}

func (h *Handler) Quit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Quit(id, auth.CurrentUserID(r.Context())); err != nil {
		writeSessionError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, map[string]interface{}{"id": id, "closed": true})
}

func (h *Handler) PutBookmark(w http.ResponseWriter, r *http.Request) {
	h.setBookmark(w, r, true)
}

func (h *Handler) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	h.setBookmark(w, r, false)
}

func (h *Handler) setBookmark(w http.ResponseWriter, r *http.Request, on bool) {
	questionID, ok := parseQuestionID(w, r)
	if !ok {
		return
	}
	e, err := h.svc.SetBookmark(r.Context(), chi.URLParam(r, "id"), auth.CurrentUserID(r.Context()), questionID, on)
	if err != nil {
		if isKnown(err) {
			writeSessionError(w, r, err)
			return
		}
		apiresp.WriteError(w, r, http.StatusInternalServerError, "bookmark update failed")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, buildView(e))
}

// QuestionCard renders one question from the bank, answer revealed.
func (h *Handler) QuestionCard(w http.ResponseWriter, r *http.Request) {
	questionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || questionID <= 0 {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid question id")
		return
	}
	card, err := h.svc.Card(r.Context(), auth.CurrentUserID(r.Context()), questionID)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, card)
}

func (h *Handler) engine(w http.ResponseWriter, r *http.Request) (*quiz.Engine, bool) {
	e, err := h.svc.Get(chi.URLParam(r, "id"), auth.CurrentUserID(r.Context()))
	if err != nil {
		writeSessionError(w, r, err)
		return nil, false
	}
	return e, true
}

func parseQuestionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
	if err != nil || id <= 0 {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid question id")
		return 0, false
	}
	return id, true
}

// readConfirm treats an empty body as an unconfirmed request.
func readConfirm(w http.ResponseWriter, r *http.Request) (bool, bool) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return false, false
	}
	return req.Confirm, true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	return "invalid " + strings.ToLower(fe.Field()) + ": " + fe.Tag()
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{ErrInvalidInput, http.StatusBadRequest, ""},
	{ErrInvalidSource, http.StatusBadRequest, ""},
	{question.ErrInvalidInput, http.StatusBadRequest, ""},
	{progress.ErrInvalidInput, http.StatusBadRequest, ""},
	{quiz.ErrInvalidOption, http.StatusBadRequest, ""},
	{quiz.ErrInvalidMode, http.StatusBadRequest, ""},
	{ErrLoginRequired, http.StatusUnauthorized, ""},
	{ErrSessionForbidden, http.StatusForbidden, ""},
	{ErrSessionNotFound, http.StatusNotFound, ""},
	{quiz.ErrQuestionNotInSession, http.StatusNotFound, ""},
	{question.ErrQuestionNotFound, http.StatusNotFound, ""},
	{question.ErrExamNotFound, http.StatusNotFound, ""},
	{progress.ErrQuestionNotFound, http.StatusNotFound, ""},
	{quiz.ErrNoQuestions, http.StatusNotFound, "no_questions"},
	{quiz.ErrNoMoreQuestions, http.StatusConflict, "no_more_questions"},
	{quiz.ErrFetchInProgress, http.StatusConflict, "fetch_in_progress"},
	{quiz.ErrLastGroup, http.StatusConflict, "last_group"},
	{quiz.ErrAnswerLocked, http.StatusConflict, "answer_locked"},
	{quiz.ErrSessionFinished, http.StatusConflict, "session_finished"},
	{quiz.ErrWrongMode, http.StatusConflict, "wrong_mode"},
	{quiz.ErrNoSelection, http.StatusUnprocessableEntity, "no_selection"},
	{quiz.ErrConfirmationRequired, http.StatusUnprocessableEntity, "confirmation_required"},
}

func isKnown(err error) bool {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return true
		}
	}
	return false
}

// writeSessionError maps engine and store errors to responses. Anything
// unrecognised is a failed read from the question bank.
func writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			apiresp.WriteErrorCode(w, r, m.status, m.code, m.target.Error())
			return
		}
	}
	apiresp.WriteError(w, r, http.StatusBadGateway, "question source unavailable")
}
