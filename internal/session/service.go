package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gedquiz/internal/quiz"

	"github.com/google/uuid"
)

var (
	ErrInvalidSource = errors.New("invalid session source")
	ErrInvalidInput  = errors.New("invalid input")
	ErrLoginRequired = errors.New("login required")
)

type Source string

const (
	SourceOneByOne Source = "one-by-one"
	SourceBatch    Source = "batch"
	SourceMock     Source = "mock"
	SourceRetry    Source = "retry"
	SourceSearch   Source = "search"
)

const MaxBatchLimit = 50

// QuestionSource is the read side of the question bank.
type QuestionSource interface {
	FetchRandomQuestions(ctx context.Context, subject, category string, limit int, exclude []int64) ([]quiz.Question, error)
	ListExamQuestions(ctx context.Context, subject string, year, round int) ([]quiz.Question, error)
	RetryQuestions(ctx context.Context, id int64) ([]quiz.Question, error)
	Search(ctx context.Context, term, field string) ([]quiz.Question, error)
	GetQuestion(ctx context.Context, id int64) (quiz.Question, error)
}

// ProgressStore persists attempts and bookmarks.
type ProgressStore interface {
	RecordAttempt(ctx context.Context, a quiz.Attempt) error
	RecordAttemptsBulk(ctx context.Context, attempts []quiz.Attempt) error
	ListBookmarks(ctx context.Context, userID string) ([]int64, error)
	CreateBookmark(ctx context.Context, userID string, questionID int64) error
	DeleteBookmark(ctx context.Context, userID string, questionID int64) error
}

// backend joins the question bank and progress store into quiz.Backend.
type backend struct {
	QuestionSource
	progress ProgressStore
}

func (b backend) RecordAttempt(ctx context.Context, a quiz.Attempt) error {
	return b.progress.RecordAttempt(ctx, a)
}

func (b backend) RecordAttemptsBulk(ctx context.Context, attempts []quiz.Attempt) error {
	return b.progress.RecordAttemptsBulk(ctx, attempts)
}

func (b backend) ListBookmarks(ctx context.Context, userID string) ([]int64, error) {
	return b.progress.ListBookmarks(ctx, userID)
}

type StartInput struct {
	Source     Source
	Subject    string
	Category   string
	Title      string
	Year       int
	Round      int
	Limit      int
	QuestionID int64
	Term       string
	Field      string
}

type Service struct {
	questions  QuestionSource
	progress   ProgressStore
	registry   *Registry
	hook       quiz.Hook
	batchLimit int
}

func NewService(questions QuestionSource, progress ProgressStore, registry *Registry, hook quiz.Hook, batchLimit int) *Service {
	if batchLimit <= 0 || batchLimit > MaxBatchLimit {
		batchLimit = 20
	}
	return &Service{
		questions:  questions,
		progress:   progress,
		registry:   registry,
		hook:       hook,
		batchLimit: batchLimit,
	}
}

// Start loads the questions for a source, builds an engine and registers
// it. userID "" starts an anonymous session.
func (s *Service) Start(ctx context.Context, userID string, in StartInput) (*quiz.Engine, error) {
	mode, settings, questions, err := s.load(ctx, in)
	if err != nil {
		return nil, err
	}

	e, err := quiz.NewEngine(quiz.Config{
		ID:       uuid.NewString(),
		Mode:     mode,
		Settings: settings,
		UserID:   userID,
		Backend:  backend{QuestionSource: s.questions, progress: s.progress},
		Hook:     s.hook,
	}, quiz.GroupQuestions(questions))
	if err != nil {
		return nil, err
	}
	// Bookmarks are decoration; a failure is reported through the hook and
	// the session starts with an empty set.
	_ = e.LoadBookmarks(ctx)

	s.registry.Add(e)
	return e, nil
}

func (s *Service) load(ctx context.Context, in StartInput) (quiz.Mode, quiz.Settings, []quiz.Question, error) {
	settings := quiz.Settings{
		Subject:  strings.TrimSpace(in.Subject),
		Category: strings.TrimSpace(in.Category),
		Title:    strings.TrimSpace(in.Title),
	}

	switch in.Source {
	case SourceOneByOne:
		if settings.Subject == "" {
			return "", settings, nil, ErrInvalidInput
		}
		qs, err := s.questions.FetchRandomQuestions(ctx, settings.Subject, settings.CategoryFilter(), 1, []int64{})
		if err != nil {
			return "", settings, nil, fmt.Errorf("fetch first question: %w", err)
		}
		return quiz.ModeOneByOne, settings, qs, nil

	case SourceBatch:
		if settings.Subject == "" {
			return "", settings, nil, ErrInvalidInput
		}
		limit := in.Limit
		if limit <= 0 {
			limit = s.batchLimit
		}
		if limit > MaxBatchLimit {
			limit = MaxBatchLimit
		}
		qs, err := s.questions.FetchRandomQuestions(ctx, settings.Subject, settings.CategoryFilter(), limit, []int64{})
		if err != nil {
			return "", settings, nil, fmt.Errorf("fetch batch questions: %w", err)
		}
		return quiz.ModeBatch, settings, qs, nil

	case SourceMock:
		if settings.Subject == "" || in.Year <= 0 || in.Round <= 0 {
			return "", settings, nil, ErrInvalidInput
		}
		settings.Year, settings.Round = in.Year, in.Round
		if settings.Title == "" {
			settings.Title = fmt.Sprintf("%d년도 제%d회 %s", in.Year, in.Round, settings.Subject)
		}
		qs, err := s.questions.ListExamQuestions(ctx, settings.Subject, in.Year, in.Round)
		if err != nil {
			return "", settings, nil, fmt.Errorf("load exam: %w", err)
		}
		return quiz.ModeMock, settings, qs, nil

	case SourceRetry:
		if in.QuestionID <= 0 {
			return "", settings, nil, ErrInvalidInput
		}
		qs, err := s.questions.RetryQuestions(ctx, in.QuestionID)
		if err != nil {
			return "", settings, nil, fmt.Errorf("load retry questions: %w", err)
		}
		if len(qs) > 0 && settings.Subject == "" {
			settings.Subject = qs[0].Subject
		}
		return quiz.ModeRetry, settings, qs, nil

	case SourceSearch:
		term := strings.TrimSpace(in.Term)
		if len([]rune(term)) < 2 {
			return "", settings, nil, ErrInvalidInput
		}
		qs, err := s.questions.Search(ctx, term, in.Field)
		if err != nil {
			return "", settings, nil, fmt.Errorf("search questions: %w", err)
		}
		if settings.Title == "" {
			settings.Title = "'" + term + "'"
		}
		return quiz.ModeBatch, settings, qs, nil

	default:
		return "", settings, nil, ErrInvalidSource
	}
}

func (s *Service) Get(id, userID string) (*quiz.Engine, error) {
	return s.registry.Get(id, userID)
}

// Quit drops the session without saving unconfirmed answers.
func (s *Service) Quit(id, userID string) error {
	return s.registry.Remove(id, userID)
}

// SetBookmark writes the bookmark remotely and then mirrors it into the
// session's local set.
func (s *Service) SetBookmark(ctx context.Context, id, userID string, questionID int64, on bool) (*quiz.Engine, error) {
	e, err := s.registry.Get(id, userID)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, ErrLoginRequired
	}
	if _, ok := e.Question(questionID); !ok {
		return nil, quiz.ErrQuestionNotInSession
	}

	if on {
		err = s.progress.CreateBookmark(ctx, userID, questionID)
	} else {
		err = s.progress.DeleteBookmark(ctx, userID, questionID)
	}
	if err != nil {
		return nil, fmt.Errorf("update bookmark: %w", err)
	}
	e.ToggleBookmark(questionID, on)
	return e, nil
}

// Card renders a single question with its answer revealed.
func (s *Service) Card(ctx context.Context, userID string, questionID int64) (Card, error) {
	q, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return Card{}, err
	}
	bookmarked := false
	if userID != "" {
		ids, err := s.progress.ListBookmarks(ctx, userID)
		if err == nil {
			for _, id := range ids {
				if id == questionID {
					bookmarked = true
					break
				}
			}
		}
	}
	return questionCard(q, bookmarked), nil
}

// Sweep drops idle sessions.
func (s *Service) Sweep(idle time.Duration) int {
	return s.registry.Sweep(idle)
}
