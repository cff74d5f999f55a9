package question

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"gedquiz/internal/quiz"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrQuestionNotFound = errors.New("question not found")
	ErrExamNotFound     = errors.New("exam not found")
)

const (
	SearchLimit     = 30
	MinSearchLength = 2
)

// Exam is one past paper of a subject, identified by year and round.
type Exam struct {
	Year          int `json:"year"`
	Round         int `json:"round"`
	QuestionCount int `json:"question_count"`
}

type Store struct {
	db    *sql.DB
	cache Cache
	ttl   time.Duration
}

// NewStore returns a question store. cache may be nil.
func NewStore(db *sql.DB, cache Cache, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Store{db: db, cache: cache, ttl: ttl}
}

const questionColumns = `
	question_id, subject, COALESCE(category, ''), COALESCE(sub_category, ''),
	COALESCE(passage_group, ''), COALESCE(exam_year, 0), COALESCE(exam_round, 0),
	COALESCE(question_num, 0), COALESCE(passage_header, ''), COALESCE(passage, ''),
	COALESCE(question_box, ''), COALESCE(question_text, ''),
	COALESCE(option1, ''), COALESCE(option2, ''), COALESCE(option3, ''), COALESCE(option4, ''),
	COALESCE(explanation, ''), correct_answer, COALESCE(image_file_name, '')`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (quiz.Question, error) {
	var q quiz.Question
	err := row.Scan(
		&q.QuestionID, &q.Subject, &q.Category, &q.SubCategory,
		&q.PassageGroup, &q.ExamYear, &q.ExamRound,
		&q.QuestionNum, &q.PassageHeader, &q.Passage,
		&q.QuestionBox, &q.QuestionText,
		&q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3],
		&q.Explanation, &q.CorrectAnswer, &q.ImageFileName,
	)
	return q, err
}

func (s *Store) queryQuestions(ctx context.Context, query string, args ...any) ([]quiz.Question, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]quiz.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchRandomQuestions returns up to limit random questions of a subject,
// optionally narrowed to one category, skipping the excluded ids. An empty
// result means the pool is exhausted.
func (s *Store) FetchRandomQuestions(ctx context.Context, subject, category string, limit int, exclude []int64) ([]quiz.Question, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" || limit <= 0 {
		return nil, ErrInvalidInput
	}
	if exclude == nil {
		exclude = []int64{}
	}

	qs, err := s.queryQuestions(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE subject = $1
			AND ($2::text = '' OR category = $2)
			AND NOT (question_id = ANY($3))
		ORDER BY random()
		LIMIT $4
	`, subject, strings.TrimSpace(category), exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch random questions: %w", err)
	}
	return qs, nil
}

// ListExams lists a subject's past papers, newest first.
func (s *Store) ListExams(ctx context.Context, subject string) ([]Exam, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, ErrInvalidInput
	}

	key := "exams:" + subject
	var cached []Exam
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT exam_year, exam_round, COUNT(*)
		FROM questions
		WHERE subject = $1 AND exam_year IS NOT NULL AND exam_round IS NOT NULL
		GROUP BY exam_year, exam_round
		ORDER BY exam_year DESC, exam_round DESC
	`, subject)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()

	out := make([]Exam, 0)
	for rows.Next() {
		var e Exam
		if err := rows.Scan(&e.Year, &e.Round, &e.QuestionCount); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exams: %w", err)
	}

	s.cacheSet(ctx, key, out)
	return out, nil
}

// ListExamQuestions loads one past paper in question-number order.
func (s *Store) ListExamQuestions(ctx context.Context, subject string, year, round int) ([]quiz.Question, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" || year <= 0 || round <= 0 {
		return nil, ErrInvalidInput
	}

	key := "exam:" + subject + ":" + strconv.Itoa(year) + ":" + strconv.Itoa(round)
	var cached []quiz.Question
	if s.cacheGet(ctx, key, &cached) && len(cached) > 0 {
		return cached, nil
	}

	qs, err := s.queryQuestions(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE subject = $1 AND exam_year = $2 AND exam_round = $3
		ORDER BY question_num ASC, question_id ASC
	`, subject, year, round)
	if err != nil {
		return nil, fmt.Errorf("list exam questions: %w", err)
	}
	if len(qs) == 0 {
		return nil, ErrExamNotFound
	}

	s.cacheSet(ctx, key, qs)
	return qs, nil
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (quiz.Question, error) {
	if id <= 0 {
		return quiz.Question{}, ErrQuestionNotFound
	}
	q, err := scanQuestion(s.db.QueryRowContext(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE question_id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.Question{}, ErrQuestionNotFound
	}
	if err != nil {
		return quiz.Question{}, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// ListPassageGroup loads every question sharing a passage group.
func (s *Store) ListPassageGroup(ctx context.Context, group string) ([]quiz.Question, error) {
	group = strings.TrimSpace(group)
	if group == "" {
		return nil, ErrInvalidInput
	}

	key := "group:" + group
	var cached []quiz.Question
	if s.cacheGet(ctx, key, &cached) && len(cached) > 0 {
		return cached, nil
	}

	qs, err := s.queryQuestions(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE passage_group = $1
		ORDER BY question_num ASC, question_id ASC
	`, group)
	if err != nil {
		return nil, fmt.Errorf("list passage group: %w", err)
	}

	s.cacheSet(ctx, key, qs)
	return qs, nil
}

// RetryQuestions loads a question for a retry session: its whole passage
// group when it has one, otherwise just the question.
func (s *Store) RetryQuestions(ctx context.Context, id int64) ([]quiz.Question, error) {
	q, err := s.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.PassageGroup == "" {
		return []quiz.Question{q}, nil
	}
	group, err := s.ListPassageGroup(ctx, q.PassageGroup)
	if err != nil {
		return nil, err
	}
	if len(group) == 0 {
		return []quiz.Question{q}, nil
	}
	return group, nil
}

// Search matches term case-insensitively against the columns of field,
// newest questions first, capped at SearchLimit.
func (s *Store) Search(ctx context.Context, term, field string) ([]quiz.Question, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < MinSearchLength {
		return nil, ErrInvalidInput
	}
	cols, ok := searchColumns(field)
	if !ok {
		return nil, ErrInvalidInput
	}

	conds := make([]string, 0, len(cols))
	for _, c := range cols {
		conds = append(conds, c+" ILIKE $1")
	}
	qs, err := s.queryQuestions(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE `+strings.Join(conds, " OR ")+`
		ORDER BY question_id DESC
		LIMIT $2
	`, likePattern(term), SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search questions: %w", err)
	}
	return qs, nil
}

func searchColumns(field string) ([]string, bool) {
	switch strings.TrimSpace(strings.ToLower(field)) {
	case "", "all":
		return []string{"passage_group", "passage_header", "passage", "question_box", "question_text", "option1", "option2", "option3", "option4", "explanation"}, true
	case "passage":
		return []string{"passage_group", "passage_header", "passage", "question_box"}, true
	case "question":
		return []string{"question_text"}, true
	case "options":
		return []string{"option1", "option2", "option3", "option4"}, true
	case "explanation":
		return []string{"explanation"}, true
	case "group", "passage_group":
		return []string{"passage_group"}, true
	default:
		return nil, false
	}
}

func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

func (s *Store) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		log.Printf("question cache: %v", err)
		return false
	}
	return ok
}

func (s *Store) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		log.Printf("question cache: %v", err)
	}
}
