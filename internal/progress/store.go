package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gedquiz/internal/auth"
	"gedquiz/internal/quiz"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrQuestionNotFound = errors.New("question not found")
)

const (
	DefaultHistoryLimit = 50
	StatsCategoryLimit  = 10
	StatsDays           = 30
)

type HistoryEntry struct {
	QuestionID      int64     `json:"question_id"`
	SelectedOption  *int      `json:"selected_option"`
	IsCorrect       bool      `json:"is_correct"`
	LastAttemptedAt time.Time `json:"last_attempted_at"`
	Subject         string    `json:"subject"`
	Category        string    `json:"category"`
	ExamYear        int       `json:"exam_year"`
	ExamRound       int       `json:"exam_round"`
	QuestionNum     int       `json:"question_num"`
	QuestionText    string    `json:"question_text"`
}

type Bookmark struct {
	QuestionID   int64     `json:"question_id"`
	CreatedAt    time.Time `json:"created_at"`
	Subject      string    `json:"subject"`
	Category     string    `json:"category"`
	ExamYear     int       `json:"exam_year"`
	ExamRound    int       `json:"exam_round"`
	QuestionNum  int       `json:"question_num"`
	QuestionText string    `json:"question_text"`
}

type Tally struct {
	Key      string  `json:"key"`
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

type Stats struct {
	Total      int     `json:"total"`
	Correct    int     `json:"correct"`
	Accuracy   float64 `json:"accuracy"`
	Subjects   []Tally `json:"subjects"`
	Categories []Tally `json:"categories"`
	Daily      []Tally `json:"daily"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func normalizeUser(userID string) (string, error) {
	id, err := auth.ParseUserID(userID)
	if err != nil {
		return "", ErrInvalidInput
	}
	return id, nil
}

func nullOption(opt *int) sql.NullInt64 {
	if opt == nil || !quiz.ValidOption(*opt) {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*opt), Valid: true}
}

const upsertAttempt = `
	INSERT INTO user_problem_history (user_id, question_id, selected_option, is_correct, last_attempted_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id, question_id) DO UPDATE SET
		selected_option = EXCLUDED.selected_option,
		is_correct = EXCLUDED.is_correct,
		last_attempted_at = EXCLUDED.last_attempted_at
	WHERE user_problem_history.last_attempted_at <= EXCLUDED.last_attempted_at`

// RecordAttempt upserts one history row. The attempt with the latest
// timestamp wins regardless of arrival order.
func (s *Store) RecordAttempt(ctx context.Context, a quiz.Attempt) error {
	userID, err := normalizeUser(a.UserID)
	if err != nil || a.QuestionID <= 0 {
		return ErrInvalidInput
	}
	at := a.AttemptedAt
	if at.IsZero() {
		at = s.now()
	}
	if _, err := s.db.ExecContext(ctx, upsertAttempt, userID, a.QuestionID, nullOption(a.SelectedOption), a.IsCorrect, at); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// RecordAttemptsBulk upserts a whole session's results in one transaction.
func (s *Store) RecordAttemptsBulk(ctx context.Context, attempts []quiz.Attempt) error {
	if len(attempts) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk attempts tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertAttempt)
	if err != nil {
		return fmt.Errorf("prepare bulk attempts: %w", err)
	}
	defer stmt.Close()

	now := s.now()
	for _, a := range attempts {
		userID, err := normalizeUser(a.UserID)
		if err != nil || a.QuestionID <= 0 {
			return ErrInvalidInput
		}
		at := a.AttemptedAt
		if at.IsZero() {
			at = now
		}
		if _, err := stmt.ExecContext(ctx, userID, a.QuestionID, nullOption(a.SelectedOption), a.IsCorrect, at); err != nil {
			return fmt.Errorf("record attempt %d: %w", a.QuestionID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk attempts: %w", err)
	}
	return nil
}

func (s *Store) ListBookmarks(ctx context.Context, userID string) ([]int64, error) {
	uid, err := normalizeUser(userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT question_id FROM user_bookmarks WHERE user_id = $1 ORDER BY created_at DESC
	`, uid)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return ids, nil
}

// CreateBookmark is idempotent.
func (s *Store) CreateBookmark(ctx context.Context, userID string, questionID int64) error {
	uid, err := normalizeUser(userID)
	if err != nil || questionID <= 0 {
		return ErrInvalidInput
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO user_bookmarks (user_id, question_id)
		SELECT $1, question_id FROM questions WHERE question_id = $2
		ON CONFLICT (user_id, question_id) DO NOTHING
	`, uid, questionID)
	if err != nil {
		return fmt.Errorf("create bookmark: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM questions WHERE question_id = $1)`, questionID).Scan(&exists); err != nil {
			return fmt.Errorf("check question: %w", err)
		}
		if !exists {
			return ErrQuestionNotFound
		}
	}
	return nil
}

// DeleteBookmark succeeds when there was nothing to delete.
func (s *Store) DeleteBookmark(ctx context.Context, userID string, questionID int64) error {
	uid, err := normalizeUser(userID)
	if err != nil || questionID <= 0 {
		return ErrInvalidInput
	}
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM user_bookmarks WHERE user_id = $1 AND question_id = $2
	`, uid, questionID); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return nil
}

func (s *Store) ListBookmarkedQuestions(ctx context.Context, userID string) ([]Bookmark, error) {
	uid, err := normalizeUser(userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.question_id, b.created_at, q.subject, COALESCE(q.category, ''),
			COALESCE(q.exam_year, 0), COALESCE(q.exam_round, 0), COALESCE(q.question_num, 0),
			COALESCE(q.question_text, '')
		FROM user_bookmarks b
		JOIN questions q ON q.question_id = b.question_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
	`, uid)
	if err != nil {
		return nil, fmt.Errorf("list bookmarked questions: %w", err)
	}
	defer rows.Close()

	out := make([]Bookmark, 0)
	for rows.Next() {
		var b Bookmark
		if err := rows.Scan(&b.QuestionID, &b.CreatedAt, &b.Subject, &b.Category, &b.ExamYear, &b.ExamRound, &b.QuestionNum, &b.QuestionText); err != nil {
			return nil, fmt.Errorf("scan bookmarked question: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarked questions: %w", err)
	}
	return out, nil
}

// ListHistory returns the newest attempts first. limit <= 0 means
// DefaultHistoryLimit.
func (s *Store) ListHistory(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	uid, err := normalizeUser(userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.question_id, h.selected_option, h.is_correct, h.last_attempted_at,
			q.subject, COALESCE(q.category, ''), COALESCE(q.exam_year, 0), COALESCE(q.exam_round, 0),
			COALESCE(q.question_num, 0), COALESCE(q.question_text, '')
		FROM user_problem_history h
		JOIN questions q ON q.question_id = h.question_id
		WHERE h.user_id = $1
		ORDER BY h.last_attempted_at DESC
		LIMIT $2
	`, uid, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := make([]HistoryEntry, 0)
	for rows.Next() {
		var (
			e   HistoryEntry
			opt sql.NullInt64
		)
		if err := rows.Scan(&e.QuestionID, &opt, &e.IsCorrect, &e.LastAttemptedAt, &e.Subject, &e.Category, &e.ExamYear, &e.ExamRound, &e.QuestionNum, &e.QuestionText); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if opt.Valid {
			v := int(opt.Int64)
			e.SelectedOption = &v
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// Stats aggregates a user's history per subject, for the most attempted
// categories, and per day over the last StatsDays days.
func (s *Store) Stats(ctx context.Context, userID string) (Stats, error) {
	uid, err := normalizeUser(userID)
	if err != nil {
		return Stats{}, err
	}

	subjects, err := s.tallies(ctx, `
		SELECT q.subject, COUNT(*), COUNT(*) FILTER (WHERE h.is_correct)
		FROM user_problem_history h
		JOIN questions q ON q.question_id = h.question_id
		WHERE h.user_id = $1
		GROUP BY q.subject
		ORDER BY q.subject
	`, uid)
	if err != nil {
		return Stats{}, fmt.Errorf("subject stats: %w", err)
	}

	categories, err := s.tallies(ctx, `
		SELECT q.subject || ' > ' || COALESCE(NULLIF(q.category, ''), '-'), COUNT(*), COUNT(*) FILTER (WHERE h.is_correct)
		FROM user_problem_history h
		JOIN questions q ON q.question_id = h.question_id
		WHERE h.user_id = $1
		GROUP BY 1
		ORDER BY 2 DESC, 1
		LIMIT $2
	`, uid, StatsCategoryLimit)
	if err != nil {
		return Stats{}, fmt.Errorf("category stats: %w", err)
	}

	since := s.now().AddDate(0, 0, -StatsDays)
	daily, err := s.tallies(ctx, `
		SELECT to_char(date_trunc('day', h.last_attempted_at), 'YYYY-MM-DD'), COUNT(*), COUNT(*) FILTER (WHERE h.is_correct)
		FROM user_problem_history h
		WHERE h.user_id = $1 AND h.last_attempted_at >= $2
		GROUP BY 1
		ORDER BY 1
	`, uid, since)
	if err != nil {
		return Stats{}, fmt.Errorf("daily stats: %w", err)
	}

	out := Stats{Subjects: subjects, Categories: categories, Daily: daily}
	for _, t := range subjects {
		out.Total += t.Total
		out.Correct += t.Correct
	}
	out.Accuracy = accuracy(out.Correct, out.Total)
	return out, nil
}

func (s *Store) tallies(ctx context.Context, query string, args ...any) ([]Tally, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Tally, 0)
	for rows.Next() {
		var t Tally
		if err := rows.Scan(&t.Key, &t.Total, &t.Correct); err != nil {
			return nil, err
		}
		t.Accuracy = accuracy(t.Correct, t.Total)
		out = append(out, t)
	}
	return out, rows.Err()
}

func accuracy(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// DeleteUserData removes every history row and bookmark of a user.
func (s *Store) DeleteUserData(ctx context.Context, userID string) error {
	uid, err := normalizeUser(userID)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user data tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"user_problem_history", "user_bookmarks"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = $1`, uid); err != nil {
			return fmt.Errorf("delete %s: %w", strings.TrimPrefix(table, "user_"), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user data: %w", err)
	}
	return nil
}
