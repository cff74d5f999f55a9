package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements creates the tables the service reads and writes. The
// question bank itself is loaded by an external import job.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS questions (
		question_id     BIGSERIAL PRIMARY KEY,
		subject         TEXT NOT NULL,
		category        TEXT,
		sub_category    TEXT,
		passage_group   TEXT,
		exam_year       INT,
		exam_round      INT,
		question_num    INT,
		passage_header  TEXT,
		passage         TEXT,
		question_box    TEXT,
		question_text   TEXT,
		option1         TEXT,
		option2         TEXT,
		option3         TEXT,
		option4         TEXT,
		explanation     TEXT,
		correct_answer  SMALLINT NOT NULL CHECK (correct_answer BETWEEN 1 AND 4),
		image_file_name TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_subject_category ON questions (subject, category)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_exam ON questions (subject, exam_year, exam_round, question_num)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_passage_group ON questions (passage_group)`,
	`CREATE TABLE IF NOT EXISTS user_problem_history (
		user_id           UUID NOT NULL,
		question_id       BIGINT NOT NULL REFERENCES questions (question_id) ON DELETE CASCADE,
		selected_option   SMALLINT CHECK (selected_option BETWEEN 1 AND 4),
		is_correct        BOOLEAN NOT NULL,
		last_attempted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, question_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_history_user_time ON user_problem_history (user_id, last_attempted_at DESC)`,
	`CREATE TABLE IF NOT EXISTS user_bookmarks (
		user_id     UUID NOT NULL,
		question_id BIGINT NOT NULL REFERENCES questions (question_id) ON DELETE CASCADE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, question_id)
	)`,
}

// EnsureSchema applies schemaStatements in one transaction.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
