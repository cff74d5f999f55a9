package quiz

import "errors"

var (
	ErrNoQuestions          = errors.New("quiz has no questions")
	ErrInvalidMode          = errors.New("invalid quiz mode")
	ErrNoBackend            = errors.New("quiz backend is required")
	ErrWrongMode            = errors.New("operation not available in this mode")
	ErrInvalidOption        = errors.New("option out of range")
	ErrQuestionNotInSession = errors.New("question not in session")
	ErrNoSelection          = errors.New("no option selected")
	ErrAnswerLocked         = errors.New("answer already confirmed")
	ErrSessionFinished      = errors.New("session already finished")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrFetchInProgress      = errors.New("next question fetch in progress")
	ErrNoMoreQuestions      = errors.New("no more questions")
	ErrLastGroup            = errors.New("already at last question")
)
