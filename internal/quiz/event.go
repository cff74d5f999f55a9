package quiz

import "time"

type EventKind string

const (
	EventAttemptRecorded EventKind = "attempt_recorded"
	EventAttemptFailed   EventKind = "attempt_failed"
	EventBulkRecorded    EventKind = "bulk_recorded"
	EventBulkFailed      EventKind = "bulk_failed"
	EventBookmarksFailed EventKind = "bookmarks_failed"
	EventFetchFailed     EventKind = "fetch_failed"
	EventNoMoreQuestions EventKind = "no_more_questions"
	EventSessionFinished EventKind = "session_finished"
)

// Event reports something the engine did outside the request/response path,
// mostly the outcome of background persistence.
type Event struct {
	Kind       EventKind
	SessionID  string
	UserID     string
	QuestionID int64
	Count      int
	Err        error
	At         time.Time
}

// Hook observes engine events. It may be called from background goroutines
// and must not block for long.
type Hook func(Event)

// Hooks fans an event out to every non-nil hook in order.
func Hooks(hooks ...Hook) Hook {
	return func(ev Event) {
		for _, h := range hooks {
			if h != nil {
				h(ev)
			}
		}
	}
}
