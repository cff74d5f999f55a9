package quiz

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

type mockBackend struct {
	fetchFn     func(ctx context.Context, subject, category string, limit int, exclude []int64) ([]Question, error)
	recordFn    func(ctx context.Context, a Attempt) error
	bulkFn      func(ctx context.Context, attempts []Attempt) error
	bookmarksFn func(ctx context.Context, userID string) ([]int64, error)
}

func (m *mockBackend) FetchRandomQuestions(ctx context.Context, subject, category string, limit int, exclude []int64) ([]Question, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, subject, category, limit, exclude)
	}
	return nil, errors.New("not implemented")
}

func (m *mockBackend) RecordAttempt(ctx context.Context, a Attempt) error {
	if m.recordFn != nil {
		return m.recordFn(ctx, a)
	}
	return nil
}

func (m *mockBackend) RecordAttemptsBulk(ctx context.Context, attempts []Attempt) error {
	if m.bulkFn != nil {
		return m.bulkFn(ctx, attempts)
	}
	return nil
}

func (m *mockBackend) ListBookmarks(ctx context.Context, userID string) ([]int64, error) {
	if m.bookmarksFn != nil {
		return m.bookmarksFn(ctx, userID)
	}
	return nil, nil
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) hook(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventKind, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (l *eventLog) find(kind EventKind) (Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ev := range l.events {
		if ev.Kind == kind {
			return ev, true
		}
	}
	return Event{}, false
}

type attemptLog struct {
	mu       sync.Mutex
	attempts []Attempt
}

func (l *attemptLog) record(_ context.Context, a Attempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = append(l.attempts, a)
	return nil
}

func singletons(correct ...int) []Group {
	groups := make([]Group, 0, len(correct))
	for i, c := range correct {
		groups = append(groups, Group{{QuestionID: int64(i + 1), CorrectAnswer: c}})
	}
	return groups
}

func newTestEngine(t *testing.T, mode Mode, userID string, backend Backend, hook Hook, groups []Group) *Engine {
	t.Helper()
	e, err := NewEngine(Config{
		ID:       "s-1",
		Mode:     mode,
		Settings: Settings{Subject: "korean", Category: "all"},
		UserID:   userID,
		Backend:  backend,
		Hook:     hook,
		Now:      func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}, groups)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func TestNewEngineValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		groups  []Group
		wantErr error
	}{
		{name: "invalid mode", cfg: Config{Mode: "speedrun", Backend: &mockBackend{}}, groups: singletons(1), wantErr: ErrInvalidMode},
		{name: "missing backend", cfg: Config{Mode: ModeBatch}, groups: singletons(1), wantErr: ErrNoBackend},
		{name: "no groups", cfg: Config{Mode: ModeBatch, Backend: &mockBackend{}}, wantErr: ErrNoQuestions},
		{name: "empty group", cfg: Config{Mode: ModeBatch, Backend: &mockBackend{}}, groups: []Group{{}}, wantErr: ErrNoQuestions},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewEngine(tc.cfg, tc.groups); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(" One-By-One "); err != nil || m != ModeOneByOne {
		t.Fatalf("expected one-by-one, got %q err=%v", m, err)
	}
	if _, err := ParseMode("exam"); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestOneByOneNoMoreQuestions(t *testing.T) {
	var gotLimit int
	var gotCategory string
	var gotExclude []int64
	attempts := &attemptLog{}
	events := &eventLog{}
	backend := &mockBackend{
		fetchFn: func(_ context.Context, subject, category string, limit int, exclude []int64) ([]Question, error) {
			gotCategory, gotLimit, gotExclude = category, limit, exclude
			return nil, nil
		},
		recordFn: attempts.record,
	}
	e := newTestEngine(t, ModeOneByOne, "user-1", backend, events.hook, singletons(2))

	if err := e.SelectAnswer(1, 2); err != nil {
		t.Fatalf("select: %v", err)
	}
	item, err := e.ConfirmAnswer(context.Background())
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !item.IsCorrect || item.Reason != "correct" {
		t.Fatalf("expected correct item, got %+v", item)
	}

	if err := e.Advance(context.Background()); !errors.Is(err, ErrNoMoreQuestions) {
		t.Fatalf("expected ErrNoMoreQuestions, got %v", err)
	}
	e.Wait()

	st := e.State()
	if st.Phase != PhaseSubmitted || st.GroupCount != 1 || st.GroupIndex != 0 {
		t.Fatalf("expected unchanged submitted state, got phase=%s groups=%d index=%d", st.Phase, st.GroupCount, st.GroupIndex)
	}
	if _, ok := events.find(EventNoMoreQuestions); !ok {
		t.Fatalf("expected no_more_questions event, got %v", events.kinds())
	}
	if gotLimit != 1 || gotCategory != "" || !reflect.DeepEqual(gotExclude, []int64{1}) {
		t.Fatalf("unexpected fetch args limit=%d category=%q exclude=%v", gotLimit, gotCategory, gotExclude)
	}

	if len(attempts.attempts) != 1 {
		t.Fatalf("expected exactly one attempt, got %d", len(attempts.attempts))
	}
	a := attempts.attempts[0]
	if a.QuestionID != 1 || a.SelectedOption == nil || *a.SelectedOption != 2 || !a.IsCorrect || a.UserID != "user-1" {
		t.Fatalf("unexpected attempt %+v", a)
	}
}

func TestOneByOneSkipFetchesNext(t *testing.T) {
	attempts := &attemptLog{}
	backend := &mockBackend{
		fetchFn: func(context.Context, string, string, int, []int64) ([]Question, error) {
			return []Question{{QuestionID: 9, CorrectAnswer: 3}}, nil
		},
		recordFn: attempts.record,
	}
	e := newTestEngine(t, ModeOneByOne, "user-1", backend, nil, singletons(1))

	if err := e.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	e.Wait()

	st := e.State()
	if st.GroupIndex != 1 || st.GroupCount != 2 || st.Phase != PhaseSolving {
		t.Fatalf("expected appended group, got index=%d groups=%d phase=%s", st.GroupIndex, st.GroupCount, st.Phase)
	}
	if st.Current[0].QuestionID != 9 || st.DisplayNumber != 2 {
		t.Fatalf("expected question 9 numbered 2, got %d numbered %d", st.Current[0].QuestionID, st.DisplayNumber)
	}
	if len(attempts.attempts) != 1 || attempts.attempts[0].SelectedOption != nil || attempts.attempts[0].IsCorrect {
		t.Fatalf("expected one unanswered fallback attempt, got %+v", attempts.attempts)
	}
}

func TestOneByOneFetchFailure(t *testing.T) {
	events := &eventLog{}
	backend := &mockBackend{
		fetchFn: func(context.Context, string, string, int, []int64) ([]Question, error) {
			return nil, errors.New("rpc down")
		},
	}
	e := newTestEngine(t, ModeOneByOne, "", backend, events.hook, singletons(1))

	if err := e.Advance(context.Background()); err == nil || errors.Is(err, ErrNoMoreQuestions) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if ev, ok := events.find(EventFetchFailed); !ok || ev.Err == nil {
		t.Fatalf("expected fetch_failed event with error, got %v", events.kinds())
	}
	if st := e.State(); st.GroupCount != 1 || st.Fetching {
		t.Fatalf("expected unchanged state, got groups=%d fetching=%v", st.GroupCount, st.Fetching)
	}
}

func TestOneByOneRejectsSecondAdvanceWhileFetching(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	backend := &mockBackend{
		fetchFn: func(context.Context, string, string, int, []int64) ([]Question, error) {
			close(started)
			<-release
			return []Question{{QuestionID: 2, CorrectAnswer: 1}}, nil
		},
	}
	e := newTestEngine(t, ModeOneByOne, "", backend, nil, singletons(1))

	done := make(chan error, 1)
	go func() { done <- e.Advance(context.Background()) }()
	<-started

	if err := e.Advance(context.Background()); !errors.Is(err, ErrFetchInProgress) {
		t.Fatalf("expected ErrFetchInProgress, got %v", err)
	}
	if !e.State().Fetching {
		t.Fatalf("expected fetching state while rpc is in flight")
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first advance: %v", err)
	}
	if st := e.State(); st.GroupIndex != 1 {
		t.Fatalf("expected index 1, got %d", st.GroupIndex)
	}
}

func TestOneByOneGoBackRefusedWhileFetching(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	backend := &mockBackend{
		fetchFn: func(context.Context, string, string, int, []int64) ([]Question, error) {
			close(started)
			<-release
			return []Question{{QuestionID: 9, CorrectAnswer: 1}}, nil
		},
	}
	e := newTestEngine(t, ModeOneByOne, "", backend, nil, singletons(1, 2))
	if err := e.Advance(context.Background()); err != nil {
		t.Fatalf("advance to second group: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- e.Advance(context.Background()) }()
	<-started

	if err := e.GoBack(); !errors.Is(err, ErrFetchInProgress) {
		t.Fatalf("expected ErrFetchInProgress, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("fetching advance: %v", err)
	}

	st := e.State()
	if st.GroupIndex != 2 || st.GroupCount != 3 || st.Current[0].QuestionID != 9 {
		t.Fatalf("expected fetched question 9 at index 2, got index=%d groups=%d question=%d", st.GroupIndex, st.GroupCount, st.Current[0].QuestionID)
	}
}

func TestOneByOneRevisitDoesNotOverwriteConfirmedAttempt(t *testing.T) {
	attempts := &attemptLog{}
	backend := &mockBackend{
		fetchFn: func(context.Context, string, string, int, []int64) ([]Question, error) {
			return []Question{{QuestionID: 2, CorrectAnswer: 1}}, nil
		},
		recordFn: attempts.record,
	}
	e := newTestEngine(t, ModeOneByOne, "user-1", backend, nil, singletons(3))

	if err := e.SelectAnswer(1, 3); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := e.ConfirmAnswer(context.Background()); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := e.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := e.GoBack(); err != nil {
		t.Fatalf("go back: %v", err)
	}
	if err := e.Advance(context.Background()); err != nil {
		t.Fatalf("advance again: %v", err)
	}
	e.Wait()

	if len(attempts.attempts) != 1 {
		t.Fatalf("expected only the confirmed attempt, got %+v", attempts.attempts)
	}
	a := attempts.attempts[0]
	if a.QuestionID != 1 || a.SelectedOption == nil || *a.SelectedOption != 3 || !a.IsCorrect {
		t.Fatalf("expected correct attempt for question 1, got %+v", a)
	}
	if st := e.State(); st.GroupIndex != 1 || st.GroupCount != 2 {
		t.Fatalf("expected to revisit fetched group, got index=%d groups=%d", st.GroupIndex, st.GroupCount)
	}
}

func TestOneByOneUnconfirmedSelectionAdvancesWithoutRecording(t *testing.T) {
	attempts := &attemptLog{}
	e := newTestEngine(t, ModeOneByOne, "user-1", &mockBackend{recordFn: attempts.record}, nil, singletons(1, 2))

	if err := e.SelectAnswer(1, 2); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := e.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	e.Wait()

	if len(attempts.attempts) != 0 {
		t.Fatalf("expected no attempts, got %+v", attempts.attempts)
	}
}

func TestOneByOneAnswerLocking(t *testing.T) {
	e := newTestEngine(t, ModeOneByOne, "", &mockBackend{}, nil, singletons(1, 2))

	if _, err := e.ConfirmAnswer(context.Background()); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if err := e.SelectAnswer(1, 3); err != nil {
		t.Fatalf("select: %v", err)
	}
	if !e.State().CanConfirm {
		t.Fatalf("expected confirm to be available after selecting")
	}
	item, err := e.ConfirmAnswer(context.Background())
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if item.IsCorrect || item.Reason != "wrong" {
		t.Fatalf("expected wrong item, got %+v", item)
	}
	if !e.State().Revealed {
		t.Fatalf("expected answer revealed after confirm")
	}
	if err := e.SelectAnswer(1, 1); !errors.Is(err, ErrAnswerLocked) {
		t.Fatalf("expected ErrAnswerLocked, got %v", err)
	}
	if _, err := e.ConfirmAnswer(context.Background()); !errors.Is(err, ErrAnswerLocked) {
		t.Fatalf("expected ErrAnswerLocked on second confirm, got %v", err)
	}

	if err := e.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := e.GoBack(); err != nil {
		t.Fatalf("go back: %v", err)
	}
	st := e.State()
	if st.GroupIndex != 0 || st.Phase != PhaseSolving || st.Answers[1] != 3 {
		t.Fatalf("expected back at 0 solving with answer kept, got %+v", st)
	}
}

func TestEarlyResultScoresVisitedGroups(t *testing.T) {
	events := &eventLog{}
	e := newTestEngine(t, ModeOneByOne, "", &mockBackend{}, events.hook, singletons(1, 1, 1, 1, 1, 1, 1, 1, 1, 1))

	if err := e.SelectAnswer(1, 1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := e.SelectAnswer(2, 2); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := e.SelectAnswer(5, 1); err != nil {
		t.Fatalf("select: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := e.Advance(context.Background()); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}

	if _, err := e.RequestEarlyResult(false); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}
	res, err := e.RequestEarlyResult(true)
	if err != nil {
		t.Fatalf("early result: %v", err)
	}
	if res.Total != 3 || res.CorrectCount != 1 || !res.Early {
		t.Fatalf("expected early 1/3, got %d/%d early=%v", res.CorrectCount, res.Total, res.Early)
	}
	if stored, ok := e.Result(); !ok || stored.Total != 3 {
		t.Fatalf("expected stored result, got %+v ok=%v", stored, ok)
	}
	if e.State().Phase != PhaseFinished {
		t.Fatalf("expected finished phase")
	}
	if err := e.Advance(context.Background()); !errors.Is(err, ErrSessionFinished) {
		t.Fatalf("expected ErrSessionFinished, got %v", err)
	}
	if _, ok := events.find(EventSessionFinished); !ok {
		t.Fatalf("expected session_finished event")
	}
}

func TestModeRestrictions(t *testing.T) {
	batch := newTestEngine(t, ModeBatch, "", &mockBackend{}, nil, singletons(1))
	if _, err := batch.ConfirmAnswer(context.Background()); !errors.Is(err, ErrWrongMode) {
		t.Fatalf("expected ErrWrongMode for confirm, got %v", err)
	}
	if _, err := batch.RequestEarlyResult(true); !errors.Is(err, ErrWrongMode) {
		t.Fatalf("expected ErrWrongMode for early result, got %v", err)
	}

	oneByOne := newTestEngine(t, ModeOneByOne, "", &mockBackend{}, nil, singletons(1))
	if _, err := oneByOne.SubmitAll(context.Background(), true); !errors.Is(err, ErrWrongMode) {
		t.Fatalf("expected ErrWrongMode for submit, got %v", err)
	}
}

func TestBatchNavigation(t *testing.T) {
	e := newTestEngine(t, ModeMock, "", &mockBackend{}, nil, singletons(1, 2, 3))

	if err := e.GoBack(); err != nil {
		t.Fatalf("go back: %v", err)
	}
	if e.State().GroupIndex != 0 {
		t.Fatalf("expected clamp at 0")
	}
	for i := 0; i < 2; i++ {
		if err := e.Advance(context.Background()); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	if err := e.Advance(context.Background()); !errors.Is(err, ErrLastGroup) {
		t.Fatalf("expected ErrLastGroup, got %v", err)
	}
	if err := e.SelectAnswer(99, 1); !errors.Is(err, ErrQuestionNotInSession) {
		t.Fatalf("expected ErrQuestionNotInSession, got %v", err)
	}
	if err := e.SelectAnswer(1, 5); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
	st := e.State()
	if !st.CanSubmit || st.Revealed {
		t.Fatalf("expected submit available and nothing revealed, got %+v", st)
	}
}

func TestSubmitAllPersistsEveryQuestion(t *testing.T) {
	var mu sync.Mutex
	var bulk []Attempt
	backend := &mockBackend{
		bulkFn: func(ctx context.Context, attempts []Attempt) error {
			if ctx.Err() != nil {
				t.Errorf("expected detached context, got %v", ctx.Err())
			}
			mu.Lock()
			bulk = attempts
			mu.Unlock()
			return nil
		},
	}
	groups := []Group{
		{{QuestionID: 1, CorrectAnswer: 1, PassageGroup: "P"}, {QuestionID: 2, CorrectAnswer: 2, PassageGroup: "P"}},
		{{QuestionID: 3, CorrectAnswer: 3}},
	}
	e := newTestEngine(t, ModeBatch, "user-1", backend, nil, groups)

	if _, err := e.SubmitAll(context.Background(), false); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}
	if err := e.SelectAnswer(1, 1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := e.SelectAnswer(3, 4); err != nil {
		t.Fatalf("select: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	res, err := e.SubmitAll(ctx, true)
	cancel()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	e.Wait()

	if res.CorrectCount != 1 || res.Total != 3 {
		t.Fatalf("expected 1/3, got %d/%d", res.CorrectCount, res.Total)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(bulk) != 3 {
		t.Fatalf("expected 3 bulk attempts, got %d", len(bulk))
	}
	if bulk[1].QuestionID != 2 || bulk[1].SelectedOption != nil || bulk[1].IsCorrect {
		t.Fatalf("expected unanswered record for question 2, got %+v", bulk[1])
	}
	if bulk[2].SelectedOption == nil || *bulk[2].SelectedOption != 4 || bulk[2].IsCorrect {
		t.Fatalf("expected wrong record for question 3, got %+v", bulk[2])
	}
	if err := e.SelectAnswer(2, 2); !errors.Is(err, ErrSessionFinished) {
		t.Fatalf("expected ErrSessionFinished, got %v", err)
	}
	if _, err := e.SubmitAll(context.Background(), true); !errors.Is(err, ErrSessionFinished) {
		t.Fatalf("expected ErrSessionFinished on resubmit, got %v", err)
	}
}

func TestPersistenceFailureGoesToHook(t *testing.T) {
	events := &eventLog{}
	backend := &mockBackend{
		recordFn: func(context.Context, Attempt) error { return errors.New("write failed") },
		bulkFn:   func(context.Context, []Attempt) error { return errors.New("write failed") },
	}

	oneByOne := newTestEngine(t, ModeOneByOne, "user-1", backend, events.hook, singletons(1))
	if err := oneByOne.SelectAnswer(1, 1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := oneByOne.ConfirmAnswer(context.Background()); err != nil {
		t.Fatalf("confirm must not surface write failures, got %v", err)
	}
	oneByOne.Wait()
	ev, ok := events.find(EventAttemptFailed)
	if !ok || ev.Err == nil || ev.QuestionID != 1 || ev.SessionID != "s-1" || ev.UserID != "user-1" {
		t.Fatalf("expected attempt_failed event, got %+v", events.kinds())
	}

	batch := newTestEngine(t, ModeRetry, "user-1", backend, events.hook, singletons(1))
	if _, err := batch.SubmitAll(context.Background(), true); err != nil {
		t.Fatalf("submit must not surface write failures, got %v", err)
	}
	batch.Wait()
	if ev, ok := events.find(EventBulkFailed); !ok || ev.Count != 1 {
		t.Fatalf("expected bulk_failed event, got %+v", events.kinds())
	}
}

func TestAnonymousSessionPersistsNothing(t *testing.T) {
	backend := &mockBackend{
		recordFn: func(context.Context, Attempt) error {
			t.Errorf("unexpected record call")
			return nil
		},
		bulkFn: func(context.Context, []Attempt) error {
			t.Errorf("unexpected bulk call")
			return nil
		},
	}
	e := newTestEngine(t, ModeBatch, "", backend, nil, singletons(1))
	if _, err := e.SubmitAll(context.Background(), true); err != nil {
		t.Fatalf("submit: %v", err)
	}
	e.Wait()
}

func TestBookmarks(t *testing.T) {
	events := &eventLog{}
	backend := &mockBackend{
		bookmarksFn: func(_ context.Context, userID string) ([]int64, error) {
			if userID != "user-1" {
				t.Errorf("expected user-1, got %s", userID)
			}
			return []int64{3, 1}, nil
		},
	}
	e := newTestEngine(t, ModeBatch, "user-1", backend, events.hook, singletons(1, 1, 1))
	if err := e.LoadBookmarks(context.Background()); err != nil {
		t.Fatalf("load bookmarks: %v", err)
	}
	if got := e.State().Bookmarks; !reflect.DeepEqual(got, []int64{1, 3}) {
		t.Fatalf("expected [1 3], got %v", got)
	}

	e.ToggleBookmark(2, true)
	e.ToggleBookmark(1, false)
	if got := e.State().Bookmarks; !reflect.DeepEqual(got, []int64{2, 3}) {
		t.Fatalf("expected [2 3], got %v", got)
	}
	if !e.Bookmarked(2) || e.Bookmarked(1) {
		t.Fatalf("unexpected bookmark lookups")
	}

	backend.bookmarksFn = func(context.Context, string) ([]int64, error) { return nil, errors.New("boom") }
	if err := e.LoadBookmarks(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := events.find(EventBookmarksFailed); !ok {
		t.Fatalf("expected bookmarks_failed event")
	}
}

func TestHooksFanOut(t *testing.T) {
	var a, b int
	h := Hooks(func(Event) { a++ }, nil, func(Event) { b++ })
	h(Event{Kind: EventBulkRecorded})
	if a != 1 || b != 1 {
		t.Fatalf("expected both hooks called once, got a=%d b=%d", a, b)
	}
}
