package quiz

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type Mode string

const (
	ModeBatch    Mode = "batch"
	ModeOneByOne Mode = "one-by-one"
	ModeMock     Mode = "mock"
	ModeRetry    Mode = "retry"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.TrimSpace(strings.ToLower(s))); m {
	case ModeBatch, ModeOneByOne, ModeMock, ModeRetry:
		return m, nil
	default:
		return "", ErrInvalidMode
	}
}

type Phase string

const (
	PhaseSolving   Phase = "solving"
	PhaseSubmitted Phase = "submitted"
	PhaseFinished  Phase = "finished"
)

// Settings describes where the session's questions come from.
type Settings struct {
	Subject  string `json:"subject"`
	Category string `json:"category,omitempty"`
	Title    string `json:"title,omitempty"`
	Year     int    `json:"year,omitempty"`
	Round    int    `json:"round,omitempty"`
}

// CategoryFilter is the category used for random fetches; "" means any.
func (s Settings) CategoryFilter() string {
	if strings.EqualFold(s.Category, "all") {
		return ""
	}
	return s.Category
}

// Attempt is one history record. SelectedOption is nil for a question that
// was skipped or left unanswered.
type Attempt struct {
	UserID         string    `json:"user_id"`
	QuestionID     int64     `json:"question_id"`
	SelectedOption *int      `json:"selected_option"`
	IsCorrect      bool      `json:"is_correct"`
	AttemptedAt    time.Time `json:"attempted_at"`
}

// Backend is everything the engine needs from the outside world.
type Backend interface {
	FetchRandomQuestions(ctx context.Context, subject, category string, limit int, exclude []int64) ([]Question, error)
	RecordAttempt(ctx context.Context, a Attempt) error
	RecordAttemptsBulk(ctx context.Context, attempts []Attempt) error
	ListBookmarks(ctx context.Context, userID string) ([]int64, error)
}

// Config wires an engine. An empty UserID marks an anonymous session, which
// persists nothing.
type Config struct {
	ID       string
	Mode     Mode
	Settings Settings
	UserID   string
	Backend  Backend
	Hook     Hook
	Now      func() time.Time
}

// Engine drives one quiz session. All methods are safe for concurrent use.
// Persistence runs in background goroutines; Wait blocks until they finish.
type Engine struct {
	id       string
	mode     Mode
	settings Settings
	userID   string
	backend  Backend
	hook     Hook
	now      func() time.Time

	mu        sync.Mutex
	groups    []Group
	index     map[int64]Question
	current   int
	answers   map[int64]int
	phase     Phase
	bookmarks map[int64]struct{}
	fetching  bool
	result    *Result

	wg sync.WaitGroup
}

type State struct {
	ID            string        `json:"id"`
	Mode          Mode          `json:"mode"`
	Settings      Settings      `json:"settings"`
	Phase         Phase         `json:"phase"`
	GroupIndex    int           `json:"group_index"`
	GroupCount    int           `json:"group_count"`
	QuestionCount int           `json:"question_count"`
	DisplayNumber int           `json:"display_number"`
	Current       Group         `json:"-"`
	Answers       map[int64]int `json:"answers"`
	Bookmarks     []int64       `json:"bookmarks"`
	Fetching      bool          `json:"fetching"`
	Revealed      bool          `json:"revealed"`
	CanConfirm    bool          `json:"can_confirm"`
	CanSubmit     bool          `json:"can_submit"`
}

func NewEngine(cfg Config, groups []Group) (*Engine, error) {
	if _, err := ParseMode(string(cfg.Mode)); err != nil {
		return nil, err
	}
	if cfg.Backend == nil {
		return nil, ErrNoBackend
	}
	if len(groups) == 0 {
		return nil, ErrNoQuestions
	}

	e := &Engine{
		id:        cfg.ID,
		mode:      cfg.Mode,
		settings:  cfg.Settings,
		userID:    cfg.UserID,
		backend:   cfg.Backend,
		hook:      cfg.Hook,
		now:       cfg.Now,
		groups:    make([]Group, 0, len(groups)),
		index:     make(map[int64]Question),
		answers:   make(map[int64]int),
		phase:     PhaseSolving,
		bookmarks: make(map[int64]struct{}),
	}
	if e.now == nil {
		e.now = time.Now
	}
	for _, g := range groups {
		if len(g) == 0 {
			return nil, ErrNoQuestions
		}
		e.appendGroup(g)
	}
	return e, nil
}

func (e *Engine) ID() string     { return e.id }
func (e *Engine) Mode() Mode     { return e.mode }
func (e *Engine) UserID() string { return e.userID }

// LoadBookmarks replaces the local bookmark set with the user's remote one.
// Anonymous sessions get an empty set.
func (e *Engine) LoadBookmarks(ctx context.Context) error {
	if e.userID == "" {
		e.mu.Lock()
		e.bookmarks = make(map[int64]struct{})
		e.mu.Unlock()
		return nil
	}

	ids, err := e.backend.ListBookmarks(ctx, e.userID)
	if err != nil {
		e.emit(Event{Kind: EventBookmarksFailed, Err: err})
		return fmt.Errorf("list bookmarks: %w", err)
	}

	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	e.mu.Lock()
	e.bookmarks = set
	e.mu.Unlock()
	return nil
}

// SelectAnswer records or overwrites the option chosen for a question. In
// one-by-one mode a confirmed answer is locked until the user moves on.
func (e *Engine) SelectAnswer(questionID int64, option int) error {
	if !ValidOption(option) {
		return ErrInvalidOption
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase == PhaseFinished {
		return ErrSessionFinished
	}
	if _, ok := e.index[questionID]; !ok {
		return ErrQuestionNotInSession
	}
	if e.mode == ModeOneByOne && e.phase == PhaseSubmitted {
		return ErrAnswerLocked
	}
	e.answers[questionID] = option
	return nil
}

// ConfirmAnswer grades the current item in one-by-one mode and records the
// attempt in the background.
func (e *Engine) ConfirmAnswer(ctx context.Context) (ItemResult, error) {
	e.mu.Lock()
	if e.mode != ModeOneByOne {
		e.mu.Unlock()
		return ItemResult{}, ErrWrongMode
	}
	if e.phase == PhaseFinished {
		e.mu.Unlock()
		return ItemResult{}, ErrSessionFinished
	}
	if e.phase == PhaseSubmitted {
		e.mu.Unlock()
		return ItemResult{}, ErrAnswerLocked
	}
	q := e.groups[e.current][0]
	selected, ok := e.answers[q.QuestionID]
	if !ok {
		e.mu.Unlock()
		return ItemResult{}, ErrNoSelection
	}
	e.phase = PhaseSubmitted
	item := ScoreItem(q, selected, true)
	item.DisplayNum = e.displayNumberLocked()
	e.mu.Unlock()

	e.recordAttempt(ctx, q.QuestionID, &selected, item.IsCorrect)
	return item, nil
}

// Advance moves to the next group. In one-by-one mode an item left without
// any selection is recorded as unanswered first, and past the last group one more random
// question is fetched; ErrNoMoreQuestions means the bank is exhausted and
// nothing changed.
func (e *Engine) Advance(ctx context.Context) error {
	e.mu.Lock()
	if e.phase == PhaseFinished {
		e.mu.Unlock()
		return ErrSessionFinished
	}
	if e.fetching {
		e.mu.Unlock()
		return ErrFetchInProgress
	}

	oneByOne := e.mode == ModeOneByOne
	if oneByOne && e.phase == PhaseSolving {
		skipped := e.groups[e.current][0].QuestionID
		if _, answered := e.answers[skipped]; !answered {
			e.recordAttempt(ctx, skipped, nil, false)
		}
	}

	if e.current < len(e.groups)-1 {
		e.current++
		e.phase = PhaseSolving
		e.mu.Unlock()
		return nil
	}
	if !oneByOne {
		e.mu.Unlock()
		return ErrLastGroup
	}

	e.fetching = true
	exclude := questionIDs(e.groups)
	e.mu.Unlock()

	found, err := e.backend.FetchRandomQuestions(ctx, e.settings.Subject, e.settings.CategoryFilter(), 1, exclude)

	e.mu.Lock()
	e.fetching = false
	if err != nil {
		e.mu.Unlock()
		e.emit(Event{Kind: EventFetchFailed, Err: err})
		return fmt.Errorf("fetch next question: %w", err)
	}
	if e.phase == PhaseFinished {
		e.mu.Unlock()
		return ErrSessionFinished
	}
	if len(found) == 0 {
		e.mu.Unlock()
		e.emit(Event{Kind: EventNoMoreQuestions})
		return ErrNoMoreQuestions
	}
	e.appendGroup(Group{found[0]})
	e.current = len(e.groups) - 1
	e.phase = PhaseSolving
	e.mu.Unlock()
	return nil
}

// GoBack moves to the previous group, clamped at the first one. Recorded
// answers are kept. It is refused while a next-question fetch is in flight.
func (e *Engine) GoBack() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase == PhaseFinished {
		return ErrSessionFinished
	}
	if e.fetching {
		return ErrFetchInProgress
	}
	if e.current > 0 {
		e.current--
	}
	e.phase = PhaseSolving
	return nil
}

// SubmitAll grades the whole session once and records every question in a
// single background bulk write. confirmed must reflect an explicit user
// confirmation.
func (e *Engine) SubmitAll(ctx context.Context, confirmed bool) (Result, error) {
	e.mu.Lock()
	if e.mode == ModeOneByOne {
		e.mu.Unlock()
		return Result{}, ErrWrongMode
	}
	if !confirmed {
		e.mu.Unlock()
		return Result{}, ErrConfirmationRequired
	}
	if e.phase == PhaseFinished {
		e.mu.Unlock()
		return Result{}, ErrSessionFinished
	}

	res, err := Score(e.groups, e.answers)
	if err != nil {
		e.mu.Unlock()
		return Result{}, err
	}
	e.phase = PhaseFinished
	e.result = &res

	var attempts []Attempt
	if e.userID != "" {
		at := e.now()
		attempts = make([]Attempt, 0, len(res.Items))
		for _, it := range res.Items {
			a := Attempt{UserID: e.userID, QuestionID: it.QuestionID, IsCorrect: it.IsCorrect, AttemptedAt: at}
			if it.Answered {
				sel := it.Selected
				a.SelectedOption = &sel
			}
			attempts = append(attempts, a)
		}
	}
	e.mu.Unlock()

	e.emit(Event{Kind: EventSessionFinished, Count: res.Total})
	if attempts != nil {
		e.recordBulk(ctx, attempts)
	}
	return res, nil
}

// RequestEarlyResult ends a one-by-one session and grades only the groups
// visited so far, the current one included. Nothing is persisted.
func (e *Engine) RequestEarlyResult(confirmed bool) (Result, error) {
	e.mu.Lock()
	if e.mode != ModeOneByOne {
		e.mu.Unlock()
		return Result{}, ErrWrongMode
	}
	if !confirmed {
		e.mu.Unlock()
		return Result{}, ErrConfirmationRequired
	}
	if e.phase == PhaseFinished {
		e.mu.Unlock()
		return Result{}, ErrSessionFinished
	}

	res, err := Score(e.groups[:e.current+1], e.answers)
	if err != nil {
		e.mu.Unlock()
		return Result{}, err
	}
	res.Early = true
	e.phase = PhaseFinished
	e.result = &res
	e.mu.Unlock()

	e.emit(Event{Kind: EventSessionFinished, Count: res.Total})
	return res, nil
}

// ToggleBookmark mirrors a bookmark change that was already sent to the
// bookmark store.
func (e *Engine) ToggleBookmark(questionID int64, on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if on {
		e.bookmarks[questionID] = struct{}{}
		return
	}
	delete(e.bookmarks, questionID)
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := State{
		ID:            e.id,
		Mode:          e.mode,
		Settings:      e.settings,
		Phase:         e.phase,
		GroupIndex:    e.current,
		GroupCount:    len(e.groups),
		QuestionCount: len(e.index),
		DisplayNumber: e.displayNumberLocked(),
		Current:       append(Group(nil), e.groups[e.current]...),
		Answers:       make(map[int64]int, len(e.answers)),
		Bookmarks:     make([]int64, 0, len(e.bookmarks)),
		Fetching:      e.fetching,
		Revealed:      e.phase == PhaseFinished || (e.mode == ModeOneByOne && e.phase == PhaseSubmitted),
	}
	for id, opt := range e.answers {
		st.Answers[id] = opt
	}
	for id := range e.bookmarks {
		st.Bookmarks = append(st.Bookmarks, id)
	}
	sort.Slice(st.Bookmarks, func(i, j int) bool { return st.Bookmarks[i] < st.Bookmarks[j] })

	if e.phase == PhaseSolving && e.mode == ModeOneByOne {
		_, st.CanConfirm = e.answers[e.groups[e.current][0].QuestionID]
	}
	st.CanSubmit = e.phase != PhaseFinished && e.mode != ModeOneByOne
	return st
}

// Result returns the final grading once the session has finished.
func (e *Engine) Result() (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.result == nil {
		return Result{}, false
	}
	return *e.result, true
}

func (e *Engine) Question(id int64) (Question, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	q, ok := e.index[id]
	return q, ok
}

func (e *Engine) Bookmarked(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.bookmarks[id]
	return ok
}

// Wait blocks until all background persistence has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) appendGroup(g Group) {
	cp := append(Group(nil), g...)
	e.groups = append(e.groups, cp)
	for _, q := range cp {
		e.index[q.QuestionID] = q
	}
}

func (e *Engine) displayNumberLocked() int {
	n := 1
	for _, g := range e.groups[:e.current] {
		n += len(g)
	}
	return n
}

func (e *Engine) recordAttempt(ctx context.Context, questionID int64, selected *int, correct bool) {
	if e.userID == "" {
		return
	}
	a := Attempt{UserID: e.userID, QuestionID: questionID, SelectedOption: selected, IsCorrect: correct, AttemptedAt: e.now()}
	ctx = context.WithoutCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.backend.RecordAttempt(ctx, a); err != nil {
			e.emit(Event{Kind: EventAttemptFailed, QuestionID: questionID, Err: err})
			return
		}
		e.emit(Event{Kind: EventAttemptRecorded, QuestionID: questionID})
	}()
}

func (e *Engine) recordBulk(ctx context.Context, attempts []Attempt) {
	ctx = context.WithoutCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.backend.RecordAttemptsBulk(ctx, attempts); err != nil {
			e.emit(Event{Kind: EventBulkFailed, Count: len(attempts), Err: err})
			return
		}
		e.emit(Event{Kind: EventBulkRecorded, Count: len(attempts)})
	}()
}

func (e *Engine) emit(ev Event) {
	if e.hook == nil {
		return
	}
	ev.SessionID = e.id
	ev.UserID = e.userID
	if ev.At.IsZero() {
		ev.At = e.now()
	}
	e.hook(ev)
}
