package session

import (
	"fmt"
	"strings"

	"gedquiz/internal/markup"
	"gedquiz/internal/quiz"
)

var optionLabels = [quiz.OptionCount]string{"①", "②", "③", "④"}

// Field is one rendered text field: the segment tree for structured clients
// and escaped HTML for simple ones.
type Field struct {
	Segments      []markup.Segment  `json:"segments"`
	Footnotes     []markup.Footnote `json:"footnotes,omitempty"`
	HTML          string            `json:"html"`
	FootnotesHTML string            `json:"footnotes_html,omitempty"`
}

type Card struct {
	PassageGroup string         `json:"passage_group,omitempty"`
	Header       *Field         `json:"header,omitempty"`
	Passage      *Field         `json:"passage,omitempty"`
	QuestionBox  *Field         `json:"question_box,omitempty"`
	Questions    []QuestionCard `json:"questions"`
}

type QuestionCard struct {
	QuestionID    int64            `json:"question_id"`
	DisplayNumber int              `json:"display_number"`
	Text          *Field           `json:"text,omitempty"`
	ImageFileName string           `json:"image_file_name,omitempty"`
	Options       []OptionCard     `json:"options"`
	Selected      int              `json:"selected,omitempty"`
	Bookmarked    bool             `json:"bookmarked"`
	Explanation   *ExplanationCard `json:"explanation,omitempty"`
}

type OptionCard struct {
	Number   int    `json:"number"`
	Label    string `json:"label"`
	Content  *Field `json:"content"`
	Selected bool   `json:"selected"`
	Correct  bool   `json:"correct,omitempty"`
}

type ExplanationCard struct {
	CorrectAnswer  int    `json:"correct_answer"`
	IsCorrect      bool   `json:"is_correct"`
	Answered       bool   `json:"answered"`
	Body           *Field `json:"body,omitempty"`
	Source         string `json:"source,omitempty"`
	Classification string `json:"classification"`
}

type cardOptions struct {
	firstNumber  int
	answers      map[int64]int
	bookmarks    map[int64]bool
	revealed     bool
	showGroupTag bool
}

func newField(r markup.Rendered) *Field {
	if r.Empty() {
		return nil
	}
	return &Field{
		Segments:      r.Segments,
		Footnotes:     r.Footnotes,
		HTML:          markup.HTML(r.Segments),
		FootnotesHTML: markup.FootnotesHTML(r.Footnotes),
	}
}

// buildCard renders one question group. Header, passage and question box
// come from the group's first question. Correct answers and explanations are
// only included once revealed.
func buildCard(g quiz.Group, opts cardOptions) Card {
	if len(g) == 0 {
		return Card{Questions: []QuestionCard{}}
	}
	primary := g[0]
	card := Card{
		Header:      newField(markup.Render(primary.PassageHeader)),
		Passage:     newField(markup.RenderBlocks(primary.Passage, markup.SplitPassage)),
		QuestionBox: newField(markup.RenderBlocks(primary.QuestionBox, markup.SplitBox)),
		Questions:   make([]QuestionCard, 0, len(g)),
	}
	if opts.showGroupTag {
		card.PassageGroup = primary.PassageGroup
	}

	for i, q := range g {
		selected, answered := opts.answers[q.QuestionID]
		qc := QuestionCard{
			QuestionID:    q.QuestionID,
			DisplayNumber: opts.firstNumber + i,
			Text:          newField(markup.Render(q.QuestionText)),
			ImageFileName: q.ImageFileName,
			Options:       make([]OptionCard, 0, quiz.OptionCount),
			Selected:      selected,
			Bookmarked:    opts.bookmarks[q.QuestionID],
		}
		for n, text := range q.Options {
			if text == "" {
				continue
			}
			number := n + 1
			qc.Options = append(qc.Options, OptionCard{
				Number:   number,
				Label:    optionLabels[n],
				Content:  newField(markup.Render(text)),
				Selected: answered && selected == number,
				Correct:  opts.revealed && q.CorrectAnswer == number,
			})
		}
		if opts.revealed {
			qc.Explanation = &ExplanationCard{
				CorrectAnswer:  q.CorrectAnswer,
				IsCorrect:      answered && selected == q.CorrectAnswer,
				Answered:       answered,
				Body:           newField(markup.Render(q.Explanation)),
				Source:         sourceLine(q),
				Classification: classification(q),
			}
		}
		card.Questions = append(card.Questions, qc)
	}
	return card
}

func sourceLine(q quiz.Question) string {
	if q.ExamYear == 0 || q.ExamRound == 0 {
		return ""
	}
	return fmt.Sprintf("%d년도 제%d회 검정고시 %d번", q.ExamYear, q.ExamRound, q.QuestionNum)
}

func classification(q quiz.Question) string {
	parts := []string{q.Subject}
	for _, p := range []string{q.Category, q.SubCategory} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " > ")
}

// View is what session endpoints return: the engine state plus the rendered
// current group, and the result once finished.
type View struct {
	State  quiz.State   `json:"state"`
	Card   Card         `json:"card"`
	Result *quiz.Result `json:"result,omitempty"`
}

func buildView(e *quiz.Engine) View {
	st := e.State()
	bookmarks := make(map[int64]bool, len(st.Bookmarks))
	for _, id := range st.Bookmarks {
		bookmarks[id] = true
	}
	v := View{
		State: st,
		Card: buildCard(st.Current, cardOptions{
			firstNumber:  st.DisplayNumber,
			answers:      st.Answers,
			bookmarks:    bookmarks,
			revealed:     st.Revealed,
			showGroupTag: st.Mode == quiz.ModeMock,
		}),
	}
	if res, ok := e.Result(); ok {
		v.Result = &res
	}
	return v
}

// questionCard renders a single question outside any session, revealed.
func questionCard(q quiz.Question, bookmarked bool) Card {
	return buildCard(quiz.Group{q}, cardOptions{
		firstNumber:  1,
		bookmarks:    map[int64]bool{q.QuestionID: bookmarked},
		revealed:     true,
		showGroupTag: true,
	})
}
