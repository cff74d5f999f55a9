package session

import (
	"context"
	"strings"
	"testing"

	"gedquiz/internal/markup"
	"gedquiz/internal/quiz"
)

func passageGroup() quiz.Group {
	return quiz.Group{
		{
			QuestionID:    11,
			Subject:       "korean",
			Category:      "literature",
			SubCategory:   "poetry",
			PassageGroup:  "2024-1-A",
			ExamYear:      2024,
			ExamRound:     1,
			QuestionNum:   3,
			PassageHeader: "Read and answer.",
			Passage:       "first [* note one] block[PASSAGE_SPLIT]second [* note two] block",
			QuestionBox:   "<box>",
			QuestionText:  "Which is right?",
			Options:       [quiz.OptionCount]string{"one", "two", "", "four"},
			Explanation:   "Because [* reason].",
			CorrectAnswer: 2,
		},
		{
			QuestionID:    12,
			Subject:       "korean",
			PassageGroup:  "2024-1-A",
			QuestionText:  "Second question",
			Options:       [quiz.OptionCount]string{"a", "b", "c", "d"},
			CorrectAnswer: 4,
		},
	}
}

func TestBuildCardHidesAnswersUntilRevealed(t *testing.T) {
	card := buildCard(passageGroup(), cardOptions{
		firstNumber: 5,
		answers:     map[int64]int{11: 1},
		bookmarks:   map[int64]bool{12: true},
	})

	if card.PassageGroup != "" {
		t.Fatalf("expected no group tag outside mock mode, got %q", card.PassageGroup)
	}
	if card.Header == nil || card.Passage == nil || card.QuestionBox == nil {
		t.Fatalf("expected header, passage and box fields")
	}
	if len(card.Passage.Segments) != 2 || card.Passage.Segments[0].Kind != markup.KindSplit {
		t.Fatalf("expected 2 passage blocks, got %#v", card.Passage.Segments)
	}
	if len(card.Passage.Footnotes) != 2 || card.Passage.Footnotes[1].Index != 1 {
		t.Fatalf("expected per-block footnote numbering, got %#v", card.Passage.Footnotes)
	}
	if !strings.Contains(card.QuestionBox.HTML, "&lt;box&gt;") {
		t.Fatalf("expected escaped box html, got %q", card.QuestionBox.HTML)
	}

	if len(card.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(card.Questions))
	}
	first := card.Questions[0]
	if first.DisplayNumber != 5 || card.Questions[1].DisplayNumber != 6 {
		t.Fatalf("expected display numbers 5 and 6, got %d and %d", first.DisplayNumber, card.Questions[1].DisplayNumber)
	}
	if len(first.Options) != 3 {
		t.Fatalf("expected empty option to be skipped, got %d options", len(first.Options))
	}
	if first.Options[2].Number != 4 || first.Options[2].Label != "④" {
		t.Fatalf("expected option 4 labelled ④, got %#v", first.Options[2])
	}
	if !first.Options[0].Selected || first.Selected != 1 {
		t.Fatalf("expected option 1 selected")
	}
	for _, o := range first.Options {
		if o.Correct {
			t.Fatalf("expected no correct flag before reveal")
		}
	}
	if first.Explanation != nil {
		t.Fatalf("expected explanation hidden before reveal")
	}
	if !card.Questions[1].Bookmarked || first.Bookmarked {
		t.Fatalf("expected only question 12 bookmarked")
	}
}

func TestBuildCardRevealed(t *testing.T) {
	card := buildCard(passageGroup(), cardOptions{
		firstNumber:  1,
		answers:      map[int64]int{11: 2},
		revealed:     true,
		showGroupTag: true,
	})

	if card.PassageGroup != "2024-1-A" {
		t.Fatalf("expected group tag, got %q", card.PassageGroup)
	}
	first := card.Questions[0]
	if !first.Options[1].Correct {
		t.Fatalf("expected option 2 marked correct")
	}
	exp := first.Explanation
	if exp == nil {
		t.Fatalf("expected explanation")
	}
	if !exp.IsCorrect || !exp.Answered || exp.CorrectAnswer != 2 {
		t.Fatalf("unexpected explanation grading: %#v", exp)
	}
	if exp.Source != "2024년도 제1회 검정고시 3번" {
		t.Fatalf("unexpected source line %q", exp.Source)
	}
	if exp.Classification != "korean > literature > poetry" {
		t.Fatalf("unexpected classification %q", exp.Classification)
	}
	if exp.Body == nil || len(exp.Body.Footnotes) != 1 || exp.Body.FootnotesHTML == "" {
		t.Fatalf("expected explanation footnotes, got %#v", exp.Body)
	}

	second := card.Questions[1].Explanation
	if second == nil || second.Answered || second.IsCorrect || second.Source != "" {
		t.Fatalf("expected unanswered second question without source, got %#v", second)
	}
	if second.Classification != "korean" {
		t.Fatalf("expected bare subject classification, got %q", second.Classification)
	}
}

func TestBuildViewIncludesResultWhenFinished(t *testing.T) {
	e := newTestEngine(t, "v", "")
	if err := e.SelectAnswer(1, 2); err != nil {
		t.Fatalf("select: %v", err)
	}
	v := buildView(e)
	if v.Result != nil || v.Card.Questions[0].Explanation != nil {
		t.Fatalf("expected unrevealed view before submit")
	}

	if _, err := e.SubmitAll(context.Background(), true); err != nil {
		t.Fatalf("submit: %v", err)
	}
	e.Wait()
	v = buildView(e)
	if v.Result == nil || v.Result.CorrectCount != 1 || v.Result.Total != 2 {
		t.Fatalf("expected 1/2 result, got %#v", v.Result)
	}
	if v.Card.Questions[0].Explanation == nil {
		t.Fatalf("expected revealed card after submit")
	}
}
