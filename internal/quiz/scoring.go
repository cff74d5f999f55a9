package quiz

import "strconv"

// PassAccuracy is the accuracy, in percent, at which a result counts as passed.
const PassAccuracy = 60.0

type ItemResult struct {
	QuestionID    int64  `json:"question_id"`
	DisplayNum    int    `json:"display_num"`
	Answered      bool   `json:"answered"`
	Selected      int    `json:"selected,omitempty"`
	CorrectAnswer int    `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	Reason        string `json:"reason"`
}

type Result struct {
	Items        []ItemResult `json:"items"`
	Total        int          `json:"total"`
	CorrectCount int          `json:"correct_count"`
	Accuracy     float64      `json:"accuracy"`
	AccuracyText string       `json:"accuracy_text"`
	Passed       bool         `json:"passed"`
	Early        bool         `json:"early,omitempty"`
}

// ScoreItem grades one question. Only an exact match with the answer key is
// correct; an unanswered question is never correct.
func ScoreItem(q Question, selected int, answered bool) ItemResult {
	if !answered {
		return ItemResult{QuestionID: q.QuestionID, CorrectAnswer: q.CorrectAnswer, Reason: "unanswered"}
	}
	if selected == q.CorrectAnswer {
		return ItemResult{QuestionID: q.QuestionID, Answered: true, Selected: selected, CorrectAnswer: q.CorrectAnswer, IsCorrect: true, Reason: "correct"}
	}
	return ItemResult{QuestionID: q.QuestionID, Answered: true, Selected: selected, CorrectAnswer: q.CorrectAnswer, Reason: "wrong"}
}

// Score grades the flattened question list of groups against answers.
func Score(groups []Group, answers map[int64]int) (Result, error) {
	questions := Flatten(groups)
	if len(questions) == 0 {
		return Result{}, ErrNoQuestions
	}

	res := Result{Items: make([]ItemResult, 0, len(questions)), Total: len(questions)}
	for i, q := range questions {
		selected, ok := answers[q.QuestionID]
		item := ScoreItem(q, selected, ok)
		item.DisplayNum = i + 1
		if item.IsCorrect {
			res.CorrectCount++
		}
		res.Items = append(res.Items, item)
	}

	res.Accuracy = float64(res.CorrectCount) / float64(res.Total) * 100
	res.AccuracyText = strconv.FormatFloat(res.Accuracy, 'f', 1, 64)
	res.Passed = res.Accuracy >= PassAccuracy
	return res, nil
}

// Wrong returns the items that were not answered correctly.
func (r Result) Wrong() []ItemResult {
	out := make([]ItemResult, 0, len(r.Items)-r.CorrectCount)
	for _, it := range r.Items {
		if !it.IsCorrect {
			out = append(out, it)
		}
	}
	return out
}
