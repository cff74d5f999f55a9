package quiz

// OptionCount is the number of choices every question carries.
const OptionCount = 4

// Question is one multiple-choice item of the bank. Content fields hold raw
// markup; an empty string means the field is absent. Questions sharing a
// non-empty PassageGroup also share their passage and question box.
type Question struct {
	QuestionID    int64               `json:"question_id"`
	Subject       string              `json:"subject"`
	Category      string              `json:"category,omitempty"`
	SubCategory   string              `json:"sub_category,omitempty"`
	PassageGroup  string              `json:"passage_group,omitempty"`
	ExamYear      int                 `json:"exam_year,omitempty"`
	ExamRound     int                 `json:"exam_round,omitempty"`
	QuestionNum   int                 `json:"question_num,omitempty"`
	PassageHeader string              `json:"passage_header,omitempty"`
	Passage       string              `json:"passage,omitempty"`
	QuestionBox   string              `json:"question_box,omitempty"`
	QuestionText  string              `json:"question_text,omitempty"`
	Options       [OptionCount]string `json:"options"`
	Explanation   string              `json:"explanation,omitempty"`
	CorrectAnswer int                 `json:"correct_answer"`
	ImageFileName string              `json:"image_file_name,omitempty"`
}

func ValidOption(option int) bool {
	return option >= 1 && option <= OptionCount
}

// Group is the unit of display and navigation: every question of one
// passage group, or a single ungrouped question.
type Group []Question

// GroupQuestions clusters questions by PassageGroup. A group sits at the
// position of its first member; ungrouped questions stay singletons in
// input order.
func GroupQuestions(questions []Question) []Group {
	groups := make([]Group, 0, len(questions))
	pos := make(map[string]int)
	for _, q := range questions {
		if q.PassageGroup == "" {
			groups = append(groups, Group{q})
			continue
		}
		if i, ok := pos[q.PassageGroup]; ok {
			groups[i] = append(groups[i], q)
			continue
		}
		pos[q.PassageGroup] = len(groups)
		groups = append(groups, Group{q})
	}
	return groups
}

// Flatten expands groups back into the ordered question list.
func Flatten(groups []Group) []Question {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	out := make([]Question, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func questionIDs(groups []Group) []int64 {
	out := make([]int64, 0, len(groups))
	for _, g := range groups {
		for _, q := range g {
			out = append(out, q.QuestionID)
		}
	}
	return out
}
