package quiz

import (
	"reflect"
	"testing"
)

func TestGroupQuestions(t *testing.T) {
	in := []Question{
		{QuestionID: 1},
		{QuestionID: 2, PassageGroup: "P"},
		{QuestionID: 3},
		{QuestionID: 4, PassageGroup: "P"},
		{QuestionID: 5, PassageGroup: "Q"},
		{QuestionID: 6, PassageGroup: "Q"},
		{QuestionID: 7, PassageGroup: "P"},
	}

	groups := GroupQuestions(in)
	var got [][]int64
	for _, g := range groups {
		var ids []int64
		for _, q := range g {
			ids = append(ids, q.QuestionID)
		}
		got = append(got, ids)
	}
	want := [][]int64{{1}, {2, 4, 7}, {3}, {5, 6}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected groups %v, got %v", want, got)
	}

	if flat := Flatten(groups); len(flat) != len(in) {
		t.Fatalf("expected %d flattened questions, got %d", len(in), len(flat))
	}
}

func TestGroupQuestionsEmpty(t *testing.T) {
	if got := GroupQuestions(nil); len(got) != 0 {
		t.Fatalf("expected no groups, got %d", len(got))
	}
}

func TestValidOption(t *testing.T) {
	for opt, want := range map[int]bool{0: false, 1: true, 4: true, 5: false, -1: false} {
		if got := ValidOption(opt); got != want {
			t.Fatalf("option %d: expected %v, got %v", opt, want, got)
		}
	}
}
