package genai

import (
	"encoding/json"
	"reflect"
	"slices"
	"testing"

	"github.com/pavelanni/quizforge/internal/model"
)

func rawOptions(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal options: %v", err)
	}
	return data
}

func TestRepairValidInputUnchanged(t *testing.T) {
	items := []RawQuestion{
		{
			Text:          "What is 2+2?",
			Options:       rawOptions(t, []string{"3", "4", "5", "6"}),
			CorrectAnswer: "4",
			Explanation:   "Basic arithmetic.",
		},
	}

	drafts := Repair(items)
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}
	want := model.QuestionDraft{
		Text:          "What is 2+2?",
		Options:       []string{"3", "4", "5", "6"},
		CorrectAnswer: "4",
		Explanation:   "Basic arithmetic.",
	}
	if !reflect.DeepEqual(drafts[0], want) {
		t.Errorf("valid input was modified: got %+v", drafts[0])
	}

	// Re-validating an already-valid set yields it unchanged.
	again := Repair([]RawQuestion{{
		Text:          drafts[0].Text,
		Options:       rawOptions(t, drafts[0].Options),
		CorrectAnswer: drafts[0].CorrectAnswer,
		Explanation:   drafts[0].Explanation,
	}})
	if !reflect.DeepEqual(again[0], drafts[0]) {
		t.Errorf("Repair is not idempotent: got %+v", again[0])
	}
}

func TestRepairDefects(t *testing.T) {
	tests := []struct {
		name string
		item RawQuestion
	}{
		{"missing options", RawQuestion{Text: "Q?", CorrectAnswer: "A", Explanation: "E"}},
		{"options not an array", RawQuestion{Text: "Q?", Options: json.RawMessage(`"not a list"`), CorrectAnswer: "A", Explanation: "E"}},
		{"wrong option count", RawQuestion{Text: "Q?", Options: rawOptions(t, []string{"only", "three", "here"}), CorrectAnswer: "only", Explanation: "E"}},
		{"duplicate options", RawQuestion{Text: "Q?", Options: rawOptions(t, []string{"a", "a", "b", "c"}), CorrectAnswer: "a", Explanation: "E"}},
		{"missing correct answer", RawQuestion{Text: "Q?", Options: rawOptions(t, []string{"a", "b", "c", "d"}), Explanation: "E"}},
		{"correct answer not among options", RawQuestion{Text: "Q?", Options: rawOptions(t, []string{"a", "b", "c", "d"}), CorrectAnswer: "z", Explanation: "E"}},
		{"missing explanation", RawQuestion{Text: "Q?", Options: rawOptions(t, []string{"a", "b", "c", "d"}), CorrectAnswer: "a"}},
		{"missing text", RawQuestion{Options: rawOptions(t, []string{"a", "b", "c", "d"}), CorrectAnswer: "a", Explanation: "E"}},
		{"empty object", RawQuestion{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drafts := Repair([]RawQuestion{tt.item})
			if len(drafts) != 1 {
				t.Fatalf("repair must never drop items, got %d", len(drafts))
			}
			d := drafts[0]
			if d.Text == "" {
				t.Error("repaired draft has empty text")
			}
			if len(d.Options) != 4 {
				t.Errorf("expected 4 options, got %d", len(d.Options))
			}
			if hasDuplicates(d.Options) {
				t.Errorf("repaired options are not distinct: %v", d.Options)
			}
			if !slices.Contains(d.Options, d.CorrectAnswer) {
				t.Errorf("correct answer %q not among options %v", d.CorrectAnswer, d.Options)
			}
			if d.Explanation == "" {
				t.Error("repaired draft has empty explanation")
			}
		})
	}
}

func TestRepairDoesNotEnforceCount(t *testing.T) {
	items := []RawQuestion{
		{Text: "Q1?", Options: rawOptions(t, []string{"a", "b", "c", "d"}), CorrectAnswer: "a", Explanation: "E"},
		{Text: "Q2?", Options: rawOptions(t, []string{"a", "b", "c", "d"}), CorrectAnswer: "b", Explanation: "E"},
	}
	// Under- or over-generation relative to the requested count is the
	// caller's business; Repair returns exactly what it was handed.
	if got := len(Repair(items)); got != 2 {
		t.Errorf("expected 2 drafts, got %d", got)
	}
	if got := len(Repair(nil)); got != 0 {
		t.Errorf("expected 0 drafts for nil input, got %d", got)
	}
}
