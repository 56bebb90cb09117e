package genai

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/pavelanni/quizforge/internal/model"
)

// RawQuestion is one element of an externally-sourced question array before
// validation. Options stays raw because models sometimes emit a string or an
// object where an array belongs.
type RawQuestion struct {
	Text          string          `json:"question"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer string          `json:"correctAnswer"`
	Explanation   string          `json:"explanation"`
}

const placeholderExplanation = "No explanation provided"

func placeholderOptions() []string {
	return []string{"Option A", "Option B", "Option C", "Option D"}
}

func hasDuplicates(options []string) bool {
	seen := make(map[string]bool, len(options))
	for _, opt := range options {
		if seen[opt] {
			return true
		}
		seen[opt] = true
	}
	return false
}

// Repair normalizes an externally-sourced question sequence into fully
// populated drafts. The contract is repair, don't reject: every malformed
// field gets a safe default so the pipeline never aborts on shape drift from
// the model. Repair is idempotent on already-valid input. It does not enforce
// any particular element count; that policy belongs to the caller.
func Repair(items []RawQuestion) []model.QuestionDraft {
	drafts := make([]model.QuestionDraft, 0, len(items))
	for i, item := range items {
		d := model.QuestionDraft{
			Text:          item.Text,
			CorrectAnswer: item.CorrectAnswer,
			Explanation:   item.Explanation,
		}

		var options []string
		if len(item.Options) > 0 {
			// A decode failure means options was not a string array at all.
			_ = json.Unmarshal(item.Options, &options)
		}
		if len(options) != 4 || hasDuplicates(options) {
			options = placeholderOptions()
		}
		d.Options = options

		if d.Text == "" {
			d.Text = fmt.Sprintf("Question %d?", i+1)
		}
		if d.CorrectAnswer == "" || !slices.Contains(d.Options, d.CorrectAnswer) {
			d.CorrectAnswer = d.Options[0]
		}
		if d.Explanation == "" {
			d.Explanation = placeholderExplanation
		}

		drafts = append(drafts, d)
	}
	return drafts
}
