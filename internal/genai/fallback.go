package genai

import (
	"fmt"

	"github.com/pavelanni/quizforge/internal/model"
)

// FallbackQuestions builds the deterministic substitute question set used when
// the generative endpoint fails. Every draft satisfies the question contract:
// four distinct options, a correct answer equal to one of them, and an
// explanation. Centralized here so fallback behavior is uniform across the
// generation and upload paths and testable on its own.
func FallbackQuestions(topic string, difficulty model.Difficulty, count int) []model.QuestionDraft {
	drafts := make([]model.QuestionDraft, count)
	for i := range drafts {
		correct := fmt.Sprintf("Correct answer for %s", topic)
		drafts[i] = model.QuestionDraft{
			Text: fmt.Sprintf("Sample question %d about %s (%s level)?", i+1, topic, difficulty),
			Options: []string{
				correct,
				"Incorrect option A",
				"Incorrect option B",
				"Incorrect option C",
			},
			CorrectAnswer: correct,
			Explanation:   fmt.Sprintf("This is the correct answer because it relates to %s concepts at %s level.", topic, difficulty),
		}
	}
	return drafts
}

// FallbackExtractedText is the placeholder returned when document extraction
// fails. The summarizer must still run on something.
func FallbackExtractedText(mimeType string) string {
	switch mimeType {
	case "application/pdf":
		return "Sample content extracted from PDF document."
	default:
		return "Sample content extracted from image."
	}
}

// FallbackAnalysis is the generic multi-point analysis used when
// summarization fails.
func FallbackAnalysis(title string) model.Analysis {
	summary := "This document contains important educational content that has been processed for your study notes."
	if title != "" {
		summary = fmt.Sprintf("%q contains important educational content that has been processed for your study notes.", title)
	}
	return model.Analysis{
		Summary: summary,
		KeyPoints: []string{
			"Main concept from the document",
			"Important fact or definition",
			"Key process or procedure",
			"Significant detail to remember",
			"Critical understanding point",
		},
		Insights: []string{
			"This content relates to broader concepts in the subject",
			"Understanding this will help with related topics",
			"This is a fundamental concept for further learning",
		},
	}
}
