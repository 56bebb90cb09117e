// Package grader computes submission scores against a quiz's stored answer
// key. It is pure compute; persisting the attempt is the store's business.
package grader

import (
	"errors"
	"math"

	"github.com/pavelanni/quizforge/internal/model"
)

// ErrNoQuestions is returned when grading a quiz with no questions.
// A degenerate quiz is a hard error, never a silent zero score.
var ErrNoQuestions = errors.New("quiz has no questions")

// QuestionBreakdown is the per-question outcome returned for immediate display.
type QuestionBreakdown struct {
	QuestionID    int64  `json:"questionId"`
	Question      string `json:"question"`
	StudentAnswer string `json:"studentAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
	Explanation   string `json:"explanation"`
}

// Result is a graded submission.
type Result struct {
	Score          int                 `json:"score"`
	TotalQuestions int                 `json:"totalQuestions"`
	CorrectAnswers int                 `json:"correctAnswers"`
	Breakdown      []QuestionBreakdown `json:"results"`
}

// Grade compares answers (keyed by question id) against the questions'
// stored keys in position order. An absent answer counts as incorrect.
// Comparison is byte-for-byte. Score is round(100 * correct / total).
func Grade(questions []model.Question, answers map[int64]string) (Result, error) {
	if len(questions) == 0 {
		return Result{}, ErrNoQuestions
	}

	result := Result{
		TotalQuestions: len(questions),
		Breakdown:      make([]QuestionBreakdown, 0, len(questions)),
	}
	for _, q := range questions {
		answer := answers[q.ID]
		correct := answer == q.CorrectAnswer
		if correct {
			result.CorrectAnswers++
		}
		result.Breakdown = append(result.Breakdown, QuestionBreakdown{
			QuestionID:    q.ID,
			Question:      q.Text,
			StudentAnswer: answer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     correct,
			Explanation:   q.Explanation,
		})
	}

	result.Score = int(math.Round(100 * float64(result.CorrectAnswers) / float64(result.TotalQuestions)))
	return result, nil
}
