package store

import (
	"fmt"

	"github.com/pavelanni/quizforge/internal/model"
)

// ExportQuiz builds the export-ready view of one quiz: its questions plus
// every recorded attempt with the per-question audit trail.
func (s *Store) ExportQuiz(quizID string) (*model.QuizExport, error) {
	quiz, err := s.GetQuiz(quizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz %s: %w", quizID, err)
	}

	questions, err := s.GetQuizQuestions(quizID)
	if err != nil {
		return nil, fmt.Errorf("get questions for %s: %w", quizID, err)
	}

	rows, err := s.db.Query(
		`SELECT id FROM quiz_attempts WHERE quiz_id = ? ORDER BY submitted_at`, quizID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attemptIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		attemptIDs = append(attemptIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var attempts []model.AttemptExport
	for _, id := range attemptIDs {
		attempt, err := s.GetAttempt(id)
		if err != nil {
			return nil, fmt.Errorf("get attempt %d: %w", id, err)
		}
		results, err := s.GetAttemptResults(id)
		if err != nil {
			return nil, fmt.Errorf("get results for attempt %d: %w", id, err)
		}
		attempts = append(attempts, model.AttemptExport{Attempt: attempt, Results: results})
	}

	return &model.QuizExport{
		Quiz:      quiz,
		Questions: questions,
		Attempts:  attempts,
	}, nil
}
