package store

import (
	"time"

	"github.com/pavelanni/quizforge/internal/model"
)

// CreateAttempt atomically inserts a quiz attempt and one result row per
// question. Any insert failure rolls the whole attempt back; grading is never
// partially persisted.
func (s *Store) CreateAttempt(attempt model.QuizAttempt, results []model.QuestionResult) (int64, error) {
	answers, err := marshalJSON(attempt.Answers)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO quiz_attempts (quiz_id, student_name, student_email, student_ref, answers, score, total_questions, correct_answers, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.QuizID, attempt.StudentName, attempt.StudentEmail, attempt.StudentRef,
		answers, attempt.Score, attempt.TotalQuestions, attempt.CorrectAnswers, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	attemptID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, r := range results {
		_, err := tx.Exec(
			`INSERT INTO question_results (attempt_id, question_id, answer, is_correct)
			 VALUES (?, ?, ?, ?)`,
			attemptID, r.QuestionID, r.Answer, r.IsCorrect,
		)
		if err != nil {
			return 0, err
		}
	}

	return attemptID, tx.Commit()
}

// GetAttempt returns an attempt by id.
func (s *Store) GetAttempt(id int64) (model.QuizAttempt, error) {
	var a model.QuizAttempt
	var answers string
	err := s.db.QueryRow(
		`SELECT id, quiz_id, student_name, student_email, student_ref, answers, score, total_questions, correct_answers, submitted_at
		 FROM quiz_attempts WHERE id = ?`, id,
	).Scan(&a.ID, &a.QuizID, &a.StudentName, &a.StudentEmail, &a.StudentRef, &answers,
		&a.Score, &a.TotalQuestions, &a.CorrectAnswers, &a.SubmittedAt)
	if err != nil {
		return a, err
	}
	err = unmarshalAnswers(answers, &a.Answers)
	return a, err
}

// GetAttemptResults returns the per-question results for an attempt.
func (s *Store) GetAttemptResults(attemptID int64) ([]model.QuestionResult, error) {
	rows, err := s.db.Query(
		`SELECT id, attempt_id, question_id, answer, is_correct
		 FROM question_results WHERE attempt_id = ? ORDER BY id`, attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.QuestionResult
	for rows.Next() {
		var r model.QuestionResult
		if err := rows.Scan(&r.ID, &r.AttemptID, &r.QuestionID, &r.Answer, &r.IsCorrect); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListAttemptsByEmail returns a respondent's attempts joined with quiz
// metadata, newest first.
func (s *Store) ListAttemptsByEmail(email string) ([]model.AttemptHistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT qa.id, qa.quiz_id, qa.student_name, qa.student_email, qa.student_ref, qa.answers,
		        qa.score, qa.total_questions, qa.correct_answers, qa.submitted_at,
		        q.title, q.topic, q.difficulty
		 FROM quiz_attempts qa
		 JOIN quizzes q ON q.id = qa.quiz_id
		 WHERE qa.student_email = ?
		 ORDER BY qa.submitted_at DESC`, email,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []model.AttemptHistoryEntry
	for rows.Next() {
		var e model.AttemptHistoryEntry
		var answers string
		if err := rows.Scan(
			&e.ID, &e.QuizID, &e.StudentName, &e.StudentEmail, &e.StudentRef, &answers,
			&e.Score, &e.TotalQuestions, &e.CorrectAnswers, &e.SubmittedAt,
			&e.QuizTitle, &e.Topic, &e.Difficulty,
		); err != nil {
			return nil, err
		}
		if err := unmarshalAnswers(answers, &e.Answers); err != nil {
			return nil, err
		}
		history = append(history, e)
	}
	return history, rows.Err()
}

// TeacherStats aggregates quiz, distinct-respondent, and attempt counts for
// one owner.
func (s *Store) TeacherStats(ownerID int64) (model.TeacherStats, error) {
	var stats model.TeacherStats
	err := s.db.QueryRow(
		`SELECT COUNT(DISTINCT q.id),
		        COUNT(DISTINCT qa.student_email),
		        COUNT(qa.id)
		 FROM quizzes q
		 LEFT JOIN quiz_attempts qa ON qa.quiz_id = q.id
		 WHERE q.owner_id = ?`, ownerID,
	).Scan(&stats.TotalQuizzes, &stats.TotalStudents, &stats.TotalAttempts)
	return stats, err
}

// StudentStats aggregates attempt and note counts for one account email.
func (s *Store) StudentStats(email string) (model.StudentStats, error) {
	var stats model.StudentStats
	err := s.db.QueryRow(
		`SELECT COUNT(id), COALESCE(CAST(ROUND(AVG(score)) AS INTEGER), 0)
		 FROM quiz_attempts WHERE student_email = ?`, email,
	).Scan(&stats.TotalAttempts, &stats.AverageScore)
	if err != nil {
		return stats, err
	}
	err = s.db.QueryRow(
		`SELECT COUNT(id) FROM notes WHERE owner_email = ?`, email,
	).Scan(&stats.TotalNotes)
	return stats, err
}
