package store

import (
	"database/sql"
	"time"

	"github.com/pavelanni/quizforge/internal/model"
)

// CreateQuizWithQuestions atomically inserts a quiz and its questions.
// Questions get 1-based positions in input order. Any single insert failure
// rolls back the whole unit, so readers never observe a partial quiz.
func (s *Store) CreateQuizWithQuestions(quiz model.Quiz, drafts []model.QuestionDraft) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO quizzes (id, title, topic, difficulty, owner_id, is_public, created_at, published_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		quiz.ID, quiz.Title, quiz.Topic, quiz.Difficulty, quiz.OwnerID, quiz.IsPublic, time.Now(), quiz.PublishedAt,
	)
	if err != nil {
		return err
	}

	for i, d := range drafts {
		options, err := marshalJSON(d.Options)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT INTO questions (quiz_id, text, options, correct_answer, explanation, position)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			quiz.ID, d.Text, options, d.CorrectAnswer, d.Explanation, i+1,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

const quizColumns = `id, title, topic, difficulty, owner_id, is_public, created_at, published_at`

func scanQuiz(row *sql.Row) (model.Quiz, error) {
	var q model.Quiz
	err := row.Scan(&q.ID, &q.Title, &q.Topic, &q.Difficulty, &q.OwnerID, &q.IsPublic, &q.CreatedAt, &q.PublishedAt)
	return q, err
}

// GetQuiz returns a quiz by id regardless of visibility or ownership.
func (s *Store) GetQuiz(id string) (model.Quiz, error) {
	return scanQuiz(s.db.QueryRow(`SELECT `+quizColumns+` FROM quizzes WHERE id = ?`, id))
}

// GetQuizOwned returns a quiz only if the given owner created it.
// A quiz owned by someone else reads as sql.ErrNoRows so callers cannot
// distinguish it from an absent one.
func (s *Store) GetQuizOwned(id string, ownerID int64) (model.Quiz, error) {
	return scanQuiz(s.db.QueryRow(
		`SELECT `+quizColumns+` FROM quizzes WHERE id = ? AND owner_id = ?`, id, ownerID,
	))
}

// GetPublicQuiz returns a quiz only when its visibility flag is set.
func (s *Store) GetPublicQuiz(id string) (model.Quiz, error) {
	return scanQuiz(s.db.QueryRow(
		`SELECT `+quizColumns+` FROM quizzes WHERE id = ? AND is_public = 1`, id,
	))
}

// GetQuizQuestions returns a quiz's questions ordered by position.
func (s *Store) GetQuizQuestions(quizID string) ([]model.Question, error) {
	rows, err := s.db.Query(
		`SELECT id, quiz_id, text, options, correct_answer, explanation, position
		 FROM questions WHERE quiz_id = ? ORDER BY position`, quizID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var options string
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &options, &q.CorrectAnswer, &q.Explanation, &q.Position); err != nil {
			return nil, err
		}
		if q.Options, err = unmarshalStrings(options); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListQuizzesByOwner returns the owner's quizzes, newest first, with question
// and attempt counts.
func (s *Store) ListQuizzesByOwner(ownerID int64) ([]model.QuizSummary, error) {
	rows, err := s.db.Query(
		`SELECT q.id, q.title, q.topic, q.difficulty, q.owner_id, q.is_public, q.created_at, q.published_at,
		        COUNT(DISTINCT qs.id) AS question_count,
		        COUNT(DISTINCT qa.id) AS attempt_count
		 FROM quizzes q
		 LEFT JOIN questions qs ON qs.quiz_id = q.id
		 LEFT JOIN quiz_attempts qa ON qa.quiz_id = q.id
		 WHERE q.owner_id = ?
		 GROUP BY q.id
		 ORDER BY q.created_at DESC`, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []model.QuizSummary
	for rows.Next() {
		var sm model.QuizSummary
		if err := rows.Scan(
			&sm.ID, &sm.Title, &sm.Topic, &sm.Difficulty, &sm.OwnerID, &sm.IsPublic, &sm.CreatedAt, &sm.PublishedAt,
			&sm.QuestionCount, &sm.AttemptCount,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, sm)
	}
	return summaries, rows.Err()
}

// PublishQuiz sets the persisted visibility flag and publish timestamp.
// Returns sql.ErrNoRows when the quiz does not exist or the caller does not
// own it.
func (s *Store) PublishQuiz(id string, ownerID int64) error {
	res, err := s.db.Exec(
		`UPDATE quizzes SET is_public = 1, published_at = ? WHERE id = ? AND owner_id = ?`,
		time.Now(), id, ownerID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteQuiz removes an owned quiz. Questions, attempts, and per-question
// results go with it via foreign key cascade.
func (s *Store) DeleteQuiz(id string, ownerID int64) error {
	res, err := s.db.Exec(`DELETE FROM quizzes WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
