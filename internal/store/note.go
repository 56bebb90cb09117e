package store

import (
	"time"

	"github.com/pavelanni/quizforge/internal/model"
)

// CreateNote inserts a note in one atomic statement.
func (s *Store) CreateNote(n model.Note) error {
	keyPoints, err := marshalJSON(n.KeyPoints)
	if err != nil {
		return err
	}
	insights, err := marshalJSON(n.Insights)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO notes (id, title, owner_email, file_name, file_type, content, summary, key_points, insights, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.OwnerEmail, n.FileName, n.FileType, n.Content, n.Summary, keyPoints, insights, time.Now(),
	)
	return err
}

const noteColumns = `id, title, owner_email, file_name, file_type, content, summary, key_points, insights, created_at`

// GetNoteOwned returns a note only if the given email owns it. Notes owned by
// someone else read as sql.ErrNoRows.
func (s *Store) GetNoteOwned(id, ownerEmail string) (model.Note, error) {
	var n model.Note
	var keyPoints, insights string
	err := s.db.QueryRow(
		`SELECT `+noteColumns+` FROM notes WHERE id = ? AND owner_email = ?`, id, ownerEmail,
	).Scan(&n.ID, &n.Title, &n.OwnerEmail, &n.FileName, &n.FileType, &n.Content, &n.Summary, &keyPoints, &insights, &n.CreatedAt)
	if err != nil {
		return n, err
	}
	if n.KeyPoints, err = unmarshalStrings(keyPoints); err != nil {
		return n, err
	}
	n.Insights, err = unmarshalStrings(insights)
	return n, err
}

// ListNotesByOwner returns an account's notes, newest first.
func (s *Store) ListNotesByOwner(ownerEmail string) ([]model.Note, error) {
	rows, err := s.db.Query(
		`SELECT `+noteColumns+` FROM notes WHERE owner_email = ? ORDER BY created_at DESC`, ownerEmail,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		var n model.Note
		var keyPoints, insights string
		if err := rows.Scan(&n.ID, &n.Title, &n.OwnerEmail, &n.FileName, &n.FileType, &n.Content, &n.Summary, &keyPoints, &insights, &n.CreatedAt); err != nil {
			return nil, err
		}
		if n.KeyPoints, err = unmarshalStrings(keyPoints); err != nil {
			return nil, err
		}
		if n.Insights, err = unmarshalStrings(insights); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
