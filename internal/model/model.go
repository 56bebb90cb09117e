package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleTeacher can create, publish, and inspect quizzes.
	UserRoleTeacher UserRole = "teacher"
	// UserRoleStudent can create notes and browse their own attempt history.
	UserRoleStudent UserRole = "student"
)

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
}

// Identity is the verified caller extracted from a signed token.
// The core uses it only as an opaque owner key for row-ownership checks.
type Identity struct {
	UserID int64
	Email  string
	Role   UserRole
}

type identityCtxKey struct{}

// ContextWithIdentity stores the authenticated identity in the request context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext retrieves the authenticated identity from context, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityCtxKey{}).(*Identity)
	return id
}

// Difficulty represents quiz difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValidDifficulty checks a difficulty string against the known levels.
func IsValidDifficulty(d string) bool {
	switch Difficulty(d) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Quiz is a named, owned collection of ordered multiple-choice questions.
// Immutable once created except for the visibility flag and publish timestamp.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Topic       string     `json:"topic"`
	Difficulty  Difficulty `json:"difficulty"`
	OwnerID     int64      `json:"-"`
	IsPublic    bool       `json:"isPublic"`
	CreatedAt   time.Time  `json:"createdAt"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// QuizSummary is a quiz plus the counts shown on the owner's dashboard.
type QuizSummary struct {
	Quiz
	QuestionCount int `json:"questionCount"`
	AttemptCount  int `json:"attempts"`
}

// Question belongs to exactly one quiz. Options always holds exactly four
// entries and CorrectAnswer equals one of them verbatim. Position is 1-based
// and contiguous within the quiz.
type Question struct {
	ID            int64    `json:"id"`
	QuizID        string   `json:"quizId"`
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Position      int      `json:"position"`
}

// QuestionDraft is a question that has passed contract validation but has not
// been persisted yet. The store assigns ids and positions on insert.
type QuestionDraft struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// QuizAttempt is one respondent's submission against a quiz plus its computed
// aggregates. Immutable once created.
type QuizAttempt struct {
	ID             int64            `json:"id"`
	QuizID         string           `json:"quizId"`
	StudentName    string           `json:"studentName"`
	StudentEmail   string           `json:"studentEmail"`
	StudentRef     string           `json:"studentId,omitempty"`
	Answers        map[int64]string `json:"-"`
	Score          int              `json:"score"`
	TotalQuestions int              `json:"totalQuestions"`
	CorrectAnswers int              `json:"correctAnswers"`
	SubmittedAt    time.Time        `json:"submittedAt"`
}

// QuestionResult records the respondent's literal answer to one question and
// whether it matched the stored key. Exactly one per question per attempt.
type QuestionResult struct {
	ID         int64  `json:"id"`
	AttemptID  int64  `json:"attemptId"`
	QuestionID int64  `json:"questionId"`
	Answer     string `json:"answer"`
	IsCorrect  bool   `json:"isCorrect"`
}

// AttemptHistoryEntry joins an attempt with its quiz metadata for the
// respondent-facing history view.
type AttemptHistoryEntry struct {
	QuizAttempt
	QuizTitle  string     `json:"quizTitle"`
	Topic      string     `json:"topic"`
	Difficulty Difficulty `json:"difficulty"`
}

// Note is the stored outcome of the document-summarization flow.
// Created once from an uploaded document, never mutated.
type Note struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	OwnerEmail string    `json:"-"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	Content    string    `json:"content"`
	Summary    string    `json:"summary"`
	KeyPoints  []string  `json:"keyPoints"`
	Insights   []string  `json:"insights"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Analysis is the structured output of a document summarization call.
type Analysis struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
	Insights  []string `json:"insights"`
}

// TeacherStats aggregates a teacher's dashboard numbers.
type TeacherStats struct {
	TotalQuizzes  int `json:"totalQuizzes"`
	TotalStudents int `json:"totalStudents"`
	TotalAttempts int `json:"totalAttempts"`
}

// StudentStats aggregates a student's dashboard numbers.
type StudentStats struct {
	TotalAttempts int `json:"totalAttempts"`
	AverageScore  int `json:"averageScore"`
	TotalNotes    int `json:"totalNotes"`
}
