package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pavelanni/quizforge/internal/grader"
	"github.com/pavelanni/quizforge/internal/model"
)

const maxUploadBytes = 10 << 20

func newQuizID() string {
	return "quiz_" + uuid.NewString()
}

type generateQuizRequest struct {
	Title         string `json:"title" validate:"required"`
	Topic         string `json:"topic" validate:"required"`
	Difficulty    string `json:"difficulty" validate:"required,oneof=easy medium hard"`
	QuestionCount int    `json:"questionCount" validate:"required,min=1,max=20"`
}

func (h *Handler) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityFromContext(r.Context())

	var req generateQuizRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	difficulty := model.Difficulty(req.Difficulty)
	drafts := h.genai.GenerateQuestions(r.Context(), req.Topic, difficulty, req.QuestionCount)

	quiz := model.Quiz{
		ID:         newQuizID(),
		Title:      req.Title,
		Topic:      req.Topic,
		Difficulty: difficulty,
		OwnerID:    id.UserID,
	}
	if err := h.store.CreateQuizWithQuestions(quiz, drafts); err != nil {
		slog.Error("Failed to save generated quiz", "quiz_id", quiz.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save quiz")
		return
	}

	slog.Info("Quiz generated", "quiz_id", quiz.ID, "topic", req.Topic, "questions", len(drafts))
	writeJSON(w, http.StatusCreated, map[string]any{
		"quizId":             quiz.ID,
		"message":            "Quiz generated successfully",
		"questionsGenerated": len(drafts),
	})
}

type manualQuizRequest struct {
	Title      string                `json:"title" validate:"required"`
	Topic      string                `json:"topic" validate:"required"`
	Difficulty string                `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Questions  []model.QuestionDraft `json:"questions" validate:"required,min=1"`
}

// validateManualQuestion checks one author-supplied question. Unlike the AI
// path there is no repair: a defect rejects the whole request before anything
// is written.
func validateManualQuestion(q model.QuestionDraft) error {
	if q.Text == "" {
		return errors.New("question text is required")
	}
	if len(q.Options) != 4 {
		return fmt.Errorf("expected 4 options, got %d", len(q.Options))
	}
	seen := make(map[string]bool, 4)
	for _, opt := range q.Options {
		if opt == "" {
			return errors.New("options must be non-empty")
		}
		if seen[opt] {
			return fmt.Errorf("duplicate option %q", opt)
		}
		seen[opt] = true
	}
	if !slices.Contains(q.Options, q.CorrectAnswer) {
		return errors.New("correct answer must match one of the options")
	}
	if q.Explanation == "" {
		return errors.New("explanation is required")
	}
	return nil
}

func (h *Handler) handleManualQuiz(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityFromContext(r.Context())

	var req manualQuizRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	for i, q := range req.Questions {
		if err := validateManualQuestion(q); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid question at index %d: %s", i, err))
			return
		}
	}

	quiz := model.Quiz{
		ID:         newQuizID(),
		Title:      req.Title,
		Topic:      req.Topic,
		Difficulty: model.Difficulty(req.Difficulty),
		OwnerID:    id.UserID,
	}
	if err := h.store.CreateQuizWithQuestions(quiz, req.Questions); err != nil {
		slog.Error("Failed to save manual quiz", "quiz_id", quiz.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save quiz")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"quizId":           quiz.ID,
		"message":          "Quiz created successfully",
		"questionsCreated": len(req.Questions),
	})
}

func (h *Handler) handleUploadQuiz(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	difficulty := r.FormValue("difficulty")
	if !model.IsValidDifficulty(difficulty) {
		writeError(w, http.StatusBadRequest, "invalid difficulty")
		return
	}
	count, err := strconv.Atoi(r.FormValue("questionCount"))
	if err != nil || count < 1 || count > 20 {
		writeError(w, http.StatusBadRequest, "invalid question count")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	content := h.genai.ExtractText(r.Context(), data, mimeType)
	drafts := h.genai.GenerateFromContent(r.Context(), content, model.Difficulty(difficulty), count)

	quiz := model.Quiz{
		ID:         newQuizID(),
		Title:      title,
		Topic:      header.Filename,
		Difficulty: model.Difficulty(difficulty),
		OwnerID:    id.UserID,
	}
	if err := h.store.CreateQuizWithQuestions(quiz, drafts); err != nil {
		slog.Error("Failed to save uploaded quiz", "quiz_id", quiz.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save quiz")
		return
	}

	slog.Info("Quiz generated from upload", "quiz_id", quiz.ID, "file", header.Filename)
	writeJSON(w, http.StatusCreated, map[string]any{
		"quizId":  quiz.ID,
		"message": "Quiz generated from upload successfully",
	})
}

func (h *Handler) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityFromContext(r.Context())

	quizzes, err := h.store.ListQuizzesByOwner(id.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch quizzes")
		return
	}
	if quizzes == nil {
		quizzes = []model.QuizSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"quizzes": quizzes})
}

func (h *Handler) handleQuizDetails(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityFromContext(r.Context())
	quizID := chi.URLParam(r, "id")

	quiz, err := h.store.GetQuizOwned(quizID, id.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "quiz not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch quiz details")
		return
	}
	questions, err := h.store.GetQuizQuestions(quizID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch quiz details")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"quiz": map[string]any{
			"id":          quiz.ID,
			"title":       quiz.Title,
			"topic":       quiz.Topic,
			"difficulty":  quiz.Difficulty,
			"isPublic":    quiz.IsPublic,
			"createdAt":   quiz.CreatedAt,
			"publishedAt": quiz.PublishedAt,
			"questions":   questions,
		},
	})
}

func (h *Handler) handlePublishQuiz(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityFromContext(r.Context())
	quizID := chi.URLParam(r, "id")

	err := h.store.PublishQuiz(quizID, id.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "quiz not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to publish quiz")
		return
	}

	slog.Info("Quiz published", "quiz_id", quizID, "owner_id", id.UserID)
	writeJSON(w, http.StatusOK, map[string]any{
		"quizId":  quizID,
		"message": "Quiz published successfully",
	})
}

func (h *Handler) handleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityFromContext(r.Context())
	quizID := chi.URLParam(r, "id")

	err := h.store.DeleteQuiz(quizID, id.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "quiz not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete quiz")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Quiz deleted successfully"})
}

// publicQuestion is the quiz-taker view of a question. Correct answers and
// explanations never leave the server on this path.
type publicQuestion struct {
	ID       int64    `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

func publicQuizView(quiz model.Quiz, questions []model.Question) map[string]any {
	view := make([]publicQuestion, len(questions))
	for i, q := range questions {
		view[i] = publicQuestion{ID: q.ID, Question: q.Text, Options: q.Options}
	}
	return map[string]any{
		"id":         quiz.ID,
		"title":      quiz.Title,
		"topic":      quiz.Topic,
		"difficulty": quiz.Difficulty,
		"questions":  view,
	}
}

func (h *Handler) handlePublicQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "id")

	quiz, err := h.store.GetPublicQuiz(quizID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "quiz not found or not accessible")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch quiz")
		return
	}
	questions, err := h.store.GetQuizQuestions(quizID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch quiz")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"quiz": publicQuizView(quiz, questions)})
}

type submitQuizRequest struct {
	StudentInfo struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		StudentID string `json:"studentId"`
	} `json:"studentInfo"`
	Answers map[string]string `json:"answers"`
}

func (h *Handler) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "id")

	var req submitQuizRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.StudentInfo.Name == "" || req.StudentInfo.Email == "" {
		writeError(w, http.StatusBadRequest, "student name and email are required")
		return
	}

	// Answer keys on the wire are question ids; anything non-numeric means
	// the client submitted against the wrong quiz shape.
	answers := make(map[int64]string, len(req.Answers))
	for key, answer := range req.Answers {
		qid, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid question id %q", key))
			return
		}
		answers[qid] = answer
	}

	quiz, err := h.store.GetQuiz(quizID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "quiz not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to submit quiz")
		return
	}
	questions, err := h.store.GetQuizQuestions(quizID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to submit quiz")
		return
	}

	result, err := grader.Grade(questions, answers)
	if errors.Is(err, grader.ErrNoQuestions) {
		writeError(w, http.StatusBadRequest, "quiz has no questions")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to grade quiz")
		return
	}

	attempt := model.QuizAttempt{
		QuizID:         quiz.ID,
		StudentName:    req.StudentInfo.Name,
		StudentEmail:   req.StudentInfo.Email,
		StudentRef:     req.StudentInfo.StudentID,
		Answers:        answers,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		CorrectAnswers: result.CorrectAnswers,
	}
	results := make([]model.QuestionResult, len(result.Breakdown))
	for i, b := range result.Breakdown {
		results[i] = model.QuestionResult{
			QuestionID: b.QuestionID,
			Answer:     b.StudentAnswer,
			IsCorrect:  b.IsCorrect,
		}
	}

	attemptID, err := h.store.CreateAttempt(attempt, results)
	if err != nil {
		slog.Error("Failed to save attempt", "quiz_id", quiz.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to submit quiz")
		return
	}

	slog.Info("Quiz submitted", "quiz_id", quiz.ID, "attempt_id", attemptID, "score", result.Score)
	writeJSON(w, http.StatusOK, map[string]any{
		"submissionId":   attemptID,
		"score":          result.Score,
		"totalQuestions": result.TotalQuestions,
		"correctAnswers": result.CorrectAnswers,
		"results":        result.Breakdown,
		"message":        "Quiz submitted successfully",
	})
}

const demoQuizID = "quiz_demo"

func demoQuestions() []model.QuestionDraft {
	return []model.QuestionDraft{
		{
			Text:          "What is the correct way to declare a variable in JavaScript?",
			Options:       []string{"var x = 5;", "variable x = 5;", "v x = 5;", "declare x = 5;"},
			CorrectAnswer: "var x = 5;",
			Explanation:   "var is one of the keywords used to declare variables in JavaScript",
		},
		{
			Text:          "Which method is used to add an element to the end of an array?",
			Options:       []string{"push()", "pop()", "shift()", "unshift()"},
			CorrectAnswer: "push()",
			Explanation:   "The push() method adds one or more elements to the end of an array",
		},
		{
			Text:          "What does '===' operator do in JavaScript?",
			Options:       []string{"Assigns a value", "Compares values only", "Compares values and types", "Creates a variable"},
			CorrectAnswer: "Compares values and types",
			Explanation:   "The === operator performs strict equality comparison, checking both value and type",
		},
		{
			Text:          "How do you create a function in JavaScript?",
			Options:       []string{"function myFunction() {}", "create myFunction() {}", "def myFunction() {}", "func myFunction() {}"},
			CorrectAnswer: "function myFunction() {}",
			Explanation:   "Functions in JavaScript are declared using the 'function' keyword",
		},
		{
			Text:          "What is the correct way to write a JavaScript array?",
			Options:       []string{"var colors = 'red', 'green', 'blue'", "var colors = (1:'red', 2:'green', 3:'blue')", "var colors = ['red', 'green', 'blue']", "var colors = 1 = ('red'), 2 = ('green'), 3 = ('blue')"},
			CorrectAnswer: "var colors = ['red', 'green', 'blue']",
			Explanation:   "JavaScript arrays are written with square brackets and comma-separated values",
		},
	}
}

// handleDemoQuiz serves a fixed sample quiz, creating it on first request.
// The demo is public and answerable without an account.
func (h *Handler) handleDemoQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.store.GetQuiz(demoQuizID)
	if errors.Is(err, sql.ErrNoRows) {
		quiz = model.Quiz{
			ID:         demoQuizID,
			Title:      "JavaScript Fundamentals Demo",
			Topic:      "JavaScript",
			Difficulty: model.DifficultyMedium,
			OwnerID:    1,
			IsPublic:   true,
		}
		if err := h.store.CreateQuizWithQuestions(quiz, demoQuestions()); err != nil {
			slog.Error("Failed to seed demo quiz", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to fetch demo quiz")
			return
		}
		quiz, err = h.store.GetQuiz(demoQuizID)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch demo quiz")
		return
	}

	questions, err := h.store.GetQuizQuestions(demoQuizID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch demo quiz")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quiz": publicQuizView(quiz, questions)})
}

func (h *Handler) handleTeacherStats(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityFromContext(r.Context())

	stats, err := h.store.TeacherStats(id.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
