package handler

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pavelanni/quizforge/internal/model"
)

func supportedNoteType(mimeType string) bool {
	return mimeType == "application/pdf" ||
		mimeType == "text/plain" ||
		strings.HasPrefix(mimeType, "image/")
}

func (h *Handler) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file or title")
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "missing file or title")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if !supportedNoteType(mimeType) {
		writeError(w, http.StatusBadRequest, "unsupported file type")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	content := h.genai.ExtractText(r.Context(), data, mimeType)
	analysis := h.genai.Summarize(r.Context(), content, title)

	note := model.Note{
		ID:         "note_" + uuid.NewString(),
		Title:      title,
		OwnerEmail: id.Email,
		FileName:   header.Filename,
		FileType:   mimeType,
		Content:    content,
		Summary:    analysis.Summary,
		KeyPoints:  analysis.KeyPoints,
		Insights:   analysis.Insights,
	}
	if err := h.store.CreateNote(note); err != nil {
		slog.Error("Failed to save note", "note_id", note.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create note")
		return
	}

	slog.Info("Note created", "note_id", note.ID, "file", header.Filename)
	writeJSON(w, http.StatusCreated, map[string]any{
		"noteId":  note.ID,
		"message": "Note created successfully",
	})
}

func (h *Handler) handleListNotes(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityFromContext(r.Context())

	notes, err := h.store.ListNotesByOwner(id.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch notes")
		return
	}
	if notes == nil {
		notes = []model.Note{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

func (h *Handler) handleGetNote(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityFromContext(r.Context())
	noteID := chi.URLParam(r, "id")

	note, err := h.store.GetNoteOwned(noteID, id.Email)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch note")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"note": note})
}

func (h *Handler) handleStudentStats(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityFromContext(r.Context())

	stats, err := h.store.StudentStats(id.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleQuizHistory(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityFromContext(r.Context())

	history, err := h.store.ListAttemptsByEmail(id.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch quiz history")
		return
	}
	if history == nil {
		history = []model.AttemptHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"attempts": history})
}
