package model

// QuizExport is the top-level JSON structure for quiz result export.
type QuizExport struct {
	Quiz      Quiz            `json:"quiz"`
	Questions []Question      `json:"questions"`
	Attempts  []AttemptExport `json:"attempts"`
}

// AttemptExport pairs one attempt with its per-question audit trail.
type AttemptExport struct {
	Attempt QuizAttempt      `json:"attempt"`
	Results []QuestionResult `json:"results"`
}
