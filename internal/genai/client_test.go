package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/pavelanni/quizforge/internal/model"
)

// newTestClient points a client at a stub generateContent endpoint.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"})
}

// candidateResponse wraps text in the endpoint's candidate envelope.
func candidateResponse(text string) string {
	payload := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

const validQuestionArray = `[
  {"question": "What is a ring?", "options": ["A set", "A group", "An algebraic structure", "A number"], "correctAnswer": "An algebraic structure", "explanation": "Rings have two operations."},
  {"question": "What is a field?", "options": ["A ring", "A ring with division", "A set", "A vector"], "correctAnswer": "A ring with division", "explanation": "Every nonzero element is invertible."}
]`

func TestGenerateQuestionsParsesValidResponse(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if key := r.URL.Query().Get("key"); key != "test-key" {
			t.Errorf("expected api key in query, got %q", key)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.GenerationConfig.Temperature != 0.7 || req.GenerationConfig.TopK != 40 {
			t.Errorf("unexpected generation config: %+v", req.GenerationConfig)
		}
		prompt := req.Contents[0].Parts[0].Text
		if !strings.Contains(prompt, "Algebra") || !strings.Contains(prompt, "exactly 2") {
			t.Errorf("prompt missing topic or count: %q", prompt)
		}
		fmt.Fprint(w, candidateResponse(validQuestionArray))
	})

	drafts := client.GenerateQuestions(context.Background(), "Algebra", model.DifficultyMedium, 2)
	if gotPath != "/models/test-model:generateContent" {
		t.Errorf("unexpected request path %q", gotPath)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
	if drafts[0].CorrectAnswer != "An algebraic structure" {
		t.Errorf("unexpected correct answer %q", drafts[0].CorrectAnswer)
	}
}

func TestGenerateQuestionsStripsCodeFences(t *testing.T) {
	fenced := "```json\n" + validQuestionArray + "\n```"
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateResponse(fenced))
	})

	drafts := client.GenerateQuestions(context.Background(), "Algebra", model.DifficultyEasy, 2)
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts from fenced response, got %d", len(drafts))
	}
	if drafts[1].Text != "What is a field?" {
		t.Errorf("unexpected draft text %q", drafts[1].Text)
	}
}

func TestGenerateQuestionsFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http 500", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "internal", http.StatusInternalServerError)
		}},
		{"empty candidates", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"candidates": []}`)
		}},
		{"missing content parts", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"candidates": [{"content": {}}]}`)
		}},
		{"unparsable body", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "not json at all")
		}},
		{"candidate text not a question array", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, candidateResponse("Sure! Here are your questions: ..."))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			drafts := client.GenerateQuestions(context.Background(), "Algebra", model.DifficultyMedium, 5)
			if len(drafts) != 5 {
				t.Fatalf("fallback must yield exactly 5 drafts, got %d", len(drafts))
			}
			for i, d := range drafts {
				if !strings.Contains(d.Text, "Algebra") {
					t.Errorf("fallback draft %d does not mention topic: %q", i, d.Text)
				}
				if len(d.Options) != 4 {
					t.Errorf("fallback draft %d has %d options", i, len(d.Options))
				}
				if !slices.Contains(d.Options, d.CorrectAnswer) {
					t.Errorf("fallback draft %d correct answer not among options", i)
				}
			}
		})
	}
}

func TestGenerateQuestionsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	client := New(Config{BaseURL: srv.URL, APIKey: "k", Model: "m"})

	drafts := client.GenerateQuestions(context.Background(), "History", model.DifficultyHard, 3)
	if len(drafts) != 3 {
		t.Fatalf("expected 3 fallback drafts, got %d", len(drafts))
	}
}

func TestExtractTextPlain(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("plain text extraction must not call the endpoint")
	})
	got := client.ExtractText(context.Background(), []byte("hello notes"), "text/plain")
	if got != "hello notes" {
		t.Errorf("expected direct decode, got %q", got)
	}
}

func TestExtractTextInlineDocument(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		parts := req.Contents[0].Parts
		if len(parts) != 2 || parts[1].InlineData == nil {
			t.Fatalf("expected prompt part plus inline data, got %+v", parts)
		}
		if parts[1].InlineData.MimeType != "application/pdf" {
			t.Errorf("unexpected mime type %q", parts[1].InlineData.MimeType)
		}
		if parts[1].InlineData.Data == "" {
			t.Error("expected base64 document bytes")
		}
		if req.GenerationConfig.MaxOutputTokens != 4096 {
			t.Errorf("unexpected extraction config: %+v", req.GenerationConfig)
		}
		fmt.Fprint(w, candidateResponse("Chapter 1: Extracted text."))
	})

	got := client.ExtractText(context.Background(), []byte("%PDF-1.4 ..."), "application/pdf")
	if got != "Chapter 1: Extracted text." {
		t.Errorf("unexpected extraction result %q", got)
	}
}

func TestExtractTextFallsBack(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})
	got := client.ExtractText(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg")
	if got != FallbackExtractedText("image/jpeg") {
		t.Errorf("expected image placeholder, got %q", got)
	}
}

func TestSummarize(t *testing.T) {
	analysis := model.Analysis{
		Summary:   "A study of mitochondria.",
		KeyPoints: []string{"Powerhouse of the cell"},
		Insights:  []string{"Energy metabolism underpins biology"},
	}
	raw, _ := json.Marshal(analysis)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateResponse("```json\n"+string(raw)+"\n```"))
	})

	got := client.Summarize(context.Background(), "long extracted text", "Cell Biology")
	if got.Summary != analysis.Summary {
		t.Errorf("unexpected summary %q", got.Summary)
	}
	if len(got.KeyPoints) != 1 || len(got.Insights) != 1 {
		t.Errorf("unexpected analysis %+v", got)
	}
}

func TestSummarizeFallsBack(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateResponse("I could not analyze that."))
	})

	got := client.Summarize(context.Background(), "text", "Physics Notes")
	want := FallbackAnalysis("Physics Notes")
	if got.Summary != want.Summary {
		t.Errorf("expected fallback summary, got %q", got.Summary)
	}
	if len(got.KeyPoints) != len(want.KeyPoints) {
		t.Errorf("expected %d fallback key points, got %d", len(want.KeyPoints), len(got.KeyPoints))
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", `[1]`, `[1]`},
		{"json fence", "```json\n[1]\n```", `[1]`},
		{"bare fence", "```\n[1]\n```", `[1]`},
		{"surrounding whitespace", "  ```json\n[1]\n```  ", `[1]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFences(tt.in); got != tt.want {
				t.Errorf("stripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
