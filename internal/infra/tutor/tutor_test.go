package tutor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"setquiz/internal/domain"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestTutorHintPrompt(t *testing.T) {
	requests := make(chan chatRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		requests <- req
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":" Which elements are in both sets? "}}]}`))
	}))
	defer srv.Close()

	tutor := New("test-key", "", srv.URL)
	reply, err := tutor.Hint(context.Background(), sampleQuestion(), "I am stuck")
	if err != nil {
		t.Fatalf("hint: %v", err)
	}
	if reply != "Which elements are in both sets?" {
		t.Fatalf("unexpected reply %q", reply)
	}
	got := <-requests
	if got.Model == "" || len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("unexpected request %+v", got)
	}
	user := got.Messages[1].Content
	for _, want := range []string{"A ∩ B", "I am stuck", "Never state the correct answer", "{3}"} {
		if !strings.Contains(user, want) {
			t.Fatalf("expected prompt to contain %q, got %q", want, user)
		}
	}
}

func TestTutorEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	tutor := New("test-key", "gpt-4o", srv.URL)
	if _, err := tutor.Explain(context.Background(), sampleQuestion()); err == nil {
		t.Fatalf("expected error for empty completion")
	}
}

func sampleQuestion() domain.BankQuestion {
	return domain.BankQuestion{
		Question: domain.Question{
			ID:      2,
			Prompt:  "A = {1, 2, 3} and B = {3, 4, 5}. What is A ∩ B?",
			Choices: []string{"{3}", "{}", "{1, 2, 3, 4, 5}"},
		},
		Answer:     "{3}",
		Difficulty: 1,
	}
}
