package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"setquiz/internal/app"
	"setquiz/internal/domain"
)

type Handler struct {
	bank *app.QuestionBank
}

// GET /questions?difficulty=1&limit=5
func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	difficulty, err := strconv.Atoi(r.URL.Query().Get("difficulty"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad difficulty")
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, "bad limit")
			return
		}
	}
	questions, err := h.bank.Questions(r.Context(), difficulty, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

// GET /questions/{id}
func (h *Handler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad question id")
		return
	}
	q, err := h.bank.Question(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// POST /verify { "questionId": 1, "answer": "{1, 2}" }
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionID int    `json:"questionId"`
		Answer     string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	correct, err := h.bank.Verify(r.Context(), req.QuestionID, req.Answer)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"correct": correct})
}

// POST /hint { "questionId": 1, "text": "..." }
func (h *Handler) Hint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionID int    `json:"questionId"`
		Text       string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	reply, err := h.bank.Hint(r.Context(), req.QuestionID, req.Text)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// POST /explanation { "questionId": 1 }
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionID int `json:"questionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	text, err := h.bank.Explain(r.Context(), req.QuestionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"explanation": text})
}

// POST /questions/batch { "questions": [...] } (admin only)
func (h *Handler) AddQuestions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Questions []domain.NewQuestion `json:"questions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	stored, err := h.bank.AddQuestions(r.Context(), req.Questions)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"questions": stored})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQuestionNotFound), errors.Is(err, domain.ErrNoQuestions):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidQuestion), errors.Is(err, domain.ErrInvalidCount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrTutorUnavailable):
		log.Printf("tutor error: %v", err)
		writeError(w, http.StatusBadGateway, "tutor unavailable")
	default:
		log.Printf("api error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
