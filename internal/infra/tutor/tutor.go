package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"setquiz/internal/domain"
)

const systemPrompt = "You are a patient set theory tutor for secondary school students. " +
	"Use plain language and standard set notation (∪, ∩, −, ⊆, ∅)."

var errEmptyCompletion = errors.New("empty completion")

// Tutor writes hints and explanations with an OpenAI chat model.
type Tutor struct {
	client *openai.Client
	model  string
}

// New creates a tutor. An empty model selects GPT-4o mini; an empty baseURL
// uses the public OpenAI endpoint.
func New(apiKey, model, baseURL string) *Tutor {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Tutor{client: openai.NewClientWithConfig(cfg), model: model}
}

// Hint answers a student's message about q without revealing the answer.
func (t *Tutor) Hint(ctx context.Context, q domain.BankQuestion, text string) (string, error) {
	return t.complete(ctx, buildHintPrompt(q, text))
}

// Explain writes a step-by-step solution for q.
func (t *Tutor) Explain(ctx context.Context, q domain.BankQuestion) (string, error) {
	return t.complete(ctx, buildExplanationPrompt(q))
}

func (t *Tutor) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errEmptyCompletion
	}
	return content, nil
}

func buildHintPrompt(q domain.BankQuestion, text string) string {
	var sb strings.Builder
	writeQuestion(&sb, q)
	sb.WriteString(fmt.Sprintf("The correct answer is %s.\n\n", q.Answer))
	sb.WriteString(fmt.Sprintf("The student asks: %s\n\n", text))
	sb.WriteString("Reply with a short hint that moves the student one step forward.\n")
	sb.WriteString("Never state the correct answer or say which choice is right.\n")
	return sb.String()
}

func buildExplanationPrompt(q domain.BankQuestion) string {
	var sb strings.Builder
	writeQuestion(&sb, q)
	sb.WriteString(fmt.Sprintf("The correct answer is %s.\n\n", q.Answer))
	sb.WriteString("The student answered this question incorrectly. ")
	sb.WriteString("Explain step by step how to reach the correct answer.\n")
	return sb.String()
}

func writeQuestion(sb *strings.Builder, q domain.BankQuestion) {
	sb.WriteString(fmt.Sprintf("Question: %s\n", q.Prompt))
	sb.WriteString("Choices:\n")
	for i, c := range q.Choices {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, c))
	}
	sb.WriteString("\n")
}
