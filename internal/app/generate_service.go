package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"medlearn-service/internal/domain"
)

// PromptMessage is one turn in a completion prompt.
type PromptMessage struct {
	Role    string
	Content string
}

// TextCompleter is the generative text collaborator. The returned text
// carries no structural guarantee; callers parse and validate.
type TextCompleter interface {
	Complete(ctx context.Context, messages []PromptMessage) (string, error)
}

// GenerateService synthesizes step content and MCQs from the generative
// provider and merges the results into storage through the same paths
// manual uploads take. Retries live here, never in the engines.
type GenerateService struct {
	completer TextCompleter
	content   *ContentService
	quiz      *QuizService
	attempts  int
	delay     time.Duration
}

func NewGenerateService(completer TextCompleter, content *ContentService, quiz *QuizService, attempts int, delay time.Duration) *GenerateService {
	if attempts <= 0 {
		attempts = 3
	}
	return &GenerateService{
		completer: completer,
		content:   content,
		quiz:      quiz,
		attempts:  attempts,
		delay:     delay,
	}
}

// GenerateSteps asks the provider for a step sequence for the topic and
// appends it as a regular upload batch, returning the merged view.
func (s *GenerateService) GenerateSteps(ctx context.Context, topicID string) ([]domain.Step, error) {
	topic, err := s.content.GetTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	messages := stepPrompt(topic.Name)
	steps, err := generateValid(ctx, s, messages, func(text string) (json.RawMessage, error) {
		raw := json.RawMessage(extractJSON(text))
		if _, err := ParseSteps(raw); err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return s.content.UploadSteps(ctx, topicID, steps)
}

// GenerateMCQs asks the provider for a ten-question bank for the topic
// and stores it through the regular upload gate.
func (s *GenerateService) GenerateMCQs(ctx context.Context, topicID string) ([]domain.MCQ, error) {
	topic, err := s.content.GetTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	messages := mcqPrompt(topic.Name)
	inputs, err := generateValid(ctx, s, messages, func(text string) ([]MCQInput, error) {
		var parsed []MCQInput
		if err := json.Unmarshal([]byte(extractJSON(text)), &parsed); err != nil {
			return nil, fmt.Errorf("not a JSON mcq array: %w", err)
		}
		if len(parsed) != MCQsPerUpload {
			return nil, fmt.Errorf("expected %d mcqs, got %d", MCQsPerUpload, len(parsed))
		}
		for i, in := range parsed {
			if err := validateMCQ(in); err != nil {
				return nil, fmt.Errorf("mcq %d: %w", i, err)
			}
		}
		return parsed, nil
	})
	if err != nil {
		return nil, err
	}
	return s.quiz.UploadMCQs(ctx, topicID, inputs)
}

// generateValid calls the provider up to s.attempts times with a fixed
// delay between attempts, accepting the first completion the validator
// parses. Provider errors on the last attempt surface verbatim; a final
// parse failure surfaces as ErrUpstreamParse.
func generateValid[T any](ctx context.Context, s *GenerateService, messages []PromptMessage, parse func(string) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		text, err := s.completer.Complete(ctx, messages)
		if err != nil {
			lastErr = err
		} else {
			out, parseErr := parse(text)
			if parseErr == nil {
				return out, nil
			}
			lastErr = fmt.Errorf("%w: %v", domain.ErrUpstreamParse, parseErr)
		}
		if attempt < s.attempts {
			log.Printf("generation attempt %d/%d failed: %v", attempt, s.attempts, lastErr)
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}
	return zero, lastErr
}

// extractJSON strips markdown code fences the provider tends to wrap
// JSON in, returning the bare payload.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
	}
	return strings.TrimSpace(text)
}

func stepPrompt(topicName string) []PromptMessage {
	return []PromptMessage{
		{
			Role: "system",
			Content: "You write step-based learning content for medical students. " +
				"Respond with a JSON array only. Each element has a numeric \"step\" field " +
				"starting at 1 and a \"content\" object with \"title\" and \"body\" strings.",
		},
		{
			Role:    "user",
			Content: fmt.Sprintf("Write 5 to 8 learning steps for the topic %q.", topicName),
		},
	}
}

func mcqPrompt(topicName string) []PromptMessage {
	return []PromptMessage{
		{
			Role: "system",
			Content: "You write multiple-choice questions for medical students. " +
				"Respond with a JSON array of exactly 10 objects, each with \"question\", " +
				"\"options\" (keys A, B, C, D, E), \"correctAnswer\" (one of A-E), and \"explanation\".",
		},
		{
			Role:    "user",
			Content: fmt.Sprintf("Write 10 exam-style MCQs for the topic %q.", topicName),
		},
	}
}
