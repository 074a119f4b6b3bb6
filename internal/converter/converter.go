package converter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/young1lin/learnflow/internal/models"
)

// SystemPrompt frames the model as a tutor that only answers in JSON
const SystemPrompt = "You are an expert tutor. Respond only with valid JSON matching the schema."

// ErrEmptyContent is returned when the assistant message has no text
var ErrEmptyContent = errors.New("assistant message is empty")

// ErrNoChoices is returned when the completion carries no choices
var ErrNoChoices = errors.New("completion has no choices")

const promptTemplate = `
Create a learning package about: %s

JSON Schema:
{
  "explanation": "string - clear explanation with examples",
  "examples": ["string", "string"],
  "videos": [{"title": "string", "url": "string (must include https://)"}],
  "quiz": [
    {
      "question": "string",
      "options": ["string", "string", "string"],
      "correctAnswer": "string"
    }
  ]
}

Rules:
- Return only valid JSON, no extra text.
- Ensure all URLs include https://
- correctAnswer must be exactly one of the options.
`

// BuildPrompt renders the user prompt for a study query
func BuildPrompt(query string) string {
	return fmt.Sprintf(promptTemplate, query)
}

// BuildChatRequest converts a study query into a Chat Completions request
// that asks for a JSON object response
func BuildChatRequest(query, model string) *models.ChatCompletionRequest {
	return &models.ChatCompletionRequest{
		Model: model,
		Messages: []models.ChatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: BuildPrompt(query)},
		},
		ResponseFormat: &models.ResponseFormat{Type: "json_object"},
	}
}

// ExtractContent returns the text of the first choice
func ExtractContent(resp *models.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyContent
	}
	return stripCodeFence(content), nil
}

// ParseContent decodes the assistant text into a generation response
func ParseContent(content string) (*models.GenerateResponse, error) {
	var out models.GenerateResponse
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}
	if out.Examples == nil {
		out.Examples = []string{}
	}
	if out.Videos == nil {
		out.Videos = []models.Video{}
	}
	if out.Quiz == nil {
		out.Quiz = []models.QuizItem{}
	}
	return &out, nil
}

// stripCodeFence removes a surrounding ```json ... ``` block some models add
// despite being asked for bare JSON
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the info string, e.g. "json"
	} else {
		return strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
