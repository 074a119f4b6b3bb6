package models

// ==================== LearnFlow Domain Models ====================

// ResultBundle is the combined payload of one completed generation call
type ResultBundle struct {
	Explanation string     `json:"explanation"`
	Examples    string     `json:"examples"` // markdown, array form already joined
	Videos      []Video    `json:"videos"`
	Quiz        []QuizItem `json:"quiz"`
}

// Clone returns a deep copy so callers can render without holding session locks
func (b ResultBundle) Clone() ResultBundle {
	out := ResultBundle{
		Explanation: b.Explanation,
		Examples:    b.Examples,
		Videos:      append([]Video(nil), b.Videos...),
		Quiz:        make([]QuizItem, len(b.Quiz)),
	}
	for i, q := range b.Quiz {
		out.Quiz[i] = QuizItem{
			Question:      q.Question,
			Options:       append([]string(nil), q.Options...),
			CorrectAnswer: q.CorrectAnswer,
		}
	}
	return out
}

// Video represents one recommended video link
type Video struct {
	URL   string `json:"url" validate:"required"`
	Title string `json:"title" validate:"required"`
}

// QuizItem represents one multiple choice question
type QuizItem struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"min=2,dive,required"`
	CorrectAnswer string   `json:"correctAnswer" validate:"required"`
}

// HasOption reports whether option is one of the declared choices
func (q QuizItem) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// ==================== Generate API Models ====================

// GenerateRequest is the body of POST /api/v1/generate
type GenerateRequest struct {
	Query string `json:"query"`
}

// GenerateResponse is what the built-in generator returns.
// Examples is always an array here; clients must also accept a plain string.
type GenerateResponse struct {
	Explanation string     `json:"explanation" validate:"required"`
	Examples    []string   `json:"examples" validate:"dive,required"`
	Videos      []Video    `json:"videos" validate:"dive"`
	Quiz        []QuizItem `json:"quiz" validate:"dive"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Model     string `json:"model,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ==================== Chat Completions API Models ====================

// ChatCompletionRequest represents the Chat Completions API request
type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
}

// ResponseFormat asks the provider for a constrained output shape
type ResponseFormat struct {
	Type string `json:"type"` // "json_object"
}

// ChatMessage represents a message in Chat Completions
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatCompletionResponse represents the Chat Completions API response
type ChatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   ChatUsage    `json:"usage,omitempty"`
}

// ChatChoice represents a choice in the response
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatUsage represents token usage in Chat Completions
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
