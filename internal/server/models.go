package server

import (
	"time"

	"github.com/civitas-ai/civitas/internal/annotate"
	"github.com/civitas-ai/civitas/models"
)

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// AuthSignupRequest represents the signup payload.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLoginRequest represents the login payload.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// MeResponse returns the current authenticated user id.
type MeResponse struct {
	UserID string `json:"user_id"`
}

// SampleResponse lists one built-in sample document.
type SampleResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
}

// DocumentListItem is one row of the user's upload history.
type DocumentListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentResponse is the full view of an open document: the annotated
// segment stream plus the conversation so far.
type DocumentResponse struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Kind               string             `json:"kind"`
	Segments           []annotate.Segment `json:"segments"`
	Spans              []models.Span      `json:"spans"`
	Messages           []models.Message   `json:"messages"`
	SuggestedQuestions []string           `json:"suggested_questions,omitempty"`
	TargetLanguage     string             `json:"target_language"`
}

// ChatRequest carries one user message.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	Reply models.Message `json:"reply"`
}

// MessagesResponse is the full conversation log.
type MessagesResponse struct {
	Messages []models.Message `json:"messages"`
}

// TranslateRequest selects the target language for a document.
type TranslateRequest struct {
	Language string `json:"language"`
}

// TranslateResponse carries the translated document text.
type TranslateResponse struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// SummaryResponse carries a plain-language document summary.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// ChecklistResponse carries the extracted action items.
type ChecklistResponse struct {
	Items []models.ChecklistItem `json:"items"`
}

// VisualSummaryResponse carries the ordered responsibility flow.
type VisualSummaryResponse struct {
	Steps []models.VisualStep `json:"steps"`
}
