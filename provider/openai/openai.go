package openai_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/civitas-ai/civitas/models"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

const explainSystemPrompt = `You are Civitas AI, a legal assistant that explains legal documents in plain language.
Provide clear, concise explanations. Use analogies when helpful. Be conversational but professional.
Answer only based on the document content you are given.`

// client implements the Provider interface using OpenAI's API
type client struct {
	apiKey          string
	apiURL          string
	completionModel string
	temperature     float64
	maxTokens       int
	httpClient      *http.Client
}

// Message represents a message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// request represents a request to the OpenAI API
type request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// response represents a response from the OpenAI API
type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(apiKey, baseURL, completionModel string, temperature float64, maxTokens int, timeout time.Duration) *client {
	apiURL := defaultAPIURL
	if baseURL != "" {
		apiURL = strings.TrimRight(baseURL, "/") + "/chat/completions"
	}
	return &client{
		apiKey:          apiKey,
		apiURL:          apiURL,
		completionModel: completionModel,
		temperature:     temperature,
		maxTokens:       maxTokens,
		httpClient:      &http.Client{Timeout: timeout},
	}
}

// Explain answers a question about the given document text in plain language.
func (c *client) Explain(ctx context.Context, docText, question string) (string, error) {
	userPrompt := fmt.Sprintf(`DOCUMENT:
%s

QUESTION: %s`, docText, question)

	messages := []Message{
		{Role: "system", Content: explainSystemPrompt},
		{Role: "user", Content: userPrompt},
	}
	return c.sendRequest(ctx, messages)
}

// Translate translates one paragraph into the target language.
func (c *client) Translate(ctx context.Context, text, languageCode string) (string, error) {
	systemPrompt := fmt.Sprintf(`You are a professional legal translator. Translate the user's text into the language with ISO code %q.
Preserve the meaning, tone and formatting. Respond ONLY with the translated text, no commentary.`, languageCode)

	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: text},
	}
	return c.sendRequest(ctx, messages)
}

// Summarize produces a plain-language summary of the document.
func (c *client) Summarize(ctx context.Context, docText string) (string, error) {
	prompt := fmt.Sprintf(`Summarize the following legal document in plain language for a non-lawyer.
Highlight the parties, key dates, money amounts and penalties. Respond with a short paragraph only.

DOCUMENT:
%s`, docText)

	messages := []Message{
		{Role: "system", Content: explainSystemPrompt},
		{Role: "user", Content: prompt},
	}
	return c.sendRequest(ctx, messages)
}

// Checklist produces actionable items extracted from the document.
func (c *client) Checklist(ctx context.Context, docText string) ([]models.ChecklistItem, error) {
	systemPrompt := `You are Civitas AI, a legal assistant. Extract a short action checklist from the document.

RESPONSE FORMAT:
Respond ONLY with valid JSON in the following format:
{
  "items": [
    {"title": "short action", "detail": "one sentence of context", "urgency": "done|soon|warning|info"}
  ]
}
Do not include any other text or explanation.`

	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("DOCUMENT:\n%s", docText)},
	}
	responseStr, err := c.sendRequest(ctx, messages)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Items []models.ChecklistItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(responseStr), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse checklist: %w", err)
	}
	return resp.Items, nil
}

// VisualSummary produces an ordered responsibility flow for the document.
func (c *client) VisualSummary(ctx context.Context, docText string) ([]models.VisualStep, error) {
	systemPrompt := `You are Civitas AI, a legal assistant. Break the document's obligations into an ordered flow of steps.

RESPONSE FORMAT:
Respond ONLY with valid JSON in the following format:
{
  "steps": [
    {"order": 1, "title": "short step name", "detail": "one sentence of context"}
  ]
}
Do not include any other text or explanation.`

	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("DOCUMENT:\n%s", docText)},
	}
	responseStr, err := c.sendRequest(ctx, messages)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Steps []models.VisualStep `json:"steps"`
	}
	if err := json.Unmarshal([]byte(responseStr), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse visual summary: %w", err)
	}
	return resp.Steps, nil
}

// sendRequest sends a request to the OpenAI API
func (c *client) sendRequest(ctx context.Context, messages []Message) (string, error) {
	requestBody := request{
		Model:       c.completionModel,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	var openaiResp response
	if err := json.NewDecoder(resp.Body).Decode(&openaiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(openaiResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return openaiResp.Choices[0].Message.Content, nil
}
