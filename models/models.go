package models

import (
	"errors"
	"time"
)

// ErrDocumentNotFound is returned when a document is not found
var ErrDocumentNotFound = errors.New("document not found")

// SpanKind classifies a highlighted legal element.
type SpanKind string

const (
	SpanKindClause  SpanKind = "clause"
	SpanKindDate    SpanKind = "date"
	SpanKindParty   SpanKind = "party"
	SpanKindPenalty SpanKind = "penalty"
)

// Span is a character-offset-anchored region of document text tagged with a
// semantic kind. Offsets index into Document.RawText; Start is inclusive,
// End exclusive. Spans are immutable once a document is loaded.
type Span struct {
	ID      string   `json:"id"`
	Kind    SpanKind `json:"kind"`
	Text    string   `json:"text"`
	Start   int      `json:"start"`
	End     int      `json:"end"`
	Tooltip string   `json:"tooltip"`
}

// Document pairs raw text with its annotation spans. Kind records the source
// file type (txt, pdf, docx, html) or "sample" for catalog entries.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Kind      string    `json:"kind"`
	RawText   string    `json:"raw_text"`
	Spans     []Span    `json:"spans,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation log. RelatedSpanID is a non-owning
// back-reference to the annotation that prompted the question, if any.
type Message struct {
	ID            string    `json:"id"`
	Role          Role      `json:"role"`
	Content       string    `json:"content"`
	Timestamp     time.Time `json:"timestamp"`
	RelatedSpanID string    `json:"related_span_id,omitempty"`
}

// Language describes a selectable target language.
type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
}

// DefaultLanguage is the source language of documents; translating into it
// is an identity operation.
const DefaultLanguage = "en"

var SupportedLanguages = []Language{
	{Code: "en", Name: "English", NativeName: "English"},
	{Code: "es", Name: "Spanish", NativeName: "Español"},
	{Code: "fr", Name: "French", NativeName: "Français"},
	{Code: "de", Name: "German", NativeName: "Deutsch"},
	{Code: "it", Name: "Italian", NativeName: "Italiano"},
	{Code: "pt", Name: "Portuguese", NativeName: "Português"},
	{Code: "zh", Name: "Chinese", NativeName: "中文"},
	{Code: "ja", Name: "Japanese", NativeName: "日本語"},
	{Code: "ko", Name: "Korean", NativeName: "한국어"},
	{Code: "ar", Name: "Arabic", NativeName: "العربية"},
	{Code: "hi", Name: "Hindi", NativeName: "हिन्दी"},
	{Code: "ru", Name: "Russian", NativeName: "Русский"},
}

// LanguageByCode looks up a supported language by its ISO code.
func LanguageByCode(code string) (Language, bool) {
	for _, l := range SupportedLanguages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// Preferences are per-user UI preferences mirrored server-side.
type Preferences struct {
	Language string `json:"language"`
	Theme    string `json:"theme"`
}

// DefaultPreferences returns the values used before a user saves anything.
func DefaultPreferences() Preferences {
	return Preferences{Language: DefaultLanguage, Theme: "system"}
}

// ChecklistItem is one action item of a generated legal checklist.
type ChecklistItem struct {
	Title   string `json:"title"`
	Detail  string `json:"detail"`
	Urgency string `json:"urgency"` // done, soon, warning, info
}

// VisualStep is one step of a generated responsibility flow.
type VisualStep struct {
	Order  int    `json:"order"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}
