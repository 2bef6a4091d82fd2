// Package session holds the transient, in-memory state of one active
// document view: the document and its spans, the append-only conversation
// log, and the translation state. Nothing here is persisted; a session dies
// with its TTL or when the document is replaced.
package session

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/civitas-ai/civitas/models"
	"github.com/civitas-ai/civitas/provider"
)

var (
	// ErrReplyInFlight is returned when a reply is requested while another
	// one is still pending. Concurrent sends are rejected, not queued.
	ErrReplyInFlight = errors.New("a reply is already in flight")

	// ErrTranslationInFlight is returned when a translation is requested
	// while one is already running for the same session.
	ErrTranslationInFlight = errors.New("a translation is already in flight")

	// ErrStaleSession is returned when a response arrives after the
	// session's document was replaced; the response is discarded.
	ErrStaleSession = errors.New("session document changed while request was in flight")
)

// WelcomeMessage seeds every new conversation.
const WelcomeMessage = "Hello! I'm Civitas AI, your legal assistant. I can help you understand this document in plain language. Ask me anything!"

// QuestionResolver maps an annotation id to a canned question. A resolver
// returning false makes the click a no-op.
type QuestionResolver func(spanID string) (string, bool)

// Store manages active sessions. Create with an empty id assigns a fresh
// UUID; passing an id lets a document reopen under its history id.
type Store interface {
	Create(id, userID string, doc models.Document, resolver QuestionResolver) (*Session, error)
	Get(id string) (*Session, bool)
	Drop(id string)
}

const (
	defaultTranslateFanout = 4
	contextParagraphs      = 3
	// below this size the whole document is cheaper than retrieval
	retrievalThreshold = 2000
)

// Session is the unit of ownership for one document + conversation +
// translation view. All exported methods are safe for concurrent use; no
// provider call is made while the internal lock is held.
type Session struct {
	id       string
	userID   string
	resolver QuestionResolver
	fanout   int

	mu          sync.Mutex
	doc         models.Document
	epoch       uint64
	paragraphs  []string
	index       bleve.Index
	messages    []models.Message
	replying    bool
	translating bool
	lang        string
	cachedLang  string
	cachedText  string
	expiresAt   time.Time
}

// New builds a session around doc. An empty doc ID gets a fresh UUID.
func New(id, userID string, doc models.Document, resolver QuestionResolver) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if doc.ID == "" {
		doc.ID = id
	}
	s := &Session{
		id:       id,
		userID:   userID,
		resolver: resolver,
		fanout:   defaultTranslateFanout,
		lang:     models.DefaultLanguage,
	}
	if err := s.resetLocked(doc); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) ID() string     { return s.id }
func (s *Session) UserID() string { return s.userID }

// Document returns a copy of the active document.
func (s *Session) Document() models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Expire pushes the session's expiry ttl into the future.
func (s *Session) Expire(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresAt = time.Now().Add(ttl)
}

// Expired reports whether the session has outlived its TTL.
func (s *Session) Expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.expiresAt.IsZero() && now.After(s.expiresAt)
}

// Close releases the paragraph index.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil {
		err := s.index.Close()
		s.index = nil
		return err
	}
	return nil
}

// SetTranslateFanout caps how many paragraph translations run concurrently.
// Values below one are ignored.
func (s *Session) SetTranslateFanout(n int) {
	if n < 1 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fanout = n
}

// SetDocument replaces the active document. The conversation restarts, the
// translation cache is dropped, and any in-flight provider response is
// invalidated: it will be discarded instead of appended to the new view.
func (s *Session) SetDocument(doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetLocked(doc)
}

func (s *Session) resetLocked(doc models.Document) error {
	if s.index != nil {
		_ = s.index.Close()
		s.index = nil
	}
	paragraphs := strings.Split(doc.RawText, "\n\n")
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return err
	}
	for i, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if err := index.Index(strconv.Itoa(i), struct {
			Text string `json:"text"`
		}{Text: p}); err != nil {
			_ = index.Close()
			return err
		}
	}
	s.doc = doc
	s.paragraphs = paragraphs
	s.index = index
	s.epoch++
	s.cachedLang, s.cachedText = "", ""
	s.messages = []models.Message{{
		ID:        uuid.NewString(),
		Role:      models.RoleAssistant,
		Content:   WelcomeMessage,
		Timestamp: time.Now(),
	}}
	return nil
}

// Messages returns a copy of the conversation log.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// AppendUserMessage appends a user message to the log. Text that is empty
// after trimming is a validation failure and is silently ignored (ok=false,
// log untouched).
func (s *Session) AppendUserMessage(text, relatedSpanID string) (models.Message, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return models.Message{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.appendUserLocked(trimmed, relatedSpanID)
	return msg, true
}

func (s *Session) appendUserLocked(content, relatedSpanID string) models.Message {
	msg := models.Message{
		ID:            uuid.NewString(),
		Role:          models.RoleUser,
		Content:       content,
		Timestamp:     time.Now(),
		RelatedSpanID: relatedSpanID,
	}
	s.messages = append(s.messages, msg)
	return msg
}

// Ask appends the user's question and requests an assistant reply from gen.
// Empty input is a silent no-op (nil, nil). Only one reply may be in flight
// per session; concurrent asks fail with ErrReplyInFlight. On provider
// failure the user message stays in the log and no assistant message is
// appended. A reply arriving after the document was replaced is discarded
// with ErrStaleSession.
func (s *Session) Ask(ctx context.Context, gen provider.Generator, text, relatedSpanID string) (*models.Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	s.mu.Lock()
	if s.replying {
		s.mu.Unlock()
		return nil, ErrReplyInFlight
	}
	s.replying = true
	epoch := s.epoch
	s.appendUserLocked(trimmed, relatedSpanID)
	docText := s.contextForLocked(trimmed)
	s.mu.Unlock()

	replyText, err := gen.Explain(ctx, docText, trimmed)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replying = false
	if s.epoch != epoch {
		return nil, ErrStaleSession
	}
	if err != nil {
		return nil, err
	}
	reply := models.Message{
		ID:            uuid.NewString(),
		Role:          models.RoleAssistant,
		Content:       replyText,
		Timestamp:     time.Now(),
		RelatedSpanID: relatedSpanID,
	}
	s.messages = append(s.messages, reply)
	return &reply, nil
}

// HandleAnnotationClick resolves spanID to its canned question and asks it.
// Unknown ids are a no-op (nil, nil).
func (s *Session) HandleAnnotationClick(ctx context.Context, gen provider.Generator, spanID string) (*models.Message, error) {
	if s.resolver == nil {
		return nil, nil
	}
	question, ok := s.resolver(spanID)
	if !ok {
		return nil, nil
	}
	return s.Ask(ctx, gen, question, spanID)
}

// contextForLocked picks the document text handed to the generator: the whole
// document for small ones, otherwise the best-matching paragraphs for the
// question with the full text as fallback.
func (s *Session) contextForLocked(question string) string {
	if len(s.doc.RawText) <= retrievalThreshold || s.index == nil {
		return s.doc.RawText
	}
	query := bleve.NewMatchQuery(question)
	req := bleve.NewSearchRequestOptions(query, contextParagraphs, 0, false)
	res, err := s.index.Search(req)
	if err != nil || len(res.Hits) == 0 {
		return s.doc.RawText
	}
	picked := make([]int, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if i, err := strconv.Atoi(hit.ID); err == nil && i >= 0 && i < len(s.paragraphs) {
			picked = append(picked, i)
		}
	}
	if len(picked) == 0 {
		return s.doc.RawText
	}
	// keep original document order regardless of score order
	for i := 1; i < len(picked); i++ {
		for j := i; j > 0 && picked[j] < picked[j-1]; j-- {
			picked[j], picked[j-1] = picked[j-1], picked[j]
		}
	}
	parts := make([]string, 0, len(picked))
	for _, i := range picked {
		parts = append(parts, s.paragraphs[i])
	}
	return strings.Join(parts, "\n\n")
}

// TargetLanguage returns the currently selected target language code.
func (s *Session) TargetLanguage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lang
}

// SetTargetLanguage selects the translation target. Changing the code drops
// the cached translation.
func (s *Session) SetTargetLanguage(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code == s.lang {
		return
	}
	s.lang = code
	s.cachedLang, s.cachedText = "", ""
}

// Translate returns the active document translated into the target language.
//
// The source language is returned as-is with zero provider calls. Otherwise
// the document is split into blank-line-delimited paragraphs, one translation
// request is dispatched per paragraph concurrently, and the results are
// joined back in document order once all complete. Any paragraph failure
// fails the whole operation so a document is never shown in mixed languages.
// The joined result is cached for the (document, language) pair; repeat calls
// are served from cache without provider calls.
func (s *Session) Translate(ctx context.Context, tr provider.Translator) (string, error) {
	s.mu.Lock()
	lang := s.lang
	if lang == "" || lang == models.DefaultLanguage {
		text := s.doc.RawText
		s.mu.Unlock()
		return text, nil
	}
	if s.cachedLang == lang && s.cachedText != "" {
		text := s.cachedText
		s.mu.Unlock()
		return text, nil
	}
	if s.translating {
		s.mu.Unlock()
		return "", ErrTranslationInFlight
	}
	s.translating = true
	epoch := s.epoch
	raw := s.doc.RawText
	fanout := s.fanout
	s.mu.Unlock()

	parts := strings.Split(raw, "\n\n")
	out := make([]string, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanout)
	for i, p := range parts {
		if strings.TrimSpace(p) == "" {
			out[i] = p
			continue
		}
		i, p := i, p
		g.Go(func() error {
			t, err := tr.Translate(gctx, p, lang)
			if err != nil {
				return err
			}
			out[i] = t
			return nil
		})
	}
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.translating = false
	if err != nil {
		return "", err
	}
	if s.epoch != epoch || s.lang != lang {
		return "", ErrStaleSession
	}
	joined := strings.Join(out, "\n\n")
	s.cachedLang, s.cachedText = lang, joined
	return joined, nil
}
