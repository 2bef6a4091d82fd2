package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/civitas-ai/civitas/internal/session"
	"github.com/civitas-ai/civitas/internal/session/inmemory"
	"github.com/civitas-ai/civitas/internal/store"
	"github.com/civitas-ai/civitas/models"
)

func newDocsHandler(t *testing.T) (*DocumentsHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &DocumentsHandler{
		Store:          &store.Store{DB: db},
		Sessions:       inmemory.NewStore(time.Hour, 0),
		MaxUploadBytes: 1 << 20,
	}, mock
}

func TestUploadTxtCreatesDocumentAndSession(t *testing.T) {
	e := echo.New()
	handler, mock := newDocsHandler(t)

	mock.ExpectQuery(`INSERT INTO documents`).
		WithArgs("user-1", "notes.txt", "txt", "Plain agreement text.").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("doc-abc"))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write([]byte("Plain agreement text.")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-1")

	if err := handler.upload(ctx); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	var resp DocumentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "doc-abc" || resp.Title != "notes.txt" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(resp.Segments) != 1 || resp.Segments[0].Text != "Plain agreement text." {
		t.Fatalf("unexpected segments: %+v", resp.Segments)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].Content != session.WelcomeMessage {
		t.Fatalf("welcome message missing: %+v", resp.Messages)
	}
	if _, ok := handler.Sessions.Get("doc-abc"); !ok {
		t.Fatalf("session not created under the document id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUploadUnsupportedType(t *testing.T) {
	e := echo.New()
	handler, _ := newDocsHandler(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "binary.exe")
	_, _ = fw.Write([]byte{0x4d, 0x5a})
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-1")

	err := handler.upload(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 error, got %#v", err)
	}
}

func TestOpenSampleRendersAnnotations(t *testing.T) {
	e := echo.New()
	handler, _ := newDocsHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/samples/doc1", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-1")
	ctx.SetParamNames("id")
	ctx.SetParamValues("doc1")

	if err := handler.openSample(ctx); err != nil {
		t.Fatalf("openSample: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	var resp DocumentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Spans) == 0 || len(resp.SuggestedQuestions) == 0 {
		t.Fatalf("sample should carry spans and suggested questions: %+v", resp)
	}
	// segment stream reproduces the document exactly
	var joined strings.Builder
	highlighted := 0
	for _, seg := range resp.Segments {
		joined.WriteString(seg.Text)
		if seg.SpanID != "" {
			highlighted++
		}
	}
	sess, ok := handler.Sessions.Get(resp.ID)
	if !ok {
		t.Fatalf("session missing")
	}
	if joined.String() != sess.Document().RawText {
		t.Fatalf("segments do not reproduce the document")
	}
	if highlighted != len(resp.Spans) {
		t.Fatalf("expected %d highlighted segments, got %d", len(resp.Spans), highlighted)
	}
}

func TestListDocumentsReturnsHistory(t *testing.T) {
	e := echo.New()
	handler, mock := newDocsHandler(t)
	created := time.Date(2025, 7, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, user_id, title, kind, created_at FROM documents`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "kind", "created_at"}).
			AddRow("doc-1", "user-1", "lease.pdf", "pdf", created))

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-1")

	if err := handler.list(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	var items []DocumentListItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].ID != "doc-1" || items[0].Kind != "pdf" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetDocumentReopensFromHistory(t *testing.T) {
	e := echo.New()
	handler, mock := newDocsHandler(t)
	created := time.Date(2025, 7, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, user_id, title, kind, raw_text, created_at FROM documents`).
		WithArgs("doc-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "kind", "raw_text", "created_at"}).
			AddRow("doc-1", "user-1", "lease.txt", "txt", "Reopened text.", created))

	req := httptest.NewRequest(http.MethodGet, "/api/documents/doc-1", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-1")
	ctx.SetParamNames("id")
	ctx.SetParamValues("doc-1")

	if err := handler.get(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}
	var resp DocumentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "doc-1" || resp.Segments[0].Text != "Reopened text." {
		t.Fatalf("unexpected response: %+v", resp)
	}
	// conversation restarts fresh on reopen
	if len(resp.Messages) != 1 {
		t.Fatalf("expected fresh conversation, got %+v", resp.Messages)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteDocumentNotFound(t *testing.T) {
	e := echo.New()
	handler, mock := newDocsHandler(t)

	mock.ExpectExec(`DELETE FROM documents`).
		WithArgs("missing", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/missing", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-1")
	ctx.SetParamNames("id")
	ctx.SetParamValues("missing")

	err := handler.delete(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 error, got %#v", err)
	}
}

func TestDeleteSampleSessionWithoutHistoryRow(t *testing.T) {
	e := echo.New()
	handler, mock := newDocsHandler(t)

	sess, err := handler.Sessions.Create("", "user-1", models.Document{Title: "Sample", RawText: "text"}, nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	mock.ExpectExec(`DELETE FROM documents`).
		WithArgs(sess.ID(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/"+sess.ID(), nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-1")
	ctx.SetParamNames("id")
	ctx.SetParamValues(sess.ID())

	if err := handler.delete(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if _, ok := handler.Sessions.Get(sess.ID()); ok {
		t.Fatalf("session should be dropped")
	}
}
