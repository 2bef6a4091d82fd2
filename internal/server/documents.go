package server

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/civitas-ai/civitas/internal/annotate"
	"github.com/civitas-ai/civitas/internal/catalog"
	"github.com/civitas-ai/civitas/internal/extract"
	"github.com/civitas-ai/civitas/internal/session"
	"github.com/civitas-ai/civitas/internal/store"
	"github.com/civitas-ai/civitas/models"
)

type DocumentsHandler struct {
	Store          *store.Store
	Sessions       session.Store
	MaxUploadBytes int64
}

func (h *DocumentsHandler) Register(g *echo.Group, secret []byte) {
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	g.GET("", h.list)
	g.POST("", h.upload)
	g.GET("/samples", h.samples)
	g.POST("/samples/:id", h.openSample)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.delete)
}

func (h *DocumentsHandler) list(c echo.Context) error {
	userID := c.Get("user_id").(string)
	records, err := h.Store.ListDocuments(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	items := make([]DocumentListItem, 0, len(records))
	for _, r := range records {
		items = append(items, DocumentListItem{ID: r.ID, Title: r.Title, Kind: r.Kind, CreatedAt: r.CreatedAt})
	}
	return c.JSON(http.StatusOK, items)
}

func (h *DocumentsHandler) upload(c echo.Context) error {
	userID := c.Get("user_id").(string)
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file required")
	}
	if h.MaxUploadBytes > 0 && fh.Size > h.MaxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer f.Close()

	text, err := extract.FromReader(f, fh.Filename)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if text == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "no text could be extracted")
	}

	title := fh.Filename
	kind := strings.TrimPrefix(strings.ToLower(filepath.Ext(fh.Filename)), ".")

	id, err := h.Store.CreateDocument(c.Request().Context(), userID, title, kind, text)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	sess, err := h.Sessions.Create(id, userID, models.Document{
		ID:      id,
		Title:   title,
		Kind:    kind,
		RawText: text,
	}, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	uploadsTotal.Inc()
	return c.JSON(http.StatusCreated, documentView(sess))
}

func (h *DocumentsHandler) samples(c echo.Context) error {
	docs := catalog.Samples()
	items := make([]SampleResponse, 0, len(docs))
	for _, d := range docs {
		items = append(items, SampleResponse{ID: d.ID, Title: d.Title, Kind: d.Kind})
	}
	return c.JSON(http.StatusOK, items)
}

func (h *DocumentsHandler) openSample(c echo.Context) error {
	userID := c.Get("user_id").(string)
	doc, ok := catalog.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "sample not found")
	}
	// sample sessions get a fresh id so users never share state
	doc.ID = ""
	sess, err := h.Sessions.Create("", userID, doc, catalog.SpanQuestion)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, documentView(sess))
}

func (h *DocumentsHandler) get(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id := c.Param("id")

	if sess, ok := h.Sessions.Get(id); ok {
		if sess.UserID() != userID {
			return echo.NewHTTPError(http.StatusNotFound, "document not found")
		}
		return c.JSON(http.StatusOK, documentView(sess))
	}

	// no live session: reopen from history under the same id
	rec, err := h.Store.GetDocument(c.Request().Context(), id, userID)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "document not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	sess, err := h.Sessions.Create(rec.ID, userID, models.Document{
		ID:      rec.ID,
		Title:   rec.Title,
		Kind:    rec.Kind,
		RawText: rec.RawText,
	}, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, documentView(sess))
}

func (h *DocumentsHandler) delete(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id := c.Param("id")

	hadSession := false
	if sess, ok := h.Sessions.Get(id); ok {
		if sess.UserID() != userID {
			return echo.NewHTTPError(http.StatusNotFound, "document not found")
		}
		hadSession = true
		h.Sessions.Drop(id)
	}

	if err := h.Store.DeleteDocument(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			if hadSession {
				return c.NoContent(http.StatusNoContent)
			}
			return echo.NewHTTPError(http.StatusNotFound, "document not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// documentView renders the full client view of an open session: the
// annotated segment stream plus the conversation so far.
func documentView(sess *session.Session) DocumentResponse {
	doc := sess.Document()
	resp := DocumentResponse{
		ID:             sess.ID(),
		Title:          doc.Title,
		Kind:           doc.Kind,
		Segments:       annotate.Render(doc.RawText, doc.Spans),
		Spans:          doc.Spans,
		Messages:       sess.Messages(),
		TargetLanguage: sess.TargetLanguage(),
	}
	if len(doc.Spans) > 0 {
		resp.SuggestedQuestions = catalog.SuggestedQuestions
	}
	return resp
}
