package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/civitas-ai/civitas/internal/session"
	"github.com/civitas-ai/civitas/models"
	"github.com/civitas-ai/civitas/provider"
)

type ChatHandler struct {
	Sessions session.Store
	LLM      provider.Provider
}

func (h *ChatHandler) Register(g *echo.Group, secret []byte) {
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	g.POST("/:id/chat", h.chat)
	g.POST("/:id/spans/:spanID/ask", h.askSpan)
	g.GET("/:id/messages", h.messages)
}

func (h *ChatHandler) session(c echo.Context) (*session.Session, error) {
	userID := c.Get("user_id").(string)
	sess, ok := h.Sessions.Get(c.Param("id"))
	if !ok || sess.UserID() != userID {
		return nil, echo.NewHTTPError(http.StatusNotFound, "document not found")
	}
	return sess, nil
}

func (h *ChatHandler) chat(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	reply, err := sess.Ask(c.Request().Context(), h.LLM, req.Message, "")
	return h.respond(c, reply, err, "chat")
}

func (h *ChatHandler) askSpan(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}

	reply, err := sess.HandleAnnotationClick(c.Request().Context(), h.LLM, c.Param("spanID"))
	return h.respond(c, reply, err, "chat")
}

func (h *ChatHandler) messages(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessagesResponse{Messages: sess.Messages()})
}

// respond maps session outcomes to HTTP codes: ignored input is 204,
// single-flight and staleness conflicts are 409, provider failures are 502.
func (h *ChatHandler) respond(c echo.Context, reply *models.Message, err error, kind string) error {
	// a generation call is counted only when the provider was actually
	// invoked: ignored input and single-flight rejections never reach it
	if reply != nil || (err != nil && !errors.Is(err, session.ErrReplyInFlight)) {
		generationCallsTotal.WithLabelValues(kind).Inc()
	}
	switch {
	case errors.Is(err, session.ErrReplyInFlight):
		return echo.NewHTTPError(http.StatusConflict, "a reply is already in flight")
	case errors.Is(err, session.ErrStaleSession):
		return echo.NewHTTPError(http.StatusConflict, "document changed, reply discarded")
	case err != nil:
		generationFailuresTotal.WithLabelValues(kind).Inc()
		log.Printf("generation error: %v", err)
		return echo.NewHTTPError(http.StatusBadGateway, "generation failed")
	case reply == nil:
		return c.NoContent(http.StatusNoContent)
	default:
		return c.JSON(http.StatusOK, ChatResponse{Reply: *reply})
	}
}
