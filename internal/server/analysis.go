package server

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/civitas-ai/civitas/internal/session"
	"github.com/civitas-ai/civitas/provider"
)

type AnalysisHandler struct {
	Sessions session.Store
	LLM      provider.Provider
}

func (h *AnalysisHandler) Register(g *echo.Group, secret []byte) {
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	g.GET("/:id/analysis/:kind", h.analyze)
}

func (h *AnalysisHandler) analyze(c echo.Context) error {
	userID := c.Get("user_id").(string)
	sess, ok := h.Sessions.Get(c.Param("id"))
	if !ok || sess.UserID() != userID {
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}
	docText := sess.Document().RawText
	kind := c.Param("kind")

	generationCallsTotal.WithLabelValues(kind).Inc()
	switch kind {
	case "summary":
		summary, err := h.LLM.Summarize(c.Request().Context(), docText)
		if err != nil {
			return h.failure(kind, err)
		}
		return c.JSON(http.StatusOK, SummaryResponse{Summary: summary})
	case "checklist":
		items, err := h.LLM.Checklist(c.Request().Context(), docText)
		if err != nil {
			return h.failure(kind, err)
		}
		return c.JSON(http.StatusOK, ChecklistResponse{Items: items})
	case "visual":
		steps, err := h.LLM.VisualSummary(c.Request().Context(), docText)
		if err != nil {
			return h.failure(kind, err)
		}
		return c.JSON(http.StatusOK, VisualSummaryResponse{Steps: steps})
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown analysis kind: "+kind)
	}
}

func (h *AnalysisHandler) failure(kind string, err error) error {
	generationFailuresTotal.WithLabelValues(kind).Inc()
	log.Printf("analysis %s error: %v", kind, err)
	return echo.NewHTTPError(http.StatusBadGateway, "generation failed")
}
