package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/civitas-ai/civitas/internal/prefs"
	"github.com/civitas-ai/civitas/internal/session"
	"github.com/civitas-ai/civitas/models"
	"github.com/civitas-ai/civitas/provider"
)

type TranslateHandler struct {
	Sessions session.Store
	LLM      provider.Provider
}

func (h *TranslateHandler) Register(g *echo.Group, secret []byte) {
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	g.POST("/:id/translate", h.translate)
}

func (h *TranslateHandler) translate(c echo.Context) error {
	userID := c.Get("user_id").(string)
	sess, ok := h.Sessions.Get(c.Param("id"))
	if !ok || sess.UserID() != userID {
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}

	var req TranslateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Language != "" {
		if _, ok := models.LanguageByCode(req.Language); !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unsupported language: "+req.Language)
		}
		sess.SetTargetLanguage(req.Language)
	}

	text, err := sess.Translate(c.Request().Context(), h.LLM)
	switch {
	case errors.Is(err, session.ErrTranslationInFlight):
		return echo.NewHTTPError(http.StatusConflict, "a translation is already in flight")
	case errors.Is(err, session.ErrStaleSession):
		return echo.NewHTTPError(http.StatusConflict, "document changed, translation discarded")
	case err != nil:
		log.Printf("translation error: %v", err)
		return echo.NewHTTPError(http.StatusBadGateway, "translation failed")
	}
	translationsTotal.Inc()
	return c.JSON(http.StatusOK, TranslateResponse{Language: sess.TargetLanguage(), Text: text})
}

type PrefsHandler struct {
	Prefs *prefs.Repository
}

func (h *PrefsHandler) Register(g *echo.Group, secret []byte) {
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	g.GET("", h.get)
	g.PUT("", h.put)
}

func (h *PrefsHandler) get(c echo.Context) error {
	userID := c.Get("user_id").(string)
	p, err := h.Prefs.Get(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PrefsHandler) put(c echo.Context) error {
	userID := c.Get("user_id").(string)
	var p models.Preferences
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if p.Language != "" {
		if _, ok := models.LanguageByCode(p.Language); !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unsupported language: "+p.Language)
		}
	} else {
		p.Language = models.DefaultLanguage
	}
	switch p.Theme {
	case "":
		p.Theme = "system"
	case "light", "dark", "system":
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "theme must be light, dark or system")
	}
	if err := h.Prefs.Set(c.Request().Context(), userID, p); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}
