package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/civitas-ai/civitas/config"
	"github.com/civitas-ai/civitas/internal/extract"
	"github.com/civitas-ai/civitas/internal/prefs"
	"github.com/civitas-ai/civitas/internal/runtime"
	"github.com/civitas-ai/civitas/internal/session/inmemory"
	"github.com/civitas-ai/civitas/internal/store"
	"github.com/civitas-ai/civitas/provider"
)

func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	_ = Migrate("file://migrations", cfg.Storage.Postgres.DSN(), "up", 0)

	// Initialize shared dependencies (top-level DI)
	ctx := context.Background()
	st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return err
	}

	if err := extract.SetLicenseKey(cfg.Upload.UnidocLicenseKey); err != nil {
		log.Printf("unidoc license: %v (PDF uploads will fail)", err)
	}

	llm, err := provider.NewProvider(provider.Client(cfg.LLM.Provider), provider.Options{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		CompletionModel: cfg.LLM.CompletionModel,
		Temperature:     cfg.LLM.Temperature,
		MaxTokens:       cfg.LLM.MaxTokens,
		Timeout:         cfg.LLM.Timeout,
	})
	if err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port),
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, err)
	}

	sessions := inmemory.NewStore(cfg.Session.TTL, cfg.Session.TranslateFanout)
	sessions.StartJanitor(ctx, cfg.Session.SweepInterval)

	// init auth and routes
	secret, err := runtime.LoadJWTSecret(cfg)
	if err != nil {
		return err
	}
	auth, err := initAuth(ctx, st, secret)
	if err != nil {
		return err
	}
	if ttl, err := time.ParseDuration(cfg.Server.AuthTokenTTL); err == nil {
		auth.TokenTTL = ttl
	}

	api := e.Group("/api")
	auth.Register(api.Group("/auth"))

	me := api.Group("/me")
	me.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	me.GET("", func(c echo.Context) error {
		return c.JSON(200, MeResponse{UserID: c.Get("user_id").(string)})
	})

	dh := &DocumentsHandler{Store: st, Sessions: sessions, MaxUploadBytes: cfg.Upload.MaxBytes}
	dh.Register(api.Group("/documents"), secret)

	ch := &ChatHandler{Sessions: sessions, LLM: llm}
	ch.Register(api.Group("/documents"), secret)

	th := &TranslateHandler{Sessions: sessions, LLM: llm}
	th.Register(api.Group("/documents"), secret)

	ah := &AnalysisHandler{Sessions: sessions, LLM: llm}
	ah.Register(api.Group("/documents"), secret)

	ph := &PrefsHandler{Prefs: prefs.NewRepository(rdb)}
	ph.Register(api.Group("/prefs"), secret)

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":10002"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
