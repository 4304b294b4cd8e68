// Package server assembles the HTTP surface: middleware, the v1 API,
// metrics and static photo serving.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/JaCARYK/beartracks/claims"
	"github.com/JaCARYK/beartracks/internal/metrics"
	"github.com/JaCARYK/beartracks/internal/profile"
	"github.com/JaCARYK/beartracks/matcher"
	"github.com/JaCARYK/beartracks/matcher/embedding"
	"github.com/JaCARYK/beartracks/plugin/notify"
	"github.com/JaCARYK/beartracks/server/router/apiv1"
	"github.com/JaCARYK/beartracks/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	apiService *apiv1.APIV1Service
}

func NewServer(ctx context.Context, instanceProfile *profile.Profile, storeInstance *store.Store) (*Server, error) {
	e := echo.New()
	e.Debug = instanceProfile.IsDev()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(30)))
	e.Use(requestLogger())

	embedder, err := embedding.NewService(embedding.Config{
		Provider:  instanceProfile.EmbeddingProvider,
		Model:     instanceProfile.EmbeddingModel,
		APIKey:    instanceProfile.EmbeddingAPIKey,
		BaseURL:   instanceProfile.EmbeddingBaseURL,
		Dimension: instanceProfile.EmbeddingDim,
		Timeout:   time.Duration(instanceProfile.ExtractTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embedding service")
	}

	exporter := metrics.New()
	ranker := matcher.NewRanker(storeInstance, matcher.WeightsFromProfile(instanceProfile), exporter)
	machine := claims.NewMachine(storeInstance, exporter, instanceProfile.HoldCodeLength)

	dispatcher, err := buildDispatcher(instanceProfile)
	if err != nil {
		return nil, err
	}

	apiService := apiv1.NewAPIV1Service(
		instanceProfile.Secret, instanceProfile, storeInstance,
		embedder, ranker, machine, dispatcher, exporter,
	)
	apiService.Register(e)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(exporter.Handler()))
	e.Static("/uploads", instanceProfile.UploadsDir())

	return &Server{
		Profile:    instanceProfile,
		Store:      storeInstance,
		echoServer: e,
		apiService: apiService,
	}, nil
}

// Start begins serving in a background goroutine so the caller can wait
// on signals.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", slog.String("error", err.Error()))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", slog.String("error", err.Error()))
	}
	slog.Info("server shutdown complete")
}

func buildDispatcher(instanceProfile *profile.Profile) (*notify.Dispatcher, error) {
	channels := []notify.Channel{}
	if instanceProfile.NotifyWebhookURL != "" {
		channels = append(channels, notify.NewWebhookChannel(instanceProfile.NotifyWebhookURL))
	}
	if instanceProfile.NotifyTelegramToken != "" && instanceProfile.NotifyTelegramChatID != 0 {
		telegram, err := notify.NewTelegramChannel(instanceProfile.NotifyTelegramToken, instanceProfile.NotifyTelegramChatID)
		if err != nil {
			// A bad bot token should not keep the service down.
			slog.Warn("failed to set up telegram channel", slog.String("error", err.Error()))
		} else {
			channels = append(channels, telegram)
		}
	}
	return notify.NewDispatcher(channels...), nil
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogMethod: true,
		LogStatus: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status))
			return nil
		},
	})
}
