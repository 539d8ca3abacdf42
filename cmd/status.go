package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cloud66-oss/ipbot/provider"
	"github.com/cloud66-oss/ipbot/utils"
	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/rs/zerolog/log"
)

type statusHandler struct {
	resolver provider.IPProvider
}

func newStatusServer(resolver provider.IPProvider) *echo.Echo {
	h := &statusHandler{resolver: resolver}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestID())
	e.Use(utils.ZeroLogger(log.Logger))
	e.GET("/_ping", ping)
	e.GET("/v1/ip", h.getIP)

	return e
}

func ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

func (h *statusHandler) getIP(c echo.Context) error {
	info, err := h.resolver.Lookup(c.Request().Context())
	if err != nil {
		if errors.Is(err, utils.ErrNoProviderAvailable) {
			return c.JSON(http.StatusServiceUnavailable, utils.ErrorResponse{
				Error: err.Error(),
			})
		}

		log.Error().Err(err).Msg("failed to look up public IP address")
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse{
			Error: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, info)
}

func startStatusServer(e *echo.Echo, address string) {
	log.Info().Str("address", address).Msg("starting status server")

	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start the status server")
		}
	}()
}

func stopStatusServer(e *echo.Echo, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to stop the status server")
	}
}
