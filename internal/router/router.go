package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"vpnshop/internal/middleware"
)

// Setup configures all routes for the Echo server. webhookHandler is nil
// when the bot runs in long-polling mode; the webhook route is then
// simply not mounted.
func Setup(e *echo.Echo, logger *zap.Logger, deduper *middleware.Deduper, webhookHandler http.Handler) {
	e.Use(echomw.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if webhookHandler != nil {
		webhookGroup := e.Group("/bot")
		webhookGroup.Use(middleware.TelegramIPCheck())
		webhookGroup.Use(middleware.TelegramUpdateDedup(deduper))
		webhookGroup.POST("/webhook", echo.WrapHandler(webhookHandler))
	} else {
		logger.Info("Telegram webhook route disabled (bot update mode is polling)")
	}
}
