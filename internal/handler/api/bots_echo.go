package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	domrepo "Omnitrade/internal/domain/repository"
	"Omnitrade/internal/services/bots"
	xhttp "Omnitrade/pkg/http"
	"Omnitrade/pkg/http/middleware"
	xlogger "Omnitrade/pkg/logger"
)

// BotsEchoHandler serves the bot registry.
type BotsEchoHandler struct {
	logger   *xlogger.Logger
	registry *bots.Registry
	metrics  domrepo.Metrics
	limiter  middleware.Allower
}

func NewBotsEchoHandler(logger *xlogger.Logger, registry *bots.Registry, metrics domrepo.Metrics, limiter middleware.Allower) *BotsEchoHandler {
	return &BotsEchoHandler{logger: logger.With("api.bots"), registry: registry, metrics: metrics, limiter: limiter}
}

func (h *BotsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)

	g := e.Group("/api/bots")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	if h.limiter != nil {
		g.POST("/:id/initialize", h.Initialize, middleware.RateLimit(h.limiter))
	} else {
		g.POST("/:id/initialize", h.Initialize)
	}
}

// Root is the liveness banner clients probe before opening the stream.
func (h *BotsEchoHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "online", "system": "Omnitrade OS"})
}

func (h *BotsEchoHandler) List(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.registry.List())
}

func (h *BotsEchoHandler) Get(c echo.Context) error {
	bot, err := h.registry.FindByID(c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, bot)
}

// Initialize activates a bot. Activating an active bot succeeds unchanged.
func (h *BotsEchoHandler) Initialize(c echo.Context) error {
	id := c.Param("id")
	bot, err := h.registry.Activate(id)
	if err != nil {
		h.logger.Warn("initialize rejected", xlogger.String("bot_id", id), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.metrics.RecordActivation(bot.ID)
	h.logger.Info("bot initialized", xlogger.String("bot_id", bot.ID), xlogger.String("bot", bot.Name))
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "success", "bot": bot})
}
