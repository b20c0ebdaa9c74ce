package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"Omnitrade/internal/domain/models"
	domrepo "Omnitrade/internal/domain/repository"
	"Omnitrade/internal/usecase"
	xhttp "Omnitrade/pkg/http"
	"Omnitrade/pkg/http/middleware"
	xlogger "Omnitrade/pkg/logger"
)

// GovernanceEchoHandler exposes the latest governance frame, the risk metrics
// feeding it and a what-if evaluator.
type GovernanceEchoHandler struct {
	logger  *xlogger.Logger
	cycle   *usecase.GovernanceCycle
	store   domrepo.MetricsStore
	limiter middleware.Allower
}

func NewGovernanceEchoHandler(logger *xlogger.Logger, cycle *usecase.GovernanceCycle, store domrepo.MetricsStore, limiter middleware.Allower) *GovernanceEchoHandler {
	return &GovernanceEchoHandler{logger: logger.With("api.governance"), cycle: cycle, store: store, limiter: limiter}
}

func (h *GovernanceEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, middleware.RateLimit(h.limiter))
	}
	g := e.Group("/api")
	g.GET("/governance", h.Governance)
	g.GET("/metrics", h.Metrics)
	g.PUT("/metrics", h.UpdateMetrics, mw...)
	g.POST("/evaluate", h.Evaluate, mw...)
}

func (h *GovernanceEchoHandler) Healthz(c echo.Context) error {
	status := map[string]interface{}{"status": "ok"}
	if p := h.cycle.Latest(); p != nil {
		status["lastCycle"] = p.Timestamp
		status["mode"] = p.Mode
	}
	return c.JSON(http.StatusOK, status)
}

func (h *GovernanceEchoHandler) Governance(c echo.Context) error {
	p := h.cycle.Latest()
	if p == nil {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_NOT_READY", "", "no governance cycle has completed yet", http.StatusServiceUnavailable))
	}
	return xhttp.SuccessResponse(c, p)
}

func (h *GovernanceEchoHandler) Metrics(c echo.Context) error {
	m, err := h.store.Get(c.Request().Context())
	if err != nil {
		h.logger.Error("read risk metrics", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, m)
}

func (h *GovernanceEchoHandler) UpdateMetrics(c echo.Context) error {
	req := &models.RiskMetrics{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.store.Set(c.Request().Context(), *req); err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	h.logger.Info("risk metrics updated",
		xlogger.Float64("drawdown", req.Drawdown),
		xlogger.Float64("correlation_stress", req.CorrelationStress))
	return xhttp.SuccessResponse(c, req)
}

func (h *GovernanceEchoHandler) Evaluate(c echo.Context) error {
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var risk models.RiskMetrics
	if req.Metrics != nil {
		risk = *req.Metrics
	} else {
		m, err := h.store.Get(c.Request().Context())
		if err != nil {
			return xhttp.AppErrorResponse(c, err)
		}
		risk = m
	}
	stress := risk.CorrelationStress
	if req.StressIndex != nil {
		stress = *req.StressIndex
	}

	res, err := h.cycle.Assess(req.Snapshot(), risk, req.LossStreak, stress)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}
