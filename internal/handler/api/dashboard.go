package api

import (
	"errors"
	"net/http"
	"time"

	"CandleScope/internal/domain/models"
	domsvc "CandleScope/internal/domain/service"
	"CandleScope/internal/service/render"
	"CandleScope/internal/usecase"
	xhttp "CandleScope/pkg/http"
	"CandleScope/pkg/http/middleware"
	xlogger "CandleScope/pkg/logger"
	"CandleScope/pkg/util"

	"github.com/labstack/echo/v4"
)

// DashboardEchoHandler exposes dashboard sessions over JSON.
type DashboardEchoHandler struct {
	logger   *xlogger.Logger
	sessions *usecase.SessionManager
	renderer domsvc.ChartRenderer
	limiter  middleware.Allower
}

func NewDashboardEchoHandler(logger *xlogger.Logger, sessions *usecase.SessionManager, renderer domsvc.ChartRenderer, limiter middleware.Allower) *DashboardEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &DashboardEchoHandler{logger: logger, sessions: sessions, renderer: renderer, limiter: limiter}
}

func (h *DashboardEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	if h.limiter != nil {
		g.Use(middleware.RateLimit(h.limiter))
	}
	g.GET("/options", h.Options)
	g.POST("/sessions", h.CreateSession)
	g.GET("/sessions/:id", h.GetSession)
	g.PUT("/sessions/:id/exchange", h.SetExchange)
	g.PUT("/sessions/:id/currency", h.SetCurrency)
	g.PUT("/sessions/:id/dates", h.SetDates)
	g.POST("/sessions/:id/refresh", h.Refresh)
	g.POST("/sessions/:id/analyze/:method", h.Analyze)
	g.GET("/sessions/:id/chart.png", h.ChartImage)
}

func (h *DashboardEchoHandler) Options(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.SuccessResponse(c, models.OptionsResponse{
		Exchanges:  models.Exchanges,
		Currencies: models.Currencies,
		Methods:    models.Methods,
		Defaults:   h.sessions.Defaults(),
	})
}

func (h *DashboardEchoHandler) CreateSession(c echo.Context) error {
	s := h.sessions.Create()
	snap, err := s.Load(c.Request().Context())
	if err != nil {
		return h.actionError(c, s.ID(), "create", err)
	}
	return xhttp.CreatedResponse(c, snap)
}

func (h *DashboardEchoHandler) GetSession(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s, err := h.session(req.ID)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, s.Snapshot())
}

func (h *DashboardEchoHandler) SetExchange(c echo.Context) error {
	req := &models.SetExchangeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s, err := h.session(req.ID)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	snap, err := s.SetExchange(c.Request().Context(), models.Exchange(req.Value))
	if err != nil {
		return h.actionError(c, req.ID, "set_exchange", err)
	}
	return xhttp.SuccessResponse(c, snap)
}

func (h *DashboardEchoHandler) SetCurrency(c echo.Context) error {
	req := &models.SetCurrencyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s, err := h.session(req.ID)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	snap, err := s.SetCurrency(c.Request().Context(), models.Currency(req.Value))
	if err != nil {
		return h.actionError(c, req.ID, "set_currency", err)
	}
	return xhttp.SuccessResponse(c, snap)
}

func (h *DashboardEchoHandler) SetDates(c echo.Context) error {
	req := &models.SetDatesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	start, err := optionalDate(req.StartDate, "start_date")
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	end, err := optionalDate(req.EndDate, "end_date")
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	s, err := h.session(req.ID)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, s.SetDates(start, end))
}

func optionalDate(raw, field string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := util.ParseDate(raw)
	if err != nil {
		return nil, xhttp.BadRequestError("ERR_DATE", field, field+" must be YYYY-MM-DD or RFC3339").
			WithParam("value", raw)
	}
	return &t, nil
}

func (h *DashboardEchoHandler) Refresh(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s, err := h.session(req.ID)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	snap, err := s.Refresh(c.Request().Context())
	if err != nil {
		return h.actionError(c, req.ID, "refresh", err)
	}
	return xhttp.SuccessResponse(c, snap)
}

func (h *DashboardEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	method, ok := models.MethodByName(req.Method)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("unknown method %s", req.Method))
	}
	s, err := h.session(req.ID)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	snap, err := s.Analyze(c.Request().Context(), method)
	if err != nil {
		return h.actionError(c, req.ID, "analyze_"+method.Name, err)
	}
	return xhttp.SuccessResponse(c, snap)
}

func (h *DashboardEchoHandler) ChartImage(c echo.Context) error {
	req := &models.ChartImageRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s, err := h.session(req.ID)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	b, err := h.renderer.RenderPNG(c.Request().Context(), s.Snapshot(), req.Width, req.Height)
	switch {
	case errors.Is(err, render.ErrNotEnoughData):
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_NO_DATA", "", "not enough prices loaded to draw a chart", http.StatusConflict))
	case err != nil:
		h.logger.Error("chart render error", xlogger.String("session", req.ID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("chart render failed").WithError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Blob(http.StatusOK, "image/png", b)
}

func (h *DashboardEchoHandler) session(id string) (*usecase.Session, error) {
	s, ok := h.sessions.Get(id)
	if !ok {
		return nil, xhttp.NotFoundErrorf("session %s not found", id)
	}
	return s, nil
}

// actionError maps usecase failures onto the API envelope. The session state
// already reflects the failure and has been pushed to subscribers.
func (h *DashboardEchoHandler) actionError(c echo.Context, id, action string, err error) error {
	switch {
	case errors.Is(err, usecase.ErrDateRange):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("ERR_DATE_RANGE", "end_date", err.Error()).
			WithParam("session_id", id))
	case errors.Is(err, usecase.ErrUpstream):
		h.logger.Warn("dashboard upstream error",
			xlogger.String("session", id),
			xlogger.String("action", action),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UpstreamError(err.Error()).
			WithParam("session_id", id).
			WithError(err))
	default:
		h.logger.Error("dashboard usecase error",
			xlogger.String("session", id),
			xlogger.String("action", action),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError(err.Error()).WithError(err))
	}
}
