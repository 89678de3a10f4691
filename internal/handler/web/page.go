package web

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"net/http"

	"CandleScope/internal/domain/models"
	"CandleScope/internal/usecase"
	xlogger "CandleScope/pkg/logger"
	"CandleScope/pkg/util"

	"github.com/labstack/echo/v4"
)

//go:embed index.html
var indexHTML string

var pageTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"date": util.FormatDate,
}).Parse(indexHTML))

type pageData struct {
	SessionID       string
	Selection       models.Selection
	Exchanges       []models.Exchange
	Currencies      []models.Currency
	Methods         []models.AnalysisMethod
	NoAnomaliesText string
}

// PageHandler serves the dashboard page. Each page load opens a new session.
type PageHandler struct {
	logger   *xlogger.Logger
	sessions *usecase.SessionManager
}

func NewPageHandler(logger *xlogger.Logger, sessions *usecase.SessionManager) *PageHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &PageHandler{logger: logger, sessions: sessions}
}

func (h *PageHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
}

func (h *PageHandler) Index(c echo.Context) error {
	s := h.sessions.Create()
	snap := s.Snapshot()

	var buf bytes.Buffer
	err := pageTmpl.Execute(&buf, pageData{
		SessionID:       snap.SessionID,
		Selection:       snap.Selection,
		Exchanges:       models.Exchanges,
		Currencies:      models.Currencies,
		Methods:         models.Methods,
		NoAnomaliesText: models.NoAnomaliesText,
	})
	if err != nil {
		h.logger.Error("render page", xlogger.Error(err))
		return c.String(http.StatusInternalServerError, "page unavailable")
	}

	// the initial fetch outlives the page request; the result reaches the
	// browser over the websocket
	ctx := context.WithoutCancel(c.Request().Context())
	go func() {
		if _, err := s.Load(ctx); err != nil {
			h.logger.Warn("initial fetch failed", xlogger.String("session", s.ID()), xlogger.Error(err))
		}
	}()

	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
