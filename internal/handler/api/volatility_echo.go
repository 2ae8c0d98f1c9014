package api

import (
	"context"
	"net/http"

	"VolServe/internal/domain/models"
	"VolServe/internal/usecase"
	xhttp "VolServe/pkg/http"
	xlogger "VolServe/pkg/logger"

	"github.com/labstack/echo/v4"
)

// VolatilityService is the slice of the pipeline the HTTP layer drives.
type VolatilityService interface {
	Train(ctx context.Context, in usecase.TrainParams) usecase.TrainResult
	Forecast(ctx context.Context, in usecase.ForecastParams) usecase.ForecastResult
}

// VolatilityEchoHandler serves the train and forecast endpoints. Workflow
// failures are reported in the body with success=false and HTTP 200; only
// malformed requests get a 400.
type VolatilityEchoHandler struct {
	logger *xlogger.Logger
	svc    VolatilityService
}

func NewVolatilityEchoHandler(logger *xlogger.Logger, svc VolatilityService) *VolatilityEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &VolatilityEchoHandler{logger: logger, svc: svc}
}

func (h *VolatilityEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.POST("/train", h.Train)
	e.POST("/forecast", h.Forecast)
}

func (h *VolatilityEchoHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *VolatilityEchoHandler) Train(c echo.Context) error {
	req := &models.TrainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res := h.svc.Train(c.Request().Context(), usecase.TrainParams{
		Ticker:      req.Ticker,
		RefreshData: req.RefreshData,
		NPoints:     req.NPoints,
		P:           *req.P,
		Q:           *req.Q,
	})
	if !res.Success {
		h.logger.Warn("train request failed",
			xlogger.String("ticker", req.Ticker),
			xlogger.String("message", res.Message),
		)
	}

	return xhttp.SuccessResponse(c, &models.TrainResponse{
		TrainRequest: *req,
		Success:      res.Success,
		Message:      res.Message,
		Filename:     res.Filename,
	})
}

func (h *VolatilityEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res := h.svc.Forecast(c.Request().Context(), usecase.ForecastParams{
		Ticker: req.Ticker,
		Days:   req.Days,
	})
	if !res.Success {
		h.logger.Warn("forecast request failed",
			xlogger.String("ticker", req.Ticker),
			xlogger.String("message", res.Message),
		)
	}

	return xhttp.SuccessResponse(c, &models.ForecastResponse{
		ForecastRequest: *req,
		Success:         res.Success,
		Forecast:        res.Forecast,
		Message:         res.Message,
	})
}
