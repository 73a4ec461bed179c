package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	taskUC "github.com/fastygo/taskflow/usecase/task"
)

// StatsHandler serves the aggregate views over the caller's tasks.
type StatsHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewStatsHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Get stats
// @Tags stats
// @Router /api/v1/stats [get]
func (h *StatsHandler) GetStats(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	stats, err := h.uc.GetStats(stdCtx)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, stats)
}

// @Summary Recompute stats now
// @Tags stats
// @Router /api/v1/stats/refresh [post]
func (h *StatsHandler) RefreshStats(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	stats, err := h.uc.RefreshStats(stdCtx)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, stats)
}

// @Summary Insights report
// @Tags stats
// @Router /api/v1/insights [get]
func (h *StatsHandler) GetInsights(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	report, err := h.uc.Insights(stdCtx)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, report)
}

// @Summary Predict hours for a prospective task
// @Tags stats
// @Router /api/v1/insights/predict [post]
func (h *StatsHandler) Predict(ctx *fasthttp.RequestCtx) {
	var req transport.PredictRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	hours, err := h.uc.Predict(stdCtx, domain.Priority(req.Priority), req.Category, req.EstimatedTime)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]float64{"predicted_hours": hours})
}
