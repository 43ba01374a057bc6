// Package handler はdashboardフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"stock_dashboard/internal/feature/dashboard/domain"
	"stock_dashboard/internal/feature/dashboard/domain/entity"
	"stock_dashboard/internal/feature/dashboard/transport/http/dto"

	"github.com/gin-gonic/gin"
)

// DashboardUsecase はダッシュボード組み立てのユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type DashboardUsecase interface {
	Build(ctx context.Context, ticker string, start, end time.Time) (entity.Dashboard, error)
}

// DashboardHandler はダッシュボードのHTTPリクエストを処理します。
type DashboardHandler struct {
	uc DashboardUsecase
}

// NewDashboardHandler は指定されたusecaseでDashboardHandlerの新しいインスタンスを生成します。
func NewDashboardHandler(uc DashboardUsecase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetDashboard は銘柄コードと期間を受け取り、ダッシュボードの全項目をJSONで返します。
//
// エンドポイント例:
// GET /dashboard/AAPL?start=2024-01-01&end=2024-06-30
//
// データが無い場合も200でプレースホルダーを返します。
// 入力不正は400、プロバイダー障害は502を返します。
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	ticker := c.Param("ticker")

	start, err := parseDate(c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid start date, want YYYY-MM-DD"})
		return
	}
	end, err := parseDate(c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid end date, want YYYY-MM-DD"})
		return
	}

	d, err := h.uc.Build(c.Request.Context(), ticker, start, end)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, dto.FromDashboard(d))
	case errors.Is(err, domain.ErrUnsupportedTicker), errors.Is(err, domain.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUpstream):
		slog.Error("dashboard upstream failure", "ticker", ticker, "error", err)
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, dto.ErrorResponse{Error: err.Error()})
	default:
		slog.Error("dashboard build failed", "ticker", ticker, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}
}

// parseDate は空文字をゼロ値として扱います。
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, s)
}
