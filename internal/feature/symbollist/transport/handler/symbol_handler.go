package handler

import (
	"context"
	"net/http"

	"stock_dashboard/internal/feature/symbollist/domain/entity"
	"stock_dashboard/internal/feature/symbollist/transport/http/dto"

	"github.com/gin-gonic/gin"
)

// SymbolUsecase は銘柄カタログに関するユースケースのインターフェースです。
type SymbolUsecase interface {
	ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error)
	DefaultWindowMonths() int
}

// SymbolHandler は銘柄情報に関するHTTPリクエストを処理します。
type SymbolHandler struct {
	uc SymbolUsecase
}

// NewSymbolHandler は新しい SymbolHandler を作成します。
func NewSymbolHandler(uc SymbolUsecase) *SymbolHandler {
	return &SymbolHandler{uc: uc}
}

// List は選択可能な銘柄の一覧とデフォルトの期間(月数)を返すAPIです。
// Usecaseでエラーが発生した場合は500 Internal Server Errorを返します。
func (h *SymbolHandler) List(c *gin.Context) {
	symbols, err := h.uc.ListActiveSymbols(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	items := make([]dto.SymbolItem, 0, len(symbols))
	for _, s := range symbols {
		items = append(items, dto.SymbolItem{Code: s.Code, Name: s.Name})
	}
	c.JSON(http.StatusOK, dto.SymbolListResponse{
		Symbols:             items,
		DefaultWindowMonths: h.uc.DefaultWindowMonths(),
	})
}
