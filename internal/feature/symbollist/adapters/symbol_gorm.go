// Package adapters はsymbollistフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"

	"stock_dashboard/internal/feature/symbollist/domain/entity"
	"stock_dashboard/internal/feature/symbollist/usecase"

	"gorm.io/gorm"
)

// symbolGorm はSymbolRepositoryインターフェースのGORM実装です。PostgreSQLとSQLiteの両方で動作します。
type symbolGorm struct {
	db *gorm.DB
}

var _ usecase.SymbolRepository = (*symbolGorm)(nil)

// NewSymbolRepository は指定されたDB接続でsymbolGormリポジトリの新しいインスタンスを生成します。
func NewSymbolRepository(db *gorm.DB) *symbolGorm {
	return &symbolGorm{db: db}
}

// ListActive はsort_key、codeの順にすべてのアクティブな銘柄を返します。
func (r *symbolGorm) ListActive(ctx context.Context) ([]entity.Symbol, error) {
	var symbols []entity.Symbol
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_key ASC").
		Order("code ASC").
		Find(&symbols).Error; err != nil {
		return nil, err
	}
	return symbols, nil
}
