// Package usecase implements the symbol catalog served to the ticker picker.
package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"stock_dashboard/internal/feature/symbollist/domain/entity"
)

// SymbolRepository abstracts the persistence layer for symbol (stock ticker) data.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ListActive(ctx context.Context) ([]entity.Symbol, error)
}

// LoadCatalog reads the active symbols once. When repo is nil or holds no
// active rows, the catalog falls back to the configured ticker codes with the
// code doubling as the display name.
func LoadCatalog(ctx context.Context, repo SymbolRepository, fallback []string) ([]entity.Symbol, error) {
	if repo != nil {
		symbols, err := repo.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("load symbol catalog: %w", err)
		}
		if catalog := normalize(symbols); len(catalog) > 0 {
			return catalog, nil
		}
	}

	catalog := make([]entity.Symbol, 0, len(fallback))
	for i, code := range fallback {
		catalog = append(catalog, entity.Symbol{Code: code, Name: code, IsActive: true, SortKey: i})
	}
	return normalize(catalog), nil
}

// normalize uppercases codes, fills empty names and drops duplicate or blank codes.
func normalize(symbols []entity.Symbol) []entity.Symbol {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]entity.Symbol, 0, len(symbols))
	for _, s := range symbols {
		s.Code = strings.ToUpper(strings.TrimSpace(s.Code))
		if s.Code == "" {
			continue
		}
		if _, dup := seen[s.Code]; dup {
			continue
		}
		seen[s.Code] = struct{}{}
		if strings.TrimSpace(s.Name) == "" {
			s.Name = s.Code
		}
		out = append(out, s)
	}
	return out
}

// SymbolUsecase serves an immutable catalog built at startup.
type SymbolUsecase struct {
	symbols      []entity.Symbol
	windowMonths int
}

// NewSymbolUsecase creates a SymbolUsecase over the given catalog.
// windowMonths is the default date window advertised to the client.
func NewSymbolUsecase(symbols []entity.Symbol, windowMonths int) *SymbolUsecase {
	return &SymbolUsecase{symbols: slices.Clone(symbols), windowMonths: windowMonths}
}

// ListActiveSymbols returns a copy of the catalog.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(u.symbols), nil
}

// Codes returns the ticker codes in catalog order.
func (u *SymbolUsecase) Codes() []string {
	codes := make([]string, 0, len(u.symbols))
	for _, s := range u.symbols {
		codes = append(codes, s.Code)
	}
	return codes
}

// DefaultWindowMonths returns the default date window in months.
func (u *SymbolUsecase) DefaultWindowMonths() int {
	return u.windowMonths
}
