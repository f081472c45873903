package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/solaris-erp/backoffice/internal/platform/omie"
)

// LookupServiceImpl implements the LookupService interface
type LookupServiceImpl struct {
	logger     *slog.Logger
	omieClient OmieGateway
}

// NewLookupService creates a new lookup service
func NewLookupService(logger *slog.Logger, omieClient OmieGateway) LookupService {
	return &LookupServiceImpl{
		logger:     logger,
		omieClient: omieClient,
	}
}

// SearchSuppliers looks up registrations tagged as suppliers by document.
func (s *LookupServiceImpl) SearchSuppliers(ctx context.Context, cnpjCpf string) ([]omie.Supplier, error) {
	return s.omieClient.ListSuppliers(ctx, cnpjCpf)
}

// CreateSupplier registers a supplier in the accounting system and returns
// its integration code.
func (s *LookupServiceImpl) CreateSupplier(ctx context.Context, cnpjCpf, name string) (string, error) {
	code, err := s.omieClient.CreateSupplier(ctx, cnpjCpf, name)
	if err != nil {
		return "", err
	}
	s.logger.Info("Supplier registered in accounting system", "cnpj_cpf", cnpjCpf, "integration_code", code)
	return code, nil
}

// ListCategories returns active expense categories, optionally filtered by a
// case-insensitive substring of the description.
func (s *LookupServiceImpl) ListCategories(ctx context.Context, term string) ([]omie.Category, error) {
	categories, err := s.omieClient.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if term == "" {
		return categories, nil
	}

	needle := strings.ToLower(term)
	filtered := categories[:0]
	for _, category := range categories {
		if strings.Contains(strings.ToLower(category.Description), needle) {
			filtered = append(filtered, category)
		}
	}
	return filtered, nil
}
