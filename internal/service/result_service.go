package service

import (
	"context"

	"github.com/stemsi/englishgpt-practice/internal/model"
	"github.com/stemsi/englishgpt-practice/internal/repository"
	"github.com/stemsi/englishgpt-practice/internal/response"
)

// ResultService reads persisted practice results.
type ResultService struct {
	repo *repository.ResultRepository
}

// NewResultService creates a new ResultService.
func NewResultService(repo *repository.ResultRepository) *ResultService {
	return &ResultService{repo: repo}
}

// List returns a page of results, newest first.
func (s *ResultService) List(ctx context.Context, category string, page, perPage int) ([]model.PracticeResult, *response.Pagination, error) {
	p := response.NewPagination(page, perPage, 0)

	results, total, err := s.repo.List(ctx, category, p.PerPage, p.Offset())
	if err != nil {
		return nil, nil, err
	}

	p = response.NewPagination(p.Page, p.PerPage, int(total))
	return results, p, nil
}

// Stats aggregates results per category.
func (s *ResultService) Stats(ctx context.Context) ([]model.CategoryStats, error) {
	return s.repo.StatsByCategory(ctx)
}
