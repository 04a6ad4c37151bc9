package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/englishgpt-practice/internal/config"
	"github.com/stemsi/englishgpt-practice/internal/model"
	"github.com/stemsi/englishgpt-practice/internal/practice"
	"github.com/stemsi/englishgpt-practice/internal/repository"
)

// ContentService serves exercise content from Redis, falling back to PostgreSQL.
// It implements practice.ContentProvider.
type ContentService struct {
	repo *repository.ExerciseRepository
	rdb  *redis.Client
	ttl  time.Duration
	log  zerolog.Logger
}

// NewContentService creates a new ContentService.
func NewContentService(repo *repository.ExerciseRepository, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *ContentService {
	return &ContentService{
		repo: repo,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "content_service").Logger(),
	}
}

// ExerciseSet returns the exercise set for categoryID. Unknown categories
// yield an error wrapping practice.ErrNotFound.
func (s *ContentService) ExerciseSet(ctx context.Context, categoryID string) (*practice.ExerciseSet, error) {
	key := config.CacheKey.ExerciseSetKey(categoryID)

	data, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var set practice.ExerciseSet
		if err := json.Unmarshal(data, &set); err == nil {
			return &set, nil
		}
		s.log.Warn().Str("category", categoryID).Msg("Corrupt cached exercise set, reloading")
	case !errors.Is(err, redis.Nil):
		s.log.Warn().Err(err).Str("category", categoryID).Msg("Cache read failed, using database")
	}

	set, err := s.load(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheSet(ctx, set); err != nil {
		s.log.Warn().Err(err).Str("category", categoryID).Msg("Failed to cache exercise set")
	}
	return set, nil
}

// Categories lists categories with question counts.
func (s *ContentService) Categories(ctx context.Context) ([]model.Category, error) {
	key := config.CacheKey.CategoryListKey()

	if data, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var categories []model.Category
		if err := json.Unmarshal(data, &categories); err == nil {
			return categories, nil
		}
	}

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []model.Category{}
	}

	if raw, err := json.Marshal(categories); err == nil {
		s.rdb.Set(ctx, key, raw, s.ttl)
	}
	return categories, nil
}

// PrewarmAllCaches loads every category's exercise set into Redis on startup.
func (s *ContentService) PrewarmAllCaches(ctx context.Context) error {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}

	if len(categories) == 0 {
		s.log.Info().Msg("No categories to prewarm")
		return nil
	}

	warmed := 0
	for _, c := range categories {
		set, err := s.load(ctx, c.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("category", c.ID).Msg("Failed to load category, skipping")
			continue
		}
		if err := s.cacheSet(ctx, set); err != nil {
			s.log.Warn().Err(err).Str("category", c.ID).Msg("Failed to warm category, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(categories)).
		Msg("Prewarming complete")
	return nil
}

// InvalidateCategory drops cached content for categoryID and the category listing.
func (s *ContentService) InvalidateCategory(ctx context.Context, categoryID string) error {
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.ExerciseSetKey(categoryID))
	pipe.Del(ctx, config.CacheKey.CategoryListKey())
	_, err := pipe.Exec(ctx)
	return err
}

func (s *ContentService) load(ctx context.Context, categoryID string) (*practice.ExerciseSet, error) {
	category, err := s.repo.GetCategory(ctx, categoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%q: %w", categoryID, practice.ErrNotFound)
		}
		return nil, fmt.Errorf("get category: %w", err)
	}

	questions, err := s.repo.ListQuestionsByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	return buildExerciseSet(category, questions)
}

func (s *ContentService) cacheSet(ctx context.Context, set *practice.ExerciseSet) error {
	raw, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal set: %w", err)
	}
	return s.rdb.Set(ctx, config.CacheKey.ExerciseSetKey(set.Category), raw, s.ttl).Err()
}

func buildExerciseSet(category *model.Category, questions []model.Question) (*practice.ExerciseSet, error) {
	set := &practice.ExerciseSet{
		Category:  category.ID,
		Title:     category.Name,
		Questions: make([]practice.Question, len(questions)),
	}
	for i, q := range questions {
		set.Questions[i] = q.ToPractice()
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("category %q: %w", category.ID, err)
	}
	return set, nil
}
