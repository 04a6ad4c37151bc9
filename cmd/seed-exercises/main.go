package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/stemsi/englishgpt-practice/internal/config"
	"github.com/stemsi/englishgpt-practice/internal/database"
	"github.com/stemsi/englishgpt-practice/internal/logger"
	"github.com/stemsi/englishgpt-practice/internal/model"
	"github.com/stemsi/englishgpt-practice/internal/practice"
	"github.com/stemsi/englishgpt-practice/internal/repository"
	"github.com/stemsi/englishgpt-practice/internal/service"
)

func main() {
	skipCache := flag.Bool("skip-cache", false, "Do not invalidate Redis caches after seeding")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	exerciseRepo := repository.NewExerciseRepository(pool)

	var contentService *service.ContentService
	if !*skipCache {
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		contentService = service.NewContentService(exerciseRepo, rdb, cfg.ContentCacheTTL, log)
	}

	fmt.Println("=== Seeding built-in exercise catalog ===")

	sets := practice.BuiltinExerciseSets()
	seeded := 0
	for i, c := range practice.BuiltinCategories {
		set, ok := sets[c.ID]
		if !ok {
			fmt.Printf("No exercises for %s, skipping\n", c.ID)
			continue
		}
		if err := set.Validate(); err != nil {
			log.Fatal().Err(err).Str("category", c.ID).Msg("Built-in content is invalid")
		}

		category := &model.Category{ID: c.ID, Name: c.Name, Icon: c.Icon, SortOrder: i}
		if err := exerciseRepo.UpsertCategory(ctx, category); err != nil {
			log.Fatal().Err(err).Str("category", c.ID).Msg("Failed to upsert category")
		}

		questions := model.QuestionsFromPractice(c.ID, set.Questions)
		if err := exerciseRepo.ReplaceQuestions(ctx, c.ID, questions); err != nil {
			log.Fatal().Err(err).Str("category", c.ID).Msg("Failed to replace questions")
		}

		if contentService != nil {
			if err := contentService.InvalidateCategory(ctx, c.ID); err != nil {
				log.Warn().Err(err).Str("category", c.ID).Msg("Failed to invalidate cache")
			}
		}

		seeded++
		fmt.Printf("Seeded %s (%d questions)\n", c.Name, len(questions))
	}

	fmt.Printf("\nSeed completed! %d/%d categories written.\n", seeded, len(practice.BuiltinCategories))
}
