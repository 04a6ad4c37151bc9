package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/englishgpt-practice/internal/model"
	"github.com/stemsi/englishgpt-practice/internal/practice"
)

// ResultRepository handles practice result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// InsertBatch stores many results in one statement. Sessions already stored are skipped.
func (r *ResultRepository) InsertBatch(ctx context.Context, batch []*model.PracticeResult) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	sessionIDs := make([]uuid.UUID, n)
	categories := make([]string, n)
	scores := make([]int32, n)
	performances := make([]string, n)
	corrects := make([]int32, n)
	answered := make([]int32, n)
	totals := make([]int32, n)
	expired := make([]bool, n)
	elapsed := make([]int32, n)
	outcomes := make([]string, n)
	finishedAts := make([]time.Time, n)

	for i, p := range batch {
		sessionIDs[i] = p.SessionID
		categories[i] = p.Category
		scores[i] = int32(p.ScorePercent)
		performances[i] = string(performanceOf(p))
		corrects[i] = int32(p.CorrectCount)
		answered[i] = int32(p.AnsweredCount)
		totals[i] = int32(p.TotalQuestions)
		expired[i] = p.ExpiredByTimeout
		elapsed[i] = int32(p.ElapsedSeconds)
		outcomes[i] = outcomesText(p)
		finishedAts[i] = p.FinishedAt
	}

	query := `
		INSERT INTO practice_results (
			session_id, category, score_percent, correct_count, answered_count,
			total_questions, expired_by_timeout, elapsed_seconds, outcomes, finished_at,
			performance
		)
		SELECT u.session_id, u.category, u.score, u.correct, u.answered,
		       u.total, u.expired, u.elapsed, u.outcomes::jsonb, u.finished_at,
		       u.performance
		FROM UNNEST(
			$1::uuid[],
			$2::text[],
			$3::int[],
			$4::int[],
			$5::int[],
			$6::int[],
			$7::bool[],
			$8::int[],
			$9::text[],
			$10::timestamptz[],
			$11::text[]
		) AS u (session_id, category, score, correct, answered, total, expired, elapsed, outcomes, finished_at, performance)
		ON CONFLICT (session_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		sessionIDs, categories, scores, corrects, answered,
		totals, expired, elapsed, outcomes, finishedAts,
		performances,
	)
	return err
}

// Insert stores a single result. A duplicate session is not an error.
func (r *ResultRepository) Insert(ctx context.Context, p *model.PracticeResult) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO practice_results (
			session_id, category, score_percent, correct_count, answered_count,
			total_questions, expired_by_timeout, elapsed_seconds, outcomes, finished_at,
			performance
		 )
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $11)
		 ON CONFLICT (session_id) DO NOTHING`,
		p.SessionID, p.Category, p.ScorePercent, p.CorrectCount, p.AnsweredCount,
		p.TotalQuestions, p.ExpiredByTimeout, p.ElapsedSeconds, outcomesText(p), p.FinishedAt,
		string(performanceOf(p)),
	)
	return err
}

// List returns results newest first, optionally filtered by category, with the total count.
func (r *ResultRepository) List(ctx context.Context, category string, limit, offset int) ([]model.PracticeResult, int64, error) {
	where := ""
	args := []any{}
	if category != "" {
		args = append(args, category)
		where = fmt.Sprintf(" WHERE category = $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM practice_results"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, session_id, category, score_percent, correct_count, answered_count,
		       total_questions, expired_by_timeout, elapsed_seconds, outcomes, finished_at,
		       performance
		FROM practice_results` + where + `
		ORDER BY finished_at DESC
		LIMIT $` + fmt.Sprintf("%d", len(args)+1) + ` OFFSET $` + fmt.Sprintf("%d", len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results := []model.PracticeResult{}
	for rows.Next() {
		var p model.PracticeResult
		var outcomes []byte
		var performance string
		if err := rows.Scan(
			&p.ID, &p.SessionID, &p.Category, &p.ScorePercent, &p.CorrectCount, &p.AnsweredCount,
			&p.TotalQuestions, &p.ExpiredByTimeout, &p.ElapsedSeconds, &outcomes, &p.FinishedAt,
			&performance,
		); err != nil {
			return nil, 0, err
		}
		p.Outcomes = outcomes
		p.Performance = practice.Performance(performance)
		p.TimeTaken = practice.FormatClock(p.ElapsedSeconds)
		results = append(results, p)
	}
	return results, total, rows.Err()
}

// StatsByCategory aggregates attempts and scores per category.
func (r *ResultRepository) StatsByCategory(ctx context.Context) ([]model.CategoryStats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category,
		        COUNT(*),
		        COALESCE(AVG(score_percent), 0)::float8,
		        COALESCE(MAX(score_percent), 0),
		        COUNT(*) FILTER (WHERE expired_by_timeout)
		 FROM practice_results
		 GROUP BY category
		 ORDER BY category`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []model.CategoryStats{}
	for rows.Next() {
		var s model.CategoryStats
		if err := rows.Scan(&s.Category, &s.Attempts, &s.AverageScore, &s.BestScore, &s.TimeoutCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// performanceOf trusts a stored tier and recomputes it for older queue
// payloads that predate the field.
func performanceOf(p *model.PracticeResult) practice.Performance {
	if p.Performance != "" {
		return p.Performance
	}
	return practice.ClassifyPerformance(p.ScorePercent)
}

func outcomesText(p *model.PracticeResult) string {
	if len(p.Outcomes) == 0 {
		return "[]"
	}
	return string(p.Outcomes)
}
