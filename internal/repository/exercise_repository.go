package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/englishgpt-practice/internal/model"
)

// ExerciseRepository handles category and question data access.
type ExerciseRepository struct {
	pool *pgxpool.Pool
}

// NewExerciseRepository creates a new ExerciseRepository.
func NewExerciseRepository(pool *pgxpool.Pool) *ExerciseRepository {
	return &ExerciseRepository{pool: pool}
}

// ListCategories returns every category with its question count, in display order.
func (r *ExerciseRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.name, c.icon, c.sort_order, c.created_at, COUNT(q.id)
		 FROM categories c
		 LEFT JOIN questions q ON q.category_id = c.id
		 GROUP BY c.id
		 ORDER BY c.sort_order, c.id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.SortOrder, &c.CreatedAt, &c.QuestionCount); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategory retrieves one category. Returns pgx.ErrNoRows when it does not exist.
func (r *ExerciseRepository) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	c := &model.Category{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, icon, sort_order, created_at FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Icon, &c.SortOrder, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListQuestionsByCategory retrieves a category's questions ordered by order_num.
func (r *ExerciseRepository) ListQuestionsByCategory(ctx context.Context, categoryID string) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, category_id, prompt, passage, options, correct_option, explanation, order_num
		 FROM questions WHERE category_id = $1
		 ORDER BY order_num`, categoryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.CategoryID, &q.Prompt, &q.Passage, &q.Options, &q.CorrectOption, &q.Explanation, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// UpsertCategory inserts a category or updates its display fields.
func (r *ExerciseRepository) UpsertCategory(ctx context.Context, c *model.Category) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO categories (id, name, icon, sort_order)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, icon = EXCLUDED.icon, sort_order = EXCLUDED.sort_order
		 RETURNING created_at`,
		c.ID, c.Name, c.Icon, c.SortOrder,
	).Scan(&c.CreatedAt)
}

// ReplaceQuestions swaps a category's question list in one transaction.
func (r *ExerciseRepository) ReplaceQuestions(ctx context.Context, categoryID string, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE category_id = $1`, categoryID); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}

	batch := &pgx.Batch{}
	for _, q := range questions {
		batch.Queue(
			`INSERT INTO questions (category_id, prompt, passage, options, correct_option, explanation, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			categoryID, q.Prompt, q.Passage, q.Options, q.CorrectOption, q.Explanation, q.OrderNum,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}

	return tx.Commit(ctx)
}
