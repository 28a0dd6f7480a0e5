package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/family-organizer/internal/models"
)

const mealColumns = `id, family_id, created_by, title, description, meal_type, date,
	ingredients, instructions, calories, cuisine, is_ai_generated, created_at, updated_at`

func scanMeal(row pgx.Row) (*models.Meal, error) {
	m := &models.Meal{}
	err := row.Scan(
		&m.ID, &m.FamilyID, &m.CreatedBy, &m.Title, &m.Description, &m.MealType, &m.Date,
		&m.Ingredients, &m.Instructions, &m.Calories, &m.Cuisine, &m.IsAIGenerated, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMealNotFound
		}
		return nil, err
	}
	if m.Ingredients == nil {
		m.Ingredients = []string{}
	}
	return m, nil
}

func insertMeal(ctx context.Context, q querier, meal *models.Meal) error {
	if meal.Ingredients == nil {
		meal.Ingredients = []string{}
	}
	return q.QueryRow(ctx, `
		INSERT INTO meals (id, family_id, created_by, title, description, meal_type, date,
			ingredients, instructions, calories, cuisine, is_ai_generated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`,
		meal.ID, meal.FamilyID, meal.CreatedBy, meal.Title, meal.Description, meal.MealType, meal.Date,
		meal.Ingredients, meal.Instructions, meal.Calories, meal.Cuisine, meal.IsAIGenerated,
	).Scan(&meal.CreatedAt, &meal.UpdatedAt)
}

func deleteMealsInRange(ctx context.Context, q querier, familyID uuid.UUID, start, end time.Time) (int64, error) {
	result, err := q.Exec(ctx, `
		DELETE FROM meals WHERE family_id = $1 AND date >= $2 AND date < $3
	`, familyID, start, end)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// ListMealsInRange returns a family's meals dated in [start, end), oldest first
func (db *DB) ListMealsInRange(ctx context.Context, familyID uuid.UUID, start, end time.Time) ([]models.Meal, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+mealColumns+`
		FROM meals
		WHERE family_id = $1 AND date >= $2 AND date < $3
		ORDER BY date ASC, created_at ASC
	`, familyID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meals := []models.Meal{}
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		meals = append(meals, *m)
	}

	return meals, rows.Err()
}

// ClearMealsInRange deletes a family's meals dated in [start, end)
func (db *DB) ClearMealsInRange(ctx context.Context, familyID uuid.UUID, start, end time.Time) (int64, error) {
	return deleteMealsInRange(ctx, db.Pool, familyID, start, end)
}

// GetMeal retrieves one of a family's meals
func (db *DB) GetMeal(ctx context.Context, familyID, id uuid.UUID) (*models.Meal, error) {
	return scanMeal(db.Pool.QueryRow(ctx,
		"SELECT "+mealColumns+" FROM meals WHERE id = $1 AND family_id = $2", id, familyID))
}

// CreateMeal stores a single meal outside of a week save
func (db *DB) CreateMeal(ctx context.Context, meal *models.Meal) error {
	return insertMeal(ctx, db.Pool, meal)
}

// UpdateMeal writes every editable field of meal
func (db *DB) UpdateMeal(ctx context.Context, meal *models.Meal) error {
	if meal.Ingredients == nil {
		meal.Ingredients = []string{}
	}
	err := db.Pool.QueryRow(ctx, `
		UPDATE meals SET
			title = $3, description = $4, meal_type = $5, date = $6,
			ingredients = $7, instructions = $8, calories = $9, cuisine = $10,
			updated_at = NOW()
		WHERE id = $1 AND family_id = $2
		RETURNING updated_at
	`,
		meal.ID, meal.FamilyID, meal.Title, meal.Description, meal.MealType, meal.Date,
		meal.Ingredients, meal.Instructions, meal.Calories, meal.Cuisine,
	).Scan(&meal.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrMealNotFound
	}
	return err
}

// DeleteMeal deletes one of a family's meals
func (db *DB) DeleteMeal(ctx context.Context, familyID, id uuid.UUID) error {
	result, err := db.Pool.Exec(ctx, "DELETE FROM meals WHERE id = $1 AND family_id = $2", id, familyID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMealNotFound
	}
	return nil
}
