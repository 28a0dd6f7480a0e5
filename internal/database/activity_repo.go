package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/family-organizer/internal/models"
)

const activitySelect = `
	SELECT
		a.id, a.family_id, a.created_by, TRIM(COALESCE(u.first_name, '') || ' ' || COALESCE(u.last_name, '')),
		a.title, a.description, a.date, a.location, a.status, a.created_at, a.updated_at
	FROM activities a
	LEFT JOIN users u ON u.id = a.created_by`

func scanActivity(row pgx.Row) (*models.Activity, error) {
	a := &models.Activity{}
	err := row.Scan(
		&a.ID, &a.FamilyID, &a.CreatedBy, &a.CreatedByName,
		&a.Title, &a.Description, &a.Date, &a.Location, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	return a, nil
}

// ListActivities returns a page of a family's activities, soonest first, and the total count
func (db *DB) ListActivities(ctx context.Context, familyID uuid.UUID, limit, offset int) ([]models.Activity, int, error) {
	var total int
	err := db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM activities WHERE family_id = $1", familyID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx, activitySelect+`
		WHERE a.family_id = $1
		ORDER BY a.date ASC, a.created_at ASC
		LIMIT $2 OFFSET $3
	`, familyID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, 0, err
		}
		activities = append(activities, *a)
	}

	return activities, total, rows.Err()
}

// GetActivity retrieves one of a family's activities
func (db *DB) GetActivity(ctx context.Context, familyID, id uuid.UUID) (*models.Activity, error) {
	return scanActivity(db.Pool.QueryRow(ctx, activitySelect+`
		WHERE a.id = $1 AND a.family_id = $2
	`, id, familyID))
}

// CreateActivity stores a new activity
func (db *DB) CreateActivity(ctx context.Context, a *models.Activity) error {
	return db.Pool.QueryRow(ctx, `
		INSERT INTO activities (id, family_id, created_by, title, description, date, location, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, a.ID, a.FamilyID, a.CreatedBy, a.Title, a.Description, a.Date, a.Location, a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

// UpdateActivity writes every editable field of a
func (db *DB) UpdateActivity(ctx context.Context, a *models.Activity) error {
	err := db.Pool.QueryRow(ctx, `
		UPDATE activities SET
			title = $3, description = $4, date = $5, location = $6, status = $7,
			updated_at = NOW()
		WHERE id = $1 AND family_id = $2
		RETURNING updated_at
	`, a.ID, a.FamilyID, a.Title, a.Description, a.Date, a.Location, a.Status,
	).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrActivityNotFound
	}
	return err
}

// DeleteActivity deletes one of a family's activities
func (db *DB) DeleteActivity(ctx context.Context, familyID, id uuid.UUID) error {
	result, err := db.Pool.Exec(ctx, "DELETE FROM activities WHERE id = $1 AND family_id = $2", id, familyID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrActivityNotFound
	}
	return nil
}
