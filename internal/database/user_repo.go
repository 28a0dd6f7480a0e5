package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/family-organizer/internal/models"
)

const userColumns = "id, external_id, email, first_name, last_name, role, family_id, created_at, updated_at"

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.FamilyID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// EnsureUser returns the local user for an identity, creating it on first sight
func (db *DB) EnsureUser(ctx context.Context, id models.Identity) (*models.User, error) {
	user, err := db.GetUserByExternalID(ctx, id.ExternalID)
	if err == nil || !errors.Is(err, ErrUserNotFound) {
		return user, err
	}

	// A concurrent first request may have inserted the row already
	return scanUser(db.Pool.QueryRow(ctx, `
		INSERT INTO users (id, external_id, email, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_id) DO UPDATE SET external_id = EXCLUDED.external_id
		RETURNING `+userColumns,
		uuid.New(), id.ExternalID, id.Email, id.FirstName, id.LastName, models.RoleParent,
	))
}

// GetUserByExternalID looks a user up by identity provider id
func (db *DB) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return scanUser(db.Pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE external_id = $1", externalID))
}

// UpdateUserName changes the fields of req that are set
func (db *DB) UpdateUserName(ctx context.Context, id uuid.UUID, req *models.UpdateUserRequest) (*models.User, error) {
	return scanUser(db.Pool.QueryRow(ctx, `
		UPDATE users SET
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, req.FirstName, req.LastName,
	))
}
