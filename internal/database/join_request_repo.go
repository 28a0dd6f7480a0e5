package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/family-organizer/internal/models"
)

const joinRequestColumns = "id, family_id, user_id, status, created_at, responded_at"

func scanJoinRequest(row pgx.Row) (*models.JoinRequest, error) {
	r := &models.JoinRequest{}
	err := row.Scan(&r.ID, &r.FamilyID, &r.UserID, &r.Status, &r.CreatedAt, &r.RespondedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJoinRequestNotFound
		}
		return nil, err
	}
	return r, nil
}

// ListPendingJoinRequests returns a family's pending requests with requester details
func (db *DB) ListPendingJoinRequests(ctx context.Context, familyID uuid.UUID) ([]models.JoinRequest, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT
			jr.id, jr.family_id, jr.user_id, jr.status, jr.created_at, jr.responded_at,
			u.first_name, u.last_name, u.email, u.role
		FROM family_join_requests jr
		JOIN users u ON u.id = jr.user_id
		WHERE jr.family_id = $1 AND jr.status = 'PENDING'
		ORDER BY jr.created_at ASC
	`, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.JoinRequest{}
	for rows.Next() {
		var r models.JoinRequest
		u := &models.FamilyMember{}
		err := rows.Scan(
			&r.ID, &r.FamilyID, &r.UserID, &r.Status, &r.CreatedAt, &r.RespondedAt,
			&u.FirstName, &u.LastName, &u.Email, &u.Role,
		)
		if err != nil {
			return nil, err
		}
		u.ID = r.UserID
		r.User = u
		requests = append(requests, r)
	}

	return requests, rows.Err()
}
