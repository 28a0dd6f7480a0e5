package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/family-organizer/internal/models"
)

const familyColumns = "id, name, owner_id, invite_code, invite_expiry, max_members, created_at, updated_at"

func scanFamily(row pgx.Row) (*models.Family, error) {
	f := &models.Family{}
	err := row.Scan(&f.ID, &f.Name, &f.OwnerID, &f.InviteCode, &f.InviteExpiry, &f.MaxMembers, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFamilyNotFound
		}
		return nil, err
	}
	return f, nil
}

func countFamilyMembers(ctx context.Context, q querier, familyID uuid.UUID) (int, error) {
	var count int
	err := q.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE family_id = $1", familyID).Scan(&count)
	return count, err
}

// CreateFamily creates a family owned by ownerID and moves the owner into it
func (db *DB) CreateFamily(ctx context.Context, ownerID uuid.UUID, name string, maxMembers int) (*models.Family, error) {
	var family *models.Family

	err := db.withTx(ctx, func(tx pgx.Tx) error {
		var current *uuid.UUID
		err := tx.QueryRow(ctx, "SELECT family_id FROM users WHERE id = $1 FOR UPDATE", ownerID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}
		if current != nil {
			return ErrUserHasFamily
		}

		family, err = scanFamily(tx.QueryRow(ctx, `
			INSERT INTO families (id, name, owner_id, max_members)
			VALUES ($1, $2, $3, $4)
			RETURNING `+familyColumns,
			uuid.New(), name, ownerID, maxMembers,
		))
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE users SET family_id = $2, role = $3, updated_at = NOW() WHERE id = $1
		`, ownerID, family.ID, models.RoleOwner)
		return err
	})
	if err != nil {
		return nil, err
	}

	return family, nil
}

// GetFamilyByID retrieves a family by ID
func (db *DB) GetFamilyByID(ctx context.Context, id uuid.UUID) (*models.Family, error) {
	return scanFamily(db.Pool.QueryRow(ctx,
		"SELECT "+familyColumns+" FROM families WHERE id = $1", id))
}

// GetFamilyWithMembers loads a family and its members as seen by viewerID.
// The invite code is only included for the owner.
func (db *DB) GetFamilyWithMembers(ctx context.Context, id, viewerID uuid.UUID) (*models.FamilyWithMembers, error) {
	family, err := db.GetFamilyByID(ctx, id)
	if err != nil {
		return nil, err
	}

	members, err := db.ListFamilyMembers(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &models.FamilyWithMembers{
		Family:  *family,
		Members: members,
		IsOwner: family.OwnerID == viewerID,
	}
	for i := range members {
		if members[i].ID == family.OwnerID {
			out.Owner = &members[i]
			break
		}
	}
	if !out.IsOwner {
		out.InviteCode = nil
		out.InviteExpiry = nil
	}

	return out, nil
}

// ListFamilyMembers returns a family's members, owner first
func (db *DB) ListFamilyMembers(ctx context.Context, familyID uuid.UUID) ([]models.FamilyMember, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, first_name, last_name, email, role
		FROM users
		WHERE family_id = $1
		ORDER BY (role = 'OWNER') DESC, created_at ASC
	`, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []models.FamilyMember{}
	for rows.Next() {
		var m models.FamilyMember
		if err := rows.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.Role); err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// CountFamilyMembers returns the number of users in a family
func (db *DB) CountFamilyMembers(ctx context.Context, familyID uuid.UUID) (int, error) {
	return countFamilyMembers(ctx, db.Pool, familyID)
}

// GetFamilyMember returns one member of a family
func (db *DB) GetFamilyMember(ctx context.Context, familyID, memberID uuid.UUID) (*models.FamilyMember, error) {
	m := &models.FamilyMember{}
	err := db.Pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, role
		FROM users
		WHERE id = $1 AND family_id = $2
	`, memberID, familyID).Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return m, nil
}

// RenameFamily updates a family's name
func (db *DB) RenameFamily(ctx context.Context, id uuid.UUID, name string) (*models.Family, error) {
	return scanFamily(db.Pool.QueryRow(ctx, `
		UPDATE families SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+familyColumns,
		id, name,
	))
}

// DeleteFamily detaches every member and deletes the family
func (db *DB) DeleteFamily(ctx context.Context, id uuid.UUID) error {
	return db.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE users SET family_id = NULL, role = $2, updated_at = NOW()
			WHERE family_id = $1
		`, id, models.RoleParent)
		if err != nil {
			return err
		}

		result, err := tx.Exec(ctx, "DELETE FROM families WHERE id = $1", id)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrFamilyNotFound
		}
		return nil
	})
}

// RemoveFamilyMember detaches a non-owner member from the family
func (db *DB) RemoveFamilyMember(ctx context.Context, familyID, memberID uuid.UUID) error {
	result, err := db.Pool.Exec(ctx, `
		UPDATE users SET family_id = NULL, role = $3, updated_at = NOW()
		WHERE id = $1 AND family_id = $2 AND role <> 'OWNER'
	`, memberID, familyID, models.RoleParent)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// UpdateMemberRole sets the role of a non-owner member
func (db *DB) UpdateMemberRole(ctx context.Context, familyID, memberID uuid.UUID, role models.Role) error {
	result, err := db.Pool.Exec(ctx, `
		UPDATE users SET role = $3, updated_at = NOW()
		WHERE id = $1 AND family_id = $2 AND role <> 'OWNER'
	`, memberID, familyID, role)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}
