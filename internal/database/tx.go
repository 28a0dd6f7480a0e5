package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/family-organizer/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserHasFamily        = errors.New("user already belongs to a family")
	ErrFamilyNotFound       = errors.New("family not found")
	ErrMemberNotFound       = errors.New("family member not found")
	ErrJoinRequestNotFound  = errors.New("join request not found")
	ErrMealNotFound         = errors.New("meal not found")
	ErrShoppingListNotFound = errors.New("shopping list not found")
	ErrActivityNotFound     = errors.New("activity not found")
)

// MealTx is the unit of work a week save runs in. A failed InsertMeal leaves
// the unit usable for further inserts.
type MealTx interface {
	LockWeek(ctx context.Context, familyID uuid.UUID, weekStart time.Time) error
	DeleteMealsInRange(ctx context.Context, familyID uuid.UUID, start, end time.Time) (int64, error)
	InsertMeal(ctx context.Context, meal *models.Meal) error
}

// ShoppingTx is the unit of work a shopping list save runs in
type ShoppingTx interface {
	LockWeek(ctx context.Context, familyID uuid.UUID, weekStart time.Time) error
	FindShoppingList(ctx context.Context, familyID uuid.UUID, start, end time.Time) (*models.ShoppingList, error)
	CreateShoppingList(ctx context.Context, list *models.ShoppingList) error
	ReplaceShoppingItems(ctx context.Context, listID uuid.UUID, items []models.ShoppingItem) ([]models.ShoppingItem, error)
}

// FamilyTx is the unit of work membership changes run in
type FamilyTx interface {
	FindFamilyByInviteCode(ctx context.Context, code string) (*models.Family, error)
	GetFamilyForUpdate(ctx context.Context, familyID uuid.UUID) (*models.Family, error)
	CountFamilyMembers(ctx context.Context, familyID uuid.UUID) (int, error)
	AssignUserToFamily(ctx context.Context, userID, familyID uuid.UUID, role models.Role) error
	SetFamilyInvite(ctx context.Context, familyID uuid.UUID, code *string, expiry *time.Time) error
	FindPendingJoinRequest(ctx context.Context, familyID, userID uuid.UUID) (*models.JoinRequest, error)
	GetJoinRequestForUpdate(ctx context.Context, familyID, requestID uuid.UUID) (*models.JoinRequest, error)
	CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error
	UpdateJoinRequestStatus(ctx context.Context, req *models.JoinRequest) error
}

// RunMealTx runs fn in a transaction
func (db *DB) RunMealTx(ctx context.Context, fn func(tx MealTx) error) error {
	return db.withTx(ctx, func(tx pgx.Tx) error {
		return fn(&mealTx{tx: tx})
	})
}

// RunShoppingTx runs fn in a transaction
func (db *DB) RunShoppingTx(ctx context.Context, fn func(tx ShoppingTx) error) error {
	return db.withTx(ctx, func(tx pgx.Tx) error {
		return fn(&shoppingTx{tx: tx})
	})
}

// RunFamilyTx runs fn in a transaction
func (db *DB) RunFamilyTx(ctx context.Context, fn func(tx FamilyTx) error) error {
	return db.withTx(ctx, func(tx pgx.Tx) error {
		return fn(&familyTx{tx: tx})
	})
}

type mealTx struct {
	tx pgx.Tx
}

func (m *mealTx) LockWeek(ctx context.Context, familyID uuid.UUID, weekStart time.Time) error {
	return lockWeek(ctx, m.tx, "meals", familyID, weekStart)
}

func (m *mealTx) DeleteMealsInRange(ctx context.Context, familyID uuid.UUID, start, end time.Time) (int64, error) {
	return deleteMealsInRange(ctx, m.tx, familyID, start, end)
}

func (m *mealTx) InsertMeal(ctx context.Context, meal *models.Meal) error {
	return savepoint(ctx, m.tx, func(q querier) error {
		return insertMeal(ctx, q, meal)
	})
}

type shoppingTx struct {
	tx pgx.Tx
}

func (s *shoppingTx) LockWeek(ctx context.Context, familyID uuid.UUID, weekStart time.Time) error {
	return lockWeek(ctx, s.tx, "shopping", familyID, weekStart)
}

func (s *shoppingTx) FindShoppingList(ctx context.Context, familyID uuid.UUID, start, end time.Time) (*models.ShoppingList, error) {
	return findShoppingList(ctx, s.tx, familyID, start, end, true)
}

func (s *shoppingTx) CreateShoppingList(ctx context.Context, list *models.ShoppingList) error {
	return createShoppingList(ctx, s.tx, list)
}

func (s *shoppingTx) ReplaceShoppingItems(ctx context.Context, listID uuid.UUID, items []models.ShoppingItem) ([]models.ShoppingItem, error) {
	return replaceShoppingItems(ctx, s.tx, listID, items)
}

type familyTx struct {
	tx pgx.Tx
}

func (f *familyTx) FindFamilyByInviteCode(ctx context.Context, code string) (*models.Family, error) {
	return scanFamily(f.tx.QueryRow(ctx,
		"SELECT "+familyColumns+" FROM families WHERE invite_code = $1", code))
}

func (f *familyTx) GetFamilyForUpdate(ctx context.Context, familyID uuid.UUID) (*models.Family, error) {
	return scanFamily(f.tx.QueryRow(ctx,
		"SELECT "+familyColumns+" FROM families WHERE id = $1 FOR UPDATE", familyID))
}

func (f *familyTx) CountFamilyMembers(ctx context.Context, familyID uuid.UUID) (int, error) {
	return countFamilyMembers(ctx, f.tx, familyID)
}

func (f *familyTx) AssignUserToFamily(ctx context.Context, userID, familyID uuid.UUID, role models.Role) error {
	result, err := f.tx.Exec(ctx, `
		UPDATE users SET family_id = $2, role = $3, updated_at = NOW()
		WHERE id = $1 AND family_id IS NULL
	`, userID, familyID, role)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserHasFamily
	}
	return nil
}

func (f *familyTx) SetFamilyInvite(ctx context.Context, familyID uuid.UUID, code *string, expiry *time.Time) error {
	result, err := f.tx.Exec(ctx, `
		UPDATE families SET invite_code = $2, invite_expiry = $3, updated_at = NOW()
		WHERE id = $1
	`, familyID, code, expiry)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrFamilyNotFound
	}
	return nil
}

func (f *familyTx) FindPendingJoinRequest(ctx context.Context, familyID, userID uuid.UUID) (*models.JoinRequest, error) {
	return scanJoinRequest(f.tx.QueryRow(ctx, `
		SELECT `+joinRequestColumns+` FROM family_join_requests
		WHERE family_id = $1 AND user_id = $2 AND status = 'PENDING'
	`, familyID, userID))
}

func (f *familyTx) GetJoinRequestForUpdate(ctx context.Context, familyID, requestID uuid.UUID) (*models.JoinRequest, error) {
	return scanJoinRequest(f.tx.QueryRow(ctx, `
		SELECT `+joinRequestColumns+` FROM family_join_requests
		WHERE id = $1 AND family_id = $2
		FOR UPDATE
	`, requestID, familyID))
}

func (f *familyTx) CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error {
	return f.tx.QueryRow(ctx, `
		INSERT INTO family_join_requests (id, family_id, user_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, req.ID, req.FamilyID, req.UserID, req.Status).Scan(&req.CreatedAt)
}

func (f *familyTx) UpdateJoinRequestStatus(ctx context.Context, req *models.JoinRequest) error {
	result, err := f.tx.Exec(ctx, `
		UPDATE family_join_requests SET status = $2, responded_at = $3
		WHERE id = $1
	`, req.ID, req.Status, req.RespondedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrJoinRequestNotFound
	}
	return nil
}
