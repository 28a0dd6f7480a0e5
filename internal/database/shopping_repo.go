package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/family-organizer/internal/models"
)

func findShoppingList(ctx context.Context, q querier, familyID uuid.UUID, start, end time.Time, forUpdate bool) (*models.ShoppingList, error) {
	query := `
		SELECT id, family_id, title, week_start, created_at, updated_at
		FROM shopping_lists
		WHERE family_id = $1 AND week_start >= $2 AND week_start < $3
		ORDER BY week_start ASC
		LIMIT 1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	list := &models.ShoppingList{}
	err := q.QueryRow(ctx, query, familyID, start, end).Scan(
		&list.ID, &list.FamilyID, &list.Title, &list.WeekStart, &list.CreatedAt, &list.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShoppingListNotFound
		}
		return nil, err
	}

	list.Items, err = listShoppingItems(ctx, q, list.ID)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func listShoppingItems(ctx context.Context, q querier, listID uuid.UUID) ([]models.ShoppingItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, name, quantity, category, is_purchased, is_manual
		FROM shopping_list_items
		WHERE list_id = $1
		ORDER BY position ASC
	`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.ShoppingItem{}
	for rows.Next() {
		var item models.ShoppingItem
		var id uuid.UUID
		if err := rows.Scan(&id, &item.Name, &item.Quantity, &item.Category, &item.IsPurchased, &item.IsManual); err != nil {
			return nil, err
		}
		item.ID = &id
		items = append(items, item)
	}

	return items, rows.Err()
}

func createShoppingList(ctx context.Context, q querier, list *models.ShoppingList) error {
	return q.QueryRow(ctx, `
		INSERT INTO shopping_lists (id, family_id, title, week_start)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, list.ID, list.FamilyID, list.Title, list.WeekStart).Scan(&list.CreatedAt, &list.UpdatedAt)
}

// replaceShoppingItems swaps the list's items for items, keeping their order
func replaceShoppingItems(ctx context.Context, q querier, listID uuid.UUID, items []models.ShoppingItem) ([]models.ShoppingItem, error) {
	if _, err := q.Exec(ctx, "DELETE FROM shopping_list_items WHERE list_id = $1", listID); err != nil {
		return nil, err
	}

	saved := make([]models.ShoppingItem, 0, len(items))
	for i, item := range items {
		id := uuid.New()
		_, err := q.Exec(ctx, `
			INSERT INTO shopping_list_items (id, list_id, position, name, quantity, category, is_purchased, is_manual)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, id, listID, i, item.Name, item.Quantity, item.Category, item.IsPurchased, item.IsManual)
		if err != nil {
			return nil, err
		}
		item.ID = &id
		saved = append(saved, item)
	}

	if _, err := q.Exec(ctx, "UPDATE shopping_lists SET updated_at = NOW() WHERE id = $1", listID); err != nil {
		return nil, err
	}
	return saved, nil
}

// FindShoppingList returns the family's list whose week starts in [start, end)
func (db *DB) FindShoppingList(ctx context.Context, familyID uuid.UUID, start, end time.Time) (*models.ShoppingList, error) {
	return findShoppingList(ctx, db.Pool, familyID, start, end, false)
}
