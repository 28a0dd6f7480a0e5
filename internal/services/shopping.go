package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foxxcyber/family-organizer/internal/database"
	"github.com/foxxcyber/family-organizer/internal/models"
)

// DefaultQuantity is used for items that arrive without one
const DefaultQuantity = "1"

// ShoppingStore reads lists and runs save transactions
type ShoppingStore interface {
	FindShoppingList(ctx context.Context, familyID uuid.UUID, start, end time.Time) (*models.ShoppingList, error)
	RunShoppingTx(ctx context.Context, fn func(tx database.ShoppingTx) error) error
}

// GenerateShoppingItems collects the ingredients of meals into a shopping list.
// Ingredients are trimmed, blanks dropped, and exact duplicates removed while
// keeping first-seen order. Matching is case-sensitive.
func GenerateShoppingItems(meals []models.Meal, c *Categorizer) []models.ShoppingItem {
	seen := make(map[string]struct{})
	items := []models.ShoppingItem{}

	for _, meal := range meals {
		for _, ingredient := range meal.Ingredients {
			name := strings.TrimSpace(ingredient)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}

			items = append(items, models.ShoppingItem{
				Name:        name,
				Quantity:    DefaultQuantity,
				Category:    c.Categorize(name),
				IsPurchased: false,
			})
		}
	}

	return items
}

// ShoppingListService loads and replaces a family's weekly shopping list
type ShoppingListService struct {
	store  ShoppingStore
	manual *Categorizer
	logger *zap.Logger
}

func NewShoppingListService(store ShoppingStore, logger *zap.Logger) *ShoppingListService {
	return &ShoppingListService{
		store:  store,
		manual: ShoppingItemCategorizer(),
		logger: logger,
	}
}

// Load returns the family's list for the week, or database.ErrShoppingListNotFound.
func (s *ShoppingListService) Load(ctx context.Context, familyID uuid.UUID, window WeekWindow) (*models.ShoppingList, error) {
	return s.store.FindShoppingList(ctx, familyID, window.Start, window.End)
}

// Save replaces every item of the week's list with items, creating the list
// if the family has none for that week.
func (s *ShoppingListService) Save(ctx context.Context, familyID uuid.UUID, window WeekWindow, items []models.ShoppingItem) (*models.ShoppingList, error) {
	normalized := s.NormalizeItems(items)

	var saved *models.ShoppingList
	err := s.store.RunShoppingTx(ctx, func(tx database.ShoppingTx) error {
		if err := tx.LockWeek(ctx, familyID, window.Start); err != nil {
			return fmt.Errorf("failed to lock week: %w", err)
		}

		list, err := tx.FindShoppingList(ctx, familyID, window.Start, window.End)
		switch {
		case errors.Is(err, database.ErrShoppingListNotFound):
			list = &models.ShoppingList{
				ID:        uuid.New(),
				FamilyID:  familyID,
				Title:     ShoppingListTitle(window.Start),
				WeekStart: window.Start,
			}
			if err := tx.CreateShoppingList(ctx, list); err != nil {
				return fmt.Errorf("failed to create shopping list: %w", err)
			}
			s.logger.Info("created shopping list",
				zap.String("family_id", familyID.String()),
				zap.String("list_id", list.ID.String()))
		case err != nil:
			return fmt.Errorf("failed to find shopping list: %w", err)
		}

		stored, err := tx.ReplaceShoppingItems(ctx, list.ID, normalized)
		if err != nil {
			return fmt.Errorf("failed to replace shopping items: %w", err)
		}
		list.Items = stored
		saved = list
		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

// NormalizeItems trims names, drops unnamed items and fills in default
// quantity and category. Manual items are categorized by name.
func (s *ShoppingListService) NormalizeItems(items []models.ShoppingItem) []models.ShoppingItem {
	out := make([]models.ShoppingItem, 0, len(items))
	for _, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			continue
		}
		item.ID = nil
		item.Quantity = strings.TrimSpace(item.Quantity)
		if item.Quantity == "" {
			item.Quantity = DefaultQuantity
		}
		item.Category = strings.TrimSpace(item.Category)
		if item.Category == "" {
			if item.IsManual {
				item.Category = s.manual.Categorize(item.Name)
			} else {
				item.Category = models.CategoryOther
			}
		}
		out = append(out, ClipItem(item))
	}
	return out
}

// ClipItem cuts the text fields of item down to their column widths
func ClipItem(item models.ShoppingItem) models.ShoppingItem {
	item.Name = clip(item.Name, models.MaxItemNameLen)
	item.Quantity = clip(item.Quantity, models.MaxItemQuantityLen)
	item.Category = clip(item.Category, models.MaxItemCategoryLen)
	return item
}

// clip keeps at most n runes of s
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}

// ShoppingListTitle names a new list after its week
func ShoppingListTitle(weekStart time.Time) string {
	return "Shopping List - " + weekStart.Format("Jan 2, 2006")
}
