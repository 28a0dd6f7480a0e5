package models

import (
	"time"

	"github.com/google/uuid"
)

// CategoryOther is the fallback grocery category
const CategoryOther = "Other"

// Column widths of shopping_list_items
const (
	MaxItemNameLen     = 200
	MaxItemQuantityLen = 50
	MaxItemCategoryLen = 50
)

// ShoppingItem is an entry on a shopping list. ID is set only once persisted.
type ShoppingItem struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	Name        string     `json:"name" validate:"max=200"`
	Quantity    string     `json:"quantity" validate:"max=50"`
	Category    string     `json:"category" validate:"max=50"`
	IsPurchased bool       `json:"isPurchased"`
	IsManual    bool       `json:"isManual"`
}

// ShoppingList is the single list a family keeps for a week
type ShoppingList struct {
	ID        uuid.UUID      `json:"id"`
	FamilyID  uuid.UUID      `json:"familyId"`
	Title     string         `json:"title"`
	WeekStart time.Time      `json:"weekStartDate"`
	Items     []ShoppingItem `json:"items"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Request types

type SaveShoppingListRequest struct {
	WeekStart string         `json:"weekStart" validate:"required"`
	Items     []ShoppingItem `json:"items" validate:"max=500,dive"`
}

type ShoppingFromMealsRequest struct {
	WeekStart string `json:"weekStart" validate:"required"`
}

// ImportShoppingListRequest carries a pasted list, one item per line
type ImportShoppingListRequest struct {
	Content string `json:"content" validate:"required,max=20000"`
}
