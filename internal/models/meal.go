package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MealType is the slot a meal occupies in a day
type MealType string

const (
	MealTypeBreakfast MealType = "BREAKFAST"
	MealTypeLunch     MealType = "LUNCH"
	MealTypeDinner    MealType = "DINNER"
	MealTypeSnack     MealType = "SNACK"
)

// PlannableMealTypes are the meal types shown in the weekly grid, in display order.
var PlannableMealTypes = []MealType{MealTypeBreakfast, MealTypeLunch, MealTypeDinner}

// ParseMealType uppercases s and checks it against the known meal types.
func ParseMealType(s string) (MealType, bool) {
	mt := MealType(strings.ToUpper(strings.TrimSpace(s)))
	switch mt {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack:
		return mt, true
	}
	return "", false
}

// Plannable reports whether the meal type has a row in the weekly grid.
func (t MealType) Plannable() bool {
	return t == MealTypeBreakfast || t == MealTypeLunch || t == MealTypeDinner
}

// Meal is a single planned meal
type Meal struct {
	ID            uuid.UUID `json:"id"`
	FamilyID      uuid.UUID `json:"familyId"`
	CreatedBy     uuid.UUID `json:"createdBy"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	MealType      MealType  `json:"mealType"`
	Date          time.Time `json:"date"`
	Ingredients   []string  `json:"ingredients"`
	Instructions  string    `json:"instructions"`
	Calories      *int      `json:"calories"`
	Cuisine       string    `json:"cuisine"`
	IsAIGenerated bool      `json:"isAiGenerated"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ClientGrid is a week of meals as submitted by a client: day label to meal
// type to a cell that is empty, a title string, or a meal object. Days and
// slots may be missing.
type ClientGrid map[string]map[string]json.RawMessage

// Request types

type CreateMealRequest struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Description  string   `json:"description" validate:"max=2000"`
	MealType     string   `json:"mealType" validate:"required"`
	Date         string   `json:"date" validate:"required"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
	Calories     *int     `json:"calories" validate:"omitempty,min=0"`
	Cuisine      string   `json:"cuisine" validate:"max=100"`
}

type UpdateMealRequest struct {
	Title        *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string   `json:"description" validate:"omitempty,max=2000"`
	MealType     *string   `json:"mealType"`
	Date         *string   `json:"date"`
	Ingredients  *[]string `json:"ingredients"`
	Instructions *string   `json:"instructions"`
	Calories     *int      `json:"calories" validate:"omitempty,min=0"`
	Cuisine      *string   `json:"cuisine" validate:"omitempty,max=100"`
}

type SaveMealPlanRequest struct {
	WeekStart string     `json:"weekStart" validate:"required"`
	MealPlan  ClientGrid `json:"mealPlan" validate:"required"`
}

// GenerateMealPlanRequest holds the constraints passed to the AI planner
type GenerateMealPlanRequest struct {
	WeekStart            string   `json:"weekStart"`
	Cuisine              []string `json:"cuisine" validate:"max=10,dive,max=50"`
	DietaryRestrictions  []string `json:"dietaryRestrictions" validate:"max=10,dive,max=50"`
	NumberOfPeople       int      `json:"numberOfPeople" validate:"omitempty,min=1,max=20"`
	NumberOfDays         int      `json:"numberOfDays" validate:"omitempty,min=1,max=7"`
	AvailableIngredients []string `json:"availableIngredients" validate:"max=50,dive,max=100"`
	ExcludeIngredients   []string `json:"excludeIngredients" validate:"max=50,dive,max=100"`
}
