package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foxxcyber/family-organizer/internal/database"
	"github.com/foxxcyber/family-organizer/internal/models"
)

// MealPlanStore runs fn in a single transaction, committing if fn returns nil.
type MealPlanStore interface {
	RunMealTx(ctx context.Context, fn func(tx database.MealTx) error) error
}

// MealDraft is a normalized meal waiting to be inserted
type MealDraft struct {
	Day  string
	Meal models.Meal
}

// SaveWeekInput is a client grid submission
type SaveWeekInput struct {
	WeekStart time.Time
	Grid      models.ClientGrid
	FamilyID  uuid.UUID
	ActorID   uuid.UUID
}

// SaveWeekResult holds the meals persisted and the per-cell problems hit on the way
type SaveWeekResult struct {
	Saved    []models.Meal
	Warnings []string
	Deleted  int64
}

// MealPlanSaver replaces a family's week of meals
type MealPlanSaver struct {
	store  MealPlanStore
	logger *zap.Logger
}

func NewMealPlanSaver(store MealPlanStore, logger *zap.Logger) *MealPlanSaver {
	return &MealPlanSaver{store: store, logger: logger}
}

// SaveWeek normalizes the grid and replaces the week with its non-empty cells.
func (s *MealPlanSaver) SaveWeek(ctx context.Context, in SaveWeekInput) (*SaveWeekResult, error) {
	window := NewWeekWindow(in.WeekStart)
	drafts, warnings := DraftsFromGrid(in.Grid, window)

	result, err := s.ReplaceWeek(ctx, in.FamilyID, in.ActorID, window, drafts)
	if err != nil {
		return nil, err
	}
	result.Warnings = append(warnings, result.Warnings...)
	return result, nil
}

// ReplaceWeek deletes the family's meals in window and inserts drafts in one
// transaction. A failed insert becomes a warning; a failed delete aborts.
func (s *MealPlanSaver) ReplaceWeek(ctx context.Context, familyID, actorID uuid.UUID, window WeekWindow, drafts []MealDraft) (*SaveWeekResult, error) {
	result := &SaveWeekResult{}

	err := s.store.RunMealTx(ctx, func(tx database.MealTx) error {
		if err := tx.LockWeek(ctx, familyID, window.Start); err != nil {
			return fmt.Errorf("failed to lock week: %w", err)
		}

		deleted, err := tx.DeleteMealsInRange(ctx, familyID, window.Start, window.End)
		if err != nil {
			s.logger.Error("failed to clear week before save",
				zap.String("family_id", familyID.String()),
				zap.Time("week_start", window.Start),
				zap.Error(err))
			return fmt.Errorf("failed to clear week: %w", err)
		}
		result.Deleted = deleted

		for _, d := range drafts {
			meal := d.Meal
			meal.ID = uuid.New()
			meal.FamilyID = familyID
			meal.CreatedBy = actorID

			if err := tx.InsertMeal(ctx, &meal); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				s.logger.Warn("failed to save meal",
					zap.String("day", d.Day),
					zap.String("meal_type", string(meal.MealType)),
					zap.Error(err))
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Failed to save %s %s: %v", d.Day, meal.MealType, err))
				continue
			}
			result.Saved = append(result.Saved, meal)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DraftsFromGrid turns the non-empty cells of a client grid into drafts dated
// within window. Cells are visited Monday to Sunday, breakfast to dinner.
// Blank cells are skipped silently; malformed ones produce warnings.
func DraftsFromGrid(grid models.ClientGrid, window WeekWindow) ([]MealDraft, []string) {
	var (
		drafts   []MealDraft
		warnings []string
		byDay    [DaysPerWeek]map[string]json.RawMessage
	)

	keys := make([]string, 0, len(grid))
	for k := range grid {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		idx, ok := DayIndexOf(k)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("Skipped unknown day %q", k))
			continue
		}
		if byDay[idx] != nil {
			warnings = append(warnings, fmt.Sprintf("Skipped duplicate day %q", k))
			continue
		}
		byDay[idx] = grid[k]
	}

	for idx, cells := range byDay {
		if cells == nil {
			continue
		}
		day := DayLabels[idx]

		slots := make(map[models.MealType]json.RawMessage, len(cells))
		cellKeys := make([]string, 0, len(cells))
		for k := range cells {
			cellKeys = append(cellKeys, k)
		}
		sort.Strings(cellKeys)
		for _, k := range cellKeys {
			mt, ok := models.ParseMealType(k)
			if !ok || !mt.Plannable() {
				warnings = append(warnings, fmt.Sprintf("Skipped %s %q: unknown meal type", day, k))
				continue
			}
			slots[mt] = cells[k]
		}

		for _, mt := range models.PlannableMealTypes {
			raw, ok := slots[mt]
			if !ok {
				continue
			}

			meal, present, err := NormalizeCell(raw)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("Failed to save %s %s: %v", day, mt, err))
				continue
			}
			if !present {
				continue
			}

			meal.MealType = mt
			meal.Date = window.Day(idx)
			drafts = append(drafts, MealDraft{Day: day, Meal: meal})
		}
	}

	return drafts, warnings
}

type mealCell struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Ingredients   json.RawMessage `json:"ingredients"`
	Instructions  string          `json:"instructions"`
	Calories      json.RawMessage `json:"calories"`
	Cuisine       string          `json:"cuisine"`
	IsAIGenerated bool            `json:"isAiGenerated"`
}

// NormalizeCell decodes one grid cell. present is false for empty cells,
// blank strings and objects with a blank title.
func NormalizeCell(raw json.RawMessage) (meal models.Meal, present bool, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return models.Meal{}, false, nil
	}

	switch trimmed[0] {
	case '"':
		var title string
		if err := json.Unmarshal(trimmed, &title); err != nil {
			return models.Meal{}, false, fmt.Errorf("invalid title: %w", err)
		}
		title = strings.TrimSpace(title)
		if title == "" {
			return models.Meal{}, false, nil
		}
		return models.Meal{Title: title, Ingredients: []string{}}, true, nil

	case '{':
		var cell mealCell
		if err := json.Unmarshal(trimmed, &cell); err != nil {
			return models.Meal{}, false, fmt.Errorf("invalid meal: %w", err)
		}
		title := strings.TrimSpace(cell.Title)
		if title == "" {
			return models.Meal{}, false, nil
		}
		return models.Meal{
			Title:         title,
			Description:   cell.Description,
			Ingredients:   CoerceIngredients(cell.Ingredients),
			Instructions:  cell.Instructions,
			Calories:      CoerceCalories(cell.Calories),
			Cuisine:       cell.Cuisine,
			IsAIGenerated: cell.IsAIGenerated,
		}, true, nil
	}

	return models.Meal{}, false, errors.New("unsupported cell value")
}

// CoerceIngredients accepts an array of strings or a single string. Anything
// else yields an empty list. Non-string and blank entries are dropped.
func CoerceIngredients(raw json.RawMessage) []string {
	out := []string{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return out
	}

	switch trimmed[0] {
	case '"':
		var s string
		if json.Unmarshal(trimmed, &s) == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case '[':
		var items []interface{}
		if json.Unmarshal(trimmed, &items) != nil {
			return out
		}
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}

	return out
}

// CoerceCalories reads a non-negative integer from a number or a string with
// a leading number ("450", "+450", "450 kcal"). Anything else is nil.
func CoerceCalories(raw json.RawMessage) *int {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}

	var v interface{}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil
	}

	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) || val < 0 || val > math.MaxInt32 {
			return nil
		}
		n := int(val)
		return &n
	case string:
		s := strings.TrimPrefix(strings.TrimSpace(val), "+")
		end := 0
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		if end == 0 {
			return nil
		}
		n, err := strconv.Atoi(s[:end])
		if err != nil || n > math.MaxInt32 {
			return nil
		}
		return &n
	}

	return nil
}
