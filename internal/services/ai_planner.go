package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/foxxcyber/family-organizer/internal/models"
)

// AIShoppingCategories are the categories the AI shopping list may use
var AIShoppingCategories = []string{"Vegetables", "Fruits", "Meat", "Dairy", "Grains", "Pantry", "Other"}

// MealPlanOptions constrain an AI generated meal plan
type MealPlanOptions struct {
	Window               WeekWindow
	Cuisine              []string
	DietaryRestrictions  []string
	NumberOfPeople       int
	NumberOfDays         int
	AvailableIngredients []string
	ExcludeIngredients   []string
}

// GeneratedMeal is one element of the AI meal plan reply
type GeneratedMeal struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	MealType     string          `json:"mealType"`
	Date         string          `json:"date"`
	Ingredients  []string        `json:"ingredients"`
	Instructions string          `json:"instructions"`
	Calories     json.RawMessage `json:"calories"`
	Cuisine      string          `json:"cuisine"`
}

// GeneratedShoppingItem is one element of the AI shopping list reply
type GeneratedShoppingItem struct {
	Name     string          `json:"name"`
	Quantity json.RawMessage `json:"quantity"`
	Category string          `json:"category"`
}

// MealPlanGenerator asks the AI for a week of meals and turns the reply into drafts
type MealPlanGenerator struct {
	gen    ContentGenerator
	logger *zap.Logger
}

func NewMealPlanGenerator(gen ContentGenerator, logger *zap.Logger) *MealPlanGenerator {
	return &MealPlanGenerator{gen: gen, logger: logger}
}

// Generate prompts the AI and returns drafts for the meals it proposed.
// Meals with an unknown type or a date outside the week are skipped with a warning.
func (g *MealPlanGenerator) Generate(ctx context.Context, opts MealPlanOptions) ([]MealDraft, []string, error) {
	if g.gen == nil {
		return nil, nil, ErrAIUnavailable
	}
	opts = withMealPlanDefaults(opts)

	reply, err := g.gen.GenerateContent(ctx, BuildMealPlanPrompt(opts))
	if err != nil {
		return nil, nil, err
	}

	meals, err := ParseGeneratedMeals(reply)
	if err != nil {
		g.logger.Warn("rejected AI meal plan", zap.Error(err), zap.Int("reply_bytes", len(reply)))
		return nil, nil, err
	}

	var (
		drafts   []MealDraft
		warnings []string
	)
	for i, gm := range meals {
		mt, ok := models.ParseMealType(gm.MealType)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("Skipped generated meal %d: unknown meal type %q", i+1, gm.MealType))
			continue
		}
		date, err := ParseDate(gm.Date)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Skipped generated meal %d: invalid date %q", i+1, gm.Date))
			continue
		}
		idx, ok := opts.Window.DayIndex(date)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("Skipped generated meal %d: %s is outside the week", i+1, gm.Date))
			continue
		}

		drafts = append(drafts, MealDraft{
			Day: DayLabels[idx],
			Meal: models.Meal{
				Title:         strings.TrimSpace(gm.Title),
				Description:   gm.Description,
				MealType:      mt,
				Date:          opts.Window.Day(idx),
				Ingredients:   cleanIngredients(gm.Ingredients),
				Instructions:  gm.Instructions,
				Calories:      CoerceCalories(gm.Calories),
				Cuisine:       gm.Cuisine,
				IsAIGenerated: true,
			},
		})
	}

	return drafts, warnings, nil
}

// ParseGeneratedMeals decodes the AI reply. The whole batch is rejected if any
// meal lacks a title, meal type, ingredients or date.
func ParseGeneratedMeals(reply string) ([]GeneratedMeal, error) {
	raw, err := extractJSONArray(reply)
	if err != nil {
		return nil, err
	}

	var meals []GeneratedMeal
	if err := json.Unmarshal([]byte(raw), &meals); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAIResponse, err)
	}

	for i, m := range meals {
		if strings.TrimSpace(m.Title) == "" || strings.TrimSpace(m.MealType) == "" ||
			m.Ingredients == nil || strings.TrimSpace(m.Date) == "" {
			return nil, fmt.Errorf("%w: meal %d is missing required fields", ErrInvalidAIResponse, i+1)
		}
	}
	return meals, nil
}

// BuildMealPlanPrompt describes the requested plan and the expected JSON shape
func BuildMealPlanPrompt(opts MealPlanOptions) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Create a meal plan for %d people covering %d days, starting on %s.\n",
		opts.NumberOfPeople, opts.NumberOfDays, opts.Window.Start.Format("2006-01-02"))
	b.WriteString("Plan BREAKFAST, LUNCH and DINNER for every day.\n")

	writeList(&b, "Preferred cuisines", opts.Cuisine)
	writeList(&b, "Dietary restrictions", opts.DietaryRestrictions)
	writeList(&b, "Use these available ingredients where possible", opts.AvailableIngredients)
	writeList(&b, "Never use these ingredients", opts.ExcludeIngredients)

	b.WriteString(`
Respond with only a JSON array, no prose. Each element must look like:
{
  "title": "Meal name",
  "description": "One sentence description",
  "mealType": "BREAKFAST" | "LUNCH" | "DINNER",
  "date": "YYYY-MM-DD",
  "ingredients": ["ingredient 1", "ingredient 2"],
  "instructions": "Step by step instructions",
  "calories": 450,
  "cuisine": "Cuisine name"
}
`)
	return b.String()
}

func withMealPlanDefaults(opts MealPlanOptions) MealPlanOptions {
	if opts.NumberOfPeople < 1 {
		opts.NumberOfPeople = 4
	}
	if opts.NumberOfDays < 1 || opts.NumberOfDays > DaysPerWeek {
		opts.NumberOfDays = DaysPerWeek
	}
	return opts
}

// ShoppingGenerator asks the AI to consolidate a week of meals into a shopping list
type ShoppingGenerator struct {
	gen    ContentGenerator
	logger *zap.Logger
}

func NewShoppingGenerator(gen ContentGenerator, logger *zap.Logger) *ShoppingGenerator {
	return &ShoppingGenerator{gen: gen, logger: logger}
}

// Generate returns the AI's shopping list for meals and a household of familySize
func (g *ShoppingGenerator) Generate(ctx context.Context, meals []models.Meal, familySize int) ([]models.ShoppingItem, error) {
	if g.gen == nil {
		return nil, ErrAIUnavailable
	}
	if familySize < 1 {
		familySize = 1
	}

	reply, err := g.gen.GenerateContent(ctx, BuildShoppingPrompt(meals, familySize))
	if err != nil {
		return nil, err
	}

	generated, err := ParseGeneratedShoppingItems(reply)
	if err != nil {
		g.logger.Warn("rejected AI shopping list", zap.Error(err))
		return nil, err
	}

	items := make([]models.ShoppingItem, 0, len(generated))
	for _, gi := range generated {
		items = append(items, ClipItem(models.ShoppingItem{
			Name:     strings.TrimSpace(gi.Name),
			Quantity: quantityText(gi.Quantity),
			Category: knownCategory(gi.Category),
		}))
	}
	return items, nil
}

// ParseGeneratedShoppingItems decodes the AI reply. The whole batch is rejected
// if any item lacks a name or category.
func ParseGeneratedShoppingItems(reply string) ([]GeneratedShoppingItem, error) {
	raw, err := extractJSONArray(reply)
	if err != nil {
		return nil, err
	}

	var items []GeneratedShoppingItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAIResponse, err)
	}

	for i, it := range items {
		if strings.TrimSpace(it.Name) == "" || strings.TrimSpace(it.Category) == "" {
			return nil, fmt.Errorf("%w: item %d is missing required fields", ErrInvalidAIResponse, i+1)
		}
	}
	return items, nil
}

// BuildShoppingPrompt lists the meals and asks for a consolidated list
func BuildShoppingPrompt(meals []models.Meal, familySize int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Create a consolidated shopping list for a family of %d for these meals:\n", familySize)
	for _, m := range meals {
		fmt.Fprintf(&b, "- %s (%s, %s): %s\n",
			m.Title, m.MealType, m.Date.Format("Mon Jan 2"), strings.Join(m.Ingredients, ", "))
	}

	fmt.Fprintf(&b, `
Combine duplicate ingredients and scale quantities for the family size.
Use only these categories: %s.
Respond with only a JSON array, no prose. Each element must look like:
{"name": "Item name", "quantity": "2 lbs", "category": "Vegetables"}
`, strings.Join(AIShoppingCategories, ", "))
	return b.String()
}

func knownCategory(c string) string {
	c = strings.TrimSpace(c)
	for _, known := range AIShoppingCategories {
		if strings.EqualFold(c, known) {
			return known
		}
	}
	return models.CategoryOther
}

func writeList(b *strings.Builder, label string, values []string) {
	var kept []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s.\n", label, strings.Join(kept, ", "))
}

// quantityText accepts a quantity given as a string or a bare number
func quantityText(raw json.RawMessage) string {
	var v interface{}
	if len(raw) > 0 && json.Unmarshal(raw, &v) == nil {
		switch q := v.(type) {
		case string:
			if q = strings.TrimSpace(q); q != "" {
				return q
			}
		case float64:
			return strconv.FormatFloat(q, 'f', -1, 64)
		}
	}
	return DefaultQuantity
}

func cleanIngredients(values []string) []string {
	out := []string{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
