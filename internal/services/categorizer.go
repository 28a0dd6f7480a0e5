package services

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/foxxcyber/family-organizer/internal/models"
)

// Names of the built-in category tables
const (
	MealIngredientTable = "meal-ingredients"
	ShoppingItemTable   = "shopping-items"
)

//go:embed categories.yaml
var categoriesYAML []byte

var builtinTables = mustLoadCategoryTables(categoriesYAML)

// CategoryRule maps a set of keywords to one category
type CategoryRule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// CategoryTable is an ordered list of rules. Earlier rules win.
type CategoryTable []CategoryRule

// Categorizer files free-text ingredient names into grocery categories
type Categorizer struct {
	table CategoryTable
}

// NewCategorizer creates a categorizer over a copy of table with lowercased keywords.
func NewCategorizer(table CategoryTable) *Categorizer {
	normalized := make(CategoryTable, 0, len(table))
	for _, rule := range table {
		keywords := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			keywords = append(keywords, kw)
		}
		normalized = append(normalized, CategoryRule{Category: rule.Category, Keywords: keywords})
	}
	return &Categorizer{table: normalized}
}

// MealIngredientCategorizer returns the categorizer used for meal ingredients
func MealIngredientCategorizer() *Categorizer {
	return NewCategorizer(builtinTables[MealIngredientTable])
}

// ShoppingItemCategorizer returns the categorizer used for hand-added shopping items
func ShoppingItemCategorizer() *Categorizer {
	return NewCategorizer(builtinTables[ShoppingItemTable])
}

// Categorize returns the first category whose keyword occurs in name,
// ignoring case, or "Other" when none does.
func (c *Categorizer) Categorize(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return models.CategoryOther
	}

	for _, rule := range c.table {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}

	return models.CategoryOther
}

// Categories lists the category labels in table order, followed by "Other".
func (c *Categorizer) Categories() []string {
	out := make([]string, 0, len(c.table)+1)
	for _, rule := range c.table {
		out = append(out, rule.Category)
	}
	return append(out, models.CategoryOther)
}

// LoadCategoryTables parses named category tables from YAML
func LoadCategoryTables(data []byte) (map[string]CategoryTable, error) {
	var tables map[string]CategoryTable
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse category tables: %w", err)
	}

	for name, table := range tables {
		for i, rule := range table {
			if strings.TrimSpace(rule.Category) == "" {
				return nil, fmt.Errorf("table %q rule %d has no category", name, i)
			}
		}
	}

	return tables, nil
}

func mustLoadCategoryTables(data []byte) map[string]CategoryTable {
	tables, err := LoadCategoryTables(data)
	if err != nil {
		panic(err)
	}
	for _, name := range []string{MealIngredientTable, ShoppingItemTable} {
		if len(tables[name]) == 0 {
			panic(fmt.Sprintf("category table %q is missing", name))
		}
	}
	return tables
}
