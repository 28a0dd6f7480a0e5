package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/foxxcyber/family-organizer/internal/models"
)

// WeekGrid maps a day label to the meal in each plannable slot. Every day and
// every slot is present; empty slots hold nil.
type WeekGrid map[string]map[models.MealType]*models.Meal

// GridDiscard describes a record dropped because its slot was already filled
type GridDiscard struct {
	Day          string
	MealType     models.MealType
	KeptID       uuid.UUID
	DroppedID    uuid.UUID
	DroppedTitle string
}

// NewWeekGrid returns a grid with all 21 slots empty
func NewWeekGrid() WeekGrid {
	grid := make(WeekGrid, DaysPerWeek)
	for _, day := range DayLabels {
		slots := make(map[models.MealType]*models.Meal, len(models.PlannableMealTypes))
		for _, mt := range models.PlannableMealTypes {
			slots[mt] = nil
		}
		grid[day] = slots
	}
	return grid
}

// BuildGrid places meals into the week starting at weekStart. The first record
// for a slot wins; later ones are returned as discards. Snacks and records
// outside the week are ignored.
func BuildGrid(records []models.Meal, weekStart time.Time) (WeekGrid, []GridDiscard) {
	window := NewWeekWindow(weekStart)
	grid := NewWeekGrid()
	var discards []GridDiscard

	for i := range records {
		rec := records[i]
		if !rec.MealType.Plannable() {
			continue
		}

		idx, ok := window.DayIndex(rec.Date)
		if !ok {
			continue
		}

		day := DayLabels[idx]
		if kept := grid[day][rec.MealType]; kept != nil {
			discards = append(discards, GridDiscard{
				Day:          day,
				MealType:     rec.MealType,
				KeptID:       kept.ID,
				DroppedID:    rec.ID,
				DroppedTitle: rec.Title,
			})
			continue
		}
		grid[day][rec.MealType] = &rec
	}

	return grid, discards
}

// Filled counts the occupied slots
func (g WeekGrid) Filled() int {
	n := 0
	for _, slots := range g {
		for _, m := range slots {
			if m != nil {
				n++
			}
		}
	}
	return n
}
