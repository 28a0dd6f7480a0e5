package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foxxcyber/family-organizer/internal/models"
	"github.com/foxxcyber/family-organizer/internal/services"
)

// GetMealPlan returns the week's meals as a day by meal-type grid and as a flat list
func (h *Handler) GetMealPlan(c *fiber.Ctx) error {
	_, familyID, err := h.familyUser(c)
	if err != nil {
		return err
	}

	window, err := weekFromQuery(c, "weekStart")
	if err != nil {
		return err
	}

	meals, err := h.db.ListMealsInRange(c.Context(), familyID, window.Start, window.End)
	if err != nil {
		return h.fail(c, err, "failed to load meal plan")
	}

	grid, discards := services.BuildGrid(meals, window.Start)
	for _, d := range discards {
		h.logger.Warn("meal slot already filled, dropping meal from grid",
			zap.String("family_id", familyID.String()),
			zap.String("day", d.Day),
			zap.String("meal_type", string(d.MealType)),
			zap.String("kept_id", d.KeptID.String()),
			zap.String("dropped_id", d.DroppedID.String()))
	}

	return Success(c, fiber.Map{
		"weekStart": window.Start,
		"weekEnd":   window.End,
		"grid":      grid,
		"meals":     meals,
	})
}

// SaveMealPlan replaces the week with the submitted grid
func (h *Handler) SaveMealPlan(c *fiber.Ctx) error {
	user, familyID, err := h.familyUser(c)
	if err != nil {
		return err
	}

	var req models.SaveMealPlanRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	window, err := weekFromBody(req.WeekStart)
	if err != nil {
		return err
	}

	result, err := h.saver.SaveWeek(c.Context(), services.SaveWeekInput{
		WeekStart: window.Start,
		Grid:      req.MealPlan,
		FamilyID:  familyID,
		ActorID:   user.ID,
	})
	if err != nil {
		return h.fail(c, err, "failed to save meal plan")
	}

	return h.savedWeek(c, familyID, window, result)
}

// ClearMealPlan deletes every meal in the week
func (h *Handler) ClearMealPlan(c *fiber.Ctx) error {
	_, familyID, err := h.familyUser(c)
	if err != nil {
		return err
	}

	window, err := weekFromQuery(c, "weekStart")
	if err != nil {
		return err
	}

	deleted, err := h.db.ClearMealsInRange(c.Context(), familyID, window.Start, window.End)
	if err != nil {
		return h.fail(c, err, "failed to clear meal plan")
	}

	return Success(c, fiber.Map{"deleted": deleted})
}

// GenerateMealPlan asks the AI for a week of meals and replaces the week with them
func (h *Handler) GenerateMealPlan(c *fiber.Ctx) error {
	user, familyID, err := h.familyUser(c)
	if err != nil {
		return err
	}

	var req models.GenerateMealPlanRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	window, err := weekFromBody(req.WeekStart)
	if err != nil {
		return err
	}

	drafts, warnings, err := h.planner.Generate(c.Context(), services.MealPlanOptions{
		Window:               window,
		Cuisine:              req.Cuisine,
		DietaryRestrictions:  req.DietaryRestrictions,
		NumberOfPeople:       req.NumberOfPeople,
		NumberOfDays:         req.NumberOfDays,
		AvailableIngredients: req.AvailableIngredients,
		ExcludeIngredients:   req.ExcludeIngredients,
	})
	if err != nil {
		return h.fail(c, err, "failed to generate meal plan")
	}
	if len(drafts) == 0 {
		return h.fail(c, services.ErrInvalidAIResponse, "")
	}

	result, err := h.saver.ReplaceWeek(c.Context(), familyID, user.ID, window, drafts)
	if err != nil {
		return h.fail(c, err, "failed to save generated meal plan")
	}
	result.Warnings = append(warnings, result.Warnings...)

	return h.savedWeek(c, familyID, window, result)
}

func (h *Handler) savedWeek(c *fiber.Ctx, familyID uuid.UUID, window services.WeekWindow, result *services.SaveWeekResult) error {
	h.logger.Info("meal plan saved",
		zap.String("family_id", familyID.String()),
		zap.Time("week_start", window.Start),
		zap.Int("saved", len(result.Saved)),
		zap.Int64("replaced", result.Deleted),
		zap.Int("warnings", len(result.Warnings)))

	meals := result.Saved
	if meals == nil {
		meals = []models.Meal{}
	}
	return SuccessWithWarnings(c, fiber.Map{
		"message": fmt.Sprintf("Saved %d meals", len(meals)),
		"meals":   meals,
	}, result.Warnings)
}

// CreateMeal adds a single meal
func (h *Handler) CreateMeal(c *fiber.Ctx) error {
	user, familyID, err := h.familyUser(c)
	if err != nil {
		return err
	}

	var req models.CreateMealRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return Error(c, fiber.StatusBadRequest, "title is required")
	}
	mealType, ok := models.ParseMealType(req.MealType)
	if !ok {
		return Error(c, fiber.StatusBadRequest, "mealType is invalid")
	}
	date, err := services.ParseDate(req.Date)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "date is invalid")
	}

	meal := &models.Meal{
		ID:           uuid.New(),
		FamilyID:     familyID,
		CreatedBy:    user.ID,
		Title:        title,
		Description:  req.Description,
		MealType:     mealType,
		Date:         date.UTC(),
		Ingredients:  trimStrings(req.Ingredients),
		Instructions: req.Instructions,
		Calories:     req.Calories,
		Cuisine:      req.Cuisine,
	}
	if err := h.db.CreateMeal(c.Context(), meal); err != nil {
		return h.fail(c, err, "failed to create meal")
	}

	return Created(c, meal)
}

// UpdateMeal changes the fields of a meal that are present in the request
func (h *Handler) UpdateMeal(c *fiber.Ctx) error {
	_, familyID, err := h.familyUser(c)
	if err != nil {
		return err
	}

	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateMealRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	meal, err := h.db.GetMeal(c.Context(), familyID, id)
	if err != nil {
		return h.fail(c, err, "failed to load meal")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return Error(c, fiber.StatusBadRequest, "title is invalid")
		}
		meal.Title = title
	}
	if req.MealType != nil {
		mt, ok := models.ParseMealType(*req.MealType)
		if !ok {
			return Error(c, fiber.StatusBadRequest, "mealType is invalid")
		}
		meal.MealType = mt
	}
	if req.Date != nil {
		date, err := services.ParseDate(*req.Date)
		if err != nil {
			return Error(c, fiber.StatusBadRequest, "date is invalid")
		}
		meal.Date = date.UTC()
	}
	if req.Description != nil {
		meal.Description = *req.Description
	}
	if req.Ingredients != nil {
		meal.Ingredients = trimStrings(*req.Ingredients)
	}
	if req.Instructions != nil {
		meal.Instructions = *req.Instructions
	}
	if req.Calories != nil {
		meal.Calories = req.Calories
	}
	if req.Cuisine != nil {
		meal.Cuisine = *req.Cuisine
	}

	if err := h.db.UpdateMeal(c.Context(), meal); err != nil {
		return h.fail(c, err, "failed to update meal")
	}

	return Success(c, meal)
}

// DeleteMeal removes a single meal
func (h *Handler) DeleteMeal(c *fiber.Ctx) error {
	_, familyID, err := h.familyUser(c)
	if err != nil {
		return err
	}

	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.db.DeleteMeal(c.Context(), familyID, id); err != nil {
		return h.fail(c, err, "failed to delete meal")
	}

	return Success(c, fiber.Map{"message": "Meal deleted"})
}

func trimStrings(values []string) []string {
	out := []string{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
