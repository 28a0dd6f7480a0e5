package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/family-organizer/internal/database"
	"github.com/foxxcyber/family-organizer/internal/models"
	"github.com/foxxcyber/family-organizer/internal/services"
)

// GetShoppingList returns the week's shopping list, or null when there is none
func (h *Handler) GetShoppingList(c *fiber.Ctx) error {
	_, familyID, err := h.familyUser(c)
	if err != nil {
		return err
	}

	window, err := weekFromQuery(c, "week", "weekStart")
	if err != nil {
		return err
	}

	list, err := h.shopping.Load(c.Context(), familyID, window)
	if errors.Is(err, database.ErrShoppingListNotFound) {
		return Success(c, nil)
	}
	if err != nil {
		return h.fail(c, err, "failed to load shopping list")
	}

	return Success(c, list)
}

// SaveShoppingList replaces the week's shopping list items
func (h *Handler) SaveShoppingList(c *fiber.Ctx) error {
	_, familyID, err := h.familyUser(c)
	if err != nil {
		return err
	}

	var req models.SaveShoppingListRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	window, err := weekFromBody(req.WeekStart)
	if err != nil {
		return err
	}

	list, err := h.shopping.Save(c.Context(), familyID, window, req.Items)
	if err != nil {
		return h.fail(c, err, "failed to save shopping list")
	}

	h.logger.Info("shopping list saved",
		zap.String("family_id", familyID.String()),
		zap.String("list_id", list.ID.String()),
		zap.Int("items", len(list.Items)))
	return Success(c, list)
}

// ShoppingFromMeals builds a shopping list from the week's meal ingredients
// without saving it
func (h *Handler) ShoppingFromMeals(c *fiber.Ctx) error {
	_, familyID, err := h.familyUser(c)
	if err != nil {
		return err
	}

	var req models.ShoppingFromMealsRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	window, err := weekFromBody(req.WeekStart)
	if err != nil {
		return err
	}

	meals, err := h.db.ListMealsInRange(c.Context(), familyID, window.Start, window.End)
	if err != nil {
		return h.fail(c, err, "failed to load meals")
	}

	items := services.GenerateShoppingItems(meals, h.ingredient)
	return Success(c, fiber.Map{
		"items":     items,
		"mealCount": len(meals),
	})
}

// GenerateShoppingList asks the AI for a consolidated list for the week's meals
// without saving it
func (h *Handler) GenerateShoppingList(c *fiber.Ctx) error {
	_, familyID, err := h.familyUser(c)
	if err != nil {
		return err
	}

	var req models.ShoppingFromMealsRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	window, err := weekFromBody(req.WeekStart)
	if err != nil {
		return err
	}

	meals, err := h.db.ListMealsInRange(c.Context(), familyID, window.Start, window.End)
	if err != nil {
		return h.fail(c, err, "failed to load meals")
	}
	if len(meals) == 0 {
		return Error(c, fiber.StatusBadRequest, "no meals planned for this week")
	}

	familySize, err := h.db.CountFamilyMembers(c.Context(), familyID)
	if err != nil {
		return h.fail(c, err, "failed to count family members")
	}

	items, err := h.shoppingAI.Generate(c.Context(), meals, familySize)
	if err != nil {
		return h.fail(c, err, "failed to generate shopping list")
	}

	return Success(c, fiber.Map{
		"items":     items,
		"mealCount": len(meals),
	})
}

// ImportShoppingList parses a pasted list into items without saving it
func (h *Handler) ImportShoppingList(c *fiber.Ctx) error {
	if _, _, err := h.familyUser(c); err != nil {
		return err
	}

	var req models.ImportShoppingListRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	items := services.ParsePastedList(req.Content, h.manual)
	if len(items) == 0 {
		return Error(c, fiber.StatusBadRequest, "no items found in list")
	}

	return Success(c, fiber.Map{"items": items})
}
