package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/family-organizer/internal/database"
	"github.com/foxxcyber/family-organizer/internal/models"
)

// GetCurrentUser returns the caller with their family, if any
func (h *Handler) GetCurrentUser(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	profile := models.UserProfile{User: user}
	if user.FamilyID != nil {
		family, err := h.db.GetFamilyWithMembers(c.Context(), *user.FamilyID, user.ID)
		if err != nil && !errors.Is(err, database.ErrFamilyNotFound) {
			return h.fail(c, err, "failed to load family")
		}
		if family != nil {
			profile.Family = family
			profile.IsOwner = family.IsOwner
		}
	}

	return Success(c, profile)
}

// UpdateCurrentUser changes the caller's name
func (h *Handler) UpdateCurrentUser(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	updated, err := h.db.UpdateUserName(c.Context(), user.ID, &req)
	if err != nil {
		return h.fail(c, err, "failed to update user")
	}

	return Success(c, updated)
}
