package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/foxxcyber/family-organizer/internal/models"
	"github.com/foxxcyber/family-organizer/internal/services"
)

// ListActivities returns the family's activities ordered by date
func (h *Handler) ListActivities(c *fiber.Ctx) error {
	_, familyID, err := h.familyUser(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 100)
	offset := c.QueryInt("offset", 0)

	// Validate limits
	if limit < 1 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	activities, total, err := h.db.ListActivities(c.Context(), familyID, limit, offset)
	if err != nil {
		return h.fail(c, err, "failed to list activities")
	}

	return SuccessWithMeta(c, activities, total, limit, offset)
}

// CreateActivity adds an activity to the family calendar
func (h *Handler) CreateActivity(c *fiber.Ctx) error {
	user, familyID, err := h.familyUser(c)
	if err != nil {
		return err
	}

	var req models.CreateActivityRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return Error(c, fiber.StatusBadRequest, "title is required")
	}
	date, err := services.ParseDate(req.Date)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "date is invalid")
	}

	activity := &models.Activity{
		ID:            uuid.New(),
		FamilyID:      familyID,
		CreatedBy:     user.ID,
		CreatedByName: strings.TrimSpace(user.FirstName + " " + user.LastName),
		Title:         title,
		Description:   req.Description,
		Date:          date.UTC(),
		Location:      req.Location,
		Status:        models.ActivityPending,
	}
	if err := h.db.CreateActivity(c.Context(), activity); err != nil {
		return h.fail(c, err, "failed to create activity")
	}

	return Created(c, activity)
}

// UpdateActivity changes an activity. Only its creator may do this.
func (h *Handler) UpdateActivity(c *fiber.Ctx) error {
	activity, err := h.ownActivity(c)
	if err != nil {
		return err
	}

	var req models.UpdateActivityRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return Error(c, fiber.StatusBadRequest, "title is invalid")
		}
		activity.Title = title
	}
	if req.Description != nil {
		activity.Description = *req.Description
	}
	if req.Date != nil {
		date, err := services.ParseDate(*req.Date)
		if err != nil {
			return Error(c, fiber.StatusBadRequest, "date is invalid")
		}
		activity.Date = date.UTC()
	}
	if req.Location != nil {
		activity.Location = *req.Location
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return Error(c, fiber.StatusBadRequest, "status is invalid")
		}
		activity.Status = *req.Status
	}

	if err := h.db.UpdateActivity(c.Context(), activity); err != nil {
		return h.fail(c, err, "failed to update activity")
	}

	return Success(c, activity)
}

// DeleteActivity removes an activity. Only its creator may do this.
func (h *Handler) DeleteActivity(c *fiber.Ctx) error {
	activity, err := h.ownActivity(c)
	if err != nil {
		return err
	}

	if err := h.db.DeleteActivity(c.Context(), activity.FamilyID, activity.ID); err != nil {
		return h.fail(c, err, "failed to delete activity")
	}

	return Success(c, fiber.Map{"message": "Activity deleted"})
}

// ownActivity loads the activity named in the path and checks the caller created it
func (h *Handler) ownActivity(c *fiber.Ctx) (*models.Activity, error) {
	user, familyID, err := h.familyUser(c)
	if err != nil {
		return nil, err
	}

	id, err := paramUUID(c, "id")
	if err != nil {
		return nil, err
	}

	activity, err := h.db.GetActivity(c.Context(), familyID, id)
	if err != nil {
		return nil, h.fail(c, err, "failed to load activity")
	}
	if activity.CreatedBy != user.ID {
		return nil, fiber.NewError(fiber.StatusForbidden, "only the creator can change this activity")
	}
	return activity, nil
}
