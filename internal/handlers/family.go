package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foxxcyber/family-organizer/internal/models"
	"github.com/foxxcyber/family-organizer/internal/services"
)

// GetFamily returns the caller's family with its members
func (h *Handler) GetFamily(c *fiber.Ctx) error {
	user, familyID, err := h.familyUser(c)
	if err != nil {
		return err
	}

	family, err := h.db.GetFamilyWithMembers(c.Context(), familyID, user.ID)
	if err != nil {
		return h.fail(c, err, "failed to load family")
	}

	return Success(c, family)
}

// CreateFamily creates a family with the caller as owner
func (h *Handler) CreateFamily(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	var req models.CreateFamilyRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if user.FamilyID != nil {
		return Error(c, fiber.StatusConflict, "you already belong to a family")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = user.DisplayName() + "'s Family"
	}

	family, err := h.db.CreateFamily(c.Context(), user.ID, name, h.cfg.MaxFamilyMembers)
	if err != nil {
		return h.fail(c, err, "failed to create family")
	}

	h.logger.Info("family created",
		zap.String("family_id", family.ID.String()),
		zap.String("owner_id", user.ID.String()))
	return Created(c, family)
}

// UpdateFamily renames the caller's family. Owner only.
func (h *Handler) UpdateFamily(c *fiber.Ctx) error {
	family, err := h.ownedFamily(c)
	if err != nil {
		return err
	}

	var req models.UpdateFamilyRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Error(c, fiber.StatusBadRequest, "name is required")
	}

	updated, err := h.db.RenameFamily(c.Context(), family.ID, name)
	if err != nil {
		return h.fail(c, err, "failed to update family")
	}

	return Success(c, updated)
}

// DeleteFamily detaches every member and removes the family. Owner only.
func (h *Handler) DeleteFamily(c *fiber.Ctx) error {
	family, err := h.ownedFamily(c)
	if err != nil {
		return err
	}

	if err := h.db.DeleteFamily(c.Context(), family.ID); err != nil {
		return h.fail(c, err, "failed to delete family")
	}

	h.logger.Info("family deleted", zap.String("family_id", family.ID.String()))
	return Success(c, fiber.Map{"message": "Family deleted"})
}

// ListMembers returns the members of the caller's family
func (h *Handler) ListMembers(c *fiber.Ctx) error {
	_, familyID, err := h.familyUser(c)
	if err != nil {
		return err
	}

	members, err := h.db.ListFamilyMembers(c.Context(), familyID)
	if err != nil {
		return h.fail(c, err, "failed to list members")
	}

	return Success(c, members)
}

// RemoveMember removes a member from the family. Owner only, and the owner
// cannot remove themselves.
func (h *Handler) RemoveMember(c *fiber.Ctx) error {
	family, err := h.ownedFamily(c)
	if err != nil {
		return err
	}

	memberID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if memberID == family.OwnerID {
		return Error(c, fiber.StatusBadRequest, "the family owner cannot be removed")
	}

	member, err := h.db.GetFamilyMember(c.Context(), family.ID, memberID)
	if err != nil {
		return h.fail(c, err, "failed to load member")
	}

	if err := h.db.RemoveFamilyMember(c.Context(), family.ID, member.ID); err != nil {
		return h.fail(c, err, "failed to remove member")
	}

	h.logger.Info("member removed",
		zap.String("family_id", family.ID.String()),
		zap.String("member_id", member.ID.String()))
	return Success(c, fiber.Map{"message": "Member removed", "memberId": member.ID})
}

// UpdateMemberRole changes a member's role to ADMIN or MEMBER. Owner only.
func (h *Handler) UpdateMemberRole(c *fiber.Ctx) error {
	family, err := h.ownedFamily(c)
	if err != nil {
		return err
	}

	var req models.UpdateMemberRoleRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	memberID := uuid.MustParse(req.MemberID)
	if memberID == family.OwnerID {
		return Error(c, fiber.StatusBadRequest, "the owner's role cannot be changed")
	}
	if !req.Role.Assignable() {
		return Error(c, fiber.StatusBadRequest, "role is invalid")
	}

	if err := h.db.UpdateMemberRole(c.Context(), family.ID, memberID, req.Role); err != nil {
		return h.fail(c, err, "failed to update member role")
	}

	member, err := h.db.GetFamilyMember(c.Context(), family.ID, memberID)
	if err != nil {
		return h.fail(c, err, "failed to load member")
	}

	return Success(c, member)
}

// CreateInvite generates a new invite code, replacing any current one
func (h *Handler) CreateInvite(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	invite, err := h.families.RegenerateInvite(c.Context(), user)
	if err != nil {
		return h.fail(c, err, "failed to generate invite code")
	}

	return Success(c, invite)
}

// DeleteInvite clears the family's invite code
func (h *Handler) DeleteInvite(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	if err := h.families.ClearInvite(c.Context(), user); err != nil {
		return h.fail(c, err, "failed to clear invite code")
	}

	return Success(c, fiber.Map{"message": "Invite code removed"})
}

// EmailInvite sends the current invite code to an address
func (h *Handler) EmailInvite(c *fiber.Ctx) error {
	user, familyID, err := h.familyUser(c)
	if err != nil {
		return err
	}
	if !user.CanManageInvites() {
		return h.fail(c, services.ErrInviteNotPermitted, "")
	}

	var req models.EmailInviteRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if h.mailer == nil {
		return h.fail(c, services.ErrEmailDisabled, "")
	}

	family, err := h.db.GetFamilyByID(c.Context(), familyID)
	if err != nil {
		return h.fail(c, err, "failed to load family")
	}
	if !services.InviteValid(family, derefString(family.InviteCode), time.Now()) {
		return Error(c, fiber.StatusBadRequest, "generate an invite code first")
	}

	invite := services.InviteEmail{
		FamilyName:  family.Name,
		InviterName: user.DisplayName(),
		InviteCode:  *family.InviteCode,
		Expiry:      *family.InviteExpiry,
	}
	if err := services.SendInvite(c.Context(), h.mailer, req.Email, invite); err != nil {
		return h.fail(c, err, "failed to send invite email")
	}

	h.logger.Info("invite emailed", zap.String("family_id", family.ID.String()))
	return Success(c, fiber.Map{"message": "Invite sent"})
}

// JoinFamily joins the family holding an invite code
func (h *Handler) JoinFamily(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	var req models.JoinFamilyRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	family, err := h.families.JoinWithCode(c.Context(), user, req.InviteCode)
	if err != nil {
		return h.fail(c, err, "failed to join family")
	}

	return Success(c, family)
}

// CreateJoinRequest asks to join the family holding an invite code
func (h *Handler) CreateJoinRequest(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	var req models.JoinFamilyRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	jr, err := h.families.RequestToJoin(c.Context(), user, req.InviteCode)
	if err != nil {
		return h.fail(c, err, "failed to create join request")
	}

	return Created(c, jr)
}

// ListJoinRequests returns pending join requests. Owner only.
func (h *Handler) ListJoinRequests(c *fiber.Ctx) error {
	family, err := h.ownedFamily(c)
	if err != nil {
		return err
	}

	requests, err := h.db.ListPendingJoinRequests(c.Context(), family.ID)
	if err != nil {
		return h.fail(c, err, "failed to list join requests")
	}

	return Success(c, requests)
}

// RespondJoinRequest approves or rejects a pending join request. Owner only.
func (h *Handler) RespondJoinRequest(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	var req models.RespondJoinRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	action := models.JoinRequestAction(strings.ToUpper(string(req.Action)))

	jr, err := h.families.RespondToJoinRequest(c.Context(), user, uuid.MustParse(req.RequestID), action)
	if err != nil {
		return h.fail(c, err, "failed to respond to join request")
	}

	return Success(c, jr)
}

// ownedFamily returns the caller's family if the caller owns it
func (h *Handler) ownedFamily(c *fiber.Ctx) (*models.Family, error) {
	user, familyID, err := h.familyUser(c)
	if err != nil {
		return nil, err
	}

	family, err := h.db.GetFamilyByID(c.Context(), familyID)
	if err != nil {
		return nil, h.fail(c, err, "failed to load family")
	}
	if family.OwnerID != user.ID {
		return nil, fiber.NewError(fiber.StatusForbidden, services.ErrNotFamilyOwner.Error())
	}
	return family, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
