package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foxxcyber/family-organizer/internal/database"
	"github.com/foxxcyber/family-organizer/internal/models"
)

// InviteCodeLength is the number of characters in an invite code
const InviteCodeLength = 8

const inviteAlphabet = "useandom-26T198340PX75pxJACKVERYMINDBUSHWOLF_GQZbfghjklqvwyzrict"

var (
	ErrFamilyFull            = errors.New("family has reached maximum member limit")
	ErrInviteInvalid         = errors.New("invalid or expired invite code")
	ErrAlreadyInFamily       = errors.New("user already belongs to a family")
	ErrInvalidAction         = errors.New("invalid action")
	ErrJoinRequestNotPending = errors.New("join request is not pending")
	ErrNotFamilyOwner        = errors.New("only the family owner can do this")
	ErrInviteNotPermitted    = errors.New("only owners and admins can manage invites")
)

// GenerateInviteCode returns a random code drawn from a URL-safe alphabet.
func GenerateInviteCode() (string, error) {
	buf := make([]byte, InviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	// 64 symbols, so the low six bits index the alphabet without bias
	for i, b := range buf {
		buf[i] = inviteAlphabet[b&63]
	}
	return string(buf), nil
}

// InviteValid reports whether the family's invite code equals code and has not expired at now.
func InviteValid(f *models.Family, code string, now time.Time) bool {
	if f == nil || f.InviteCode == nil || *f.InviteCode == "" || *f.InviteCode != code {
		return false
	}
	return f.InviteExpiry != nil && f.InviteExpiry.After(now)
}

// CanAddMember fails with ErrFamilyFull once current reaches max
func CanAddMember(current, max int) error {
	if current >= max {
		return ErrFamilyFull
	}
	return nil
}

// TransitionJoinRequest applies an owner's decision to a pending request
func TransitionJoinRequest(req *models.JoinRequest, action models.JoinRequestAction, now time.Time) error {
	var next models.JoinRequestStatus
	switch action {
	case models.JoinActionApprove:
		next = models.JoinRequestApproved
	case models.JoinActionReject:
		next = models.JoinRequestRejected
	default:
		return ErrInvalidAction
	}

	if req.Status != models.JoinRequestPending {
		return ErrJoinRequestNotPending
	}

	req.Status = next
	responded := now
	req.RespondedAt = &responded
	return nil
}

// FamilyStore runs membership changes in a transaction
type FamilyStore interface {
	RunFamilyTx(ctx context.Context, fn func(tx database.FamilyTx) error) error
}

// FamilyService handles invite codes, joins and join requests
type FamilyService struct {
	store        FamilyStore
	inviteExpiry time.Duration
	logger       *zap.Logger
	now          func() time.Time
	newCode      func() (string, error)
}

func NewFamilyService(store FamilyStore, inviteExpiry time.Duration, logger *zap.Logger) *FamilyService {
	return &FamilyService{
		store:        store,
		inviteExpiry: inviteExpiry,
		logger:       logger,
		now:          time.Now,
		newCode:      GenerateInviteCode,
	}
}

// RegenerateInvite replaces the family's invite code. Owners and admins only.
func (s *FamilyService) RegenerateInvite(ctx context.Context, actor *models.User) (*models.Invite, error) {
	if actor.FamilyID == nil {
		return nil, database.ErrFamilyNotFound
	}
	if !actor.CanManageInvites() {
		return nil, ErrInviteNotPermitted
	}

	code, err := s.newCode()
	if err != nil {
		return nil, err
	}
	expiry := s.now().Add(s.inviteExpiry).UTC()

	err = s.store.RunFamilyTx(ctx, func(tx database.FamilyTx) error {
		return tx.SetFamilyInvite(ctx, *actor.FamilyID, &code, &expiry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invite code generated",
		zap.String("family_id", actor.FamilyID.String()),
		zap.Time("expires", expiry))
	return &models.Invite{InviteCode: code, InviteExpiry: expiry}, nil
}

// ClearInvite removes the family's invite code
func (s *FamilyService) ClearInvite(ctx context.Context, actor *models.User) error {
	if actor.FamilyID == nil {
		return database.ErrFamilyNotFound
	}
	if !actor.CanManageInvites() {
		return ErrInviteNotPermitted
	}
	return s.store.RunFamilyTx(ctx, func(tx database.FamilyTx) error {
		return tx.SetFamilyInvite(ctx, *actor.FamilyID, nil, nil)
	})
}

// JoinWithCode adds the user to the family holding code as a parent.
func (s *FamilyService) JoinWithCode(ctx context.Context, user *models.User, code string) (*models.Family, error) {
	if user.FamilyID != nil {
		return nil, ErrAlreadyInFamily
	}

	var joined *models.Family
	err := s.store.RunFamilyTx(ctx, func(tx database.FamilyTx) error {
		family, err := s.lockInvitedFamily(ctx, tx, code)
		if err != nil {
			return err
		}

		count, err := tx.CountFamilyMembers(ctx, family.ID)
		if err != nil {
			return err
		}
		if err := CanAddMember(count, family.MaxMembers); err != nil {
			return err
		}

		if err := tx.AssignUserToFamily(ctx, user.ID, family.ID, models.RoleParent); err != nil {
			return err
		}
		joined = family
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user joined family",
		zap.String("user_id", user.ID.String()),
		zap.String("family_id", joined.ID.String()))
	return joined, nil
}

// RequestToJoin files a pending join request against the family holding code.
// An existing pending request is returned unchanged.
func (s *FamilyService) RequestToJoin(ctx context.Context, user *models.User, code string) (*models.JoinRequest, error) {
	if user.FamilyID != nil {
		return nil, ErrAlreadyInFamily
	}

	var req *models.JoinRequest
	err := s.store.RunFamilyTx(ctx, func(tx database.FamilyTx) error {
		family, err := s.lockInvitedFamily(ctx, tx, code)
		if err != nil {
			return err
		}

		existing, err := tx.FindPendingJoinRequest(ctx, family.ID, user.ID)
		switch {
		case err == nil:
			req = existing
			return nil
		case !errors.Is(err, database.ErrJoinRequestNotFound):
			return err
		}

		req = &models.JoinRequest{
			ID:        uuid.New(),
			FamilyID:  family.ID,
			UserID:    user.ID,
			Status:    models.JoinRequestPending,
			CreatedAt: s.now().UTC(),
		}
		return tx.CreateJoinRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// RespondToJoinRequest approves or rejects a pending request. Approval adds
// the requester as a member if the family has room.
func (s *FamilyService) RespondToJoinRequest(ctx context.Context, owner *models.User, requestID uuid.UUID, action models.JoinRequestAction) (*models.JoinRequest, error) {
	if owner.FamilyID == nil {
		return nil, database.ErrFamilyNotFound
	}
	if action != models.JoinActionApprove && action != models.JoinActionReject {
		return nil, ErrInvalidAction
	}

	var req *models.JoinRequest
	err := s.store.RunFamilyTx(ctx, func(tx database.FamilyTx) error {
		family, err := tx.GetFamilyForUpdate(ctx, *owner.FamilyID)
		if err != nil {
			return err
		}
		if family.OwnerID != owner.ID {
			return ErrNotFamilyOwner
		}

		req, err = tx.GetJoinRequestForUpdate(ctx, family.ID, requestID)
		if err != nil {
			return err
		}

		if action == models.JoinActionApprove && req.Status == models.JoinRequestPending {
			count, err := tx.CountFamilyMembers(ctx, family.ID)
			if err != nil {
				return err
			}
			if err := CanAddMember(count, family.MaxMembers); err != nil {
				return err
			}
		}

		if err := TransitionJoinRequest(req, action, s.now().UTC()); err != nil {
			return err
		}

		if req.Status == models.JoinRequestApproved {
			if err := tx.AssignUserToFamily(ctx, req.UserID, family.ID, models.RoleMember); err != nil {
				return err
			}
		}
		return tx.UpdateJoinRequestStatus(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("join request answered",
		zap.String("request_id", req.ID.String()),
		zap.String("status", string(req.Status)))
	return req, nil
}

func (s *FamilyService) lockInvitedFamily(ctx context.Context, tx database.FamilyTx, code string) (*models.Family, error) {
	found, err := tx.FindFamilyByInviteCode(ctx, code)
	if errors.Is(err, database.ErrFamilyNotFound) {
		return nil, ErrInviteInvalid
	}
	if err != nil {
		return nil, err
	}

	family, err := tx.GetFamilyForUpdate(ctx, found.ID)
	if err != nil {
		return nil, err
	}
	if !InviteValid(family, code, s.now()) {
		return nil, ErrInviteInvalid
	}
	return family, nil
}
