package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a user's role within their family.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleParent Role = "PARENT"
	RoleMember Role = "MEMBER"
)

// AssignableRoles are the roles an owner may hand out to other members.
var AssignableRoles = []Role{RoleAdmin, RoleMember}

func (r Role) Assignable() bool {
	for _, a := range AssignableRoles {
		if r == a {
			return true
		}
	}
	return false
}

// User is a local mirror of an identity-provider account.
type User struct {
	ID         uuid.UUID  `json:"id"`
	ExternalID string     `json:"externalId"`
	Email      string     `json:"email"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Role       Role       `json:"role"`
	FamilyID   *uuid.UUID `json:"familyId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// DisplayName returns the first name, falling back to "User".
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return "User"
}

// CanManageInvites checks if the user may create or clear invite codes
func (u *User) CanManageInvites() bool {
	return u.Role == RoleOwner || u.Role == RoleAdmin
}

// Identity carries the caller as asserted by the identity provider.
type Identity struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
}

// UpdateUserRequest is the body for PUT /api/user
type UpdateUserRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
}

// UserProfile is returned by GET /api/user
type UserProfile struct {
	User    *User              `json:"user"`
	Family  *FamilyWithMembers `json:"family,omitempty"`
	IsOwner bool               `json:"isOwner"`
}
