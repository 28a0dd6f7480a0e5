package models

import (
	"time"

	"github.com/google/uuid"
)

type Family struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	OwnerID      uuid.UUID  `json:"ownerId"`
	InviteCode   *string    `json:"inviteCode,omitempty"`
	InviteExpiry *time.Time `json:"inviteExpiry,omitempty"`
	MaxMembers   int        `json:"maxMembers"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// FamilyMember is the member view of a user
type FamilyMember struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
}

type FamilyWithMembers struct {
	Family
	Members []FamilyMember `json:"members"`
	Owner   *FamilyMember  `json:"owner,omitempty"`
	IsOwner bool           `json:"isOwner"`
}

// JoinRequestStatus tracks a join request through review
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "PENDING"
	JoinRequestApproved JoinRequestStatus = "APPROVED"
	JoinRequestRejected JoinRequestStatus = "REJECTED"
)

// JoinRequestAction is an owner's decision on a pending request
type JoinRequestAction string

const (
	JoinActionApprove JoinRequestAction = "APPROVE"
	JoinActionReject  JoinRequestAction = "REJECT"
)

type JoinRequest struct {
	ID          uuid.UUID         `json:"id"`
	FamilyID    uuid.UUID         `json:"familyId"`
	UserID      uuid.UUID         `json:"userId"`
	Status      JoinRequestStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	RespondedAt *time.Time        `json:"respondedAt,omitempty"`
	User        *FamilyMember     `json:"user,omitempty"`
}

// Invite is the current invite code of a family
type Invite struct {
	InviteCode   string    `json:"inviteCode"`
	InviteExpiry time.Time `json:"inviteExpiry"`
}

// Request types

// CreateFamilyRequest names a new family. A blank name is filled in from the owner.
type CreateFamilyRequest struct {
	Name string `json:"name" validate:"max=100"`
}

type UpdateFamilyRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type UpdateMemberRoleRequest struct {
	MemberID string `json:"memberId" validate:"required,uuid"`
	Role     Role   `json:"role" validate:"required,oneof=ADMIN MEMBER"`
}

type JoinFamilyRequest struct {
	InviteCode string `json:"inviteCode" validate:"required,len=8"`
}

type RespondJoinRequest struct {
	RequestID string            `json:"requestId" validate:"required,uuid"`
	Action    JoinRequestAction `json:"action" validate:"required"`
}

type EmailInviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}
