package models

import (
	"time"

	"github.com/google/uuid"
)

type ActivityStatus string

const (
	ActivityPending   ActivityStatus = "pending"
	ActivityConfirmed ActivityStatus = "confirmed"
	ActivityCompleted ActivityStatus = "completed"
	ActivityCancelled ActivityStatus = "cancelled"
)

func (s ActivityStatus) Valid() bool {
	switch s {
	case ActivityPending, ActivityConfirmed, ActivityCompleted, ActivityCancelled:
		return true
	}
	return false
}

// Activity is a family calendar entry
type Activity struct {
	ID            uuid.UUID      `json:"id"`
	FamilyID      uuid.UUID      `json:"familyId"`
	CreatedBy     uuid.UUID      `json:"createdBy"`
	CreatedByName string         `json:"createdByName,omitempty"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Date          time.Time      `json:"date"`
	Location      string         `json:"location"`
	Status        ActivityStatus `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Request types

type CreateActivityRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Date        string `json:"date" validate:"required"`
	Location    string `json:"location" validate:"max=200"`
}

type UpdateActivityRequest struct {
	Title       *string         `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	Date        *string         `json:"date"`
	Location    *string         `json:"location" validate:"omitempty,max=200"`
	Status      *ActivityStatus `json:"status" validate:"omitempty,oneof=pending confirmed completed cancelled"`
}
