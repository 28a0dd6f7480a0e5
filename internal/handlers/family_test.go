package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/family-organizer/internal/database"
	"github.com/foxxcyber/family-organizer/internal/models"
)

const testInviteCode = "ABCD2345"

// household is a fakeStore with a real family behind it: a roster, join
// requests and activities
type household struct {
	*fakeStore

	family     *models.Family
	roster     map[uuid.UUID]models.FamilyMember
	requests   map[uuid.UUID]*models.JoinRequest
	activities map[uuid.UUID]*models.Activity
	deleted    bool
}

// newHousehold returns a family owned by the caller with one other member, Grace
func newHousehold() *household {
	h := &household{
		fakeStore:  familyMember(),
		roster:     make(map[uuid.UUID]models.FamilyMember),
		requests:   make(map[uuid.UUID]*models.JoinRequest),
		activities: make(map[uuid.UUID]*models.Activity),
	}
	code := testInviteCode
	expiry := time.Now().Add(24 * time.Hour)
	h.family = &models.Family{
		ID:           *h.user.FamilyID,
		Name:         "Lovelace",
		OwnerID:      h.user.ID,
		InviteCode:   &code,
		InviteExpiry: &expiry,
		MaxMembers:   10,
	}
	h.roster[h.user.ID] = models.FamilyMember{ID: h.user.ID, FirstName: "Ada", Role: models.RoleOwner}
	grace := uuid.New()
	h.roster[grace] = models.FamilyMember{ID: grace, FirstName: "Grace", Role: models.RoleParent}
	return h
}

// asGuest makes the caller a user without a family
func (h *household) asGuest() uuid.UUID {
	h.user = models.User{ID: uuid.New(), FirstName: "Linus", Role: models.RoleParent}
	return h.user.ID
}

// asMember makes the caller a non-owner member of the family
func (h *household) asMember() uuid.UUID {
	for id, m := range h.roster {
		if m.Role != models.RoleOwner {
			familyID := h.family.ID
			h.user = models.User{ID: id, FirstName: m.FirstName, Role: m.Role, FamilyID: &familyID}
			return id
		}
	}
	panic("household has no plain members")
}

func (h *household) memberNamed(name string) uuid.UUID {
	for id, m := range h.roster {
		if m.FirstName == name {
			return id
		}
	}
	return uuid.Nil
}

func (h *household) GetFamilyByID(ctx context.Context, id uuid.UUID) (*models.Family, error) {
	if h.deleted || id != h.family.ID {
		return nil, database.ErrFamilyNotFound
	}
	cp := *h.family
	return &cp, nil
}

func (h *household) CountFamilyMembers(ctx context.Context, familyID uuid.UUID) (int, error) {
	return len(h.roster), nil
}

func (h *household) GetFamilyMember(ctx context.Context, familyID, memberID uuid.UUID) (*models.FamilyMember, error) {
	m, ok := h.roster[memberID]
	if !ok || familyID != h.family.ID {
		return nil, database.ErrMemberNotFound
	}
	return &m, nil
}

func (h *household) RemoveFamilyMember(ctx context.Context, familyID, memberID uuid.UUID) error {
	m, ok := h.roster[memberID]
	if !ok || m.Role == models.RoleOwner {
		return database.ErrMemberNotFound
	}
	delete(h.roster, memberID)
	return nil
}

func (h *household) UpdateMemberRole(ctx context.Context, familyID, memberID uuid.UUID, role models.Role) error {
	m, ok := h.roster[memberID]
	if !ok || m.Role == models.RoleOwner {
		return database.ErrMemberNotFound
	}
	m.Role = role
	h.roster[memberID] = m
	return nil
}

func (h *household) DeleteFamily(ctx context.Context, id uuid.UUID) error {
	h.roster = make(map[uuid.UUID]models.FamilyMember)
	h.deleted = true
	return nil
}

func (h *household) RunFamilyTx(ctx context.Context, fn func(tx database.FamilyTx) error) error {
	return fn(&householdTx{h: h})
}

func (h *household) GetActivity(ctx context.Context, familyID, id uuid.UUID) (*models.Activity, error) {
	a, ok := h.activities[id]
	if !ok || a.FamilyID != familyID {
		return nil, database.ErrActivityNotFound
	}
	cp := *a
	return &cp, nil
}

func (h *household) UpdateActivity(ctx context.Context, a *models.Activity) error {
	cp := *a
	h.activities[a.ID] = &cp
	return nil
}

func (h *household) DeleteActivity(ctx context.Context, familyID, id uuid.UUID) error {
	delete(h.activities, id)
	return nil
}

type householdTx struct {
	h *household
}

func (t *householdTx) FindFamilyByInviteCode(ctx context.Context, code string) (*models.Family, error) {
	f := t.h.family
	if f.InviteCode == nil || *f.InviteCode != code {
		return nil, database.ErrFamilyNotFound
	}
	cp := *f
	return &cp, nil
}

func (t *householdTx) GetFamilyForUpdate(ctx context.Context, familyID uuid.UUID) (*models.Family, error) {
	return t.h.GetFamilyByID(ctx, familyID)
}

func (t *householdTx) CountFamilyMembers(ctx context.Context, familyID uuid.UUID) (int, error) {
	return len(t.h.roster), nil
}

func (t *householdTx) AssignUserToFamily(ctx context.Context, userID, familyID uuid.UUID, role models.Role) error {
	if _, ok := t.h.roster[userID]; ok {
		return database.ErrUserHasFamily
	}
	t.h.roster[userID] = models.FamilyMember{ID: userID, Role: role}
	return nil
}

func (t *householdTx) SetFamilyInvite(ctx context.Context, familyID uuid.UUID, code *string, expiry *time.Time) error {
	t.h.family.InviteCode = code
	t.h.family.InviteExpiry = expiry
	return nil
}

func (t *householdTx) FindPendingJoinRequest(ctx context.Context, familyID, userID uuid.UUID) (*models.JoinRequest, error) {
	for _, r := range t.h.requests {
		if r.UserID == userID && r.Status == models.JoinRequestPending {
			cp := *r
			return &cp, nil
		}
	}
	return nil, database.ErrJoinRequestNotFound
}

func (t *householdTx) GetJoinRequestForUpdate(ctx context.Context, familyID, requestID uuid.UUID) (*models.JoinRequest, error) {
	r, ok := t.h.requests[requestID]
	if !ok {
		return nil, database.ErrJoinRequestNotFound
	}
	cp := *r
	return &cp, nil
}

func (t *householdTx) CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error {
	cp := *req
	t.h.requests[req.ID] = &cp
	return nil
}

func (t *householdTx) UpdateJoinRequestStatus(ctx context.Context, req *models.JoinRequest) error {
	cp := *req
	t.h.requests[req.ID] = &cp
	return nil
}

func (h *household) addRequest() *models.JoinRequest {
	r := &models.JoinRequest{
		ID:       uuid.New(),
		FamilyID: h.family.ID,
		UserID:   uuid.New(),
		Status:   models.JoinRequestPending,
	}
	h.requests[r.ID] = r
	return r
}

func TestRemoveMember(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(h *household) string
		wantStatus int
		wantErr    string
	}{
		{
			name:       "removes a member",
			setup:      func(h *household) string { return h.memberNamed("Grace").String() },
			wantStatus: fiber.StatusOK,
		},
		{
			name:       "owner cannot be removed",
			setup:      func(h *household) string { return h.user.ID.String() },
			wantStatus: fiber.StatusBadRequest,
			wantErr:    "the family owner cannot be removed",
		},
		{
			name:       "unknown member",
			setup:      func(h *household) string { return uuid.NewString() },
			wantStatus: fiber.StatusNotFound,
			wantErr:    database.ErrMemberNotFound.Error(),
		},
		{
			name: "only the owner",
			setup: func(h *household) string {
				owner := h.user.ID
				h.asMember()
				return owner.String()
			},
			wantStatus: fiber.StatusForbidden,
			wantErr:    "only the family owner can do this",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHousehold()
			target := tt.setup(h)
			app := newTestApp(t, testConfig(), h, nil)

			status, env := call(t, app, http.MethodDelete, "/api/family/members/"+target, "", true)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantErr, env.Error)
			if tt.wantStatus == fiber.StatusOK {
				assert.Len(t, h.roster, 1)
				assert.Equal(t, uuid.Nil, h.memberNamed("Grace"))
			} else {
				assert.Len(t, h.roster, 2)
			}
		})
	}
}

func TestUpdateMemberRole(t *testing.T) {
	h := newHousehold()
	grace := h.memberNamed("Grace")
	app := newTestApp(t, testConfig(), h, nil)

	status, env := call(t, app, http.MethodPut, "/api/family/members/role",
		`{"memberId": "`+grace.String()+`", "role": "ADMIN"}`, true)
	require.Equal(t, fiber.StatusOK, status)

	var member models.FamilyMember
	require.NoError(t, json.Unmarshal(env.Data, &member))
	assert.Equal(t, grace, member.ID)
	assert.Equal(t, models.RoleAdmin, member.Role)
	assert.Equal(t, models.RoleAdmin, h.roster[grace].Role)

	status, env = call(t, app, http.MethodPut, "/api/family/members/role",
		`{"memberId": "`+h.user.ID.String()+`", "role": "MEMBER"}`, true)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "the owner's role cannot be changed", env.Error)
	assert.Equal(t, models.RoleOwner, h.roster[h.user.ID].Role)

	status, env = call(t, app, http.MethodPut, "/api/family/members/role",
		`{"memberId": "`+uuid.NewString()+`", "role": "MEMBER"}`, true)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, database.ErrMemberNotFound.Error(), env.Error)
}

func TestDeleteFamily(t *testing.T) {
	t.Run("owner detaches everyone", func(t *testing.T) {
		h := newHousehold()
		app := newTestApp(t, testConfig(), h, nil)

		status, _ := call(t, app, http.MethodDelete, "/api/family", "", true)

		require.Equal(t, fiber.StatusOK, status)
		assert.True(t, h.deleted)
		assert.Empty(t, h.roster)
	})

	t.Run("member is refused", func(t *testing.T) {
		h := newHousehold()
		h.asMember()
		app := newTestApp(t, testConfig(), h, nil)

		status, env := call(t, app, http.MethodDelete, "/api/family", "", true)

		assert.Equal(t, fiber.StatusForbidden, status)
		assert.Equal(t, "only the family owner can do this", env.Error)
		assert.False(t, h.deleted)
		assert.Len(t, h.roster, 2)
	})
}

func TestJoinFamily(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(h *household)
		code       string
		wantStatus int
		wantErr    string
	}{
		{
			name:       "joins as parent",
			setup:      func(h *household) { h.asGuest() },
			code:       testInviteCode,
			wantStatus: fiber.StatusOK,
		},
		{
			name:       "wrong code",
			setup:      func(h *household) { h.asGuest() },
			code:       "ZZZZ9999",
			wantStatus: fiber.StatusBadRequest,
			wantErr:    "invalid or expired invite code",
		},
		{
			name: "expired code",
			setup: func(h *household) {
				h.asGuest()
				past := time.Now().Add(-time.Minute)
				h.family.InviteExpiry = &past
			},
			code:       testInviteCode,
			wantStatus: fiber.StatusBadRequest,
			wantErr:    "invalid or expired invite code",
		},
		{
			name: "family full",
			setup: func(h *household) {
				h.asGuest()
				h.family.MaxMembers = 2
			},
			code:       testInviteCode,
			wantStatus: fiber.StatusBadRequest,
			wantErr:    "family has reached maximum member limit",
		},
		{
			name:       "already in a family",
			setup:      func(h *household) {},
			code:       testInviteCode,
			wantStatus: fiber.StatusConflict,
			wantErr:    "user already belongs to a family",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHousehold()
			tt.setup(h)
			app := newTestApp(t, testConfig(), h, nil)

			status, env := call(t, app, http.MethodPost, "/api/family/join", `{"inviteCode": "`+tt.code+`"}`, true)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantErr, env.Error)
			if tt.wantStatus != fiber.StatusOK {
				return
			}

			var family models.Family
			require.NoError(t, json.Unmarshal(env.Data, &family))
			assert.Equal(t, "Lovelace", family.Name)
			require.Contains(t, h.roster, h.user.ID)
			assert.Equal(t, models.RoleParent, h.roster[h.user.ID].Role)
		})
	}
}

func TestRespondJoinRequest(t *testing.T) {
	respond := func(t *testing.T, app *fiber.App, id uuid.UUID, action string) (int, envelope) {
		t.Helper()
		return call(t, app, http.MethodPut, "/api/family/join-requests",
			`{"requestId": "`+id.String()+`", "action": "`+action+`"}`, true)
	}

	t.Run("approve adds member once", func(t *testing.T) {
		h := newHousehold()
		req := h.addRequest()
		app := newTestApp(t, testConfig(), h, nil)

		status, env := respond(t, app, req.ID, "approve")
		require.Equal(t, fiber.StatusOK, status)

		var got models.JoinRequest
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, models.JoinRequestApproved, got.Status)
		assert.NotNil(t, got.RespondedAt)
		require.Contains(t, h.roster, req.UserID)
		assert.Equal(t, models.RoleMember, h.roster[req.UserID].Role)

		status, env = respond(t, app, req.ID, "REJECT")
		assert.Equal(t, fiber.StatusConflict, status)
		assert.Equal(t, "join request is not pending", env.Error)
	})

	tests := []struct {
		name       string
		setup      func(h *household) uuid.UUID
		action     string
		wantStatus int
		wantErr    string
	}{
		{
			name:       "unknown action",
			setup:      func(h *household) uuid.UUID { return h.addRequest().ID },
			action:     "MAYBE",
			wantStatus: fiber.StatusBadRequest,
			wantErr:    "invalid action",
		},
		{
			name:       "unknown request",
			setup:      func(h *household) uuid.UUID { return uuid.New() },
			action:     "APPROVE",
			wantStatus: fiber.StatusNotFound,
			wantErr:    "join request not found",
		},
		{
			name: "not the owner",
			setup: func(h *household) uuid.UUID {
				id := h.addRequest().ID
				h.asMember()
				return id
			},
			action:     "APPROVE",
			wantStatus: fiber.StatusForbidden,
			wantErr:    "only the family owner can do this",
		},
		{
			name: "full family cannot approve",
			setup: func(h *household) uuid.UUID {
				h.family.MaxMembers = 2
				return h.addRequest().ID
			},
			action:     "APPROVE",
			wantStatus: fiber.StatusBadRequest,
			wantErr:    "family has reached maximum member limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHousehold()
			id := tt.setup(h)
			app := newTestApp(t, testConfig(), h, nil)

			status, env := respond(t, app, id, tt.action)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantErr, env.Error)
			assert.Len(t, h.roster, 2)
		})
	}
}

func TestActivityCreatorOnly(t *testing.T) {
	setup := func(t *testing.T, createdByCaller bool) (*household, *fiber.App, *models.Activity) {
		h := newHousehold()
		creator := h.user.ID
		if !createdByCaller {
			creator = h.memberNamed("Grace")
		}
		a := &models.Activity{
			ID:        uuid.New(),
			FamilyID:  h.family.ID,
			CreatedBy: creator,
			Title:     "Swim class",
			Date:      time.Date(2025, 1, 8, 17, 0, 0, 0, time.UTC),
			Status:    models.ActivityPending,
		}
		h.activities[a.ID] = a
		return h, newTestApp(t, testConfig(), h, nil), a
	}

	tests := []struct {
		name       string
		own        bool
		method     string
		body       string
		wantStatus int
		wantErr    string
	}{
		{"creator confirms", true, http.MethodPut, `{"status": "confirmed"}`, fiber.StatusOK, ""},
		{"creator deletes", true, http.MethodDelete, "", fiber.StatusOK, ""},
		{"other member edits", false, http.MethodPut, `{"title": "Mine now"}`, fiber.StatusForbidden, "only the creator can change this activity"},
		{"other member deletes", false, http.MethodDelete, "", fiber.StatusForbidden, "only the creator can change this activity"},
		{"unknown status", true, http.MethodPut, `{"status": "done"}`, fiber.StatusBadRequest, "status is invalid"},
		{"blank title", true, http.MethodPut, `{"title": "   "}`, fiber.StatusBadRequest, "title is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, app, a := setup(t, tt.own)

			status, env := call(t, app, tt.method, "/api/activities/"+a.ID.String(), tt.body, true)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantErr, env.Error)

			stored, ok := h.activities[a.ID]
			switch {
			case tt.wantStatus != fiber.StatusOK:
				require.True(t, ok)
				assert.Equal(t, "Swim class", stored.Title)
				assert.Equal(t, models.ActivityPending, stored.Status)
			case tt.method == http.MethodDelete:
				assert.False(t, ok)
			default:
				require.True(t, ok)
				assert.Equal(t, models.ActivityConfirmed, stored.Status)
			}
		})
	}

	t.Run("unknown activity", func(t *testing.T) {
		_, app, _ := setup(t, true)

		status, env := call(t, app, http.MethodDelete, "/api/activities/"+uuid.NewString(), "", true)

		assert.Equal(t, fiber.StatusNotFound, status)
		assert.Equal(t, "activity not found", env.Error)
	})
}
