package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/foxxcyber/family-organizer/internal/database"
	"github.com/foxxcyber/family-organizer/internal/models"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestFamilyService(t *testing.T, store *memFamilyStore) *FamilyService {
	svc := NewFamilyService(store, 7*24*time.Hour, zaptest.NewLogger(t))
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func withInvite(f *models.Family, code string, expiry time.Time) {
	f.InviteCode = &code
	f.InviteExpiry = &expiry
}

func TestGenerateInviteCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateInviteCode()
		require.NoError(t, err)
		require.Len(t, code, InviteCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(inviteAlphabet, r), "unexpected %q in %s", r, code)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestInviteValid(t *testing.T) {
	f := &models.Family{}
	assert.False(t, InviteValid(f, "ABCDEFGH", fixedNow), "no code")
	assert.False(t, InviteValid(nil, "ABCDEFGH", fixedNow))

	withInvite(f, "ABCDEFGH", fixedNow.Add(time.Hour))
	assert.True(t, InviteValid(f, "ABCDEFGH", fixedNow))
	assert.False(t, InviteValid(f, "abcdefgh", fixedNow), "codes are case-sensitive")
	assert.False(t, InviteValid(f, "ABCDEFGH", fixedNow.Add(time.Hour)), "expiry is exclusive")

	f.InviteExpiry = nil
	assert.False(t, InviteValid(f, "ABCDEFGH", fixedNow))
}

func TestCanAddMember(t *testing.T) {
	assert.NoError(t, CanAddMember(0, 1))
	assert.NoError(t, CanAddMember(9, 10))
	assert.ErrorIs(t, CanAddMember(10, 10), ErrFamilyFull)
	assert.ErrorIs(t, CanAddMember(11, 10), ErrFamilyFull)
}

func TestTransitionJoinRequest(t *testing.T) {
	tests := []struct {
		name    string
		from    models.JoinRequestStatus
		action  models.JoinRequestAction
		want    models.JoinRequestStatus
		wantErr error
	}{
		{"approve pending", models.JoinRequestPending, models.JoinActionApprove, models.JoinRequestApproved, nil},
		{"reject pending", models.JoinRequestPending, models.JoinActionReject, models.JoinRequestRejected, nil},
		{"approve approved", models.JoinRequestApproved, models.JoinActionApprove, models.JoinRequestApproved, ErrJoinRequestNotPending},
		{"reject approved", models.JoinRequestApproved, models.JoinActionReject, models.JoinRequestApproved, ErrJoinRequestNotPending},
		{"approve rejected", models.JoinRequestRejected, models.JoinActionApprove, models.JoinRequestRejected, ErrJoinRequestNotPending},
		{"unknown action", models.JoinRequestPending, "MAYBE", models.JoinRequestPending, ErrInvalidAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &models.JoinRequest{Status: tt.from}
			err := TransitionJoinRequest(req, tt.action, fixedNow)

			assert.Equal(t, tt.want, req.Status)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, req.RespondedAt)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, req.RespondedAt)
			assert.Equal(t, fixedNow, *req.RespondedAt)
		})
	}
}

func TestRegenerateInvite(t *testing.T) {
	store := newMemFamilyStore()
	ownerID := uuid.New()
	family := store.addFamily(ownerID, 10)
	svc := newTestFamilyService(t, store)
	svc.newCode = func() (string, error) { return "CODE1234", nil }

	owner := &models.User{ID: ownerID, Role: models.RoleOwner, FamilyID: &family.ID}
	invite, err := svc.RegenerateInvite(context.Background(), owner)
	require.NoError(t, err)

	assert.Equal(t, "CODE1234", invite.InviteCode)
	assert.Equal(t, fixedNow.Add(7*24*time.Hour), invite.InviteExpiry)
	require.NotNil(t, family.InviteCode)
	assert.Equal(t, "CODE1234", *family.InviteCode)

	require.NoError(t, svc.ClearInvite(context.Background(), owner))
	assert.Nil(t, family.InviteCode)
	assert.Nil(t, family.InviteExpiry)
}

func TestRegenerateInviteRequiresManager(t *testing.T) {
	store := newMemFamilyStore()
	family := store.addFamily(uuid.New(), 10)
	svc := newTestFamilyService(t, store)

	member := &models.User{ID: uuid.New(), Role: models.RoleMember, FamilyID: &family.ID}
	_, err := svc.RegenerateInvite(context.Background(), member)
	assert.ErrorIs(t, err, ErrInviteNotPermitted)
	assert.ErrorIs(t, svc.ClearInvite(context.Background(), member), ErrInviteNotPermitted)

	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin, FamilyID: &family.ID}
	_, err = svc.RegenerateInvite(context.Background(), admin)
	assert.NoError(t, err)

	_, err = svc.RegenerateInvite(context.Background(), &models.User{Role: models.RoleOwner})
	assert.ErrorIs(t, err, database.ErrFamilyNotFound)
}

func TestJoinWithCode(t *testing.T) {
	store := newMemFamilyStore()
	family := store.addFamily(uuid.New(), 10)
	withInvite(family, "JOINME12", fixedNow.Add(time.Hour))
	svc := newTestFamilyService(t, store)

	user := &models.User{ID: uuid.New(), Role: models.RoleParent}
	joined, err := svc.JoinWithCode(context.Background(), user, "JOINME12")
	require.NoError(t, err)

	assert.Equal(t, family.ID, joined.ID)
	assert.Equal(t, family.ID, store.members[user.ID])
	assert.Equal(t, models.RoleParent, store.roles[user.ID])
}

func TestJoinWithCodeRejections(t *testing.T) {
	otherFamily := uuid.New()

	tests := []struct {
		name    string
		max     int
		expiry  time.Duration
		code    string
		user    *models.User
		wantErr error
	}{
		{"wrong code", 10, time.Hour, "NOPE0000", &models.User{ID: uuid.New()}, ErrInviteInvalid},
		{"expired", 10, -time.Minute, "JOINME12", &models.User{ID: uuid.New()}, ErrInviteInvalid},
		{"full", 1, time.Hour, "JOINME12", &models.User{ID: uuid.New()}, ErrFamilyFull},
		{"already in family", 10, time.Hour, "JOINME12", &models.User{ID: uuid.New(), FamilyID: &otherFamily}, ErrAlreadyInFamily},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemFamilyStore()
			family := store.addFamily(uuid.New(), tt.max)
			withInvite(family, "JOINME12", fixedNow.Add(tt.expiry))
			svc := newTestFamilyService(t, store)

			_, err := svc.JoinWithCode(context.Background(), tt.user, tt.code)
			assert.ErrorIs(t, err, tt.wantErr)
			_, member := store.members[tt.user.ID]
			assert.False(t, member)
		})
	}
}

func TestRequestToJoinReusesPendingRequest(t *testing.T) {
	store := newMemFamilyStore()
	family := store.addFamily(uuid.New(), 10)
	withInvite(family, "JOINME12", fixedNow.Add(time.Hour))
	svc := newTestFamilyService(t, store)
	user := &models.User{ID: uuid.New()}

	first, err := svc.RequestToJoin(context.Background(), user, "JOINME12")
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestPending, first.Status)
	assert.Equal(t, family.ID, first.FamilyID)

	second, err := svc.RequestToJoin(context.Background(), user, "JOINME12")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.requests, 1)

	_, err = svc.RequestToJoin(context.Background(), user, "WRONG000")
	assert.ErrorIs(t, err, ErrInviteInvalid)
}

func TestRespondToJoinRequest(t *testing.T) {
	ctx := context.Background()
	store := newMemFamilyStore()
	ownerID := uuid.New()
	family := store.addFamily(ownerID, 10)
	withInvite(family, "JOINME12", fixedNow.Add(time.Hour))
	svc := newTestFamilyService(t, store)
	owner := &models.User{ID: ownerID, Role: models.RoleOwner, FamilyID: &family.ID}

	alice := &models.User{ID: uuid.New()}
	bob := &models.User{ID: uuid.New()}
	aliceReq, err := svc.RequestToJoin(ctx, alice, "JOINME12")
	require.NoError(t, err)
	bobReq, err := svc.RequestToJoin(ctx, bob, "JOINME12")
	require.NoError(t, err)

	approved, err := svc.RespondToJoinRequest(ctx, owner, aliceReq.ID, models.JoinActionApprove)
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestApproved, approved.Status)
	assert.Equal(t, models.RoleMember, store.roles[alice.ID])
	assert.Equal(t, models.JoinRequestApproved, store.requests[aliceReq.ID].Status)

	rejected, err := svc.RespondToJoinRequest(ctx, owner, bobReq.ID, models.JoinActionReject)
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestRejected, rejected.Status)
	_, member := store.members[bob.ID]
	assert.False(t, member)

	_, err = svc.RespondToJoinRequest(ctx, owner, bobReq.ID, models.JoinActionApprove)
	assert.ErrorIs(t, err, ErrJoinRequestNotPending)

	_, err = svc.RespondToJoinRequest(ctx, owner, uuid.New(), models.JoinActionApprove)
	assert.ErrorIs(t, err, database.ErrJoinRequestNotFound)

	_, err = svc.RespondToJoinRequest(ctx, owner, bobReq.ID, "MAYBE")
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestRespondToJoinRequestChecks(t *testing.T) {
	ctx := context.Background()
	store := newMemFamilyStore()
	ownerID := uuid.New()
	family := store.addFamily(ownerID, 1)
	withInvite(family, "JOINME12", fixedNow.Add(time.Hour))
	svc := newTestFamilyService(t, store)

	req, err := svc.RequestToJoin(ctx, &models.User{ID: uuid.New()}, "JOINME12")
	require.NoError(t, err)

	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin, FamilyID: &family.ID}
	_, err = svc.RespondToJoinRequest(ctx, admin, req.ID, models.JoinActionApprove)
	assert.ErrorIs(t, err, ErrNotFamilyOwner)

	owner := &models.User{ID: ownerID, Role: models.RoleOwner, FamilyID: &family.ID}
	_, err = svc.RespondToJoinRequest(ctx, owner, req.ID, models.JoinActionApprove)
	assert.ErrorIs(t, err, ErrFamilyFull)
	assert.Equal(t, models.JoinRequestPending, store.requests[req.ID].Status)

	// a full family can still reject
	_, err = svc.RespondToJoinRequest(ctx, owner, req.ID, models.JoinActionReject)
	assert.NoError(t, err)
}
