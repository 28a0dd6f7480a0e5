package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/family-organizer/internal/config"
)

var testInvite = InviteEmail{
	FamilyName:  "Lovelace <Household>",
	InviterName: "Ada",
	InviteCode:  "AB12cd-_",
	Expiry:      time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC),
}

func TestInviteEmailRender(t *testing.T) {
	subject, html, text, err := testInvite.Render()
	require.NoError(t, err)

	assert.Equal(t, "Ada invited you to join Lovelace <Household>", subject)
	assert.Contains(t, html, "AB12cd-_")
	assert.Contains(t, html, "Lovelace &lt;Household&gt;")
	assert.NotContains(t, html, "<Household>")
	assert.Contains(t, html, "Monday, January 13, 2025")
	assert.Contains(t, text, "Enter this code when joining a family: AB12cd-_")
}

func TestSendInvite(t *testing.T) {
	m := &fakeMailer{}
	require.NoError(t, SendInvite(context.Background(), m, "grace@example.com", testInvite))

	require.Len(t, m.sent, 1)
	assert.Equal(t, "grace@example.com", m.sent[0].to)
	assert.Contains(t, m.sent[0].html, "AB12cd-_")

	m.err = errBoom
	assert.ErrorIs(t, SendInvite(context.Background(), m, "grace@example.com", testInvite), errBoom)
}

func TestSendInviteWithoutMailer(t *testing.T) {
	assert.ErrorIs(t, SendInvite(context.Background(), nil, "grace@example.com", testInvite), ErrEmailDisabled)
}

func TestNewSMTPMailerDisabled(t *testing.T) {
	_, err := NewSMTPMailer(&config.Config{})
	assert.ErrorIs(t, err, ErrEmailDisabled)
}
