package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
)

func TestEmailVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, customerInput("a@b.com", "Str0ngPass!"))
	sess := &AuthSession{User: reg.User, Via: ViaAccessToken}

	require.NoError(t, f.verify.Init(ctx, sess, RequestMeta{}))
	msgs := f.sink.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Body, "http://app.test/verify?token=")
	token := f.sink.lastToken(t)

	require.NoError(t, f.verify.Confirm(ctx, token, RequestMeta{}))
	u, err := f.users.GetByID(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)

	assert.ErrorIs(t, f.verify.Confirm(ctx, token, RequestMeta{}), ErrInvalidOrExpiredToken)

	// verified users are not mailed again
	require.NoError(t, f.verify.Init(ctx, &AuthSession{User: u}, RequestMeta{}))
	assert.Len(t, f.sink.messages(), 1)

	login, err := f.auth.Login(ctx, LoginInput{Email: "a@b.com", Password: "Str0ngPass!"}, RequestMeta{})
	require.NoError(t, err)
	assert.False(t, login.RequiresEmailVerification)

	actions := f.audit.actions()
	assert.Contains(t, actions, entity.AuditVerifyIssue)
	assert.Contains(t, actions, entity.AuditVerifyConfirm)
}

func TestEmailVerificationErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.verify.Init(ctx, nil, RequestMeta{}), ErrUnauthenticated)
	assert.ErrorIs(t, f.verify.Confirm(ctx, "", RequestMeta{}), ErrInvalidOrExpiredToken)
	assert.ErrorIs(t, f.verify.Confirm(ctx, "unknown", RequestMeta{}), ErrInvalidOrExpiredToken)
}
