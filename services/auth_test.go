package services_test

import (
	"context"
	"net/http"
	"projectcamp/models"
	"projectcamp/services"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var meta = services.ClientMeta{UserAgent: "test", IPAddress: "127.0.0.1"}

func TestRegisterVerifyLoginRefresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.auth.Register(ctx, services.RegisterInput{
		Email:    "  Alice@Example.COM ",
		Username: "alice",
		Password: password,
		FullName: "Alice A",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.False(t, user.IsEmailVerified)
	require.Equal(t, 1, f.mail.count())

	token := f.mail.lastToken(t)
	stored, err := f.store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, token, stored.EmailVerificationToken, "only the digest is stored")

	require.NoError(t, f.auth.VerifyEmail(ctx, token))
	stored, err = f.store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsEmailVerified)
	assert.Empty(t, stored.EmailVerificationToken)

	err = f.auth.VerifyEmail(ctx, token)
	apiErr := requireKind(t, err, models.KindInvalidArgument)
	assert.Equal(t, "Token is invalid or expired", apiErr.Message)

	login, err := f.auth.Login(ctx, services.LoginInput{Email: "alice@example.com", Password: password}, meta)
	require.NoError(t, err)
	assert.Equal(t, user.ID, login.User.ID)

	rotated, err := f.auth.Refresh(ctx, login.Tokens.RefreshToken, meta)
	require.NoError(t, err)
	assert.NotEqual(t, login.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

	_, err = f.auth.Refresh(ctx, login.Tokens.RefreshToken, meta)
	apiErr = requireKind(t, err, models.KindUnauthenticated)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	_, err = f.auth.Refresh(ctx, rotated.Tokens.RefreshToken, meta)
	require.NoError(t, err)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice")
	login, err := f.auth.Login(ctx, services.LoginInput{Username: "alice", Password: password}, meta)
	require.NoError(t, err)

	for _, token := range []string{"", "not.a.jwt", login.Tokens.AccessToken} {
		_, err := f.auth.Refresh(ctx, token, meta)
		requireKind(t, err, models.KindUnauthenticated)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice")

	_, err := f.auth.Register(ctx, services.RegisterInput{Email: "ALICE@example.com", Username: "other", Password: password})
	apiErr := requireKind(t, err, models.KindConflict)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)

	_, err = f.auth.Register(ctx, services.RegisterInput{Email: "new@example.com", Username: "alice", Password: password})
	requireKind(t, err, models.KindConflict)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Register(context.Background(), services.RegisterInput{Email: "bad", Username: "AB", Password: ""})
	apiErr := requireKind(t, err, models.KindInvalidArgument)
	assert.Len(t, apiErr.Errors, 3)
	assert.Equal(t, 0, f.mail.count())
}

func TestLoginFailuresLookAlike(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice")

	_, wrongPassword := f.auth.Login(ctx, services.LoginInput{Email: "alice@example.com", Password: "Wrong#123"}, meta)
	_, unknownUser := f.auth.Login(ctx, services.LoginInput{Email: "nobody@example.com", Password: password}, meta)

	a := requireKind(t, wrongPassword, models.KindUnauthenticated)
	b := requireKind(t, unknownUser, models.KindUnauthenticated)
	assert.Equal(t, a.Message, b.Message)

	_, err := f.auth.Login(ctx, services.LoginInput{Password: password}, meta)
	requireKind(t, err, models.KindInvalidArgument)
}

func TestLogoutRevokesSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.register(t, "alice")
	first, err := f.auth.Login(ctx, services.LoginInput{Username: "alice", Password: password}, meta)
	require.NoError(t, err)
	second, err := f.auth.Login(ctx, services.LoginInput{Username: "alice", Password: password}, meta)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, u.ID, first.Tokens.RefreshToken))

	n, err := f.sessions.CountUserSessions(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = f.auth.Refresh(ctx, second.Tokens.RefreshToken, meta)
	requireKind(t, err, models.KindUnauthenticated)
}

func TestPasswordResetRevokesSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.register(t, "alice")
	login, err := f.auth.Login(ctx, services.LoginInput{Email: u.Email, Password: password}, meta)
	require.NoError(t, err)

	require.NoError(t, f.auth.ForgotPassword(ctx, "ALICE@example.com"))
	require.Equal(t, 2, f.mail.count())
	token := f.mail.lastToken(t)

	err = f.auth.ResetPassword(ctx, token, "weak")
	requireKind(t, err, models.KindInvalidArgument)

	require.NoError(t, f.auth.ResetPassword(ctx, token, "Brand#New1"))

	_, err = f.auth.Refresh(ctx, login.Tokens.RefreshToken, meta)
	requireKind(t, err, models.KindUnauthenticated)

	_, err = f.auth.Login(ctx, services.LoginInput{Email: u.Email, Password: password}, meta)
	requireKind(t, err, models.KindUnauthenticated)
	_, err = f.auth.Login(ctx, services.LoginInput{Email: u.Email, Password: "Brand#New1"}, meta)
	require.NoError(t, err)

	err = f.auth.ResetPassword(ctx, token, "Other#New2")
	requireKind(t, err, models.KindInvalidArgument)
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.auth.ForgotPassword(context.Background(), "nobody@example.com"))
	assert.Equal(t, 0, f.mail.count())

	err := f.auth.ForgotPassword(context.Background(), "")
	requireKind(t, err, models.KindInvalidArgument)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.register(t, "alice")
	login, err := f.auth.Login(ctx, services.LoginInput{Username: "alice", Password: password}, meta)
	require.NoError(t, err)

	err = f.auth.ChangePassword(ctx, u.ID, "Wrong#123", "Brand#New1")
	apiErr := requireKind(t, err, models.KindInvalidArgument)
	assert.Equal(t, "Invalid old password", apiErr.Message)

	require.NoError(t, f.auth.ChangePassword(ctx, u.ID, password, "Brand#New1"))

	_, err = f.auth.Refresh(ctx, login.Tokens.RefreshToken, meta)
	requireKind(t, err, models.KindUnauthenticated)
	_, err = f.auth.Login(ctx, services.LoginInput{Username: "alice", Password: "Brand#New1"}, meta)
	require.NoError(t, err)
}

func TestResendEmailVerification(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.register(t, "alice")
	first := f.mail.lastToken(t)

	require.NoError(t, f.auth.ResendEmailVerification(ctx, u.ID))
	second := f.mail.lastToken(t)
	assert.NotEqual(t, first, second)

	err := f.auth.VerifyEmail(ctx, first)
	requireKind(t, err, models.KindInvalidArgument)
	require.NoError(t, f.auth.VerifyEmail(ctx, second))

	err = f.auth.ResendEmailVerification(ctx, u.ID)
	requireKind(t, err, models.KindConflict)

	current, err := f.auth.CurrentUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, current.IsEmailVerified)
}
