package accounts

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/solward/accountd/internal/common"
	"github.com/solward/accountd/internal/logging"
	"github.com/solward/accountd/internal/server/blob"
	"github.com/solward/accountd/internal/server/directory"
	"github.com/solward/accountd/internal/server/mail"
	"github.com/solward/accountd/internal/server/token"
)

// capturingSender records outbound mail in memory.
type capturingSender struct {
	to       []string
	subjects []string
	bodies   []string
	fail     bool
}

func (s *capturingSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if s.fail {
		return errors.New("relay down")
	}
	s.to = append(s.to, to)
	s.subjects = append(s.subjects, subject)
	s.bodies = append(s.bodies, htmlBody)
	return nil
}

var tokenRe = regexp.MustCompile(`token=([^"&]+)`)

// tokenFromBody pulls the lifecycle token out of a rendered mail body.
func tokenFromBody(t *testing.T, body string) string {
	t.Helper()
	m := tokenRe.FindStringSubmatch(body)
	require.NotNil(t, m, "no token link in mail body")
	tok, err := url.QueryUnescape(m[1])
	require.NoError(t, err)
	return tok
}

type fixture struct {
	svc    *Service
	store  *directory.Store
	sender *capturingSender
}

func newFixture(t *testing.T, signupTTL, resetTTL time.Duration) *fixture {
	t.Helper()

	log := logging.NewJSON()
	store := directory.NewStore(blob.NewMemoryBucket(), directory.Options{
		Key:         "users.csv",
		BcryptCost:  bcrypt.MinCost,
		MaxAttempts: 3,
	}, log)
	sender := &capturingSender{}
	codec := token.NewCodec([]byte("test-secret"), signupTTL, resetTTL)
	renderer := mail.NewRenderer("http://app.local", "http://api.local")

	svc := NewService(store, codec, sender, renderer, "Acme Admin", "Acme Root", log)
	return &fixture{svc: svc, store: store, sender: sender}
}

func TestSignUpThenConfirmThenSignIn(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Hour, time.Hour)
	ctx := context.Background()

	status, err := f.svc.SignUp(ctx, "a@x.com", "A", "B", "pw1", "Acme")
	require.NoError(t, err)
	assert.Equal(t, StatusVerificationSent, status)
	require.Len(t, f.sender.bodies, 1)
	assert.Equal(t, "a@x.com", f.sender.to[0])

	// Nothing persisted until confirmation.
	_, err = f.store.FindByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, common.ErrUserNotFound)

	tok := tokenFromBody(t, f.sender.bodies[0])
	creds, err := f.svc.ConfirmSignUp(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", creds.Email)
	assert.Equal(t, "pw1", creds.Password)

	u, err := f.store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)
	assert.Equal(t, "A", u.FirstName)
	assert.Equal(t, "B", u.LastName)
	assert.Equal(t, "Acme", u.Organization)

	role, err := f.svc.SignIn(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, role)

	_, err = f.svc.SignIn(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestSignUp_AlreadyRegisteredSendsNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Hour, time.Hour)
	ctx := context.Background()

	_, err := f.store.Create(ctx, "a@x.com", "A", "B", "Acme", "pw1")
	require.NoError(t, err)

	status, err := f.svc.SignUp(ctx, "A@X.com", "A", "B", "pw1", "Acme")
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyRegistered, status)
	assert.Empty(t, f.sender.bodies)
}

func TestConfirmSignUp_ExpiredToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t, -time.Second, time.Hour)
	ctx := context.Background()

	status, err := f.svc.SignUp(ctx, "a@x.com", "A", "B", "pw1", "Acme")
	require.NoError(t, err)
	assert.Equal(t, StatusVerificationSent, status)

	tok := tokenFromBody(t, f.sender.bodies[0])
	_, err = f.svc.ConfirmSignUp(ctx, tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestConfirmSignUp_DuplicateIsBenign(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Hour, time.Hour)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "a@x.com", "A", "B", "pw1", "Acme")
	require.NoError(t, err)
	tok := tokenFromBody(t, f.sender.bodies[0])

	_, err = f.svc.ConfirmSignUp(ctx, tok)
	require.NoError(t, err)

	// Confirming the same still-valid token again must not fail.
	creds, err := f.svc.ConfirmSignUp(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", creds.Email)

	snap, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Users, 1)
}

func TestSignIn_RoleMapping(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Hour, time.Hour)
	ctx := context.Background()

	tests := []struct {
		email string
		org   string
		want  Role
	}{
		{"admin@x.com", "Acme Admin", RoleAdmin},
		{"root@x.com", "Acme Root", RoleSuperAdmin},
		{"user@x.com", "Elsewhere", RoleUser},
	}

	for _, tt := range tests {
		_, err := f.store.Create(ctx, tt.email, "F", "L", tt.org, "pw")
		require.NoError(t, err)

		role, err := f.svc.SignIn(ctx, tt.email, "pw")
		require.NoError(t, err)
		assert.Equal(t, tt.want, role, "org %q", tt.org)
	}
}

func TestSignIn_UnknownEmailMergedWithBadPassword(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Hour, time.Hour)

	_, err := f.svc.SignIn(context.Background(), "nobody@x.com", "pw")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestForgotPasswordResetCycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Hour, time.Hour)
	ctx := context.Background()

	_, err := f.store.Create(ctx, "a@x.com", "A", "B", "Acme", "oldpass")
	require.NoError(t, err)

	require.NoError(t, f.svc.ForgotPassword(ctx, "a@x.com"))
	require.Len(t, f.sender.bodies, 1)
	assert.Equal(t, "Reset Your Password", f.sender.subjects[0])

	tok := tokenFromBody(t, f.sender.bodies[0])
	require.NoError(t, f.svc.ConfirmPasswordReset(ctx, tok, "newpass"))

	role, err := f.svc.SignIn(ctx, "a@x.com", "newpass")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, role)

	_, err = f.svc.SignIn(ctx, "a@x.com", "oldpass")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Hour, time.Hour)

	err := f.svc.ForgotPassword(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestConfirmPasswordReset_SignupTokenRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Hour, time.Hour)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "a@x.com", "A", "B", "pw1", "Acme")
	require.NoError(t, err)
	tok := tokenFromBody(t, f.sender.bodies[0])

	err = f.svc.ConfirmPasswordReset(ctx, tok, "newpass")
	assert.ErrorIs(t, err, common.ErrTokenWrongPurpose)
}

func TestSignUp_MailFailureDoesNotFailOperation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Hour, time.Hour)
	f.sender.fail = true

	status, err := f.svc.SignUp(context.Background(), "a@x.com", "A", "B", "pw1", "Acme")
	require.NoError(t, err)
	assert.Equal(t, StatusVerificationSent, status)
}
