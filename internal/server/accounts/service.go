// Package accounts sequences the account lifecycle: signup offer and
// confirmation, sign-in, and the password reset cycle. The service itself
// owns no persistent state — everything pending lives in the signed tokens
// handed to the user, everything committed lives in the directory.
package accounts

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/solward/accountd/internal/common"
	"github.com/solward/accountd/internal/logging"
	"github.com/solward/accountd/internal/server/directory"
	"github.com/solward/accountd/internal/server/mail"
	"github.com/solward/accountd/internal/server/token"
)

// Role is the coarse permission level derived from the user's organization
// at sign-in. It is computed, never stored.
type Role string

const (
	RoleUser       Role = "User"
	RoleAdmin      Role = "Admin"
	RoleSuperAdmin Role = "SuperAdmin"
)

// SignUpStatus is the outcome of a signup request.
type SignUpStatus string

const (
	StatusVerificationSent  SignUpStatus = "verification sent"
	StatusAlreadyRegistered SignUpStatus = "already registered"
)

// Credentials echoes the confirmed signup back to the caller so the HTTP
// layer can redirect straight into a login.
type Credentials struct {
	Email    string
	Password string
}

// Directory is the subset of the directory store the orchestrator needs.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*directory.User, error)
	Create(ctx context.Context, email, firstName, lastName, organization, password string) (*directory.User, error)
	UpdatePassword(ctx context.Context, email, password string) error
}

// Service wires the token codec, the directory and the mailer into the
// lifecycle operations.
type Service struct {
	store         Directory
	tokens        *token.Codec
	sender        mail.Sender
	renderer      *mail.Renderer
	adminOrg      string
	superAdminOrg string
	log           logging.Logger
}

func NewService(store Directory, tokens *token.Codec, sender mail.Sender, renderer *mail.Renderer, adminOrg, superAdminOrg string, log logging.Logger) *Service {
	return &Service{
		store:         store,
		tokens:        tokens,
		sender:        sender,
		renderer:      renderer,
		adminOrg:      adminOrg,
		superAdminOrg: superAdminOrg,
		log:           log,
	}
}

// SignUp offers a registration. Nothing is persisted: the whole pending
// signup, password included, rides inside the signed token mailed to the
// address. An already-registered email gets no mail.
func (s *Service) SignUp(ctx context.Context, email, firstName, lastName, password, organization string) (SignUpStatus, error) {
	_, err := s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return StatusAlreadyRegistered, nil
	case !errors.Is(err, common.ErrUserNotFound):
		return "", err
	}

	tok, err := s.tokens.IssueSignup(email, firstName, lastName, organization, password)
	if err != nil {
		return "", fmt.Errorf("issuing signup token: %w", err)
	}

	s.sendMail(ctx, email, func() (string, string, error) {
		return s.renderer.VerificationEmail(firstName, tok)
	})

	return StatusVerificationSent, nil
}

// ConfirmSignUp redeems a signup token and creates the account. A duplicate
// create is benign: the token may be confirmed twice, or two signups for
// the same email may race — either way the account exists, which is what
// the caller asked for.
func (s *Service) ConfirmSignUp(ctx context.Context, tokenString string) (*Credentials, error) {
	claims, err := s.tokens.VerifySignup(tokenString)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Create(ctx, claims.Email, claims.FirstName, claims.LastName, claims.Organization, claims.Password); err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			s.log.Info(ctx, "signup confirmed for existing account", "email", claims.Email)
		} else {
			return nil, err
		}
	}

	return &Credentials{Email: claims.Email, Password: claims.Password}, nil
}

// SignIn verifies the password and maps the organization to a role. Unknown
// email and wrong password are indistinguishable in the result.
func (s *Service) SignIn(ctx context.Context, email, password string) (Role, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return "", common.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", common.ErrInvalidCredentials
	}

	switch {
	case s.adminOrg != "" && user.Organization == s.adminOrg:
		return RoleAdmin, nil
	case s.superAdminOrg != "" && user.Organization == s.superAdminOrg:
		return RoleSuperAdmin, nil
	default:
		return RoleUser, nil
	}
}

// ForgotPassword issues a reset token for a known email. An unknown email
// reports the same invalid-credentials outcome as a failed sign-in so the
// endpoint cannot be used to probe the directory.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return common.ErrInvalidCredentials
		}
		return err
	}

	tok, err := s.tokens.IssueReset(user.Email)
	if err != nil {
		return fmt.Errorf("issuing reset token: %w", err)
	}

	s.sendMail(ctx, user.Email, func() (string, string, error) {
		return s.renderer.ResetEmail(user.Email, user.FirstName, tok)
	})

	return nil
}

// ConfirmPasswordReset redeems a reset token and stores the new password.
func (s *Service) ConfirmPasswordReset(ctx context.Context, tokenString, newPassword string) error {
	claims, err := s.tokens.VerifyReset(tokenString)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, claims.Email, newPassword)
}

// sendMail renders and delivers one message, logging any failure. Delivery
// problems never fail the operation that triggered them.
func (s *Service) sendMail(ctx context.Context, to string, render func() (string, string, error)) {
	subject, body, err := render()
	if err != nil {
		s.log.Error(ctx, "rendering mail failed", "to", to, "error", err.Error())
		return
	}
	if err := s.sender.Send(ctx, to, subject, body); err != nil {
		s.log.Error(ctx, "sending mail failed", "to", to, "error", err.Error())
	}
}
