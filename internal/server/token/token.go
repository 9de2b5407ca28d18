// Package token issues and verifies the signed, time-bound capability
// tokens that carry the account lifecycle state between requests. A signup
// token holds the full pending registration (including the not-yet-stored
// password); a reset token holds only the email. Nothing is persisted —
// the token bytes handed to the user are the whole state.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/solward/accountd/internal/common"
)

// Purpose discriminates the claim variants; a token is only redeemable by
// the operation matching its purpose.
type Purpose string

const (
	PurposeSignup Purpose = "signup"
	PurposeReset  Purpose = "reset"
)

// SignupClaims carries a pending registration offered before expiry.
type SignupClaims struct {
	jwt.RegisteredClaims
	Purpose      Purpose `json:"purpose"`
	Email        string  `json:"email"`
	FirstName    string  `json:"fname"`
	LastName     string  `json:"lname"`
	Organization string  `json:"company"`
	Password     string  `json:"pwd"`
}

// ResetClaims proves a password reset was requested before expiry.
type ResetClaims struct {
	jwt.RegisteredClaims
	Purpose Purpose `json:"purpose"`
	Email   string  `json:"email"`
}

// Codec signs and verifies lifecycle tokens with a symmetric secret (HS256).
type Codec struct {
	secret    []byte
	signupTTL time.Duration
	resetTTL  time.Duration
}

func NewCodec(secret []byte, signupTTL, resetTTL time.Duration) *Codec {
	return &Codec{secret: secret, signupTTL: signupTTL, resetTTL: resetTTL}
}

func (c *Codec) IssueSignup(email, firstName, lastName, organization, password string) (string, error) {
	claims := SignupClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(c.signupTTL)),
		},
		Purpose:      PurposeSignup,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		Organization: organization,
		Password:     password,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *Codec) IssueReset(email string) (string, error) {
	claims := ResetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(c.resetTTL)),
		},
		Purpose: PurposeReset,
		Email:   email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// VerifySignup checks signature, expiry and purpose, returning the pending
// registration on success.
func (c *Codec) VerifySignup(tokenString string) (*SignupClaims, error) {
	claims := &SignupClaims{}
	if err := c.verify(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeSignup {
		return nil, common.ErrTokenWrongPurpose
	}
	return claims, nil
}

// VerifyReset checks signature, expiry and purpose, returning the reset
// claims on success.
func (c *Codec) VerifyReset(tokenString string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := c.verify(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeReset {
		return nil, common.ErrTokenWrongPurpose
	}
	return claims, nil
}

func (c *Codec) verify(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return common.ErrTokenExpired
		}
		return common.ErrTokenInvalid
	}
	if !token.Valid {
		return common.ErrTokenInvalid
	}
	return nil
}
