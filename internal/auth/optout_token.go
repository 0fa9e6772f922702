package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultOptOutTokenTTL = 30 * 24 * time.Hour

	optOutIssuer   = "draftroom-api"
	optOutAudience = "draftroom-optout"
)

var (
	errMissingSigningSecret = errors.New("signing secret must be provided")
	errMissingSubjectClaim  = errors.New("subject claim must be provided")
	errMissingCategoryClaim = errors.New("category claim must be provided")
)

// OptOutTokenIssuerConfig configures the unsubscribe-link token issuer.
type OptOutTokenIssuerConfig struct {
	SigningSecret []byte
	TokenTTL      time.Duration
	Clock         func() time.Time
}

// OptOutTokenIssuer signs and validates the one-click unsubscribe tokens
// embedded in notification emails. Tokens are long-lived on purpose: an
// opt-out link in an old email should still work.
type OptOutTokenIssuer struct {
	config OptOutTokenIssuerConfig
	clock  func() time.Time
}

type optOutClaims struct {
	Category string `json:"category"`
	jwt.RegisteredClaims
}

// NewOptOutTokenIssuer constructs an OptOutTokenIssuer with sane defaults.
func NewOptOutTokenIssuer(cfg OptOutTokenIssuerConfig) *OptOutTokenIssuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultOptOutTokenTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &OptOutTokenIssuer{
		config: OptOutTokenIssuerConfig{
			SigningSecret: cfg.SigningSecret,
			TokenTTL:      ttl,
			Clock:         clock,
		},
		clock: clock,
	}
}

// IssueOptOutToken produces a signed token that disables one notification
// category for one user.
func (i *OptOutTokenIssuer) IssueOptOutToken(userID, category string) (string, error) {
	if len(i.config.SigningSecret) == 0 {
		return "", errMissingSigningSecret
	}
	if userID == "" {
		return "", errMissingSubjectClaim
	}
	if category == "" {
		return "", errMissingCategoryClaim
	}

	now := i.clock().UTC()
	claims := optOutClaims{
		Category: category,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    optOutIssuer,
			Audience:  []string{optOutAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.config.TokenTTL).UTC()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.config.SigningSecret)
}

// ValidateOptOutToken ensures the token is well formed and returns the user
// id and category it covers.
func (i *OptOutTokenIssuer) ValidateOptOutToken(tokenString string) (string, string, error) {
	if len(i.config.SigningSecret) == 0 {
		return "", "", errMissingSigningSecret
	}

	claims := &optOutClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", token.Method.Alg())
			}
			return i.config.SigningSecret, nil
		},
		jwt.WithAudience(optOutAudience),
		jwt.WithIssuer(optOutIssuer),
		jwt.WithTimeFunc(i.clock),
	)
	if err != nil {
		return "", "", err
	}
	if claims.Subject == "" {
		return "", "", errMissingSubjectClaim
	}
	if claims.Category == "" {
		return "", "", errMissingCategoryClaim
	}
	return claims.Subject, claims.Category, nil
}
