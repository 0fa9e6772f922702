package auth

import (
	"testing"
	"time"
)

func newTestIssuer(clock func() time.Time) *OptOutTokenIssuer {
	return NewOptOutTokenIssuer(OptOutTokenIssuerConfig{
		SigningSecret: []byte("test-secret"),
		TokenTTL:      time.Hour,
		Clock:         clock,
	})
}

func TestOptOutTokenRoundTrip(t *testing.T) {
	issuer := newTestIssuer(func() time.Time { return time.Unix(1700000000, 0) })

	token, err := issuer.IssueOptOutToken("user-1", "thread_participant")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	userID, category, err := issuer.ValidateOptOutToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-1" || category != "thread_participant" {
		t.Fatalf("unexpected claims: %s %s", userID, category)
	}
}

func TestOptOutTokenRejectsWrongSecret(t *testing.T) {
	issuer := newTestIssuer(func() time.Time { return time.Unix(1700000000, 0) })
	other := NewOptOutTokenIssuer(OptOutTokenIssuerConfig{
		SigningSecret: []byte("other-secret"),
		Clock:         func() time.Time { return time.Unix(1700000000, 0) },
	})

	token, err := issuer.IssueOptOutToken("user-1", "contributor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := other.ValidateOptOutToken(token); err == nil {
		t.Fatalf("expected validation to fail with wrong secret")
	}
}

func TestOptOutTokenRejectsExpired(t *testing.T) {
	now := time.Unix(1700000000, 0)
	issuer := newTestIssuer(func() time.Time { return now })

	token, err := issuer.IssueOptOutToken("user-1", "contributor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, _, err := issuer.ValidateOptOutToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestIssueOptOutTokenRequiresClaims(t *testing.T) {
	issuer := newTestIssuer(nil)
	if _, err := issuer.IssueOptOutToken("", "contributor"); err == nil {
		t.Fatalf("expected missing subject error")
	}
	if _, err := issuer.IssueOptOutToken("user-1", ""); err == nil {
		t.Fatalf("expected missing category error")
	}
}
