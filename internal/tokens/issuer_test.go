package tokens

import (
	"errors"
	"testing"
	"time"
)

func newTestIssuer() *Issuer {
	return NewIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestIssuePairRoundTrip(t *testing.T) {
	issuer := newTestIssuer()

	pair, err := issuer.IssuePair("user-1")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens to be issued, got %+v", pair)
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}

	accessClaims, err := issuer.Verify(pair.AccessToken, TypeAccess)
	if err != nil {
		t.Fatalf("verify access token: %v", err)
	}
	if accessClaims.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", accessClaims.Subject)
	}

	refreshClaims, err := issuer.Verify(pair.RefreshToken, TypeRefresh)
	if err != nil {
		t.Fatalf("verify refresh token: %v", err)
	}
	if refreshClaims.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", refreshClaims.Subject)
	}
}

func TestVerifyRejectsCrossTypeUse(t *testing.T) {
	issuer := newTestIssuer()

	pair, err := issuer.IssuePair("user-1")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	// The types are signed with independent secrets, so a swapped token
	// fails the signature check before the type claim is even read.
	if _, err := issuer.Verify(pair.AccessToken, TypeRefresh); err == nil {
		t.Fatal("expected access token to fail refresh verification")
	}
	if _, err := issuer.Verify(pair.RefreshToken, TypeAccess); err == nil {
		t.Fatal("expected refresh token to fail access verification")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := newTestIssuer()

	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer.NowFunc = func() time.Time { return issued }

	pair, err := issuer.IssuePair("user-1")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	// Past the access TTL plus leeway.
	issuer.NowFunc = func() time.Time { return issued.Add(16 * time.Minute) }

	if _, err := issuer.Verify(pair.AccessToken, TypeAccess); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	// The refresh token lives for days and must still verify.
	if _, err := issuer.Verify(pair.RefreshToken, TypeRefresh); err != nil {
		t.Fatalf("refresh token should still verify: %v", err)
	}
}

func TestVerifyToleratesClockSkew(t *testing.T) {
	issuer := newTestIssuer()

	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer.NowFunc = func() time.Time { return issued }

	pair, err := issuer.IssuePair("user-1")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	// Just inside the leeway window past expiry.
	issuer.NowFunc = func() time.Time { return issued.Add(15*time.Minute + 20*time.Second) }

	if _, err := issuer.Verify(pair.AccessToken, TypeAccess); err != nil {
		t.Fatalf("expected token within leeway to verify: %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issuer := newTestIssuer()
	other := NewIssuer("other-access", "other-refresh", 15*time.Minute, 7*24*time.Hour)

	pair, err := other.IssuePair("user-1")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := issuer.Verify(pair.AccessToken, TypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := newTestIssuer()

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := issuer.Verify(token, TypeAccess); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestNewIssuerRejectsSharedSecret(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for shared secret")
		}
	}()
	NewIssuer("same", "same", time.Minute, time.Hour)
}
