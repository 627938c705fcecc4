package token

import (
	"encoding/base64"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "dGhpcy1pcy1hLXRlc3Qtc2lnbmluZy1zZWNyZXQ=" // base64("this-is-a-test-signing-secret")

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()

	issuer, err := New(Config{
		AccessKey: "test-access-key",
		Secret:    testSecret,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return issuer
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing access key", cfg: Config{Secret: testSecret}},
		{name: "missing secret", cfg: Config{AccessKey: "key"}},
		{name: "undecodable secret", cfg: Config{AccessKey: "key", Secret: "not!!base64"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("New should fail on invalid config")
			}
		})
	}
}

func TestIssue_DistinctNoncesWithinSameSecond(t *testing.T) {
	issuer := newTestIssuer(t)

	// Freeze the clock so both credentials carry the same iat.
	frozen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	issuer.SetClock(func() time.Time { return frozen })

	first, err := issuer.Issue(http.MethodGet)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	second, err := issuer.Issue(http.MethodGet)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if first == second {
		t.Error("Two credentials issued in the same second must differ")
	}

	firstClaims := parseClaims(t, first)
	secondClaims := parseClaims(t, second)

	if firstClaims.Nonce == secondClaims.Nonce {
		t.Errorf("Nonces must be unique per issuance, both = %s", firstClaims.Nonce)
	}
	if firstClaims.IssuedAt != frozen.Unix() || secondClaims.IssuedAt != frozen.Unix() {
		t.Errorf("IssuedAt = %d/%d, want %d", firstClaims.IssuedAt, secondClaims.IssuedAt, frozen.Unix())
	}
}

func TestIssue_SignatureVerifiesUnderConfiguredKey(t *testing.T) {
	issuer := newTestIssuer(t)

	signed, err := issuer.Issue(http.MethodGet)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	secret, _ := base64.StdEncoding.DecodeString(testSecret)

	parsed, err := jwt.ParseWithClaims(signed, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		t.Fatalf("Credential did not verify: %v", err)
	}
	if !parsed.Valid {
		t.Error("Credential reported invalid after verification")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		t.Fatalf("Unexpected claims type %T", parsed.Claims)
	}
	if claims.AccessKey != "test-access-key" {
		t.Errorf("AccessKey = %q, want %q", claims.AccessKey, "test-access-key")
	}
	if claims.Nonce == "" {
		t.Error("Nonce must always be present")
	}
}

func TestIssue_AlgorithmTag(t *testing.T) {
	issuer := newTestIssuer(t)

	signed, err := issuer.Issue(http.MethodGet)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(signed, &Claims{})
	if err != nil {
		t.Fatalf("ParseUnverified failed: %v", err)
	}
	if alg := parsed.Header["alg"]; alg != "HS256" {
		t.Errorf("alg = %v, want HS256", alg)
	}
}

func parseClaims(t *testing.T, signed string) *Claims {
	t.Helper()

	parsed, _, err := jwt.NewParser().ParseUnverified(signed, &Claims{})
	if err != nil {
		t.Fatalf("ParseUnverified failed: %v", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		t.Fatalf("Unexpected claims type %T", parsed.Claims)
	}
	return claims
}
