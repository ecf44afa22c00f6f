package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndParseToken(t *testing.T) {
	secret := []byte("test-secret")
	claims := Claims{
		Sub:  "usr_1",
		Name: "Avery",
		Role: "reviewer",
		JTI:  "jti_1",
		Exp:  time.Now().Add(time.Hour).Unix(),
	}

	token, err := IssueToken(secret, claims)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	parsed, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if parsed != claims {
		t.Fatalf("claims round-trip mismatch: %+v != %+v", parsed, claims)
	}
}

func TestParseTokenRejectsTampering(t *testing.T) {
	secret := []byte("test-secret")
	token, err := IssueToken(secret, Claims{
		Sub: "usr_1", Name: "Avery", JTI: "jti_1",
		Exp: time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	if _, err := ParseToken([]byte("other-secret"), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret err = %v, want ErrInvalidToken", err)
	}
	if _, err := ParseToken(secret, token+"x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered err = %v, want ErrInvalidToken", err)
	}
	if _, err := ParseToken(secret, "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("malformed err = %v, want ErrInvalidToken", err)
	}
}

func TestParseTokenExpiry(t *testing.T) {
	secret := []byte("test-secret")
	token, err := IssueToken(secret, Claims{
		Sub: "usr_1", Name: "Avery", JTI: "jti_1",
		Exp: time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if _, err := ParseToken(secret, token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("err = %v, want ErrExpiredToken", err)
	}
}
