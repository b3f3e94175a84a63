package token_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sealdesk/sealdesk/internal/token"
)

const secret = "test-secret"

func TestSignAndParse_RoundTrip(t *testing.T) {
	claims := token.Claims{
		Subject:   "user-1",
		AccountID: "acc-1",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
		IssuedAt:  time.Now().Unix(),
	}

	tok, err := token.Sign(claims, secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := token.Parse(tok, secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Subject != "user-1" || got.AccountID != "acc-1" {
		t.Fatalf("claims mismatch: %+v", got)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	tok, _ := token.Sign(token.Claims{Subject: "u"}, secret)
	if _, err := token.Parse(tok, "other-secret"); !errors.Is(err, token.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParse_TamperedPayload(t *testing.T) {
	tok, _ := token.Sign(token.Claims{Subject: "u"}, secret)
	parts := strings.Split(tok, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "xx"
	if _, err := token.Parse(strings.Join(parts, "."), secret); !errors.Is(err, token.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParse_Expired(t *testing.T) {
	tok, _ := token.Sign(token.Claims{
		Subject:   "u",
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}, secret)
	if _, err := token.Parse(tok, secret); !errors.Is(err, token.ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, tok := range []string{"", "a.b", "a.b.c.d", "not-a-token"} {
		if _, err := token.Parse(tok, secret); !errors.Is(err, token.ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
}
