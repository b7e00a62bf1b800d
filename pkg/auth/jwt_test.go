package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fra-atlas/platform/pkg/common/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(testSecret, "fra-atlas", "fra-atlas-api", time.Hour)
	if err != nil {
		t.Fatalf("failed to build manager: %v", err)
	}
	return m
}

func TestJWTRoundTrip(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue(models.Identity{UserID: "officer-1", Role: "district", Email: "officer@example.org"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	identity, err := m.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if identity.UserID != "officer-1" || identity.Role != "district" {
		t.Fatalf("unexpected identity %+v", identity)
	}
	if !identity.CanEditClaims() {
		t.Fatal("district role must be able to edit claims")
	}
}

func TestJWTRejectsTamperedToken(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue(models.Identity{UserID: "u-1", Role: "village"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := m.Validate(context.Background(), tampered); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	m := newTestManager(t)
	m.nowFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.Issue(models.Identity{UserID: "u-1", Role: "state"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	m.nowFunc = time.Now
	if _, err := m.Validate(context.Background(), token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestJWTRejectsWrongIssuer(t *testing.T) {
	issuerA := newTestManager(t)
	issuerB, err := NewJWTManager(testSecret, "someone-else", "fra-atlas-api", time.Hour)
	if err != nil {
		t.Fatalf("failed to build manager: %v", err)
	}

	token, err := issuerB.Issue(models.Identity{UserID: "u-1", Role: "state"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := issuerA.Validate(context.Background(), token); err == nil {
		t.Fatal("expected foreign issuer to be rejected")
	}
}

func TestJWTSecretLength(t *testing.T) {
	if _, err := NewJWTManager("short", "iss", "aud", time.Hour); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
}

func TestVillageRoleCannotEditClaims(t *testing.T) {
	identity := models.Identity{UserID: "u-1", Role: "village"}
	if identity.CanEditClaims() {
		t.Fatal("village role must not edit claims")
	}
}
