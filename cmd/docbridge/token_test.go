package main

import (
	"strings"
	"testing"

	"github.com/docbridge/docbridge/internal/identity"
)

func TestTokenCmd(t *testing.T) {
	out, err := runCLI(t, "token", "--user", "p-1", "--role", "patient",
		"--secret", "test-secret", "--ttl", "1h",
		"--config", "/nonexistent/docbridge.yaml")
	if err != nil {
		t.Fatalf("token failed: %v", err)
	}

	claims, err := identity.Parse("test-secret", strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.UserID != "p-1" || claims.Role != identity.RolePatient {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestTokenCmd_UnknownRole(t *testing.T) {
	_, err := runCLI(t, "token", "--user", "p-1", "--role", "admin",
		"--secret", "test-secret", "--ttl", "1h",
		"--config", "/nonexistent/docbridge.yaml")
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestTokenCmd_RequiresUser(t *testing.T) {
	_, err := runCLI(t, "token", "--secret", "test-secret")
	if err == nil {
		t.Fatal("expected error when --user is missing")
	}
}

func TestTokenCmd_BadTTL(t *testing.T) {
	_, err := runCLI(t, "token", "--user", "p-1", "--secret", "test-secret",
		"--ttl", "nonsense", "--config", "/nonexistent/docbridge.yaml")
	if err == nil {
		t.Fatal("expected error for malformed ttl")
	}
}
