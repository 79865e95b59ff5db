package authstore

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestStoreSetGetDelete(t *testing.T) {
	s := NewStore("anniversary40-go-test", filepath.Join(t.TempDir(), "credentials.json"))
	profile := "default"

	if err := s.SetToken(profile, "bearer-123"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if err := s.SetCookie(profile, "session-456"); err != nil {
		t.Fatalf("SetCookie: %v", err)
	}
	if err := s.SetUserAgent(profile, "UA Test"); err != nil {
		t.Fatalf("SetUserAgent: %v", err)
	}

	token, err := s.GetToken(profile)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if token != "bearer-123" {
		t.Fatalf("unexpected token: %q", token)
	}

	cookie, err := s.GetCookie(profile)
	if err != nil {
		t.Fatalf("GetCookie: %v", err)
	}
	if cookie != "session-456" {
		t.Fatalf("unexpected cookie: %q", cookie)
	}

	ua, err := s.GetUserAgent(profile)
	if err != nil {
		t.Fatalf("GetUserAgent: %v", err)
	}
	if ua != "UA Test" {
		t.Fatalf("unexpected user-agent: %q", ua)
	}

	if err := s.DeleteAll(profile); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
}

func TestStoreMissingCredential(t *testing.T) {
	s := NewStore("anniversary40-go-test", filepath.Join(t.TempDir(), "credentials.json"))

	_, err := s.GetToken("nobody")
	if err == nil {
		t.Fatal("expected error for missing credential")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreRequiresProfile(t *testing.T) {
	s := NewStore("", "")

	if err := s.SetToken("  ", "x"); err == nil {
		t.Fatal("expected profile required error")
	}
	if _, err := s.GetToken(""); err == nil {
		t.Fatal("expected profile required error")
	}
}
