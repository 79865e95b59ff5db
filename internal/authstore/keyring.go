// Package authstore keeps the caller-supplied game credentials (bearer
// token, session cookie, user agent) in the OS keychain so the CLI can
// forward them across invocations without re-prompting. Nothing else is
// stored; the credentials are opaque to this package.
package authstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	keyToken     = "token"
	keyCookie    = "cookie"
	keyUserAgent = "useragent"
)

// ErrNotFound is returned when a credential has not been stored.
var ErrNotFound = keyring.ErrNotFound

// Store wraps the OS keychain with an optional JSON file fallback for
// environments without a system keyring (headless Linux, CI).
type Store struct {
	service      string
	fallbackPath string
	mu           sync.Mutex
}

// NewStore creates a credential store. fallbackPath may be empty to
// disable the file fallback.
func NewStore(serviceName, fallbackPath string) *Store {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = "anniversary40-go"
	}
	return &Store{
		service:      serviceName,
		fallbackPath: fallbackPath,
	}
}

func (s *Store) key(profile, part string) string {
	return fmt.Sprintf("%s/%s", profile, part)
}

func (s *Store) SetToken(profile, value string) error {
	return s.set(profile, keyToken, value)
}

func (s *Store) GetToken(profile string) (string, error) {
	return s.get(profile, keyToken)
}

func (s *Store) SetCookie(profile, value string) error {
	return s.set(profile, keyCookie, value)
}

func (s *Store) GetCookie(profile string) (string, error) {
	return s.get(profile, keyCookie)
}

func (s *Store) SetUserAgent(profile, value string) error {
	return s.set(profile, keyUserAgent, value)
}

func (s *Store) GetUserAgent(profile string) (string, error) {
	return s.get(profile, keyUserAgent)
}

// DeleteAll removes every stored credential for the profile.
func (s *Store) DeleteAll(profile string) error {
	var firstErr error
	for _, part := range []string{keyToken, keyCookie, keyUserAgent} {
		if err := keyring.Delete(s.service, s.key(profile, part)); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	// Clean up the fallback file even when the keyring delete failed.
	if err := s.deleteFallbackProfile(profile); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return fmt.Errorf("authstore: delete: %w", firstErr)
	}
	return nil
}

func (s *Store) set(profile, part, value string) error {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return fmt.Errorf("authstore: profile is required")
	}

	err := keyring.Set(s.service, s.key(profile, part), value)
	if err == nil {
		return nil
	}
	if !keyringUnavailable(err) {
		return fmt.Errorf("authstore: keyring set %s: %w", part, err)
	}
	return s.setFallback(profile, part, value)
}

func (s *Store) get(profile, part string) (string, error) {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return "", fmt.Errorf("authstore: profile is required")
	}

	val, err := keyring.Get(s.service, s.key(profile, part))
	if err == nil {
		return val, nil
	}
	if !keyringUnavailable(err) && !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("authstore: keyring get %s: %w", part, err)
	}

	if fallback, ferr := s.getFallback(profile, part); ferr == nil {
		return fallback, nil
	}
	return "", ErrNotFound
}

func keyringUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "secret service") ||
		strings.Contains(msg, "dbus") ||
		strings.Contains(msg, "no keychain") ||
		strings.Contains(msg, "keyring backend not available")
}

// --- file fallback ---

// fallback file shape: {"profile": {"part": "value"}}
type fallbackFile map[string]map[string]string

func (s *Store) setFallback(profile, part, value string) error {
	if s.fallbackPath == "" {
		return fmt.Errorf("authstore: keyring unavailable and no fallback path configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readFallback()
	if err != nil {
		return err
	}
	if data[profile] == nil {
		data[profile] = map[string]string{}
	}
	data[profile][part] = value
	return s.writeFallback(data)
}

func (s *Store) getFallback(profile, part string) (string, error) {
	if s.fallbackPath == "" {
		return "", fmt.Errorf("authstore: fallback path not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readFallback()
	if err != nil {
		return "", err
	}
	val, ok := data[profile][part]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (s *Store) deleteFallbackProfile(profile string) error {
	if s.fallbackPath == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readFallback()
	if err != nil {
		return err
	}
	delete(data, profile)
	return s.writeFallback(data)
}

func (s *Store) readFallback() (fallbackFile, error) {
	out := fallbackFile{}
	raw, err := os.ReadFile(s.fallbackPath)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("authstore: read fallback file: %w", err)
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("authstore: decode fallback file: %w", err)
	}
	return out, nil
}

func (s *Store) writeFallback(data fallbackFile) error {
	if err := os.MkdirAll(filepath.Dir(s.fallbackPath), 0o700); err != nil {
		return fmt.Errorf("authstore: mkdir fallback dir: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("authstore: encode fallback file: %w", err)
	}
	if err := os.WriteFile(s.fallbackPath, raw, 0o600); err != nil {
		return fmt.Errorf("authstore: write fallback file: %w", err)
	}
	return nil
}
