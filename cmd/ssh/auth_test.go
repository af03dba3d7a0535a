package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"

	"otc-signals/internal/repository"

	"github.com/rs/zerolog"
	gossh "golang.org/x/crypto/ssh"
)

type stubUserStore struct {
	users      map[string]*repository.SSHUser
	registered []string
	logins     []string
	findErr    error
}

func (s *stubUserStore) Register(ctx context.Context, username, authorizedKey string) (*repository.SSHUser, error) {
	s.registered = append(s.registered, username)
	return &repository.SSHUser{Username: username}, nil
}

func (s *stubUserStore) FindByFingerprint(ctx context.Context, fingerprint string) (*repository.SSHUser, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.users[fingerprint], nil
}

func (s *stubUserStore) UpdateLastLogin(ctx context.Context, id string) error {
	s.logins = append(s.logins, id)
	return nil
}

func newTestKey(t *testing.T) gossh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := gossh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("wrap key: %v", err)
	}
	return key
}

func authorizedLine(key gossh.PublicKey, comment string) string {
	line := strings.TrimSpace(string(gossh.MarshalAuthorizedKey(key)))
	if comment != "" {
		line += " " + comment
	}
	return line
}

func TestParseAuthorizedKeys(t *testing.T) {
	alice, anon := newTestKey(t), newTestKey(t)
	input := strings.Join([]string{
		"# operators",
		"",
		authorizedLine(alice, "alice"),
		authorizedLine(anon, ""),
	}, "\n")

	keys, err := parseAuthorizedKeys(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if keys[0].Username != "alice" || keys[0].Fingerprint != gossh.FingerprintSHA256(alice) {
		t.Fatalf("unexpected first key %+v", keys[0])
	}
	if keys[1].Username != defaultOperatorName {
		t.Fatalf("expected default username, got %q", keys[1].Username)
	}
}

func TestParseAuthorizedKeysRejectsGarbage(t *testing.T) {
	_, err := parseAuthorizedKeys(strings.NewReader("not-a-key"))
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("expected line error, got %v", err)
	}
}

func TestLoadAuthorizedKeysBlankPath(t *testing.T) {
	keys, err := loadAuthorizedKeys("  ")
	if err != nil || keys != nil {
		t.Fatalf("expected no keys, got %v %v", keys, err)
	}
	if _, err := loadAuthorizedKeys("/nonexistent/authorized_keys"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestAuthorizePrefersDatabaseUser(t *testing.T) {
	key := newTestKey(t)
	store := &stubUserStore{users: map[string]*repository.SSHUser{
		gossh.FingerprintSHA256(key): {ID: "u1", Username: "alice", Pairs: []string{"USD/JPY-OTC"}},
	}}
	auth := newAuthenticator(store, nil, zerolog.Nop())

	user, ok := auth.authorize(context.Background(), key)
	if !ok || user.ID != "u1" || user.Pairs[0] != "USD/JPY-OTC" {
		t.Fatalf("unexpected user %+v ok=%v", user, ok)
	}
	if len(store.logins) != 1 || store.logins[0] != "u1" {
		t.Fatalf("expected login recorded, got %v", store.logins)
	}
}

func TestAuthorizeFallsBackToFile(t *testing.T) {
	key := newTestKey(t)
	keys, err := parseAuthorizedKeys(strings.NewReader(authorizedLine(key, "bob")))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	store := &stubUserStore{findErr: errors.New("db down")}
	auth := newAuthenticator(store, keys, zerolog.Nop())

	user, ok := auth.authorize(context.Background(), key)
	if !ok || user.Username != "bob" || user.ID != "" {
		t.Fatalf("expected session-only file user, got %+v ok=%v", user, ok)
	}
}

func TestAuthorizeRejectsUnknownKey(t *testing.T) {
	auth := newAuthenticator(nil, nil, zerolog.Nop())
	if _, ok := auth.authorize(context.Background(), newTestKey(t)); ok {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestSyncRegistersFileKeys(t *testing.T) {
	keys, err := parseAuthorizedKeys(strings.NewReader(authorizedLine(newTestKey(t), "carol")))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	store := &stubUserStore{}
	newAuthenticator(store, keys, zerolog.Nop()).sync(context.Background(), keys)
	if len(store.registered) != 1 || store.registered[0] != "carol" {
		t.Fatalf("expected carol registered, got %v", store.registered)
	}

	// no store is a no-op
	newAuthenticator(nil, keys, zerolog.Nop()).sync(context.Background(), keys)
}
