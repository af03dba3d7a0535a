package repository

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

func testAuthorizedKey(t *testing.T) (string, gossh.PublicKey) {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	sshPub, err := gossh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("wrap key: %v", err)
	}
	return string(gossh.MarshalAuthorizedKey(sshPub)), sshPub
}

func TestSSHUserRegisterComputesFingerprint(t *testing.T) {
	line, key := testAuthorizedKey(t)
	now := time.Now().UTC().Truncate(time.Second)
	pool := &stubPool{rowData: []any{"user-1", now}}
	repo := NewSSHUserRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	u, err := repo.Register(context.Background(), "trader", line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "user-1" || !u.CreatedAt.Equal(now) {
		t.Fatalf("unexpected stored user %+v", u)
	}
	if u.Fingerprint != gossh.FingerprintSHA256(key) {
		t.Fatalf("unexpected fingerprint %s", u.Fingerprint)
	}
	if !strings.HasPrefix(u.PublicKey, "ssh-ed25519 ") {
		t.Fatalf("unexpected public key %q", u.PublicKey)
	}
}

func TestSSHUserRegisterRejectsGarbage(t *testing.T) {
	repo := NewSSHUserRepository(&stubPool{}, trace.NewNoopTracerProvider().Tracer("test"))
	if _, err := repo.Register(context.Background(), "x", "not a key"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSSHUserFindByFingerprintReturnsUser(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	pool := &stubPool{rowData: []any{
		"user-1", "trader", "ssh-ed25519 AAAA", "SHA256:abc", []string{"EUR/USD-OTC"}, true, (*time.Time)(nil), now,
	}}
	repo := NewSSHUserRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	user, err := repo.FindByFingerprint(context.Background(), "SHA256:abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil || user.Username != "trader" || len(user.Pairs) != 1 {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestSSHUserFindByFingerprintNotFound(t *testing.T) {
	pool := &stubPool{rowErr: pgx.ErrNoRows}
	repo := NewSSHUserRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	user, err := repo.FindByFingerprint(context.Background(), "SHA256:unknown")
	if err != nil || user != nil {
		t.Fatalf("expected nil user and error, got %+v %v", user, err)
	}
}

func TestSSHUserSavePairsAndLogin(t *testing.T) {
	pool := &stubPool{}
	repo := NewSSHUserRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	if err := repo.SavePairs(context.Background(), "user-1", []string{"#AAPL"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.UpdateLastLogin(context.Background(), "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.execSQL) != 2 {
		t.Fatalf("expected 2 execs, got %d", len(pool.execSQL))
	}
}

func TestSSHUserListActive(t *testing.T) {
	now := time.Now().UTC()
	pool := &stubPool{rowsData: [][]any{
		{"1", "alice", "k1", "SHA256:a", []string{}, true, (*time.Time)(nil), now},
		{"2", "bob", "k2", "SHA256:b", []string{"#TSLA"}, true, &now, now},
	}}
	repo := NewSSHUserRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	users, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 || users[1].LastLoginAt == nil {
		t.Fatalf("unexpected users %+v", users)
	}
}
