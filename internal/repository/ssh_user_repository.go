package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

// SSHUser is an operator allowed into the terminal dashboard. Pairs is the
// watch list the dashboard opens with.
type SSHUser struct {
	ID          string
	Username    string
	PublicKey   string
	Fingerprint string
	Pairs       []string
	IsActive    bool
	LastLoginAt *time.Time
	CreatedAt   time.Time
}

type SSHUserRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSSHUserRepository(pool PgxPool, tracer trace.Tracer) *SSHUserRepository {
	return &SSHUserRepository{pool: pool, tracer: tracer}
}

func (r *SSHUserRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ssh_users (
			id            TEXT        PRIMARY KEY,
			username      TEXT        NOT NULL,
			public_key    TEXT        NOT NULL,
			fingerprint   TEXT        NOT NULL UNIQUE,
			pairs         TEXT[]      NOT NULL DEFAULT '{}',
			is_active     BOOLEAN     NOT NULL DEFAULT TRUE,
			last_login_at TIMESTAMPTZ,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("migrate ssh_users: %w", err)
	}
	return nil
}

// Register stores an authorized_keys line for username, replacing any user
// already holding the same key.
func (r *SSHUserRepository) Register(ctx context.Context, username, authorizedKey string) (*SSHUser, error) {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.register")
	defer span.End()

	key, _, _, _, err := gossh.ParseAuthorizedKey([]byte(authorizedKey))
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	u := &SSHUser{
		ID:          uuid.NewString(),
		Username:    username,
		PublicKey:   strings.TrimSpace(string(gossh.MarshalAuthorizedKey(key))),
		Fingerprint: gossh.FingerprintSHA256(key),
		IsActive:    true,
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO ssh_users (id, username, public_key, fingerprint)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (fingerprint) DO UPDATE SET username = EXCLUDED.username, is_active = TRUE
		 RETURNING id, created_at`,
		u.ID, u.Username, u.PublicKey, u.Fingerprint,
	)
	if err := row.Scan(&u.ID, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert ssh user %s: %w", username, err)
	}
	return u, nil
}

// FindByFingerprint returns nil without error for unknown or inactive keys.
func (r *SSHUserRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*SSHUser, error) {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.find-by-fingerprint")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT id, username, public_key, fingerprint, pairs, is_active, last_login_at, created_at
		 FROM ssh_users
		 WHERE fingerprint = $1 AND is_active = TRUE`,
		fingerprint,
	)

	var u SSHUser
	err := row.Scan(&u.ID, &u.Username, &u.PublicKey, &u.Fingerprint, &u.Pairs, &u.IsActive, &u.LastLoginAt, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *SSHUserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.update-last-login")
	defer span.End()

	_, err := r.pool.Exec(ctx, `UPDATE ssh_users SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *SSHUserRepository) SavePairs(ctx context.Context, id string, pairs []string) error {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.save-pairs")
	defer span.End()

	_, err := r.pool.Exec(ctx, `UPDATE ssh_users SET pairs = $2 WHERE id = $1`, id, pairs)
	return err
}

func (r *SSHUserRepository) ListActive(ctx context.Context) ([]SSHUser, error) {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.list-active")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, username, public_key, fingerprint, pairs, is_active, last_login_at, created_at
		 FROM ssh_users
		 WHERE is_active = TRUE
		 ORDER BY username ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []SSHUser
	for rows.Next() {
		var u SSHUser
		if err := rows.Scan(&u.ID, &u.Username, &u.PublicKey, &u.Fingerprint, &u.Pairs, &u.IsActive, &u.LastLoginAt, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
