package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"otc-signals/internal/logging"
	"otc-signals/internal/repository"

	"github.com/rs/zerolog"
	gossh "golang.org/x/crypto/ssh"
)

const defaultOperatorName = "operator"

// userStore is the slice of the SSH user repository the server needs.
type userStore interface {
	Register(ctx context.Context, username, authorizedKey string) (*repository.SSHUser, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*repository.SSHUser, error)
	UpdateLastLogin(ctx context.Context, id string) error
}

// authorizedKey is one parsed authorized_keys entry.
type authorizedKey struct {
	Username    string
	Line        string
	Fingerprint string
}

// parseAuthorizedKeys reads authorized_keys lines. The key comment is the
// username; blank lines and # comments are skipped.
func parseAuthorizedKeys(r io.Reader) ([]authorizedKey, error) {
	var keys []authorizedKey
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pub, comment, _, _, err := gossh.ParseAuthorizedKey([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("authorized keys line %d: %w", lineNo, err)
		}
		name := strings.TrimSpace(comment)
		if name == "" {
			name = defaultOperatorName
		}
		keys = append(keys, authorizedKey{
			Username:    name,
			Line:        line,
			Fingerprint: gossh.FingerprintSHA256(pub),
		})
	}
	return keys, scanner.Err()
}

func loadAuthorizedKeys(path string) ([]authorizedKey, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseAuthorizedKeys(f)
}

// sessionUser is who a connection authenticated as. ID is empty when the
// key is only known from the file, in which case nothing is persisted.
type sessionUser struct {
	ID       string
	Username string
	Pairs    []string
}

// authenticator admits keys found in the database or the authorized keys
// file, checked in that order.
type authenticator struct {
	store  userStore
	file   map[string]authorizedKey
	logger zerolog.Logger
}

func newAuthenticator(store userStore, keys []authorizedKey, logger zerolog.Logger) *authenticator {
	file := make(map[string]authorizedKey, len(keys))
	for _, k := range keys {
		file[k.Fingerprint] = k
	}
	return &authenticator{store: store, file: file, logger: logging.Component(logger, "ssh-auth")}
}

// sync registers every file key so the database can track logins and
// watch lists for them.
func (a *authenticator) sync(ctx context.Context, keys []authorizedKey) {
	if a.store == nil {
		return
	}
	for _, k := range keys {
		if _, err := a.store.Register(ctx, k.Username, k.Line); err != nil {
			a.logger.Warn().Err(err).Str("user", k.Username).Msg("failed to register authorized key")
		}
	}
}

func (a *authenticator) authorize(ctx context.Context, key gossh.PublicKey) (*sessionUser, bool) {
	fp := gossh.FingerprintSHA256(key)

	if a.store != nil {
		u, err := a.store.FindByFingerprint(ctx, fp)
		if err != nil {
			a.logger.Warn().Err(err).Msg("ssh user lookup failed")
		}
		if u != nil {
			if err := a.store.UpdateLastLogin(ctx, u.ID); err != nil {
				a.logger.Warn().Err(err).Str("user", u.Username).Msg("failed to record login")
			}
			return &sessionUser{ID: u.ID, Username: u.Username, Pairs: u.Pairs}, true
		}
	}

	if k, ok := a.file[fp]; ok {
		return &sessionUser{Username: k.Username}, true
	}

	a.logger.Info().Str("fingerprint", fp).Msg("rejected ssh key")
	return nil, false
}
