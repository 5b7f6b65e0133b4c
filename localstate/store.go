// Package localstate persists the small amount of client-side state that
// survives process restarts: the "might be logged in" hint consulted before
// startup validation, and a cached copy of the last-known identity for
// display before the first validation completes.
package localstate

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/renatrack/renatrack-client/session"
	"github.com/renatrack/renatrack-client/users"
)

const schema = `
CREATE TABLE IF NOT EXISTS client_state (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

const (
	keyLoginHint     = "login_hint"
	keyCachedUser    = "cached_user"
	keyCachedProfile = "cached_profile"
)

// Store is a SQLite-backed key/value state file.
type Store struct {
	db *sql.DB
}

var _ session.HintStore = (*Store)(nil)

// Open opens (creating if necessary) the state database at path. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "[localstate.Open] sql.Open")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[localstate.Open] create schema")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SetLoginHint persists the "might be logged in" marker.
func (s *Store) SetLoginHint(loggedIn bool) error {
	value := "0"
	if loggedIn {
		value = "1"
	}
	if err := s.set(keyLoginHint, value); err != nil {
		return errors.Wrap(err, "[Store.SetLoginHint] set")
	}
	return nil
}

// LoginHint reports the persisted marker. A missing row reads as false,
// which only means "skip the silent startup validation", never
// "unauthenticated".
func (s *Store) LoginHint() bool {
	value, err := s.get(keyLoginHint)
	if err != nil {
		return false
	}
	return value == "1"
}

// CacheIdentity stores the last-known user and profile for offline display.
func (s *Store) CacheIdentity(user *users.User, profile *users.Profile) error {
	if user == nil {
		return s.ClearIdentity()
	}

	encodedUser, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "[Store.CacheIdentity] marshal user")
	}
	if err := s.set(keyCachedUser, string(encodedUser)); err != nil {
		return errors.Wrap(err, "[Store.CacheIdentity] set user")
	}

	if profile == nil {
		return s.delete(keyCachedProfile)
	}
	encodedProfile, err := json.Marshal(profile)
	if err != nil {
		return errors.Wrap(err, "[Store.CacheIdentity] marshal profile")
	}
	if err := s.set(keyCachedProfile, string(encodedProfile)); err != nil {
		return errors.Wrap(err, "[Store.CacheIdentity] set profile")
	}
	return nil
}

// CachedIdentity returns the stored identity, or nils when none is cached.
func (s *Store) CachedIdentity() (*users.User, *users.Profile, error) {
	rawUser, err := s.get(keyCachedUser)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, errors.Wrap(err, "[Store.CachedIdentity] get user")
	}

	var user users.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return nil, nil, errors.Wrap(err, "[Store.CachedIdentity] unmarshal user")
	}

	rawProfile, err := s.get(keyCachedProfile)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &user, nil, nil
		}
		return nil, nil, errors.Wrap(err, "[Store.CachedIdentity] get profile")
	}

	var profile users.Profile
	if err := json.Unmarshal([]byte(rawProfile), &profile); err != nil {
		return nil, nil, errors.Wrap(err, "[Store.CachedIdentity] unmarshal profile")
	}
	return &user, &profile, nil
}

// ClearIdentity drops the cached identity.
func (s *Store) ClearIdentity() error {
	if err := s.delete(keyCachedUser); err != nil {
		return errors.Wrap(err, "[Store.ClearIdentity] delete user")
	}
	if err := s.delete(keyCachedProfile); err != nil {
		return errors.Wrap(err, "[Store.ClearIdentity] delete profile")
	}
	return nil
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO client_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	return err
}

func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM client_state WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *Store) delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM client_state WHERE key = ?`, key)
	return err
}
