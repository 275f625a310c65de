// Package secretstore keeps lemon.markets API credentials in a Badger
// database, optionally encrypted at rest.
package secretstore

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

const keyPrefix = "lemon/"

// Store is a small KV wrapper around Badger.
// Encryption is provided by Badger options (value log + key registry), not by this wrapper.
type Store struct {
	db *badger.DB
}

type OpenOptions struct {
	Path          string
	EncryptionKey []byte // 32 bytes; nil opens the DB unencrypted
	ReadOnly      bool
	InMemory      bool // Path is ignored; for tests
}

func Open(opts OpenOptions) (*Store, error) {
	if !opts.InMemory && strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("secretstore: path is required")
	}
	path := opts.Path
	if opts.InMemory {
		path = ""
	}
	bopts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithInMemory(opts.InMemory).
		WithReadOnly(opts.ReadOnly)
	if len(opts.EncryptionKey) > 0 {
		// Badger 加密模式下必须配置 index cache
		bopts = bopts.
			WithEncryptionKey(opts.EncryptionKey).
			WithIndexCacheSize(16 << 20)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.Wrap(err, "secretstore: open")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetString returns the value stored under key and whether it exists.
func (s *Store) GetString(key string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, errors.New("secretstore: not opened")
	}
	k := []byte(strings.TrimSpace(key))
	if len(k) == 0 {
		return "", false, errors.New("secretstore: key is empty")
	}
	var (
		out   string
		found bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			out = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false, errors.Wrapf(err, "secretstore: get %s", k)
	}
	return out, found, nil
}

func (s *Store) SetString(key string, val string) error {
	if s == nil || s.db == nil {
		return errors.New("secretstore: not opened")
	}
	k := []byte(strings.TrimSpace(key))
	if len(k) == 0 {
		return errors.New("secretstore: key is empty")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, []byte(val))
	})
}

// Credential returns the key/secret pair stored for a trading space
// ("paper" or "money"). found is false unless both halves exist.
func (s *Store) Credential(space string) (key, secret string, found bool, err error) {
	key, okKey, err := s.GetString(credentialKey(space, "key"))
	if err != nil {
		return "", "", false, err
	}
	secret, okSecret, err := s.GetString(credentialKey(space, "secret"))
	if err != nil {
		return "", "", false, err
	}
	if !okKey || !okSecret {
		return "", "", false, nil
	}
	return key, secret, true, nil
}

// PutCredential stores both halves of a credential in one transaction.
func (s *Store) PutCredential(space, key, secret string) error {
	if s == nil || s.db == nil {
		return errors.New("secretstore: not opened")
	}
	if strings.TrimSpace(space) == "" {
		return errors.New("secretstore: space is empty")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(credentialKey(space, "key")), []byte(key)); err != nil {
			return err
		}
		return txn.Set([]byte(credentialKey(space, "secret")), []byte(secret))
	})
}

// DeleteCredential removes the credential of space, if any.
func (s *Store) DeleteCredential(space string) error {
	if s == nil || s.db == nil {
		return errors.New("secretstore: not opened")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, part := range []string{"key", "secret"} {
			if err := txn.Delete([]byte(credentialKey(space, part))); err != nil {
				return err
			}
		}
		return nil
	})
}

func credentialKey(space, part string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(space)) + "/" + part
}

// ParseKey expects 32 bytes (hex or base64). Returns nil if input is empty.
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	// hex 优先，避免 64 位 hex 被误判为 base64
	if b, err := hex.DecodeString(strings.TrimPrefix(raw, "0x")); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	return nil, errors.New("key must be base64(32 bytes) or hex(32 bytes)")
}
