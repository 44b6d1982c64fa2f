// Package credentials persists the session tokens in the local SQLite
// database. Token values are sealed with AES-256-GCM; each value is bound to
// its key as additional data, so values cannot be swapped between slots.
package credentials

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/whatbmphotos/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/whatbmphotos/internal/common"
	"github.com/dmitrijs2005/whatbmphotos/internal/cryptox"
	"github.com/dmitrijs2005/whatbmphotos/internal/dbx"
	"github.com/dmitrijs2005/whatbmphotos/internal/filex"
)

// KeyFileName is the random key file used when no passphrase is configured.
const KeyFileName = "store.key"

const saltSize = 16

// DB is what the store needs from *sql.DB.
type DB interface {
	dbx.DBTX
	dbx.TxBeginner
}

// Store reads and writes tokens straight through to the database on every
// call; nothing is cached in memory.
type Store struct {
	db   DB
	repo metadata.Repository
	key  []byte
}

func NewStore(db DB, key []byte) (*Store, error) {
	if len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("credentials: key must be %d bytes, got %d", cryptox.KeySize, len(key))
	}
	return &Store{
		db:   db,
		repo: metadata.NewSQLiteRepository(db),
		key:  append([]byte(nil), key...),
	}, nil
}

// LoadKey returns the sealing key. With a passphrase the key is derived with
// argon2id over a salt persisted in the database; otherwise a random key is
// read from (or created in) dataDir.
func LoadKey(ctx context.Context, db dbx.DBTX, passphrase, dataDir string) ([]byte, error) {
	if passphrase == "" {
		key, err := filex.ReadOrCreate(filepath.Join(dataDir, KeyFileName), cryptox.NewKey)
		if err != nil {
			return nil, fmt.Errorf("credentials: key file: %w", err)
		}
		if len(key) != cryptox.KeySize {
			return nil, fmt.Errorf("credentials: key file has %d bytes", len(key))
		}
		return key, nil
	}

	repo := metadata.NewSQLiteRepository(db)
	salt, err := repo.Get(ctx, common.KDFSaltKey)
	if err != nil {
		return nil, err
	}
	if len(salt) == 0 {
		salt = common.GenerateRandByteArray(saltSize)
		if err := repo.Set(ctx, common.KDFSaltKey, salt); err != nil {
			return nil, err
		}
	}

	pass := []byte(passphrase)
	defer common.WipeByteArray(pass)
	return cryptox.DeriveMasterKey(pass, salt), nil
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	sealed, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if len(sealed) == 0 {
		return "", nil
	}
	plain, err := cryptox.Open(s.key, sealed, []byte(key))
	if err != nil {
		return "", fmt.Errorf("credentials: %s: %w", key, err)
	}
	return string(plain), nil
}

func (s *Store) put(ctx context.Context, repo metadata.Repository, key, value string) error {
	sealed, err := cryptox.Seal(s.key, []byte(value), []byte(key))
	if err != nil {
		return fmt.Errorf("credentials: seal %s: %w", key, err)
	}
	return repo.Set(ctx, key, sealed)
}

func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, common.AccessTokenKey)
}

func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, common.RefreshTokenKey)
}

func (s *Store) SetAccessToken(ctx context.Context, token string) error {
	return s.put(ctx, s.repo, common.AccessTokenKey, token)
}

// SetTokens writes both tokens in one transaction.
func (s *Store) SetTokens(ctx context.Context, access, refresh string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := s.put(ctx, repo, common.AccessTokenKey, access); err != nil {
			return err
		}
		return s.put(ctx, repo, common.RefreshTokenKey, refresh)
	})
}

func (s *Store) ClearAccessToken(ctx context.Context) error {
	return s.repo.Delete(ctx, common.AccessTokenKey)
}

// Clear removes both tokens. The language preference and KDF salt stay.
func (s *Store) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, common.AccessTokenKey, common.RefreshTokenKey)
}

// Language returns the stored UI language, or "" when unset.
func (s *Store) Language(ctx context.Context) (string, error) {
	v, err := s.repo.Get(ctx, common.LanguageKey)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *Store) SetLanguage(ctx context.Context, lang string) error {
	return s.repo.Set(ctx, common.LanguageKey, []byte(lang))
}
