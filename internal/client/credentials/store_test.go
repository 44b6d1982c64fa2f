package credentials

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/whatbmphotos/internal/client/client"
	"github.com/dmitrijs2005/whatbmphotos/internal/common"
	"github.com/dmitrijs2005/whatbmphotos/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newStore(t *testing.T, db *sql.DB) *Store {
	t.Helper()
	s, err := NewStore(db, cryptox.NewKey())
	require.NoError(t, err)
	return s
}

func TestStore_EmptyReadsAsAbsent(t *testing.T) {
	s := newStore(t, setupDB(t))
	ctx := context.Background()

	a, err := s.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, a)

	r, err := s.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, r)
}

func TestStore_SetTokensAndClear(t *testing.T) {
	db := setupDB(t)
	s := newStore(t, db)
	ctx := context.Background()

	require.NoError(t, s.SetTokens(ctx, "access-1", "refresh-1"))
	require.NoError(t, s.SetLanguage(ctx, "hi"))

	a, err := s.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-1", a)

	r, err := s.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", r)

	require.NoError(t, s.ClearAccessToken(ctx))
	a, _ = s.AccessToken(ctx)
	r, _ = s.RefreshToken(ctx)
	assert.Empty(t, a)
	assert.Equal(t, "refresh-1", r)

	require.NoError(t, s.SetAccessToken(ctx, "access-2"))
	require.NoError(t, s.Clear(ctx))
	a, _ = s.AccessToken(ctx)
	r, _ = s.RefreshToken(ctx)
	assert.Empty(t, a)
	assert.Empty(t, r)

	lang, err := s.Language(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hi", lang)
}

func TestStore_ValuesAreSealedAtRest(t *testing.T) {
	db := setupDB(t)
	s := newStore(t, db)
	ctx := context.Background()

	require.NoError(t, s.SetTokens(ctx, "plain-access", "plain-refresh"))

	var raw []byte
	require.NoError(t, db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, common.RefreshTokenKey).Scan(&raw))
	assert.NotContains(t, string(raw), "plain-refresh")
}

func TestStore_TamperedValueIsError(t *testing.T) {
	db := setupDB(t)
	s := newStore(t, db)
	ctx := context.Background()

	require.NoError(t, s.SetAccessToken(ctx, "tok"))
	_, err := db.Exec(`UPDATE metadata SET value = ? WHERE key = ?`, []byte("garbage-garbage-garbage-garbage"), common.AccessTokenKey)
	require.NoError(t, err)

	_, err = s.AccessToken(ctx)
	assert.Error(t, err)
}

func TestStore_SwappedSlotsDoNotOpen(t *testing.T) {
	db := setupDB(t)
	s := newStore(t, db)
	ctx := context.Background()

	require.NoError(t, s.SetTokens(ctx, "a", "r"))
	_, err := db.Exec(`UPDATE metadata SET value = (SELECT value FROM metadata WHERE key = ?) WHERE key = ?`,
		common.RefreshTokenKey, common.AccessTokenKey)
	require.NoError(t, err)

	_, err = s.AccessToken(ctx)
	assert.ErrorIs(t, err, cryptox.ErrMalformed)
}

func TestStore_WrongKeyCannotRead(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	require.NoError(t, newStore(t, db).SetAccessToken(ctx, "tok"))

	_, err := newStore(t, db).AccessToken(ctx)
	assert.Error(t, err)
}

func TestNewStore_KeySize(t *testing.T) {
	_, err := NewStore(setupDB(t), []byte("short"))
	assert.Error(t, err)
}

func TestLoadKey_KeyFile(t *testing.T) {
	db := setupDB(t)
	dir := t.TempDir()
	ctx := context.Background()

	k1, err := LoadKey(ctx, db, "", dir)
	require.NoError(t, err)
	assert.Len(t, k1, cryptox.KeySize)

	st, err := os.Stat(filepath.Join(dir, KeyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	k2, err := LoadKey(ctx, db, "", dir)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestLoadKey_Passphrase(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	k1, err := LoadKey(ctx, db, "correct horse", "")
	require.NoError(t, err)
	k2, err := LoadKey(ctx, db, "correct horse", "")
	require.NoError(t, err)
	assert.Equal(t, k1, k2, "salt persisted")

	k3, err := LoadKey(ctx, db, "other", "")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}
