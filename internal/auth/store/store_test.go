package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brizzai/aqua-scheduler/internal/auth/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testSession() *models.Session {
	return &models.Session{
		UID:           "uid-1",
		Email:         "coach@pool.test",
		EmailVerified: true,
		Token: &oauth2.Token{
			AccessToken:  "id-token",
			TokenType:    "Bearer",
			RefreshToken: "refresh-token",
			Expiry:       time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestFileStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	s := NewFileStore(path)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "nothing persisted yet")

	require.NoError(t, s.Save(ctx, testSession()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err = s.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(testSession(), got, cmp.Comparer(func(a, b *oauth2.Token) bool {
		return a.AccessToken == b.AccessToken &&
			a.RefreshToken == b.RefreshToken &&
			a.TokenType == b.TokenType &&
			a.Expiry.Equal(b.Expiry)
	})); diff != "" {
		t.Errorf("restored session mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, s.Delete(ctx))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	// deleting twice is fine
	assert.NoError(t, s.Delete(ctx))
}

func TestFileStore_RejectsIncompleteRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("email: coach@pool.test\n"), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing uid or id_token")
}

func TestFileStore_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("uid: [unterminated"), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestFileStore_SaveNil(t *testing.T) {
	err := NewFileStore(filepath.Join(t.TempDir(), "s.yaml")).Save(context.Background(), nil)
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	sess := testSession()
	require.NoError(t, s.Save(ctx, sess))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	require.NoError(t, s.Delete(ctx))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNew(t *testing.T) {
	assert.IsType(t, &MemoryStore{}, New(""))
	assert.IsType(t, &FileStore{}, New("/tmp/session.yaml"))
}
