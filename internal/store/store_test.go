package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/collabmd/internal/config"
)

func exerciseStore(t *testing.T, s Store) string {
	t.Helper()
	ctx := context.Background()
	id := "doc-" + uuid.NewString()

	_, err := s.Load(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, s.Save(ctx, Snapshot{DocID: id, Rev: 3, Text: "# héllo", UpdatedAt: now}))
	snap, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, snap.DocID)
	assert.Equal(t, 3, snap.Rev)
	assert.Equal(t, "# héllo", snap.Text)
	assert.True(t, now.Equal(snap.UpdatedAt))

	require.NoError(t, s.Save(ctx, Snapshot{DocID: id, Rev: 4, Text: "", UpdatedAt: now}))
	snap, err = s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Rev)
	assert.Empty(t, snap.Text)
	return id
}

func TestMemory(t *testing.T) {
	s := NewMemory()
	exerciseStore(t, s)
	assert.NoError(t, s.Close())
}

func TestBolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "docs.db")
	s, err := OpenBolt(path)
	require.NoError(t, err)
	id := exerciseStore(t, s)
	require.NoError(t, s.Close())

	reopened, err := OpenBolt(path)
	require.NoError(t, err)
	defer reopened.Close()
	snap, err := reopened.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Rev)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("COLLABMD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("COLLABMD_TEST_REDIS_ADDR not set")
	}
	s, err := OpenRedis(context.Background(), addr)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("COLLABMD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("COLLABMD_TEST_POSTGRES_DSN not set")
	}
	s, err := OpenPostgres(context.Background(), dsn)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), config.ServerConfig{Store: config.StoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(context.Background(), config.ServerConfig{Store: config.StoreBolt, BoltPath: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &Bolt{}, s)
	require.NoError(t, s.Close())

	_, err = Open(context.Background(), config.ServerConfig{Store: "floppy"})
	assert.Error(t, err)
}
