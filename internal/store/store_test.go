package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, b.Ping(ctx))

	_, err := b.Load(ctx)
	assert.True(t, IsNotFound(err), "fresh backend should report not found, got %v", err)

	require.NoError(t, b.Save(ctx, []byte(`{"version":1}`)))
	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1}`, string(got))

	require.NoError(t, b.Save(ctx, []byte(`{"version":2}`)))
	got, err = b.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2}`, string(got))
}

func TestFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions.json")
	b := NewFileBackend(path)
	exerciseBackend(t, b)
	assert.Equal(t, path, b.Location())

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sessions.json", entries[0].Name())
}

func TestFileBackendFailedSaveKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.json")
	b := NewFileBackend(path)
	require.NoError(t, b.Save(context.Background(), []byte("old")))

	// a directory where the target file should be makes rename fail
	blocked := NewFileBackend(filepath.Join(dir, "sub"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub", "x"), 0o755))
	assert.Error(t, blocked.Save(context.Background(), []byte("new")))

	got, err := b.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
}

func TestSQLiteBackend(t *testing.T) {
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer b.Close()
	exerciseBackend(t, b)
}

func TestRedisBackend(t *testing.T) {
	url := os.Getenv("CLIBRIDGE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CLIBRIDGE_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	key := "clibridge:test:" + t.Name()
	defer client.Del(context.Background(), key)

	b := NewRedisBackend(client, key)
	defer b.Close()
	exerciseBackend(t, b)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	b, err := Open(KindFile, filepath.Join(dir, "s.json"))
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, b)

	b, err = Open("SQLITE", filepath.Join(dir, "s.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteBackend{}, b)
	require.NoError(t, b.Close())

	b, err = Open(KindRedis, "", WithRedisURL("redis://localhost:6379/0"), WithRedisKey("k"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379/k", b.Location())
	require.NoError(t, b.Close())

	_, err = Open(KindRedis, "")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Open(KindFile, "")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Open("etcd", "x")
	var unknown *UnknownKindError
	assert.True(t, errors.As(err, &unknown))
}
