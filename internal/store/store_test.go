package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "data"), nil)
	require.NoError(t, s.Init())
	return s
}

func TestInit_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "data")
	s := New(root, nil)
	require.NoError(t, s.Init())

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, root, s.Root())
}

func TestInit_FailsWhenRootIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	err := New(file, nil).Init()
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	s := New("/srv/data", nil)
	assert.Equal(t, filepath.Join("/srv/data", "mkt.json"), s.Path("mkt"))
	assert.Equal(t, "mkt-backup", BackupName("mkt"))
	assert.Equal(t, filepath.Join("/srv/data", "mkt-backup.json"), s.Path(BackupName("mkt")))
}

func TestReadWriteRaw(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.Exists("budget"))

	require.NoError(t, s.WriteRaw("budget", []byte(`{"a":1}`)))
	assert.True(t, s.Exists("budget"))

	got, err := s.ReadRaw("budget")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	require.NoError(t, s.WriteRaw("budget", []byte(`{"a":2}`)))
	got, err = s.ReadRaw("budget")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(got))
}

func TestWriteRaw_LeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteRaw("mkt", []byte("{}")))

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "mkt.json", entries[0].Name())
}

func TestReadRaw_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ReadRaw("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteRaw_MissingRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent"), nil)
	err := s.WriteRaw("mkt", []byte("{}"))
	assert.Error(t, err)
}

func TestEnsureDefaults_Idempotent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "data"), nil)
	calls := 0
	seeds := []Seed{
		{Name: "one", Build: func(now time.Time) ([]byte, error) {
			calls++
			return []byte(now.Format(time.RFC3339Nano)), nil
		}},
		{Name: "two", Build: func(time.Time) ([]byte, error) { return []byte("[]"), nil }},
	}

	created, err := s.EnsureDefaults(seeds, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, created)

	first, err := s.ReadRaw("one")
	require.NoError(t, err)

	created, err = s.EnsureDefaults(seeds, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Equal(t, 1, calls, "existing documents are not rebuilt")

	second, err := s.ReadRaw("one")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEnsureDefaults_OnlyMissing(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteRaw("one", []byte("custom")))

	created, err := s.EnsureDefaults([]Seed{
		{Name: "one", Build: func(time.Time) ([]byte, error) { return []byte("default"), nil }},
		{Name: "two", Build: func(time.Time) ([]byte, error) { return []byte("default"), nil }},
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"two"}, created)

	got, err := s.ReadRaw("one")
	require.NoError(t, err)
	assert.Equal(t, "custom", string(got))
}

func TestEnsureDefaults_BuildError(t *testing.T) {
	s := newTestStore(t)
	_, err := s.EnsureDefaults([]Seed{
		{Name: "bad", Build: func(time.Time) ([]byte, error) { return nil, os.ErrInvalid }},
	}, testNow)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrInvalid)
	assert.False(t, s.Exists("bad"))
}
