package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/planner/internal/category"
	"github.com/cleared-dev/planner/internal/store"
)

var testNow = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*Manager, *store.Store) {
	t.Helper()
	s := store.New(filepath.Join(t.TempDir(), "data"), nil)
	require.NoError(t, s.Init())
	m := NewManager(s, nil)
	m.now = func() time.Time { return testNow }
	return m, s
}

func backupModTime(t *testing.T, s *store.Store, name string) time.Time {
	t.Helper()
	info, err := os.Stat(s.Path(store.BackupName(name)))
	require.NoError(t, err)
	return info.ModTime()
}

func TestBackupBeforeWrite_NotCategory(t *testing.T) {
	m, s := newTestManager(t)
	require.NoError(t, s.WriteRaw("clients", []byte("[]")))

	res, err := m.BackupBeforeWrite("clients")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, StatusNotCategory, res.Status)
	assert.False(t, s.Exists(store.BackupName("clients")))
}

func TestBackupBeforeWrite_NothingToBackup(t *testing.T) {
	m, s := newTestManager(t)

	res, err := m.BackupBeforeWrite(category.Mkt)
	require.NoError(t, err)
	assert.Equal(t, StatusNothingToBackup, res.Status)
	assert.False(t, s.Exists(store.BackupName(category.Mkt)))
}

func TestBackupBeforeWrite_CopiesPrimary(t *testing.T) {
	m, s := newTestManager(t)
	require.NoError(t, s.WriteRaw(category.Mkt, []byte("v1")))

	res, err := m.BackupBeforeWrite(category.Mkt)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, StatusBackedUp, res.Status)
	assert.Equal(t, testNow, res.Timestamp)

	got, err := s.ReadRaw(store.BackupName(category.Mkt))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	primary, err := s.ReadRaw(category.Mkt)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(primary), "primary is not modified")
}

func TestBackupBeforeWrite_SkipsIdentical(t *testing.T) {
	m, s := newTestManager(t)
	require.NoError(t, s.WriteRaw(category.Budget, []byte("v1")))

	res, err := m.BackupBeforeWrite(category.Budget)
	require.NoError(t, err)
	require.Equal(t, StatusBackedUp, res.Status)
	first := backupModTime(t, s, category.Budget)

	// Make any rewrite observable through the modification time.
	past := first.Add(-time.Hour)
	require.NoError(t, os.Chtimes(s.Path(store.BackupName(category.Budget)), past, past))

	res, err = m.BackupBeforeWrite(category.Budget)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, StatusAlreadyBackedUp, res.Status)
	assert.True(t, res.Timestamp.IsZero())
	assert.True(t, past.Equal(backupModTime(t, s, category.Budget)), "identical content must not be rewritten")
}

func TestBackupBeforeWrite_OverwritesStale(t *testing.T) {
	m, s := newTestManager(t)
	require.NoError(t, s.WriteRaw(category.Budget, []byte("v1")))
	_, err := m.BackupBeforeWrite(category.Budget)
	require.NoError(t, err)

	require.NoError(t, s.WriteRaw(category.Budget, []byte("v2")))
	res, err := m.BackupBeforeWrite(category.Budget)
	require.NoError(t, err)
	assert.Equal(t, StatusBackedUp, res.Status)

	got, err := s.ReadRaw(store.BackupName(category.Budget))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))
}

func TestRestore(t *testing.T) {
	m, s := newTestManager(t)
	require.NoError(t, s.WriteRaw(category.Resultado, []byte("before")))
	_, err := m.BackupBeforeWrite(category.Resultado)
	require.NoError(t, err)
	require.NoError(t, s.WriteRaw(category.Resultado, []byte("after")))

	res, err := m.Restore(category.Resultado)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, StatusRestored, res.Status)
	assert.Equal(t, testNow, res.Timestamp)

	got, err := s.ReadRaw(category.Resultado)
	require.NoError(t, err)
	assert.Equal(t, "before", string(got))
	assert.True(t, m.HasBackup(category.Resultado))
}

func TestRestore_NoBackup(t *testing.T) {
	m, s := newTestManager(t)
	require.NoError(t, s.WriteRaw(category.Resultado, []byte("current")))

	res, err := m.Restore(category.Resultado)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, StatusNoBackup, res.Status)
	assert.Equal(t, "no backup available", res.Message)
	assert.False(t, m.HasBackup(category.Resultado))

	got, err := s.ReadRaw(category.Resultado)
	require.NoError(t, err)
	assert.Equal(t, "current", string(got))
}

func TestRestore_NotCategory(t *testing.T) {
	m, _ := newTestManager(t)
	res, err := m.Restore("users")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, StatusNotCategory, res.Status)
}
