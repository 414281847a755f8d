package auditlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		Operation: "update",
		Target:    "mkt",
		Status:    StatusOK,
		Details:   "fields: previsto",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, testEntry()))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "mkt", entries[0].Target)

	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	assert.Equal(t, Header+"\n2025-01-15T10:30:00Z,update,mkt,ok,fields: previsto\n", string(data))
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, testEntry()))

	e2 := testEntry()
	e2.Operation = "restore"
	e2.Status = StatusFailed
	e2.Details = "no backup available"
	require.NoError(t, Append(dir, e2))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "update", entries[0].Operation)
	assert.Equal(t, "restore", entries[1].Operation)
	assert.Equal(t, StatusFailed, entries[1].Status)
}

func TestRead_RoundTripWithCommas(t *testing.T) {
	dir := t.TempDir()
	original := testEntry()
	original.Details = "fields: previsto, medio"
	require.NoError(t, Append(dir, original))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, original.Timestamp.Equal(entries[0].Timestamp))
	assert.Equal(t, original.Details, entries[0].Details)
}

func TestRead_NotFound(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(Path(dir), []byte(Header+"\n"), 0o644))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one", "two"})
	assert.ErrorContains(t, err, "expected 5 fields")

	_, err = UnmarshalEntry([]string{"yesterday", "update", "mkt", "ok", ""})
	assert.ErrorContains(t, err, "parsing timestamp")
}

func TestMarshalEntry_UsesUTC(t *testing.T) {
	e := testEntry()
	e.Timestamp = time.Date(2025, 1, 15, 7, 30, 0, 0, time.FixedZone("BRT", -3*60*60))
	assert.Equal(t, "2025-01-15T10:30:00Z", MarshalEntry(e)[0])
}
