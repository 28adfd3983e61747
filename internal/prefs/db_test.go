package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefault(t *testing.T) {
	s, err := Open(t.TempDir(), "")
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "adb", s.Get(KeyADBLocation, "adb"))
	assert.Equal(t, DefaultNode, s.Node())
}

func TestPutIsVisibleBeforeFlush(t *testing.T) {
	s, err := Open(t.TempDir(), "test")
	require.NoError(t, err)
	defer s.Close()

	s.Put(KeyADBLocation, "/opt/platform-tools/adb")
	assert.Equal(t, "/opt/platform-tools/adb", s.Get(KeyADBLocation, "adb"))
}

func TestFlushPersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "test")
	require.NoError(t, err)

	s.Put(KeyADBLocation, "/opt/adb")
	s.Put(KeySavedConnections, `[{"remoteIP":"10.0.0.2"}]`)
	require.NoError(t, s.Flush())
	require.NoError(t, s.Close())

	s, err = Open(dir, "test")
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "/opt/adb", s.Get(KeyADBLocation, "adb"))
	assert.Equal(t, `[{"remoteIP":"10.0.0.2"}]`, s.Get(KeySavedConnections, ""))
}

func TestUnflushedChangesAreDiscarded(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "test")
	require.NoError(t, err)
	s.Put(KeyJarLocation, "/tmp/adbwifi")
	require.NoError(t, s.Close())

	s, err = Open(dir, "test")
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "", s.Get(KeyJarLocation, ""))
}

func TestRemove(t *testing.T) {
	s, err := Open(t.TempDir(), "test")
	require.NoError(t, err)
	defer s.Close()

	s.Put(KeyADBLocation, "/opt/adb")
	require.NoError(t, s.Flush())
	s.Remove(KeyADBLocation)
	assert.Equal(t, "adb", s.Get(KeyADBLocation, "adb"))
	require.NoError(t, s.Flush())
	assert.Equal(t, "adb", s.Get(KeyADBLocation, "adb"))
}

func TestNodesAreIsolated(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(dir, "a")
	require.NoError(t, err)
	a.Put(KeyADBLocation, "/a/adb")
	require.NoError(t, a.Flush())
	require.NoError(t, a.Close())

	b, err := Open(dir, "b")
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, "adb", b.Get(KeyADBLocation, "adb"))
}

func TestKeys(t *testing.T) {
	s, err := Open(t.TempDir(), "test")
	require.NoError(t, err)
	defer s.Close()

	s.Put(KeyJarLocation, "/x")
	s.Put(KeyADBLocation, "/y")
	require.NoError(t, s.Flush())
	s.Remove(KeyJarLocation)
	s.Put(KeySavedConnections, "[]")

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{KeyADBLocation, KeySavedConnections}, keys)
}

func TestFlushFailureKeepsChangesStaged(t *testing.T) {
	s, err := Open(t.TempDir(), "test")
	require.NoError(t, err)

	s.Put(KeyADBLocation, "/opt/adb")
	require.NoError(t, s.Close())
	assert.Error(t, s.Flush())
	assert.Equal(t, "/opt/adb", s.Get(KeyADBLocation, "adb"))
}
