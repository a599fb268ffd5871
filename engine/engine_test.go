package engine_test

import (
	"path/filepath"
	"testing"

	"github.com/onefatfs/onefat"
	"github.com/onefatfs/onefat/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, sizeBytes uint32) *engine.Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.img")
	e, err := engine.Create(path, sizeBytes)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestCreateFormatsRootDirectory(t *testing.T) {
	e := newEngine(t, 1_000_000)
	assert.Equal(t, "/", e.WorkingDirectoryPath())

	out, err := engine.Dispatch(e, engine.Command{Kind: engine.Ls})
	require.NoError(t, err)
	assert.Contains(t, out, ".")
	assert.Contains(t, out, "..")
}

func TestFormatReinitializesInPlace(t *testing.T) {
	e := newEngine(t, 1_000_000)
	_, err := engine.Dispatch(e, engine.Command{Kind: engine.Mkdir, Args: []string{"/d"}})
	require.NoError(t, err)

	require.NoError(t, e.Format(1_000_000))

	_, err = engine.Dispatch(e, engine.Command{Kind: engine.Cd, Args: []string{"/d"}})
	assert.Error(t, err)
}

func TestOpenOrCreateOpensExistingImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "existing.img")
	created, err := engine.Create(path, 1_000_000)
	require.NoError(t, err)
	_, err = engine.Dispatch(created, engine.Command{Kind: engine.Mkdir, Args: []string{"/d"}})
	require.NoError(t, err)
	require.NoError(t, created.Close())

	reopened, err := engine.OpenOrCreate(path, 1_000_000)
	require.NoError(t, err)
	defer reopened.Close()

	out, err := engine.Dispatch(reopened, engine.Command{Kind: engine.Ls})
	require.NoError(t, err)
	assert.Contains(t, out, "d")
}

func TestParseFormatSize(t *testing.T) {
	size, err := engine.ParseFormatSize("2MB")
	require.NoError(t, err)
	assert.EqualValues(t, 2*onefat.FormatUnit, size)

	_, err = engine.ParseFormatSize("2 MB")
	assert.Error(t, err)

	_, err = engine.ParseFormatSize("2KB")
	assert.Error(t, err)
}
