package pathresolve_test

import (
	"testing"

	"github.com/onefatfs/onefat/bootsector"
	"github.com/onefatfs/onefat/dirent"
	"github.com/onefatfs/onefat/pathresolve"
	fixtures "github.com/onefatfs/onefat/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) *dirent.Store {
	t.Helper()
	bs, err := bootsector.New(1_000_000)
	require.NoError(t, err)

	img := fixtures.NewMemoryImage(t, int(bs.DiskSize))
	header, err := bs.Bytes()
	require.NoError(t, err)
	require.NoError(t, img.WriteExact(0, header))

	store := dirent.NewStore(img, bs)
	require.NoError(t, store.Init(0, 0))
	return store
}

func TestValidateShape(t *testing.T) {
	assert.NoError(t, pathresolve.ValidateShape(""))
	assert.NoError(t, pathresolve.ValidateShape("/a/b/c"))
	assert.NoError(t, pathresolve.ValidateShape("a"))
	assert.Error(t, pathresolve.ValidateShape("a//b"))
	assert.Error(t, pathresolve.ValidateShape("//"))
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, pathresolve.Split("/a/b"))
	assert.Equal(t, []string{"a", "b"}, pathresolve.Split("a/b/"))
	assert.Empty(t, pathresolve.Split(""))
}

func TestResolveEmptyReturnsWorkingDirectory(t *testing.T) {
	store := newFixture(t)
	r := pathresolve.New(store)

	entry, err := r.Resolve(0, nil, dirent.KindDirectory, true)
	require.NoError(t, err)
	assert.Equal(t, ".", entry.Name)
}

func TestResolveInteriorMissingIsPathNotFound(t *testing.T) {
	store := newFixture(t)
	r := pathresolve.New(store)

	_, err := r.Resolve(0, []string{"nope", "x"}, dirent.KindFile, false)
	assert.Error(t, err)
}

func TestResolveLastComponentFile(t *testing.T) {
	store := newFixture(t)
	require.NoError(t, store.Insert(0, dirent.Entry{Name: "f", IsFile: true, StartCluster: 5}))

	r := pathresolve.New(store)
	entry, err := r.Resolve(0, []string{"f"}, dirent.KindFile, false)
	require.NoError(t, err)
	assert.EqualValues(t, 5, entry.StartCluster)

	_, err = r.Resolve(0, []string{"f"}, dirent.KindDirectory, false)
	assert.Error(t, err)
}

func TestParentCluster(t *testing.T) {
	store := newFixture(t)
	require.NoError(t, store.Insert(0, dirent.Entry{Name: "d", IsFile: false, StartCluster: 5}))
	require.NoError(t, store.Init(5, 0))

	r := pathresolve.New(store)
	parent, name, err := r.ParentCluster(0, []string{"d", "f"})
	require.NoError(t, err)
	assert.EqualValues(t, 5, parent)
	assert.Equal(t, "f", name)
}
