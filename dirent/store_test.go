package dirent_test

import (
	"testing"

	"github.com/onefatfs/onefat/bootsector"
	"github.com/onefatfs/onefat/dirent"
	fixtures "github.com/onefatfs/onefat/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*dirent.Store, *bootsector.BootSector) {
	t.Helper()
	bs, err := bootsector.New(1_000_000)
	require.NoError(t, err)

	img := fixtures.NewMemoryImage(t, int(bs.DiskSize))
	header, err := bs.Bytes()
	require.NoError(t, err)
	require.NoError(t, img.WriteExact(0, header))

	store := dirent.NewStore(img, bs)
	require.NoError(t, store.Init(0, 0))
	return store, bs
}

func TestInitWritesDotAndDotDot(t *testing.T) {
	store, _ := newStore(t)

	entries, err := store.Enumerate(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ".", entries[0].Name)
	assert.Equal(t, "..", entries[1].Name)
}

func TestInsertFindRemove(t *testing.T) {
	store, _ := newStore(t)

	entry := dirent.Entry{Name: "f", IsFile: true, Size: 10, StartCluster: 3}
	require.NoError(t, store.Insert(0, entry))

	found, ok, err := store.FindByName(0, "f", dirent.KindFile)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry, found)

	count, err := store.Count(0)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	removed, err := store.Remove(0, "f", dirent.KindFile)
	require.NoError(t, err)
	assert.True(t, removed)

	count, err = store.Count(0)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRemoveCompactsLastSlotIntoHole(t *testing.T) {
	store, _ := newStore(t)

	require.NoError(t, store.Insert(0, dirent.Entry{Name: "a", IsFile: true, StartCluster: 1}))
	require.NoError(t, store.Insert(0, dirent.Entry{Name: "b", IsFile: true, StartCluster: 2}))
	require.NoError(t, store.Insert(0, dirent.Entry{Name: "c", IsFile: true, StartCluster: 3}))

	removed, err := store.Remove(0, "a", dirent.KindFile)
	require.NoError(t, err)
	assert.True(t, removed)

	entries, err := store.Enumerate(0)
	require.NoError(t, err)
	// ".", "..", then "c" moved into the freed slot, "b" untouched.
	require.Len(t, entries, 4)
	assert.ElementsMatch(t, []string{".", "..", "b", "c"}, namesOf(entries))
}

func TestRemoveRefusesDotAndDotDot(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.Remove(0, ".", dirent.KindDirectory)
	assert.Error(t, err)
}

func TestRemoveMissingNameReportsNoRemoval(t *testing.T) {
	store, _ := newStore(t)
	removed, err := store.Remove(0, "nope", dirent.KindFile)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFindByCluster(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Insert(0, dirent.Entry{Name: "child", IsFile: false, StartCluster: 9}))

	found, ok, err := store.FindByCluster(0, 9)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "child", found.Name)
}

func TestInsertFailsWhenDirectoryFull(t *testing.T) {
	store, bs := newStore(t)

	max := store.MaxEntries()
	for i := 0; i < max-2; i++ {
		entry := dirent.Entry{Name: letterName(i), IsFile: true, StartCluster: uint32(i + 10)}
		require.NoError(t, store.Insert(0, entry))
	}

	_, err := store.Enumerate(0)
	require.NoError(t, err)

	err = store.Insert(0, dirent.Entry{Name: "overflow", IsFile: true, StartCluster: uint32(bs.ClusterCount - 1)})
	assert.Error(t, err)
}

func namesOf(entries []dirent.Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func letterName(i int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	return string(alphabet[i%len(alphabet)]) + string(rune('0'+(i/len(alphabet))%10))
}
