package dirent_test

import (
	"testing"

	"github.com/onefatfs/onefat/dirent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	entry := dirent.Entry{Name: "readme", IsFile: true, Size: 42, StartCluster: 7}

	data, err := dirent.Marshal(entry)
	require.NoError(t, err)

	got, err := dirent.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, entry, got)
}

func TestMarshalRejectsLongNames(t *testing.T) {
	_, err := dirent.Marshal(dirent.Entry{Name: "this-name-is-too-long"})
	assert.Error(t, err)
}

func TestIsAllocated(t *testing.T) {
	assert.True(t, dirent.Entry{Name: "a"}.IsAllocated())
	assert.False(t, dirent.Entry{}.IsAllocated())
}

func TestMatches(t *testing.T) {
	file := dirent.Entry{Name: "f", IsFile: true}
	dir := dirent.Entry{Name: "d", IsFile: false}

	assert.True(t, file.Matches(dirent.KindFile))
	assert.False(t, file.Matches(dirent.KindDirectory))
	assert.True(t, dir.Matches(dirent.KindAny))
}

func TestDotDotDot(t *testing.T) {
	dot := dirent.Dot(5)
	assert.Equal(t, ".", dot.Name)
	assert.EqualValues(t, 5, dot.StartCluster)

	dotdot := dirent.DotDot(2)
	assert.Equal(t, "..", dotdot.Name)
	assert.EqualValues(t, 2, dotdot.StartCluster)
}
