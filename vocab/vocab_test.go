package vocab

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSortedDeterministic(t *testing.T) {
	v := Build("banana")
	require.Equal(t, 3, v.Size())

	// Ids follow sorted rune order: a, b, n.
	id, ok := v.ID('a')
	require.True(t, ok)
	assert.Equal(t, 0, id)
	id, _ = v.ID('b')
	assert.Equal(t, 1, id)
	id, _ = v.ID('n')
	assert.Equal(t, 2, id)

	_, ok = v.ID('z')
	assert.False(t, ok)
}

func TestRoundTrip(t *testing.T) {
	text := "hello, world! héllo\n"
	v := Build(text)
	assert.Equal(t, text, v.Decode(v.Encode(text)))
}

func TestEncodeDropsUnknown(t *testing.T) {
	v := Build("abc")
	assert.Equal(t, []int{0, 2}, v.Encode("axc"))
}

func TestDecodeSkipsOutOfRange(t *testing.T) {
	v := Build("ab")
	assert.Equal(t, "ab", v.Decode([]int{-1, 0, 1, 5}))

	_, ok := v.Rune(-1)
	assert.False(t, ok)
	_, ok = v.Rune(2)
	assert.False(t, ok)
}

func TestSaveLoad(t *testing.T) {
	text := "the quick brown fox"
	v := Build(text)
	path := filepath.Join(t.TempDir(), "vocab.json")
	require.NoError(t, v.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, v.Size(), loaded.Size())
	assert.Equal(t, v.Encode(text), loaded.Encode(text))
	assert.Equal(t, text, loaded.Decode(loaded.Encode(text)))
}
