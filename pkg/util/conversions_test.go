package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSnowflake(t *testing.T) {
	assert.True(t, IsSnowflake("111111111111111111"))
	assert.True(t, IsSnowflake("123456789012345"))

	assert.False(t, IsSnowflake(""))
	assert.False(t, IsSnowflake("12345"))
	assert.False(t, IsSnowflake("notanumber12345678"))
	assert.False(t, IsSnowflake("-11111111111111111"))
	assert.False(t, IsSnowflake("1111111111111111111111"))
}

func TestUint64RoundTrip(t *testing.T) {
	assert.Equal(t, "18446744073709551615", Uint64ToString(18446744073709551615))

	v, err := StringToUint64("123456789012345678")
	require.NoError(t, err)
	assert.Equal(t, uint64(123456789012345678), v)

	_, err = StringToUint64("not a number")
	assert.Error(t, err)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "data.json")

	require.NoError(t, WriteFileAtomic(path, []byte(`{"a":1}`), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	// Overwrite replaces the content wholesale
	require.NoError(t, WriteFileAtomic(path, []byte(`{"b":2}`), 0644))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, string(data))

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
