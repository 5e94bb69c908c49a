package atomicwrite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFileCreatesAndReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "payload.edi")

	require.NoError(t, WriteFile(path, []byte("ISA*01"), 0o600))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "ISA*01", string(b))

	require.NoError(t, WriteFile(path, []byte("ISA*02"), 0o600))
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "ISA*02", string(b))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no deben quedar temporales")
}
