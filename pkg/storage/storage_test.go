package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveFileCreatesDirsAndReplaces(t *testing.T) {
	s := &Storage{}
	path := filepath.Join(t.TempDir(), "reports", "nested", "compliance_report.csv")

	require.NoError(t, s.SaveFile(path, []byte("first")))
	require.NoError(t, s.SaveFile(path, []byte("second")))

	data, err := s.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
	assert.True(t, s.HasFile(path))

	stats, err := s.GetFileStats(path)
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.SizeBytes)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files may be left behind")
}

func TestMissingFile(t *testing.T) {
	s := &Storage{}
	missing := filepath.Join(t.TempDir(), "nope")
	assert.False(t, s.HasFile(missing))
	_, err := s.ReadFile(missing)
	assert.Error(t, err)
	_, err = s.GetFileStats(missing)
	assert.Error(t, err)
}
