package counter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextIDSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wo_counter.txt")
	c := NewFile(path)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := c.NextID(ctx)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	assert.Equal(t, []string{"WO-000001", "WO-000002", "WO-000003", "WO-000004", "WO-000005"}, ids)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "5", string(data))
}

func TestNextIDSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "wo_counter.txt")
	ctx := context.Background()

	first := NewFile(path)
	for i := 0; i < 3; i++ {
		_, err := first.NextID(ctx)
		require.NoError(t, err)
	}

	// A fresh instance stands in for a new process.
	second := NewFile(path)
	id, err := second.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "WO-000004", id)
}

func TestCorruptCounterReadsAsZero(t *testing.T) {
	tests := map[string]string{
		"garbage":  "not-a-number",
		"empty":    "",
		"negative": "-7",
		"spaces":   "   ",
	}

	for name, contents := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "wo_counter.txt")
			require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

			id, err := NewFile(path).NextID(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "WO-000001", id)
		})
	}
}

func TestCounterToleratesWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wo_counter.txt")
	require.NoError(t, os.WriteFile(path, []byte(" 41\n"), 0644))

	c := NewFile(path)
	assert.Equal(t, 41, c.Current())

	id, err := c.NextID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "WO-000042", id)
}

func TestNextIDWriteFailure(t *testing.T) {
	dir := t.TempDir()
	// A directory at the counter path makes the write fail.
	path := filepath.Join(dir, "wo_counter.txt")
	require.NoError(t, os.Mkdir(path, 0755))

	_, err := NewFile(path).NextID(context.Background())
	assert.Error(t, err)
}

func TestFormatID(t *testing.T) {
	assert.Equal(t, "WO-000001", FormatID(1))
	assert.Equal(t, "WO-123456", FormatID(123456))
	assert.Equal(t, "WO-1234567", FormatID(1234567))
}
