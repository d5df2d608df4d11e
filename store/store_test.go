//go:build sqlite

package store

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveLoadLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	defer s.Close()

	runID := uuid.New()
	require.NoError(t, s.Save(runID, 0, []byte("generation zero")))
	require.NoError(t, s.Save(runID, 1, []byte("generation one")))

	payload, found, err := s.Load(runID, 0)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("generation zero"), payload)

	generation, latestPayload, err := s.Latest(runID)
	require.NoError(t, err)
	assert.Equal(t, 1, generation)
	assert.Equal(t, []byte("generation one"), latestPayload)

	_, found, err = s.Load(uuid.New(), 0)
	require.NoError(t, err)
	assert.False(t, found)
}
