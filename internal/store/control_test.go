package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestStartupRecordsNextMode(t *testing.T) {
	cs := NewControlStore(filepath.Join(t.TempDir(), "control.json"), nil)

	require.NoError(t, cs.RequestStartup(ModeSmoke))

	got, err := cs.Read()
	require.NoError(t, err)
	assert.Equal(t, ModeStartup, got.Mode)
	assert.Equal(t, ModeSmoke, got.NextMode)
	assert.True(t, got.Updated)
}

func TestRequestStartupRejectsInvalidNextMode(t *testing.T) {
	cs := NewControlStore(filepath.Join(t.TempDir(), "control.json"), nil)

	err := cs.RequestStartup(ModeManual)
	assert.Equal(t, ErrInvalidNextMode, err)
}
