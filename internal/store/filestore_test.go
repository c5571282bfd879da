package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "control.json")
	fs := NewControlStore(path, nil)

	c := DefaultControl()
	c.Mode = ModeHold
	c.Setpoints.Grill = 225
	require.NoError(t, fs.Write(c))

	got, err := fs.Read()
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestFileStoreReadMissingReturnsZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.json")
	fs := NewControlStore(path, nil)

	got, err := fs.Read()
	require.NoError(t, err)
	assert.Equal(t, DefaultControl(), got)
}

func TestUpdateIsReadModifyWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "control.json")
	fs := NewControlStore(path, nil)

	// Simulate an external collaborator writing first.
	require.NoError(t, fs.Write(Control{Mode: ModeSmoke, Setpoints: Setpoints{Grill: 225}}))

	require.NoError(t, fs.Update(func(c *Control) error {
		c.Updated = true
		return nil
	}))

	got, err := fs.Read()
	require.NoError(t, err)
	assert.Equal(t, ModeSmoke, got.Mode, "Update must preserve fields it didn't touch, not overwrite with a stale snapshot")
	assert.True(t, got.Updated)
	assert.Equal(t, 225.0, got.Setpoints.Grill)
}

func TestRequestHoldRejectsNonPositiveSetpoint(t *testing.T) {
	dir := t.TempDir()
	cs := NewControlStore(filepath.Join(dir, "control.json"), nil)

	err := cs.RequestHold(0)
	assert.ErrorIs(t, err, ErrHoldRejected)

	err = cs.RequestHold(-5)
	assert.ErrorIs(t, err, ErrHoldRejected)

	require.NoError(t, cs.RequestHold(225))
	got, err := cs.Read()
	require.NoError(t, err)
	assert.Equal(t, ModeHold, got.Mode)
	assert.True(t, got.Updated)
}

func TestTimerArmed(t *testing.T) {
	assert.True(t, Timer{Start: 0, End: 60}.Armed())
	assert.False(t, Timer{Start: 60, End: 60}.Armed())
	assert.False(t, Timer{Start: -1, End: 60}.Armed())
}

func TestHistoryAppendKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	hs := NewHistoryStore(filepath.Join(dir, "history.json"), nil)

	require.NoError(t, hs.Append(HistorySample{GrillTemp: 200}))
	require.NoError(t, hs.Append(HistorySample{GrillTemp: 210}))

	got, err := hs.Read()
	require.NoError(t, err)
	require.Len(t, got.Samples, 2)
	assert.Equal(t, 210.0, got.Samples[1].GrillTemp)
}
