package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	return New(path, zap.NewNop()), path
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	st, _ := testStore(t)

	state, err := st.Load()
	require.NoError(t, err)

	assert.NotNil(t, state.MessageCounts)
	assert.NotNil(t, state.VoiceTimes)
	assert.NotNil(t, state.VoiceDurations)
	assert.Empty(t, state.Greeted)
	assert.Empty(t, state.Events)
	assert.False(t, state.Locked)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st, _ := testStore(t)

	want := &State{
		Greeted:        []string{"u1", "u2"},
		MessageCounts:  map[string]int64{"u1": 250, "u2": 3},
		VoiceTimes:     map[string]int64{"u2": 1_700_000_000_000},
		VoiceDurations: map[string]float64{"u1": 912.5},
		Locked:         true,
		Events: []Event{
			{Title: "Fleet Night", Description: "Bring your wing", Date: "Friday", CreatorID: "u1", CreatedAt: 1_700_000_000_000},
		},
	}

	require.NoError(t, st.Save(want))

	got, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadIgnoresUnknownFields(t *testing.T) {
	st, path := testStore(t)

	blob := `{
		"greeted": ["u1"],
		"messageCounts": {"u1": 7},
		"webPort": 3000,
		"somethingNewer": {"nested": true}
	}`
	require.NoError(t, os.WriteFile(path, []byte(blob), 0644))

	state, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, state.Greeted)
	assert.Equal(t, int64(7), state.MessageCounts["u1"])
}

func TestLoadNormalizesMissingFields(t *testing.T) {
	st, path := testStore(t)

	require.NoError(t, os.WriteFile(path, []byte(`{"locked": true}`), 0644))

	state, err := st.Load()
	require.NoError(t, err)
	assert.True(t, state.Locked)
	assert.NotNil(t, state.MessageCounts)
	assert.NotNil(t, state.VoiceTimes)
	assert.NotNil(t, state.VoiceDurations)
	assert.NotNil(t, state.Greeted)
	assert.NotNil(t, state.Events)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	st, path := testStore(t)

	require.NoError(t, st.Save(DefaultState()))
	require.NoError(t, st.Save(DefaultState()))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "data.json", entries[0].Name())
}

func TestLoadPropagatesStatErrors(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	// The parent of the state path is a regular file, so Stat fails with
	// something other than not-exist. That must surface as an error, never
	// as an empty default state that the next save would persist.
	st := New(filepath.Join(blocker, "data.json"), zap.NewNop())
	_, err := st.Load()
	assert.Error(t, err)
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	st, path := testStore(t)

	require.NoError(t, os.WriteFile(path, []byte(`{"greeted": [`), 0644))

	_, err := st.Load()
	assert.Error(t, err)
}
