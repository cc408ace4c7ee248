package save

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moorebrett0/termagatchi/internal/pet"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "save.json")
	return NewManager(path, slog.New(slog.DiscardHandler))
}

func sampleSnapshot() pet.Snapshot {
	stats := pet.DefaultStats()
	stats.Hunger = 72
	stats.Sleeping = true
	return pet.Snapshot{
		Stats: stats,
		ItemCooldowns: map[string]time.Time{
			"kibble": time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		Events: []pet.Event{
			{TS: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), Kind: pet.EventFeed, Meta: "fed Kibble"},
		},
		LastTick:  time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC),
		CreatedAt: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
		PlayTime:  90 * time.Minute,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := newTestManager(t)
	snap := sampleSnapshot()

	require.NoError(t, m.Save(snap))

	got, source, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, SourcePrimary, source)
	assert.Equal(t, snap.Stats, got.Stats)
	assert.True(t, got.ItemCooldowns["kibble"].Equal(snap.ItemCooldowns["kibble"]))
	assert.True(t, got.LastTick.Equal(snap.LastTick))
	assert.True(t, got.CreatedAt.Equal(snap.CreatedAt))
	assert.Equal(t, snap.PlayTime, got.PlayTime)
	require.Len(t, got.Events, 1)
	assert.Equal(t, pet.EventFeed, got.Events[0].Kind)
}

func TestLoadMissingFileStartsFresh(t *testing.T) {
	m := newTestManager(t)

	got, source, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, SourceFresh, source)
	assert.Equal(t, pet.DefaultStats(), got.Stats)
}

func TestLoadCorruptPrimaryRecoversFromBackup(t *testing.T) {
	m := newTestManager(t)
	snap := sampleSnapshot()

	// Two saves so the backup holds the first snapshot.
	require.NoError(t, m.Save(snap))
	require.NoError(t, m.Save(snap))

	// Truncate the primary mid-write, crash style.
	require.NoError(t, os.WriteFile(m.path, []byte(`{"version": 1, "stats": {`), 0644))

	got, source, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, SourceBackup, source)
	assert.Equal(t, snap.Stats, got.Stats)
}

func TestLoadBothCorruptStartsFreshWithError(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(m.path), 0755))
	require.NoError(t, os.WriteFile(m.path, []byte("garbage"), 0644))
	require.NoError(t, os.WriteFile(m.backupPath, []byte("also garbage"), 0644))

	got, source, err := m.Load()
	assert.Error(t, err)
	assert.Equal(t, SourceFresh, source)
	assert.Equal(t, pet.DefaultStats(), got.Stats)
}

func TestLoadRejectsMissingVersion(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(m.path), 0755))
	require.NoError(t, os.WriteFile(m.path, []byte(`{"stats": {"hunger": 50}}`), 0644))

	_, source, err := m.Load()
	assert.Error(t, err)
	assert.Equal(t, SourceFresh, source)
}

func TestLoadIgnoresUnknownFieldsAndDefaultsMissing(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(m.path), 0755))
	data := `{"version": 1, "stats": {"hunger": 33}, "future_field": {"x": 1}}`
	require.NoError(t, os.WriteFile(m.path, []byte(data), 0644))

	got, source, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, SourcePrimary, source)
	assert.Equal(t, 33.0, got.Stats.Hunger)
	// Stats absent from the file keep their defaults.
	assert.Equal(t, 100.0, got.Stats.Health)
}

func TestBackupLagsPrimaryByOneSave(t *testing.T) {
	m := newTestManager(t)

	first := sampleSnapshot()
	first.Stats.Hunger = 10
	require.NoError(t, m.Save(first))

	// One save: no backup yet.
	_, err := os.Stat(m.backupPath)
	assert.True(t, os.IsNotExist(err))

	second := sampleSnapshot()
	second.Stats.Hunger = 20
	require.NoError(t, m.Save(second))

	state, err := m.readState(m.backupPath)
	require.NoError(t, err)
	assert.Equal(t, 10.0, state.Stats.Hunger)

	state, err = m.readState(m.path)
	require.NoError(t, err)
	assert.Equal(t, 20.0, state.Stats.Hunger)
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Save(sampleSnapshot()))

	_, err := os.Stat(m.path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSaveOnExitRunsOnce(t *testing.T) {
	m := newTestManager(t)

	first := sampleSnapshot()
	first.Stats.Hunger = 11
	m.SaveOnExit(first)

	second := sampleSnapshot()
	second.Stats.Hunger = 99
	m.SaveOnExit(second)

	state, err := m.readState(m.path)
	require.NoError(t, err)
	assert.Equal(t, 11.0, state.Stats.Hunger)
}
