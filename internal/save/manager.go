// Package save persists the pet to disk and gets it back, surviving
// crashes and corrupted files. The engine's live state never touches
// disk directly; the manager works only on snapshots.
package save

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/moorebrett0/termagatchi/internal/pet"
)

// Version tags the snapshot schema. Unknown future fields are ignored
// on load; missing known fields take defaults.
const Version = 1

// ErrCorrupt marks a snapshot that exists but fails structural
// validation. Recoverable via the backup file.
var ErrCorrupt = errors.New("save file corrupt")

// State is the durable snapshot written to disk.
type State struct {
	Version        int                  `json:"version"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Stats          pet.Stats            `json:"stats"`
	ItemCooldowns  map[string]time.Time `json:"item_cooldowns"`
	Events         []pet.Event          `json:"events"`
	LastTick       time.Time            `json:"last_tick"`
	TotalPlayTimeS float64              `json:"total_play_time_s"`
}

// Snapshot converts the durable state into the engine's snapshot shape.
func (s State) Snapshot() pet.Snapshot {
	return pet.Snapshot{
		Stats:         s.Stats,
		ItemCooldowns: s.ItemCooldowns,
		Events:        s.Events,
		LastTick:      s.LastTick,
		CreatedAt:     s.CreatedAt,
		PlayTime:      time.Duration(s.TotalPlayTimeS * float64(time.Second)),
	}
}

// Source says where a loaded snapshot came from.
type Source int

const (
	SourceFresh Source = iota
	SourcePrimary
	SourceBackup
)

func (s Source) String() string {
	switch s {
	case SourcePrimary:
		return "primary"
	case SourceBackup:
		return "backup"
	}
	return "fresh"
}

// Manager reads and writes the snapshot at a fixed path, keeping one
// backup that always lags the primary by a single successful save.
type Manager struct {
	path       string
	backupPath string
	logger     *slog.Logger

	exitOnce sync.Once
}

// NewManager creates a manager for the given save path. The backup
// lives next to it with a .bak suffix.
func NewManager(path string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		path:       path,
		backupPath: path + ".bak",
		logger:     logger,
	}
}

// fresh is the snapshot of a brand-new pet.
func fresh() pet.Snapshot {
	return pet.Snapshot{
		Stats:         pet.DefaultStats(),
		ItemCooldowns: map[string]time.Time{},
	}
}

// Load reads the snapshot. A missing file means a new game; a corrupt
// primary falls back to the backup (logged, recoverable); only when
// both are unreadable does it start fresh, and then the returned error
// says so rather than hiding the loss.
func (m *Manager) Load() (pet.Snapshot, Source, error) {
	state, err := m.readState(m.path)
	if err == nil {
		m.logger.Info("save: loaded", "path", m.path)
		return state.Snapshot(), SourcePrimary, nil
	}
	if os.IsNotExist(err) {
		m.logger.Info("save: no save file, starting new game", "path", m.path)
		return fresh(), SourceFresh, nil
	}

	m.logger.Warn("save: primary unreadable, trying backup", "path", m.path, "err", err)

	state, berr := m.readState(m.backupPath)
	if berr == nil {
		m.logger.Warn("save: recovered from backup", "path", m.backupPath)
		return state.Snapshot(), SourceBackup, nil
	}
	if !os.IsNotExist(berr) {
		m.logger.Error("save: backup also unreadable", "path", m.backupPath, "err", berr)
	}

	return fresh(), SourceFresh, fmt.Errorf("load %s: %w", m.path, err)
}

// readState reads and structurally validates one snapshot file.
func (m *Manager) readState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, err
	}

	// Seed defaults so missing known fields land on sane values.
	state := State{Stats: pet.DefaultStats()}
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if state.Version < 1 {
		return State{}, fmt.Errorf("%w: missing version tag", ErrCorrupt)
	}
	return state, nil
}

// Save writes the snapshot atomically: temp file first, then the old
// primary becomes the backup, then the temp replaces the primary. The
// backup therefore never holds the write that caused a corruption.
func (m *Manager) Save(snap pet.Snapshot) error {
	state := State{
		Version:        Version,
		CreatedAt:      snap.CreatedAt,
		UpdatedAt:      time.Now(),
		Stats:          snap.Stats,
		ItemCooldowns:  snap.ItemCooldowns,
		Events:         snap.Events,
		LastTick:       snap.LastTick,
		TotalPlayTimeS: snap.PlayTime.Seconds(),
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal save: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("create save dir: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write tmp save: %w", err)
	}

	if prev, err := os.ReadFile(m.path); err == nil {
		if err := os.WriteFile(m.backupPath, prev, 0644); err != nil {
			m.logger.Warn("save: could not refresh backup", "path", m.backupPath, "err", err)
		}
	}

	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("rename save: %w", err)
	}

	m.logger.Debug("save: written", "path", m.path, "bytes", len(data))
	return nil
}

// Run autosaves on a fixed interval until the context is cancelled.
// snapFn is called per tick so each save sees current state.
func (m *Manager) Run(ctx context.Context, interval time.Duration, snapFn func() pet.Snapshot) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Save(snapFn()); err != nil {
				m.logger.Error("save: autosave failed", "err", err)
			}
		}
	}
}

// SaveOnExit runs exactly once, for graceful shutdown paths that might
// otherwise race (signal handler vs. REPL EOF).
func (m *Manager) SaveOnExit(snap pet.Snapshot) {
	m.exitOnce.Do(func() {
		if err := m.Save(snap); err != nil {
			m.logger.Error("save: exit save failed", "err", err)
		}
	})
}
