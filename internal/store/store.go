// Package store loads and saves the bot's whole state as a single JSON file.
// The file layout is the data.json written by earlier revisions of the bot,
// so an existing file keeps working unchanged.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Event is one community event announcement. The log is append-only.
type Event struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	CreatorID   string `json:"creatorId"`
	CreatedAt   int64  `json:"createdAt"` // epoch millis
}

// State is the persisted blob. Unknown fields in old files are dropped on
// load, which the format allows.
type State struct {
	Greeted        []string           `json:"greeted"`
	MessageCounts  map[string]int64   `json:"messageCounts"`
	VoiceTimes     map[string]int64   `json:"voiceTimes"` // open sessions only, epoch millis
	VoiceDurations map[string]float64 `json:"voiceDurations"`
	Locked         bool               `json:"locked"`
	Events         []Event            `json:"events"`
}

func DefaultState() *State {
	return &State{
		Greeted:        []string{},
		MessageCounts:  map[string]int64{},
		VoiceTimes:     map[string]int64{},
		VoiceDurations: map[string]float64{},
		Events:         []Event{},
	}
}

// normalize fills in anything a hand-edited or older file left out, so
// consumers never nil-check.
func (s *State) normalize() {
	if s.Greeted == nil {
		s.Greeted = []string{}
	}
	if s.MessageCounts == nil {
		s.MessageCounts = map[string]int64{}
	}
	if s.VoiceTimes == nil {
		s.VoiceTimes = map[string]int64{}
	}
	if s.VoiceDurations == nil {
		s.VoiceDurations = map[string]float64{}
	}
	if s.Events == nil {
		s.Events = []Event{}
	}
}

type Store struct {
	path string
	log  *zap.Logger
}

func New(path string, log *zap.Logger) *Store {
	return &Store{path: path, log: log}
}

func (st *Store) Load() (*State, error) {
	if _, err := os.Stat(st.path); err != nil {
		// Only a genuinely absent file reads as an empty state. Any other
		// stat failure must surface, or the next Save would overwrite real
		// history with defaults.
		if errors.Is(err, fs.ErrNotExist) {
			st.log.Info("no data file found, using defaults", zap.String("path", st.path))
			return DefaultState(), nil
		}
		return nil, fmt.Errorf("stat %s: %w", st.path, err)
	}

	d, err := os.ReadFile(st.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", st.path, err)
	}

	state := &State{}
	if err := json.Unmarshal(d, state); err != nil {
		return nil, fmt.Errorf("parse %s: %w", st.path, err)
	}
	state.normalize()
	return state, nil
}

// Save overwrites the whole file. The write goes to a temp file that is
// renamed over the target, so a concurrent reader never sees a torn file.
// A failed save is retried once; the in-memory state stays authoritative
// either way.
func (st *Store) Save(state *State) error {
	err := st.write(state)
	if err == nil {
		return nil
	}
	st.log.Warn("save failed, retrying", zap.Error(err))
	if err = st.write(state); err != nil {
		st.log.Error("save failed again, keeping in-memory state", zap.Error(err))
		return err
	}
	return nil
}

func (st *Store) write(state *State) error {
	d, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".data-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(d); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), st.path)
}
