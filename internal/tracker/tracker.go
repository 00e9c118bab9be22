// Package tracker owns the engagement state: per-user message counts, voice
// session bookkeeping, the one-time greeting flag, the milestone table and
// the read paths the commands are built on. It takes plain user IDs and
// callbacks and knows nothing about the chat platform.
package tracker

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hangar18/squadbot/internal/store"
)

// Saver persists the whole state after a mutation.
type Saver interface {
	Save(*store.State) error
}

// Tracker mutates a single State under a mutex. discordgo dispatches
// handlers concurrently, so every read-modify-write-persist sequence holds
// the lock to completion; saves never overlap.
type Tracker struct {
	mu    sync.Mutex
	state *store.State
	saver Saver
	log   *zap.Logger
}

func New(state *store.State, saver Saver, log *zap.Logger) *Tracker {
	return &Tracker{state: state, saver: saver, log: log}
}

// persist is called with the lock held. Save failures are logged by the
// store and retried there; the in-memory state stays authoritative, so a
// crash loses at most the latest mutation.
func (t *Tracker) persist() {
	_ = t.saver.Save(t.state)
}

// RecordMessage increments the user's lifetime message count and returns the
// new value. If the post-increment count lands exactly on a milestone
// threshold, onMilestone is invoked once with it. Counts that skip past a
// threshold never fire it.
func (t *Tracker) RecordMessage(userID string, onMilestone func(Milestone)) int64 {
	t.mu.Lock()
	t.state.MessageCounts[userID]++
	count := t.state.MessageCounts[userID]
	t.persist()
	t.mu.Unlock()

	if m, ok := MilestoneFor(count); ok && onMilestone != nil {
		onMilestone(m)
	}
	return count
}

// RecordVoiceJoin opens a voice session. A duplicate join event for an
// already-open session keeps the original start timestamp.
func (t *Tracker) RecordVoiceJoin(userID string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, open := t.state.VoiceTimes[userID]; open {
		return
	}
	t.state.VoiceTimes[userID] = now.UnixMilli()
	t.persist()
}

// RecordVoiceLeave closes an open session and adds its length to the user's
// cumulative voice time. A leave without an open session is a no-op, so the
// delta is applied at most once. Sessions interrupted by a crash never
// contribute; there is no estimation.
func (t *Tracker) RecordVoiceLeave(userID string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start, open := t.state.VoiceTimes[userID]
	if !open {
		return
	}
	if delta := float64(now.UnixMilli()-start) / 1000; delta > 0 {
		t.state.VoiceDurations[userID] += delta
	} else if delta < 0 {
		t.log.Warn("voice session ended before it started, dropping",
			zap.String("user", userID), zap.Float64("delta", delta))
	}
	delete(t.state.VoiceTimes, userID)
	t.persist()
}

// GreetOnce sends the welcome via send the first time a user shows up in the
// introductions channel. The flag is global per user: once greeted, never
// again, in any channel. Reports whether the welcome was sent.
func (t *Tracker) GreetOnce(userID string, isIntroductions bool, send func()) bool {
	if !isIntroductions {
		return false
	}

	t.mu.Lock()
	if t.greeted(userID) {
		t.mu.Unlock()
		return false
	}
	t.state.Greeted = append(t.state.Greeted, userID)
	t.persist()
	t.mu.Unlock()

	if send != nil {
		send()
	}
	return true
}

// greeted is called with the lock held. The list stays tiny (one entry per
// member who ever posted an introduction), so a scan is fine.
func (t *Tracker) greeted(userID string) bool {
	for _, id := range t.state.Greeted {
		if id == userID {
			return true
		}
	}
	return false
}

func (t *Tracker) HasGreeted(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.greeted(userID)
}

// ResetUser clears the user's message count, cumulative voice time and any
// open voice session. The greeting flag survives a reset.
func (t *Tracker) ResetUser(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.state.MessageCounts, userID)
	delete(t.state.VoiceDurations, userID)
	delete(t.state.VoiceTimes, userID)
	t.persist()
}

// ToggleLock flips the command lock and returns the new value.
func (t *Tracker) ToggleLock() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Locked = !t.state.Locked
	t.persist()
	return t.state.Locked
}

func (t *Tracker) Locked() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Locked
}

// AddEvent appends to the event log. The log is append-only; there is no
// removal. The date is stored as entered.
func (t *Tracker) AddEvent(title, description, date, creatorID string, now time.Time) store.Event {
	ev := store.Event{
		Title:       title,
		Description: description,
		Date:        date,
		CreatorID:   creatorID,
		CreatedAt:   now.UnixMilli(),
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Events = append(t.state.Events, ev)
	t.persist()
	return ev
}

// Events returns a copy of the event log, oldest first.
func (t *Tracker) Events() []store.Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]store.Event, len(t.state.Events))
	copy(out, t.state.Events)
	return out
}
