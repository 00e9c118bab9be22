package tracker

import (
	"fmt"
	"sort"
)

// Entry is one leaderboard row.
type Entry struct {
	UserID string
	Value  float64
}

// MyStats returns the user's lifetime message count and formatted voice time.
// Users with no history read as zero.
func (t *Tracker) MyStats(userID string) (int64, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.MessageCounts[userID], FormatVoiceDuration(t.state.VoiceDurations[userID])
}

// FormatVoiceDuration renders cumulative seconds as e.g. "3h 25m 11s".
func FormatVoiceDuration(seconds float64) string {
	s := int64(seconds)
	return fmt.Sprintf("%dh %dm %ds", s/3600, (s%3600)/60, s%60)
}

// TopN returns the n highest entries of a counter map, value descending.
// Go maps have no insertion order, so ties break by ascending user ID: keys
// are pre-sorted, then stably re-sorted by value. n <= 0 returns everything.
func TopN(counts map[string]float64, n int) []Entry {
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	sort.SliceStable(ids, func(i, j int) bool { return counts[ids[i]] > counts[ids[j]] })

	if n > 0 && len(ids) > n {
		ids = ids[:n]
	}
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = Entry{UserID: id, Value: counts[id]}
	}
	return out
}

// TopMessages returns the n users with the most messages sent.
func (t *Tracker) TopMessages(n int) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := make(map[string]float64, len(t.state.MessageCounts))
	for id, c := range t.state.MessageCounts {
		m[id] = float64(c)
	}
	return TopN(m, n)
}

// TopVoice returns the n users with the most cumulative voice seconds.
func (t *Tracker) TopVoice(n int) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := make(map[string]float64, len(t.state.VoiceDurations))
	for id, d := range t.state.VoiceDurations {
		m[id] = d
	}
	return TopN(m, n)
}
