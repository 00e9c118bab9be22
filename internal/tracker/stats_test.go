package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatVoiceDuration(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"zero", 0, "0h 0m 0s"},
		{"just seconds", 59, "0h 0m 59s"},
		{"one of each", 3661, "1h 1m 1s"},
		{"fraction floors", 12345.9, "3h 25m 45s"},
		{"many hours", 100 * 3600, "100h 0m 0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatVoiceDuration(tt.seconds))
		})
	}
}

func TestTopNOrderAndTieBreak(t *testing.T) {
	counts := map[string]float64{"a": 5, "b": 9, "c": 9, "d": 1}

	top := TopN(counts, 2)
	require.Len(t, top, 2)
	// tie between b and c breaks by ascending user ID
	assert.Equal(t, "b", top[0].UserID)
	assert.Equal(t, "c", top[1].UserID)

	full := TopN(counts, 0)
	require.Len(t, full, 4)
	assert.Equal(t, []string{"b", "c", "a", "d"}, []string{
		full[0].UserID, full[1].UserID, full[2].UserID, full[3].UserID,
	})
}

func TestTopNTruncates(t *testing.T) {
	counts := map[string]float64{"a": 1}
	assert.Len(t, TopN(counts, 5), 1)
	assert.Empty(t, TopN(map[string]float64{}, 5))
}

func TestTopMessagesAndTopVoice(t *testing.T) {
	trk, _ := newTestTracker()

	for i := 0; i < 4; i++ {
		trk.RecordMessage("a", nil)
	}
	trk.RecordMessage("b", nil)

	top := trk.TopMessages(5)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].UserID)
	assert.Equal(t, float64(4), top[0].Value)

	assert.Empty(t, trk.TopVoice(5), "no closed voice sessions yet")
}

func TestMilestoneFor(t *testing.T) {
	tests := []struct {
		count int64
		role  string
		hit   bool
	}{
		{99, "", false},
		{100, "Rookie Pilot", true},
		{101, "", false},
		{250, "Wingman", true},
		{500, "Veteran Pilot", true},
		{999, "", false},
		{1000, "Fleet Commander", true},
		{1001, "", false},
	}
	for _, tt := range tests {
		m, ok := MilestoneFor(tt.count)
		assert.Equal(t, tt.hit, ok, "count %d", tt.count)
		if tt.hit {
			assert.Equal(t, tt.role, m.Role)
			assert.Contains(t, m.Announcement("x"), tt.role)
		}
	}
}
