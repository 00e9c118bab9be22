package tracker

import "fmt"

// Milestone ties an exact lifetime message count to a role grant and the
// announcement that goes with it.
type Milestone struct {
	Count    int64
	Role     string
	announce string
}

// Announcement renders the milestone line for a username.
func (m Milestone) Announcement(username string) string {
	return fmt.Sprintf(m.announce, username)
}

// The table is fixed and ordered; a count matches at most one row, and the
// check is strict equality against the post-increment count. A count that is
// corrected past a threshold without ever equalling it never fires the role.
var milestones = []Milestone{
	{100, "Rookie Pilot", "%s is now a Rookie Pilot! Welcome aboard! 🚀"},
	{250, "Wingman", "%s is now a Wingman! Ready for the next mission? 🛡️"},
	{500, "Veteran Pilot", "%s is now a Veteran Pilot! Respect! ✨"},
	{1000, "Fleet Commander", "%s is now a Fleet Commander! Taking command! 👑"},
}

// MilestoneFor returns the milestone an exact count lands on, if any.
func MilestoneFor(count int64) (Milestone, bool) {
	for _, m := range milestones {
		if m.Count == count {
			return m, true
		}
	}
	return Milestone{}, false
}
