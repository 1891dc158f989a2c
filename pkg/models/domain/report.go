package domain

import "time"

// Period is the resolved reporting window. From and To are inclusive dates
// and From is never after To. A Period is immutable once resolved.
type Period struct {
	From time.Time
	To   time.Time
}

// Days returns the number of calendar days the period covers.
func (p Period) Days() int {
	return int(p.To.Sub(p.From).Hours()/24) + 1
}

// BuildStat describes one build released inside the reporting window, with
// its story and bug id lists already resolved to readable titles. Builds are
// ordered newest first.
type BuildStat struct {
	Name    string
	Date    time.Time
	Stories string
	Bugs    string
}

// GroupStat holds the per-user statistics of one roster group. Groups and
// the users inside them keep roster order, which is also render order.
type GroupStat struct {
	Name  string
	Users []UserStat
}

// Report is the complete aggregation result handed to the renderer. It is
// built once per invocation and never mutated afterwards.
type Report struct {
	Title  string
	Period Period
	Builds []BuildStat
	Groups []GroupStat
}
