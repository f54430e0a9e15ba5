package models

import "time"

// Assignment is one course assignment with a known due time. Assignments
// without a due time upstream are dropped during mapping and never reach
// this type, so DueTime is always set.
type Assignment struct {
	ID             int
	CourseID       int
	Name           string
	DueTime        time.Time
	CreatedTime    time.Time
	PointsPossible float64
	Submitted      bool
	HTMLURL        string
}

// Remaining returns the time left until the due time, or zero when the
// assignment is already due.
func (a Assignment) Remaining(now time.Time) time.Duration {
	d := a.DueTime.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
