package models

// CourseWithAssignments is the read-side join the cache and UI traffic in:
// a course plus its assignments ordered by due time ascending. Course and
// Assignment are not independently exposed to callers.
type CourseWithAssignments struct {
	Course      Course
	Assignments []Assignment
}
