// Package courses persists the course/assignment cache. Assignment rows are
// keyed by assignment id with a foreign key to their course that cascades
// deletes, so dropping a course takes its assignments with it.
package courses

import (
	"context"

	"github.com/NatsuCamellia/cool-tracker/internal/models"
)

type Repository interface {
	// UpsertCourse upserts one course row by id.
	UpsertCourse(ctx context.Context, c models.Course) error

	// ReplaceAssignments swaps out a course's assignment rows wholesale.
	ReplaceAssignments(ctx context.Context, courseID int, assignments []models.Assignment) error

	// ListWithAssignments returns every cached course joined with its
	// assignments, assignments sorted by due time ascending.
	ListWithAssignments(ctx context.Context) ([]models.CourseWithAssignments, error)

	// Clear removes all course rows; assignments go with them via the
	// cascade.
	Clear(ctx context.Context) error
}
