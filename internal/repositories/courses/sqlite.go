package courses

import (
	"context"
	"fmt"
	"time"

	"github.com/NatsuCamellia/cool-tracker/internal/dbx"
	"github.com/NatsuCamellia/cool-tracker/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
// Timestamps are stored as Unix milliseconds.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) UpsertCourse(ctx context.Context, c models.Course) error {
	query := `INSERT INTO courses (id, name, is_public, course_code)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				is_public = excluded.is_public,
				course_code = excluded.course_code
	`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.IsPublic, c.CourseCode)
	if err != nil {
		return fmt.Errorf("failed to upsert course %d: %w", c.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) ReplaceAssignments(ctx context.Context, courseID int, assignments []models.Assignment) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE course_id = ?`, courseID); err != nil {
		return fmt.Errorf("failed to delete assignments of course %d: %w", courseID, err)
	}

	query := `INSERT INTO assignments
			(id, course_id, name, due_time, created_time, points_possible, submitted, html_url)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET course_id = excluded.course_id,
				name = excluded.name,
				due_time = excluded.due_time,
				created_time = excluded.created_time,
				points_possible = excluded.points_possible,
				submitted = excluded.submitted,
				html_url = excluded.html_url
	`
	for _, a := range assignments {
		_, err := r.db.ExecContext(ctx, query,
			a.ID, courseID, a.Name, a.DueTime.UnixMilli(), a.CreatedTime.UnixMilli(),
			a.PointsPossible, a.Submitted, a.HTMLURL)
		if err != nil {
			return fmt.Errorf("failed to insert assignment %d: %w", a.ID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) ListWithAssignments(ctx context.Context) ([]models.CourseWithAssignments, error) {
	courseRows, err := r.db.QueryContext(ctx,
		`SELECT id, name, is_public, course_code FROM courses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer courseRows.Close()

	out := make([]models.CourseWithAssignments, 0)
	index := make(map[int]int)
	for courseRows.Next() {
		var c models.Course
		if err := courseRows.Scan(&c.ID, &c.Name, &c.IsPublic, &c.CourseCode); err != nil {
			return nil, fmt.Errorf("failed to scan course row: %w", err)
		}
		index[c.ID] = len(out)
		out = append(out, models.CourseWithAssignments{Course: c, Assignments: []models.Assignment{}})
	}
	if err := courseRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate course rows: %w", err)
	}

	assignmentRows, err := r.db.QueryContext(ctx,
		`SELECT id, course_id, name, due_time, created_time, points_possible, submitted, html_url
		FROM assignments ORDER BY due_time ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer assignmentRows.Close()

	for assignmentRows.Next() {
		var a models.Assignment
		var due, created int64
		if err := assignmentRows.Scan(&a.ID, &a.CourseID, &a.Name, &due, &created,
			&a.PointsPossible, &a.Submitted, &a.HTMLURL); err != nil {
			return nil, fmt.Errorf("failed to scan assignment row: %w", err)
		}
		a.DueTime = time.UnixMilli(due).UTC()
		a.CreatedTime = time.UnixMilli(created).UTC()
		if i, ok := index[a.CourseID]; ok {
			out[i].Assignments = append(out[i].Assignments, a)
		}
	}
	if err := assignmentRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignment rows: %w", err)
	}

	return out, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	// With foreign keys on, deleting courses cascades to assignments; the
	// explicit delete covers orphans written before the pragma was set.
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assignments`); err != nil {
		return fmt.Errorf("failed to clear assignments: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM courses`); err != nil {
		return fmt.Errorf("failed to clear courses: %w", err)
	}
	return nil
}
