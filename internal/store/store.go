// Package store implements the durable local cache of the last-synced
// profile and course data, exposed as observable read models. The store is
// local-only: nothing here touches the network. The sync orchestrator is
// the sole writer; everything else observes.
package store

import (
	"context"
	"database/sql"
	"reflect"

	"github.com/NatsuCamellia/cool-tracker/internal/dbx"
	"github.com/NatsuCamellia/cool-tracker/internal/logging"
	"github.com/NatsuCamellia/cool-tracker/internal/models"
	"github.com/NatsuCamellia/cool-tracker/internal/repositories/courses"
	"github.com/NatsuCamellia/cool-tracker/internal/repositories/profiles"
	"github.com/NatsuCamellia/cool-tracker/internal/watch"
)

// Store is the local data store. Reads replay the latest value to new
// observers and emit again only when the underlying rows change. Data
// survives process restarts; New republishes whatever the database holds.
type Store struct {
	db      *sql.DB
	logger  logging.Logger
	profile *watch.Value[*models.Profile]
	courses *watch.Value[[]models.CourseWithAssignments]
}

// New wraps an opened cache database (see Open) and loads the current rows
// into the observable cells.
func New(ctx context.Context, db *sql.DB, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Store{
		db:      db,
		logger:  logger,
		profile: watch.NewValue[*models.Profile](),
		courses: watch.NewValue[[]models.CourseWithAssignments](),
	}

	p, err := profiles.NewSQLiteRepository(db).Get(ctx)
	if err != nil {
		return nil, err
	}
	cwa, err := courses.NewSQLiteRepository(db).ListWithAssignments(ctx)
	if err != nil {
		return nil, err
	}
	s.profile.Set(p)
	s.courses.Set(cwa)
	return s, nil
}

// Profile streams the cached profile: current value first, then every
// change. A nil profile means the cache is empty.
func (s *Store) Profile() (<-chan *models.Profile, func()) {
	return s.profile.Subscribe()
}

// CoursesWithAssignments streams the joined cache, assignments pre-sorted
// by due time ascending.
func (s *Store) CoursesWithAssignments() (<-chan []models.CourseWithAssignments, func()) {
	return s.courses.Subscribe()
}

// GetProfile returns the current cached profile without subscribing.
func (s *Store) GetProfile() *models.Profile {
	p, _ := s.profile.Get()
	return p
}

// GetCoursesWithAssignments returns the current cached join without
// subscribing.
func (s *Store) GetCoursesWithAssignments() []models.CourseWithAssignments {
	cwa, _ := s.courses.Get()
	return cwa
}

// SaveProfile upserts the profile and notifies observers on change.
func (s *Store) SaveProfile(ctx context.Context, p *models.Profile) error {
	if err := profiles.NewSQLiteRepository(s.db).Save(ctx, p); err != nil {
		return err
	}
	s.publishProfile(p)
	return nil
}

// SaveCoursesWithAssignments upserts each course and cascade-replaces its
// assignments in one transaction, then notifies observers on change.
func (s *Store) SaveCoursesWithAssignments(ctx context.Context, list []models.CourseWithAssignments) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := courses.NewSQLiteRepository(tx)
		for _, cwa := range list {
			if err := repo.UpsertCourse(ctx, cwa.Course); err != nil {
				return err
			}
			if err := repo.ReplaceAssignments(ctx, cwa.Course.ID, cwa.Assignments); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Re-read so observers see assignments in due-time order regardless of
	// the order the fetch produced.
	cwa, err := courses.NewSQLiteRepository(s.db).ListWithAssignments(ctx)
	if err != nil {
		return err
	}
	s.publishCourses(cwa)
	return nil
}

// ClearAll deletes all profile and course/assignment rows. Used exclusively
// on logout.
func (s *Store) ClearAll(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := profiles.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return err
		}
		return courses.NewSQLiteRepository(tx).Clear(ctx)
	})
	if err != nil {
		return err
	}
	s.publishProfile(nil)
	s.publishCourses([]models.CourseWithAssignments{})
	return nil
}

func (s *Store) publishProfile(p *models.Profile) {
	if cur, ok := s.profile.Get(); ok && reflect.DeepEqual(cur, p) {
		return
	}
	s.profile.Set(p)
}

func (s *Store) publishCourses(cwa []models.CourseWithAssignments) {
	if cur, ok := s.courses.Get(); ok && reflect.DeepEqual(cur, cwa) {
		return
	}
	s.courses.Set(cwa)
}
