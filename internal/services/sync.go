// Package services contains the application services of the cool-tracker
// core. SyncService is the only component that bridges the session manager,
// the remote data provider, and the local store: state changes drive
// write-through syncs, logout purges the cache, and the UI reads the cache
// through pass-throughs instead of touching the network.
package services

import (
	"context"
	"sync"

	"github.com/NatsuCamellia/cool-tracker/internal/logging"
	"github.com/NatsuCamellia/cool-tracker/internal/models"
	"github.com/NatsuCamellia/cool-tracker/internal/remote"
	"github.com/google/uuid"
)

// SessionManager is the slice of the session manager the sync service needs.
type SessionManager interface {
	Subscribe() (<-chan models.LoginState, func())
	RefreshLoginState(ctx context.Context) models.LoginState
}

// LocalStore is the cache surface the sync service writes through to.
// store.Store satisfies it.
type LocalStore interface {
	SaveProfile(ctx context.Context, p *models.Profile) error
	SaveCoursesWithAssignments(ctx context.Context, list []models.CourseWithAssignments) error
	ClearAll(ctx context.Context) error
	Profile() (<-chan *models.Profile, func())
	CoursesWithAssignments() (<-chan []models.CourseWithAssignments, func())
	GetProfile() *models.Profile
	GetCoursesWithAssignments() []models.CourseWithAssignments
}

// SyncService subscribes to the session state stream for its lifetime and
// owns every write into the local store. A mutex serializes each
// fetch-and-write sequence so a manual refresh racing the state-driven sync
// runs back-to-back instead of interleaving writes.
type SyncService struct {
	sessions SessionManager
	remote   remote.Provider
	cache    LocalStore
	logger   logging.Logger

	mu     sync.Mutex // serializes fetch-and-write sequences
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSyncService wires the service and starts its subscription loop.
// Call Close to stop it.
func NewSyncService(sessions SessionManager, provider remote.Provider, cache LocalStore, logger logging.Logger) *SyncService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &SyncService{
		sessions: sessions,
		remote:   provider,
		cache:    cache,
		logger:   logger,
		done:     make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	states, unsubscribe := sessions.Subscribe()
	go s.run(ctx, states, unsubscribe)
	return s
}

// Close stops the subscription loop and waits for it to exit.
func (s *SyncService) Close() {
	s.cancel()
	<-s.done
}

func (s *SyncService) run(ctx context.Context, states <-chan models.LoginState, unsubscribe func()) {
	defer close(s.done)
	defer unsubscribe()

	for {
		select {
		case state := <-states:
			s.handle(ctx, state)
		case <-ctx.Done():
			return
		}
	}
}

func (s *SyncService) handle(ctx context.Context, state models.LoginState) {
	switch state.Status {
	case models.StatusLoggedIn:
		s.syncAll(ctx, state.Credential)
	case models.StatusLoggedOut:
		if err := s.cache.ClearAll(ctx); err != nil {
			s.logger.Error(ctx, "failed to purge cache on logout", "error", err.Error())
		}
	default:
		// Loading and disconnected leave the cache as-is; stale data
		// keeps serving until the session resolves.
	}
}

// syncAll fetches the profile and the course join and writes through
// whatever succeeded. The two writes are independent: one failing does not
// block the other, and a failed fetch leaves the previous cached value in
// place.
func (s *SyncService) syncAll(ctx context.Context, credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.logger.With("sync_id", uuid.NewString())
	log.Debug(ctx, "sync started")

	if profile, err := s.remote.GetUserProfile(ctx, credential); err != nil {
		log.Warn(ctx, "profile fetch failed, keeping cached value", "error", err.Error())
	} else if err := s.cache.SaveProfile(ctx, profile); err != nil {
		log.Error(ctx, "profile write failed", "error", err.Error())
	}

	if list, err := s.remote.GetActiveCoursesWithAssignments(ctx, credential); err != nil {
		log.Warn(ctx, "course fetch failed, keeping cached value", "error", err.Error())
	} else if err := s.cache.SaveCoursesWithAssignments(ctx, list); err != nil {
		log.Error(ctx, "course write failed", "error", err.Error())
	} else {
		log.Debug(ctx, "sync finished", "courses", len(list))
	}
}

// Refresh is the user-initiated pull. It revalidates the session first and
// repeats the write-through sync only if validation still reports logged
// in. onDone always runs, whether the sync happened or not, so the UI can
// clear its loading indicator.
func (s *SyncService) Refresh(ctx context.Context, onDone func()) {
	if onDone != nil {
		defer onDone()
	}
	state := s.sessions.RefreshLoginState(ctx)
	if state.Status != models.StatusLoggedIn {
		return
	}
	s.syncAll(ctx, state.Credential)
}

// Profile is a pass-through read of the local store.
func (s *SyncService) Profile() (<-chan *models.Profile, func()) {
	return s.cache.Profile()
}

// CoursesWithAssignments is a pass-through read of the local store.
func (s *SyncService) CoursesWithAssignments() (<-chan []models.CourseWithAssignments, func()) {
	return s.cache.CoursesWithAssignments()
}

// GetProfile returns the current cached profile.
func (s *SyncService) GetProfile() *models.Profile {
	return s.cache.GetProfile()
}

// GetCoursesWithAssignments returns the current cached course join.
func (s *SyncService) GetCoursesWithAssignments() []models.CourseWithAssignments {
	return s.cache.GetCoursesWithAssignments()
}
