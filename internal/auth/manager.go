// Package auth owns the session state machine. The manager is the only
// component that mutates the login state; everyone else observes it through
// a replayed stream. States: loading (initial), logged out, logged in, and
// disconnected, the last meaning a credential exists but could not be
// validated because the service was unreachable, which must never be
// confused with the credential being rejected.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/NatsuCamellia/cool-tracker/internal/common"
	"github.com/NatsuCamellia/cool-tracker/internal/keystore"
	"github.com/NatsuCamellia/cool-tracker/internal/logging"
	"github.com/NatsuCamellia/cool-tracker/internal/models"
	"github.com/NatsuCamellia/cool-tracker/internal/repositories/metadata"
	"github.com/NatsuCamellia/cool-tracker/internal/watch"
)

// Validator checks a credential against the remote service.
// remote.Client satisfies it.
type Validator interface {
	ValidateCredential(ctx context.Context, credential string) error
	Ping(ctx context.Context) error
}

// Metadata keys for the persisted credential.
const (
	keyCredentialCiphertext = "credential_ciphertext"
	keyCredentialIV         = "credential_iv"
)

const probeTimeout = 5 * time.Second

// Manager is the session manager. Construction starts the recovery of a
// previously stored credential in the background; Close releases the
// background tasks. Safe for concurrent use.
type Manager struct {
	validator Validator
	keystore  keystore.Keystore
	creds     metadata.Repository
	logger    logging.Logger

	state *watch.Value[models.LoginState]
	mu    sync.Mutex // serializes state transitions

	cancel context.CancelFunc
	done   sync.WaitGroup
}

// NewManager builds a Manager and kicks off credential recovery. When
// checkInterval is positive, a background prober polls LMS reachability and
// feeds the connectivity transitions; pass 0 when the host delivers its own
// signals via SetOnline.
func NewManager(validator Validator, ks keystore.Keystore, creds metadata.Repository, logger logging.Logger, checkInterval time.Duration) *Manager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	m := &Manager{
		validator: validator,
		keystore:  ks,
		creds:     creds,
		logger:    logger,
		state:     watch.NewValue[models.LoginState](),
	}
	m.state.Set(models.Loading())

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.done.Add(1)
	go func() {
		defer m.done.Done()
		m.restore(ctx)
	}()

	if checkInterval > 0 {
		m.done.Add(1)
		go func() {
			defer m.done.Done()
			m.watchConnectivity(ctx, checkInterval)
		}()
	}
	return m
}

// Close stops the background tasks. The current state remains readable.
func (m *Manager) Close() {
	m.cancel()
	m.done.Wait()
}

// State returns the current login state.
func (m *Manager) State() models.LoginState {
	s, _ := m.state.Get()
	return s
}

// Subscribe returns a stream that yields the current state immediately and
// every transition after it, in order. Call cancel when done.
func (m *Manager) Subscribe() (<-chan models.LoginState, func()) {
	return m.state.Subscribe()
}

// Login validates the credential obtained from the interactive login
// surface. On success the credential is persisted encrypted and the state
// becomes logged in; a rejection leads to logged out, an indeterminate
// failure to disconnected. Nothing is persisted on failure.
func (m *Manager) Login(ctx context.Context, credential string) models.LoginState {
	next := m.validate(ctx, credential)
	if next.Status == models.StatusLoggedIn {
		if err := m.storeCredential(ctx, credential); err != nil {
			m.logger.Error(ctx, "failed to persist credential", "error", err.Error())
		}
	}
	m.transition(ctx, next)
	return next
}

// Logout flips the state before any purge I/O: the user's intent to clear
// the session is not second-guessed by a failed validation or a slow disk.
func (m *Manager) Logout(ctx context.Context) {
	m.transition(ctx, models.LoggedOut())
	if err := m.creds.Delete(ctx, keyCredentialCiphertext); err != nil {
		m.logger.Error(ctx, "failed to purge credential ciphertext", "error", err.Error())
	}
	if err := m.creds.Delete(ctx, keyCredentialIV); err != nil {
		m.logger.Error(ctx, "failed to purge credential iv", "error", err.Error())
	}
}

// RefreshLoginState re-runs validation against whatever credential is
// currently held; no credential means an immediate logged out. Used by
// pull-to-refresh.
func (m *Manager) RefreshLoginState(ctx context.Context) models.LoginState {
	cur := m.State()
	if cur.Credential == "" {
		next := models.LoggedOut()
		m.transition(ctx, next)
		return next
	}
	next := m.validate(ctx, cur.Credential)
	m.transition(ctx, next)
	return next
}

// SetOnline feeds a network-availability signal into the state machine.
// Regaining connectivity while disconnected re-validates the held
// credential; losing it while logged in parks the session in disconnected
// (the credential is unconfirmed while offline, not discarded).
func (m *Manager) SetOnline(ctx context.Context, online bool) {
	cur := m.State()
	switch {
	case online && cur.Status == models.StatusDisconnected && cur.Credential != "":
		m.transition(ctx, m.validate(ctx, cur.Credential))
	case !online && cur.Status == models.StatusLoggedIn:
		m.transition(ctx, models.Disconnected(cur.Credential))
	}
}

// restore recovers a previously stored credential and validates it. Any
// failure to recover (nothing stored, or the blob no longer decrypts)
// resolves to logged out, indistinguishable from a first run. The result
// only lands while the state is still loading, so an explicit Login or
// Logout racing the startup recovery always wins.
func (m *Manager) restore(ctx context.Context) {
	next := models.LoggedOut()
	credential, err := m.loadCredential(ctx)
	switch {
	case err != nil:
		m.logger.Debug(ctx, "stored credential unusable", "error", err.Error())
	case credential == "":
		m.logger.Debug(ctx, "no stored credential found")
	default:
		next = m.validate(ctx, credential)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, _ := m.state.Get(); cur.Status != models.StatusLoading {
		return
	}
	m.state.Set(next)
	m.logger.Debug(ctx, "login state changed", "from", models.StatusLoading.String(), "to", next.Status.String())
}

// validate maps a validation outcome onto the login state table:
// success → logged in, rejection → logged out, anything else → disconnected.
func (m *Manager) validate(ctx context.Context, credential string) models.LoginState {
	err := m.validator.ValidateCredential(ctx, credential)
	switch {
	case err == nil:
		return models.LoggedIn(credential)
	case errors.Is(err, common.ErrUnauthorized):
		return models.LoggedOut()
	default:
		m.logger.Debug(ctx, "credential validation indeterminate", "error", err.Error())
		return models.Disconnected(credential)
	}
}

func (m *Manager) transition(ctx context.Context, next models.LoginState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, _ := m.state.Get()
	if cur == next {
		return
	}
	m.state.Set(next)
	m.logger.Debug(ctx, "login state changed", "from", cur.Status.String(), "to", next.Status.String())
}

func (m *Manager) storeCredential(ctx context.Context, credential string) error {
	ciphertext, iv, err := m.keystore.Encrypt(credential)
	if err != nil {
		return fmt.Errorf("encrypt credential: %w", err)
	}
	if err := m.creds.Set(ctx, keyCredentialCiphertext, []byte(ciphertext)); err != nil {
		return err
	}
	return m.creds.Set(ctx, keyCredentialIV, []byte(iv))
}

// loadCredential reads and decrypts the stored credential. An empty string
// with a nil error means nothing is stored.
func (m *Manager) loadCredential(ctx context.Context) (string, error) {
	ciphertext, err := m.creds.Get(ctx, keyCredentialCiphertext)
	if err != nil {
		return "", err
	}
	if ciphertext == nil {
		return "", nil
	}
	iv, err := m.creds.Get(ctx, keyCredentialIV)
	if err != nil {
		return "", err
	}
	if iv == nil {
		return "", nil
	}
	credential, err := m.keystore.Decrypt(string(ciphertext), string(iv))
	if err != nil {
		return "", fmt.Errorf("decrypt credential: %w", err)
	}
	return credential, nil
}

// watchConnectivity polls LMS reachability and feeds SetOnline, standing in
// for a platform connectivity callback.
func (m *Manager) watchConnectivity(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
			err := m.validator.Ping(probeCtx)
			cancel()
			m.SetOnline(ctx, err == nil)
		case <-ctx.Done():
			return
		}
	}
}
