package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/NatsuCamellia/cool-tracker/internal/common"
	"github.com/NatsuCamellia/cool-tracker/internal/keystore"
	"github.com/NatsuCamellia/cool-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubValidator maps every credential to a fixed outcome.
type stubValidator struct {
	mu          sync.Mutex
	validateErr error
	pingErr     error
	calls       int
}

func (v *stubValidator) ValidateCredential(ctx context.Context, credential string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	return v.validateErr
}

func (v *stubValidator) Ping(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pingErr
}

func (v *stubValidator) setValidateErr(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.validateErr = err
}

func (v *stubValidator) validateCalls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

// memCreds is an in-memory metadata.Repository. When gate is non-nil, Get
// blocks until the gate closes, letting tests hold the startup recovery
// open at a known point.
type memCreds struct {
	mu   sync.Mutex
	m    map[string][]byte
	gate chan struct{}
}

func newMemCreds() *memCreds {
	return &memCreds{m: make(map[string][]byte)}
}

func (c *memCreds) Get(ctx context.Context, key string) ([]byte, error) {
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (c *memCreds) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

func (c *memCreds) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

func (c *memCreds) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = make(map[string][]byte)
	return nil
}

func (c *memCreds) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

func waitForStatus(t *testing.T, ch <-chan models.LoginState, want models.LoginStatus) models.LoginState {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-ch:
			if s.Status == want {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out waiting for status %s", want)
		}
	}
}

func TestStartup_NoStoredCredential(t *testing.T) {
	creds := newMemCreds()
	creds.gate = make(chan struct{})
	m := NewManager(&stubValidator{}, keystore.NewMemoryKeystore(), creds, nil, 0)
	defer m.Close()

	ch, cancel := m.Subscribe()
	defer cancel()

	// While recovery is held open the replayed state is still loading.
	s := <-ch
	assert.Equal(t, models.StatusLoading, s.Status)

	close(creds.gate)
	s = waitForStatus(t, ch, models.StatusLoggedOut)
	assert.Empty(t, s.Credential)
}

func TestLogin_SuccessPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	creds := newMemCreds()
	ks := keystore.NewMemoryKeystore()

	m := NewManager(&stubValidator{}, ks, creds, nil, 0)
	got := m.Login(ctx, "session-cookie")
	assert.Equal(t, models.LoggedIn("session-cookie"), got)
	assert.Equal(t, models.LoggedIn("session-cookie"), m.State())
	m.Close()

	// Ciphertext and IV were written, never the plaintext.
	assert.Equal(t, 2, creds.len())
	for k, v := range creds.m {
		assert.NotContains(t, string(v), "session-cookie", "metadata[%s] leaks the credential", k)
	}

	// A fresh manager over the same storage recovers the session.
	m2 := NewManager(&stubValidator{}, ks, creds, nil, 0)
	defer m2.Close()
	ch, cancel := m2.Subscribe()
	defer cancel()
	s := waitForStatus(t, ch, models.StatusLoggedIn)
	assert.Equal(t, "session-cookie", s.Credential)
}

func TestLogin_RejectedPersistsNothing(t *testing.T) {
	creds := newMemCreds()
	m := NewManager(&stubValidator{validateErr: common.ErrUnauthorized}, keystore.NewMemoryKeystore(), creds, nil, 0)
	defer m.Close()

	got := m.Login(context.Background(), "expired-cookie")
	assert.Equal(t, models.LoggedOut(), got)
	assert.Zero(t, creds.len())
}

func TestLogin_UnreachablePersistsNothing(t *testing.T) {
	creds := newMemCreds()
	m := NewManager(&stubValidator{validateErr: common.ErrUnavailable}, keystore.NewMemoryKeystore(), creds, nil, 0)
	defer m.Close()

	got := m.Login(context.Background(), "maybe-valid")
	assert.Equal(t, models.Disconnected("maybe-valid"), got)
	assert.Zero(t, creds.len())
}

func TestLogout_Unconditional(t *testing.T) {
	ctx := context.Background()
	creds := newMemCreds()
	v := &stubValidator{}
	m := NewManager(v, keystore.NewMemoryKeystore(), creds, nil, 0)
	defer m.Close()

	m.Login(ctx, "session-cookie")
	require.Equal(t, 2, creds.len())

	// Logout works even while the service is unreachable.
	v.setValidateErr(common.ErrUnavailable)
	m.SetOnline(ctx, false)
	require.Equal(t, models.StatusDisconnected, m.State().Status)

	m.Logout(ctx)
	assert.Equal(t, models.LoggedOut(), m.State())
	assert.Zero(t, creds.len())
}

func TestSetOnline_Transitions(t *testing.T) {
	ctx := context.Background()
	v := &stubValidator{}
	m := NewManager(v, keystore.NewMemoryKeystore(), newMemCreds(), nil, 0)
	defer m.Close()

	m.Login(ctx, "session-cookie")

	m.SetOnline(ctx, false)
	assert.Equal(t, models.Disconnected("session-cookie"), m.State())

	// Going offline again changes nothing.
	m.SetOnline(ctx, false)
	assert.Equal(t, models.Disconnected("session-cookie"), m.State())

	m.SetOnline(ctx, true)
	assert.Equal(t, models.LoggedIn("session-cookie"), m.State())
}

func TestRefreshLoginState(t *testing.T) {
	ctx := context.Background()
	v := &stubValidator{}
	m := NewManager(v, keystore.NewMemoryKeystore(), newMemCreds(), nil, 0)
	defer m.Close()

	// No credential held: refresh settles on logged out without a network call.
	before := v.validateCalls()
	assert.Equal(t, models.LoggedOut(), m.RefreshLoginState(ctx))
	assert.Equal(t, before, v.validateCalls())

	m.Login(ctx, "session-cookie")

	// Server starts rejecting the cookie: refresh demotes to logged out.
	v.setValidateErr(common.ErrUnauthorized)
	assert.Equal(t, models.LoggedOut(), m.RefreshLoginState(ctx))
}

func TestRestore_CorruptedBlob(t *testing.T) {
	ctx := context.Background()
	creds := newMemCreds()
	require.NoError(t, creds.Set(ctx, "credential_ciphertext", []byte("not-a-ciphertext")))
	require.NoError(t, creds.Set(ctx, "credential_iv", []byte("not-an-iv")))

	v := &stubValidator{}
	m := NewManager(v, keystore.NewMemoryKeystore(), creds, nil, 0)
	defer m.Close()

	ch, cancel := m.Subscribe()
	defer cancel()
	waitForStatus(t, ch, models.StatusLoggedOut)
	assert.Zero(t, v.validateCalls())
}

func TestExplicitLoginWinsOverRestore(t *testing.T) {
	ctx := context.Background()
	creds := newMemCreds()
	creds.gate = make(chan struct{})

	m := NewManager(&stubValidator{}, keystore.NewMemoryKeystore(), creds, nil, 0)

	// Login lands while the startup recovery is still reading storage.
	got := m.Login(ctx, "fresh-cookie")
	require.Equal(t, models.StatusLoggedIn, got.Status)

	close(creds.gate)
	m.Close() // waits for the recovery goroutine to finish

	// Recovery found a credential written by Login; either way it must not
	// clobber the explicit login.
	assert.Equal(t, models.LoggedIn("fresh-cookie"), m.State())
}
