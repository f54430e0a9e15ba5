// Package cli wires the cool-tracker core into an interactive terminal
// client. It stands in for the hosting mobile app: it feeds credentials
// obtained from the LMS login flow into the session manager and renders
// what the local cache emits. Widgets, notifications, and the embedded
// login browser are out of scope; a cookie pasted at the prompt plays the
// role of the interactive login surface's callback.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/NatsuCamellia/cool-tracker/internal/auth"
	"github.com/NatsuCamellia/cool-tracker/internal/config"
	"github.com/NatsuCamellia/cool-tracker/internal/keystore"
	"github.com/NatsuCamellia/cool-tracker/internal/logging"
	"github.com/NatsuCamellia/cool-tracker/internal/remote"
	"github.com/NatsuCamellia/cool-tracker/internal/repositories/metadata"
	"github.com/NatsuCamellia/cool-tracker/internal/services"
	"github.com/NatsuCamellia/cool-tracker/internal/store"

	_ "modernc.org/sqlite"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	authManager *auth.Manager
	syncService *services.SyncService
	reader      *bufio.Reader
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	cache, err := store.New(ctx, db, logger)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	client := remote.NewClient(cfg.BaseURL, &http.Client{Timeout: cfg.HTTPTimeout}, logger)
	client.SetRequestRate(cfg.RequestsPerSecond, int(cfg.RequestsPerSecond)*2)
	client.SetFanOutLimit(cfg.FetchConcurrency)

	var ks keystore.Keystore
	if passphrase := os.Getenv(cfg.KeyPassphraseEnv); passphrase != "" {
		ks = keystore.NewFileKeystoreWithPassphrase(cfg.KeyPath, []byte(passphrase))
	} else {
		ks = keystore.NewFileKeystore(cfg.KeyPath)
	}

	authManager := auth.NewManager(client, ks, metadata.NewSQLiteRepository(db), logger, cfg.OnlineCheckInterval)
	syncService := services.NewSyncService(authManager, client, cache, logger)

	return &App{
		config:      cfg,
		logger:      logger,
		authManager: authManager,
		syncService: syncService,
		reader:      bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.syncService.Close()
	defer a.authManager.Close()
	a.repl(ctx)
}

// OnCredentialObtained is the callback contract exposed to the interactive
// login surface: it hands a completed cookie string to the session manager.
func (a *App) OnCredentialObtained(ctx context.Context, credential string) {
	state := a.authManager.Login(ctx, credential)
	fmt.Println("login:", state.Status)
}
