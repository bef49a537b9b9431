// Package server orchestrates all components: NATS client, DB, registry,
// dispatcher, adapter wiring, the RPC subscription and the HTTP surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/bulk-actions/internal/config"
	"github.com/morezero/bulk-actions/pkg/adapters"
	"github.com/morezero/bulk-actions/pkg/bootstrap"
	"github.com/morezero/bulk-actions/pkg/builtin"
	"github.com/morezero/bulk-actions/pkg/commsutil"
	"github.com/morezero/bulk-actions/pkg/db"
	"github.com/morezero/bulk-actions/pkg/dispatcher"
	"github.com/morezero/bulk-actions/pkg/events"
	"github.com/morezero/bulk-actions/pkg/hooks"
	"github.com/morezero/bulk-actions/pkg/registry"
	"github.com/morezero/bulk-actions/pkg/rpc"
)

const logPrefix = "server:server"

// RegisterFunc adds code-defined actions during startup, before activation.
type RegisterFunc func(w *adapters.Wiring) error

// Server is the bulk-actions orchestrator.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	pool       *pgxpool.Pool
	reg        *registry.Registry
	wiring     *adapters.Wiring
	host       *hooks.Hooks
	sub        *comms.Subscription
	httpServer *http.Server
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}
	SetupLogging(cfg.LogLevel)

	slog.Info(fmt.Sprintf("%s - Starting bulk-actions", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	s.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HealthCheckTimeout)
	defer shutdownCancel()
	s.Shutdown(shutdownCtx)
	return nil
}

// SetupLogging installs the default slog text handler at level.
func SetupLogging(level string) {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

// New connects to NATS and the database when configured, builds the registry,
// applies the action manifest and any register funcs, activates the wiring
// and subscribes the RPC router. The HTTP server is not started.
func New(ctx context.Context, cfg *config.Config, register ...RegisterFunc) (*Server, error) {
	s := &Server{cfg: cfg}

	// Step 1: Connect to NATS
	var publisher events.EventPublisher = &events.NoOpPublisher{}
	if cfg.HasComms() {
		nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
		}
		s.nc = nc
		publisher = events.NewCommsPublisher(nc, &events.CommsPublisherOpts{GlobalSubject: cfg.EventSubject})
		slog.Info(fmt.Sprintf("%s - Connected to NATS at %s", logPrefix, cfg.COMMSURL))
	} else {
		slog.Warn(fmt.Sprintf("%s - COMMS_URL empty; RPC and dispatch events disabled", logPrefix))
	}

	// Step 2: Connect to database
	catalog := builtin.Catalog{}
	if cfg.HasDatabase() {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
		}
		s.pool = pool

		if cfg.RunMigrations {
			migrations, err := db.LoadMigrations(cfg.MigrationPath)
			if err != nil {
				s.close()
				return nil, fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
			}
			if err := db.RunMigrations(ctx, pool, migrations); err != nil {
				s.close()
				return nil, fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
			}
		}
		catalog = builtin.NewCatalog(db.NewRepository(pool))
	}

	// Step 3: Registry, dispatcher, wiring
	s.reg = registry.NewRegistry()
	disp := dispatcher.NewDispatcher(dispatcher.NewDispatcherParams{
		Registry:  s.reg,
		Publisher: publisher,
		Options:   dispatcher.Options{LooseIdentifiers: cfg.LooseIdentifiers},
	})
	s.wiring = adapters.NewWiring(s.reg, disp)

	// Step 4: Manifest and code registrations
	if cfg.ManifestFile != "" || s.pool != nil {
		manifest, err := bootstrap.LoadManifest(cfg.ManifestFile)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("%s - failed to load manifest: %w", logPrefix, err)
		}
		if err := bootstrap.Apply(manifest, s.wiring, catalog); err != nil {
			s.close()
			return nil, fmt.Errorf("%s - failed to apply manifest: %w", logPrefix, err)
		}
	} else {
		slog.Info(fmt.Sprintf("%s - No database or manifest configured; built-in actions disabled", logPrefix))
	}
	for _, fn := range register {
		if err := fn(s.wiring); err != nil {
			s.close()
			return nil, fmt.Errorf("%s - registration failed: %w", logPrefix, err)
		}
	}

	// Step 5: Activate on the in-process host
	s.host = hooks.New()
	if err := s.wiring.Activate(s.host); err != nil {
		s.close()
		return nil, fmt.Errorf("%s - failed to activate wiring: %w", logPrefix, err)
	}

	// Step 6: RPC subscription
	if s.nc != nil {
		subject := cfg.Subject
		if subject == "" {
			subject = commsutil.SubjectBulkActions
		}
		sub, err := rpc.Subscribe(ctx, s.nc, subject, rpc.NewRouter(s.host), cfg.RequestTimeout)
		if err != nil {
			s.close()
			return nil, err
		}
		s.sub = sub
	}

	s.httpServer = &http.Server{Addr: cfg.HTTPAddr(), Handler: s.Handler()}
	return s, nil
}

// Start serves HTTP in the background.
func (s *Server) Start() {
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()
	slog.Info(fmt.Sprintf("%s - bulk-actions is ready", logPrefix))
}

// Shutdown stops HTTP, unsubscribes, drains NATS and closes the pool.
func (s *Server) Shutdown(ctx context.Context) {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			slog.Warn(fmt.Sprintf("%s - HTTP shutdown: %v", logPrefix, err))
		}
	}
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
	if s.nc != nil {
		_ = s.nc.Drain()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
}

func (s *Server) close() {
	if s.nc != nil {
		s.nc.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}
