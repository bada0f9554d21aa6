package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/possync/edgehub/internal/cloud"
	"github.com/possync/edgehub/internal/config"
	"github.com/possync/edgehub/internal/httpapi"
	"github.com/possync/edgehub/internal/pull"
	"github.com/possync/edgehub/internal/push"
	"github.com/possync/edgehub/internal/realtime"
	"github.com/possync/edgehub/internal/session"
	"github.com/possync/edgehub/internal/store"
	"github.com/spf13/cobra"
)

// NewServeCommand runs the hub until an interrupt/TERM signal arrives,
// then shuts down in the order: stop engines, close the realtime hub,
// checkpoint the WAL, shut down the HTTP listener.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the hub's HTTP surface and sync engines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("hub: failed to load configuration: %w", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("hub: failed to open store: %w", err)
	}
	defer st.Close()

	cloudClient := cloud.New(config.Load)
	sessions := session.New(st.DB, cfg.TenantID)
	hub := realtime.NewHub()
	go hub.Run()

	pushEngine := push.New(st.DB, cloudClient, func() time.Duration { return cfg.PushInterval() }, func() int { return cfg.PushBatchSize })
	pullEngine := pull.New(st.DB, cloudClient, func() time.Duration { return cfg.PullInterval() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pushEngine.Start(ctx)
	pullEngine.Start(ctx)

	server := httpapi.New(st, cloudClient, sessions, hub, pushEngine, pullEngine, config.Load)
	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: server,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("🚀 hub listening on :%s (db=%s)", cfg.HTTPPort, cfg.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("hub: http server failed: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("⚠️ received signal %v, shutting down...", sig)

	cancel()
	pushEngine.Stop()
	pullEngine.Stop()
	hub.Stop()

	if err := st.Checkpoint(); err != nil {
		log.Printf("⚠️ wal checkpoint failed: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ http server shutdown error: %v", err)
	}

	log.Println("✅ hub stopped")
	return nil
}
