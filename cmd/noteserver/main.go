// Command noteserver serves notes stored as JSON files over the HTTP API
// the editor talks to.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"notedit/pkg/config"
	"notedit/pkg/handlers"
	"notedit/pkg/middleware"
	"notedit/pkg/services"
	"notedit/pkg/storage"
)

const (
	shutdownTimeout        = 5 * time.Second
	limiterCleanupInterval = 10 * time.Minute
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var listenAddr, notesPath string

	cmd := &cobra.Command{
		Use:          "noteserver",
		Short:        "Serve notes over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.ListenAddr = listenAddr
			}
			if cmd.Flags().Changed("notes") {
				cfg.NotesPath = notesPath
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", config.DefaultListenAddr, "address to listen on")
	cmd.Flags().StringVar(&notesPath, "notes", "", "directory holding the note files")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Configuration loaded:")
	log.Printf("  Notes directory: %s", cfg.NotesPath)
	log.Printf("  Config file: %s", cfg.Path())

	store, err := storage.NewNoteStore(cfg.NotesPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Watch(); err != nil {
		log.Printf("File watching disabled: %v", err)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.StartCleanupWorker(ctx, limiterCleanupInterval)

	api := handlers.NewAPIHandlers(services.NewNoteService(store))

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(limiter.Limit)
	r.Mount("/api/notes", api.Routes())

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("Server gracefully stopped")
	return nil
}
