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

	"github.com/david/grant-agent/internal/api"
	"github.com/david/grant-agent/internal/app"
	"github.com/david/grant-agent/internal/auth"
	"github.com/david/grant-agent/internal/config"
)

func main() {
	opts, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if opts == nil {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, opts)
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}
	defer a.Close()

	authenticator, err := auth.NewAuthenticator(opts.AdminSecret, opts.JWTSecret)
	if err != nil {
		log.Fatalf("Auth setup failed: %v", err)
	}

	srv := api.NewServer(a, authenticator)
	go func() {
		log.Printf("Server starting on port %s...", opts.Port)
		if err := srv.Start(opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Echo.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
