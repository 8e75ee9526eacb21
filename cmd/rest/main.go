package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"arthik-chat-be/internal/bootstrap"
	"arthik-chat-be/internal/config"
	"arthik-chat-be/internal/server"
	"arthik-chat-be/internal/tracer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to bootstrap: %v", err)
	}
	defer container.Close()

	// 3. Tracing
	shutdownTracer := tracer.InitTracer(cfg.App.Version, container.Logger)
	defer shutdownTracer(context.Background())

	// 4. Start Background Services
	go container.WebSocketHub.Run(ctx)
	if err := container.ConsumerService.Consume(ctx); err != nil {
		container.Logger.Error("Main", "Failed to start consumer", map[string]interface{}{"error": err})
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	// 6. Wait for shutdown
	select {
	case err := <-errCh:
		if err != nil {
			container.Logger.Error("Main", "Server stopped", map[string]interface{}{"error": err})
		}
	case <-ctx.Done():
		container.Logger.Info("Main", "Shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			container.Logger.Error("Main", "Graceful shutdown failed", map[string]interface{}{"error": err})
		}
	}
}
