package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"humancanvas/internal/dbmysql"
	"humancanvas/internal/di"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found, using system environment variables")
	}

	app, err := di.InitializeApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize application: %v\n", err)
		os.Exit(1)
	}
	logger := app.Logger

	if err := app.DB.AutoMigrate(&dbmysql.Notification{}); err != nil {
		logger.Fatal("failed to migrate database", "err", err)
	}
	logger.Info("database migration completed")

	addr := fmt.Sprintf("%s:%s", app.Config.Server.Host, app.Config.Server.Port)
	// No WriteTimeout: the SSE stream endpoint holds its response open
	// for the lifetime of the digest session.
	server := &http.Server{
		Addr:        addr,
		Handler:     app.Handler.Router(),
		ReadTimeout: time.Duration(app.Config.Server.ReadTimeout) * time.Second,
	}

	go func() {
		logger.Info("notify service listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "err", err)
	}
	app.Service.Shutdown()
	logger.Info("server stopped")
}
