package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Neior4ik/PhoneBook/internal/platform/config"
	"github.com/Neior4ik/PhoneBook/internal/platform/database"
	"github.com/Neior4ik/PhoneBook/internal/platform/logger"

	httpAdapter "github.com/Neior4ik/PhoneBook/internal/phonebook_service/adapters/http"
	"github.com/Neior4ik/PhoneBook/internal/phonebook_service/app"
	"github.com/Neior4ik/PhoneBook/internal/phonebook_service/domain"
	fileStorage "github.com/Neior4ik/PhoneBook/internal/phonebook_service/storage/file"
	pgStorage "github.com/Neior4ik/PhoneBook/internal/phonebook_service/storage/postgres"
)

const (
	serviceName     = "phonebookd"
	shutdownTimeout = 15 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("Starting service...",
		"log_level", cfg.LogLevel,
		"storage_backend", cfg.StorageBackend,
		"http_port", cfg.HTTPPort,
	)

	// The backend is chosen once, at startup; the rest of the process only
	// ever sees the Storage contract.
	var storage domain.Storage
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN)
		if err != nil {
			appLogger.Error("Failed to initialize database connection pool", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()

		pg := pgStorage.NewContactStorage(dbPool, appLogger)
		if err := pg.InitSchema(mainCtx); err != nil {
			appLogger.Error("Failed to initialize database schema", "error", err)
			os.Exit(1)
		}
		storage = pg
		appLogger.Info("Using PostgreSQL storage backend")
	case config.BackendFile:
		storage = fileStorage.NewFileStorage(cfg.ContactsFilePath, appLogger)
		appLogger.Info("Using JSON file storage backend", "path", cfg.ContactsFilePath)
	}

	phoneBook := app.NewPhoneBook(storage, appLogger)
	handler := httpAdapter.NewContactHandler(phoneBook, appLogger)
	router := httpAdapter.NewRouter(handler, appLogger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed to serve", "error", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		stopSignal := make(chan os.Signal, 1)
		signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-stopSignal:
			appLogger.Info("Received termination signal", "signal", sig.String())
			mainCancel()
			return nil
		case <-groupCtx.Done():
			return nil
		}
	})

	g.Go(func() error {
		<-groupCtx.Done()
		appLogger.Info("Initiating graceful shutdown of HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("HTTP server shutdown error", "error", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Service group encountered an error", "error", err)
	}

	appLogger.Info("Service shutdown complete.")
}
