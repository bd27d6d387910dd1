package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/noteport/internal/blobstore"
	"github.com/BuzzLyutic/noteport/internal/config"
	"github.com/BuzzLyutic/noteport/internal/handler"
	"github.com/BuzzLyutic/noteport/internal/service"
	"github.com/BuzzLyutic/noteport/internal/store"
)

func main() {
	// Подключаем логгер
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Загрузка конфигурации
	cfg := config.Load()

	ctx := context.Background()

	// Хранилище записей: json-файл или Postgres, по конфигурации
	st, err := store.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open the record store.", zap.Error(err))
	}
	if err := st.Ping(ctx); err != nil { // Пытаемся пингануть хранилище
		logger.Fatal("Failed to ping the record store.", zap.Error(err))
	}
	logger.Info("Record store is ready", zap.String("backend", cfg.StoreBackend))

	// Контент-адресуемое хранилище вложений
	blobs, err := blobstore.New(filepath.Join(cfg.DataDir, "attachments"), logger)
	if err != nil {
		logger.Fatal("Failed to open the attachment store.", zap.Error(err))
	}

	importService := service.NewImportService(st, blobs, logger)
	importHandler := handler.NewImportHandler(importService, logger)

	r := chi.NewRouter() // Создаем роутер
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/import/preview", importHandler.Preview)
		r.Post("/import/apply", importHandler.Apply)
		r.Get("/export", importHandler.Export)
		r.Post("/attachments", importHandler.StoreAttachment)
	})

	srv := http.Server{ // Создаем сервер
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // импорт большого экспорта может идти долго
	}

	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started at ", zap.String("port", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed: ", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Shutdown error: ", zap.Error(err))
	}
	logger.Info("Server stopped succsessfully!")
}
