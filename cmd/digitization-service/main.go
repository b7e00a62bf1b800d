package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fra-atlas/platform/pkg/audit"
	"github.com/fra-atlas/platform/pkg/auth"
	"github.com/fra-atlas/platform/pkg/blobstore"
	"github.com/fra-atlas/platform/pkg/claims"
	"github.com/fra-atlas/platform/pkg/common/config"
	"github.com/fra-atlas/platform/pkg/common/database"
	"github.com/fra-atlas/platform/pkg/common/logger"
	"github.com/fra-atlas/platform/pkg/document"
	"github.com/fra-atlas/platform/pkg/notify"
	"github.com/fra-atlas/platform/pkg/ocr"
	"github.com/gorilla/mux"
)

func main() {
	logger.Init("digitization-service")
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer database.ClosePostgres()

	docRepo := document.NewRepository(db)
	if err := docRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate document tables")
	}
	claimRepo := claims.NewRepository(db)
	if err := claimRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate claim tables")
	}
	auditor := audit.NewRecorder(db)
	if err := auditor.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate audit tables")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var blobs blobstore.Store
	switch cfg.BlobBackend {
	case "gcs":
		gcs, err := blobstore.NewGCSStore(ctx, cfg.GCSBucket)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to open gcs bucket")
		}
		blobs = gcs
	default:
		pg := blobstore.NewPostgresStore(db)
		if err := pg.AutoMigrate(); err != nil {
			logger.Log.WithError(err).Fatal("failed to migrate blob tables")
		}
		blobs = pg
	}

	var publisher notify.Publisher = notify.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := notify.NewKafkaPublisher(cfg.KafkaEventTopic)
		defer kp.Close()
		publisher = kp
	}

	var cloudEngine ocr.Engine
	if cfg.VertexProjectID != "" {
		vertex, err := ocr.NewVertexEngine(ctx, cfg.VertexProjectID, cfg.VertexRegion, cfg.VertexModel)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to initialize vertex engine")
		}
		defer vertex.Close()
		cloudEngine = vertex
	} else {
		logger.Log.Warn("no vertex project configured, running with local engine only")
	}
	localEngine := ocr.NewTesseractEngine(cfg.TesseractPath, cfg.TesseractLanguages, cfg.OCRTimeout)

	orchestrator := ocr.NewOrchestrator(docRepo, blobs, cloudEngine, localEngine, publisher)
	dispatcher := ocr.NewDispatcher(orchestrator, cfg.OCRWorkers, cfg.OCRQueueSize, database.GetRedis(), cfg.OCRLockTTL)
	dispatcher.Start()

	docValidator := document.NewValidator(cfg.MaxUploadBytes)
	docService := document.NewService(docRepo, blobs, docValidator, dispatcher, auditor)
	docHandler := document.NewHTTPHandler(docService, cfg.MaxUploadBytes)

	materializer := claims.NewMaterializer(claimRepo, docRepo, auditor, publisher)
	claimHandler := claims.NewHTTPHandler(materializer, claimRepo)

	var tokenValidator auth.TokenValidator
	if cfg.OIDCIssuer != "" {
		tokenValidator, err = auth.NewOIDCAuthenticator(cfg.OIDCIssuer)
	} else {
		tokenValidator, err = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, time.Hour)
	}
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to initialize token validator")
	}

	router := mux.NewRouter()
	router.Use(auth.Recovery, auth.Logging, auth.CORS)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(r.Context()) != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(auth.Authenticate(tokenValidator))
	docHandler.Register(api)
	claimHandler.Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Digitization Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Digitization Service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("dispatcher forced to shutdown")
	}

	logger.Log.Info("Digitization Service stopped")
}
