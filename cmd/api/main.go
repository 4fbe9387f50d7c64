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
	"github.com/rs/zerolog/log"

	"github.com/SatvikDB/aegis/internal/application"
	appanalyst "github.com/SatvikDB/aegis/internal/application/analyst"
	appanalytics "github.com/SatvikDB/aegis/internal/application/analytics"
	appdetect "github.com/SatvikDB/aegis/internal/application/detect"
	"github.com/SatvikDB/aegis/internal/config"
	"github.com/SatvikDB/aegis/internal/domain/analytics"
	"github.com/SatvikDB/aegis/internal/domain/detect"
	"github.com/SatvikDB/aegis/internal/domain/eventlog"
	"github.com/SatvikDB/aegis/internal/domain/geo"
	aiopenai "github.com/SatvikDB/aegis/internal/infra/ai/openai"
	"github.com/SatvikDB/aegis/internal/infra/annotate"
	"github.com/SatvikDB/aegis/internal/infra/detector/httpapi"
	"github.com/SatvikDB/aegis/internal/infra/detector/onnx"
	"github.com/SatvikDB/aegis/internal/infra/eventlog/csvlog"
	mysqllog "github.com/SatvikDB/aegis/internal/infra/eventlog/mysql"
	pglog "github.com/SatvikDB/aegis/internal/infra/eventlog/postgres"
	"github.com/SatvikDB/aegis/internal/infra/geo/nominatim"
	"github.com/SatvikDB/aegis/internal/infra/httpserver"
	"github.com/SatvikDB/aegis/internal/infra/sitrep/jsonstore"
	minioStore "github.com/SatvikDB/aegis/internal/infra/storage"
	"github.com/SatvikDB/aegis/internal/logging"
	"github.com/SatvikDB/aegis/internal/middleware"
)

func main() {
	// .env is optional, real deployments use environment variables
	_ = godotenv.Load()

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Pretty)

	ctx := context.Background()

	eventLog, cleanup, err := buildEventLog(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("event log init failed")
	}
	defer cleanup()

	det, err := buildDetector(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("detector init failed")
	}

	annotator, err := annotate.New()
	if err != nil {
		log.Fatal().Err(err).Msg("annotator init failed")
	}

	vocab := detect.VocabularyFor(cfg.Detector.Profile)

	var artifacts appdetect.ArtifactStore
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("minio init failed")
		}
		artifacts = store
	}

	var geocoder geo.Geocoder
	if cfg.Geo.Enabled {
		geocoder = nominatim.New(cfg.Geo.BaseURL, 5*time.Second)
	}

	clock := application.SystemClock{}

	detectSvc := &appdetect.Service{
		Detector:     det,
		Annotator:    annotator,
		Vocab:        vocab,
		Log:          eventLog,
		Artifacts:    artifacts,
		Geocoder:     geocoder,
		Clock:        clock,
		UploadsDir:   cfg.Uploads.Dir,
		AnnotatedDir: cfg.Uploads.AnnotatedDir,
	}

	analystSvc := &appanalyst.Service{
		Store:  jsonstore.New(cfg.Sitrep.StorePath),
		Clock:  clock,
		Retain: cfg.Sitrep.Retain,
	}
	if apiKey := cfg.LLMAPIKey(); apiKey != "" {
		analystSvc.Client = aiopenai.NewClient(apiKey, cfg.LLM.BaseURL,
			cfg.LLM.Model, cfg.LLM.MaxTokens, cfg.LLM.Temperature)
		log.Info().Str("model", cfg.LLM.Model).Msg("ai analyst enabled")
	} else {
		log.Warn().Str("env", cfg.LLM.APIKeyEnv).Msg("ai analyst disabled, api key not set")
	}

	analyticsSvc := &appanalytics.Service{
		Log:    eventLog,
		Engine: analytics.Engine{Vocab: vocab},
		Clock:  clock,
	}

	handler := httpserver.NewRouter(detectSvc, analystSvc, analyticsSvc, httpserver.Options{
		MaxUploadMB: cfg.Uploads.MaxMB,
		AllowedExts: cfg.Uploads.AllowedExts,
		HealthCheckers: map[string]middleware.HealthChecker{
			"detector": &middleware.DetectorHealthChecker{Detector: det},
		},
		RateLimit: 10,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

func buildEventLog(ctx context.Context, cfg *config.Config) (eventlog.Log, func(), error) {
	switch cfg.EventLog.Backend {
	case "csv", "":
		return csvlog.New(cfg.EventLog.Path), func() {}, nil
	case "mysql":
		db, err := mysqllog.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, err
		}
		l, err := mysqllog.New(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return l, func() { db.Close() }, nil
	case "postgres":
		db, err := pglog.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		l, err := pglog.New(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return l, func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown event log backend %q", cfg.EventLog.Backend)
	}
}

func buildDetector(cfg *config.Config) (detect.Detector, error) {
	switch cfg.Detector.Backend {
	case "http", "":
		return httpapi.New(cfg.Detector.URL, cfg.Detector.Confidence, 60*time.Second), nil
	case "onnx":
		return onnx.New(cfg.Detector.ModelPath, cfg.Detector.NamesPath,
			cfg.Detector.Confidence, cfg.Detector.IOU, cfg.Detector.MaxDet)
	default:
		return nil, fmt.Errorf("unknown detector backend %q", cfg.Detector.Backend)
	}
}
