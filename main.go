package main

import (
	"context"
	"imgstego-backend/audio"
	"imgstego-backend/config"
	"imgstego-backend/handlers"
	"imgstego-backend/logging"
	"imgstego-backend/stego"
	"imgstego-backend/storage"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	cfg, err := config.NewServerConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	opts, err := stego.OptionsFromConfig(cfg.StegoConfig())
	if err != nil {
		logger.WithError(err).Fatal("invalid stego settings")
	}

	// MP3 export needs LAME; WAV export works without it
	if err := audio.CheckLAME(); err != nil {
		logger.WithError(err).Warn("LAME encoder not found, extract with format=mp3 will fail")
	} else {
		logger.Info("✓ LAME encoder found and ready for MP3 encoding")
	}

	archive, err := newArchive(logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to set up carrier archive")
	}

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	stegoHandler := handlers.NewStegoHandler(handlers.HandlerConfig{
		Options:        opts,
		MaxUploadBytes: cfg.MaxUploadMB << 20,
		RequestTimeout: cfg.RequestTimeout,
		Archive:        archive,
		MinPSNR:        cfg.MinPSNR,
	}, logger)
	router := handlers.NewRouter(stegoHandler, cfg.Origins())

	logger.Infof("Server starting on port %s", cfg.Port)
	logger.Info("API endpoints:")
	logger.Info("  POST /api/v1/stego/hide     - Hide WAV/MP3 audio in PNG images (returns zip of encoded images)")
	logger.Info("  POST /api/v1/stego/extract  - Rebuild audio from encoded images in any order (returns WAV or MP3)")
	logger.Info("  POST /api/v1/stego/capacity - Pixels and images needed for an audio file")
	logger.Info("  GET  /api/v1/health         - Health check")

	if err := router.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("failed to start server")
	}
}

// newArchive returns a sink factory that mirrors every hide run into MinIO,
// or nil when MINIO_ENDPOINT is unset.
func newArchive(logger *logrus.Logger) (handlers.SinkFactory, error) {
	minioCfg, err := config.NewMinioConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if !minioCfg.Enabled() {
		return nil, nil
	}

	client, err := storage.NewMinioClient(minioCfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := storage.EnsureBucket(ctx, client, minioCfg.Bucket); err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"endpoint": minioCfg.Endpoint,
		"bucket":   minioCfg.Bucket,
	}).Info("archiving encoded images to minio")

	return func(runID string) stego.Sink {
		return storage.NewMinioSink(client, minioCfg.Bucket, runID)
	}, nil
}
