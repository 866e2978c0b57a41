// Package config loads settings from the environment
package config

import (
	"context"
	"errors"
	"imgstego-backend/models"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// LoadEnv reads .env into the process environment when the file exists.
func LoadEnv(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

type ServerConfig struct {
	Port           string        `env:"PORT, default=8080"`
	CORSOrigins    string        `env:"CORS_ORIGINS, default=http://localhost:3000"`
	MaxUploadMB    int64         `env:"MAX_UPLOAD_MB, default=32"`
	LogLevel       string        `env:"LOG_LEVEL, default=info"`
	LogFormat      string        `env:"LOG_FORMAT, default=text"`
	TagChannel     string        `env:"STEGO_TAG_CHANNEL, default=alpha"`
	Alignment      string        `env:"STEGO_ALIGNMENT, default=pad"`
	MinPSNR        float64       `env:"STEGO_MIN_PSNR, default=30"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, default=60s"`
}

func NewServerConfigFromEnv() (*ServerConfig, error) {
	return newServerConfig(envconfig.OsLookuper())
}

func newServerConfig(lookuper envconfig.Lookuper) (*ServerConfig, error) {
	var cfg ServerConfig
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits CORS_ORIGINS on commas.
func (c *ServerConfig) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *ServerConfig) StegoConfig() *models.StegoConfig {
	return &models.StegoConfig{
		TagChannel: c.TagChannel,
		Alignment:  c.Alignment,
	}
}

// MinioConfig is optional: encoded carriers are also uploaded when Endpoint is set.
type MinioConfig struct {
	Endpoint string `env:"MINIO_ENDPOINT"`
	Username string `env:"MINIO_USERNAME"`
	Password string `env:"MINIO_PASSWORD"`
	Bucket   string `env:"MINIO_BUCKET, default=imgstego"`
	Secure   bool   `env:"MINIO_SECURE, default=false"`
}

func NewMinioConfigFromEnv() (*MinioConfig, error) {
	var cfg MinioConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *MinioConfig) Enabled() bool {
	return c.Endpoint != ""
}
