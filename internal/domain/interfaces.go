package domain

import (
	"context"
)

// Predictor submits validated records to the prediction service.
type Predictor interface {
	Predict(ctx context.Context, record ClinicalRecord) (*PredictionResult, error)
	CheckHealth(ctx context.Context) bool
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetUpstreamConfig() *UpstreamConfig
	Reload() error
	Validate() error
}
