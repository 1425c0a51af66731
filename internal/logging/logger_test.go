package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liver-predict/internal/domain"
)

func TestNewWithOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(domain.LoggingConfig{Level: "debug", Format: "json"}, &buf)

	logger.WithField("status", 200).Debug("Prediction response received")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Prediction response received", entry["msg"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestNewWithOutput_TextAndFallbackLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(domain.LoggingConfig{Level: "loud", Format: "TEXT"}, &buf)

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	logger.Info("ready")
	assert.Contains(t, buf.String(), "msg=ready")
}
