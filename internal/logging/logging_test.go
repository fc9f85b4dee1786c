package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitor-flow/vfc/internal/config"
)

func TestNewToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vfc.log")
	cfg := config.LoadBaseline().Logging
	cfg.File = path
	cfg.Format = "json"
	cfg.Level = "debug"

	logger, closer, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("component", "test").Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestNewRejectsBadSettings(t *testing.T) {
	cfg := config.LoadBaseline().Logging
	cfg.Level = "loud"
	_, _, err := New(cfg)
	assert.Error(t, err)

	cfg = config.LoadBaseline().Logging
	cfg.Format = "xml"
	_, _, err = New(cfg)
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Info("dropped")
	assert.NotNil(t, logger)
}
