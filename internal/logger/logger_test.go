package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAppLogger_LevelFallback(t *testing.T) {
	l := NewAppLogger(&Config{LogLevel: "verbose"})
	assert.Equal(t, zapcore.InfoLevel, l.getLoggerLevel())

	l = NewAppLogger(&Config{LogLevel: "warn"})
	assert.Equal(t, zapcore.WarnLevel, l.getLoggerLevel())
}

func TestAppLogger_WithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.With("account", "ap@example.com").Infof("processing %d messages", 3)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "processing 3 messages", entries[0].Message)
		assert.Equal(t, "ap@example.com", entries[0].ContextMap()["account"])
	}
}

func TestAppLogger_InitLoggerDevMode(t *testing.T) {
	l := NewAppLogger(&Config{DevMode: true, LogLevel: "debug"})
	l.InitLogger()
	assert.NotNil(t, l.Logger())
	l.Debug("dev logger ready")
}
