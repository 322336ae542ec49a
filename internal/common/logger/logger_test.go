package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestZapAdapter_FieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"taskType": "safety.evaluate-ingredients"})

	log.Info("ingredients evaluated", map[string]interface{}{"ingredients": 3})
	log.WithError(errors.New("boom")).Error("lookup failed", nil)
	log.Debug("debug line", map[string]interface{}{"cause": errors.New("nested")})

	require.Equal(t, 3, logs.Len())
	entries := logs.All()

	assert.Equal(t, "ingredients evaluated", entries[0].Message)
	assert.Equal(t, "safety.evaluate-ingredients", entries[0].ContextMap()["taskType"])
	assert.EqualValues(t, 3, entries[0].ContextMap()["ingredients"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])

	assert.Equal(t, "nested", entries[2].ContextMap()["cause"])
}

func TestNew_Formats(t *testing.T) {
	assert.NotNil(t, New("info", "json"))
	assert.NotNil(t, New("debug", "console", "stderr"))
	assert.NotNil(t, NewStructured("warn", "json"))
	NewNoOpLogger().Info("discarded", nil)
}
