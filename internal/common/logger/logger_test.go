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
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestBuild(t *testing.T) {
	l, err := Build(Options{Level: "debug", Format: "json", Output: "stderr", ServiceName: "recommender"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestZapWrapper_FieldsAreSortedAndInherited(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	child := log.WithFields(map[string]interface{}{"component": "recommendation"})
	child.Info("generated", map[string]interface{}{"userId": int64(5), "limit": 10})
	child.WithError(errors.New("boom")).Error("failed", nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "generated", first.Message)
	require.Len(t, first.Context, 3)
	assert.Equal(t, "component", first.Context[0].Key)
	assert.Equal(t, "limit", first.Context[1].Key)
	assert.Equal(t, "userId", first.Context[2].Key)

	second := entries[1].ContextMap()
	assert.Equal(t, "boom", second["error"])
	assert.Equal(t, "recommendation", second["component"])
}

func TestMapToZapFields_Errors(t *testing.T) {
	fields := mapToZapFields(map[string]interface{}{"cause": errors.New("x")})
	require.Len(t, fields, 1)
	assert.Equal(t, zapcore.ErrorType, fields[0].Type)
	assert.Nil(t, mapToZapFields(nil))
}
