package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONEnProduccion(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "info", Output: &buf})
	l.Info().Str("hospital_id", "H1").Msg("hola")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hola", line["message"])
	assert.Equal(t, "H1", line["hospital_id"])
	assert.Equal(t, "info", line["level"])
}

func TestNew_FiltraPorNivel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "warn", Output: &buf})
	l.Info().Msg("descartado")
	assert.Zero(t, buf.Len())
}

func TestWithContext_RecuperableConCtx(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "debug", Output: &buf})
	ctx := l.WithContext(context.Background())
	zerolog.Ctx(ctx).Debug().Msg("desde contexto")
	assert.Contains(t, buf.String(), "desde contexto")
}
