package cmd

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/libgate/config"
)

func TestSetupLogger_Level(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{level: "debug", want: zerolog.DebugLevel},
		{level: "WARN", want: zerolog.WarnLevel},
		{level: "error", want: zerolog.ErrorLevel},
		{level: "", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			setupLogger(config.LoggingConfig{Level: tt.level, Format: "json"})
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestGetFilterExpression(t *testing.T) {
	cfg = &config.Config{Filter: config.FilterConfig{"shelf": "available()"}}
	t.Cleanup(func() {
		cfg, filterExpr, preset = nil, "", ""
	})

	filterExpr, preset = "", ""
	expr, err := getFilterExpression()
	require.NoError(t, err)
	assert.Empty(t, expr)

	preset = "Shelf"
	expr, err = getFilterExpression()
	require.NoError(t, err)
	assert.Equal(t, "available()", expr)

	filterExpr = `titleHas("go")`
	expr, err = getFilterExpression()
	require.NoError(t, err)
	assert.Equal(t, `titleHas("go")`, expr)

	filterExpr, preset = "", "missing"
	_, err = getFilterExpression()
	assert.ErrorContains(t, err, "preset 'missing' not found")
}
