package sink

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvclean/internal/config"
)

func TestRegistry_Builtins(t *testing.T) {
	assert.Equal(t, []string{"http", "sql"}, Names())

	def, ok := Get("sql")
	require.True(t, ok)
	assert.NotEmpty(t, def.Description)

	_, ok = Get("kafka")
	assert.False(t, ok)
}

func TestRegister_DuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		Register(Definition{Name: "sql"})
	})
}

func TestOpen_OnlyEnabled(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Enabled: true,
			Driver:  "sqlite",
			Name:    filepath.Join(t.TempDir(), "x.db"),
			Table:   "t",
		},
		HTTP: config.HTTPConfig{URL: "http://example.invalid", Timeout: time.Second},
	}

	sinks, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer CloseAll(sinks)

	require.Len(t, sinks, 1)
	assert.Equal(t, "sql", sinks[0].Name())
}

func TestOpen_NothingEnabled(t *testing.T) {
	sinks, err := Open(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.Empty(t, sinks)
}
