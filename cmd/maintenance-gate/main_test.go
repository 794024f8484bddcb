package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conradoqg/maintenance-gate/internal/config"
	"github.com/conradoqg/maintenance-gate/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Server.Listen = "127.0.0.1:0"
	cfg.Store = config.Store{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "state.db")}
	return cfg
}

func TestRunStopsAndReleasesStore(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancel")
	}

	// the store was closed cleanly and can be reopened
	st, err := store.Open(cfg.Store)
	require.NoError(t, err)
	require.NoError(t, st.Set(context.Background(), store.Key, "true"))
	require.NoError(t, st.Close())
}

func TestRunReturnsStoreOpenError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = config.Store{Driver: "file", Path: t.TempDir()}

	err := run(context.Background(), cfg)
	assert.ErrorContains(t, err, "open file store")
}

func TestRunReturnsListenError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Listen = "127.0.0.1:-1"

	err := run(context.Background(), cfg)
	assert.ErrorContains(t, err, "server error")
}
