package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testConfig returns a hermetic configuration using the fake provider.
func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := defaultConfig()
	cfg.ActiveProfile = "default"
	cfg.Profiles = map[string]Profile{
		"default": {Provider: "fake", Model: "fake-model"},
	}
	cfg.UI.Markdown = false
	cfg.WorkingDir = t.TempDir()
	return &cfg
}

// newTestContext assembles a TuiContext over a temp session store and a
// scripted service.
func newTestContext(t *testing.T, scripts ...[]ResponseFragment) *TuiContext {
	t.Helper()
	cfg := testConfig(t)

	sessions, err := NewSessionManager(filepath.Join(t.TempDir(), "chats"))
	require.NoError(t, err)
	_, err = sessions.CreateNew()
	require.NoError(t, err)

	return NewTuiContext(cfg, sessions, nil, NewScriptedService(scripts...), "test")
}
