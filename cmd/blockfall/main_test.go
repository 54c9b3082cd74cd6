package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/config"
	game "github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

func TestSaveRecording(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	catalog, err := cfg.Catalog()
	require.NoError(t, err)

	session, err := game.NewGameSession(cfg.Settings(), catalog, 11, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "play.yaml")
	assert.Error(t, saveRecording(session, path), "recording not started")

	session.StartRecording()
	for i := 0; i < 5; i++ {
		session.Tick(16666667 * time.Nanosecond)
	}
	require.NoError(t, saveRecording(session, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	p, err := game.ReadPlaythrough(f)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), p.Seed)
	assert.Len(t, p.Frames, 5)

	assert.Error(t, saveRecording(session, filepath.Join(t.TempDir(), "missing", "play.yaml")))
}
