package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cpsim/config"
	"github.com/kilianp07/cpsim/core/checkpoint"
	"github.com/kilianp07/cpsim/core/devices"
	"github.com/kilianp07/cpsim/infra/mqtt"
	"github.com/kilianp07/cpsim/simulator"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Simulation.Sessions = 1
	cfg.Simulation.SampleIntervalSeconds = 0.01
	cfg.Simulation.ChargingSeconds = 0.03
	cfg.Simulation.CohortSizes = []int{1, 2}
	cfg.Devices.Path = filepath.Join(dir, "devices.json")
	cfg.Checkpoint.Path = filepath.Join(dir, "checkpoint.json")
	cfg.Checkpoint.HistoryDB = filepath.Join(dir, "history.db")
	return cfg
}

func TestServiceRun(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, devices.WriteFile(cfg.Devices.Path, devices.Generate(2, "cp")))
	ch := mqtt.NewMockChannel()

	svc, err := New(cfg, WithConnector(ch))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	assert.Len(t, svc.Devices(), 2)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, res.Checkpoint.CohortSizes)
	assert.Equal(t, 3, res.Checkpoint.Succeeded)
	assert.Equal(t, 2, ch.Connects("cp_0"))

	saved, err := checkpoint.NewFileStore(cfg.Checkpoint.Path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, saved.Succeeded)

	history, err := checkpoint.NewSQLiteStore(cfg.Checkpoint.HistoryDB)
	require.NoError(t, err)
	defer func() { _ = history.Close() }()
	list, err := history.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestServiceInvalidDirectory(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Devices.Path, []byte(`{"cp":[{"id":"x"}]}`), 0o644))
	_, err := New(cfg, WithConnector(mqtt.NewMockChannel()))
	if !errors.Is(err, simulator.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	assert.ErrorIs(t, err, devices.ErrInvalidDirectory)
}

func TestServiceMissingDirectory(t *testing.T) {
	cfg := testConfig(t)
	_, err := New(cfg, WithConnector(mqtt.NewMockChannel()))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorIs(t, err, simulator.ErrConfiguration)
	assert.ErrorIs(t, err, devices.ErrInvalidDirectory)
}

func TestServiceOversizeCohort(t *testing.T) {
	cfg := testConfig(t)
	cfg.Simulation.CohortSizes = []int{5}
	ch := mqtt.NewMockChannel()
	svc, err := New(cfg, WithConnector(ch), WithDevices(devices.Generate(2, "cp")))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	_, err = svc.Run(context.Background())
	assert.ErrorIs(t, err, simulator.ErrConfiguration)
	assert.Empty(t, ch.Messages())
	_, statErr := os.Stat(cfg.Checkpoint.Path)
	assert.True(t, os.IsNotExist(statErr))
}
