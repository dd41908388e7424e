package asynccall

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {

	cfg := DefaultConfig()
	procs := runtime.GOMAXPROCS(0)

	assert.Equal(t, DefaultIOQueueName, cfg.IO.Name)
	assert.Equal(t, procs*ioWorkersPerProc, cfg.IO.MaxWorkers)
	assert.Equal(t, DefaultCPUQueueName, cfg.CPU.Name)
	assert.Equal(t, procs, cfg.CPU.MaxWorkers)
	assert.NoError(t, cfg.Validate())
}

func TestParseConfigYAML(t *testing.T) {

	cfg, err := ParseConfig([]byte(`
io:
  max_workers: 32
  executor: workerpool
cpu:
  name: compress
  executor: ants
  non_blocking: true
`), FormatYAML)

	require.NoError(t, err)
	assert.Equal(t, DefaultIOQueueName, cfg.IO.Name)
	assert.Equal(t, 32, cfg.IO.MaxWorkers)
	assert.Equal(t, "workerpool", cfg.IO.Executor)
	assert.Equal(t, "compress", cfg.CPU.Name)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.CPU.MaxWorkers)
	assert.Equal(t, "ants", cfg.CPU.Executor)
	assert.True(t, cfg.CPU.NonBlocking)
}

func TestParseConfigJSON(t *testing.T) {

	cfg, err := ParseConfig([]byte(`{"cpu": {"max_workers": 3}}`), FormatJSON)

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.CPU.MaxWorkers)
	assert.Equal(t, DefaultConfig().IO, cfg.IO)
}

func TestParseConfigErrors(t *testing.T) {

	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{name: "unknown executor", data: "io:\n  executor: threads\n", format: FormatYAML},
		{name: "zero workers", data: `{"cpu": {"max_workers": 0}}`, format: FormatJSON},
		{name: "negative workers", data: "io:\n  max_workers: -1\n", format: FormatYAML},
		{name: "malformed", data: `{"io": `, format: FormatJSON},
		{name: "unsupported format", data: "io = 1", format: Format("toml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.data), tt.format)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadConfig(t *testing.T) {

	dir := t.TempDir()

	path := filepath.Join(dir, "asynccall.yml")
	require.NoError(t, os.WriteFile(path, []byte("io:\n  max_workers: 5\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.IO.MaxWorkers)

	path = filepath.Join(dir, "asynccall.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"io": {"executor": "ants"}}`), 0o600))

	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "ants", cfg.IO.Executor)

	_, err = LoadConfig(filepath.Join(dir, "asynccall.toml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
