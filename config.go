package asynccall

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/alitto/asynccall/queue"
)

const (
	// DefaultIOQueueName labels the default I/O-oriented queue
	DefaultIOQueueName = "asynccall_default_io"
	// DefaultCPUQueueName labels the default CPU-oriented queue
	DefaultCPUQueueName = "asynccall_default_cpu"

	// ioWorkersPerProc sizes the I/O queue, whose tasks mostly wait
	ioWorkersPerProc = 8
)

// Format is the encoding of a configuration document.
type Format string

const (
	// FormatYAML selects the YAML parser
	FormatYAML Format = "yaml"
	// FormatJSON selects the JSON parser
	FormatJSON Format = "json"
)

// Config describes the two default queues of a Registry.
type Config struct {
	IO  QueueConfig `koanf:"io"`
	CPU QueueConfig `koanf:"cpu"`
}

// QueueConfig describes one queue.
type QueueConfig struct {
	// Name labels the queue in logs and metrics
	Name string `koanf:"name"`
	// MaxWorkers bounds the number of tasks executed concurrently
	MaxWorkers int `koanf:"max_workers"`
	// Executor is one of "native", "ants" or "workerpool"
	Executor string `koanf:"executor"`
	// NonBlocking makes an ants executor reject tasks instead of waiting for a free worker
	NonBlocking bool `koanf:"non_blocking"`
}

// DefaultConfig sizes the CPU queue to GOMAXPROCS and the I/O queue to a multiple of it.
func DefaultConfig() Config {
	procs := runtime.GOMAXPROCS(0)

	return Config{
		IO: QueueConfig{
			Name:       DefaultIOQueueName,
			MaxWorkers: procs * ioWorkersPerProc,
			Executor:   string(queue.ExecutorNative),
		},
		CPU: QueueConfig{
			Name:       DefaultCPUQueueName,
			MaxWorkers: procs,
			Executor:   string(queue.ExecutorNative),
		},
	}
}

// ParseConfig reads a YAML or JSON document over DefaultConfig. Keys missing from the document
// keep their default value.
func ParseConfig(data []byte, format Format) (Config, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return Config{}, fmt.Errorf("%w: unsupported format %q", ErrInvalidConfig, format)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a configuration file, detecting the format from its extension.
func LoadConfig(path string) (Config, error) {
	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".json":
		format = FormatJSON
	default:
		return Config{}, fmt.Errorf("%w: unknown extension of %s", ErrInvalidConfig, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return ParseConfig(data, format)
}

// Validate checks both queue configurations.
func (c Config) Validate() error {
	if err := c.IO.validate(); err != nil {
		return fmt.Errorf("io: %w", err)
	}
	if err := c.CPU.validate(); err != nil {
		return fmt.Errorf("cpu: %w", err)
	}
	return nil
}

func (c QueueConfig) validate() error {
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("%w: max_workers must be greater than 0, got %d", ErrInvalidConfig, c.MaxWorkers)
	}
	if _, err := queue.ParseExecutor(c.Executor); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// options translates the configuration into queue options.
func (c QueueConfig) options() []queue.Option {
	// Validated configurations always parse
	executor, _ := queue.ParseExecutor(c.Executor)

	return []queue.Option{
		queue.WithMaxWorkers(c.MaxWorkers),
		queue.WithExecutor(executor),
		queue.WithNonBlocking(c.NonBlocking),
	}
}
