package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/snapwire/snapwire/internal/errors"
	"github.com/snapwire/snapwire/pkg/demo"
	"github.com/snapwire/snapwire/pkg/metrics"
	"github.com/snapwire/snapwire/pkg/protocol"
	"github.com/snapwire/snapwire/pkg/sizebuf"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "snapwire.json"

	// EnvFileName is the optional dotenv file read next to the config.
	EnvFileName = ".env"

	// DefaultMaxMsgLen is the default message buffer capacity.
	DefaultMaxMsgLen = protocol.MaxMsgLen

	// DefaultLogLevel is the default slog level name.
	DefaultLogLevel = "info"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "snapwire"

	// DefaultDemoDir is the default directory for recorded demos.
	DefaultDemoDir = "demos"

	// maxMsgLenLimit is the largest capacity a short length prefix can describe.
	maxMsgLenLimit = 65535
)

// Environment variables that override file settings.
const (
	EnvMaxMsgLen        = "SNAPWIRE_MAX_MSG_LEN"
	EnvAllowOverflow    = "SNAPWIRE_ALLOW_OVERFLOW"
	EnvParanoid         = "SNAPWIRE_PARANOID"
	EnvLogLevel         = "SNAPWIRE_LOG_LEVEL"
	EnvMetricsNamespace = "SNAPWIRE_METRICS_NAMESPACE"
	EnvDemoDir          = "SNAPWIRE_DEMO_DIR"
	EnvS3Bucket         = "SNAPWIRE_S3_BUCKET"
	EnvS3Prefix         = "SNAPWIRE_S3_PREFIX"
	EnvS3Region         = "SNAPWIRE_S3_REGION"
)

// Config represents the complete snapwire.json configuration.
type Config struct {
	// Buffer controls message buffer allocation.
	Buffer BufferConfig `json:"buffer,omitempty"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `json:"logLevel,omitempty"`

	// Metrics contains Prometheus naming.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Demo selects where demos are stored.
	Demo DemoConfig `json:"demo,omitempty"`

	// configPath is the path the config was loaded from.
	configPath string
}

// BufferConfig configures the message buffers handed to encoders.
type BufferConfig struct {
	// MaxMsgLen is the buffer capacity in bytes.
	MaxMsgLen int `json:"maxMsgLen,omitempty"`

	// AllowOverflow discards the message instead of failing when it fills up.
	AllowOverflow bool `json:"allowOverflow,omitempty"`

	// Paranoid range-checks every value written to the wire.
	Paranoid bool `json:"paranoid,omitempty"`
}

// MetricsConfig names the Prometheus collectors.
type MetricsConfig struct {
	Namespace string `json:"namespace,omitempty"`
	Subsystem string `json:"subsystem,omitempty"`
}

// DemoConfig selects the demo store. A non-empty S3 bucket wins over Dir.
type DemoConfig struct {
	Dir string   `json:"dir,omitempty"`
	S3  S3Config `json:"s3,omitempty"`
}

// S3Config locates demos in an S3 bucket.
type S3Config struct {
	Bucket string `json:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Region string `json:"region,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Buffer: BufferConfig{
			MaxMsgLen: DefaultMaxMsgLen,
		},
		LogLevel: DefaultLogLevel,
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Demo: DemoConfig{
			Dir: DefaultDemoDir,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for snapwire.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("F002").
				Wrap(err).
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path))
		}
		return nil, errors.New("F002").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("F002").
			Wrap(err).
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("F001").WithDetail("no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("F002").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("F002").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return "."
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in zero values left by a partial file.
func (c *Config) applyDefaults() {
	if c.Buffer.MaxMsgLen == 0 {
		c.Buffer.MaxMsgLen = DefaultMaxMsgLen
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Demo.Dir == "" {
		c.Demo.Dir = DefaultDemoDir
	}
}

// LoadEnv applies overrides from the process environment. Values in path
// (normally .env next to snapwire.json) are added to the environment first
// but never replace variables that are already set. A missing file is fine.
func (c *Config) LoadEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return errors.New("F002").Wrap(err).WithDetail("Failed to read " + path)
		}
	}

	if v, ok := os.LookupEnv(EnvMaxMsgLen); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("F001").Wrap(err).WithDetailf("%s=%q is not an integer", EnvMaxMsgLen, v)
		}
		c.Buffer.MaxMsgLen = n
	}
	if err := envBool(EnvAllowOverflow, &c.Buffer.AllowOverflow); err != nil {
		return err
	}
	if err := envBool(EnvParanoid, &c.Buffer.Paranoid); err != nil {
		return err
	}

	envString(EnvLogLevel, &c.LogLevel)
	envString(EnvMetricsNamespace, &c.Metrics.Namespace)
	envString(EnvDemoDir, &c.Demo.Dir)
	envString(EnvS3Bucket, &c.Demo.S3.Bucket)
	envString(EnvS3Prefix, &c.Demo.S3.Prefix)
	envString(EnvS3Region, &c.Demo.S3.Region)

	return nil
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envBool(key string, dst *bool) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return errors.New("F001").Wrap(err).WithDetailf("%s=%q is not a boolean", key, v)
	}
	*dst = b
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Buffer.MaxMsgLen <= 0 || c.Buffer.MaxMsgLen > maxMsgLenLimit {
		return errors.New("F001").
			WithDetailf("buffer.maxMsgLen must be between 1 and %d, got %d", maxMsgLenLimit, c.Buffer.MaxMsgLen)
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		return errors.New("F001").
			WithDetailf("logLevel must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.Demo.S3.Bucket != "" && c.Demo.S3.Region == "" {
		return errors.New("F001").
			WithDetail("demo.s3.region is required when demo.s3.bucket is set")
	}
	return nil
}

// Level returns the configured slog level, Info when unrecognized.
func (c *Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// NewBuffer allocates a message buffer with the configured capacity and
// overflow policy. Overflows are reported to m when it is non-nil.
func (c *Config) NewBuffer(m *metrics.Metrics) *sizebuf.Buffer {
	buf := sizebuf.New(c.Buffer.MaxMsgLen)
	buf.SetAllowOverflow(c.Buffer.AllowOverflow)
	if m != nil {
		buf.OnOverflow(m.RecordOverflow)
	}
	return buf
}

// NewEncoder wraps a fresh buffer in a protocol encoder.
func (c *Config) NewEncoder(m *metrics.Metrics) *protocol.Encoder {
	e := protocol.NewEncoder(c.NewBuffer(m))
	e.Paranoid = c.Buffer.Paranoid
	return e
}

// MetricsOptions returns the collector options for metrics.New.
func (c *Config) MetricsOptions() []metrics.Option {
	opts := []metrics.Option{metrics.WithNamespace(c.Metrics.Namespace)}
	if c.Metrics.Subsystem != "" {
		opts = append(opts, metrics.WithSubsystem(c.Metrics.Subsystem))
	}
	return opts
}

// DemoStore opens the configured demo store. A relative Dir is resolved
// against the config directory.
func (c *Config) DemoStore() (demo.Store, error) {
	if c.Demo.S3.Bucket != "" {
		client := demo.NewS3Client(c.Demo.S3.Region)
		return demo.NewS3Store(client, c.Demo.S3.Bucket, c.Demo.S3.Prefix), nil
	}

	dir := c.Demo.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.Dir(), dir)
	}
	return demo.NewFileStore(dir)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing snapwire.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("F002").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the nearest snapwire.json
// above the working directory, falling back to defaults when there is none.
// Environment overrides are applied in both cases.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg := New()
	if root, err := FindProjectRoot(wd); err == nil {
		if cfg, err = Load(root); err != nil {
			return nil, err
		}
	}

	if err := cfg.LoadEnv(filepath.Join(cfg.Dir(), EnvFileName)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
