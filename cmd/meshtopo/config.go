package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hupe1980/meshtopo"
	"github.com/hupe1980/meshtopo/cell"
	"github.com/hupe1980/meshtopo/comm/tcp"
)

// Sentinel validation errors.
var (
	ErrInvalidRanks     = errors.New("ranks must be positive")
	ErrInvalidMeshSize  = errors.New("mesh size must be positive")
	ErrInvalidMeshKind  = errors.New("unknown mesh kind")
	ErrInvalidTransport = errors.New("invalid transport")
	ErrInvalidLogFormat = errors.New("unknown log format")
)

// Default configuration values.
const (
	defaultRanks = 4
	defaultN     = 8
)

// Config holds the configuration of one run.
type Config struct {
	Ranks        int             `mapstructure:"ranks"`
	Seed         uint64          `mapstructure:"seed"`
	GhostMode    string          `mapstructure:"ghost_mode"`
	Entities     []int           `mapstructure:"entities"`
	Permutations bool            `mapstructure:"permutations"`
	Mesh         MeshConfig      `mapstructure:"mesh"`
	Transport    TransportConfig `mapstructure:"transport"`
	Logging      LoggingConfig   `mapstructure:"logging"`
	Metrics      MetricsConfig   `mapstructure:"metrics"`
	Trace        bool            `mapstructure:"trace"`
}

// MeshConfig selects the generated mesh.
type MeshConfig struct {
	// Kind is interval, square or cube.
	Kind string `mapstructure:"kind"`
	N    int    `mapstructure:"n"`
	// Cell is the cell type; empty picks the simplex of the kind.
	Cell string `mapstructure:"cell"`
}

// TransportConfig selects how ranks communicate.
type TransportConfig struct {
	// Kind is local (all ranks in this process) or tcp (one rank per process).
	Kind        string   `mapstructure:"kind"`
	Rank        int      `mapstructure:"rank"`
	Peers       []string `mapstructure:"peers"`
	Compression string   `mapstructure:"compression"`
	// Bandwidth limits outgoing traffic, e.g. "10MB". Empty means unlimited.
	Bandwidth string `mapstructure:"bandwidth"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds Prometheus configuration.
type MetricsConfig struct {
	// Listen serves /metrics on this address while the run is active.
	Listen string `mapstructure:"listen"`
}

// LoadConfig loads configuration from file, environment (MESHTOPO_*) and
// flags, in increasing precedence.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("meshtopo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/meshtopo")
	}

	v.SetEnvPrefix("MESHTOPO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ranks", defaultRanks)
	v.SetDefault("seed", 0)
	v.SetDefault("ghost_mode", "none")
	v.SetDefault("entities", []int{})
	v.SetDefault("permutations", false)
	v.SetDefault("trace", false)

	v.SetDefault("mesh.kind", "square")
	v.SetDefault("mesh.n", defaultN)
	v.SetDefault("mesh.cell", "")

	v.SetDefault("transport.kind", "local")
	v.SetDefault("transport.rank", 0)
	v.SetDefault("transport.peers", []string{})
	v.SetDefault("transport.compression", "none")
	v.SetDefault("transport.bandwidth", "")

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")

	v.SetDefault("metrics.listen", "")
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"ranks":        "ranks",
	"seed":         "seed",
	"ghost-mode":   "ghost_mode",
	"entities":     "entities",
	"permutations": "permutations",
	"trace":        "trace",
	"mesh":         "mesh.kind",
	"n":            "mesh.n",
	"cell":         "mesh.cell",
	"transport":    "transport.kind",
	"rank":         "transport.rank",
	"peers":        "transport.peers",
	"compression":  "transport.compression",
	"bandwidth":    "transport.bandwidth",
	"log-level":    "logging.level",
	"log-format":   "logging.format",
	"metrics":      "metrics.listen",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.Ranks <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRanks, c.Ranks)
	}
	if c.Mesh.N <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMeshSize, c.Mesh.N)
	}
	if _, err := c.CellType(); err != nil {
		return err
	}
	if _, err := c.Mode(); err != nil {
		return err
	}
	if _, err := tcp.ParseCompression(c.Transport.Compression); err != nil {
		return err
	}
	if _, err := c.BandwidthBytes(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}
	switch c.Transport.Kind {
	case "local":
	case "tcp":
		if len(c.Transport.Peers) != c.Ranks {
			return fmt.Errorf("%w: %d peers for %d ranks", ErrInvalidTransport, len(c.Transport.Peers), c.Ranks)
		}
		if c.Transport.Rank < 0 || c.Transport.Rank >= c.Ranks {
			return fmt.Errorf("%w: rank %d of %d", ErrInvalidTransport, c.Transport.Rank, c.Ranks)
		}
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidTransport, c.Transport.Kind)
	}
	return nil
}

// CellType resolves the mesh cell type.
func (c *Config) CellType() (cell.Type, error) {
	ct := c.Mesh.Cell
	switch c.Mesh.Kind {
	case "interval":
		if ct == "" {
			ct = "interval"
		}
		if ct != "interval" {
			return 0, fmt.Errorf("%w: %s mesh of %s cells", ErrInvalidMeshKind, c.Mesh.Kind, ct)
		}
	case "square":
		if ct == "" {
			ct = "triangle"
		}
		if ct != "triangle" && ct != "quadrilateral" {
			return 0, fmt.Errorf("%w: %s mesh of %s cells", ErrInvalidMeshKind, c.Mesh.Kind, ct)
		}
	case "cube":
		if ct == "" {
			ct = "tetrahedron"
		}
		if ct != "tetrahedron" && ct != "hexahedron" {
			return 0, fmt.Errorf("%w: %s mesh of %s cells", ErrInvalidMeshKind, c.Mesh.Kind, ct)
		}
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMeshKind, c.Mesh.Kind)
	}
	return cell.ParseType(ct)
}

// Mode resolves the ghost mode.
func (c *Config) Mode() (meshtopo.GhostMode, error) {
	return meshtopo.ParseGhostMode(c.GhostMode)
}

// BandwidthBytes parses the transport bandwidth limit.
func (c *Config) BandwidthBytes() (int64, error) {
	if c.Transport.Bandwidth == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.Transport.Bandwidth)
	if err != nil {
		return 0, fmt.Errorf("%w: bandwidth %q: %w", ErrInvalidTransport, c.Transport.Bandwidth, err)
	}
	return int64(n), nil
}

// LogLevel parses the logging level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return 0, fmt.Errorf("logging level: %w", err)
	}
	return level, nil
}

// Logger builds the configured logger.
func (c *Config) Logger() *meshtopo.Logger {
	level, _ := c.LogLevel()
	if c.Logging.Format == "json" {
		return meshtopo.NewJSONLogger(level)
	}
	return meshtopo.NewTextLogger(level)
}
