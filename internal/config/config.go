package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"quorumfs/internal/cluster"
	"quorumfs/internal/quorum"
	"quorumfs/internal/storage"
)

// Role selects whether a node runs the coordinator.
type Role string

const (
	RoleCoordinator Role = "coordinator"
	RoleReplica     Role = "replica"
)

const (
	DefaultListen          = "127.0.0.1:5000"
	DefaultUpdateFrequency = 5 * time.Second
	DefaultDataDir         = "data"
)

// Config holds the node configuration.
type Config struct {
	// Listen is the address the gRPC server binds to.
	Listen string `yaml:"listen"`
	// Advertise is the host:port other nodes dial. Defaults to Listen.
	Advertise string `yaml:"advertise"`
	// Coordinator is the coordinator's address; required for replicas.
	Coordinator string `yaml:"coordinator"`
	Role        Role   `yaml:"role"`

	N               int    `yaml:"n"`
	MinimumN        int    `yaml:"minimum_n"`
	QuorumSelection string `yaml:"quorum_selection"`
	Nw              int    `yaml:"nw"`
	Nr              int    `yaml:"nr"`

	// UpdateFrequency is the anti-entropy interval; 0 disables it.
	UpdateFrequency time.Duration `yaml:"update_frequency"`

	DataDir  string       `yaml:"data_dir"`
	Backend  storage.Kind `yaml:"backend"`
	LogLevel string       `yaml:"log_level"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Listen:          DefaultListen,
		Role:            RoleCoordinator,
		N:               quorum.DefaultMinimumN,
		MinimumN:        quorum.DefaultMinimumN,
		QuorumSelection: string(quorum.DefaultMode),
		UpdateFrequency: DefaultUpdateFrequency,
		DataDir:         DefaultDataDir,
		Backend:         storage.KindDisk,
		LogLevel:        "info",
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors that cannot be corrected.
// Quorum sizes are not checked here; quorum.Derive corrects them.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Listen, err)
	}
	if c.Advertise != "" {
		if _, err := ParseAddr(c.Advertise); err != nil {
			return fmt.Errorf("invalid advertise address: %w", err)
		}
	}

	switch c.Role {
	case RoleCoordinator:
	case RoleReplica:
		if c.Coordinator == "" {
			return fmt.Errorf("a replica needs the coordinator address")
		}
		if _, err := ParseAddr(c.Coordinator); err != nil {
			return fmt.Errorf("invalid coordinator address: %w", err)
		}
	default:
		return fmt.Errorf("unknown role %q (expected %s or %s)", c.Role, RoleCoordinator, RoleReplica)
	}

	if c.N < 1 {
		return fmt.Errorf("n must be positive, got %d", c.N)
	}
	if c.UpdateFrequency < 0 {
		return fmt.Errorf("update_frequency cannot be negative")
	}
	switch c.Backend {
	case storage.KindDisk, storage.KindBadger, storage.KindMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// QuorumParams returns the inputs for quorum.Derive. An unrecognised
// quorum_selection is passed through so Derive can report the fallback.
func (c *Config) QuorumParams() quorum.Params {
	mode, err := quorum.ParseMode(c.QuorumSelection)
	if err != nil {
		mode = quorum.Mode(c.QuorumSelection)
	}
	return quorum.Params{
		N:        c.N,
		Mode:     mode,
		UserNw:   c.Nw,
		UserNr:   c.Nr,
		MinimumN: c.MinimumN,
	}
}

// NodeDataDir returns the per-node directory under DataDir.
func (c *Config) NodeDataDir(self cluster.NodeIdentity) string {
	return filepath.Join(c.DataDir, fmt.Sprintf("%s_%d", self.Host, self.Port))
}

// NewLogger builds the process logger at the configured level.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger, nil
}

// ParseAddr parses "host:port" into a node identity.
func ParseAddr(addr string) (cluster.NodeIdentity, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return cluster.NodeIdentity{}, fmt.Errorf("invalid address %q (expected host:port): %w", addr, err)
	}
	if host == "" {
		return cluster.NodeIdentity{}, fmt.Errorf("invalid address %q: host cannot be empty", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return cluster.NodeIdentity{}, fmt.Errorf("invalid port in address %q", addr)
	}
	return cluster.NodeIdentity{Host: host, Port: port}, nil
}
