package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"quorumfs/internal/cluster"
	"quorumfs/internal/quorum"
	"quorumfs/internal/storage"
)

func TestParseAddr(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    cluster.NodeIdentity
		wantErr bool
	}{
		{
			name:  "ipv4",
			input: "127.0.0.1:5000",
			want:  cluster.NodeIdentity{Host: "127.0.0.1", Port: 5000},
		},
		{
			name:  "hostname with spaces",
			input: "  node-a:6001 ",
			want:  cluster.NodeIdentity{Host: "node-a", Port: 6001},
		},
		{
			name:  "ipv6",
			input: "[::1]:7000",
			want:  cluster.NodeIdentity{Host: "::1", Port: 7000},
		},
		{
			name:    "missing port",
			input:   "127.0.0.1",
			wantErr: true,
		},
		{
			name:    "empty host",
			input:   ":5000",
			wantErr: true,
		},
		{
			name:    "port out of range",
			input:   "127.0.0.1:70000",
			wantErr: true,
		},
		{
			name:    "non-numeric port",
			input:   "127.0.0.1:http",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddr(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseAddr() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseAddr() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
listen: 0.0.0.0:6001
advertise: 10.0.0.5:6001
coordinator: 10.0.0.1:6000
role: replica
n: 9
quorum_selection: write_heavy
update_frequency: 250ms
backend: badger
log_level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Role != RoleReplica || cfg.Coordinator != "10.0.0.1:6000" {
		t.Errorf("Unexpected role/coordinator: %s %s", cfg.Role, cfg.Coordinator)
	}
	if cfg.UpdateFrequency != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %v", cfg.UpdateFrequency)
	}
	if cfg.Backend != storage.KindBadger {
		t.Errorf("Expected badger backend, got %s", cfg.Backend)
	}
	// Unset keys keep their defaults.
	if cfg.MinimumN != quorum.DefaultMinimumN || cfg.DataDir != DefaultDataDir {
		t.Errorf("Expected defaults, got minimum_n=%d data_dir=%s", cfg.MinimumN, cfg.DataDir)
	}

	p := cfg.QuorumParams()
	if p.N != 9 || p.Mode != quorum.WriteHeavy {
		t.Errorf("Unexpected quorum params %+v", p)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeConfig(t, "listen: 127.0.0.1:5000\nreplicas: 3\n")
	if _, err := Load(path); err == nil {
		t.Error("Expected error for unknown key")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"replica without coordinator", func(c *Config) { c.Role = RoleReplica }, true},
		{"replica with coordinator", func(c *Config) {
			c.Role = RoleReplica
			c.Coordinator = "127.0.0.1:5000"
		}, false},
		{"unknown role", func(c *Config) { c.Role = "observer" }, true},
		{"bad listen", func(c *Config) { c.Listen = "5000" }, true},
		{"zero n", func(c *Config) { c.N = 0 }, true},
		{"negative update frequency", func(c *Config) { c.UpdateFrequency = -time.Second }, true},
		{"unknown backend", func(c *Config) { c.Backend = "tape" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"invalid quorum selection is corrected later", func(c *Config) { c.QuorumSelection = "EVENTUAL" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQuorumParams_UnknownModePassedThrough(t *testing.T) {
	cfg := Default()
	cfg.QuorumSelection = "EVENTUAL"

	p := cfg.QuorumParams()
	if p.Mode != "EVENTUAL" {
		t.Errorf("Expected raw mode to be passed through, got %s", p.Mode)
	}

	derived, notices := quorum.Derive(p, nil)
	if derived.Mode != quorum.Random || len(notices) == 0 {
		t.Errorf("Expected RANDOM fallback with a notice, got %s %v", derived, notices)
	}
}

func TestNodeDataDir(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/var/lib/dfs"

	got := cfg.NodeDataDir(cluster.NodeIdentity{Host: "127.0.0.1", Port: 5001})
	if want := filepath.Join("/var/lib/dfs", "127.0.0.1_5001"); got != want {
		t.Errorf("NodeDataDir() = %s, want %s", got, want)
	}
}
