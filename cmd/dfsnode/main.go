package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"quorumfs/internal/config"
	"quorumfs/internal/node"
	"quorumfs/internal/storage"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := node.NewNode(cfg, logger, nil)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create node")
	}
	if err := n.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start node")
	}

	<-ctx.Done()
	logger.Info("Received shutdown signal")
	n.Stop()
}

// parseFlags loads the optional config file and applies the flags that were
// set on the command line over it.
func parseFlags(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("dfsnode", flag.ContinueOnError)

	def := config.Default()
	var (
		path     = fs.String("config", "", "Path to a YAML config file")
		listen   = fs.String("listen", def.Listen, "Address to listen on")
		adv      = fs.String("advertise", "", "Address other nodes dial (defaults to the listen address)")
		coord    = fs.String("coordinator", "", "Coordinator address (required for replicas)")
		role     = fs.String("role", string(def.Role), "Node role: coordinator or replica")
		n        = fs.Int("n", def.N, "Number of nodes in the cluster")
		minN     = fs.Int("minimum-n", def.MinimumN, "Smallest accepted cluster size")
		mode     = fs.String("quorum-selection", def.QuorumSelection, "READ_HEAVY, WRITE_HEAVY, RANDOM, CONSISTENT or USER_CONFIG")
		nw       = fs.Int("nw", 0, "Write quorum size for USER_CONFIG")
		nr       = fs.Int("nr", 0, "Read quorum size for USER_CONFIG")
		interval = fs.Duration("update-frequency", def.UpdateFrequency, "Anti-entropy interval (0 disables)")
		dataDir  = fs.String("data-dir", def.DataDir, "Directory for stored files")
		backend  = fs.String("backend", string(def.Backend), "Storage backend: disk, badger or memory")
		level    = fs.String("log-level", def.LogLevel, "Log level")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := def
	if *path != "" {
		loaded, err := config.Load(*path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.Listen = *listen
		case "advertise":
			cfg.Advertise = *adv
		case "coordinator":
			cfg.Coordinator = *coord
		case "role":
			cfg.Role = config.Role(*role)
		case "n":
			cfg.N = *n
		case "minimum-n":
			cfg.MinimumN = *minN
		case "quorum-selection":
			cfg.QuorumSelection = *mode
		case "nw":
			cfg.Nw = *nw
		case "nr":
			cfg.Nr = *nr
		case "update-frequency":
			cfg.UpdateFrequency = *interval
		case "data-dir":
			cfg.DataDir = *dataDir
		case "backend":
			cfg.Backend = storage.Kind(*backend)
		case "log-level":
			cfg.LogLevel = *level
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
