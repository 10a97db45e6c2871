// Package config holds the node's runtime configuration, parsed from flags
// via spf13/pflag with defaults matching spec.md §6.
package config

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/iotaledger/hornet-core/packages/model/milestone"
)

// Flag keys, dotted to match the teacher's config key naming.
const (
	KeyMWM                           = "mwm"
	KeyCoordinatorDepth              = "coordinator.depth"
	KeyCoordinatorPublicKey          = "coordinator.public_key"
	KeyCoordinatorSecurityLevel      = "coordinator.security_level"
	KeyCoordinatorSpongeType         = "coordinator.sponge_type"
	KeyWorkersTransactionWorkerCache = "workers.transaction_worker_cache"
	KeyWorkersReceiverWorkerBound    = "workers.receiver_worker_bound"
	KeyWorkersStatusInterval         = "workers.status_interval"
	KeyHandshakeWindow               = "handshake_window"
)

// Defaults, per spec.md §6.
const (
	DefaultMWM                      = 14
	DefaultCoordinatorDepth         = 24
	DefaultCoordinatorSecurityLevel = 2
	DefaultTransactionWorkerCache   = 10000
	DefaultReceiverWorkerBound      = 500
	DefaultStatusIntervalSeconds    = 10
	DefaultHandshakeWindowSeconds   = 5
)

// NodeConfig is the typed configuration holder components pull values from,
// mirroring the `config.NodeConfig.GetInt(...)` access pattern used across
// the pack's inx-coordinator-style plugins.
type NodeConfig struct {
	flags *pflag.FlagSet
}

// New creates a NodeConfig with every flag registered at its spec.md
// default. Callers may Parse additional arguments before reading values.
func New() *NodeConfig {
	fs := pflag.NewFlagSet("hornet-core", pflag.ContinueOnError)
	fs.Int(KeyMWM, DefaultMWM, "minimum trailing-zero trits required on a valid transaction hash")
	fs.Int(KeyCoordinatorDepth, DefaultCoordinatorDepth, "coordinator milestone depth")
	fs.String(KeyCoordinatorPublicKey, "", "coordinator WOTS public key address")
	fs.Int(KeyCoordinatorSecurityLevel, DefaultCoordinatorSecurityLevel, "coordinator WOTS security level")
	fs.String(KeyCoordinatorSpongeType, string(milestone.SpongeKerl), "sponge used for milestone hashing (kerl, curl27, curl81)")
	fs.Int(KeyWorkersTransactionWorkerCache, DefaultTransactionWorkerCache, "max in-flight hasher tasks")
	fs.Int(KeyWorkersReceiverWorkerBound, DefaultReceiverWorkerBound, "per-peer input queue capacity")
	fs.Int(KeyWorkersStatusInterval, DefaultStatusIntervalSeconds, "seconds between status logs")
	fs.Int(KeyHandshakeWindow, DefaultHandshakeWindowSeconds, "seconds allowed to exchange handshakes")
	return &NodeConfig{flags: fs}
}

// Parse parses args (typically os.Args[1:]) into the flag set. Unknown or
// malformed flags fall back to defaults with a warn log by the caller,
// rather than refusing to start, per spec.md §7.
func (c *NodeConfig) Parse(args []string) error {
	return c.flags.Parse(args)
}

func (c *NodeConfig) GetInt(key string) int {
	v, err := c.flags.GetInt(key)
	if err != nil {
		return 0
	}
	return v
}

func (c *NodeConfig) GetString(key string) string {
	v, err := c.flags.GetString(key)
	if err != nil {
		return ""
	}
	return v
}

func (c *NodeConfig) MWM() int { return c.GetInt(KeyMWM) }

func (c *NodeConfig) CoordinatorDepth() int { return c.GetInt(KeyCoordinatorDepth) }

func (c *NodeConfig) CoordinatorPublicKey() string { return c.GetString(KeyCoordinatorPublicKey) }

func (c *NodeConfig) CoordinatorSecurityLevel() int { return c.GetInt(KeyCoordinatorSecurityLevel) }

func (c *NodeConfig) CoordinatorSpongeType() milestone.SpongeType {
	return milestone.SpongeType(c.GetString(KeyCoordinatorSpongeType))
}

func (c *NodeConfig) TransactionWorkerCache() int { return c.GetInt(KeyWorkersTransactionWorkerCache) }

func (c *NodeConfig) ReceiverWorkerBound() int { return c.GetInt(KeyWorkersReceiverWorkerBound) }

func (c *NodeConfig) StatusInterval() time.Duration {
	return time.Duration(c.GetInt(KeyWorkersStatusInterval)) * time.Second
}

func (c *NodeConfig) HandshakeWindow() time.Duration {
	return time.Duration(c.GetInt(KeyHandshakeWindow)) * time.Second
}
