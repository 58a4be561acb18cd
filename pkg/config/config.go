// Package config provides a reusable loader for state-transition-node
// configuration files and environment variables.
//
// Version: v0.1.0
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/jamstf/jam-stf/core"
	"github.com/jamstf/jam-stf/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for a node process. It mirrors
// the structure of the default.yaml that Load reads from cmd/config or
// config.
type Config struct {
	Preset string `mapstructure:"preset" json:"preset"`

	Params struct {
		ValidatorsCount         int    `mapstructure:"validators_count" json:"validators_count"`
		EpochLength             int    `mapstructure:"epoch_length" json:"epoch_length"`
		CoreCount               int    `mapstructure:"core_count" json:"core_count"`
		MaxAuthPoolItems        int    `mapstructure:"max_authorizations_pool_items" json:"max_authorizations_pool_items"`
		MaxAuthQueueItems       int    `mapstructure:"max_authorizations_queue_items" json:"max_authorizations_queue_items"`
		RecentHistorySize       int    `mapstructure:"recent_history_size" json:"recent_history_size"`
		AvailBitfieldBytes      int    `mapstructure:"avail_bitfield_bytes" json:"avail_bitfield_bytes"`
		GasAllocAccumulation    uint64 `mapstructure:"gas_alloc_accumulation" json:"gas_alloc_accumulation"`
		ValidatorsSuperMajority int    `mapstructure:"validators_super_majority" json:"validators_super_majority"`
		MaxTicketAttempts       int    `mapstructure:"max_ticket_attempts" json:"max_ticket_attempts"`
		ReportTimeoutSlots      uint32 `mapstructure:"report_timeout_slots" json:"report_timeout_slots"`
		RotationPeriod          uint32 `mapstructure:"rotation_period" json:"rotation_period"`
		LookupAnchorWindow      uint32 `mapstructure:"lookup_anchor_window" json:"lookup_anchor_window"`
	} `mapstructure:"params" json:"params"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment-specific
// overrides. The resulting configuration is stored in AppConfig and
// returned.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the JAM_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("JAM_ENV", ""))
}

// ResolveParams turns a loaded Config into core.Params: the named preset
// ("tiny", "full"; TINY when the name is empty or unknown) is the base,
// and every non-zero field of c.Params overrides it, a merge-then-resolve
// layering against the STF's own preset table instead of YAML alone.
func ResolveParams(c *Config) core.Params {
	params, ok := core.PresetByName(c.Preset)
	if !ok {
		params = core.TinyParams()
	}

	if c.Params.ValidatorsCount != 0 {
		params.ValidatorsCount = c.Params.ValidatorsCount
	}
	if c.Params.EpochLength != 0 {
		params.EpochLength = c.Params.EpochLength
	}
	if c.Params.CoreCount != 0 {
		params.CoreCount = c.Params.CoreCount
	}
	if c.Params.MaxAuthPoolItems != 0 {
		params.MaxAuthPoolItems = c.Params.MaxAuthPoolItems
	}
	if c.Params.MaxAuthQueueItems != 0 {
		params.MaxAuthQueueItems = c.Params.MaxAuthQueueItems
	}
	if c.Params.RecentHistorySize != 0 {
		params.RecentHistorySize = c.Params.RecentHistorySize
	}
	if c.Params.AvailBitfieldBytes != 0 {
		params.AvailBitfieldBytes = c.Params.AvailBitfieldBytes
	}
	if c.Params.GasAllocAccumulation != 0 {
		params.GasAllocAccumulation = c.Params.GasAllocAccumulation
	}
	if c.Params.MaxTicketAttempts != 0 {
		params.MaxTicketAttempts = c.Params.MaxTicketAttempts
	}
	if c.Params.ReportTimeoutSlots != 0 {
		params.ReportTimeoutSlots = c.Params.ReportTimeoutSlots
	}
	if c.Params.RotationPeriod != 0 {
		params.RotationPeriod = c.Params.RotationPeriod
	}
	if c.Params.LookupAnchorWindow != 0 {
		params.LookupAnchorWindow = c.Params.LookupAnchorWindow
	}

	// Per-field environment overrides take precedence over both the named
	// preset and the YAML-sourced Config above, for operators pinning a
	// single parameter without maintaining a config-file fork.
	params.ValidatorsCount = utils.EnvOrDefaultInt("JAM_VALIDATORS_COUNT", params.ValidatorsCount)
	params.GasAllocAccumulation = utils.EnvOrDefaultUint64("JAM_GAS_ALLOC_ACCUMULATION", params.GasAllocAccumulation)
	return params
}
