// Package config loads go-ptb settings from a file and PTB_* environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	ptb "github.com/branched-services/go-ptb"
	"github.com/branched-services/go-ptb/rpcprovider"
)

// EnvPrefix is prepended to environment variable names, e.g. PTB_RPC_URL.
const EnvPrefix = "PTB"

// Config is the file and environment configuration.
type Config struct {
	RPC    RPCConfig         `mapstructure:"rpc"`
	Cache  CacheConfig       `mapstructure:"cache"`
	Poll   PollConfig        `mapstructure:"poll"`
	Sender string            `mapstructure:"sender" validate:"omitempty,sui_address"`
	Limits map[string]uint64 `mapstructure:"limits" validate:"dive,keys,limit_key,endkeys"`
}

// RPCConfig configures the JSON-RPC transport.
type RPCConfig struct {
	URL          string        `mapstructure:"url" validate:"required,url"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RetryMax     int           `mapstructure:"retry_max" validate:"gte=0,lte=10"`
	RetryWaitMin time.Duration `mapstructure:"retry_wait_min" validate:"gt=0"`
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max" validate:"gtefield=RetryWaitMin"`
}

// CacheConfig configures the provider cache.
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Functions   int           `mapstructure:"functions" validate:"gte=0"`
	ProtocolTTL time.Duration `mapstructure:"protocol_ttl" validate:"gte=0"`
}

// PollConfig configures confirmation polling.
type PollConfig struct {
	Attempts int           `mapstructure:"attempts" validate:"gte=1"`
	MinWait  time.Duration `mapstructure:"min_wait" validate:"gt=0"`
	MaxWait  time.Duration `mapstructure:"max_wait" validate:"gtefield=MinWait"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("sui_address", func(fl validator.FieldLevel) bool {
		return ptb.IsValidAddress(fl.Field().String())
	})
	v.RegisterValidation("limit_key", func(fl validator.FieldLevel) bool {
		_, ok := ptb.DefaultLimit(ptb.LimitKey(fl.Field().String()))
		return ok
	})
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("rpc.url", "")
	v.SetDefault("rpc.timeout", 30*time.Second)
	v.SetDefault("rpc.retry_max", 3)
	v.SetDefault("rpc.retry_wait_min", 200*time.Millisecond)
	v.SetDefault("rpc.retry_wait_max", 2*time.Second)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.functions", rpcprovider.DefaultFunctionCacheSize)
	v.SetDefault("cache.protocol_ttl", rpcprovider.DefaultProtocolConfigTTL)
	v.SetDefault("poll.attempts", rpcprovider.DefaultPollConfig.Attempts)
	v.SetDefault("poll.min_wait", rpcprovider.DefaultPollConfig.MinWait)
	v.SetDefault("poll.max_wait", rpcprovider.DefaultPollConfig.MaxWait)
	v.SetDefault("sender", "")
}

// Load reads path, if not empty, then applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("config: invalid fields: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// SenderAddress returns the configured sender, if any.
func (c *Config) SenderAddress() (ptb.Address, bool) {
	if c.Sender == "" {
		return ptb.Address{}, false
	}
	addr, err := ptb.ParseAddress(c.Sender)
	return addr, err == nil
}

// ProviderOptions returns the transport options for rpcprovider.Dial.
func (c *Config) ProviderOptions(logger log.Logger) []rpcprovider.Option {
	opts := []rpcprovider.Option{
		rpcprovider.WithRetry(c.RPC.RetryMax, c.RPC.RetryWaitMin, c.RPC.RetryWaitMax),
		rpcprovider.WithTimeout(c.RPC.Timeout),
	}
	if logger != nil {
		opts = append(opts, rpcprovider.WithLogger(logger))
	}
	return opts
}

// PollConfig returns the confirmation polling settings.
func (c *Config) PollConfig() rpcprovider.PollConfig {
	return rpcprovider.PollConfig{
		Attempts: c.Poll.Attempts,
		MinWait:  c.Poll.MinWait,
		MaxWait:  c.Poll.MaxWait,
	}
}

// Dial connects to the configured node. The first result is the provider to
// build with, cached when caching is enabled. The second is the underlying
// node client, used for execution and polling, and must be closed.
func (c *Config) Dial(ctx context.Context, logger log.Logger) (ptb.Provider, *rpcprovider.Provider, error) {
	node, err := rpcprovider.Dial(ctx, c.RPC.URL, c.ProviderOptions(logger)...)
	if err != nil {
		return nil, nil, err
	}
	if !c.Cache.Enabled {
		return node, node, nil
	}
	cached, err := rpcprovider.NewCachedProvider(node, c.Cache.Functions, c.Cache.ProtocolTTL)
	if err != nil {
		node.Close()
		return nil, nil, err
	}
	return cached, node, nil
}

// BuildOptions turns the configuration into build options for p.
func (c *Config) BuildOptions(p ptb.Provider) []ptb.BuildOption {
	var opts []ptb.BuildOption
	if p != nil {
		opts = append(opts, ptb.WithProvider(p))
	}
	if len(c.Limits) > 0 {
		limits := make(map[ptb.LimitKey]uint64, len(c.Limits))
		for k, v := range c.Limits {
			limits[ptb.LimitKey(k)] = v
		}
		opts = append(opts, ptb.WithLimits(limits))
	}
	return opts
}
