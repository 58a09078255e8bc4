package rpcprovider

import (
	"context"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	ptb "github.com/branched-services/go-ptb"
)

const (
	// DefaultFunctionCacheSize bounds the number of cached Move function signatures.
	DefaultFunctionCacheSize = 512

	// DefaultProtocolConfigTTL is how long a fetched protocol config is reused.
	DefaultProtocolConfigTTL = 10 * time.Minute
)

// CachedProvider memoizes lookups whose answers do not change within a
// package version or an epoch: normalized Move functions and the protocol
// config. Concurrent identical lookups share a single request. Everything
// else is passed through.
type CachedProvider struct {
	ptb.Provider

	functions *lru.Cache[string, *ptb.MoveFunction]
	group     singleflight.Group

	ttl        time.Duration
	now        func() time.Time
	mu         sync.Mutex
	protocol   *ptb.ProtocolConfig
	protocolAt time.Time
}

// NewCachedProvider wraps p with a function cache of the given size.
func NewCachedProvider(p ptb.Provider, size int, protocolTTL time.Duration) (*CachedProvider, error) {
	if size <= 0 {
		size = DefaultFunctionCacheSize
	}
	if protocolTTL <= 0 {
		protocolTTL = DefaultProtocolConfigTTL
	}
	functions, err := lru.New[string, *ptb.MoveFunction](size)
	if err != nil {
		return nil, err
	}
	return &CachedProvider{
		Provider:  p,
		functions: functions,
		ttl:       protocolTTL,
		now:       time.Now,
	}, nil
}

// NormalizedMoveFunction implements ptb.Provider.
func (c *CachedProvider) NormalizedMoveFunction(ctx context.Context, pkg, module, function string) (*ptb.MoveFunction, error) {
	key := strings.Join([]string{ptb.NormalizeAddress(pkg), module, function}, "::")
	if fn, ok := c.functions.Get(key); ok {
		return fn, nil
	}

	v, err, _ := c.group.Do("fn:"+key, func() (any, error) {
		fn, err := c.Provider.NormalizedMoveFunction(ctx, pkg, module, function)
		if err != nil {
			return nil, err
		}
		c.functions.Add(key, fn)
		return fn, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ptb.MoveFunction), nil
}

// ProtocolConfig implements ptb.Provider.
func (c *CachedProvider) ProtocolConfig(ctx context.Context) (*ptb.ProtocolConfig, error) {
	c.mu.Lock()
	if c.protocol != nil && c.now().Sub(c.protocolAt) < c.ttl {
		cfg := c.protocol
		c.mu.Unlock()
		return cfg, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("protocol", func() (any, error) {
		cfg, err := c.Provider.ProtocolConfig(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.protocol = cfg
		c.protocolAt = c.now()
		c.mu.Unlock()
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ptb.ProtocolConfig), nil
}

// Purge drops every cached entry.
func (c *CachedProvider) Purge() {
	c.functions.Purge()
	c.mu.Lock()
	c.protocol = nil
	c.mu.Unlock()
}
