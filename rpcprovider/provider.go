// Package rpcprovider implements ptb.Provider over a Sui full node's JSON-RPC API.
package rpcprovider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/moznion/go-optional"

	ptb "github.com/branched-services/go-ptb"
)

const (
	defaultCoinPageSize = 50
	defaultRetryMax     = 3
	defaultRetryWaitMin = 200 * time.Millisecond
	defaultRetryWaitMax = 2 * time.Second
)

// Provider talks to a Sui node. It is safe for concurrent use.
type Provider struct {
	client       *rpc.Client
	logger       log.Logger
	coinPageSize int

	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	timeout      time.Duration
	httpClient   *http.Client
}

var _ ptb.Provider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger. The default is log.Root().
func WithLogger(l log.Logger) Option {
	return func(p *Provider) {
		p.logger = l
	}
}

// WithRetry configures transport-level retries for Dial.
func WithRetry(max int, waitMin, waitMax time.Duration) Option {
	return func(p *Provider) {
		p.retryMax = max
		p.retryWaitMin = waitMin
		p.retryWaitMax = waitMax
	}
}

// WithTimeout bounds each HTTP attempt made by Dial's transport.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.timeout = d
	}
}

// WithHTTPClient makes Dial use c as is, bypassing the retrying transport.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithCoinPageSize sets the page size used when listing coins.
func WithCoinPageSize(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.coinPageSize = n
		}
	}
}

func newProvider(opts []Option) *Provider {
	p := &Provider{
		logger:       log.Root(),
		coinPageSize: defaultCoinPageSize,
		retryMax:     defaultRetryMax,
		retryWaitMin: defaultRetryWaitMin,
		retryWaitMax: defaultRetryWaitMax,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Dial connects to the node at url. HTTP requests are retried with
// exponential backoff on connection errors and 5xx responses.
func Dial(ctx context.Context, url string, opts ...Option) (*Provider, error) {
	p := newProvider(opts)

	httpClient := p.httpClient
	if httpClient == nil {
		rc := retryablehttp.NewClient()
		rc.RetryMax = p.retryMax
		rc.RetryWaitMin = p.retryWaitMin
		rc.RetryWaitMax = p.retryWaitMax
		rc.Logger = p.logger
		if p.timeout > 0 {
			rc.HTTPClient.Timeout = p.timeout
		}
		httpClient = rc.StandardClient()
	}

	client, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("rpcprovider: dial %s: %w", url, err)
	}
	p.client = client
	return p, nil
}

// New wraps an existing RPC client.
func New(client *rpc.Client, opts ...Option) *Provider {
	p := newProvider(opts)
	p.client = client
	return p
}

// Close closes the underlying client.
func (p *Provider) Close() {
	p.client.Close()
}

func (p *Provider) call(ctx context.Context, result any, method string, args ...any) error {
	start := time.Now()
	err := p.client.CallContext(ctx, result, method, args...)
	if err != nil {
		p.logger.Debug("RPC call failed", "method", method, "err", err)
		return fmt.Errorf("rpcprovider: %s: %w", method, err)
	}
	p.logger.Trace("RPC call", "method", method, "elapsed", time.Since(start))
	return nil
}

// ReferenceGasPrice implements ptb.Provider.
func (p *Provider) ReferenceGasPrice(ctx context.Context) (uint64, error) {
	var price quantity
	if err := p.call(ctx, &price, "suix_getReferenceGasPrice"); err != nil {
		return 0, err
	}
	return uint64(price), nil
}

// NormalizedMoveFunction implements ptb.Provider.
func (p *Provider) NormalizedMoveFunction(ctx context.Context, pkg, module, function string) (*ptb.MoveFunction, error) {
	var fn ptb.MoveFunction
	if err := p.call(ctx, &fn, "sui_getNormalizedMoveFunction", pkg, module, function); err != nil {
		return nil, err
	}
	return &fn, nil
}

type objectOptions struct {
	ShowType  bool `json:"showType"`
	ShowOwner bool `json:"showOwner"`
}

type objectResponse struct {
	Data  *objectData     `json:"data"`
	Error json.RawMessage `json:"error"`
}

type objectData struct {
	ObjectID string          `json:"objectId"`
	Version  quantity        `json:"version"`
	Digest   string          `json:"digest"`
	Type     string          `json:"type"`
	Owner    json.RawMessage `json:"owner"`
}

// MultiGetObjects implements ptb.Provider.
func (p *Provider) MultiGetObjects(ctx context.Context, ids []string) ([]ptb.ObjectInfo, error) {
	var resp []objectResponse
	if err := p.call(ctx, &resp, "sui_multiGetObjects", ids, objectOptions{ShowType: true, ShowOwner: true}); err != nil {
		return nil, err
	}
	if len(resp) != len(ids) {
		return nil, fmt.Errorf("%w: requested %d objects, got %d", ErrUnexpectedResponse, len(ids), len(resp))
	}

	out := make([]ptb.ObjectInfo, len(resp))
	for i, r := range resp {
		if r.Data == nil {
			out[i] = ptb.ObjectInfo{ObjectID: ids[i], Error: objectError(r.Error)}
			continue
		}
		shared, err := sharedVersion(r.Data.Owner)
		if err != nil {
			return nil, fmt.Errorf("rpcprovider: object %s: %w", r.Data.ObjectID, err)
		}
		out[i] = ptb.ObjectInfo{
			ObjectID:             r.Data.ObjectID,
			Version:              uint64(r.Data.Version),
			Digest:               ptb.ObjectDigest(r.Data.Digest),
			Type:                 r.Data.Type,
			InitialSharedVersion: shared,
		}
	}
	return out, nil
}

// objectError condenses the node's error object to its code.
func objectError(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "object not found"
	}
	var e struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(raw, &e); err == nil && e.Code != "" {
		return e.Code
	}
	return string(raw)
}

// sharedVersion extracts the initial shared version from an owner value.
// Owners are either a bare string such as "Immutable" or a single-key object.
func sharedVersion(raw json.RawMessage) (optional.Option[uint64], error) {
	if len(raw) == 0 || raw[0] == '"' || string(raw) == "null" {
		return optional.None[uint64](), nil
	}
	var owner struct {
		Shared *struct {
			InitialSharedVersion quantity `json:"initial_shared_version"`
		} `json:"Shared"`
	}
	if err := json.Unmarshal(raw, &owner); err != nil {
		return nil, fmt.Errorf("%w: owner %s", ErrUnexpectedResponse, raw)
	}
	if owner.Shared == nil {
		return optional.None[uint64](), nil
	}
	return optional.Some(uint64(owner.Shared.InitialSharedVersion)), nil
}

type coinPage struct {
	Data        []coinData `json:"data"`
	NextCursor  *string    `json:"nextCursor"`
	HasNextPage bool       `json:"hasNextPage"`
}

type coinData struct {
	CoinType     string   `json:"coinType"`
	CoinObjectID string   `json:"coinObjectId"`
	Version      quantity `json:"version"`
	Digest       string   `json:"digest"`
	Balance      string   `json:"balance"`
}

// CoinsOwnedBy implements ptb.Provider. It follows the cursor until the node
// reports no further pages.
func (p *Provider) CoinsOwnedBy(ctx context.Context, owner ptb.Address, coinType string) ([]ptb.Coin, error) {
	var (
		coins  []ptb.Coin
		cursor *string
	)
	for {
		var page coinPage
		if err := p.call(ctx, &page, "suix_getCoins", owner.Hex(), coinType, cursor, p.coinPageSize); err != nil {
			return nil, err
		}
		for _, c := range page.Data {
			coins = append(coins, ptb.Coin{
				CoinType:     c.CoinType,
				CoinObjectID: c.CoinObjectID,
				Version:      uint64(c.Version),
				Digest:       ptb.ObjectDigest(c.Digest),
				Balance:      c.Balance,
			})
		}
		if !page.HasNextPage || page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}
	p.logger.Trace("Listed coins", "owner", owner, "type", coinType, "count", len(coins))
	return coins, nil
}

type executionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type dryRunResponse struct {
	Effects struct {
		Status  executionStatus `json:"status"`
		GasUsed struct {
			ComputationCost quantity `json:"computationCost"`
			StorageCost     quantity `json:"storageCost"`
			StorageRebate   quantity `json:"storageRebate"`
		} `json:"gasUsed"`
	} `json:"effects"`
}

// DryRun implements ptb.Provider.
func (p *Provider) DryRun(ctx context.Context, txBytes []byte) (*ptb.DryRunResult, error) {
	var resp dryRunResponse
	if err := p.call(ctx, &resp, "sui_dryRunTransactionBlock", base64.StdEncoding.EncodeToString(txBytes)); err != nil {
		return nil, err
	}
	gas := resp.Effects.GasUsed
	return &ptb.DryRunResult{
		Success:         resp.Effects.Status.Status == "success",
		Error:           resp.Effects.Status.Error,
		ComputationCost: uint64(gas.ComputationCost),
		StorageCost:     uint64(gas.StorageCost),
		StorageRebate:   uint64(gas.StorageRebate),
	}, nil
}

type protocolConfigResponse struct {
	ProtocolVersion quantity                              `json:"protocolVersion"`
	FeatureFlags    map[string]bool                       `json:"featureFlags"`
	Attributes      map[string]map[string]json.RawMessage `json:"attributes"`
}

// ProtocolConfig implements ptb.Provider.
func (p *Provider) ProtocolConfig(ctx context.Context) (*ptb.ProtocolConfig, error) {
	var resp protocolConfigResponse
	if err := p.call(ctx, &resp, "sui_getProtocolConfig"); err != nil {
		return nil, err
	}
	cfg := &ptb.ProtocolConfig{
		ProtocolVersion: uint64(resp.ProtocolVersion),
		FeatureFlags:    resp.FeatureFlags,
		Attributes:      make(map[string]*ptb.ProtocolAttribute, len(resp.Attributes)),
	}
	for name, value := range resp.Attributes {
		attr, err := protocolAttribute(value)
		if err != nil {
			return nil, fmt.Errorf("rpcprovider: protocol attribute %s: %w", name, err)
		}
		cfg.Attributes[name] = attr
	}
	return cfg, nil
}

// protocolAttribute converts {"u64": "..."} style values. Unset attributes
// and non-numeric ones become nil.
func protocolAttribute(value map[string]json.RawMessage) (*ptb.ProtocolAttribute, error) {
	for kind, raw := range value {
		var s quantityString
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		switch kind {
		case "u64":
			v, err := strconv.ParseUint(string(s), 10, 64)
			if err != nil {
				return nil, err
			}
			return &ptb.ProtocolAttribute{U64: &v}, nil
		case "u32", "u16":
			v, err := strconv.ParseUint(string(s), 10, 32)
			if err != nil {
				return nil, err
			}
			u := uint32(v)
			return &ptb.ProtocolAttribute{U32: &u}, nil
		case "f64":
			v, err := strconv.ParseFloat(string(s), 64)
			if err != nil {
				return nil, err
			}
			return &ptb.ProtocolAttribute{F64: &v}, nil
		}
	}
	return nil, nil
}

// TransactionResponse is the outcome of an executed transaction.
type TransactionResponse struct {
	Digest  string
	Success bool
	Error   string
}

type transactionResponse struct {
	Digest  string `json:"digest"`
	Effects *struct {
		Status executionStatus `json:"status"`
	} `json:"effects"`
}

func (r *transactionResponse) convert() *TransactionResponse {
	out := &TransactionResponse{Digest: r.Digest}
	if r.Effects != nil {
		out.Success = r.Effects.Status.Status == "success"
		out.Error = r.Effects.Status.Error
	}
	return out
}

type effectsOptions struct {
	ShowEffects bool `json:"showEffects"`
}

// ExecuteTransactionBlock submits signed transaction data and waits for local execution.
func (p *Provider) ExecuteTransactionBlock(ctx context.Context, txBytes []byte, signatures []string) (*TransactionResponse, error) {
	var resp transactionResponse
	err := p.call(ctx, &resp, "sui_executeTransactionBlock",
		base64.StdEncoding.EncodeToString(txBytes),
		signatures,
		effectsOptions{ShowEffects: true},
		"WaitForLocalExecution",
	)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Executed transaction", "digest", resp.Digest)
	return resp.convert(), nil
}

// GetTransaction looks up an executed transaction by digest.
func (p *Provider) GetTransaction(ctx context.Context, digest string) (*TransactionResponse, error) {
	var resp transactionResponse
	if err := p.call(ctx, &resp, "sui_getTransactionBlock", digest, effectsOptions{ShowEffects: true}); err != nil {
		return nil, err
	}
	return resp.convert(), nil
}

// quantity decodes unsigned integers the node sends either as JSON numbers
// or as decimal strings.
type quantity uint64

func (q *quantity) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*q = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid quantity %s", ErrUnexpectedResponse, data)
	}
	*q = quantity(v)
	return nil
}

// quantityString keeps a number or string value as its decimal text.
type quantityString string

func (q *quantityString) UnmarshalJSON(data []byte) error {
	*q = quantityString(strings.Trim(string(data), `"`))
	return nil
}
