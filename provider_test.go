package ptb

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/moznion/go-optional"
)

// mockProvider serves fixed chain state and counts every call.
type mockProvider struct {
	gasPrice  uint64
	functions map[string]*MoveFunction
	objects   map[string]ObjectInfo
	coins     map[Address][]Coin
	dryRun    *DryRunResult
	protocol  *ProtocolConfig

	calls    map[string]int
	chunks   [][]string
	dryRunTx []byte
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		gasPrice:  1000,
		functions: make(map[string]*MoveFunction),
		objects:   make(map[string]ObjectInfo),
		coins:     make(map[Address][]Coin),
		dryRun: &DryRunResult{
			Success:         true,
			ComputationCost: 1_000_000,
			StorageCost:     2_000_000,
			StorageRebate:   500_000,
		},
		calls: make(map[string]int),
	}
}

func (m *mockProvider) totalCalls() int {
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *mockProvider) addFunction(target string, params ...MoveType) {
	pkg, module, fn, err := ParseTarget(target)
	if err != nil {
		panic(err)
	}
	m.functions[pkg+"::"+module+"::"+fn] = &MoveFunction{Visibility: "Public", IsEntry: true, Parameters: params}
}

func (m *mockProvider) addOwned(id string, version uint64) {
	id = NormalizeAddress(id)
	m.objects[id] = ObjectInfo{ObjectID: id, Version: version, Digest: testDigest(byte(version))}
}

func (m *mockProvider) addShared(id string, initialVersion uint64) {
	id = NormalizeAddress(id)
	m.objects[id] = ObjectInfo{
		ObjectID:             id,
		Version:              initialVersion + 10,
		Digest:               testDigest(byte(initialVersion)),
		InitialSharedVersion: optional.Some(initialVersion),
	}
}

func (m *mockProvider) ReferenceGasPrice(ctx context.Context) (uint64, error) {
	m.calls["ReferenceGasPrice"]++
	return m.gasPrice, nil
}

func (m *mockProvider) NormalizedMoveFunction(ctx context.Context, pkg, module, function string) (*MoveFunction, error) {
	m.calls["NormalizedMoveFunction"]++
	fn, ok := m.functions[NormalizeAddress(pkg)+"::"+module+"::"+function]
	if !ok {
		return nil, fmt.Errorf("function %s::%s::%s not found", pkg, module, function)
	}
	return fn, nil
}

func (m *mockProvider) MultiGetObjects(ctx context.Context, ids []string) ([]ObjectInfo, error) {
	m.calls["MultiGetObjects"]++
	m.chunks = append(m.chunks, append([]string{}, ids...))
	out := make([]ObjectInfo, len(ids))
	for i, id := range ids {
		info, ok := m.objects[NormalizeAddress(id)]
		if !ok {
			info = ObjectInfo{ObjectID: id, Error: "notExists"}
		}
		out[i] = info
	}
	return out, nil
}

func (m *mockProvider) CoinsOwnedBy(ctx context.Context, owner Address, coinType string) ([]Coin, error) {
	m.calls["CoinsOwnedBy"]++
	if coinType != SuiCoinType {
		return nil, errors.New("unexpected coin type")
	}
	return m.coins[owner], nil
}

func (m *mockProvider) DryRun(ctx context.Context, txBytes []byte) (*DryRunResult, error) {
	m.calls["DryRun"]++
	m.dryRunTx = bytes.Clone(txBytes)
	return m.dryRun, nil
}

func (m *mockProvider) ProtocolConfig(ctx context.Context) (*ProtocolConfig, error) {
	m.calls["ProtocolConfig"]++
	if m.protocol == nil {
		return nil, errors.New("protocol config unavailable")
	}
	return m.protocol, nil
}

// Fixtures.

func testAddress(n int) Address {
	return MustParseAddress(fmt.Sprintf("0x%x", n))
}

func testID(n int) string {
	return NormalizeAddress(fmt.Sprintf("0x%x", n))
}

func testDigest(seed byte) ObjectDigest {
	b := make([]byte, DigestLength)
	for i := range b {
		b[i] = seed + byte(i)
	}
	return DigestFromBytes(b)
}

func testCoins(ids ...int) []Coin {
	out := make([]Coin, len(ids))
	for i, id := range ids {
		out[i] = Coin{
			CoinType:     SuiCoinType,
			CoinObjectID: testID(id),
			Version:      uint64(id),
			Digest:       testDigest(byte(id)),
			Balance:      "1000000000",
		}
	}
	return out
}

func primType(name string) MoveType {
	return MoveType{Primitive: name}
}

func structType(addr, module, name string, typeArgs ...MoveType) MoveType {
	return MoveType{Struct: &MoveStruct{Address: addr, Module: module, Name: name, TypeArguments: typeArgs}}
}

func refType(t MoveType) MoveType {
	return MoveType{Reference: &t}
}

func mutRefType(t MoveType) MoveType {
	return MoveType{MutableReference: &t}
}

func vectorType(t MoveType) MoveType {
	return MoveType{Vector: &t}
}

func typeParam(i uint16) MoveType {
	return MoveType{TypeParameter: &i}
}

func txContextParam() MoveType {
	return mutRefType(structType("0x2", "tx_context", "TxContext"))
}

func testProtocolConfig() *ProtocolConfig {
	u64 := func(v uint64) *ProtocolAttribute { return &ProtocolAttribute{U64: &v} }
	return &ProtocolConfig{
		ProtocolVersion: 42,
		Attributes: map[string]*ProtocolAttribute{
			"max_tx_gas":              u64(50_000_000_000),
			"max_gas_payment_objects": u64(256),
			"max_tx_size_bytes":       u64(131072),
			"max_pure_argument_size":  u64(16384),
		},
	}
}
