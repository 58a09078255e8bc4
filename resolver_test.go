package ptb

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/moznion/go-optional"
)

const testPackage = "0xbeef"

func poolType() MoveType {
	return structType(testPackage, "pool", "Pool", typeParam(0))
}

func resolveOnly(t *testing.T, b *Builder, p Provider, opts ...BuildOption) error {
	t.Helper()
	cfg := b.buildConfig(append([]BuildOption{WithProvider(p)}, opts...))
	return b.resolve(context.Background(), cfg)
}

func TestResolveSharedMutabilityMerge(t *testing.T) {
	tests := []struct {
		name   string
		params []MoveType
		want   bool
	}{
		{"immutable then mutable", []MoveType{refType(poolType()), mutRefType(poolType())}, true},
		{"mutable then immutable", []MoveType{mutRefType(poolType()), refType(poolType())}, true},
		{"immutable twice", []MoveType{refType(poolType()), refType(poolType())}, false},
		{"by value", []MoveType{poolType(), refType(poolType())}, true},
		{"generic by value", []MoveType{typeParam(0), refType(poolType())}, true},
		{"generic mutable reference", []MoveType{mutRefType(typeParam(0)), refType(poolType())}, true},
		{"generic immutable reference", []MoveType{refType(typeParam(0)), refType(typeParam(0))}, false},
		{"generic immutable then mutable", []MoveType{refType(typeParam(0)), mutRefType(typeParam(0))}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockProvider()
			mock.addShared("0x50", 7)
			mock.addFunction(testPackage+"::pool::first", tt.params[0], txContextParam())
			mock.addFunction(testPackage+"::pool::second", tt.params[1])

			b := New()
			pool := b.Object("0x50")
			b.MoveCall(MustMoveCall(testPackage+"::pool::first", nil, pool))
			b.MoveCall(MustMoveCall(testPackage+"::pool::second", nil, b.Object("0x50")))

			if err := resolveOnly(t, b, mock); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			inputs := b.Inputs()
			if len(inputs) != 1 {
				t.Fatalf("Expected a single input, got %d", len(inputs))
			}
			shared, ok := inputs[0].Value.(ResolvedShared)
			if !ok {
				t.Fatalf("Expected ResolvedShared, got %T", inputs[0].Value)
			}
			if shared.Mutable != tt.want {
				t.Errorf("Expected mutable=%v, got %v", tt.want, shared.Mutable)
			}
			if shared.InitialSharedVersion != 7 {
				t.Errorf("Expected initial shared version 7, got %d", shared.InitialSharedVersion)
			}
			if mock.calls["MultiGetObjects"] != 1 {
				t.Errorf("Expected ids to be fetched once, got %d calls", mock.calls["MultiGetObjects"])
			}
			if len(mock.chunks[0]) != 1 {
				t.Errorf("Expected deduplicated id list, got %v", mock.chunks[0])
			}
		})
	}
}

func TestResolveSharedWithoutCall(t *testing.T) {
	mock := newMockProvider()
	mock.addShared("0x6", 1)

	b := New()
	clock := b.Object("0x6")
	b.MakeMoveVec(optional.Some("0x2::clock::Clock"), clock)

	if err := resolveOnly(t, b, mock); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	shared := b.Inputs()[0].Value.(ResolvedShared)
	if shared.Mutable {
		t.Error("Expected shared object outside any call to be immutable")
	}
	if mock.calls["NormalizedMoveFunction"] != 0 {
		t.Errorf("Expected no signature lookups, got %d", mock.calls["NormalizedMoveFunction"])
	}
}

func TestResolveOwnedObject(t *testing.T) {
	mock := newMockProvider()
	mock.addOwned("0x99", 12)
	mock.addFunction("0x2::coin::value", refType(structType("0x2", "coin", "Coin", typeParam(0))))

	b := New()
	b.MoveCall(MustMoveCall("0x2::coin::value", []string{"0x2::sui::SUI"}, b.Object("0x99")))

	if err := resolveOnly(t, b, mock); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	owned, ok := b.Inputs()[0].Value.(ResolvedOwned)
	if !ok {
		t.Fatalf("Expected ResolvedOwned, got %T", b.Inputs()[0].Value)
	}
	if owned.Ref.ObjectID != testID(0x99) || owned.Ref.Version != 12 || owned.Ref.Digest != testDigest(12) {
		t.Errorf("Unexpected object ref %+v", owned.Ref)
	}
}

func TestResolvePureArguments(t *testing.T) {
	mock := newMockProvider()
	mock.addFunction(testPackage+"::config::set",
		primType("U64"),
		primType("Address"),
		vectorType(primType("U8")),
		structType("0x1", "string", "String"),
		structType("0x1", "option", "Option", primType("U16")),
		txContextParam(),
	)

	b := New()
	b.MoveCall(MustMoveCall(testPackage+"::config::set", nil,
		b.Pure(uint64(5)),
		b.Pure("0x2"),
		b.Pure("hi"),
		b.Pure("name"),
		b.Pure(nil),
	))

	if err := resolveOnly(t, b, mock); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []string{
		"0500000000000000",
		strings.Repeat("00", 31) + "02",
		"026869",
		"046e616d65",
		"00",
	}
	for i, in := range b.Inputs() {
		p, ok := in.Value.(ResolvedPure)
		if !ok {
			t.Fatalf("input %d: expected ResolvedPure, got %T", i, in.Value)
		}
		if hex.EncodeToString(p.Bytes) != want[i] {
			t.Errorf("input %d: expected %s, got %x", i, want[i], p.Bytes)
		}
	}
	if mock.calls["MultiGetObjects"] != 0 {
		t.Errorf("Expected no object lookups, got %d", mock.calls["MultiGetObjects"])
	}
}

func TestResolvePureInputAsObject(t *testing.T) {
	mock := newMockProvider()
	mock.addOwned("0x77", 3)
	mock.addFunction(testPackage+"::pool::burn", poolType())

	b := New()
	b.MoveCall(MustMoveCall(testPackage+"::pool::burn", nil, b.Pure("0x77")))

	if err := resolveOnly(t, b, mock); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	in := b.Inputs()[0]
	if in.Kind != InputKindObject {
		t.Errorf("Expected input to become an object input, got %s", in.Kind)
	}
	if _, ok := in.Value.(ResolvedOwned); !ok {
		t.Errorf("Expected ResolvedOwned, got %T", in.Value)
	}
}

func TestResolveSplitAndTransferScalars(t *testing.T) {
	mock := newMockProvider()

	b := New()
	coin := b.SplitCoins(b.Gas(), b.Pure(100), b.Pure("200"))
	b.TransferObjects([]Argument{coin}, b.Pure("0xabc"))

	if err := resolveOnly(t, b, mock); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []string{
		"6400000000000000",
		"c800000000000000",
		strings.Repeat("00", 30) + "0abc",
	}
	for i, in := range b.Inputs() {
		p, ok := in.Value.(ResolvedPure)
		if !ok {
			t.Fatalf("input %d: expected ResolvedPure, got %T", i, in.Value)
		}
		if hex.EncodeToString(p.Bytes) != want[i] {
			t.Errorf("input %d: expected %s, got %x", i, want[i], p.Bytes)
		}
	}
	if mock.totalCalls() != 0 {
		t.Errorf("Expected no network calls, got %v", mock.calls)
	}
}

func TestResolveArgumentCountMismatch(t *testing.T) {
	mock := newMockProvider()
	mock.addFunction("0x2::coin::split", mutRefType(structType("0x2", "coin", "Coin", typeParam(0))), primType("U64"), txContextParam())

	b := New()
	b.MoveCall(MustMoveCall("0x2::coin::split", []string{"0x2::sui::SUI"}, b.Object("0x5")))

	err := resolveOnly(t, b, mock)
	var mismatch *ArgumentCountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Expected ArgumentCountMismatchError, got %v", err)
	}
	if mismatch.Expected != 2 || mismatch.Got != 1 {
		t.Errorf("Expected 2 vs 1, got %d vs %d", mismatch.Expected, mismatch.Got)
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.CommandIndex != 0 {
		t.Errorf("Expected CommandError for command 0, got %v", err)
	}
}

func TestResolveInvalidObjectID(t *testing.T) {
	mock := newMockProvider()
	mock.addFunction(testPackage+"::pool::burn", poolType())

	b := New()
	b.MoveCall(MustMoveCall(testPackage+"::pool::burn", nil, b.Pure(42)))

	err := resolveOnly(t, b, mock)
	var invalid *InvalidObjectIDError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected InvalidObjectIDError, got %v", err)
	}
	if invalid.Value != 42 {
		t.Errorf("Expected offending value 42, got %v", invalid.Value)
	}
}

func TestResolveUnknownCallArgType(t *testing.T) {
	mock := newMockProvider()
	mock.addFunction(testPackage+"::pool::burn_all", vectorType(poolType()))

	b := New()
	b.MoveCall(MustMoveCall(testPackage+"::pool::burn_all", nil, b.Pure("0x1")))

	if err := resolveOnly(t, b, mock); !errors.Is(err, ErrUnknownCallArgType) {
		t.Errorf("Expected ErrUnknownCallArgType, got %v", err)
	}
}

func TestResolveInvalidObjects(t *testing.T) {
	mock := newMockProvider()
	mock.addOwned("0x1", 1)

	b := New()
	b.MergeCoins(b.Object("0x1"), b.Object("0x2"), b.Object("0x3"))

	err := resolveOnly(t, b, mock)
	var invalid *InvalidObjectError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected InvalidObjectError, got %v", err)
	}
	if len(invalid.IDs) != 2 || invalid.IDs[0] != testID(2) || invalid.IDs[1] != testID(3) {
		t.Errorf("Expected ids 0x2 and 0x3, got %v", invalid.IDs)
	}
	if !strings.Contains(err.Error(), testID(3)) {
		t.Errorf("Expected message to name %s, got %q", testID(3), err.Error())
	}
}

func TestResolveChunkedFetch(t *testing.T) {
	mock := newMockProvider()
	var coins []Argument
	b := New()
	for i := 1; i <= 5; i++ {
		mock.addOwned(testID(0x100+i), uint64(i))
		coins = append(coins, b.Object(testID(0x100+i)))
	}
	b.MergeCoins(b.Gas(), coins...)

	if err := resolveOnly(t, b, mock, WithLimits(map[LimitKey]uint64{LimitMaxObjectsPerFetch: 2})); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(mock.chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(mock.chunks))
	}
	sizes := []int{2, 2, 1}
	for i, chunk := range mock.chunks {
		if len(chunk) != sizes[i] {
			t.Errorf("chunk %d: expected %d ids, got %d", i, sizes[i], len(chunk))
		}
	}
	if mock.chunks[0][0] != testID(0x101) || mock.chunks[2][0] != testID(0x105) {
		t.Errorf("Expected ids in insertion order, got %v", mock.chunks)
	}
}

func TestResolveChunkSizeAboveIDCount(t *testing.T) {
	for _, size := range []uint64{5, 1 << 40, math.MaxUint64} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			mock := newMockProvider()
			var coins []Argument
			b := New()
			for i := 1; i <= 3; i++ {
				mock.addOwned(testID(0x200+i), uint64(i))
				coins = append(coins, b.Object(testID(0x200+i)))
			}
			b.MergeCoins(b.Gas(), coins...)

			if err := resolveOnly(t, b, mock, WithLimits(map[LimitKey]uint64{LimitMaxObjectsPerFetch: size})); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(mock.chunks) != 1 || len(mock.chunks[0]) != 3 {
				t.Errorf("Expected a single chunk of 3 ids, got %v", mock.chunks)
			}
		})
	}
}

func TestResolveSkipsResolvedInputs(t *testing.T) {
	mock := newMockProvider()

	b := New()
	b.MoveCall(MustMoveCall("0x2::coin::value", nil,
		b.ObjectRef(ObjectRef{ObjectID: "0x9", Version: 1, Digest: testDigest(1)}),
		b.PureBytes([]byte{1}),
	))

	if err := resolveOnly(t, b, mock); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if mock.totalCalls() != 0 {
		t.Errorf("Expected no network calls for resolved inputs, got %v", mock.calls)
	}
}

func TestResolveInputRefOutOfRange(t *testing.T) {
	b := New()
	b.MergeCoins(b.Gas(), InputRef{Index: 3})

	if err := resolveOnly(t, b, newMockProvider()); err == nil {
		t.Error("Expected error for dangling input reference")
	}
}

func TestResolvePureTooLarge(t *testing.T) {
	b := New()
	b.PureBytes(make([]byte, 65))

	err := resolveOnly(t, b, newMockProvider(), WithLimits(map[LimitKey]uint64{LimitMaxPureArgumentSize: 64}))
	if !errors.Is(err, ErrPureArgumentTooLarge) {
		t.Errorf("Expected ErrPureArgumentTooLarge, got %v", err)
	}
}

func TestResolveWithoutProvider(t *testing.T) {
	b := New()
	b.MergeCoins(b.Gas(), b.Object("0x1"))

	err := b.resolve(context.Background(), b.buildConfig(nil))
	if !errors.Is(err, ErrMissingProvider) {
		t.Errorf("Expected ErrMissingProvider, got %v", err)
	}
}
