// Package ptb builds Sui programmable transaction blocks.
//
// A programmable transaction block is an ordered list of commands plus an
// ordered list of inputs, executed atomically. This package lets you describe
// one with values that are not known yet (object ids without versions, pure
// values without types, results of earlier commands), resolves them against
// chain state, sizes the gas budget and emits the canonical BCS bytes ready
// for signing.
//
// # Basic Usage
//
// Create a builder, add inputs and commands, then build:
//
//	b := ptb.New()
//	b.SetSender(sender)
//
//	coin := b.SplitCoins(b.Gas(), b.Pure(uint64(1_000_000)))
//	b.TransferObjects([]ptb.Argument{coin}, b.Pure(recipient.Hex()))
//
//	txBytes, err := b.Build(ctx, ptb.WithProvider(provider))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Inputs
//
// Inputs are appended with a stable index that is never reused:
//
//   - Pure(raw): a value whose Move type comes from the call that uses it
//   - PureTyped(raw, "vector<u64>"): a value serialized immediately
//   - PureBytes(bcs): an already serialized value
//   - Object(id): an object whose version, digest and ownership are looked up
//   - ObjectRef / SharedObjectRef: fully specified objects
//
// Object inputs with the same id share one input. When a shared object is used
// both by immutable reference and by mutable reference or by value, it is
// passed as mutable.
//
// # Results
//
// Each command returns a Result. Commands that return several values can be
// addressed slot by slot:
//
//	outs := b.MoveCall(call, ptb.WithResults(2)) // NestedResult slots 0 and 1
//	second := b.Project(ptb.Result{CommandIndex: 3}).Nested(1)
//
// # Preparation
//
// Build and Digest call Prepare, which runs once per builder:
//
//  1. fetch the protocol config, unless limits or a config were supplied
//  2. fetch the reference gas price, unless a price is set
//  3. resolve Move call signatures and objects, in sequential batches
//  4. select gas coins, unless a payment is set
//  5. dry run with the maximum budget and derive the real budget
//
// OnlyTransactionKind skips everything that needs a sender or gas data.
//
// A Builder is meant for a single goroutine. Concurrent calls to Prepare,
// Build or Digest on the same Builder are not supported.
package ptb
