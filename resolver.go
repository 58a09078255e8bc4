package ptb

import (
	"context"
	"fmt"
	"reflect"
	"sort"
)

// objectToResolve is an object input waiting for its live state. normalizedType
// is the parameter type it is passed as, or nil when it is not passed to a
// Move call.
type objectToResolve struct {
	id             string
	input          *Input
	normalizedType *MoveType
}

// resolve replaces every unresolved input with a pure value or an object
// reference read from the chain. Network calls are made strictly in sequence.
func (b *Builder) resolve(ctx context.Context, cfg *buildConfig) error {
	if err := b.checkInputRefs(); err != nil {
		return err
	}

	var objects []objectToResolve

	// Object inputs given as a bare id.
	for _, in := range b.inputs.inputs {
		if in.Kind != InputKindObject {
			continue
		}
		if u, ok := in.Value.(Unresolved); ok {
			if s, ok := u.Raw.(string); ok {
				objects = append(objects, objectToResolve{id: NormalizeAddress(s), input: in})
			}
		}
	}

	var moveCalls []int
	for i, cmd := range b.commands {
		switch c := cmd.(type) {
		case *MoveCall:
			if b.hasUnresolvedInput(c.Arguments) {
				moveCalls = append(moveCalls, i)
			}
		case *SplitCoins:
			for _, amount := range c.Amounts {
				if err := b.encodeScalarInput(amount, "U64"); err != nil {
					return &CommandError{CommandIndex: i, Kind: c.Kind(), Err: err}
				}
			}
		case *TransferObjects:
			if err := b.encodeScalarInput(c.Address, "Address"); err != nil {
				return &CommandError{CommandIndex: i, Kind: c.Kind(), Err: err}
			}
		}
	}

	for _, i := range moveCalls {
		queued, err := b.resolveMoveCall(ctx, cfg, b.commands[i].(*MoveCall))
		if err != nil {
			return &CommandError{CommandIndex: i, Kind: CommandMoveCall, Err: err}
		}
		objects = append(objects, queued...)
	}

	if len(objects) > 0 {
		if err := b.resolveObjects(ctx, cfg, objects); err != nil {
			return err
		}
	}

	sort.SliceStable(b.inputs.inputs, func(i, j int) bool {
		return b.inputs.inputs[i].Index < b.inputs.inputs[j].Index
	})

	return b.checkPureSizes(cfg)
}

// checkInputRefs rejects Input arguments pointing past the input list.
func (b *Builder) checkInputRefs() error {
	for i, cmd := range b.commands {
		for _, arg := range commandArguments(cmd) {
			if idx, ok := inputIndex(arg); ok && b.inputs.at(idx) == nil {
				return &CommandError{CommandIndex: i, Kind: cmd.Kind(), Err: fmt.Errorf("ptb: input %d does not exist", idx)}
			}
		}
	}
	return nil
}

func (b *Builder) hasUnresolvedInput(args []Argument) bool {
	for _, arg := range args {
		if idx, ok := inputIndex(arg); ok {
			if _, unresolved := b.inputs.at(idx).Value.(Unresolved); unresolved {
				return true
			}
		}
	}
	return false
}

// encodeScalarInput encodes an unresolved pure scalar input as prim.
func (b *Builder) encodeScalarInput(arg Argument, prim string) error {
	idx, ok := inputIndex(arg)
	if !ok {
		return nil
	}
	in := b.inputs.at(idx)
	u, ok := in.Value.(Unresolved)
	if !ok || in.Kind != InputKindPure || !isScalar(u.Raw) {
		return nil
	}
	bs, err := appendPrimitive(nil, prim, u.Raw)
	if err != nil {
		return err
	}
	in.Value = ResolvedPure{Bytes: bs}
	return nil
}

// isScalar reports whether raw is a single value rather than a collection.
func isScalar(raw any) bool {
	if raw == nil {
		return false
	}
	switch reflect.ValueOf(raw).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		return false
	}
	return true
}

// resolveMoveCall types the unresolved arguments of one call from the
// function signature. Pure arguments are encoded in place. Object arguments
// are returned for lookup.
func (b *Builder) resolveMoveCall(ctx context.Context, cfg *buildConfig, call *MoveCall) ([]objectToResolve, error) {
	if cfg.provider == nil {
		return nil, fmt.Errorf("%w: signature of %s", ErrMissingProvider, call.Target())
	}
	fn, err := cfg.provider.NormalizedMoveFunction(ctx, call.Package, call.Module, call.Function)
	if err != nil {
		return nil, fmt.Errorf("ptb: fetching signature of %s: %w", call.Target(), err)
	}

	params := fn.CallerParameters()
	if len(params) != len(call.Arguments) {
		return nil, &ArgumentCountMismatchError{Target: call.Target(), Expected: len(params), Got: len(call.Arguments)}
	}

	var objects []objectToResolve
	for i, param := range params {
		idx, ok := inputIndex(call.Arguments[i])
		if !ok {
			continue
		}
		in := b.inputs.at(idx)
		u, ok := in.Value.(Unresolved)
		if !ok {
			continue
		}

		if in.Kind == InputKindPure {
			bs, pure, err := encodePure(param, u.Raw)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			if pure {
				in.Value = ResolvedPure{Bytes: bs}
				continue
			}
		}

		if param.IsObject() {
			id, ok := u.Raw.(string)
			if !ok {
				return nil, &InvalidObjectIDError{Value: u.Raw}
			}
			t := param
			objects = append(objects, objectToResolve{id: NormalizeAddress(id), input: in, normalizedType: &t})
			continue
		}

		return nil, fmt.Errorf("%w %s for argument %d (%v)", ErrUnknownCallArgType, param, i, u.Raw)
	}

	b.logger.Trace("Resolved move call signature", "target", call.Target(), "params", len(params), "objects", len(objects))
	return objects, nil
}

// resolveObjects fetches the queued objects in sequential chunks and classifies
// each input as owned or shared. Shared mutability is OR-merged across uses.
func (b *Builder) resolveObjects(ctx context.Context, cfg *buildConfig, objects []objectToResolve) error {
	if cfg.provider == nil {
		return fmt.Errorf("%w: object lookup", ErrMissingProvider)
	}
	chunkSize, err := cfg.limitSource().get(LimitMaxObjectsPerFetch)
	if err != nil {
		return err
	}
	if chunkSize == 0 {
		chunkSize = DefaultMaxObjectsPerFetch
	}

	seen := make(map[string]bool, len(objects))
	ids := make([]string, 0, len(objects))
	for _, o := range objects {
		if !seen[o.id] {
			seen[o.id] = true
			ids = append(ids, o.id)
		}
	}

	step := len(ids)
	if chunkSize < uint64(step) {
		step = int(chunkSize)
	}

	byID := make(map[string]ObjectInfo, len(ids))
	var invalid []string
	for start := 0; start < len(ids); start += step {
		end := min(start+step, len(ids))
		chunk := ids[start:end]

		infos, err := cfg.provider.MultiGetObjects(ctx, chunk)
		if err != nil {
			return fmt.Errorf("ptb: fetching objects: %w", err)
		}
		if len(infos) != len(chunk) {
			return fmt.Errorf("ptb: fetching objects: requested %d, got %d", len(chunk), len(infos))
		}
		for i, info := range infos {
			if info.Error != "" {
				invalid = append(invalid, chunk[i])
				continue
			}
			byID[chunk[i]] = info
		}
	}
	if len(invalid) > 0 {
		return &InvalidObjectError{IDs: invalid}
	}

	for _, o := range objects {
		info := byID[o.id]
		o.input.Kind = InputKindObject

		if info.InitialSharedVersion.IsNone() {
			o.input.Value = ResolvedOwned{Ref: ObjectRef{ObjectID: o.id, Version: info.Version, Digest: info.Digest}}
			continue
		}

		prevMutable := false
		if prev, ok := o.input.Value.(ResolvedShared); ok {
			prevMutable = prev.Mutable
		}
		// Passing by value consumes the object, so it needs write access whether
		// the parameter is a struct or a type parameter.
		t := o.normalizedType
		byValue := t != nil && !t.IsReference() && !t.IsMutableReference()
		mutRef := t != nil && t.IsMutableReference()

		o.input.Value = ResolvedShared{
			ObjectID:             o.id,
			InitialSharedVersion: info.InitialSharedVersion.Unwrap(),
			Mutable:              prevMutable || byValue || mutRef,
		}
	}

	b.logger.Debug("Resolved objects", "objects", len(ids), "uses", len(objects))
	return nil
}

// checkPureSizes enforces max_pure_argument_size on every pure input.
func (b *Builder) checkPureSizes(cfg *buildConfig) error {
	maxSize, err := cfg.limitSource().get(LimitMaxPureArgumentSize)
	if err != nil {
		return err
	}
	for _, in := range b.inputs.inputs {
		if p, ok := in.Value.(ResolvedPure); ok && uint64(len(p.Bytes)) > maxSize {
			return fmt.Errorf("%w: input %d is %d bytes, max %d", ErrPureArgumentTooLarge, in.Index, len(p.Bytes), maxSize)
		}
	}
	return nil
}
