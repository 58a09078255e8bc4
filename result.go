package ptb

// ResultProjector expands the output of one command into NestedResult references.
// Slots are allocated on first request and cached afterwards.
type ResultProjector struct {
	commandIndex uint16
	slots        map[uint16]NestedResult
}

func newResultProjector(commandIndex uint16) *ResultProjector {
	return &ResultProjector{
		commandIndex: commandIndex,
		slots:        make(map[uint16]NestedResult),
	}
}

// CommandIndex returns the index of the projected command.
func (p *ResultProjector) CommandIndex() uint16 {
	return p.commandIndex
}

// Nested returns the reference to output slot k.
func (p *ResultProjector) Nested(k uint16) NestedResult {
	if r, ok := p.slots[k]; ok {
		return r
	}
	r := NestedResult{CommandIndex: p.commandIndex, Slot: k}
	p.slots[k] = r
	return r
}

// Iter returns a bounded iterator over the first count slots.
func (p *ResultProjector) Iter(count uint16) *ResultIterator {
	return &ResultIterator{projector: p, remaining: count}
}

// Collect returns references to slots 0..count-1 in ascending order.
func (p *ResultProjector) Collect(count uint16) []Argument {
	it := p.Iter(count)
	out := make([]Argument, 0, count)
	for r, ok := it.Next(); ok; r, ok = it.Next() {
		out = append(out, r)
	}
	// The iterator runs high to low.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// ResultIterator yields nested results from slot count-1 down to 0.
type ResultIterator struct {
	projector *ResultProjector
	remaining uint16
}

// Next returns the next slot, or false once all slots have been yielded.
func (it *ResultIterator) Next() (NestedResult, bool) {
	if it.remaining == 0 {
		return NestedResult{}, false
	}
	it.remaining--
	return it.projector.Nested(it.remaining), true
}

// Remaining returns how many slots are left.
func (it *ResultIterator) Remaining() uint16 {
	return it.remaining
}
