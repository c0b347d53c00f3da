// Package luavm implements the execution state (frame stack, registry,
// host-facing stack API) and the instruction dispatch loop that together
// run a loaded chunk.
package luavm

import "lua53vm.dev/core/internal/luavalue"

// Frame is a single call's register window plus its bookkeeping: program
// counter, varargs, and the open upvalue cells this frame's registers have
// been captured into. It satisfies luaclosure.RegisterFile so upvalue
// cells can alias it directly.
type Frame struct {
	slots        []luavalue.Value
	top          int
	closure      *Closure
	varargs      []luavalue.Value
	openUpvalues map[int]*Upvalue
	pc           int
}

// newFrame allocates a frame with nRegs register slots, all Nil.
func newFrame(closure *Closure, nRegs int) *Frame {
	slots := make([]luavalue.Value, nRegs)
	return &Frame{
		slots:        slots,
		top:          nRegs,
		closure:      closure,
		openUpvalues: make(map[int]*Upvalue),
	}
}

// ensure grows slots (zero-filled with Nil) so index n-1 is addressable.
func (f *Frame) ensure(n int) {
	if n <= len(f.slots) {
		return
	}
	grown := make([]luavalue.Value, n)
	copy(grown, f.slots)
	f.slots = grown
}

// Get implements luaclosure.RegisterFile: reads slot i (0-based), Nil if
// never written.
func (f *Frame) Get(i int) luavalue.Value {
	if i < 0 || i >= len(f.slots) {
		return luavalue.Nil
	}
	return f.slots[i]
}

// Set implements luaclosure.RegisterFile: writes slot i (0-based), growing
// the frame and advancing top as needed.
func (f *Frame) Set(i int, v luavalue.Value) {
	f.ensure(i + 1)
	f.slots[i] = v
	if i+1 > f.top {
		f.top = i + 1
	}
}

// push appends v at the current top, growing the frame.
func (f *Frame) push(v luavalue.Value) {
	f.Set(f.top, v)
}

// truncate sets top to n, discarding (but not zeroing) anything above.
func (f *Frame) truncate(n int) {
	f.ensure(n)
	f.top = n
}

// closeFrom closes every open upvalue whose slot index is >= from and
// removes it from the open map.
func (f *Frame) closeFrom(from int) {
	for idx, uv := range f.openUpvalues {
		if idx >= from {
			uv.Close()
			delete(f.openUpvalues, idx)
		}
	}
}

// openUpvalueAt returns the existing open cell for slot idx, or creates one.
func (f *Frame) openUpvalueAt(idx int) *Upvalue {
	if uv, ok := f.openUpvalues[idx]; ok {
		return uv
	}
	uv := NewOpenUpvalue(f, idx)
	f.openUpvalues[idx] = uv
	return uv
}
