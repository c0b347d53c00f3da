package luavm

import (
	"fmt"
	"io"

	"lua53vm.dev/core/internal/luabinary"
	"lua53vm.dev/core/internal/luavalue"
)

// RegistryIndex is the pseudo-index naming the process-wide registry table.
// Indices below it name the active closure's upvalues (see upvalueIndex).
const RegistryIndex = -1001000

// RIDXGlobals is the registry slot holding the globals table.
const RIDXGlobals int64 = 2

// Options configures a State at construction time.
type Options struct {
	// Trace, if non-nil, receives one line per executed instruction —
	// a debugging aid, not a logging facility (see SPEC_FULL.md's ambient
	// stack notes).
	Trace io.Writer
}

// State is one VM instance: a stack of call frames plus the shared
// registry. It is not safe for concurrent use — the spec's concurrency
// model is single-threaded cooperative.
type State struct {
	frames   []*Frame
	registry *luavalue.Table
	opts     Options
}

// NewState creates a VM with an empty registry (globals table at
// RIDXGlobals) and one root frame for host-level stack interaction.
func NewState(opts Options) *State {
	s := &State{
		registry: luavalue.NewTable(0, 4),
		opts:     opts,
	}
	globals := luavalue.NewTable(0, 8)
	s.registry.SetInt(RIDXGlobals, luavalue.TableRef(globals))
	s.frames = []*Frame{newFrame(nil, 0)}
	return s
}

func (s *State) current() *Frame { return s.frames[len(s.frames)-1] }

func (s *State) globals() *luavalue.Table {
	return s.registry.GetInt(RIDXGlobals).Table()
}

// upvalueIndex converts a pseudo-index below RegistryIndex into a 1-based
// upvalue number for the active closure.
func upvalueIndex(idx int) int {
	return RegistryIndex - idx
}

// AbsIndex resolves a possibly-negative index to its absolute (1-based)
// form. Pseudo-indices (registry, upvalues) pass through unchanged.
func (s *State) AbsIndex(idx int) int {
	if idx > 0 || idx <= RegistryIndex {
		return idx
	}
	return s.Top() + idx + 1
}

// Top returns the number of valid stack slots in the current frame.
func (s *State) Top() int { return s.current().top }

// IsValid reports whether idx currently names a readable slot.
func (s *State) IsValid(idx int) bool {
	if idx == RegistryIndex {
		return true
	}
	if idx < RegistryIndex {
		uv := upvalueIndex(idx)
		cl := s.current().closure
		return cl != nil && uv >= 1 && uv <= len(cl.Upvalues)
	}
	idx = s.AbsIndex(idx)
	return idx >= 1 && idx <= s.Top()
}

// Get reads the value at idx, returning Nil for any invalid index.
func (s *State) Get(idx int) luavalue.Value {
	if idx == RegistryIndex {
		return luavalue.TableRef(s.registry)
	}
	if idx < RegistryIndex {
		cl := s.current().closure
		if cl == nil {
			return luavalue.Nil
		}
		return cl.Upvalue(upvalueIndex(idx))
	}
	idx = s.AbsIndex(idx)
	if idx < 1 || idx > s.Top() {
		return luavalue.Nil
	}
	return s.current().Get(idx - 1)
}

// Set writes v at idx. Writing to an out-of-range upvalue pseudo-index is a
// no-op; writing below index 1 is an error.
func (s *State) Set(idx int, v luavalue.Value) error {
	if idx == RegistryIndex {
		return fmt.Errorf("%w: cannot overwrite the registry itself", ErrInvalidIndex)
	}
	if idx < RegistryIndex {
		cl := s.current().closure
		if cl != nil {
			cl.SetUpvalue(upvalueIndex(idx), v)
		}
		return nil
	}
	idx = s.AbsIndex(idx)
	if idx < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, idx)
	}
	s.current().Set(idx-1, v)
	return nil
}

// Push appends v at the top of the current frame.
func (s *State) Push(v luavalue.Value) { s.current().push(v) }

func (s *State) PushNil()            { s.Push(luavalue.Nil) }
func (s *State) PushBoolean(b bool)  { s.Push(luavalue.Boolean(b)) }
func (s *State) PushInteger(i int64) { s.Push(luavalue.Integer(i)) }
func (s *State) PushNumber(n float64) { s.Push(luavalue.Number(n)) }
func (s *State) PushString(str string) { s.Push(luavalue.String(str)) }

// PushGlobalTable pushes the globals table.
func (s *State) PushGlobalTable() { s.Push(luavalue.TableRef(s.globals())) }

// PushHostFn pushes a zero-upvalue host closure wrapping fn.
func (s *State) PushHostFn(fn HostFunc) {
	s.Push(luavalue.FunctionRef(NewHostClosure(fn, nil)))
}

// PushHostClosure pops n values off the top as the closure's upvalues (in
// push order) and pushes a host closure wrapping fn over them.
func (s *State) PushHostClosure(fn HostFunc, n int) error {
	vals, err := s.Pop(n)
	if err != nil {
		return err
	}
	ups := make([]*Upvalue, n)
	for i, v := range vals {
		ups[i] = NewClosedUpvalue(v)
	}
	s.Push(luavalue.FunctionRef(NewHostClosure(fn, ups)))
	return nil
}

// Pop removes and returns the top n values, oldest first.
func (s *State) Pop(n int) ([]luavalue.Value, error) {
	f := s.current()
	if n < 0 || n > f.top {
		return nil, fmt.Errorf("%w: cannot pop %d values (have %d)", ErrStackUnderflow, n, f.top)
	}
	out := make([]luavalue.Value, n)
	copy(out, f.slots[f.top-n:f.top])
	f.truncate(f.top - n)
	return out, nil
}

// PushN pushes vals, padding with Nil or truncating so exactly n values are
// pushed. n < 0 pushes every value in vals.
func (s *State) PushN(vals []luavalue.Value, n int) {
	if n < 0 {
		n = len(vals)
	}
	for i := 0; i < n; i++ {
		if i < len(vals) {
			s.Push(vals[i])
		} else {
			s.PushNil()
		}
	}
}

// SetTop grows (with Nil) or shrinks the current frame to exactly n valid
// slots.
func (s *State) SetTop(n int) {
	idx := s.AbsIndex(n)
	if idx < 0 {
		idx = 0
	}
	f := s.current()
	for i := f.top; i < idx && i < len(f.slots); i++ {
		f.slots[i] = luavalue.Nil
	}
	f.truncate(idx)
}

// Copy copies the value at from into to (both absolute or pseudo indices).
func (s *State) Copy(from, to int) error {
	return s.Set(to, s.Get(from))
}

// PushValue pushes a copy of the value at idx onto the top of the stack.
func (s *State) PushValue(idx int) { s.Push(s.Get(idx)) }

// CheckStack ensures the current frame has room for n more slots above Top,
// growing it if needed. The frame already grows on demand as registers are
// written, so this never fails; it exists for parity with the documented
// host-facing stack API.
func (s *State) CheckStack(n int) error {
	f := s.current()
	f.ensure(f.top + n)
	return nil
}

// Replace pops the top value and stores it at idx.
func (s *State) Replace(idx int) error {
	vals, err := s.Pop(1)
	if err != nil {
		return err
	}
	return s.Set(idx, vals[0])
}

// Rotate rotates the slots in [idx, Top()] by n places (positive moves
// toward the top) using the standard three-reversal algorithm.
func (s *State) Rotate(idx, n int) error {
	a := s.AbsIndex(idx)
	t := s.Top()
	if a < 1 || a > t+1 {
		return fmt.Errorf("%w: rotate index %d out of range", ErrInvalidIndex, idx)
	}
	length := t - a + 1
	if length <= 0 {
		return nil
	}
	m := n % length
	if m < 0 {
		m += length
	}
	s.reverseRange(a, t)
	s.reverseRange(a, a+m-1)
	s.reverseRange(a+m, t)
	return nil
}

func (s *State) reverseRange(lo, hi int) {
	for lo < hi {
		a, b := s.Get(lo), s.Get(hi)
		s.Set(lo, b)
		s.Set(hi, a)
		lo++
		hi--
	}
}

// Insert moves the top value to idx, shifting values at/above idx up by one.
func (s *State) Insert(idx int) error { return s.Rotate(idx, 1) }

// Remove removes the value at idx, shifting values above it down by one.
func (s *State) Remove(idx int) error {
	if err := s.Rotate(idx, -1); err != nil {
		return err
	}
	_, err := s.Pop(1)
	return err
}

// --- type queries -----------------------------------------------------

func (s *State) TypeOf(idx int) luavalue.Kind { return s.Get(idx).Kind }
func (s *State) TypeName(idx int) string      { return s.TypeOf(idx).String() }

func (s *State) IsNil(idx int) bool      { return s.Get(idx).IsNil() }
func (s *State) IsNone(idx int) bool     { return !s.IsValid(idx) }
func (s *State) IsBoolean(idx int) bool  { return s.Get(idx).IsBoolean() }
func (s *State) IsInteger(idx int) bool  { return s.Get(idx).IsInteger() }
func (s *State) IsNumber(idx int) bool   { return s.Get(idx).IsNumber() }
func (s *State) IsString(idx int) bool   { return s.Get(idx).IsString() }
func (s *State) IsTable(idx int) bool    { return s.Get(idx).IsTable() }
func (s *State) IsFunction(idx int) bool { return s.Get(idx).IsFunction() }
func (s *State) IsHostFunction(idx int) bool {
	v := s.Get(idx)
	if !v.IsFunction() {
		return false
	}
	cl, _ := v.Ref.(*Closure)
	return cl != nil && cl.IsHost()
}

// --- conversions --------------------------------------------------------

func (s *State) ToBoolean(idx int) bool { return s.Get(idx).ToBoolean() }

func (s *State) ToIntegerX(idx int) (int64, bool) { return s.Get(idx).ToInteger() }
func (s *State) ToInteger(idx int) int64 {
	i, _ := s.ToIntegerX(idx)
	return i
}

func (s *State) ToNumberX(idx int) (float64, bool) { return s.Get(idx).ToNumber() }
func (s *State) ToNumber(idx int) float64 {
	n, _ := s.ToNumberX(idx)
	return n
}

func (s *State) ToStringX(idx int) (string, bool) {
	v := s.Get(idx)
	switch v.Kind {
	case luavalue.KindString:
		return v.S, true
	case luavalue.KindInteger, luavalue.KindNumber:
		return v.String(), true
	default:
		return "", false
	}
}
func (s *State) ToString(idx int) string {
	str, _ := s.ToStringX(idx)
	return str
}

func (s *State) ToHostFunction(idx int) HostFunc {
	v := s.Get(idx)
	cl, _ := v.Ref.(*Closure)
	if cl == nil {
		return nil
	}
	return cl.Host
}

// CheckInteger/CheckString/OptInteger satisfy luaclosure.Stack for host
// functions; Check* panic-free here since this core has no argument-type
// error protocol beyond returning zero values — host functions are
// expected to validate explicitly if they care.
func (s *State) CheckInteger(idx int) int64 { return s.ToInteger(idx) }
func (s *State) CheckString(idx int) string { return s.ToString(idx) }
func (s *State) OptInteger(idx int, def int64) int64 {
	if s.IsNone(idx) || s.IsNil(idx) {
		return def
	}
	return s.ToInteger(idx)
}

// --- tables --------------------------------------------------------------

// NewTable pushes a new empty table.
func (s *State) NewTable() { s.CreateTable(0, 0) }

// CreateTable pushes a new table pre-sized for narr array slots and nrec
// hash entries.
func (s *State) CreateTable(narr, nrec int) {
	s.Push(luavalue.TableRef(luavalue.NewTable(narr, nrec)))
}

// Table pops a key and pushes t[key], where t is the table at idx.
func (s *State) Table(idx int) error {
	keys, err := s.Pop(1)
	if err != nil {
		return err
	}
	t, err := s.tableAt(idx)
	if err != nil {
		return err
	}
	s.Push(t.Get(keys[0]))
	return nil
}

// Field pushes t[name], where t is the table at idx.
func (s *State) Field(idx int, name string) error {
	t, err := s.tableAt(idx)
	if err != nil {
		return err
	}
	s.Push(t.GetStr(name))
	return nil
}

// I pushes t[i], where t is the table at idx.
func (s *State) I(idx int, i int64) error {
	t, err := s.tableAt(idx)
	if err != nil {
		return err
	}
	s.Push(t.GetInt(i))
	return nil
}

// Global pushes globals[name].
func (s *State) Global(name string) { s.Push(s.globals().GetStr(name)) }

// SetTable pops a value then a key and assigns t[key] = value.
func (s *State) SetTable(idx int) error {
	vals, err := s.Pop(2)
	if err != nil {
		return err
	}
	t, err := s.tableAt(idx)
	if err != nil {
		return err
	}
	return setTableKV(t, vals[0], vals[1])
}

// SetField pops a value and assigns t[name] = value.
func (s *State) SetField(idx int, name string) error {
	vals, err := s.Pop(1)
	if err != nil {
		return err
	}
	t, err := s.tableAt(idx)
	if err != nil {
		return err
	}
	t.SetStr(name, vals[0])
	return nil
}

// SetI pops a value and assigns t[i] = value.
func (s *State) SetI(idx int, i int64) error {
	vals, err := s.Pop(1)
	if err != nil {
		return err
	}
	t, err := s.tableAt(idx)
	if err != nil {
		return err
	}
	t.SetInt(i, vals[0])
	return nil
}

// SetGlobal pops a value and assigns globals[name] = value.
func (s *State) SetGlobal(name string) error {
	vals, err := s.Pop(1)
	if err != nil {
		return err
	}
	s.globals().SetStr(name, vals[0])
	return nil
}

// Register installs fn as globals[name].
func (s *State) Register(name string, fn HostFunc) {
	s.globals().SetStr(name, luavalue.FunctionRef(NewHostClosure(fn, nil)))
}

func (s *State) tableAt(idx int) (*luavalue.Table, error) {
	v := s.Get(idx)
	t := v.Table()
	if t == nil {
		return nil, fmt.Errorf("%w: got %s", ErrNotATable, v.Kind)
	}
	return t, nil
}

// --- loading & calling ---------------------------------------------------

// Load decodes a binary chunk (mode "b" is the only supported mode — text
// chunks and "bt"/"t" are out of scope) and pushes the resulting closure.
// A malformed chunk is reported as the loader's error and nothing is
// pushed; chunkName and mode are not inspected.
func (s *State) Load(data []byte, chunkName string, mode string) error {
	proto, err := luabinary.Load(data)
	if err != nil {
		return err
	}
	s.Push(luavalue.FunctionRef(s.newMainClosure(proto)))
	return nil
}

// newMainClosure wraps proto in a closure whose sole upvalue (_ENV, by
// convention upvalue 1 of every top-level chunk) is bound to this state's
// globals table.
func (s *State) newMainClosure(proto *Prototype) *Closure {
	cl := NewScriptClosure(proto)
	if len(cl.Upvalues) > 0 {
		cl.Upvalues[0] = NewClosedUpvalue(luavalue.TableRef(s.globals()))
	}
	return cl
}

// Call invokes the function value sitting nArgs+1 slots below the current
// top, consuming it and its arguments, and leaves nResults return values
// (or all of them, if nResults < 0) on the stack.
func (s *State) Call(nArgs, nResults int) error {
	return s.call(nArgs, nResults)
}
