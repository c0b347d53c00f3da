package luaclosure

import (
	"testing"

	"lua53vm.dev/core/internal/luavalue"
)

// fakeFile is a minimal RegisterFile for exercising Upvalue without a real
// VM frame.
type fakeFile struct {
	slots []luavalue.Value
}

func (f *fakeFile) Get(i int) luavalue.Value { return f.slots[i] }
func (f *fakeFile) Set(i int, v luavalue.Value) { f.slots[i] = v }

func TestUpvalueOpenAliasesFrame(t *testing.T) {
	f := &fakeFile{slots: []luavalue.Value{luavalue.Integer(1), luavalue.Integer(2)}}
	uv := NewOpenUpvalue(f, 1)

	if got := uv.Get(); got.I != 2 {
		t.Fatalf("Get() = %v, want 2", got)
	}

	f.slots[1] = luavalue.Integer(99)
	if got := uv.Get(); got.I != 99 {
		t.Fatalf("open upvalue should see live frame writes, got %v", got)
	}

	uv.Set(luavalue.Integer(7))
	if f.slots[1].I != 7 {
		t.Fatalf("Set() through open upvalue should write back to frame, got %v", f.slots[1])
	}
}

func TestUpvalueCloseDetaches(t *testing.T) {
	f := &fakeFile{slots: []luavalue.Value{luavalue.Integer(5)}}
	uv := NewOpenUpvalue(f, 0)
	uv.Close()
	if uv.IsOpen() {
		t.Fatalf("expected closed")
	}
	f.slots[0] = luavalue.Integer(123)
	if got := uv.Get(); got.I != 5 {
		t.Fatalf("closed upvalue should keep the value at close time, got %v", got)
	}
}

func TestSharedUpvalueBetweenClosures(t *testing.T) {
	proto := &Prototype{Upvalues: []UpvalDesc{{InStack: true, Idx: 0}}}
	f := &fakeFile{slots: []luavalue.Value{luavalue.Integer(0)}}
	cell := NewOpenUpvalue(f, 0)

	c1 := NewScriptClosure(proto)
	c1.Upvalues[0] = cell
	c2 := NewScriptClosure(proto)
	c2.Upvalues[0] = cell

	c1.SetUpvalue(1, luavalue.Integer(42))
	if got := c2.Upvalue(1); got.I != 42 {
		t.Fatalf("closures sharing a cell should observe each other's writes, got %v", got)
	}
}
