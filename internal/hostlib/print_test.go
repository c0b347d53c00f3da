package hostlib

import (
	"bytes"
	"testing"

	"lua53vm.dev/core/internal/luavalue"
)

// stubStack is a minimal luaclosure.Stack for exercising NewPrint directly.
type stubStack struct {
	vals []luavalue.Value
}

func (s *stubStack) Top() int                  { return len(s.vals) }
func (s *stubStack) Get(idx int) luavalue.Value { return s.vals[idx-1] }
func (s *stubStack) Push(luavalue.Value)        {}
func (s *stubStack) CheckInteger(idx int) int64 { return s.vals[idx-1].I }
func (s *stubStack) CheckString(idx int) string { return s.vals[idx-1].S }
func (s *stubStack) OptInteger(idx int, def int64) int64 { return def }

func TestPrintSingleString(t *testing.T) {
	var buf bytes.Buffer
	fn := NewPrint(&buf)
	n := fn(&stubStack{vals: []luavalue.Value{luavalue.String("hello")}})
	if n != 0 {
		t.Fatalf("print should push no results, got %d", n)
	}
	if buf.String() != "hello\n" {
		t.Fatalf("got %q, want %q", buf.String(), "hello\n")
	}
}

func TestPrintMultipleTabSeparated(t *testing.T) {
	var buf bytes.Buffer
	fn := NewPrint(&buf)
	fn(&stubStack{vals: []luavalue.Value{luavalue.Integer(7), luavalue.Integer(12)}})
	if buf.String() != "7\t12\n" {
		t.Fatalf("got %q, want %q", buf.String(), "7\t12\n")
	}
}

func TestPrintNoArgs(t *testing.T) {
	var buf bytes.Buffer
	fn := NewPrint(&buf)
	fn(&stubStack{})
	if buf.String() != "\n" {
		t.Fatalf("got %q, want a bare newline", buf.String())
	}
}
