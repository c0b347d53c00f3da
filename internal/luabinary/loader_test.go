package luabinary

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// chunkBuilder assembles a minimal valid chunk byte-by-byte, mirroring the
// format readProto expects, for use as test fixtures.
type chunkBuilder struct {
	buf bytes.Buffer
}

func newChunkBuilder() *chunkBuilder {
	cb := &chunkBuilder{}
	cb.buf.Write(signature)
	cb.buf.WriteByte(luacVersion)
	cb.buf.WriteByte(luacFormat)
	cb.buf.Write(luacData)
	cb.buf.WriteByte(expectedIntSize)
	cb.buf.WriteByte(expectedSizeTSize)
	cb.buf.WriteByte(expectedInstrSize)
	cb.buf.WriteByte(expectedIntegerSize)
	cb.buf.WriteByte(expectedFloatSize)
	cb.u64(luacIntCheck)
	cb.f64(luacFloatCheck)
	cb.buf.WriteByte(1) // main chunk upvalue count (ignored)
	return cb
}

func (cb *chunkBuilder) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	cb.buf.Write(b[:])
}

func (cb *chunkBuilder) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	cb.buf.Write(b[:])
}

func (cb *chunkBuilder) i64(v int64) { cb.u64(uint64(v)) }

func (cb *chunkBuilder) f64(v float64) { cb.u64(math.Float64bits(v)) }

func (cb *chunkBuilder) str(s string) {
	if s == "" {
		cb.buf.WriteByte(0)
		return
	}
	cb.buf.WriteByte(byte(len(s) + 1))
	cb.buf.WriteString(s)
}

// emptyProto writes a prototype with no code/constants/upvalues/protos/
// debug info — just enough to round-trip through readProto.
func (cb *chunkBuilder) emptyProto(numParams uint8, isVararg bool, maxStack uint8) {
	cb.str("") // source
	cb.u32(0)  // line_defined
	cb.u32(0)  // last_line_defined
	cb.buf.WriteByte(numParams)
	if isVararg {
		cb.buf.WriteByte(1)
	} else {
		cb.buf.WriteByte(0)
	}
	cb.buf.WriteByte(maxStack)
	cb.u32(0) // code
	cb.u32(0) // constants
	cb.u32(0) // upvalues
	cb.u32(0) // protos
	cb.u32(0) // line info
	cb.u32(0) // locvars
	cb.u32(0) // upvalue names
}

func TestLoadMinimalChunk(t *testing.T) {
	cb := newChunkBuilder()
	cb.emptyProto(0, true, 2)

	proto, err := Load(cb.buf.Bytes())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if proto.NumParams != 0 || !proto.IsVararg || proto.MaxStackSize != 2 {
		t.Fatalf("decoded proto mismatch: %+v", proto)
	}
}

func TestLoadBadSignature(t *testing.T) {
	cb := newChunkBuilder()
	data := cb.buf.Bytes()
	data[0] = 'X'
	if _, err := Load(data); err == nil {
		t.Fatalf("expected error for bad signature")
	}
}

func TestLoadTruncated(t *testing.T) {
	cb := newChunkBuilder()
	data := cb.buf.Bytes()
	if _, err := Load(data[:len(data)-3]); err == nil {
		t.Fatalf("expected error for truncated chunk")
	}
}

func TestLoadConstants(t *testing.T) {
	cb := newChunkBuilder()
	cb.str("")
	cb.u32(0)
	cb.u32(0)
	cb.buf.WriteByte(0)
	cb.buf.WriteByte(0)
	cb.buf.WriteByte(2)
	cb.u32(0) // code
	// 4 constants: nil, boolean true, integer 42, string "hi"
	cb.u32(4)
	cb.buf.WriteByte(constTagNil)
	cb.buf.WriteByte(constTagBoolean)
	cb.buf.WriteByte(1)
	cb.buf.WriteByte(constTagInteger)
	cb.i64(42)
	cb.buf.WriteByte(constTagShortStr)
	cb.str("hi")
	cb.u32(0) // upvalues
	cb.u32(0) // protos
	cb.u32(0) // line info
	cb.u32(0) // locvars
	cb.u32(0) // upvalue names

	proto, err := Load(cb.buf.Bytes())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(proto.Constants) != 4 {
		t.Fatalf("got %d constants, want 4", len(proto.Constants))
	}
	if !proto.Constants[0].IsNil() {
		t.Errorf("constant 0 should be nil")
	}
	if !proto.Constants[1].ToBoolean() {
		t.Errorf("constant 1 should be true")
	}
	if proto.Constants[2].I != 42 {
		t.Errorf("constant 2 = %v, want 42", proto.Constants[2])
	}
	if proto.Constants[3].S != "hi" {
		t.Errorf("constant 3 = %v, want hi", proto.Constants[3])
	}
}
