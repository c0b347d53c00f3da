package luabinary

import (
	"bytes"
	"fmt"
)

var (
	signature = []byte("\x1bLua")
	luacData  = []byte("\x19\x93\r\n\x1a\n")
)

const (
	luacVersion = 0x53
	luacFormat  = 0

	expectedIntSize    = 4
	expectedSizeTSize  = 8
	expectedInstrSize  = 4
	expectedIntegerSize = 8
	expectedFloatSize  = 8

	luacIntCheck   = 0x5678
	luacFloatCheck = 370.5
)

// checkHeader validates the chunk header and advances past it. Any mismatch
// is reported as ErrCorruptChunk, since a foreign or truncated file cannot
// be distinguished from deliberate corruption at this layer.
func checkHeader(r *reader) error {
	sig, err := r.bytes(4)
	if err != nil {
		return err
	}
	if !bytes.Equal(sig, signature) {
		return fmt.Errorf("%w: bad signature", ErrCorruptChunk)
	}

	version, err := r.byte()
	if err != nil {
		return err
	}
	if version != luacVersion {
		return fmt.Errorf("%w: unsupported version 0x%02X", ErrCorruptChunk, version)
	}

	format, err := r.byte()
	if err != nil {
		return err
	}
	if format != luacFormat {
		return fmt.Errorf("%w: unsupported format 0x%02X", ErrCorruptChunk, format)
	}

	data, err := r.bytes(len(luacData))
	if err != nil {
		return err
	}
	if !bytes.Equal(data, luacData) {
		return fmt.Errorf("%w: bad data bytes (likely line-ending corruption)", ErrCorruptChunk)
	}

	sizes := []struct {
		name string
		want int
	}{
		{"int", expectedIntSize},
		{"size_t", expectedSizeTSize},
		{"Instruction", expectedInstrSize},
		{"lua_Integer", expectedIntegerSize},
		{"lua_Number", expectedFloatSize},
	}
	for _, s := range sizes {
		got, err := r.byte()
		if err != nil {
			return err
		}
		if int(got) != s.want {
			return fmt.Errorf("%w: unexpected %s size %d (want %d)", ErrCorruptChunk, s.name, got, s.want)
		}
	}

	intCheck, err := r.i64()
	if err != nil {
		return err
	}
	if intCheck != luacIntCheck {
		return fmt.Errorf("%w: integer endianness check failed (got %d)", ErrCorruptChunk, intCheck)
	}

	floatCheck, err := r.f64()
	if err != nil {
		return err
	}
	if floatCheck != luacFloatCheck {
		return fmt.Errorf("%w: float format check failed (got %v)", ErrCorruptChunk, floatCheck)
	}

	// One byte recording the main chunk's upvalue count. It is ignored: the
	// main closure's upvalue cells follow the root prototype's descriptors.
	if _, err := r.byte(); err != nil {
		return err
	}

	return nil
}

// writeHeader appends a well-formed chunk header, the mirror image of
// checkHeader.
func writeHeader(w *writer) {
	w.putBytes(signature)
	w.putByte(luacVersion)
	w.putByte(luacFormat)
	w.putBytes(luacData)
	w.putByte(expectedIntSize)
	w.putByte(expectedSizeTSize)
	w.putByte(expectedInstrSize)
	w.putByte(expectedIntegerSize)
	w.putByte(expectedFloatSize)
	w.putI64(luacIntCheck)
	w.putF64(luacFloatCheck)
	w.putByte(1) // main chunk upvalue count; unused by Load
}
