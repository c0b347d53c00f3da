package luabinary

import (
	"encoding/binary"
	"fmt"
	"math"
)

// reader is a cursor over an in-memory chunk buffer. All multi-byte values
// in the format are little-endian.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: unexpected end of chunk at offset %d (need %d bytes)", ErrCorruptChunk, r.pos, n)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) byte() (byte, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) i64() (int64, error) {
	v, err := r.u64()
	return int64(v), err
}

func (r *reader) f64() (float64, error) {
	v, err := r.u64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// luaString decodes the chunk's length-prefixed string encoding: a leading
// byte gives the length plus one (0 means an empty string); 0xFF means the
// real length follows as a little-endian u64.
func (r *reader) luaString() (string, error) {
	lenByte, err := r.byte()
	if err != nil {
		return "", err
	}
	var size uint64
	switch lenByte {
	case 0x00:
		return "", nil
	case 0xFF:
		size, err = r.u64()
		if err != nil {
			return "", err
		}
	default:
		size = uint64(lenByte) - 1
	}
	b, err := r.bytes(int(size))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
