package luabinary

import (
	"encoding/binary"
	"math"
)

// writer is an append-only cursor building a chunk buffer. All multi-byte
// values are little-endian, mirroring reader.
type writer struct {
	buf []byte
}

func (w *writer) putBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *writer) putByte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *writer) putU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.putBytes(b[:])
}

func (w *writer) putU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.putBytes(b[:])
}

func (w *writer) putI64(v int64) {
	w.putU64(uint64(v))
}

func (w *writer) putF64(v float64) {
	w.putU64(math.Float64bits(v))
}

// putLuaString encodes str using the chunk's length-prefixed string format:
// a leading byte gives length+1 (0 for empty); strings of 254+ bytes use the
// 0xFF escape followed by a little-endian u64 length.
func (w *writer) putLuaString(str string) {
	n := len(str)
	if n == 0 {
		w.putByte(0x00)
		return
	}
	if n+1 >= 0xFF {
		w.putByte(0xFF)
		w.putU64(uint64(n))
	} else {
		w.putByte(byte(n + 1))
	}
	w.putBytes([]byte(str))
}
