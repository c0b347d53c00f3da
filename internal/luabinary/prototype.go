// Package luabinary loads a precompiled chunk (header + serialized
// prototype tree) into the in-memory Prototype structures the VM executes.
package luabinary

import (
	"fmt"

	"lua53vm.dev/core/internal/luaclosure"
	"lua53vm.dev/core/internal/luavalue"
)

const (
	constTagNil        = 0x00
	constTagBoolean    = 0x01
	constTagNumber     = 0x03
	constTagInteger    = 0x13
	constTagShortStr   = 0x04
	constTagLongStr    = 0x14
)

// Load decodes a complete chunk buffer into its root Prototype.
func Load(data []byte) (*luaclosure.Prototype, error) {
	r := newReader(data)
	if err := checkHeader(r); err != nil {
		return nil, err
	}
	return readProto(r, "")
}

func readProto(r *reader, parentSource string) (*luaclosure.Prototype, error) {
	source, err := r.luaString()
	if err != nil {
		return nil, err
	}
	if source == "" {
		source = parentSource
	}

	lineDefined, err := r.u32()
	if err != nil {
		return nil, err
	}
	lastLineDefined, err := r.u32()
	if err != nil {
		return nil, err
	}
	numParams, err := r.byte()
	if err != nil {
		return nil, err
	}
	isVarargByte, err := r.byte()
	if err != nil {
		return nil, err
	}
	maxStackSize, err := r.byte()
	if err != nil {
		return nil, err
	}

	code, err := readCode(r)
	if err != nil {
		return nil, err
	}
	constants, err := readConstants(r)
	if err != nil {
		return nil, err
	}
	upvalues, err := readUpvalues(r)
	if err != nil {
		return nil, err
	}

	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	protos := make([]*luaclosure.Prototype, n)
	for i := range protos {
		p, err := readProto(r, source)
		if err != nil {
			return nil, err
		}
		protos[i] = p
	}

	lineInfo, err := readLineInfo(r)
	if err != nil {
		return nil, err
	}
	locVars, err := readLocVars(r)
	if err != nil {
		return nil, err
	}
	if err := readUpvalueNames(r, upvalues); err != nil {
		return nil, err
	}

	return &luaclosure.Prototype{
		Source:          source,
		LineDefined:     lineDefined,
		LastLineDefined: lastLineDefined,
		NumParams:       numParams,
		IsVararg:        isVarargByte != 0,
		MaxStackSize:    maxStackSize,
		Code:            code,
		Constants:       constants,
		Upvalues:        upvalues,
		Protos:          protos,
		LineInfo:        lineInfo,
		LocVars:         locVars,
	}, nil
}

func readCode(r *reader) ([]uint32, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	code := make([]uint32, n)
	for i := range code {
		code[i], err = r.u32()
		if err != nil {
			return nil, err
		}
	}
	return code, nil
}

func readConstants(r *reader) ([]luavalue.Value, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	consts := make([]luavalue.Value, n)
	for i := range consts {
		tag, err := r.byte()
		if err != nil {
			return nil, err
		}
		switch tag {
		case constTagNil:
			consts[i] = luavalue.Nil
		case constTagBoolean:
			b, err := r.byte()
			if err != nil {
				return nil, err
			}
			consts[i] = luavalue.Boolean(b != 0)
		case constTagNumber:
			f, err := r.f64()
			if err != nil {
				return nil, err
			}
			consts[i] = luavalue.Number(f)
		case constTagInteger:
			v, err := r.i64()
			if err != nil {
				return nil, err
			}
			consts[i] = luavalue.Integer(v)
		case constTagShortStr, constTagLongStr:
			s, err := r.luaString()
			if err != nil {
				return nil, err
			}
			consts[i] = luavalue.String(s)
		default:
			return nil, fmt.Errorf("%w: unknown constant tag 0x%02X", ErrCorruptChunk, tag)
		}
	}
	return consts, nil
}

func readUpvalues(r *reader) ([]luaclosure.UpvalDesc, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	ups := make([]luaclosure.UpvalDesc, n)
	for i := range ups {
		inStack, err := r.byte()
		if err != nil {
			return nil, err
		}
		idx, err := r.byte()
		if err != nil {
			return nil, err
		}
		ups[i] = luaclosure.UpvalDesc{InStack: inStack != 0, Idx: idx}
	}
	return ups, nil
}

func readLineInfo(r *reader) ([]uint32, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	info := make([]uint32, n)
	for i := range info {
		info[i], err = r.u32()
		if err != nil {
			return nil, err
		}
	}
	return info, nil
}

func readLocVars(r *reader) ([]luaclosure.LocVar, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	locVars := make([]luaclosure.LocVar, n)
	for i := range locVars {
		name, err := r.luaString()
		if err != nil {
			return nil, err
		}
		start, err := r.u32()
		if err != nil {
			return nil, err
		}
		end, err := r.u32()
		if err != nil {
			return nil, err
		}
		locVars[i] = luaclosure.LocVar{Name: name, StartPC: int(start), EndPC: int(end)}
	}
	return locVars, nil
}

func readUpvalueNames(r *reader, ups []luaclosure.UpvalDesc) error {
	n, err := r.u32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		name, err := r.luaString()
		if err != nil {
			return err
		}
		if int(i) < len(ups) {
			ups[i].Name = name
		}
	}
	return nil
}
