package luabinary

import (
	"fmt"

	"lua53vm.dev/core/internal/luaclosure"
	"lua53vm.dev/core/internal/luavalue"
)

// Dump serializes proto back into chunk bytes, the mirror image of Load. It
// exists for the property that decoding a dumped chunk reproduces the
// original Prototype tree; this core never needs to dump a chunk it didn't
// itself load.
func Dump(proto *luaclosure.Prototype) ([]byte, error) {
	w := &writer{}
	writeHeader(w)
	if err := writeProto(w, proto); err != nil {
		return nil, err
	}
	return w.buf, nil
}

func writeProto(w *writer, proto *luaclosure.Prototype) error {
	w.putLuaString(proto.Source)
	w.putU32(proto.LineDefined)
	w.putU32(proto.LastLineDefined)
	w.putByte(proto.NumParams)
	if proto.IsVararg {
		w.putByte(1)
	} else {
		w.putByte(0)
	}
	w.putByte(proto.MaxStackSize)

	writeCode(w, proto.Code)
	if err := writeConstants(w, proto.Constants); err != nil {
		return err
	}
	writeUpvalues(w, proto.Upvalues)

	w.putU32(uint32(len(proto.Protos)))
	for _, child := range proto.Protos {
		if err := writeProto(w, child); err != nil {
			return err
		}
	}

	writeLineInfo(w, proto.LineInfo)
	writeLocVars(w, proto.LocVars)
	writeUpvalueNames(w, proto.Upvalues)
	return nil
}

func writeCode(w *writer, code []uint32) {
	w.putU32(uint32(len(code)))
	for _, instr := range code {
		w.putU32(instr)
	}
}

func writeConstants(w *writer, consts []luavalue.Value) error {
	w.putU32(uint32(len(consts)))
	for _, c := range consts {
		switch c.Kind {
		case luavalue.KindNil:
			w.putByte(constTagNil)
		case luavalue.KindBoolean:
			w.putByte(constTagBoolean)
			if c.B {
				w.putByte(1)
			} else {
				w.putByte(0)
			}
		case luavalue.KindInteger:
			w.putByte(constTagInteger)
			w.putI64(c.I)
		case luavalue.KindNumber:
			w.putByte(constTagNumber)
			w.putF64(c.N)
		case luavalue.KindString:
			w.putByte(constTagShortStr)
			w.putLuaString(c.S)
		default:
			return fmt.Errorf("%w: constant of kind %s cannot be dumped", ErrCorruptChunk, c.Kind)
		}
	}
	return nil
}

func writeUpvalues(w *writer, ups []luaclosure.UpvalDesc) {
	w.putU32(uint32(len(ups)))
	for _, u := range ups {
		if u.InStack {
			w.putByte(1)
		} else {
			w.putByte(0)
		}
		w.putByte(u.Idx)
	}
}

func writeLineInfo(w *writer, info []uint32) {
	w.putU32(uint32(len(info)))
	for _, l := range info {
		w.putU32(l)
	}
}

func writeLocVars(w *writer, locVars []luaclosure.LocVar) {
	w.putU32(uint32(len(locVars)))
	for _, lv := range locVars {
		w.putLuaString(lv.Name)
		w.putU32(uint32(lv.StartPC))
		w.putU32(uint32(lv.EndPC))
	}
}

func writeUpvalueNames(w *writer, ups []luaclosure.UpvalDesc) {
	w.putU32(uint32(len(ups)))
	for _, u := range ups {
		w.putLuaString(u.Name)
	}
}
