package luavm

import (
	"fmt"

	"lua53vm.dev/core/internal/luainst"
	"lua53vm.dev/core/internal/luavalue"
)

// lFieldsPerFlush is SETLIST's batch size: each "flush" of a table
// constructor's list items covers 50 consecutive integer keys before the
// instruction stream needs another SETLIST/EXTRAARG pair.
const lFieldsPerFlush = 50

// call resolves the function value sitting nArgs+1 slots below the current
// frame's top, invokes it (host or script), and leaves nResults (or all,
// if negative) of its results on the caller's stack.
func (s *State) call(nArgs, nResults int) error {
	f := s.current()
	fnIdx := f.top - nArgs - 1
	if fnIdx < 0 {
		return fmt.Errorf("%w: not enough values for call", ErrStackUnderflow)
	}
	fnVal := f.slots[fnIdx]
	cl, _ := fnVal.Ref.(*Closure)
	if cl == nil {
		return fmt.Errorf("%w: got %s", ErrNotAFunction, fnVal.Kind)
	}
	args := make([]luavalue.Value, nArgs)
	copy(args, f.slots[fnIdx+1:f.top])
	f.truncate(fnIdx)

	var results []luavalue.Value
	var err error
	if cl.IsHost() {
		results, err = s.callHost(cl, args)
	} else {
		results, err = s.callScript(cl, args)
	}
	if err != nil {
		return err
	}
	s.PushN(results, nResults)
	return nil
}

func (s *State) callHost(cl *Closure, args []luavalue.Value) ([]luavalue.Value, error) {
	frame := newFrame(cl, 0)
	s.frames = append(s.frames, frame)
	defer func() { s.frames = s.frames[:len(s.frames)-1] }()

	for _, a := range args {
		frame.push(a)
	}
	base := frame.top
	n := cl.Host(s)
	if n < 0 {
		n = 0
	}
	results := make([]luavalue.Value, n)
	copy(results, frame.slots[base:base+n])
	return results, nil
}

func (s *State) callScript(cl *Closure, args []luavalue.Value) ([]luavalue.Value, error) {
	proto := cl.Proto
	nRegs := int(proto.MaxStackSize)
	if nRegs < len(args) {
		nRegs = len(args)
	}
	frame := newFrame(cl, nRegs)

	nParams := int(proto.NumParams)
	for i := 0; i < nParams && i < len(args); i++ {
		frame.slots[i] = args[i]
	}
	if proto.IsVararg && len(args) > nParams {
		frame.varargs = append([]luavalue.Value(nil), args[nParams:]...)
	}

	s.frames = append(s.frames, frame)
	defer func() {
		frame.closeFrom(0)
		s.frames = s.frames[:len(s.frames)-1]
	}()

	return s.run(frame)
}

// run executes frame's code until a RETURN (or a TAILCALL, which folds its
// own call into an implicit return) produces the frame's result values.
func (s *State) run(frame *Frame) ([]luavalue.Value, error) {
	proto := frame.closure.Proto
	for {
		if frame.pc < 0 || frame.pc >= len(proto.Code) {
			return nil, fmt.Errorf("program counter %d out of range (code len %d)", frame.pc, len(proto.Code))
		}
		instr := luainst.Instruction(proto.Code[frame.pc])
		if s.opts.Trace != nil {
			fmt.Fprintf(s.opts.Trace, "%04d  %s\n", frame.pc, luainst.Mnemonic(instr.OpCode()))
		}
		frame.pc++

		results, done, err := s.step(frame, instr)
		if err != nil {
			return nil, err
		}
		if done {
			return results, nil
		}
	}
}

// setTableKV assigns t[key] = val, rejecting the two keys Lua forbids
// outright: nil (meaningless as a key) and NaN (would never again compare
// equal to itself for a later lookup). Both SETTABLE and SETTABUP route
// through here so the invariant holds uniformly regardless of which table
// (a register's or an upvalue's) is being written.
func setTableKV(t *luavalue.Table, key, val luavalue.Value) error {
	if key.IsNil() || key.IsNaN() {
		return ErrInvalidTableKey
	}
	t.Set(key, val)
	return nil
}

func (f *Frame) rk(idx int) luavalue.Value {
	if luainst.IsConstant(idx) {
		return f.closure.Proto.Constants[luainst.ConstantIndex(idx)]
	}
	return f.Get(idx)
}

// step executes one instruction against frame. It returns (results, true,
// nil) when the frame is done executing (RETURN/TAILCALL).
func (s *State) step(frame *Frame, instr luainst.Instruction) ([]luavalue.Value, bool, error) {
	op := instr.OpCode()
	proto := frame.closure.Proto

	switch op {
	case luainst.MOVE:
		a, b, _ := instr.ABC()
		frame.Set(a, frame.Get(b))

	case luainst.LOADK:
		a, bx := instr.ABx()
		frame.Set(a, proto.Constants[bx])

	case luainst.LOADKX:
		a, _ := instr.ABx()
		extra := luainst.Instruction(proto.Code[frame.pc])
		frame.pc++
		frame.Set(a, proto.Constants[extra.Ax()])

	case luainst.LOADBOOL:
		a, b, c := instr.ABC()
		frame.Set(a, luavalue.Boolean(b != 0))
		if c != 0 {
			frame.pc++
		}

	case luainst.LOADNIL:
		a, b, _ := instr.ABC()
		for i := 0; i <= b; i++ {
			frame.Set(a+i, luavalue.Nil)
		}

	case luainst.GETUPVAL:
		a, b, _ := instr.ABC()
		frame.Set(a, frame.closure.Upvalue(b+1))

	case luainst.SETUPVAL:
		a, b, _ := instr.ABC()
		frame.closure.SetUpvalue(b+1, frame.Get(a))

	case luainst.GETTABUP:
		a, b, c := instr.ABC()
		t := frame.closure.Upvalue(b + 1).Table()
		if t == nil {
			return nil, false, fmt.Errorf("%w: upvalue %d", ErrNotATable, b+1)
		}
		frame.Set(a, t.Get(frame.rk(c)))

	case luainst.SETTABUP:
		a, b, c := instr.ABC()
		t := frame.closure.Upvalue(a + 1).Table()
		if t == nil {
			return nil, false, fmt.Errorf("%w: upvalue %d", ErrNotATable, a+1)
		}
		if err := setTableKV(t, frame.rk(b), frame.rk(c)); err != nil {
			return nil, false, err
		}

	case luainst.GETTABLE:
		a, b, c := instr.ABC()
		t := frame.Get(b).Table()
		if t == nil {
			return nil, false, fmt.Errorf("%w: register %d", ErrNotATable, b)
		}
		frame.Set(a, t.Get(frame.rk(c)))

	case luainst.SETTABLE:
		a, b, c := instr.ABC()
		t := frame.Get(a).Table()
		if t == nil {
			return nil, false, fmt.Errorf("%w: register %d", ErrNotATable, a)
		}
		if err := setTableKV(t, frame.rk(b), frame.rk(c)); err != nil {
			return nil, false, err
		}

	case luainst.NEWTABLE:
		a, b, c := instr.ABC()
		frame.Set(a, luavalue.TableRef(luavalue.NewTable(luavalue.Fb2Int(uint8(b)), luavalue.Fb2Int(uint8(c)))))

	case luainst.SELF:
		a, b, c := instr.ABC()
		obj := frame.Get(b)
		frame.Set(a+1, obj)
		t := obj.Table()
		if t == nil {
			return nil, false, fmt.Errorf("%w: register %d", ErrNotATable, b)
		}
		frame.Set(a, t.Get(frame.rk(c)))

	case luainst.ADD, luainst.SUB, luainst.MUL, luainst.MOD, luainst.POW,
		luainst.DIV, luainst.IDIV, luainst.BAND, luainst.BOR, luainst.BXOR,
		luainst.SHL, luainst.SHR:
		a, b, c := instr.ABC()
		res, err := arith(arithOpFor(op), frame.rk(b), frame.rk(c))
		if err != nil {
			return nil, false, err
		}
		frame.Set(a, res)

	case luainst.UNM:
		a, b, _ := instr.ABC()
		res, err := arith(OpUnm, frame.Get(b), luavalue.Nil)
		if err != nil {
			return nil, false, err
		}
		frame.Set(a, res)

	case luainst.BNOT:
		a, b, _ := instr.ABC()
		res, err := arith(OpBNot, frame.Get(b), luavalue.Nil)
		if err != nil {
			return nil, false, err
		}
		frame.Set(a, res)

	case luainst.NOT:
		a, b, _ := instr.ABC()
		frame.Set(a, luavalue.Boolean(!frame.Get(b).ToBoolean()))

	case luainst.LEN:
		a, b, _ := instr.ABC()
		v := frame.Get(b)
		switch {
		case v.IsTable():
			frame.Set(a, luavalue.Integer(v.Table().Len()))
		case v.IsString():
			frame.Set(a, luavalue.Integer(int64(len(v.S))))
		default:
			return nil, false, fmt.Errorf("%w: got %s", ErrLength, v.Kind)
		}

	case luainst.CONCAT:
		a, b, c := instr.ABC()
		out := ""
		for i := b; i <= c; i++ {
			v := frame.Get(i)
			if !v.IsString() && !v.IsNumber() {
				return nil, false, fmt.Errorf("%w: got %s", ErrConcatenate, v.Kind)
			}
			out += v.String()
		}
		frame.Set(a, luavalue.String(out))

	case luainst.JMP:
		a, sbx := instr.AsBx()
		if a != 0 {
			frame.closeFrom(a - 1)
		}
		frame.pc += sbx

	case luainst.EQ, luainst.LT, luainst.LE:
		a, b, c := instr.ABC()
		res, err := compare(compareOpFor(op), frame.rk(b), frame.rk(c))
		if err != nil {
			return nil, false, err
		}
		if res != (a != 0) {
			frame.pc++
		}

	case luainst.TEST:
		a, _, c := instr.ABC()
		if frame.Get(a).ToBoolean() != (c != 0) {
			frame.pc++
		}

	case luainst.TESTSET:
		a, b, c := instr.ABC()
		v := frame.Get(b)
		if v.ToBoolean() == (c != 0) {
			frame.Set(a, v)
		} else {
			frame.pc++
		}

	case luainst.CALL:
		a, b, c := instr.ABC()
		if b != 0 {
			frame.truncate(a + b)
		}
		nArgs := frame.top - a - 1
		if err := s.call(nArgs, c-1); err != nil {
			return nil, false, err
		}

	case luainst.TAILCALL:
		a, b, _ := instr.ABC()
		if b != 0 {
			frame.truncate(a + b)
		}
		nArgs := frame.top - a - 1
		if err := s.call(nArgs, -1); err != nil {
			return nil, false, err
		}
		results := make([]luavalue.Value, frame.top-a)
		copy(results, frame.slots[a:frame.top])
		return results, true, nil

	case luainst.RETURN:
		a, b, _ := instr.ABC()
		var results []luavalue.Value
		if b == 0 {
			results = make([]luavalue.Value, frame.top-a)
			copy(results, frame.slots[a:frame.top])
		} else {
			results = make([]luavalue.Value, b-1)
			copy(results, frame.slots[a:a+b-1])
		}
		return results, true, nil

	case luainst.FORPREP:
		a, sbx := instr.AsBx()
		if err := forPrep(frame, a); err != nil {
			return nil, false, err
		}
		frame.pc += sbx

	case luainst.FORLOOP:
		a, sbx := instr.AsBx()
		if forLoop(frame, a) {
			frame.pc += sbx
		}

	case luainst.TFORCALL:
		// Generic for: call the iterator at a with (state a+1, control
		// a+2), writing c results at a+3..a+2+c while leaving the
		// iterator triple itself untouched. Done via a scratch area above
		// top rather than reusing a directly, since call() always starts
		// writing results where it found the function.
		a, _, c := instr.ABC()
		fn, st, ctrl := frame.Get(a), frame.Get(a+1), frame.Get(a+2)
		base := frame.top
		frame.Set(base, fn)
		frame.Set(base+1, st)
		frame.Set(base+2, ctrl)
		frame.truncate(base + 3)
		if err := s.call(2, c); err != nil {
			return nil, false, err
		}
		for i := 0; i < c; i++ {
			frame.Set(a+3+i, frame.Get(base+i))
		}
		frame.truncate(a + 3 + c)

	case luainst.TFORLOOP:
		a, sbx := instr.AsBx()
		if !frame.Get(a + 1).IsNil() {
			frame.Set(a, frame.Get(a+1))
			frame.pc += sbx
		}

	case luainst.SETLIST:
		a, b, c := instr.ABC()
		t := frame.Get(a).Table()
		if t == nil {
			return nil, false, fmt.Errorf("%w: register %d", ErrNotATable, a)
		}
		n := b
		if b == 0 {
			n = frame.top - a - 1
		}
		if c == 0 {
			extra := luainst.Instruction(proto.Code[frame.pc])
			frame.pc++
			c = extra.Ax()
		}
		base := (c - 1) * lFieldsPerFlush
		for i := 1; i <= n; i++ {
			t.SetInt(int64(base+i), frame.Get(a+i))
		}
		if b == 0 {
			frame.truncate(a + 1)
		}

	case luainst.CLOSURE:
		a, bx := instr.ABx()
		childProto := proto.Protos[bx]
		child := NewScriptClosure(childProto)
		for i, desc := range childProto.Upvalues {
			if desc.InStack {
				child.Upvalues[i] = frame.openUpvalueAt(int(desc.Idx))
			} else {
				child.Upvalues[i] = frame.closure.Upvalues[desc.Idx]
			}
		}
		frame.Set(a, luavalue.FunctionRef(child))

	case luainst.VARARG:
		a, b, _ := instr.ABC()
		n := b - 1
		if b == 0 {
			n = len(frame.varargs)
		}
		for i := 0; i < n; i++ {
			v := luavalue.Nil
			if i < len(frame.varargs) {
				v = frame.varargs[i]
			}
			frame.Set(a+i, v)
		}
		if b == 0 {
			frame.truncate(a + n)
		}

	case luainst.EXTRAARG:
		// only ever consumed inline by LOADKX/SETLIST above.

	default:
		return nil, false, fmt.Errorf("unimplemented opcode %d", op)
	}

	return nil, false, nil
}

func arithOpFor(op luainst.OpCode) ArithOp {
	switch op {
	case luainst.ADD:
		return OpAdd
	case luainst.SUB:
		return OpSub
	case luainst.MUL:
		return OpMul
	case luainst.MOD:
		return OpMod
	case luainst.POW:
		return OpPow
	case luainst.DIV:
		return OpDiv
	case luainst.IDIV:
		return OpIDiv
	case luainst.BAND:
		return OpBAnd
	case luainst.BOR:
		return OpBOr
	case luainst.BXOR:
		return OpBXor
	case luainst.SHL:
		return OpShl
	default:
		return OpShr
	}
}

func compareOpFor(op luainst.OpCode) CompareOp {
	switch op {
	case luainst.EQ:
		return OpEq
	case luainst.LT:
		return OpLt
	default:
		return OpLe
	}
}

// forPrep implements FORPREP: converts init/limit/step (integer if all
// three already are, float otherwise) and subtracts step from init so the
// first FORLOOP addition reproduces the original init value.
func forPrep(frame *Frame, a int) error {
	initV, limitV, stepV := frame.Get(a), frame.Get(a+1), frame.Get(a+2)
	if initV.IsInteger() && limitV.IsInteger() && stepV.IsInteger() {
		if stepV.I == 0 {
			return fmt.Errorf("%w: 'for' step is zero", ErrArithmetic)
		}
		frame.Set(a, luavalue.Integer(initV.I-stepV.I))
		return nil
	}
	initF, ok1 := initV.ToNumber()
	limitF, ok2 := limitV.ToNumber()
	stepF, ok3 := stepV.ToNumber()
	if !ok1 || !ok2 || !ok3 {
		return fmt.Errorf("%w: 'for' initial value must be a number", ErrArithmetic)
	}
	if stepF == 0 {
		return fmt.Errorf("%w: 'for' step is zero", ErrArithmetic)
	}
	frame.Set(a, luavalue.Number(initF-stepF))
	frame.Set(a+1, luavalue.Number(limitF))
	frame.Set(a+2, luavalue.Number(stepF))
	return nil
}

// forLoop implements FORLOOP: advances the control variable by step and
// reports whether the loop should continue (and, if so, publishes the new
// value into both the internal counter at a and the visible loop variable
// at a+3).
func forLoop(frame *Frame, a int) bool {
	init, limit, step := frame.Get(a), frame.Get(a+1), frame.Get(a+2)
	if init.IsInteger() && step.IsInteger() {
		next := init.I + step.I
		cont := next <= limit.I
		if step.I < 0 {
			cont = next >= limit.I
		}
		if cont {
			frame.Set(a, luavalue.Integer(next))
			frame.Set(a+3, luavalue.Integer(next))
		}
		return cont
	}
	next := init.N + step.N
	cont := next <= limit.N
	if step.N < 0 {
		cont = next >= limit.N
	}
	if cont {
		frame.Set(a, luavalue.Number(next))
		frame.Set(a+3, luavalue.Number(next))
	}
	return cont
}
