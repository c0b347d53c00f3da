package luainst

import "testing"

func TestABCRoundTrip(t *testing.T) {
	tests := []struct {
		op      OpCode
		a, b, c int
	}{
		{MOVE, 3, 7, 0},
		{ADD, 255, 511, 511},
		{GETTABUP, 0, 0, 0x1FF},
	}
	for _, tc := range tests {
		w := Encode(tc.op, tc.a, tc.b, tc.c)
		if w.OpCode() != tc.op {
			t.Fatalf("OpCode() = %v, want %v", w.OpCode(), tc.op)
		}
		a, b, c := w.ABC()
		if a != tc.a || b != tc.b || c != tc.c {
			t.Fatalf("ABC() = (%d,%d,%d), want (%d,%d,%d)", a, b, c, tc.a, tc.b, tc.c)
		}
	}
}

func TestABxRoundTrip(t *testing.T) {
	w := EncodeABx(LOADK, 5, 12345)
	a, bx := w.ABx()
	if a != 5 || bx != 12345 {
		t.Fatalf("ABx() = (%d,%d), want (5,12345)", a, bx)
	}
}

func TestAsBxRoundTrip(t *testing.T) {
	tests := []int{0, 1, -1, 131071, -131071}
	for _, sbx := range tests {
		w := EncodeAsBx(JMP, 0, sbx)
		_, got := w.AsBx()
		if got != sbx {
			t.Fatalf("AsBx() = %d, want %d", got, sbx)
		}
	}
}

func TestAxRoundTrip(t *testing.T) {
	w := EncodeAx(EXTRAARG, 1<<25)
	if got := w.Ax(); got != 1<<25 {
		t.Fatalf("Ax() = %d, want %d", got, 1<<25)
	}
}

func TestIsConstant(t *testing.T) {
	if IsConstant(0x0F) {
		t.Fatalf("0x0F should be a register operand")
	}
	if !IsConstant(0x1F0) {
		t.Fatalf("0x1F0 should be a constant operand")
	}
	if got := ConstantIndex(0x1F0); got != 0xF0 {
		t.Fatalf("ConstantIndex(0x1F0) = %d, want 0xF0", got)
	}
}

func TestCatalogComplete(t *testing.T) {
	for op := OpCode(0); op < OpCodeCount; op++ {
		if Catalog[op].Mnemonic == "" {
			t.Errorf("opcode %d has no catalog entry", op)
		}
	}
}
