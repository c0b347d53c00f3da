package luavalue

import "testing"

func TestIFloorDiv(t *testing.T) {
	tests := []struct{ a, b, want int64 }{
		{7, 2, 3},
		{-7, 2, -4},
		{7, -2, -4},
		{-7, -2, 3},
		{6, 3, 2},
	}
	for _, tc := range tests {
		if got := IFloorDiv(tc.a, tc.b); got != tc.want {
			t.Errorf("IFloorDiv(%d,%d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestIMod(t *testing.T) {
	tests := []struct{ a, b, want int64 }{
		{7, 2, 1},
		{-7, 2, 1},
		{7, -2, -1},
		{-7, -2, -1},
	}
	for _, tc := range tests {
		if got := IMod(tc.a, tc.b); got != tc.want {
			t.Errorf("IMod(%d,%d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestShift(t *testing.T) {
	if got := ShiftLeft(1, 4); got != 16 {
		t.Errorf("ShiftLeft(1,4) = %d, want 16", got)
	}
	if got := ShiftLeft(-1, 63); got != -9223372036854775808 {
		t.Errorf("ShiftLeft(-1,63) = %d, want min int64", got)
	}
	if got := ShiftRight(16, 4); got != 1 {
		t.Errorf("ShiftRight(16,4) = %d, want 1", got)
	}
	if got := ShiftLeft(1, 64); got != 0 {
		t.Errorf("ShiftLeft(1,64) = %d, want 0", got)
	}
	if got := ShiftLeft(1, -64); got != 0 {
		t.Errorf("ShiftLeft(1,-64) = %d, want 0", got)
	}
}

func TestFloatToInteger(t *testing.T) {
	if i, ok := FloatToInteger(3.0); !ok || i != 3 {
		t.Errorf("FloatToInteger(3.0) = %d, %v, want 3, true", i, ok)
	}
	if _, ok := FloatToInteger(3.5); ok {
		t.Errorf("FloatToInteger(3.5) should fail (non-integral)")
	}
	if _, ok := FloatToInteger(1e300); ok {
		t.Errorf("FloatToInteger(1e300) should fail (out of range)")
	}
}

func TestStringToInteger(t *testing.T) {
	if i, ok := StringToInteger("42"); !ok || i != 42 {
		t.Errorf("StringToInteger(42) = %d,%v", i, ok)
	}
	if i, ok := StringToInteger("3.0"); !ok || i != 3 {
		t.Errorf("StringToInteger(3.0) = %d,%v, want 3,true", i, ok)
	}
	if _, ok := StringToInteger("abc"); ok {
		t.Errorf("StringToInteger(abc) should fail")
	}
}

func TestFb2Int(t *testing.T) {
	tests := []struct {
		b    uint8
		want int
	}{
		{0, 0},
		{7, 7},
		{8, 8},
		{9, 9},
		{16, 16},
		{17, 18},
	}
	for _, tc := range tests {
		if got := Fb2Int(tc.b); got != tc.want {
			t.Errorf("Fb2Int(%d) = %d, want %d", tc.b, got, tc.want)
		}
	}
}
