package luavalue

import "testing"

func TestToBoolean(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"nil", Nil, false},
		{"false", Boolean(false), false},
		{"true", Boolean(true), true},
		{"zero integer", Integer(0), true},
		{"zero number", Number(0), true},
		{"empty string", String(""), true},
		{"table", TableRef(NewTable(0, 0)), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.v.ToBoolean(); got != tc.want {
				t.Errorf("ToBoolean() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	tbl := NewTable(0, 0)
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil==nil", Nil, Nil, true},
		{"int==float same value", Integer(3), Number(3.0), true},
		{"int!=float diff value", Integer(3), Number(3.5), false},
		{"string bytewise equal", String("abc"), String("abc"), true},
		{"string differs", String("abc"), String("abd"), false},
		{"table identity equal", TableRef(tbl), TableRef(tbl), true},
		{"table identity differs", TableRef(tbl), TableRef(NewTable(0, 0)), false},
		{"nil vs false", Nil, Boolean(false), false},
		{"bool vs number", Boolean(true), Integer(1), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Equal(tc.b); got != tc.want {
				t.Errorf("Equal() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindInteger.String() != "number" || KindNumber.String() != "number" {
		t.Fatalf("Integer and Number must both report type %q", "number")
	}
	if KindNil.String() != "nil" {
		t.Fatalf("got %q, want nil", KindNil.String())
	}
}
