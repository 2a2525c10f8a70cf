package types

import "testing"

func TestElementSize(t *testing.T) {
	cases := map[DataType]int{
		BYTE:        1,
		SBYTE:       1,
		WORD:        2,
		SWORD:       2,
		FLOAT:       5,
		ARRAY_BYTE:  1,
		ARRAY_WORD:  2,
		MATRIX_BYTE: 1,
	}
	for dt, want := range cases {
		if got := dt.ElementSize(); got != want {
			t.Errorf("%s.ElementSize() = %d, want %d", dt, got, want)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	for _, dt := range []DataType{BYTE, SBYTE, WORD, SWORD, FLOAT} {
		if !dt.IsNumeric() {
			t.Errorf("%s should be numeric", dt)
		}
	}
	for _, dt := range []DataType{ARRAY_BYTE, MATRIX_BYTE, BOOL} {
		if dt.IsNumeric() {
			t.Errorf("%s should not be numeric", dt)
		}
	}
}

func TestRegisterDataType(t *testing.T) {
	if RegisterDataType("A") != BYTE {
		t.Errorf("A should be BYTE")
	}
	if RegisterDataType("AX") != WORD {
		t.Errorf("AX should be WORD")
	}
	if RegisterDataType("ZZ") != UNDEFINED {
		t.Errorf("ZZ should be undefined")
	}
}
