package bit

import "testing"

func TestCombine(t *testing.T) {
	if got := Combine16(0xAB, 0xCD); got != 0xABCD {
		t.Errorf("Combine16 = 0x%04X, want 0xABCD", got)
	}
	if got := Combine32(0xDEAD, 0xBEEF); got != 0xDEADBEEF {
		t.Errorf("Combine32 = 0x%08X, want 0xDEADBEEF", got)
	}
}

func TestSetClear(t *testing.T) {
	v := Set(8, 0)
	if v != 0x100 {
		t.Errorf("Set(8, 0) = 0x%X, want 0x100", v)
	}
	if Clear(8, v) != 0 {
		t.Error("Clear(8) did not clear the bit")
	}
	if !IsSet(8, v) {
		t.Error("IsSet(8) = false, want true")
	}
	if !IsSet16(15, 0x8000) {
		t.Error("IsSet16(15, 0x8000) = false, want true")
	}
}

func TestHalves(t *testing.T) {
	if Low16(0xCAFEBABE) != 0xBABE {
		t.Fail()
	}
	if High16(0xCAFEBABE) != 0xCAFE {
		t.Fail()
	}
}

func TestReplaceByte(t *testing.T) {
	tests := []struct {
		name  string
		value uint32
		lane  uint
		b     uint8
		want  uint32
	}{
		{"lane 0", 0xFFFFFFFF, 0, 0x12, 0xFFFFFF12},
		{"lane 1", 0, 1, 0x34, 0x00003400},
		{"lane 3", 0x11223344, 3, 0xAA, 0xAA223344},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReplaceByte(tt.value, tt.lane, tt.b); got != tt.want {
				t.Errorf("ReplaceByte = 0x%08X, want 0x%08X", got, tt.want)
			}
		})
	}

	if got := ReplaceByte16(0xFFFF, 1, 0x12); got != 0x12FF {
		t.Errorf("ReplaceByte16 = 0x%04X, want 0x12FF", got)
	}
}

func TestSignExtend(t *testing.T) {
	if got := SignExtend(0x800000, 24); got != 0xFF800000 {
		t.Errorf("SignExtend(0x800000, 24) = 0x%08X, want 0xFF800000", got)
	}
	if got := SignExtend(0x7F, 8); got != 0x7F {
		t.Errorf("SignExtend(0x7F, 8) = 0x%08X, want 0x7F", got)
	}
}
