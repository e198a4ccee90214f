package bitpack

import "testing"

type testFlags struct {
	Allocated bool   `bitfield:",1"`
	Kind      uint32 `bitfield:",3"`
	Reserved  uint32 `bitfield:",28"`
}

func TestPackUnpackRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		flags testFlags
		want  uint32
	}{
		{"all zero", testFlags{}, 0},
		{"allocated only", testFlags{Allocated: true}, 0x1},
		{"kind only", testFlags{Kind: 5}, 0x5 << 1},
		{"allocated and kind", testFlags{Allocated: true, Kind: 7}, 0x1 | (0x7 << 1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			packed, err := Pack(&tc.flags, &Config{NumBits: 32})
			if err != nil {
				t.Fatalf("Pack: %v", err)
			}
			if uint32(packed) != tc.want {
				t.Fatalf("Pack(%+v) = %#x, want %#x", tc.flags, packed, tc.want)
			}

			var out testFlags
			if err := Unpack(packed, &out); err != nil {
				t.Fatalf("Unpack: %v", err)
			}
			if out != tc.flags {
				t.Fatalf("Unpack(%#x) = %+v, want %+v", packed, out, tc.flags)
			}
		})
	}
}

func TestPackOverflow(t *testing.T) {
	f := testFlags{Kind: 15} // only 3 bits available, max 7
	if _, err := Pack(&f, &Config{NumBits: 32}); err == nil {
		t.Fatal("expected overflow error, got nil")
	}
}

func TestPackRejectsNonStruct(t *testing.T) {
	x := 42
	if _, err := Pack(x, nil); err == nil {
		t.Fatal("expected error packing non-struct, got nil")
	}
}
