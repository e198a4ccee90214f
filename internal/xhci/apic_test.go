package xhci

import "testing"

type fixedMMIO map[uint32]uint32

func (f fixedMMIO) Read32(offset uint32) uint32  { return f[offset] }
func (f fixedMMIO) Write32(offset uint32, v uint32) { f[offset] = v }
func (f fixedMMIO) Read64(offset uint32) uint64  { return 0 }
func (f fixedMMIO) Write64(offset uint32, v uint64) {}

func TestHardwareAPICReadsIDFromBits24To31(t *testing.T) {
	mmio := fixedMMIO{localAPICIDRegister: 7 << 24}
	apic := HardwareAPIC{MMIO: mmio}
	if got := apic.ID(); got != 7 {
		t.Fatalf("ID() = %d, want 7", got)
	}
}
