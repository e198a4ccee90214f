package xhci

// localAPICIDRegister is the APIC ID register offset from the local
// APIC's MMIO base 0xFEE00000 (spec.md §4.J step 7).
const localAPICIDRegister = 0x20

// HardwareAPIC reads the running CPU's APIC ID from its MMIO window.
type HardwareAPIC struct {
	MMIO MMIO
}

// ID implements LocalAPIC.
func (a HardwareAPIC) ID() uint8 {
	return uint8(a.MMIO.Read32(localAPICIDRegister) >> 24)
}
