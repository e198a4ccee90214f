package pci

// PortIO is the minimal port-I/O surface the configuration-space
// accessor needs. internal/ioport.Port implements it against real
// hardware; host-side tests substitute a mock topology (spec.md §8:
// "host-side unit tests with mocks for I/O ports").
type PortIO interface {
	Out32(port uint16, value uint32)
	In32(port uint16) uint32
}

const (
	configAddressPort = 0x0CF8
	configDataPort    = 0x0CFC
)

// Accessor reads and writes 32-bit dwords in PCI configuration space via
// the legacy CONFIG_ADDRESS/CONFIG_DATA port pair (spec.md §4.B).
type Accessor struct {
	Port PortIO

	// MMIO is optionally used to program the MSI-X table/PBA directly;
	// nil is valid and MSI-X falls back to capability-level enable only.
	MMIO MMIO
}

// NewAccessor returns an Accessor backed by the given PortIO.
func NewAccessor(port PortIO) *Accessor {
	return &Accessor{Port: port}
}

// configAddress composes the CONFIG_ADDRESS value for bus/device/
// function/register: bit 31 enable, bits 16-23 bus, 11-15 device, 8-10
// function, 2-7 register (dword-aligned, bits 0-1 forced zero).
//
// Testable property 1 (spec.md §8): for all bus∈[0,256), device∈[0,32),
// function∈[0,8), reg∈[0,256), this equals
// 0x80000000 | (bus<<16) | (device<<11) | (function<<8) | (reg & 0xFC).
func configAddress(bus, device, function uint8, reg uint8) uint32 {
	return 0x80000000 |
		uint32(bus)<<16 |
		uint32(device)<<11 |
		uint32(function)<<8 |
		uint32(reg)&0xFC
}

// Read32 reads the dword at register offset reg of the given function.
func (a *Accessor) Read32(bus, device, function, reg uint8) uint32 {
	a.Port.Out32(configAddressPort, configAddress(bus, device, function, reg))
	return a.Port.In32(configDataPort)
}

// Write32 writes value to the dword at register offset reg of the given
// function. The two port accesses (address write, then data write) are
// issued back-to-back without an intervening foreign access, matching
// spec.md §4.B's "matched pair" requirement; on the single-CPU,
// non-preemptive core this needs no additional lock.
func (a *Accessor) Write32(bus, device, function, reg uint8, value uint32) {
	a.Port.Out32(configAddressPort, configAddress(bus, device, function, reg))
	a.Port.Out32(configDataPort, value)
}

// Read16 reads a 16-bit field at a (possibly unaligned-to-dword) byte
// offset, masking the enclosing dword read. Supplements spec.md per
// original_source/rs/kernel/src/pci.rs, whose PCI accessor offers
// sub-dword reads for exactly this purpose (vendor/device ID, BAR flag
// words, capability bytes).
func (a *Accessor) Read16(bus, device, function, offset uint8) uint16 {
	dword := a.Read32(bus, device, function, offset&0xFC)
	shift := (offset & 0x2) * 8
	return uint16(dword >> shift)
}

// Read8 reads a single byte at offset, masking the enclosing dword read.
func (a *Accessor) Read8(bus, device, function, offset uint8) uint8 {
	dword := a.Read32(bus, device, function, offset&0xFC)
	shift := (offset & 0x3) * 8
	return uint8(dword >> shift)
}

// VendorID reads the vendor-ID word. A value of VendorIDAbsent means no
// function exists at this location (spec.md §4.B failure mode).
func (a *Accessor) VendorID(bus, device, function uint8) uint16 {
	return a.Read16(bus, device, function, RegVendorID)
}

// Present reports whether a function is present at this location.
func (a *Accessor) Present(bus, device, function uint8) bool {
	return a.VendorID(bus, device, function) != VendorIDAbsent
}
