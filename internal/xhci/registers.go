// Package xhci brings up an xHCI host controller through halt, reset,
// slot configuration, Command Ring and Event Ring Segment Table setup,
// MSI wiring to the local APIC, and run (spec.md §4.J). All register
// access goes through the MMIO interface so the ordering constraints
// (ERSTBA last, R/S only after INTE) can be verified on the host
// against a recording mock instead of real hardware.
//
// Grounded on internal/pci's PortIO/MMIO capability-injection idiom;
// there is no teacher analogue for xHCI (the teacher's framebuffer/GPU
// bring-up in src/mazboot/golang/main/gg_circle_qemu.go is the closest
// precedent for "poll a device MMIO register until a ready bit flips",
// generalized here to the HCH/HCRST/CNR spin-and-check pattern).
package xhci

// MMIO is the volatile register-access surface over one controller's
// BAR0-relative address space. Every access must be a single load or
// store of the declared width; callers (and mocks) must not coalesce
// or reorder accesses relative to program order.
type MMIO interface {
	Read32(offset uint32) uint32
	Write32(offset uint32, value uint32)
	Read64(offset uint32) uint64
	Write64(offset uint32, value uint64)
}

// LocalAPIC exposes just what MSI wiring needs: the running CPU's APIC
// ID (spec.md §4.J step 7, MMIO 0xFEE00020 bits 24-31).
type LocalAPIC interface {
	ID() uint8
}

// MSIConfigurator is the capability internal/pci.Accessor provides;
// declared here as an interface so bring-up can be tested without a
// real PCI config-space accessor.
type MSIConfigurator interface {
	ConfigureMSI(bus, device, function uint8, msgAddr, msgData uint32, numVectorExponent uint8) error
}

// Capability register offsets, relative to BAR0.
const (
	capOffCapLengthAndVersion = 0x00 // CAPLENGTH in bits 0-7, HCIVERSION in bits 16-31
	capOffHCSParams1          = 0x04
)

// Operational register offsets, relative to opBase = CAPLENGTH.
const (
	opOffUSBCMD = 0x00
	opOffUSBSTS = 0x04
	opOffCRCR   = 0x18 // 64-bit
	opOffCONFIG = 0x38
)

// USBCMD bits.
const (
	usbcmdRS    = 1 << 0
	usbcmdHCRST = 1 << 1
	usbcmdINTE  = 1 << 2
	usbcmdHSEE  = 1 << 3
)

// USBSTS bits.
const (
	usbstsHCH = 1 << 0
	usbstsCNR = 1 << 11
)

// CRCR bits (low dword).
const (
	crcrRCS = 1 << 0
)

// Primary-interrupter runtime register offsets, relative to
// runtimeBase + 0x20 (interrupter register set 0).
const (
	intrOffIMAN   = 0x00
	intrOffERSTSZ = 0x08
	intrOffERSTBA = 0x10 // 64-bit
	intrOffERDP   = 0x18 // 64-bit
)

// IMAN bits.
const (
	imanIP = 1 << 0
	imanIE = 1 << 1
)

// interrupterRegSetBase is the fixed offset of interrupter register
// set 0 from the runtime register base.
const interrupterRegSetBase = 0x20

// maxDeviceSlotsEnabled is this core's implementation-chosen slot
// count (spec.md §4.J step 3: "this core uses 8").
const maxDeviceSlotsEnabled = 8

// msiVector and the composed MSI message fields (spec.md §4.J step 7).
const (
	msiVector        = 0x40
	localAPICIDShift = 12
	msiBaseAddress   = 0xFEE00000
	msiDataBase      = 0xC000
)
