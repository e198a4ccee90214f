// Package pci implements PCI configuration-space access, recursive bus
// enumeration, BAR decoding, capability-list walking, and MSI/MSI-X
// programming over the legacy 0xCF8/0xCFC I/O ports (spec.md §4.B-D).
//
// Grounded on src/go/mazarin/pci_qemu.go's scan-and-probe loop
// (generalized from one hardcoded bochs-display match to the full
// recursive bus/bridge DFS spec.md requires) and on
// original_source/rs/kernel/src/pci.rs for the bit-width-polymorphic
// register access and boot-trace log lines the S1 end-to-end scenario
// expects.
package pci

import "fmt"

// Registers within a function's 256-byte configuration space that this
// package reads directly.
const (
	RegVendorID      = 0x00
	RegDeviceID      = 0x02
	RegCommand       = 0x04
	RegStatus        = 0x06
	RegClassCode     = 0x08 // interface, sub, base occupy bytes 1,2,3
	RegHeaderType    = 0x0E
	RegBAR0          = 0x10
	RegCapabilityPtr = 0x34
	RegSecondaryBus  = 0x18 // bits 8-15 of the dword at 0x18
)

// VendorIDAbsent is the sentinel vendor ID read back from a
// nonexistent function (spec.md §4.B failure mode).
const VendorIDAbsent = 0xFFFF

// HeaderTypeMultiFunctionBit is bit 7 of the header-type byte.
const HeaderTypeMultiFunctionBit = 0x80

// Well-known vendor IDs used by xHCI device selection (§4.J step 8).
const VendorIntel = 0x8086

// Device is a value-typed, copyable PCI device location.
// Invariant: Device ∈ [0,32), Function ∈ [0,8).
type Device struct {
	Bus      uint8
	Device   uint8
	Function uint8
}

func (d Device) String() string {
	return fmt.Sprintf("%02x:%02x.%x", d.Bus, d.Device, d.Function)
}

// ClassCode identifies a device's class/subclass/programming-interface
// triple; equality is by value.
type ClassCode struct {
	Base      uint8
	Sub       uint8
	Interface uint8
}

// ClassBridgePCIToPCI is the class code of a PCI-to-PCI bridge.
var ClassBridgePCIToPCI = ClassCode{Base: 0x06, Sub: 0x04}

// ClassXHCI is the class code (base, sub) of an xHCI USB host
// controller; Interface (0x30) identifies the xHCI programming
// interface specifically, as opposed to UHCI/OHCI/EHCI.
var ClassXHCI = ClassCode{Base: 0x0C, Sub: 0x03, Interface: 0x30}

// EnumerationCapacity is the fixed capacity of an Enumeration, chosen
// to avoid requiring a heap in the kernel (spec.md §3, Design Notes).
const EnumerationCapacity = 256

// FunctionInfo is an enriched record of one scanned function: its
// location plus the vendor/device/class identity read while scanning,
// cached so callers (xHCI device selection) don't re-issue config
// reads. Added relative to spec.md's bare PciDevice, grounded on
// pci_qemu.go's BOCHS_VENDOR_ID/BOCHS_DEVICE_ID identification pattern
// generalized from one hardcoded match into a per-function record.
type FunctionInfo struct {
	Device    Device
	VendorID  uint16
	DeviceID  uint16
	Class     ClassCode
	HeaderType uint8
}

// Enumeration is a fixed-capacity, ordered sequence of discovered
// functions produced once at boot and immutable thereafter. If full,
// further discoveries are silently dropped and Dropped is incremented
// (spec.md §4.C: "implementations SHOULD report this via an external
// counter rather than panic").
type Enumeration struct {
	functions [EnumerationCapacity]FunctionInfo
	count     int
	Dropped   int
}

// Functions returns the discovered functions in DFS order.
func (e *Enumeration) Functions() []FunctionInfo {
	return e.functions[:e.count]
}

// Len returns the number of discovered functions.
func (e *Enumeration) Len() int { return e.count }

func (e *Enumeration) append(fi FunctionInfo) {
	if e.count >= EnumerationCapacity {
		e.Dropped++
		return
	}
	e.functions[e.count] = fi
	e.count++
}

// FindXHCI returns the xHCI host controller this boot should bring up:
// if multiple exist, the first Intel-vendor one wins, otherwise the
// first one found (spec.md §4.J failure handling).
func (e *Enumeration) FindXHCI() (FunctionInfo, bool) {
	var first FunctionInfo
	foundAny := false
	for _, fi := range e.Functions() {
		if fi.Class != ClassXHCI {
			continue
		}
		if !foundAny {
			first = fi
			foundAny = true
		}
		if fi.VendorID == VendorIntel {
			return fi, true
		}
	}
	return first, foundAny
}
