package pci

// Sink receives boot-trace lines as the scanner discovers functions,
// matching the S1 end-to-end scenario's expected "ScanAllBus:" transcript
// and original_source/rs/kernel/src/pci.rs's per-device trace logging.
// nil is a valid Sink (no tracing).
type Sink interface {
	PutString(s string)
}

// Scanner performs depth-first PCI bus enumeration starting at bus 0
// (spec.md §4.C).
type Scanner struct {
	Accessor *Accessor
	Trace    Sink
}

// NewScanner returns a Scanner over the given Accessor.
func NewScanner(a *Accessor) *Scanner {
	return &Scanner{Accessor: a}
}

func (s *Scanner) trace(msg string) {
	if s.Trace != nil {
		s.Trace.PutString(msg)
	}
}

// ScanAll enumerates every reachable PCI function and returns the
// resulting Enumeration.
//
// Algorithm (spec.md §4.C):
//  1. If device 0/function 0 has header_type bit 7 clear (single-
//     function host bridge), scan bus 0. Otherwise scan bus f for each
//     f ∈ [1,8) where function f of device 0 exists.
//  2. scan_bus(bus): for each device ∈ [0,32) with present vendor,
//     scan_device.
//  3. scan_device: function 0 always; if multi-function, also functions
//     1..8 when present.
//  4. scan_function: append the device; if class is a PCI-to-PCI
//     bridge, recurse into its secondary bus.
func (s *Scanner) ScanAll() *Enumeration {
	s.trace("ScanAllBus:\n")
	enum := &Enumeration{}

	hostHeaderType := s.Accessor.Read8(0, 0, 0, RegHeaderType)
	if hostHeaderType&HeaderTypeMultiFunctionBit == 0 {
		s.scanBus(enum, 0)
		return enum
	}
	for f := uint8(1); f < 8; f++ {
		if s.Accessor.VendorID(0, 0, f) == VendorIDAbsent {
			continue
		}
		s.scanBus(enum, f)
	}
	return enum
}

func (s *Scanner) scanBus(enum *Enumeration, bus uint8) {
	for device := uint8(0); device < 32; device++ {
		if s.Accessor.VendorID(bus, device, 0) == VendorIDAbsent {
			continue
		}
		s.scanDevice(enum, bus, device)
	}
}

func (s *Scanner) scanDevice(enum *Enumeration, bus, device uint8) {
	s.scanFunction(enum, bus, device, 0)

	headerType := s.Accessor.Read8(bus, device, 0, RegHeaderType)
	if headerType&HeaderTypeMultiFunctionBit == 0 {
		return
	}
	for function := uint8(1); function < 8; function++ {
		if s.Accessor.VendorID(bus, device, function) == VendorIDAbsent {
			continue
		}
		s.scanFunction(enum, bus, device, function)
	}
}

func (s *Scanner) scanFunction(enum *Enumeration, bus, device, function uint8) {
	loc := Device{Bus: bus, Device: device, Function: function}
	class := s.readClassCode(bus, device, function)
	fi := FunctionInfo{
		Device:     loc,
		VendorID:   s.Accessor.VendorID(bus, device, function),
		DeviceID:   s.Accessor.Read16(bus, device, function, RegDeviceID),
		Class:      class,
		HeaderType: s.Accessor.Read8(bus, device, function, RegHeaderType),
	}
	enum.append(fi)
	s.trace("  " + loc.String() + "\n")

	if class == ClassBridgePCIToPCI {
		secondary := uint8(s.Accessor.Read32(bus, device, function, RegSecondaryBus) >> 8)
		s.scanBus(enum, secondary)
	}
}

// readClassCode reads the base/sub/interface triple from the class-code
// dword at register 0x08: interface is byte 1, sub-class byte 2, base
// class byte 3.
func (s *Scanner) readClassCode(bus, device, function uint8) ClassCode {
	word := s.Accessor.Read32(bus, device, function, RegClassCode)
	return ClassCode{
		Interface: uint8(word >> 8),
		Sub:       uint8(word >> 16),
		Base:      uint8(word >> 24),
	}
}
