package pci

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// mockFunction models one PCI function's 256-byte configuration space
// as a dword array, addressable the way real config space is.
type mockFunction struct {
	dwords [64]uint32 // 256 bytes / 4
}

func newMockFunction(vendor, device uint16, class ClassCode, headerType uint8) *mockFunction {
	f := &mockFunction{}
	f.dwords[RegVendorID/4] = uint32(device)<<16 | uint32(vendor)
	f.dwords[RegClassCode/4] = uint32(class.Base)<<24 | uint32(class.Sub)<<16 | uint32(class.Interface)<<8
	f.dwords[RegHeaderType/4] = uint32(headerType) << 16
	return f
}

// mockTopology implements PortIO over a bus/device/function table,
// simulating CONFIG_ADDRESS/CONFIG_DATA semantics (spec.md §8 item 2's
// mocked topology).
type mockTopology struct {
	functions map[Device]*mockFunction
	lastAddr  uint32
}

func newMockTopology() *mockTopology {
	return &mockTopology{functions: make(map[Device]*mockFunction)}
}

func (m *mockTopology) add(bus, device, function uint8, f *mockFunction) {
	m.functions[Device{Bus: bus, Device: device, Function: function}] = f
}

func (m *mockTopology) Out32(port uint16, value uint32) {
	if port == configAddressPort {
		m.lastAddr = value
		return
	}
	if port != configDataPort {
		return
	}
	// Data writes land in the addressed function's config space, so
	// ConfigureMSI's programming can be read back.
	bus := uint8(m.lastAddr >> 16)
	device := uint8((m.lastAddr >> 11) & 0x1F)
	function := uint8((m.lastAddr >> 8) & 0x7)
	if f, ok := m.functions[Device{Bus: bus, Device: device, Function: function}]; ok {
		f.dwords[uint8(m.lastAddr&0xFC)/4] = value
	}
}

func (m *mockTopology) In32(port uint16) uint32 {
	if port != configDataPort {
		return 0
	}
	bus := uint8(m.lastAddr >> 16)
	device := uint8((m.lastAddr >> 11) & 0x1F)
	function := uint8((m.lastAddr >> 8) & 0x7)
	reg := uint8(m.lastAddr & 0xFC)

	f, ok := m.functions[Device{Bus: bus, Device: device, Function: function}]
	if !ok {
		return 0xFFFFFFFF
	}
	return f.dwords[reg/4]
}

func TestConfigAddressEncoding(t *testing.T) {
	for bus := 0; bus < 256; bus += 37 { // sample the space; full sweep is slow but equivalent
		for device := 0; device < 32; device++ {
			for function := 0; function < 8; function++ {
				for reg := 0; reg < 256; reg += 17 {
					got := configAddress(uint8(bus), uint8(device), uint8(function), uint8(reg))
					want := uint32(0x80000000) |
						uint32(bus)<<16 |
						uint32(device)<<11 |
						uint32(function)<<8 |
						uint32(reg)&0xFC
					require.Equalf(t, want, got, "configAddress(%d,%d,%d,%d)", bus, device, function, reg)
				}
			}
		}
	}
}

func TestScannerEnumerationCompleteness(t *testing.T) {
	topo := newMockTopology()
	// Root bridge: single function, not a bridge class.
	topo.add(0, 0, 0, newMockFunction(0x8086, 0x0001, ClassCode{Base: 0x06, Sub: 0x00}, 0x00))
	// Two ordinary devices on bus 0.
	topo.add(0, 1, 0, newMockFunction(0x8086, 0x1000, ClassCode{Base: 0x02, Sub: 0x00}, 0x00))
	topo.add(0, 2, 0, newMockFunction(0x8086, 0x1001, ClassCode{Base: 0x01, Sub: 0x06}, 0x00))
	// A PCI-to-PCI bridge at 0:3.0 exposing secondary bus 1.
	bridge := newMockFunction(0x8086, 0x2000, ClassBridgePCIToPCI, 0x01)
	bridge.dwords[RegSecondaryBus/4] = uint32(1) << 8
	topo.add(0, 3, 0, bridge)
	// One device behind the bridge, on bus 1.
	topo.add(1, 0, 0, newMockFunction(0x1234, 0x5678, ClassCode{Base: 0x0C, Sub: 0x03, Interface: 0x30}, 0x00))

	acc := NewAccessor(topo)
	scanner := NewScanner(acc)
	enum := scanner.ScanAll()

	want := []Device{
		{Bus: 0, Device: 0, Function: 0},
		{Bus: 0, Device: 1, Function: 0},
		{Bus: 0, Device: 2, Function: 0},
		{Bus: 0, Device: 3, Function: 0},
		{Bus: 1, Device: 0, Function: 0},
	}
	got := enum.Functions()
	require.Len(t, got, len(want))
	for i, fi := range got {
		require.Equalf(t, want[i], fi.Device, "function[%d]", i)
	}

	xhci, ok := enum.FindXHCI()
	require.True(t, ok, "expected to find xHCI function behind the bridge")
	require.Equal(t, Device{Bus: 1, Device: 0, Function: 0}, xhci.Device)
}

func TestScannerDropsBeyondCapacity(t *testing.T) {
	topo := newMockTopology()
	topo.add(0, 0, 0, newMockFunction(0x8086, 0x0001, ClassCode{}, 0x80)) // multi-function host bridge
	for d := uint8(0); d < 32; d++ {
		topo.add(0, d, 0, newMockFunction(0x8086, 0x1000, ClassCode{}, 0x00))
	}
	// Only bus 0 is scanned (host bridge has no other functions present),
	// so this stays under capacity; this test instead directly exercises
	// append()'s drop-and-count behavior at the Enumeration level.
	enum := &Enumeration{}
	for i := 0; i < EnumerationCapacity+5; i++ {
		enum.append(FunctionInfo{Device: Device{Bus: 0, Device: uint8(i % 32), Function: 0}})
	}
	require.Equal(t, EnumerationCapacity, enum.Len())
	require.Equal(t, 5, enum.Dropped)
}

func TestBARDecoding(t *testing.T) {
	topo := newMockTopology()
	f := newMockFunction(0x8086, 0x9d2f, ClassCode{}, 0x00)
	f.dwords[RegBAR0/4] = 0xF0000000 // 32-bit memory BAR, no flags
	topo.add(0, 5, 0, f)
	acc := NewAccessor(topo)

	got, err := acc.BAR(0, 5, 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 0xF0000000, got)

	// 64-bit BAR pair at index 2/3: low=0xF0000004 (flags=0100=64-bit mem), high=0x1.
	f.dwords[(RegBAR0+2*4)/4] = 0xF0000004
	f.dwords[(RegBAR0+3*4)/4] = 0x00000001
	got, err = acc.BAR(0, 5, 0, 2)
	require.NoError(t, err)
	require.EqualValues(t, 0x1F0000004, got)

	_, err = acc.BAR(0, 5, 0, 6)
	require.Error(t, err, "index out of range")

	// 64-bit BAR requested at index 5 must error (no room for the high word).
	f.dwords[(RegBAR0+5*4)/4] = 0xF0000004
	_, err = acc.BAR(0, 5, 0, 5)
	require.Error(t, err, "64-bit BAR at index 5 should error")
}

func TestConfigureMSI(t *testing.T) {
	topo := newMockTopology()
	f := newMockFunction(0x8086, 0x1234, ClassCode{}, 0x00)
	f.dwords[RegCapabilityPtr/4] = 0x50 // low byte of dword at 0x34
	// Build the capability list: one MSI entry at 0x50, next=0.
	capDword := uint32(CapIDMSI) | uint32(0)<<8 // cap_id=0x05, next=0
	f.dwords[0x50/4] = capDword
	// Message control at 0x52: MultiMsgCapable=3 (bits 3:1), Addr64Capable=1(bit7), PerVectorMaskCapable=0(bit8)
	control := uint32(3) << 1
	control |= 1 << 7
	f.dwords[0x50/4] |= control << 16 // offset 0x52 is upper half of dword at 0x50
	topo.add(0, 7, 0, f)

	acc := NewAccessor(topo)
	const msgAddr = 0xFEE00000
	const msgData = 0xC040
	require.NoError(t, acc.ConfigureMSI(0, 7, 0, msgAddr, msgData, 1))

	cap, err := acc.readMSICapability(0, 7, 0, 0x50)
	require.NoError(t, err)
	require.True(t, cap.MSIEnable)
	require.EqualValues(t, 1, cap.MultiMsgEnable, "min(capable=3, requested=1)")
	require.EqualValues(t, msgAddr, cap.MessageAddress)
	require.Zero(t, cap.MessageUpperAddress)
	require.EqualValues(t, msgData, cap.MessageData)
}

func TestConfigureMSINoCapability(t *testing.T) {
	topo := newMockTopology()
	f := newMockFunction(0x8086, 0x1234, ClassCode{}, 0x00)
	topo.add(0, 9, 0, f) // RegCapabilityPtr defaults to 0: empty list
	acc := NewAccessor(topo)

	err := acc.ConfigureMSI(0, 9, 0, 0, 0, 0)
	require.ErrorIs(t, err, ErrNoMSICapability)
}
