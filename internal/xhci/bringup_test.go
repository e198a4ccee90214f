package xhci

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type regWrite struct {
	offset uint32
	value  uint64
}

// mockMMIO is a recording register file: every write is logged in
// order, and a handful of status bits are synthesized so bring-up's
// spin loops terminate the way real hardware would.
type mockMMIO struct {
	regs      map[uint32]uint64
	log       []regWrite
	usbcmd    uint32
	usbsts    uint32
}

func newMockMMIO(capLength uint32) *mockMMIO {
	m := &mockMMIO{
		regs:   map[uint32]uint64{},
		usbcmd: capLength + opOffUSBCMD,
		usbsts: capLength + opOffUSBSTS,
	}
	m.regs[capOffCapLengthAndVersion] = uint64(capLength)
	return m
}

func (m *mockMMIO) Read32(offset uint32) uint32 { return uint32(m.regs[offset]) }

func (m *mockMMIO) Write32(offset uint32, value uint32) {
	m.log = append(m.log, regWrite{offset, uint64(value)})
	if offset == m.usbcmd {
		switch {
		case value&usbcmdHCRST != 0:
			value &^= usbcmdHCRST // reset completes instantly in this mock
		case value&usbcmdRS != 0:
			m.regs[uint32(m.usbsts)] &^= uint64(usbstsHCH) // controller now running
		default:
			m.regs[uint32(m.usbsts)] |= uint64(usbstsHCH) // controller now halted
		}
	}
	m.regs[offset] = uint64(value)
}

func (m *mockMMIO) Read64(offset uint32) uint64 { return m.regs[offset] }

func (m *mockMMIO) Write64(offset uint32, value uint64) {
	m.log = append(m.log, regWrite{offset, value})
	m.regs[offset] = value
}

type fakeAPIC struct{ id uint8 }

func (a fakeAPIC) ID() uint8 { return a.id }

type fakeMSI struct {
	called  bool
	msgAddr uint32
	msgData uint32
}

func (f *fakeMSI) ConfigureMSI(bus, device, function uint8, msgAddr, msgData uint32, numVectorExponent uint8) error {
	f.called = true
	f.msgAddr, f.msgData = msgAddr, msgData
	return nil
}

func newBringupConfig(msi *fakeMSI) (Config, *mockMMIO) {
	const capLength = 0x20
	const runtimeBase = 0x1000
	mmio := newMockMMIO(capLength)
	cfg := Config{
		RuntimeBase: runtimeBase,
		CommandRing: NewCommandRingBuffer(),
		EventSeg:    &EventRingSegment{},
		ERST:        &EventRingSegmentTable{},
		MSI:         msi,
		Bus:         0, Device: 0, Func: 0,
		APIC: fakeAPIC{id: 3},
	}
	return cfg, mmio
}

func indexOfWrite(log []regWrite, offset uint32, bitSet uint64) int {
	for i, w := range log {
		if w.offset == offset && w.value&bitSet != 0 {
			return i
		}
	}
	return -1
}

// TestBringupOrdering is spec.md §8 item 7.
func TestBringupOrdering(t *testing.T) {
	msi := &fakeMSI{}
	cfg, mmio := newBringupConfig(msi)
	opBase := uint32(0x20)
	runtimeBase := uint32(0x1000)

	require.NoError(t, Bringup(mmio, cfg))
	require.True(t, msi.called, "MSI was never configured")

	// (a) USBCMD.R/S cleared before HCRST is set.
	usbcmdOffset := opBase + opOffUSBCMD
	rsCleared := -1
	for i, w := range mmio.log {
		if w.offset == usbcmdOffset && w.value&usbcmdRS == 0 && w.value&usbcmdHCRST == 0 {
			rsCleared = i
			break
		}
	}
	hcrstSet := indexOfWrite(mmio.log, usbcmdOffset, usbcmdHCRST)
	require.GreaterOrEqual(t, rsCleared, 0, "R/S clear write not found")
	require.GreaterOrEqual(t, hcrstSet, 0, "HCRST set write not found")
	require.Less(t, rsCleared, hcrstSet, "R/S clear must precede HCRST set")

	// (b) ERSTBA written strictly after ERSTSZ and ERDP.
	intrBase := runtimeBase + interrupterRegSetBase
	erstsz := indexOfWrite(mmio.log, intrBase+intrOffERSTSZ, ^uint64(0))
	erdp := indexOfWrite(mmio.log, intrBase+intrOffERDP, ^uint64(0))
	erstba := indexOfWrite(mmio.log, intrBase+intrOffERSTBA, ^uint64(0))
	require.GreaterOrEqual(t, erstsz, 0, "ERSTSZ write not found")
	require.GreaterOrEqual(t, erdp, 0, "ERDP write not found")
	require.GreaterOrEqual(t, erstba, 0, "ERSTBA write not found")
	require.Greater(t, erstba, erstsz, "ERSTBA must follow ERSTSZ")
	require.Greater(t, erstba, erdp, "ERSTBA must follow ERDP")

	// (c) USBCMD.R/S set only after USBCMD.INTE.
	inteSet := indexOfWrite(mmio.log, usbcmdOffset, usbcmdINTE)
	rsSet := indexOfWrite(mmio.log, usbcmdOffset, usbcmdRS)
	require.GreaterOrEqual(t, inteSet, 0, "INTE set write not found")
	require.GreaterOrEqual(t, rsSet, 0, "R/S set write not found")
	require.Greater(t, rsSet, inteSet, "R/S set must follow INTE set")

	got := mmio.Read32(opBase + opOffUSBSTS)
	require.Zero(t, got&usbstsHCH, "USBSTS.HCH must clear once the controller is running")

	// indexOfLast is exercised independently of the ordering assertions
	// above: the last USBCMD write must be the R/S-set write, since
	// run() is bring-up's final step.
	require.Equal(t, rsSet, indexOfLast(mmio.log, usbcmdOffset))
}

func indexOfLast(log []regWrite, offset uint32) int {
	last := -1
	for i, w := range log {
		if w.offset == offset {
			last = i
		}
	}
	return last
}

func TestEventPendingMatchesCycleBit(t *testing.T) {
	seg := &EventRingSegment{}
	seg.TRBs[0].Control = trbCycleBit
	require.True(t, EventPending(seg, 0, true), "cycle bit set, consumer expects set")
	require.False(t, EventPending(seg, 0, false), "cycle bit set, consumer expects clear")
}
