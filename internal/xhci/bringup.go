package xhci

import "errors"

// ErrTimeout is returned when a status-bit spin loop does not settle
// within maxSpinIterations. spec.md §7 leaves these spins unbounded in
// the minimum baseline but flags that "a production implementation
// must bound them with a TSC-based timeout"; this core uses an
// iteration bound instead of a cycle-counter deadline since there is
// no timestamp source available before interrupts are configured.
var ErrTimeout = errors.New("xhci: register did not settle before the spin bound")

// maxSpinIterations bounds every wait-for-bit loop in Bringup.
const maxSpinIterations = 1_000_000

// Config bundles the resources Bringup needs beyond the MMIO window
// itself: the rings it wires in, the PCI function to arm MSI on, and
// the local APIC used to address the MSI message.
type Config struct {
	RuntimeBase uint32 // byte offset of the runtime register set from BAR0
	CommandRing *CommandRingBuffer
	EventSeg    *EventRingSegment
	ERST        *EventRingSegmentTable

	MSI    MSIConfigurator
	Bus    uint8
	Device uint8
	Func   uint8

	APIC LocalAPIC
}

// Bringup runs spec.md §4.J's eight-step sequence against mmio. It
// returns the first error encountered; any timeout or MSI-programming
// failure is fatal per spec.md §7.
func Bringup(mmio MMIO, cfg Config) error {
	capWord := mmio.Read32(capOffCapLengthAndVersion)
	capLength := capWord & 0xFF
	opBase := capLength

	if err := halt(mmio, opBase); err != nil {
		return err
	}
	if err := reset(mmio, opBase); err != nil {
		return err
	}
	configureSlots(mmio, opBase)
	setupCommandRing(mmio, opBase, cfg.CommandRing)
	setupEventRing(mmio, cfg.RuntimeBase, cfg.EventSeg, cfg.ERST)
	enableInterrupts(mmio, opBase, cfg.RuntimeBase)
	if err := wireMSI(cfg); err != nil {
		return err
	}
	return run(mmio, opBase)
}

// halt implements step 1: clear INTE and HSEE; clear R/S if the
// controller is not already halted; spin until HCH = 1.
func halt(mmio MMIO, opBase uint32) error {
	cmd := mmio.Read32(opBase + opOffUSBCMD)
	cmd &^= usbcmdINTE | usbcmdHSEE
	if mmio.Read32(opBase+opOffUSBSTS)&usbstsHCH == 0 {
		cmd &^= usbcmdRS
	}
	mmio.Write32(opBase+opOffUSBCMD, cmd)

	for i := 0; i < maxSpinIterations; i++ {
		if mmio.Read32(opBase+opOffUSBSTS)&usbstsHCH != 0 {
			return nil
		}
	}
	return ErrTimeout
}

// reset implements step 2: set HCRST; spin until HCRST and CNR both
// clear.
func reset(mmio MMIO, opBase uint32) error {
	cmd := mmio.Read32(opBase + opOffUSBCMD)
	mmio.Write32(opBase+opOffUSBCMD, cmd|usbcmdHCRST)

	for i := 0; i < maxSpinIterations; i++ {
		cmdNow := mmio.Read32(opBase + opOffUSBCMD)
		stsNow := mmio.Read32(opBase + opOffUSBSTS)
		if cmdNow&usbcmdHCRST == 0 && stsNow&usbstsCNR == 0 {
			return nil
		}
	}
	return ErrTimeout
}

// configureSlots implements step 3: read HCSPARAMS1's MaxSlots and set
// CONFIG.MaxDeviceSlotsEnabled to the core's fixed slot count, clamped
// so it never exceeds MaxSlots.
func configureSlots(mmio MMIO, opBase uint32) {
	slots := uint32(maxDeviceSlotsEnabled)
	if maxSlots := mmio.Read32(capOffHCSParams1) & 0xFF; maxSlots < slots {
		slots = maxSlots
	}
	mmio.Write32(opBase+opOffCONFIG, slots)
}

// setupCommandRing implements step 4: write CRCR with the ring's
// physical base and RCS = 1.
func setupCommandRing(mmio MMIO, opBase uint32, ring *CommandRingBuffer) {
	mmio.Write64(opBase+opOffCRCR, ring.PhysicalBase()|crcrRCS)
}

// setupEventRing implements step 5. ERSTBA must be written last among
// ERSTSZ, ERDP, ERSTBA per xHCI §5.5.2.3 and spec.md §4.J step 5.
func setupEventRing(mmio MMIO, runtimeBase uint32, seg *EventRingSegment, erst *EventRingSegmentTable) {
	erst.Entries[0] = ERSTEntry{
		RingSegmentBaseAddress: seg.PhysicalBase(),
		RingSegmentSize:        EventRingSegmentSize,
	}

	intrBase := runtimeBase + interrupterRegSetBase
	mmio.Write32(intrBase+intrOffERSTSZ, 1)
	mmio.Write64(intrBase+intrOffERDP, seg.PhysicalBase())
	mmio.Write64(intrBase+intrOffERSTBA, erst.PhysicalBase())
}

// enableInterrupts implements step 6: set IMAN.IE and write-1-to-clear
// IMAN.IP, then set USBCMD.INTE.
func enableInterrupts(mmio MMIO, opBase, runtimeBase uint32) {
	intrBase := runtimeBase + interrupterRegSetBase
	mmio.Write32(intrBase+intrOffIMAN, imanIE|imanIP)

	cmd := mmio.Read32(opBase + opOffUSBCMD)
	mmio.Write32(opBase+opOffUSBCMD, cmd|usbcmdINTE)
}

// wireMSI implements step 7: read the BSP local-APIC ID, compose the
// MSI message address/data, and program it via cfg.MSI.
func wireMSI(cfg Config) error {
	apicID := cfg.APIC.ID()
	msgAddr := uint32(msiBaseAddress) | (uint32(apicID) << localAPICIDShift)
	msgData := uint32(msiDataBase) | msiVector
	return cfg.MSI.ConfigureMSI(cfg.Bus, cfg.Device, cfg.Func, msgAddr, msgData, 0)
}

// run implements step 8: set USBCMD.R/S; spin until HCH clears.
func run(mmio MMIO, opBase uint32) error {
	cmd := mmio.Read32(opBase + opOffUSBCMD)
	mmio.Write32(opBase+opOffUSBCMD, cmd|usbcmdRS)

	for i := 0; i < maxSpinIterations; i++ {
		if mmio.Read32(opBase+opOffUSBSTS)&usbstsHCH == 0 {
			return nil
		}
	}
	return ErrTimeout
}

// EventPending reports whether the TRB at the Event Ring's dequeue
// index is ready for consumption: its cycle bit must match the
// consumer's current cycle state (spec.md §9's flagged Open Question —
// a prior revision compared the dequeue ERST segment index against the
// cycle bit, a category error; the correct check is TRB[dequeue]'s
// cycle bit against the consumer cycle state, as implemented here).
func EventPending(seg *EventRingSegment, dequeueIndex uint32, consumerCycle bool) bool {
	return seg.TRBs[dequeueIndex].Cycle() == consumerCycle
}
