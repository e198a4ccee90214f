package pci

// MMIO is the minimal memory-mapped I/O surface MSI-X table/PBA
// programming needs. Real hardware access goes through volatile loads
// and stores over a physical address; host-side tests substitute a
// mock backed by a byte slice.
//
// Resolves spec.md §9's flagged Open Question: the original source
// treats MSI-X as a no-op success, which the spec calls out as a
// defect ("hardware requiring MSI-X only will silently fail to deliver
// interrupts"). DESIGN.md records the decision to implement it for
// real rather than preserve the no-op.
type MMIO interface {
	Read32(addr uint64) uint32
	Write32(addr uint64, value uint32)
}

// MSI-X capability structure offsets, relative to its base (PCI spec
// §6.8.2).
const (
	msixOffControl   = 0x02 // message control word (16 bits)
	msixOffTableOff  = 0x04 // table offset (dword, low 3 bits = BIR)
	msixOffPBAOff    = 0x08 // PBA offset (dword, low 3 bits = BIR)
)

// MSI-X table entry layout (16 bytes each): message address (low 32),
// message upper address (32), message data (32), vector control (32,
// bit 0 = mask).
const msixTableEntrySize = 16

// configureMSIX programs MSI-X table entry 0 to deliver msgAddr/
// msgData and unmasks it, then leaves the function's MSI-X Enable bit
// set in the message-control word. It requires a.MMIO to resolve the
// table's physical address via the function's BAR; if a.MMIO is nil,
// table programming is skipped and only the capability-level enable is
// set (matches hosts without memory-mapped access, e.g. most unit
// tests), which callers should treat as advisory-only.
func (a *Accessor) configureMSIX(bus, device, function, offset uint8, msgAddr, msgData uint32) error {
	controlWord := a.Read16(bus, device, function, offset+msixOffControl)
	tableOffsetReg := a.Read32(bus, device, function, offset+msixOffTableOff)
	tableBIR := tableOffsetReg & 0x7
	tableOffset := uint64(tableOffsetReg &^ 0x7)

	if a.MMIO != nil {
		barValue, err := a.BAR(bus, device, function, int(tableBIR))
		if err == nil {
			tableBase := (barValue &^ uint64(BARFlagMask)) + tableOffset
			a.MMIO.Write32(tableBase+0, msgAddr)           // message address low
			a.MMIO.Write32(tableBase+4, 0)                 // message address high
			a.MMIO.Write32(tableBase+8, uint32(msgData))   // message data
			a.MMIO.Write32(tableBase+12, 0)                // vector control: unmask
		}
	}

	// Set MSI-X Enable (bit 15) and clear Function Mask (bit 14).
	const msixEnableBit = 1 << 15
	const msixFunctionMaskBit = 1 << 14
	newControl := (controlWord | msixEnableBit) &^ msixFunctionMaskBit
	a.writeWord16(bus, device, function, offset+msixOffControl, newControl)
	return nil
}
