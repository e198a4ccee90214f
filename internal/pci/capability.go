package pci

// Capability IDs this package recognizes while walking the list.
const (
	CapIDMSI  = 0x05
	CapIDMSIX = 0x11
)

// capabilityEntry is one node of the capability linked list: cap_id at
// offset+0, next pointer at offset+1.
type capabilityEntry struct {
	offset uint8
	id     uint8
	next   uint8
}

// walkCapabilities follows the capability linked list starting at
// read8(0x34) & 0xFC until a next pointer of 0, per spec.md §4.D.
func (a *Accessor) walkCapabilities(bus, device, function uint8) []capabilityEntry {
	var entries []capabilityEntry
	offset := a.Read8(bus, device, function, RegCapabilityPtr) & 0xFC
	seen := 0
	for offset != 0 && seen < 64 { // 64: defensive bound against a corrupt/cyclic list
		id := a.Read8(bus, device, function, offset)
		next := a.Read8(bus, device, function, offset+1)
		entries = append(entries, capabilityEntry{offset: offset, id: id, next: next})
		offset = next & 0xFC
		seen++
	}
	return entries
}

// findCapability returns the config-space offset of the first
// capability with the given ID, or ok=false if absent.
func (a *Accessor) findCapability(bus, device, function uint8, capID uint8) (offset uint8, ok bool) {
	for _, e := range a.walkCapabilities(bus, device, function) {
		if e.id == capID {
			return e.offset, true
		}
	}
	return 0, false
}
