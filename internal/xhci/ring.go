package xhci

import "unsafe"

// TRB is one 16-byte Transfer Request Block: two 32-bit parameter
// words, a status word, and a control word whose bit 0 is the cycle
// bit (spec.md §3, GLOSSARY "TRB").
type TRB struct {
	ParameterLow  uint32
	ParameterHigh uint32
	Status        uint32
	Control       uint32
}

const trbCycleBit = 1 << 0

// Cycle reports TRB[dequeue]'s cycle bit.
func (t *TRB) Cycle() bool { return t.Control&trbCycleBit != 0 }

// CommandRingSize is spec.md §4.J step 4's fixed ring length.
const CommandRingSize = 8

// EventRingSegmentSize is spec.md §4.J step 5's fixed segment length.
const EventRingSegmentSize = 32

// CommandRingBuffer is a contiguous, zero-initialized array of
// CommandRingSize TRBs (spec.md §3). Callers must place it at a
// 64-byte-aligned address; this package does not allocate memory, it
// only computes and writes the physical base into CRCR.
type CommandRingBuffer struct {
	TRBs    [CommandRingSize]TRB
	enqueue uint32
	cycle   bool // producer cycle bit, initially true (RCS = 1)
}

// NewCommandRingBuffer returns a ring with the producer cycle bit set
// to 1 and enqueue index 0, as spec.md §4.J step 4 requires.
func NewCommandRingBuffer() *CommandRingBuffer {
	return &CommandRingBuffer{cycle: true}
}

// PhysicalBase returns the ring's base address for CRCR.
func (r *CommandRingBuffer) PhysicalBase() uint64 {
	return uint64(uintptr(unsafe.Pointer(&r.TRBs[0])))
}

// EventRingSegment is a contiguous, zero-initialized array of
// EventRingSegmentSize TRBs (spec.md §3).
type EventRingSegment struct {
	TRBs [EventRingSegmentSize]TRB
}

// PhysicalBase returns the segment's base address.
func (s *EventRingSegment) PhysicalBase() uint64 {
	return uint64(uintptr(unsafe.Pointer(&s.TRBs[0])))
}

// ERSTEntry is one Event Ring Segment Table entry: segment base
// address and size in TRBs (spec.md §3, GLOSSARY "ERST").
type ERSTEntry struct {
	RingSegmentBaseAddress uint64
	RingSegmentSize        uint32
	_                      uint32 // reserved, must be zero
}

// EventRingSegmentTable holds the one entry this core uses (spec.md
// §4.J step 5: "Allocate a one-entry ERST").
type EventRingSegmentTable struct {
	Entries [1]ERSTEntry
}

// PhysicalBase returns the table's base address for ERSTBA.
func (t *EventRingSegmentTable) PhysicalBase() uint64 {
	return uint64(uintptr(unsafe.Pointer(&t.Entries[0])))
}
