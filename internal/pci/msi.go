package pci

import (
	"errors"

	"github.com/iansmith/nucleus/internal/bitpack"
)

// ErrNoMSICapability is returned when neither MSI nor MSI-X is present
// on a function (spec.md §4.D step 4).
var ErrNoMSICapability = errors.New("pci: no MSI capability")

// Offsets within the MSI capability structure, relative to its base.
const (
	msiOffCapHeader   = 0x00 // cap_id (8) | next_ptr (8)
	msiOffControl     = 0x02 // message control word (16 bits, see MessageControl)
	msiOffAddrLow     = 0x04
	msiOffAddrHigh32  = 0x08 // only present if Addr64Capable
	msiOffData16      = 0x08 // data offset when NOT 64-bit capable
	msiOffData64      = 0x0C // data offset when 64-bit capable
	msiOffMask32Base  = 0x0C // mask bits, offset depends on 64-bit capability
	msiOffMask64Base  = 0x10
)

// MessageControl is the MSI capability's 16-bit Message Control
// register, packed/unpacked as a whole record via internal/bitpack so
// bit fields stay consistent (spec.md §3: "Always read/written as a
// whole record").
type MessageControl struct {
	MSIEnable            bool   `bitfield:",1"`
	MultiMsgCapable      uint32 `bitfield:",3"`
	MultiMsgEnable       uint32 `bitfield:",3"`
	Addr64Capable        bool   `bitfield:",1"`
	PerVectorMaskCapable bool   `bitfield:",1"`
	Reserved             uint32 `bitfield:",7"`
}

// MsiCapability is a decoded view of the MSI Capability structure
// (spec.md §3).
type MsiCapability struct {
	CapabilityID        uint8
	NextPtr              uint8
	MessageControl        // embeds MSIEnable, MultiMsg*, Addr64Capable, PerVectorMaskCapable
	MessageAddress        uint32
	MessageUpperAddress   uint32 // valid only if Addr64Capable
	MessageData           uint16 // low 16 bits significant
	MaskBits              uint32 // valid only if PerVectorMaskCapable
	PendingBits           uint32 // valid only if PerVectorMaskCapable
}

// readMSICapability reads the full MSI capability structure at offset
// as one record.
func (a *Accessor) readMSICapability(bus, device, function, offset uint8) (MsiCapability, error) {
	var cap MsiCapability
	header := a.Read32(bus, device, function, offset+msiOffCapHeader)
	cap.CapabilityID = uint8(header)
	cap.NextPtr = uint8(header >> 8)

	controlWord := uint64(a.Read16(bus, device, function, offset+msiOffControl))
	if err := bitpack.Unpack(controlWord, &cap.MessageControl); err != nil {
		return MsiCapability{}, err
	}

	cap.MessageAddress = a.Read32(bus, device, function, offset+msiOffAddrLow)

	if cap.Addr64Capable {
		cap.MessageUpperAddress = a.Read32(bus, device, function, offset+msiOffAddrHigh32)
		cap.MessageData = a.Read16(bus, device, function, offset+msiOffData64)
		if cap.PerVectorMaskCapable {
			cap.MaskBits = a.Read32(bus, device, function, offset+msiOffMask64Base)
			cap.PendingBits = a.Read32(bus, device, function, offset+msiOffMask64Base+4)
		}
	} else {
		cap.MessageData = a.Read16(bus, device, function, offset+msiOffData16)
		if cap.PerVectorMaskCapable {
			cap.MaskBits = a.Read32(bus, device, function, offset+msiOffMask32Base)
			cap.PendingBits = a.Read32(bus, device, function, offset+msiOffMask32Base+4)
		}
	}
	return cap, nil
}

// writeMSICapability writes the full MSI capability structure back as
// one record, in the same field order it was read (spec.md §3).
func (a *Accessor) writeMSICapability(bus, device, function, offset uint8, cap MsiCapability) error {
	controlWord, err := bitpack.Pack(&cap.MessageControl, &bitpack.Config{NumBits: 16})
	if err != nil {
		return err
	}
	a.writeWord16(bus, device, function, offset+msiOffControl, uint16(controlWord))
	a.Write32(bus, device, function, offset+msiOffAddrLow, cap.MessageAddress)

	if cap.Addr64Capable {
		a.Write32(bus, device, function, offset+msiOffAddrHigh32, cap.MessageUpperAddress)
		a.writeWord16(bus, device, function, offset+msiOffData64, cap.MessageData)
	} else {
		a.writeWord16(bus, device, function, offset+msiOffData16, cap.MessageData)
	}
	// PendingBits is read-only and is not written back.
	if cap.PerVectorMaskCapable {
		maskOffset := uint8(msiOffMask32Base)
		if cap.Addr64Capable {
			maskOffset = msiOffMask64Base
		}
		a.Write32(bus, device, function, offset+maskOffset, cap.MaskBits)
	}
	return nil
}

// writeWord16 writes a 16-bit field by read-modify-writing the
// enclosing dword, since the configuration-space accessor only exposes
// dword writes (spec.md §4.B).
func (a *Accessor) writeWord16(bus, device, function, offset uint8, value uint16) {
	dword := a.Read32(bus, device, function, offset&0xFC)
	shift := (offset & 0x2) * 8
	mask := uint32(0xFFFF) << shift
	dword = (dword &^ mask) | (uint32(value) << shift)
	a.Write32(bus, device, function, offset&0xFC, dword)
}

// ConfigureMSI walks the capability list and programs MSI (preferred)
// or MSI-X (fallback) to deliver interrupts to msgAddr/msgData.
// numVectorExponent requests 2^numVectorExponent vectors, clamped to
// the capability's MultiMsgCapable (spec.md §4.D).
func (a *Accessor) ConfigureMSI(bus, device, function uint8, msgAddr, msgData uint32, numVectorExponent uint8) error {
	msiOffset, hasMSI := a.findCapability(bus, device, function, CapIDMSI)
	if hasMSI {
		cap, err := a.readMSICapability(bus, device, function, msiOffset)
		if err != nil {
			return err
		}
		requested := uint32(numVectorExponent)
		if requested > cap.MultiMsgCapable {
			requested = cap.MultiMsgCapable
		}
		cap.MultiMsgEnable = requested
		cap.MSIEnable = true
		cap.MessageAddress = msgAddr
		cap.MessageData = uint16(msgData)
		if cap.Addr64Capable {
			cap.MessageUpperAddress = 0
		}
		return a.writeMSICapability(bus, device, function, msiOffset, cap)
	}

	msixOffset, hasMSIX := a.findCapability(bus, device, function, CapIDMSIX)
	if hasMSIX {
		return a.configureMSIX(bus, device, function, msixOffset, msgAddr, msgData)
	}

	return ErrNoMSICapability
}
