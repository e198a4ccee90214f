// Package efi bundles the UEFI boot-services surface the bootloader
// needs into a small capability interface, rather than calling global
// protocol functions (spec.md §9, "shared firmware state... modeled as
// an injected firmware environment capability bundle"). cmd/bootloader
// depends only on Environment, so its driver and internal/elfload's
// Allocator/Memory adapters can be exercised on the host against a fake
// (see internal/efi/efitest) without QEMU+OVMF.
//
// Grounded on spec.md §9's Design Note directly; there is no teacher
// analogue (the teacher targets bare-metal Raspberry Pi with no
// firmware boundary), so this package's shape is new but its "inject
// the boundary as an interface" idiom mirrors internal/pci's
// PortIO/MMIO split.
package efi

import (
	"github.com/iansmith/nucleus/internal/fbconfig"
)

// MemoryType mirrors the subset of UEFI EFI_MEMORY_TYPE values this
// module names explicitly.
type MemoryType uint32

const (
	MemoryTypeLoaderData MemoryType = 2
)

func (t MemoryType) String() string {
	switch t {
	case MemoryTypeLoaderData:
		return "LoaderData"
	default:
		return "Unknown"
	}
}

// MemoryDescriptor is one row of the UEFI memory map, in the field
// order spec.md §5 requires for the \memmap CSV.
type MemoryDescriptor struct {
	Index         int
	Type          MemoryType
	PhysicalStart uint64
	NumberOfPages uint64
	Attribute     uint64
}

// RootVolume is the EFI simple-file-system root directory: read the
// kernel image, write the memory map.
type RootVolume interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
}

// Environment is the full firmware capability bundle injected into
// cmd/bootloader's driver (spec.md §4.I).
type Environment interface {
	OpenRootVolume() (RootVolume, error)
	AllocatePages(addr uintptr, count int, memType MemoryType) error
	AllocatePool(memType MemoryType, size int) ([]byte, error)
	CurrentGraphicsMode() (fbconfig.Config, error)
	MemoryMap() ([]MemoryDescriptor, error)
	ExitBootServices(memType MemoryType) error
}
