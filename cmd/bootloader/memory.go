package main

import (
	"unsafe"

	"github.com/iansmith/nucleus/internal/efi"
)

// pageAllocator adapts efi.Environment to internal/elfload.Allocator,
// always reserving LOADER_DATA pages (spec.md §4.H step 3).
type pageAllocator struct {
	env efi.Environment
}

func (p pageAllocator) AllocatePages(addr uintptr, count int) error {
	return p.env.AllocatePages(addr, count, efi.MemoryTypeLoaderData)
}

// physicalMemory adapts direct, non-volatile physical memory access to
// internal/elfload.Memory. Unlike internal/mmio's register window, ELF
// scatter-loading writes into ordinary RAM, so a plain byte copy is
// correct here.
type physicalMemory struct{}

func (physicalMemory) WriteAt(addr uintptr, data []byte) {
	dst := unsafe.Slice((*byte)(unsafe.Pointer(addr)), len(data))
	copy(dst, data)
}

func (physicalMemory) ZeroAt(addr uintptr, n int) {
	dst := unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)
	for i := range dst {
		dst[i] = 0
	}
}
