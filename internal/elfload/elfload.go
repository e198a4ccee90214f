// Package elfload parses an ELF64 program-header table and scatter-loads
// PT_LOAD segments into physical memory reserved by the firmware
// environment (spec.md §4.H). It deliberately does not use debug/elf:
// that package is built around a seekable, multi-section host file
// reader, while here the entire image is already a byte buffer read
// whole from the EFI system partition and only PT_LOAD headers matter.
//
// Grounded on src/mazboot/tools/patch-runtime.go's hand-rolled ELF
// header decode (fixed-offset encoding/binary reads, no debug/elf) and
// on src/mazboot/golang/main/page.go's "reserve pages, then populate"
// idiom, generalized from page-metadata bookkeeping to a firmware page
// allocator.
package elfload

import (
	"encoding/binary"
	"errors"
)

const (
	pageSize = 4096

	elfMagic = "\x7fELF"

	classELF64 = 2
	dataLSB    = 1

	etypeExec = 2
	etypeDyn  = 3

	ptLoad = 1

	ehdrSize = 64
	phdrSize = 56
)

// Errors returned by Load. Every one is fatal per spec.md §7.
var (
	ErrBadMagic      = errors.New("elfload: not an ELF64 little-endian image")
	ErrUnsupported   = errors.New("elfload: unsupported ELF class or type")
	ErrTruncated     = errors.New("elfload: buffer too short for header table")
	ErrNoLoad        = errors.New("elfload: no PT_LOAD segments")
	ErrSegmentBounds = errors.New("elfload: p_filesz exceeds p_memsz")
	ErrOutOfRange    = errors.New("elfload: PT_LOAD segment outside reserved range")
)

// Allocator is the firmware capability this package needs: reserve count
// physical pages starting at the exact address addr, typed as loader
// data. Implemented for real hardware by internal/efi; faked in tests.
type Allocator interface {
	AllocatePages(addr uintptr, count int) error
}

// Memory is the scatter-load destination: a flat view of physical
// memory the loader may write into at arbitrary addresses, once pages
// backing those addresses have been reserved via Allocator.
type Memory interface {
	// WriteAt copies data to the physical address addr.
	WriteAt(addr uintptr, data []byte)
	// ZeroAt zeros n bytes starting at physical address addr.
	ZeroAt(addr uintptr, n int)
}

type programHeader struct {
	ptype  uint32
	flags  uint32
	offset uint64
	vaddr  uint64
	paddr  uint64
	filesz uint64
	memsz  uint64
	align  uint64
}

// Load implements spec.md §4.H: validate the header, compute the
// [first, last) physical range spanned by PT_LOAD segments, reserve
// ceil((last-first)/pageSize) pages at first via alloc, copy each
// segment's file bytes and zero its BSS tail via mem, and return the
// entry point.
func Load(buffer []byte, alloc Allocator, mem Memory) (entry uint64, err error) {
	if len(buffer) < ehdrSize {
		return 0, ErrTruncated
	}
	if string(buffer[0:4]) != elfMagic {
		return 0, ErrBadMagic
	}
	if buffer[4] != classELF64 || buffer[5] != dataLSB {
		return 0, ErrUnsupported
	}
	etype := binary.LittleEndian.Uint16(buffer[16:18])
	if etype != etypeExec && etype != etypeDyn {
		return 0, ErrUnsupported
	}

	entry = binary.LittleEndian.Uint64(buffer[24:32])
	phoff := binary.LittleEndian.Uint64(buffer[32:40])
	phnum := binary.LittleEndian.Uint16(buffer[56:58])

	phdrs, err := parseProgramHeaders(buffer, phoff, phnum)
	if err != nil {
		return 0, err
	}

	loads := make([]programHeader, 0, len(phdrs))
	for _, ph := range phdrs {
		if ph.ptype == ptLoad {
			if ph.filesz > ph.memsz {
				return 0, ErrSegmentBounds
			}
			loads = append(loads, ph)
		}
	}
	if len(loads) == 0 {
		return 0, ErrNoLoad
	}

	first, last := loadRange(loads)
	count := int((last - first + pageSize - 1) / pageSize)
	if err := alloc.AllocatePages(uintptr(first), count); err != nil {
		return 0, err
	}

	for _, ph := range loads {
		if ph.vaddr < first || ph.vaddr+ph.memsz > last {
			return 0, ErrOutOfRange
		}
		fileEnd := ph.offset + ph.filesz
		if fileEnd > uint64(len(buffer)) {
			return 0, ErrTruncated
		}
		mem.WriteAt(uintptr(ph.vaddr), buffer[ph.offset:fileEnd])
		if tail := ph.memsz - ph.filesz; tail > 0 {
			mem.ZeroAt(uintptr(ph.vaddr+ph.filesz), int(tail))
		}
	}

	return entry, nil
}

// loadRange computes first = min(p_vaddr) and last = max(p_vaddr +
// p_memsz) over all PT_LOAD segments (spec.md §4.H step 2).
func loadRange(loads []programHeader) (first, last uint64) {
	first = loads[0].vaddr
	last = loads[0].vaddr + loads[0].memsz
	for _, ph := range loads[1:] {
		if ph.vaddr < first {
			first = ph.vaddr
		}
		if end := ph.vaddr + ph.memsz; end > last {
			last = end
		}
	}
	return first, last
}

func parseProgramHeaders(buffer []byte, phoff uint64, phnum uint16) ([]programHeader, error) {
	end := phoff + uint64(phnum)*phdrSize
	if end > uint64(len(buffer)) {
		return nil, ErrTruncated
	}
	out := make([]programHeader, phnum)
	for i := range out {
		base := buffer[phoff+uint64(i)*phdrSize:]
		out[i] = programHeader{
			ptype:  binary.LittleEndian.Uint32(base[0:4]),
			flags:  binary.LittleEndian.Uint32(base[4:8]),
			offset: binary.LittleEndian.Uint64(base[8:16]),
			vaddr:  binary.LittleEndian.Uint64(base[16:24]),
			paddr:  binary.LittleEndian.Uint64(base[24:32]),
			filesz: binary.LittleEndian.Uint64(base[32:40]),
			memsz:  binary.LittleEndian.Uint64(base[40:48]),
			align:  binary.LittleEndian.Uint64(base[48:56]),
		}
	}
	return out, nil
}
