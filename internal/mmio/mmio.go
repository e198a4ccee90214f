// Package mmio provides volatile memory-mapped register access for the
// xHCI controller window and MSI-X BAR space. The compiler must not
// reorder or coalesce these loads/stores (spec.md §5, "all MMIO
// accesses are volatile"), so — exactly like internal/ioport's port
// I/O — the actual access is a same-package assembly stub rather than
// a plain Go pointer dereference, mirroring the teacher's
// mmio_read/mmio_write split (src/go/mazarin/kernel.go calls them via
// go:linkname into lib.s; here they're declared go:noescape and
// defined in mmio_amd64.s directly, matching internal/ioport's idiom).
package mmio

//go:noescape
func load32(addr uintptr) uint32

//go:noescape
func store32(addr uintptr, value uint32)

//go:noescape
func load64(addr uintptr) uint64

//go:noescape
func store64(addr uintptr, value uint64)

// Region is a volatile register window based at Base.
type Region struct {
	Base uintptr
}

func (r Region) Read32(offset uint32) uint32         { return load32(r.Base + uintptr(offset)) }
func (r Region) Write32(offset uint32, value uint32) { store32(r.Base+uintptr(offset), value) }
func (r Region) Read64(offset uint32) uint64         { return load64(r.Base + uintptr(offset)) }
func (r Region) Write64(offset uint32, value uint64) { store64(r.Base+uintptr(offset), value) }
