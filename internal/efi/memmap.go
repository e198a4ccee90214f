package efi

import (
	"fmt"
	"strings"
)

// memoryMapCSVHeader is spec.md §4.I step 3's fixed header line.
const memoryMapCSVHeader = "Index, Type, Type(name), PhysicalStart, NumberOfPages, Attribute"

// FormatMemoryMapCSV renders descriptors in the exact column order and
// formatting spec.md §4.I/§5 require: numeric fields in lowercase hex
// except Index (decimal), PhysicalStart zero-padded to 8 hex digits,
// Attribute masked to its low 20 bits.
func FormatMemoryMapCSV(descriptors []MemoryDescriptor) string {
	var b strings.Builder
	b.WriteString(memoryMapCSVHeader)
	b.WriteByte('\n')
	for _, d := range descriptors {
		fmt.Fprintf(&b, "%d, %#x, %s, %08x, %#x, %#x\n",
			d.Index, uint32(d.Type), d.Type.String(), d.PhysicalStart, d.NumberOfPages, d.Attribute&0xFFFFF)
	}
	return b.String()
}
