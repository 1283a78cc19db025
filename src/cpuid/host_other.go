//go:build !amd64

package cpuid

// Host_t reports no leaves on processors without the instruction, which
// identifies as a single-threaded unknown vendor.
type Host_t struct{}

func (Host_t) Cpuid(leaf, sub uint32) (uint32, uint32, uint32, uint32) {
	return 0, 0, 0, 0
}
