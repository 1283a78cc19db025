package cpuid

// implemented in cpuid_amd64.s
func cpuid(eaxArg, ecxArg uint32) (eax, ebx, ecx, edx uint32)

// Host_t queries the processor executing the caller.
type Host_t struct{}

func (Host_t) Cpuid(leaf, sub uint32) (uint32, uint32, uint32, uint32) {
	return cpuid(leaf, sub)
}
