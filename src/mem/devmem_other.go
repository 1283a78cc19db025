//go:build !linux

package mem

import "errors"

type Devmem_t struct{}

func Opendev(path string) (*Devmem_t, error) {
	return nil, errors.New("physical memory device unsupported on this platform")
}

func (dm *Devmem_t) Dmaplen(p Pa_t, l int) ([]uint8, bool) {
	return nil, false
}

func (dm *Devmem_t) Close() error {
	return nil
}
