package mem

import "fmt"
import "os"
import "sync"

import "golang.org/x/sys/unix"

// Devmem_t maps physical memory through a device file such as /dev/mem.
// windows are mapped read-only a page-aligned chunk at a time and cached
// until Close.
type Devmem_t struct {
	sync.Mutex
	f    *os.File
	wins map[Pa_t][]uint8
}

// the granularity of cached windows
const devwin = Pa_t(1 << 16)

func Opendev(path string) (*Devmem_t, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Devmem_t{f: f, wins: make(map[Pa_t][]uint8)}, nil
}

func (dm *Devmem_t) window(base Pa_t) ([]uint8, bool) {
	if w, ok := dm.wins[base]; ok {
		return w, true
	}
	w, err := unix.Mmap(int(dm.f.Fd()), int64(base), int(devwin),
		unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, false
	}
	dm.wins[base] = w
	return w, true
}

// Dmaplen returns a read-only view of [p, p+l). ranges that straddle a
// window boundary are copied out of both windows.
func (dm *Devmem_t) Dmaplen(p Pa_t, l int) ([]uint8, bool) {
	if l < 0 {
		return nil, false
	}
	dm.Lock()
	defer dm.Unlock()

	base := p &^ (devwin - 1)
	end := p + Pa_t(l)
	if end <= base+devwin {
		w, ok := dm.window(base)
		if !ok {
			return nil, false
		}
		off := p - base
		return w[off : off+Pa_t(l)], true
	}
	ret := make([]uint8, 0, l)
	for c := p; c < end; {
		wb := c &^ (devwin - 1)
		w, ok := dm.window(wb)
		if !ok {
			return nil, false
		}
		lim := wb + devwin
		if lim > end {
			lim = end
		}
		ret = append(ret, w[c-wb:lim-wb]...)
		c = lim
	}
	return ret, true
}

func (dm *Devmem_t) Close() error {
	dm.Lock()
	defer dm.Unlock()
	for b, w := range dm.wins {
		unix.Munmap(w)
		delete(dm.wins, b)
	}
	return dm.f.Close()
}
