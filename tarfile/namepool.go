package tarfile

import "errors"

const namePoolChunkSize = 1 << 20 // 1 MiB

// ErrNamePoolOverflow is returned when an interned name's encoded form
// would exceed one 512-byte header block.
var ErrNamePoolOverflow = errors.New("tarfile: name exceeds one header block")

// NameHandle is a stable reference into a NamePool. It remains valid for
// the lifetime of the pool; the pool never relocates or frees existing
// bytes.
type NameHandle struct {
	chunk  int
	offset int
	length int
}

// NamePool is an append-only arena of interned, NUL-terminated member
// names, built from 1 MiB chunks. A new chunk is allocated whenever the
// remaining space in the current one falls below the incoming name's
// length plus two bytes of headroom.
type NamePool struct {
	chunks [][]byte
}

// NewNamePool returns an empty pool.
func NewNamePool() *NamePool {
	return &NamePool{}
}

// Intern copies name into the arena and returns a stable handle to it.
// Extended names (the payload of a GNU 'L' header) are stored verbatim;
// short-form names longer than 100 bytes are truncated to match ustar's
// fixed-width name field.
func (p *NamePool) Intern(name string, extended bool) (NameHandle, error) {
	if !extended && len(name) > lenName {
		name = name[:lenName]
	}
	return p.store(name)
}

// InternLink stores the combined "<linkname> -> <name>" form used for
// hard and symbolic link records.
func (p *NamePool) InternLink(linkname, name string) (NameHandle, error) {
	return p.store(linkname + " -> " + name)
}

func (p *NamePool) store(s string) (NameHandle, error) {
	if len(s)+1 > BlockSize {
		return NameHandle{}, ErrNamePoolOverflow
	}
	if len(p.chunks) == 0 || namePoolChunkSize-len(p.chunks[len(p.chunks)-1]) < len(s)+2 {
		p.chunks = append(p.chunks, make([]byte, 0, namePoolChunkSize))
	}
	idx := len(p.chunks) - 1
	chunk := p.chunks[idx]
	off := len(chunk)
	chunk = append(chunk, s...)
	chunk = append(chunk, 0)
	p.chunks[idx] = chunk
	return NameHandle{chunk: idx, offset: off, length: len(s)}, nil
}

// Get returns the string for a handle previously returned by Intern or
// InternLink.
func (p *NamePool) Get(h NameHandle) string {
	return string(p.chunks[h.chunk][h.offset : h.offset+h.length])
}
