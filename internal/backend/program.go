package backend

import (
	"fmt"
	"sync"
)

// ProgramBuffer is program text allocated by a backend.
type ProgramBuffer struct {
	text string
}

// Text returns the program text.
func (b *ProgramBuffer) Text() string {
	return b.text
}

// Releaser is the deallocation entry point for program buffers.
type Releaser interface {
	ReleaseProgram(buf *ProgramBuffer)
}

// ProgramArena allocates program buffers and releases each exactly once.
// Releasing a buffer twice, or one it did not allocate, panics.
type ProgramArena struct {
	mu   sync.Mutex
	live map[*ProgramBuffer]struct{}
}

// Alloc returns a new buffer holding text.
func (a *ProgramArena) Alloc(text string) *ProgramBuffer {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.live == nil {
		a.live = make(map[*ProgramBuffer]struct{})
	}
	buf := &ProgramBuffer{text: text}
	a.live[buf] = struct{}{}
	return buf
}

func (a *ProgramArena) ReleaseProgram(buf *ProgramBuffer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.live[buf]; !ok {
		panic(fmt.Sprintf("backend: release of unowned program buffer %p", buf))
	}
	delete(a.live, buf)
	buf.text = ""
}

// Outstanding returns the number of buffers not yet released.
func (a *ProgramArena) Outstanding() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// noCopy is flagged by go vet's copylocks check when a ProgramString is
// copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// ProgramString uniquely owns at most one program buffer and releases it
// through the allocating backend exactly once. Handles are moved with Move
// or Assign and must not be copied. Close releases the buffer; callers defer
// it right after taking ownership.
type ProgramString struct {
	noCopy noCopy

	buf *ProgramBuffer
	rel Releaser
}

// NewProgramString takes ownership of buf. A nil buf yields an empty handle.
func NewProgramString(buf *ProgramBuffer, rel Releaser) *ProgramString {
	if buf == nil {
		return &ProgramString{}
	}
	if rel == nil {
		panic("backend: program buffer without releaser")
	}
	return &ProgramString{buf: buf, rel: rel}
}

// Move transfers ownership to a new handle and leaves p empty.
func (p *ProgramString) Move() *ProgramString {
	q := &ProgramString{}
	if p != nil {
		q.buf, q.rel = p.buf, p.rel
		p.buf, p.rel = nil, nil
	}
	return q
}

// Assign releases the buffer p owns, then takes ownership of other's
// buffer and leaves other empty.
func (p *ProgramString) Assign(other *ProgramString) {
	if p == other {
		return
	}
	p.Reset()
	if other != nil {
		p.buf, p.rel = other.buf, other.rel
		other.buf, other.rel = nil, nil
	}
}

// Reset releases the owned buffer, if any.
func (p *ProgramString) Reset() {
	if p == nil || p.buf == nil {
		return
	}
	buf, rel := p.buf, p.rel
	p.buf, p.rel = nil, nil
	rel.ReleaseProgram(buf)
}

// Close releases the owned buffer, if any. It is safe to call repeatedly.
func (p *ProgramString) Close() error {
	p.Reset()
	return nil
}

// Valid reports whether p owns a buffer.
func (p *ProgramString) Valid() bool {
	return p != nil && p.buf != nil
}

// String returns the program text, or "" when p owns nothing.
func (p *ProgramString) String() string {
	if !p.Valid() {
		return ""
	}
	return p.buf.text
}
