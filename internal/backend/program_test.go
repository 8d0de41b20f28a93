package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReleaser struct {
	released map[*ProgramBuffer]int
}

func newCountingReleaser() *countingReleaser {
	return &countingReleaser{released: make(map[*ProgramBuffer]int)}
}

func (c *countingReleaser) ReleaseProgram(buf *ProgramBuffer) {
	c.released[buf]++
}

func (c *countingReleaser) total() int {
	n := 0
	for _, v := range c.released {
		n += v
	}
	return n
}

func TestProgramStringReleasesOnce(t *testing.T) {
	rel := newCountingReleaser()
	buf := &ProgramBuffer{text: "r3 = tra r1, r2, 0"}
	p := NewProgramString(buf, rel)
	assert.True(t, p.Valid())
	assert.Equal(t, "r3 = tra r1, r2, 0", p.String())

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, rel.released[buf])
	assert.False(t, p.Valid())
	assert.Equal(t, "", p.String())
}

func TestEmptyProgramStringReleasesNothing(t *testing.T) {
	rel := newCountingReleaser()
	p := NewProgramString(nil, rel)
	assert.False(t, p.Valid())
	assert.Equal(t, "", p.String())
	p.Reset()
	assert.Equal(t, 0, rel.total())

	var zero ProgramString
	zero.Reset()
	assert.Equal(t, "", zero.String())

	var nilHandle *ProgramString
	assert.False(t, nilHandle.Valid())
	assert.Equal(t, "", nilHandle.String())
}

func TestProgramStringMoveTransfersOwnership(t *testing.T) {
	rel := newCountingReleaser()
	buf := &ProgramBuffer{text: "prog"}
	src := NewProgramString(buf, rel)

	dst := src.Move()
	assert.False(t, src.Valid())
	assert.Equal(t, "", src.String())
	assert.Equal(t, "prog", dst.String())

	src.Reset()
	assert.Equal(t, 0, rel.total())
	dst.Reset()
	assert.Equal(t, 1, rel.released[buf])
}

func TestProgramStringAssignReleasesPreviousBuffer(t *testing.T) {
	rel := newCountingReleaser()
	first := &ProgramBuffer{text: "first"}
	second := &ProgramBuffer{text: "second"}
	a := NewProgramString(first, rel)
	b := NewProgramString(second, rel)

	a.Assign(b)
	assert.Equal(t, 1, rel.released[first])
	assert.Equal(t, 0, rel.released[second])
	assert.Equal(t, "second", a.String())
	assert.False(t, b.Valid())

	a.Assign(a)
	assert.Equal(t, "second", a.String())

	a.Reset()
	b.Reset()
	assert.Equal(t, 1, rel.released[second])
	assert.Equal(t, 2, rel.total())
}

func TestProgramArena(t *testing.T) {
	var arena ProgramArena
	buf := arena.Alloc("text")
	assert.Equal(t, "text", buf.Text())
	assert.Equal(t, 1, arena.Outstanding())

	p := NewProgramString(buf, &arena)
	p.Reset()
	assert.Equal(t, 0, arena.Outstanding())
	assert.Panics(t, func() { arena.ReleaseProgram(buf) })
}

func TestProgramStringRequiresReleaser(t *testing.T) {
	assert.Panics(t, func() { NewProgramString(&ProgramBuffer{}, nil) })
}
