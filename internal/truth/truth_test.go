package truth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjections(t *testing.T) {
	assert.Equal(t, Table(0xaaaa), Var(0))
	assert.True(t, Var(2).DependsOn(2))
	assert.False(t, Var(2).DependsOn(1))
	assert.False(t, Table(0).DependsOn(0))
	assert.True(t, Xor(Var(0), Var(3)).DependsOn(3))
}

func TestIdentityTransform(t *testing.T) {
	f := Maj(Var(0), Var(1).Not(), Var(3))
	assert.Equal(t, f, Identity.Apply(f))
}

func TestTransformNegatesAndPermutes(t *testing.T) {
	// g(x) = f(x1, x0, ...) with f = x0 & !x1
	f := And(Var(0), Var(1).Not())
	tr := Transform{Perm: [Vars]uint8{1, 0, 2, 3}}
	assert.Equal(t, And(Var(1), Var(0).Not()), tr.Apply(f))

	tr = Transform{Perm: [Vars]uint8{0, 1, 2, 3}, Negations: 0b10, Output: true}
	assert.Equal(t, And(Var(0), Var(1)).Not(), tr.Apply(f))
}

func TestCanonicalIsClassInvariant(t *testing.T) {
	functions := []Table{
		And(Var(0), Var(1)),
		And(Var(2).Not(), Var(3)),
		And(Var(0), Var(1)).Not(),
		Maj(Var(0), Var(1), Var(2)),
		Maj(Var(3), Var(1).Not(), Var(0)),
		Xor(Var(0), Xor(Var(1), Var(2))),
	}
	classes := map[Table]bool{}
	for _, f := range functions {
		canon, tr := Canonical(f)
		assert.Equal(t, canon, tr.Apply(f), "transform must map %s to its representative", f)
		assert.LessOrEqual(t, canon, f)
		classes[canon] = true
	}
	assert.Len(t, classes, 3, "and, maj and xor3 classes")
}

func TestCanonicalOfConstants(t *testing.T) {
	c0, _ := Canonical(0)
	c1, tr := Canonical(0xffff)
	assert.Equal(t, Table(0), c0)
	assert.Equal(t, Table(0), c1)
	assert.True(t, tr.Output)
}
