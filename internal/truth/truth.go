// Package truth implements truth tables over at most four variables and
// their NPN canonization.
package truth

import (
	"fmt"
	"sync"
)

// Vars is the number of variables a Table ranges over.
const Vars = 4

// Table is the truth table of a function of four variables. Bit x holds
// f(x0, x1, x2, x3) where xi is bit i of x.
type Table uint16

var projections = [Vars]Table{0xaaaa, 0xcccc, 0xf0f0, 0xff00}

// Var returns the projection of variable i.
func Var(i int) Table {
	return projections[i]
}

// Not returns the complement of t.
func (t Table) Not() Table {
	return ^t
}

// Bit returns f(x).
func (t Table) Bit(x int) bool {
	return t>>x&1 == 1
}

// DependsOn reports whether t depends on variable i.
func (t Table) DependsOn(i int) bool {
	p := projections[i]
	shift := 1 << i
	return (t&p)>>shift != t&^p
}

func (t Table) String() string {
	return fmt.Sprintf("0x%04x", uint16(t))
}

// And, Xor and Maj evaluate gates on tables.
func And(a, b Table) Table    { return a & b }
func Xor(a, b Table) Table    { return a ^ b }
func Maj(a, b, c Table) Table { return a&b | a&c | b&c }

// Transform is an NPN transformation. Applied to f it yields
//
//	g(x) = Output ^ f(z),  z_i = x_{Perm[i]} ^ Negations_i
type Transform struct {
	Perm      [Vars]uint8
	Negations uint8
	Output    bool
}

// Identity is the transformation leaving tables unchanged.
var Identity = Transform{Perm: [Vars]uint8{0, 1, 2, 3}}

// Apply transforms f.
func (tr Transform) Apply(f Table) Table {
	var g Table
	for x := 0; x < 1<<Vars; x++ {
		z := 0
		for i := 0; i < Vars; i++ {
			bit := x >> tr.Perm[i] & 1
			bit ^= int(tr.Negations>>i) & 1
			z |= bit << i
		}
		if f.Bit(z) != tr.Output {
			g |= 1 << x
		}
	}
	return g
}

var permutations = func() [][Vars]uint8 {
	var out [][Vars]uint8
	var rec func(p [Vars]uint8, used uint8, k int)
	rec = func(p [Vars]uint8, used uint8, k int) {
		if k == Vars {
			out = append(out, p)
			return
		}
		for i := uint8(0); i < Vars; i++ {
			if used>>i&1 == 0 {
				p[k] = i
				rec(p, used|1<<i, k+1)
			}
		}
	}
	rec([Vars]uint8{}, 0, 0)
	return out
}()

type canonEntry struct {
	canon Table
	tr    Transform
}

var (
	canonMu    sync.Mutex
	canonCache = make(map[Table]canonEntry)
)

// Canonical returns the NPN representative of f, the smallest table in its
// class, together with a transformation tr such that tr.Apply(f) is that
// representative. Results are memoized.
func Canonical(f Table) (Table, Transform) {
	canonMu.Lock()
	e, ok := canonCache[f]
	canonMu.Unlock()
	if ok {
		return e.canon, e.tr
	}

	best := f
	bestTr := Identity
	for _, p := range permutations {
		for neg := uint8(0); neg < 1<<Vars; neg++ {
			tr := Transform{Perm: p, Negations: neg}
			g := tr.Apply(f)
			if g < best {
				best, bestTr = g, tr
			}
			if ^g < best {
				tr.Output = true
				best, bestTr = ^g, tr
			}
		}
	}

	canonMu.Lock()
	canonCache[f] = canonEntry{canon: best, tr: bestTr}
	canonMu.Unlock()
	return best, bestTr
}
