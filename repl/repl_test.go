package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CapZTr/lime/internal/network"
)

func run(input string) string {
	var out bytes.Buffer
	Start(strings.NewReader(input), &out, network.MIG)
	return out.String()
}

func TestBuildAndPrint(t *testing.T) {
	out := run(strings.Join([]string{
		"input a b c",
		"maj m = a b c",
		"and g = m !a",
		"output f = g",
		":netlist",
		":print",
	}, "\n"))
	assert.Contains(t, out, "input a b c")
	assert.Contains(t, out, "output f = ")
	assert.Contains(t, out, "NETWORK mig")
}

func TestOptimizeKeepsFunction(t *testing.T) {
	out := run(strings.Join([]string{
		":tech aig",
		"input a b",
		"and x = a b",
		"and y = a b",
		"or z = x y",
		"output f = z",
		":optimize",
	}, "\n"))
	assert.Contains(t, out, "new aig network")
	assert.Contains(t, out, "equivalent: true")
}

func TestDiagnostics(t *testing.T) {
	out := run("input a\nand g = a missing\nfoo bar\n:tech sparc\n:bogus\n")
	assert.Contains(t, out, "E0101")
	assert.Contains(t, out, "undefined signal 'missing'")
	assert.Contains(t, out, "E0100")
	assert.Contains(t, out, "unknown technology")
	assert.Contains(t, out, "unknown command :bogus")
}

func TestQuitStopsReading(t *testing.T) {
	out := run(":quit\n:help\n")
	assert.NotContains(t, out, "statements:")
}
