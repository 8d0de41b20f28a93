package network

import "fmt"

// RewriteFunc decides how a node of the source network is rebuilt. It
// returns the replacement signal in dst and true, or false to copy the node
// structurally. get maps any source signal into dst, building its cone on
// demand.
type RewriteFunc func(dst *Network, id NodeID, get func(Signal) Signal) (Signal, bool)

type rebuilder struct {
	src    *Network
	dst    *Network
	fn     RewriteFunc
	mapped []Signal
	state  []uint8
}

const (
	unvisited uint8 = iota
	inProgress
	done
)

// Rebuild constructs a fresh network from the outputs of src, consulting fn
// for every reachable node. Inputs are recreated first and in order, outputs
// keep their order and polarity, and nodes not reachable from an output are
// dropped.
func Rebuild(src *Network, fn RewriteFunc) *Network {
	r := &rebuilder{
		src:    src,
		dst:    NewCap(src.tech, src.Size()),
		fn:     fn,
		mapped: make([]Signal, src.Size()),
		state:  make([]uint8, src.Size()),
	}
	r.state[0] = done
	for _, in := range src.inputs {
		r.mapped[in] = r.dst.CreateInput()
		r.state[in] = done
	}
	for _, o := range src.outputs {
		r.dst.CreateOutput(r.get(o))
	}
	return r.dst
}

// Cleanup removes dangling nodes and re-hashes the network.
func Cleanup(src *Network) *Network {
	return Rebuild(src, nil)
}

func (r *rebuilder) get(s Signal) Signal {
	return r.resolve(s.Node()).NotIf(s.IsComplemented())
}

func (r *rebuilder) resolve(id NodeID) Signal {
	switch r.state[id] {
	case done:
		return r.mapped[id]
	case inProgress:
		panic(fmt.Sprintf("network: combinational cycle through n%d", id))
	}
	r.state[id] = inProgress
	var out Signal
	replaced := false
	if r.fn != nil {
		out, replaced = r.fn(r.dst, id, r.get)
	}
	if !replaced {
		var fanins [3]Signal
		src := r.src.Fanins(id)
		for i, f := range src {
			fanins[i] = r.get(f)
		}
		out = r.dst.CreateGate(r.src.Kind(id), fanins[:len(src)])
	}
	r.mapped[id] = out
	r.state[id] = done
	return out
}
