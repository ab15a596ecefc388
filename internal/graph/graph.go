// Package graph implements the dependency graph underlying the frame
// graph: an arena of nodes keyed by stable integer ids, directed edges
// stored by id, and reference-counted culling of nodes that do not
// contribute to any target node.
//
// The graph owns all node storage; edges are weak relations between
// ids and never own the nodes they connect.
package graph

import (
	"fmt"
	"io"
)

// NodeID identifies a node within its graph. IDs are assigned by Add,
// are stable for the lifetime of the graph, and index the node arena.
type NodeID uint32

// Node is implemented by every graph participant.
type Node interface {
	// Name returns a human-readable label used in diagnostics.
	Name() string

	// OnCulled is invoked exactly once when the node is removed by
	// Cull, giving it a chance to release pre-allocated state.
	OnCulled(g *Graph)

	// Graphvizify returns the node's graphviz attribute list, for
	// example `[label="...", style=filled, fillcolor=darkorange]`.
	Graphvizify(g *Graph) string
}

// EdgeColorer is an optional interface: a node that implements it
// chooses the color of its outgoing edges in the graphviz dump.
type EdgeColorer interface {
	GraphvizEdgeColor() string
}

// Edge is a directed relation between two nodes. An edge expresses
// that To consumes the output of From; it keeps From alive for as long
// as To survives culling.
type Edge struct {
	From NodeID
	To   NodeID
}

// Graph is a directed acyclic graph with reference-counted culling.
// It is not safe for concurrent use; the frame graph drives it from a
// single goroutine per frame.
type Graph struct {
	nodes  []Node
	refs   []uint32
	target []bool
	culled []bool
	in     [][]*Edge
	out    [][]*Edge
	edges  []*Edge
	ran    bool
}

// New creates an empty graph with room for the given number of nodes.
func New(capacity int) *Graph {
	return &Graph{
		nodes:  make([]Node, 0, capacity),
		refs:   make([]uint32, 0, capacity),
		target: make([]bool, 0, capacity),
		culled: make([]bool, 0, capacity),
		in:     make([][]*Edge, 0, capacity),
		out:    make([][]*Edge, 0, capacity),
	}
}

// Add registers a node and returns its stable id.
func (g *Graph) Add(n Node) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.refs = append(g.refs, 0)
	g.target = append(g.target, false)
	g.culled = append(g.culled, false)
	g.in = append(g.in, nil)
	g.out = append(g.out, nil)
	return id
}

// Node returns the node registered under id.
func (g *Graph) Node(id NodeID) Node {
	g.check(id)
	return g.nodes[id]
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// Link adds a directed edge from one node to another and returns it.
// Linking unknown ids is a programming error and panics.
func (g *Graph) Link(from, to NodeID) *Edge {
	g.check(from)
	g.check(to)
	e := &Edge{From: from, To: to}
	g.edges = append(g.edges, e)
	g.out[from] = append(g.out[from], e)
	g.in[to] = append(g.in[to], e)
	return e
}

// MakeTarget marks a node as a culling root. Target nodes always
// survive culling regardless of their reference count.
func (g *Graph) MakeTarget(id NodeID) {
	g.check(id)
	g.target[id] = true
}

// Incoming returns the edges arriving at the node.
func (g *Graph) Incoming(id NodeID) []*Edge {
	g.check(id)
	return g.in[id]
}

// Outgoing returns the edges leaving the node.
func (g *Graph) Outgoing(id NodeID) []*Edge {
	g.check(id)
	return g.out[id]
}

// RefCount returns the node's reference count: the number of its
// outgoing edges whose destination survived culling. Before Cull runs
// the count is zero for every node.
func (g *Graph) RefCount(id NodeID) uint32 {
	g.check(id)
	return g.refs[id]
}

// IsCulled reports whether the node was removed by Cull.
func (g *Graph) IsCulled(id NodeID) bool {
	g.check(id)
	return g.culled[id]
}

// IsEdgeValid reports whether both endpoints of the edge survived
// culling. Only valid edges count toward derived predicates such as
// a resource's active readers.
func (g *Graph) IsEdgeValid(e *Edge) bool {
	return !g.culled[e.From] && !g.culled[e.To]
}

// Cull removes every node that does not transitively feed a target
// node. A node's reference count is the number of its outgoing edges;
// culling is a worklist fixed point because removing a node can strand
// the nodes feeding it. OnCulled is invoked exactly once per removed
// node. A fully culled graph is valid and not an error.
//
// Cull must be called at most once per graph; a second call panics.
func (g *Graph) Cull() {
	if g.ran {
		panic("graph: Cull called twice")
	}
	g.ran = true

	// Each edge keeps its source alive on behalf of its destination.
	for _, e := range g.edges {
		g.refs[e.From]++
	}

	stack := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		if g.refs[id] == 0 && !g.target[id] {
			stack = append(stack, NodeID(id))
		}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		g.culled[id] = true
		for _, e := range g.in[id] {
			from := e.From
			g.refs[from]--
			if g.refs[from] == 0 && !g.target[from] {
				stack = append(stack, from)
			}
		}
	}

	for id, culled := range g.culled {
		if culled {
			g.nodes[id].OnCulled(g)
		}
	}
}

// Graphviz writes the whole graph in dot format. The output is a
// diagnostic aid, not a stability contract.
func (g *Graph) Graphviz(w io.Writer, title string) error {
	if _, err := fmt.Fprintf(w, "digraph %q {\n", title); err != nil {
		return err
	}
	fmt.Fprintln(w, "rankdir = LR")
	fmt.Fprintln(w, "bgcolor = black")
	fmt.Fprintln(w, "node [shape=rectangle, fontname=\"helvetica\", fontsize=10]")
	fmt.Fprintln(w)
	for id, n := range g.nodes {
		if _, err := fmt.Fprintf(w, "\"N%d\" %s\n", id, n.Graphvizify(g)); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)
	for _, e := range g.edges {
		color := "black"
		if c, ok := g.nodes[e.From].(EdgeColorer); ok {
			color = c.GraphvizEdgeColor()
		}
		style := "solid"
		if g.ran && !g.IsEdgeValid(e) {
			style = "dashed"
		}
		if _, err := fmt.Fprintf(w, "\"N%d\" -> \"N%d\" [color=%s, style=%s]\n",
			e.From, e.To, color, style); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

func (g *Graph) check(id NodeID) {
	if int(id) >= len(g.nodes) {
		panic(fmt.Sprintf("graph: unknown node id %d", id))
	}
}
