package framegraph

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/internal/graph"
)

// resourceEdge is a dependency-graph edge annotated with the usage a
// pass declared for the resource.
type resourceEdge struct {
	edge  *graph.Edge
	usage gputypes.TextureUsage
}

// resourceNode represents one version of a resource in the dependency
// graph: the state of the resource after a particular write. A version
// has at most one writer; once a newer version exists the node is
// immutable history.
type resourceNode struct {
	fg      *FrameGraph
	id      graph.NodeID
	slot    uint16
	version uint16

	// writer is the pass that produced this version, if any.
	writer resourceEdge

	// readers are the passes consuming this version.
	readers []resourceEdge
}

func (fg *FrameGraph) newResourceNode(slot uint16, version uint16) *resourceNode {
	n := &resourceNode{fg: fg, slot: slot, version: version}
	n.id = fg.graph.Add(n)
	return n
}

// Name implements graph.Node.
func (n *resourceNode) Name() string { return n.fg.slots[n.slot].name }

// OnCulled implements graph.Node. Resource nodes allocate nothing
// before Execute, so there is nothing to release.
func (n *resourceNode) OnCulled(*graph.Graph) {}

// hasWriter reports whether a surviving pass writes this version.
// Edges whose pass was culled do not count.
func (n *resourceNode) hasWriter() bool {
	return n.writer.edge != nil && n.fg.graph.IsEdgeValid(n.writer.edge)
}

// hasActiveReaders reports whether at least one surviving pass reads
// this version. Edges whose pass was culled do not count.
func (n *resourceNode) hasActiveReaders() bool {
	for _, r := range n.readers {
		if n.fg.graph.IsEdgeValid(r.edge) {
			return true
		}
	}
	return false
}

// readerFor returns the existing read edge from this version to the
// given pass, if the pass already declared one.
func (n *resourceNode) readerFor(pass graph.NodeID) *resourceEdge {
	for i := range n.readers {
		if n.readers[i].edge.To == pass {
			return &n.readers[i]
		}
	}
	return nil
}

// Graphvizify implements graph.Node.
func (n *resourceNode) Graphvizify(g *graph.Graph) string {
	fill := "skyblue"
	if g.IsCulled(n.id) {
		fill = "skyblue4"
	}
	return fmt.Sprintf(
		"[label=\"%s v%d\\nrefs: %d, id: %d\", style=filled, fillcolor=%s]",
		n.Name(), n.version, g.RefCount(n.id), n.id, fill)
}

// GraphvizEdgeColor implements graph.EdgeColorer: read edges leaving a
// resource node are drawn in green.
func (n *resourceNode) GraphvizEdgeColor() string { return "darkolivegreen" }
