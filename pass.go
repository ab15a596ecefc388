package framegraph

import (
	"fmt"

	"github.com/gogpu/framegraph/internal/graph"
)

// ExecuteFunc performs a pass's GPU work. It receives a read-only
// resource-resolution view and the opaque driver handle given to
// FrameGraph.Execute. It is never invoked for culled passes.
type ExecuteFunc func(res *Resources, driver any) error

// passNode is the capability set shared by all pass variants. The
// variant set is closed: render passes and the present pass.
type passNode interface {
	graph.Node

	// nodeID returns the pass's dependency-graph id.
	nodeID() graph.NodeID

	// resolve computes the backend-facing parameters from declared
	// state. It runs once per surviving pass, after culling and
	// before any execute.
	resolve() error

	// execute performs the pass's work. It runs at most once, only
	// for surviving passes, after resolve.
	execute(res *Resources, driver any) error
}

// presentPassNode is the terminal sentinel pass. It has no attachments
// and performs no work; it exists as a culling root so that every pass
// contributing, directly or transitively, to the presented output is
// kept alive.
type presentPassNode struct {
	id graph.NodeID
}

func (n *presentPassNode) Name() string          { return "Present" }
func (n *presentPassNode) nodeID() graph.NodeID  { return n.id }
func (n *presentPassNode) OnCulled(*graph.Graph) {}
func (n *presentPassNode) resolve() error        { return nil }

func (n *presentPassNode) execute(*Resources, any) error { return nil }

// Graphvizify implements graph.Node.
func (n *presentPassNode) Graphvizify(g *graph.Graph) string {
	return fmt.Sprintf("[label=\"Present, id: %d\", style=filled, fillcolor=red3]", n.id)
}

// GraphvizEdgeColor implements graph.EdgeColorer.
func (n *presentPassNode) GraphvizEdgeColor() string { return "red" }
