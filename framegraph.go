package framegraph

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gogpu/framegraph/internal/graph"
)

// FrameGraph schedules one frame's worth of GPU work. Callers declare
// passes and the resources they read and write; Compile culls work
// that does not contribute to the presented output and derives each
// surviving pass's attachment load/store behavior; Execute runs the
// survivors in dependency order.
//
// A FrameGraph covers exactly one frame: Compile and Execute run at
// most once, and a fresh graph is constructed for the next frame.
// FrameGraph is not safe for concurrent use.
type FrameGraph struct {
	name      string
	allocator ResourceAllocator
	graph     *graph.Graph

	// passes in declaration order. Declaration order is a topological
	// order: a pass can only read versions that already exist when
	// its setup runs.
	passes []passNode

	// slots indexes declared resources; slot 0 is reserved so the
	// zero Resource stays invalid.
	slots []*resourceSlot

	compiled bool
	executed bool
}

// New creates an empty frame graph over the given resource allocator.
// A nil allocator is a programming error and panics.
//
// If the allocator implements SetLogger(*slog.Logger), the current
// package logger is propagated to it.
func New(allocator ResourceAllocator, opts ...Option) *FrameGraph {
	if allocator == nil {
		panic("framegraph: nil allocator")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if ls, ok := allocator.(loggerSetter); ok {
		ls.SetLogger(Logger())
	}
	fg := &FrameGraph{
		name:      o.name,
		allocator: allocator,
		graph:     graph.New(o.passCap + o.resourceCap),
		passes:    make([]passNode, 0, o.passCap),
		slots:     make([]*resourceSlot, 1, o.resourceCap+1),
	}
	return fg
}

// AddPass declares a pass. The setup function declares the pass's
// resource usages and render targets against the Builder; the execute
// function performs the work if the pass survives culling.
//
// AddPass after Compile is a programming error and panics.
func (fg *FrameGraph) AddPass(name string, setup func(*Builder), execute ExecuteFunc) {
	fg.assertOpen("AddPass")
	if execute == nil {
		execute = func(*Resources, any) error { return nil }
	}
	pn := &renderPassNode{fg: fg, name: name, exec: execute}
	pn.id = fg.graph.Add(pn)
	fg.passes = append(fg.passes, pn)
	if setup != nil {
		setup(&Builder{fg: fg, pass: pn})
	}
	fg.logger().Debug("pass declared", "graph", fg.name, "pass", name,
		"targets", len(pn.targets))
}

// Present appends the present pass, reading the given resource. The
// present pass is the culling root: every pass contributing to r,
// directly or transitively, survives culling. It performs no work.
func (fg *FrameGraph) Present(r Resource) {
	fg.assertOpen("Present")
	node := fg.slot(r).current()
	pn := &presentPassNode{}
	pn.id = fg.graph.Add(pn)
	fg.passes = append(fg.passes, pn)
	e := fg.graph.Link(node.id, pn.id)
	node.readers = append(node.readers, resourceEdge{edge: e})
	fg.graph.MakeTarget(pn.id)
}

// Compile culls unreachable passes, resolves the backend parameters of
// every survivor, and plans resource lifetimes. It must run exactly
// once, after all declarations and before Execute.
//
// A fully culled graph is valid: Compile succeeds and Execute runs no
// passes.
func (fg *FrameGraph) Compile() error {
	if fg.compiled {
		panic("framegraph: Compile called twice")
	}

	fg.graph.Cull()

	survivors := 0
	for _, p := range fg.passes {
		if fg.graph.IsCulled(p.nodeID()) {
			continue
		}
		if err := p.resolve(); err != nil {
			return err
		}
		survivors++
	}
	fg.planLifetimes()
	fg.compiled = true

	fg.logger().Debug("graph compiled", "graph", fg.name,
		"passes", len(fg.passes), "survivors", survivors,
		"resources", len(fg.slots)-1)
	return nil
}

// Execute runs every surviving pass in dependency order, materializing
// each resource right before its first surviving user and destroying
// it after its last. The driver handle is passed through to pass
// executors opaquely.
//
// Errors from the allocator or a pass executor propagate immediately;
// already-executed passes are not unwound, but textures realized for
// the frame are released before returning.
//
// Execute must run exactly once, after Compile.
func (fg *FrameGraph) Execute(driver any) error {
	if !fg.compiled {
		panic("framegraph: Execute before Compile")
	}
	if fg.executed {
		panic("framegraph: Execute called twice")
	}
	fg.executed = true

	for pi, p := range fg.passes {
		if fg.graph.IsCulled(p.nodeID()) {
			continue
		}
		if err := fg.materialize(pi); err != nil {
			fg.releaseAll()
			return err
		}
		res := &Resources{fg: fg, pass: p}
		if err := p.execute(res, driver); err != nil {
			fg.releaseAll()
			return err
		}
		fg.release(pi)
	}
	return nil
}

// Graphviz writes the frame graph in dot format for external
// visualization tooling. The format is informative only.
func (fg *FrameGraph) Graphviz(w io.Writer) error {
	return fg.graph.Graphviz(w, fg.name)
}

// createTexture registers a new resource slot and its initial version.
func (fg *FrameGraph) createTexture(name string, desc TextureDescriptor) Resource {
	index := uint16(len(fg.slots))
	slot := &resourceSlot{name: name, desc: desc, firstUse: -1, lastUse: -1}
	fg.slots = append(fg.slots, slot)
	node := fg.newResourceNode(index, 0)
	slot.nodes = append(slot.nodes, node)
	return Resource{index: index, version: 0}
}

// slot returns the bookkeeping for a handle. Unknown or stale handles
// are programming errors and panic.
func (fg *FrameGraph) slot(r Resource) *resourceSlot {
	if !r.IsValid() || int(r.index) >= len(fg.slots) {
		panic(fmt.Sprintf("framegraph: unknown resource handle %+v", r))
	}
	s := fg.slots[r.index]
	if r.version != s.version {
		panic(fmt.Sprintf(
			"framegraph: stale handle to %q: version %d, current %d",
			s.name, r.version, s.version))
	}
	return s
}

// node returns the resource node a handle refers to. Unlike slot, any
// existing version is acceptable: incoming attachment nodes refer to
// history.
func (fg *FrameGraph) node(r Resource) *resourceNode {
	if !r.IsValid() || int(r.index) >= len(fg.slots) {
		panic(fmt.Sprintf("framegraph: unknown resource handle %+v", r))
	}
	s := fg.slots[r.index]
	if int(r.version) >= len(s.nodes) {
		panic(fmt.Sprintf(
			"framegraph: unknown version %d of resource %q", r.version, s.name))
	}
	return s.nodes[r.version]
}

// planLifetimes records, per resource slot, the first and last
// surviving pass touching any of its versions. Execute materializes
// the concrete texture at the first and destroys it after the last.
func (fg *FrameGraph) planLifetimes() {
	touch := func(id graph.NodeID, pi int) {
		rn, ok := fg.graph.Node(id).(*resourceNode)
		if !ok {
			return
		}
		s := fg.slots[rn.slot]
		if s.firstUse < 0 {
			s.firstUse = pi
		}
		s.lastUse = pi
	}
	for pi, p := range fg.passes {
		id := p.nodeID()
		if fg.graph.IsCulled(id) {
			continue
		}
		for _, e := range fg.graph.Incoming(id) {
			touch(e.From, pi)
		}
		// Written versions count even when the version node itself was
		// culled: the pass still renders into the attachment, the
		// result is just discarded afterwards.
		for _, e := range fg.graph.Outgoing(id) {
			touch(e.To, pi)
		}
	}
}

// materialize realizes every resource whose first surviving user is
// the given pass.
func (fg *FrameGraph) materialize(pi int) error {
	for _, s := range fg.slots[1:] {
		if s.firstUse != pi {
			continue
		}
		id, err := fg.allocator.CreateTexture(s.name, s.desc)
		if err != nil {
			return fmt.Errorf("framegraph: materialize %q: %w", s.name, err)
		}
		s.realized = id
		fg.logger().Debug("resource materialized", "graph", fg.name,
			"resource", s.name, "texture", id)
	}
	return nil
}

// release destroys every resource whose last surviving user is the
// given pass.
func (fg *FrameGraph) release(pi int) {
	for _, s := range fg.slots[1:] {
		if s.lastUse == pi && s.realized != 0 {
			fg.allocator.DestroyTexture(s.realized)
			s.realized = 0
		}
	}
}

// releaseAll destroys every still-realized resource. Used on the
// Execute error path so a failed frame does not leak textures.
func (fg *FrameGraph) releaseAll() {
	for _, s := range fg.slots[1:] {
		if s.realized != 0 {
			fg.allocator.DestroyTexture(s.realized)
			s.realized = 0
		}
	}
}

// assertOpen panics when the declaration phase is over. Mutating a
// compiled graph is a structural bug, not a recoverable condition.
func (fg *FrameGraph) assertOpen(op string) {
	if fg.compiled {
		panic("framegraph: " + op + " after Compile")
	}
}

func (fg *FrameGraph) logger() *slog.Logger { return Logger() }
