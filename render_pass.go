package framegraph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/internal/graph"
)

// Render pass errors.
var (
	// ErrNoAttachments is returned by Compile when a render target
	// was declared without any bound attachment slot.
	ErrNoAttachments = errors.New("framegraph: render target has no attachments")
)

// renderTargetData is the per-pass, per-render-target bookkeeping:
// the declared descriptor, the resource versions flowing in and out of
// each attachment slot, and the derived backend parameters.
type renderTargetData struct {
	descriptor RenderTargetDescriptor

	// incoming is the resource version visible before this pass, per
	// slot. nil when the slot is unused or had no real prior usage.
	incoming [attachmentCount]*resourceNode

	// outgoing is the resource version this pass produces, per slot.
	// A non-nil outgoing node is the proxy for "slot is used".
	outgoing [attachmentCount]*resourceNode

	// attachments holds the post-write resource handles, used to
	// resolve realized textures at execute time.
	attachments [attachmentCount]Resource

	// flags accumulates the active attachment slots during resolve.
	flags AttachmentFlags

	// params is the backend parameter block computed by resolve.
	params RenderPassParams

	// target is the realized GPU render target. It is non-zero only
	// while the pass executor runs.
	target TargetID
}

// renderPassNode is a scheduled unit of GPU work owning zero or more
// render-target declarations.
type renderPassNode struct {
	fg   *FrameGraph
	id   graph.NodeID
	name string
	exec ExecuteFunc

	targets []renderTargetData
}

func (n *renderPassNode) Name() string         { return n.name }
func (n *renderPassNode) nodeID() graph.NodeID { return n.id }

// OnCulled implements graph.Node. Render passes allocate GPU state
// only inside execute, so a culled pass has nothing to release.
func (n *renderPassNode) OnCulled(*graph.Graph) {
	n.fg.logger().Debug("pass culled", "graph", n.fg.name, "pass", n.name)
}

// declareRenderTarget applies the attachment-declaration algorithm:
// for every bound slot it captures the incoming resource version,
// registers a write through the builder (producing a new version),
// and captures the outgoing version.
func (n *renderPassNode) declareRenderTarget(b *Builder, desc RenderTargetDescriptor) RenderTarget {
	data := renderTargetData{descriptor: desc}
	att := &data.descriptor.Attachments

	declare := func(slot int, r *Resource) {
		if !r.IsValid() {
			return
		}
		data.incoming[slot] = n.fg.node(*r)
		*r = b.Write(*r, gputypes.TextureUsageRenderAttachment)
		data.outgoing[slot] = n.fg.node(*r)
		data.attachments[slot] = *r
	}
	for i := 0; i < colorAttachmentCount; i++ {
		declare(i, &att.Color[i])
	}
	declare(slotDepth, &att.Depth)
	declare(slotStencil, &att.Stencil)

	// An incoming node equal to the outgoing one means the resource
	// was created but never used before this pass: there is no prior
	// content to preserve, so treat incoming as absent.
	for i := range data.incoming {
		if data.incoming[i] == data.outgoing[i] {
			data.incoming[i] = nil
		}
	}

	id := RenderTargetID(len(n.targets))
	n.targets = append(n.targets, data)
	return RenderTarget{Attachments: data.descriptor.Attachments, ID: id}
}

// resolve computes the discard, clear and viewport parameters for
// every declared render target. The computation is pure and local:
// running it again without structural change yields identical blocks.
func (n *renderPassNode) resolve() error {
	for ti := range n.targets {
		rt := &n.targets[ti]

		for i := 0; i < attachmentCount; i++ {
			if rt.outgoing[i] == nil {
				continue
			}
			flag := slotFlags[i]
			rt.flags |= flag

			// Assume the attachment is fully transient, then prove
			// otherwise: a surviving reader needs the result kept
			// past the end of the pass, and a written incoming
			// version must survive the load at the start.
			rt.params.Flags.DiscardStart |= flag
			rt.params.Flags.DiscardEnd |= flag
			if rt.outgoing[i].hasActiveReaders() {
				rt.params.Flags.DiscardEnd &^= flag
			}
			if rt.incoming[i] != nil && rt.incoming[i].hasWriter() {
				rt.params.Flags.DiscardStart &^= flag
			}
		}

		if rt.flags == AttachmentNone {
			return fmt.Errorf("%w: target %d of pass %q", ErrNoAttachments, ti, n.name)
		}

		// A clear is a discard followed by initialization, so it
		// never conflicts with preserved content.
		clear := rt.descriptor.ClearFlags & rt.flags
		rt.params.Flags.DiscardStart |= clear
		rt.params.Flags.Clear = clear

		rt.params.ClearColor = rt.descriptor.ClearColor
		rt.params.Viewport = rt.descriptor.Viewport
		rt.params.Samples = rt.descriptor.Samples
		if rt.params.Samples == 0 {
			rt.params.Samples = 1
		}

		n.fg.logger().Debug("render target resolved",
			"graph", n.fg.name, "pass", n.name, "target", ti,
			"buffers", rt.flags,
			"discardStart", rt.params.Flags.DiscardStart,
			"discardEnd", rt.params.Flags.DiscardEnd,
			"clear", rt.params.Flags.Clear)
	}
	return nil
}

// execute materializes every declared render target, runs the pass
// executor, then destroys the targets. Target handles never outlive
// this call.
func (n *renderPassNode) execute(res *Resources, driver any) error {
	alloc := n.fg.allocator

	created := 0
	for ti := range n.targets {
		rt := &n.targets[ti]

		var infos [attachmentCount]Attachment
		for i := range rt.attachments {
			if !rt.attachments[i].IsValid() {
				continue
			}
			tex, err := res.Texture(rt.attachments[i])
			if err != nil {
				n.destroyTargets(created)
				return fmt.Errorf("framegraph: pass %q: target %d: %w", n.name, ti, err)
			}
			infos[i] = Attachment{Texture: tex}
		}

		target, err := alloc.CreateRenderTarget(n.name, rt.flags,
			rt.params.Viewport.Width, rt.params.Viewport.Height,
			rt.params.Samples,
			[4]Attachment{infos[0], infos[1], infos[2], infos[3]},
			infos[slotDepth], infos[slotStencil])
		if err != nil {
			n.destroyTargets(created)
			return fmt.Errorf("framegraph: pass %q: create render target %d: %w", n.name, ti, err)
		}
		rt.target = target
		created++
	}

	err := n.exec(res, driver)

	// Destroy even when the executor failed; the handles are scoped
	// to this single activation.
	n.destroyTargets(created)
	if err != nil {
		return fmt.Errorf("framegraph: pass %q: %w", n.name, err)
	}
	return nil
}

// destroyTargets releases the first count realized render targets.
func (n *renderPassNode) destroyTargets(count int) {
	for ti := 0; ti < count; ti++ {
		if n.targets[ti].target != 0 {
			n.fg.allocator.DestroyRenderTarget(n.targets[ti].target)
			n.targets[ti].target = 0
		}
	}
}

// renderTargetInfo returns the realized info for a declaration id.
func (n *renderPassNode) renderTargetInfo(id RenderTargetID) (RenderTargetInfo, error) {
	if int(id) >= len(n.targets) {
		return RenderTargetInfo{}, fmt.Errorf(
			"framegraph: pass %q has no render target %d", n.name, id)
	}
	rt := &n.targets[id]
	return RenderTargetInfo{Target: rt.target, Params: rt.params}, nil
}

// Graphvizify implements graph.Node: the label carries the pass name,
// reference count, id and the per-target discard summary.
func (n *renderPassNode) Graphvizify(g *graph.Graph) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[label=\"%s\\nrefs: %d, id: %d", n.name, g.RefCount(n.id), n.id)
	for ti := range n.targets {
		rt := &n.targets[ti]
		fmt.Fprintf(&sb, "\\nS:%s, E:%s",
			rt.params.Flags.DiscardStart, rt.params.Flags.DiscardEnd)
	}
	fill := "darkorange"
	if g.IsCulled(n.id) {
		fill = "darkorange4"
	}
	fmt.Fprintf(&sb, "\", style=filled, fillcolor=%s]", fill)
	return sb.String()
}

// GraphvizEdgeColor implements graph.EdgeColorer: write edges leaving
// a pass are drawn in red.
func (n *renderPassNode) GraphvizEdgeColor() string { return "red" }
