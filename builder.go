package framegraph

import (
	"github.com/gogpu/gputypes"
)

// Builder declares a pass's resources and render targets. A Builder is
// handed to the setup function of AddPass and is bound to that pass.
//
// Builder calls are only valid between pass declaration and Compile.
// Calling any method after Compile is a programming error and panics;
// so is passing an unknown or stale resource handle. These are
// structural bugs in the caller, not recoverable conditions.
type Builder struct {
	fg   *FrameGraph
	pass *renderPassNode
}

// CreateTexture declares a new virtual texture resource and returns
// the handle to its initial version. Nothing is allocated until a
// surviving pass uses the resource during Execute.
func (b *Builder) CreateTexture(name string, desc TextureDescriptor) Resource {
	b.fg.assertOpen("CreateTexture")
	return b.fg.createTexture(name, desc)
}

// Read declares that the pass consumes the given resource version with
// the given usage. The returned handle refers to the same version.
// Reading a superseded version is a programming error and panics: its
// contents were overwritten by the newer version.
func (b *Builder) Read(r Resource, usage gputypes.TextureUsage) Resource {
	b.fg.assertOpen("Read")
	node := b.fg.slot(r).current()
	if existing := node.readerFor(b.pass.id); existing != nil {
		existing.usage |= usage
		return r
	}
	e := b.fg.graph.Link(node.id, b.pass.id)
	node.readers = append(node.readers, resourceEdge{edge: e, usage: usage})
	return r
}

// Write declares that the pass produces a new version of the given
// resource and returns the handle to it. The prior version becomes
// immutable history; only the returned handle is valid for later
// declarations. A version has at most one writer: writing a version
// that already has a writer or readers produces a fresh version.
func (b *Builder) Write(r Resource, usage gputypes.TextureUsage) Resource {
	b.fg.assertOpen("Write")
	slot := b.fg.slot(r)
	node := slot.current()

	// Writing a version this pass already produced is a no-op
	// (a pass declaring several attachments over one resource).
	if node.writer.edge != nil && node.writer.edge.From == b.pass.id {
		node.writer.usage |= usage
		return r
	}

	if node.writer.edge != nil || len(node.readers) > 0 {
		slot.version++
		node = b.fg.newResourceNode(r.index, slot.version)
		slot.nodes = append(slot.nodes, node)
		r.version = slot.version
	}

	e := b.fg.graph.Link(b.pass.id, node.id)
	node.writer = resourceEdge{edge: e, usage: usage}
	return r
}

// DeclareRenderTarget declares a render target for the pass from the
// given descriptor. Every bound attachment slot is written through the
// builder, so the declaration produces new versions of the attached
// resources; the returned RenderTarget carries the new handles, which
// later passes must use in place of the ones in the descriptor.
func (b *Builder) DeclareRenderTarget(desc RenderTargetDescriptor) RenderTarget {
	b.fg.assertOpen("DeclareRenderTarget")
	return b.pass.declareRenderTarget(b, desc)
}

// SideEffect marks the pass as a culling root: it survives culling
// even when no other pass or the present pass consumes its outputs.
// Use it for passes with externally visible effects, such as writes
// into imported or persistent storage.
func (b *Builder) SideEffect() {
	b.fg.assertOpen("SideEffect")
	b.fg.graph.MakeTarget(b.pass.id)
}
