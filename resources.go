package framegraph

import (
	"errors"
	"fmt"
)

// Resource resolution errors.
var (
	// ErrNotRealized is returned when an executor asks for a resource
	// that is not materialized while its pass runs.
	ErrNotRealized = errors.New("framegraph: resource not realized")
)

// Resources is the read-only resource-resolution view handed to a pass
// executor. It maps the pass's declared resource handles to their
// realized backend handles and exposes the pass's realized render
// targets.
//
// A Resources view is only valid for the duration of the executor call
// it was created for.
type Resources struct {
	fg   *FrameGraph
	pass passNode
}

// Pass returns the name of the executing pass.
func (r *Resources) Pass() string { return r.pass.Name() }

// Texture resolves a declared resource handle to the realized texture
// backing it. The resource must be in use by a surviving pass while
// the current pass executes; otherwise ErrNotRealized is returned.
func (r *Resources) Texture(h Resource) (TextureID, error) {
	if !h.IsValid() || int(h.index) >= len(r.fg.slots) {
		return 0, fmt.Errorf("framegraph: unknown resource handle %+v", h)
	}
	s := r.fg.slots[h.index]
	if s.realized == 0 {
		return 0, fmt.Errorf("%w: %q in pass %q", ErrNotRealized, s.name, r.pass.Name())
	}
	return s.realized, nil
}

// Descriptor returns the declared descriptor of a resource.
func (r *Resources) Descriptor(h Resource) (TextureDescriptor, error) {
	if !h.IsValid() || int(h.index) >= len(r.fg.slots) {
		return TextureDescriptor{}, fmt.Errorf("framegraph: unknown resource handle %+v", h)
	}
	return r.fg.slots[h.index].desc, nil
}

// RenderTarget returns the realized render target and its resolved
// parameter block for a declaration made by the executing pass.
func (r *Resources) RenderTarget(id RenderTargetID) (RenderTargetInfo, error) {
	rp, ok := r.pass.(*renderPassNode)
	if !ok {
		return RenderTargetInfo{}, fmt.Errorf(
			"framegraph: pass %q declares no render targets", r.pass.Name())
	}
	return rp.renderTargetInfo(id)
}
