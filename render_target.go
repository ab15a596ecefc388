package framegraph

import (
	"strings"

	"github.com/gogpu/gputypes"
)

// Attachment slot layout shared by render-target declarations and the
// resource allocator: four color attachments followed by depth and
// stencil.
const (
	colorAttachmentCount = 4
	attachmentCount      = 6
	slotDepth            = 4
	slotStencil          = 5
)

// AttachmentFlags is a bitmask of render-target attachment slots.
type AttachmentFlags uint8

const (
	// AttachmentColor0 selects the first color attachment.
	AttachmentColor0 AttachmentFlags = 1 << iota
	// AttachmentColor1 selects the second color attachment.
	AttachmentColor1
	// AttachmentColor2 selects the third color attachment.
	AttachmentColor2
	// AttachmentColor3 selects the fourth color attachment.
	AttachmentColor3
	// AttachmentDepth selects the depth attachment.
	AttachmentDepth
	// AttachmentStencil selects the stencil attachment.
	AttachmentStencil

	// AttachmentNone selects no attachment.
	AttachmentNone AttachmentFlags = 0
	// AttachmentAllColor selects every color attachment.
	AttachmentAllColor = AttachmentColor0 | AttachmentColor1 | AttachmentColor2 | AttachmentColor3
	// AttachmentDepthStencil selects the depth and stencil attachments.
	AttachmentDepthStencil = AttachmentDepth | AttachmentStencil
	// AttachmentAll selects every attachment slot.
	AttachmentAll = AttachmentAllColor | AttachmentDepthStencil
)

// slotFlags maps an attachment slot index to its flag bit.
var slotFlags = [attachmentCount]AttachmentFlags{
	AttachmentColor0,
	AttachmentColor1,
	AttachmentColor2,
	AttachmentColor3,
	AttachmentDepth,
	AttachmentStencil,
}

// slotNames mirrors slotFlags for diagnostics.
var slotNames = [attachmentCount]string{
	"COLOR0", "COLOR1", "COLOR2", "COLOR3", "DEPTH", "STENCIL",
}

// String returns a pipe-separated list of the selected slots,
// or "NONE" when the mask is empty.
func (f AttachmentFlags) String() string {
	if f == AttachmentNone {
		return "NONE"
	}
	var parts []string
	for i, flag := range slotFlags {
		if f&flag != 0 {
			parts = append(parts, slotNames[i])
		}
	}
	return strings.Join(parts, "|")
}

// Has reports whether every slot in mask is selected.
func (f AttachmentFlags) Has(mask AttachmentFlags) bool {
	return f&mask == mask && mask != AttachmentNone
}

// Attachments lists the resource handles bound to each attachment slot
// of a render-target declaration. Unused slots hold the zero Resource.
type Attachments struct {
	Color   [colorAttachmentCount]Resource
	Depth   Resource
	Stencil Resource
}

// Viewport selects the render area of a target in pixels.
type Viewport struct {
	X      uint32
	Y      uint32
	Width  uint32
	Height uint32
}

// RenderTargetDescriptor declares a render target for one pass. The
// descriptor is copied at declaration time; later mutation has no
// effect on the pass.
type RenderTargetDescriptor struct {
	// Attachments binds resource handles to attachment slots. At
	// least one slot must be bound or Compile fails.
	Attachments Attachments

	// Viewport is the render area. Its width and height also size
	// the realized GPU render target.
	Viewport Viewport

	// ClearColor is the color written to cleared color attachments.
	ClearColor gputypes.Color

	// ClearFlags selects the attachments to clear when the pass
	// begins. Clearing implies the previous contents are discarded.
	ClearFlags AttachmentFlags

	// Samples is the MSAA sample count. Zero means one.
	Samples uint8
}

// RenderPassFlags carries the derived load/store behavior of a render
// target, computed during Compile.
type RenderPassFlags struct {
	// Clear selects attachments cleared at the start of the pass.
	Clear AttachmentFlags

	// DiscardStart selects attachments whose previous contents need
	// not be loaded when the pass begins.
	DiscardStart AttachmentFlags

	// DiscardEnd selects attachments whose contents need not be
	// preserved when the pass ends.
	DiscardEnd AttachmentFlags
}

// RenderPassParams is the backend-facing parameter block for one
// render target, computed during Compile from the declared descriptor
// and the surviving graph.
type RenderPassParams struct {
	Viewport   Viewport
	ClearColor gputypes.Color
	Flags      RenderPassFlags
	Samples    uint8
}

// LoadOp returns the wgpu load operation for the given attachment
// slot. Cleared and fully discarded attachments load with
// [gputypes.LoadOpClear]; preserved attachments load with
// [gputypes.LoadOpLoad].
func (p RenderPassParams) LoadOp(slot AttachmentFlags) gputypes.LoadOp {
	if p.Flags.Clear&slot != 0 || p.Flags.DiscardStart&slot != 0 {
		return gputypes.LoadOpClear
	}
	return gputypes.LoadOpLoad
}

// StoreOp returns the wgpu store operation for the given attachment
// slot. Attachments with no surviving readers store with
// [gputypes.StoreOpDiscard].
func (p RenderPassParams) StoreOp(slot AttachmentFlags) gputypes.StoreOp {
	if p.Flags.DiscardEnd&slot != 0 {
		return gputypes.StoreOpDiscard
	}
	return gputypes.StoreOpStore
}

// RenderTargetID identifies a render-target declaration within the
// pass that declared it. IDs are not meaningful across passes.
type RenderTargetID uint32

// RenderTarget is the result of declaring a render target: the
// pass-scoped id plus the post-write attachment handles. Later passes
// must consume the resources through these handles, since declaring an
// attachment produces a new version of it.
type RenderTarget struct {
	// Attachments holds the new resource versions produced by the
	// declaration.
	Attachments Attachments

	// ID resolves the realized target through Resources.RenderTarget
	// during execution.
	ID RenderTargetID
}

// RenderTargetInfo is the realized form of a render-target declaration,
// available to pass executors through Resources.RenderTarget.
type RenderTargetInfo struct {
	// Target is the allocator handle of the materialized render
	// target. It is valid only for the duration of the executor call.
	Target TargetID

	// Params is the resolved backend parameter block.
	Params RenderPassParams
}
