package framegraph

import "github.com/gogpu/gputypes"

// Resource is an opaque handle to one version of a frame-graph
// resource. Writing a resource produces a handle to a new version;
// the version a handle refers to is the state of the resource
// immediately after that write. The zero Resource is invalid.
//
// Handles are only meaningful within the FrameGraph that issued them.
type Resource struct {
	index   uint16
	version uint16
}

// IsValid reports whether the handle refers to a declared resource.
func (r Resource) IsValid() bool { return r.index != 0 }

// TextureDescriptor describes a virtual texture resource. The frame
// graph materializes it through the resource allocator right before
// the first pass that uses it executes, and destroys it after the
// last.
type TextureDescriptor struct {
	// Width and Height are the texture dimensions in pixels.
	Width  uint32
	Height uint32

	// Depth is the number of array layers or depth slices.
	// Zero means one.
	Depth uint32

	// Levels is the number of mip levels. Zero means one.
	Levels uint8

	// Samples is the MSAA sample count. Zero means one.
	Samples uint8

	// Format is the texel format.
	Format gputypes.TextureFormat

	// Usage declares how the texture will be used. Textures bound as
	// render-target attachments need
	// [gputypes.TextureUsageRenderAttachment].
	Usage gputypes.TextureUsage
}

// resourceSlot is the frame graph's bookkeeping for one declared
// resource across all of its versions. Slot 0 is reserved so the zero
// Resource stays invalid.
type resourceSlot struct {
	name    string
	desc    TextureDescriptor
	version uint16
	nodes   []*resourceNode // one per version

	// Lifetime schedule, planned during Compile. Index of the pass
	// that materializes / releases the concrete texture, or -1 when
	// every user was culled.
	firstUse int
	lastUse  int

	// realized is the allocator handle while the texture is alive
	// during Execute.
	realized TextureID
}

// current returns the node for the slot's newest version.
func (s *resourceSlot) current() *resourceNode {
	return s.nodes[len(s.nodes)-1]
}
