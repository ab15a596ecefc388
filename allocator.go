package framegraph

// TextureID is an allocator-scoped handle to a realized GPU texture.
// The zero value is never a valid id.
type TextureID uint64

// TargetID is an allocator-scoped handle to a realized GPU render
// target. The zero value is never a valid id.
type TargetID uint64

// Attachment describes one realized attachment of a render target
// passed to ResourceAllocator.CreateRenderTarget. The zero Attachment
// marks an unused slot.
type Attachment struct {
	// Texture is the realized texture bound to the slot.
	Texture TextureID

	// Level is the mip level to render into.
	Level uint32

	// Layer is the array layer to render into.
	Layer uint32
}

// IsValid reports whether the attachment references a texture.
func (a Attachment) IsValid() bool { return a.Texture != 0 }

// ResourceAllocator materializes and destroys concrete GPU resources
// on behalf of the frame graph. The frame graph is the allocator's
// sole caller within a frame and never invokes it concurrently.
//
// Render targets are bracketed: the frame graph creates each declared
// target exactly once per Execute, hands it to the pass executor, and
// destroys it before the executor's pass returns. Textures live from
// the first surviving pass that uses them to the last.
//
// backend/wgpu provides an implementation backed by a gogpu/wgpu HAL
// device; tests can implement the interface with a recording stub.
type ResourceAllocator interface {
	// CreateTexture materializes a virtual texture resource.
	CreateTexture(name string, desc TextureDescriptor) (TextureID, error)

	// DestroyTexture releases a texture created by CreateTexture.
	DestroyTexture(id TextureID)

	// CreateRenderTarget realizes a render target over the given
	// attachments. buffers selects the populated attachment slots.
	CreateRenderTarget(name string, buffers AttachmentFlags,
		width, height uint32, samples uint8,
		color [4]Attachment, depth, stencil Attachment) (TargetID, error)

	// DestroyRenderTarget releases a target created by
	// CreateRenderTarget.
	DestroyRenderTarget(id TargetID)
}
